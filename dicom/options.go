// Copyright 2018 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package dicom

// ReadOption configures how data sets and files are read.
type ReadOption struct {
	apply func(*readContext)
}

// DropGroupLengths will exclude all group length elements (gggg,0000) from the data sets read
var DropGroupLengths = ReadOption{func(ctx *readContext) {
	ctx.dropGroupLengths = true
}}

// DropBasicOffsetTable will empty the basic offset table of pixel data encoded using the
// encapsulated (compressed) format. For more information on the offset table and encapsulated
// formats please see http://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_A.4
var DropBasicOffsetTable = ReadOption{func(ctx *readContext) {
	ctx.dropOffsetTable = true
}}

// ReadStrict makes odd value lengths an error instead of a warning.
var ReadStrict = ReadOption{func(ctx *readContext) {
	ctx.strict = true
}}

// WithDictionary resolves implicit VRs with dict instead of DefaultDictionary.
func WithDictionary(dict Dictionary) ReadOption {
	return ReadOption{func(ctx *readContext) {
		ctx.dict = dict
	}}
}

// WithMaxReadLength leaves values longer than n bytes unresolved when reading from a random access
// stream. Their location is kept as a BulkDataReference and DataElement.Load reads them on demand.
func WithMaxReadLength(n uint32) ReadOption {
	return ReadOption{func(ctx *readContext) {
		ctx.maxReadLength = n
	}}
}

// ReferenceBulkData leaves the values of elements for which isBulkData returns true unresolved
// when reading from a random access stream, see WithMaxReadLength.
func ReferenceBulkData(isBulkData func(DataElementTag) bool) ReadOption {
	return ReadOption{func(ctx *readContext) {
		ctx.isBulkData = isBulkData
	}}
}

// DefaultBulkDataDefinition returns true if and only if the tag corresponds to a data element
// that contains large non-metadata fields
func DefaultBulkDataDefinition(tag DataElementTag) bool {
	// Tags in the DICOM data dictionary have wildcards (e.g. tags like (gggg,eexx), (ggxx,eeee))
	// The tag constants store the value of the tag with the x's set to '0' in hex.
	// For example the Curve Data tag is defined as (50xx,3000). The constant
	// CurveDataTag = 0x50003000. So we can check if a given tag is of the form (50xx,3000) from
	// the condition (tag & 0xFF00FFFF) == CurveDataTag.
	//
	// The following list of masks handles all wildcards in the DICOM data dictionary. The value
	// 0xFFFFFFFF is included in the list of masks for convenience since
	// (tag & 0xFFFFFFFF) == tag
	for _, m := range []uint32{0xFFFFFF00, 0xFFFFFF0F, 0xFFFF000F, 0xFFFF0000, 0xFF00FFFF, 0xFFFFFFFF} {
		switch DataElementTag(uint32(tag) & m) {
		case PixelDataProviderURLTag, AudioSampleDataTag, CurveDataTag, SpectroscopyDataTag,
			OverlayDataTag, EncapsulatedDocumentTag, FloatPixelDataTag, DoubleFloatPixelDataTag,
			PixelDataTag, WaveformDataTag:
			return true
		}
	}
	return false
}
