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

import (
	"fmt"
)

// vrType is to group common encodings together
type vrType int

const (
	// textVR is for value fields that will be interpreted as simple text with space padding
	textVR vrType = iota

	// numberBinaryVR is for value fields that are parsed as binary numbers
	numberBinaryVR

	// bulkDataVR groups sequences of binary numbers
	bulkDataVR

	// uniqueIdentifierVR is for VR: UI. It has null padding
	uniqueIdentifierVR

	// sequenceVR is for VR: SQ
	sequenceVR

	// tagVR is for tags. Distinct from numberBinaryVR due to little endian byte ordering
	tagVR

	// ambiguousVR is for dictionary VRs that depend on context, e.g. "US or SS"
	ambiguousVR

	// itemVR is for items and delimitation items, which carry no VR
	itemVR
)

// UndefinedLength as specified
// http://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_7.1.1
const UndefinedLength = 0xffffffff

// VR models the DICOM Value representations (VR)
// http://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_6.2
type VR struct {
	// Name represents the 2-character VR Code
	Name string

	kind vrType

	// width is the size in bytes of a single value, used when swapping byte order
	width int

	// long is true for VRs encoded with a reserved field and 32-bit length in explicit syntaxes
	long bool
}

var vrLookupMap = map[string]*VR{}

func newVR(text string, vrType vrType, width int, long bool) *VR {
	vr := &VR{text, vrType, width, long}
	vrLookupMap[vr.Name] = vr

	return vr
}

func lookupVRByName(name string) (*VR, error) {
	r, ok := vrLookupMap[name]
	if !ok {
		return nil, fmt.Errorf("unknown vr name %q: %w", name, ErrInvalidVR)
	}
	return r, nil
}

// LookupVR returns the VR with the given 2-character code.
func LookupVR(name string) (*VR, error) {
	return lookupVRByName(name)
}

// String returns the VR code.
func (vr *VR) String() string {
	if vr == nil {
		return "??"
	}
	return vr.Name
}

// Has32BitLength reports whether explicit VR syntaxes encode this VR with 2 reserved bytes and a
// 32-bit value length. See
// http://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_7.1.2
func (vr *VR) Has32BitLength() bool {
	return vr.long
}

// ElementWidth is the number of bytes that are swapped together when converting values of this VR
// between little and big endian.
func (vr *VR) ElementWidth() int {
	return vr.width
}

// IsString is true for VRs whose values are character strings.
func (vr *VR) IsString() bool {
	return vr.kind == textVR || vr.kind == uniqueIdentifierVR
}

// IsAmbiguous is true for the context dependent dictionary VRs (ox, xs, lt).
func (vr *VR) IsAmbiguous() bool {
	return vr.kind == ambiguousVR
}

// isBulk is true for OB, OW, UN and the other VRs that may hold large binary values
func (vr *VR) isBulk() bool {
	return vr.kind == bulkDataVR || vr == OXVR
}

// padding returns the byte used to pad values of this VR to even length.
func (vr *VR) padding() byte {
	if vr.kind == textVR {
		return ' '
	}
	return 0x00
}

// concrete returns the VR used to encode values of an ambiguous VR when no context is available.
func (vr *VR) concrete() *VR {
	switch vr {
	case OXVR, LTAmbiguousVR:
		return OWVR
	case XSVR:
		return USVR
	case nil, NAVR:
		return UNVR
	}
	return vr
}

// VR list obtained from
// http://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_6.2
var (
	// textual VRs
	CSVR = newVR("CS", textVR, 1, false)
	SHVR = newVR("SH", textVR, 1, false)
	LOVR = newVR("LO", textVR, 1, false)
	STVR = newVR("ST", textVR, 1, false)
	LTVR = newVR("LT", textVR, 1, false)
	ASVR = newVR("AS", textVR, 1, false)

	// person name
	PNVR = newVR("PN", textVR, 1, false)

	// application entity
	AEVR = newVR("AE", textVR, 1, false)

	// dates/time VR
	DAVR = newVR("DA", textVR, 1, false)
	TMVR = newVR("TM", textVR, 1, false)
	DTVR = newVR("DT", textVR, 1, false)

	// textual numbers
	ISVR = newVR("IS", textVR, 1, false)
	DSVR = newVR("DS", textVR, 1, false)

	// binary numbers
	SSVR = newVR("SS", numberBinaryVR, 2, false)
	USVR = newVR("US", numberBinaryVR, 2, false)
	SLVR = newVR("SL", numberBinaryVR, 4, false)
	ULVR = newVR("UL", numberBinaryVR, 4, false)
	SVVR = newVR("SV", numberBinaryVR, 8, true)
	UVVR = newVR("UV", numberBinaryVR, 8, true)
	FLVR = newVR("FL", numberBinaryVR, 4, false)
	FDVR = newVR("FD", numberBinaryVR, 8, false)

	// large binary sequences
	OBVR = newVR("OB", bulkDataVR, 1, true)
	ODVR = newVR("OD", bulkDataVR, 8, true)
	OLVR = newVR("OL", bulkDataVR, 4, true)
	OVVR = newVR("OV", bulkDataVR, 8, true)
	OWVR = newVR("OW", bulkDataVR, 2, true)
	OFVR = newVR("OF", bulkDataVR, 4, true)

	// unlimited char
	UCVR = newVR("UC", textVR, 1, true)

	// unknown
	UNVR = newVR("UN", bulkDataVR, 1, true)

	// URL
	URVR = newVR("UR", textVR, 1, true)

	// unlimited text
	UTVR = newVR("UT", textVR, 1, true)

	// attribute tag
	ATVR = newVR("AT", tagVR, 2, false)

	// unique identifier
	UIVR = newVR("UI", uniqueIdentifierVR, 1, false)

	// sequence
	SQVR = newVR("SQ", sequenceVR, 1, true)
)

// Dictionary-only VRs. They never appear in an encoded stream.
var (
	// OXVR is "OB or OW", used by pixel, overlay and curve data
	OXVR = newVR("ox", ambiguousVR, 2, true)
	// XSVR is "US or SS", resolved through Pixel Representation (0028,0103)
	XSVR = newVR("xs", ambiguousVR, 2, false)
	// LTAmbiguousVR is "US, SS or OW", used by lookup table data
	LTAmbiguousVR = newVR("lt", ambiguousVR, 2, true)
	// NAVR is the pseudo VR of items and delimitation items
	NAVR = newVR("na", itemVR, 1, false)
)
