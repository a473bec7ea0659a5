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

import "fmt"

// DataElementTag is a unique identifier for a Data Element composed of an unordered pair
// of numbers called the group number and the element number as specified in
// http://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_3.10.
//
// The least significant 16 bits is the element number. The most significant 16 bits is the group
// number.
type DataElementTag uint32

// NewTag returns the tag (group,element).
func NewTag(group, element uint16) DataElementTag {
	return DataElementTag(uint32(group)<<16 | uint32(element))
}

// GroupNumber returns the group number component of the DataElementTag
func (t DataElementTag) GroupNumber() uint16 {
	return uint16(t >> 16)
}

// ElementNumber returns the element number component of the DataElementTag
func (t DataElementTag) ElementNumber() uint16 {
	return uint16(t & 0xFFFF)
}

// IsMetaElement is true if and only if the Data Element is a file meta information element
func (t DataElementTag) IsMetaElement() bool {
	return t.GroupNumber() == uint16(0x0002)
}

// IsGroupLength is true for group length tags (gggg,0000)
func (t DataElementTag) IsGroupLength() bool {
	return t.ElementNumber() == 0
}

// IsPrivate is true for tags with an odd group number
func (t DataElementTag) IsPrivate() bool {
	return t.GroupNumber()%2 == 1
}

// IsPrivateCreator is true for private creator tags (gggg,0010-00FF) of odd groups
func (t DataElementTag) IsPrivateCreator() bool {
	return t.IsPrivate() && t.ElementNumber() >= 0x0010 && t.ElementNumber() <= 0x00FF
}

// isDelimiter is true for the item and delimitation tags of group FFFE
func (t DataElementTag) isDelimiter() bool {
	return t == ItemTag || t == ItemDelimitationItemTag || t == SequenceDelimitationItemTag
}

// DictionaryVR returns the VR registered for the tag in the default data dictionary, or UN if
// the tag is unknown.
func (t DataElementTag) DictionaryVR() *VR {
	if entry, ok := DefaultDictionary.Lookup(t); ok {
		return entry.VR
	}
	return UNVR
}

// String formats the tag as (gggg,eeee)
func (t DataElementTag) String() string {
	return fmt.Sprintf("(%04X,%04X)", t.GroupNumber(), t.ElementNumber())
}

// Tags used by the toolkit itself. The complete list of tags lives in the data dictionary.
const (
	FileMetaInformationGroupLengthTag DataElementTag = 0x00020000
	FileMetaInformationVersionTag     DataElementTag = 0x00020001
	MediaStorageSOPClassUIDTag        DataElementTag = 0x00020002
	MediaStorageSOPInstanceUIDTag     DataElementTag = 0x00020003
	TransferSyntaxUIDTag              DataElementTag = 0x00020010
	ImplementationClassUIDTag         DataElementTag = 0x00020012
	ImplementationVersionNameTag      DataElementTag = 0x00020013
	SourceApplicationEntityTitleTag   DataElementTag = 0x00020016

	SpecificCharacterSetTag        DataElementTag = 0x00080005
	ImageTypeTag                   DataElementTag = 0x00080008
	SOPClassUIDTag                 DataElementTag = 0x00080016
	SOPInstanceUIDTag              DataElementTag = 0x00080018
	StudyDateTag                   DataElementTag = 0x00080020
	ModalityTag                    DataElementTag = 0x00080060
	ReferencedImageSequenceTag     DataElementTag = 0x00081140
	ReferencedSOPClassUIDTag       DataElementTag = 0x00081150
	ReferencedSOPInstanceUIDTag    DataElementTag = 0x00081155
	DerivationDescriptionTag       DataElementTag = 0x00082111
	SourceImageSequenceTag         DataElementTag = 0x00082112
	PatientNameTag                 DataElementTag = 0x00100010
	PatientIDTag                   DataElementTag = 0x00100020
	StudyInstanceUIDTag            DataElementTag = 0x0020000D
	SeriesInstanceUIDTag           DataElementTag = 0x0020000E
	SamplesPerPixelTag             DataElementTag = 0x00280002
	PhotometricInterpretationTag   DataElementTag = 0x00280004
	PlanarConfigurationTag         DataElementTag = 0x00280006
	NumberOfFramesTag              DataElementTag = 0x00280008
	RowsTag                        DataElementTag = 0x00280010
	ColumnsTag                     DataElementTag = 0x00280011
	BitsAllocatedTag               DataElementTag = 0x00280100
	BitsStoredTag                  DataElementTag = 0x00280101
	HighBitTag                     DataElementTag = 0x00280102
	PixelRepresentationTag         DataElementTag = 0x00280103
	SmallestImagePixelValueTag     DataElementTag = 0x00280106
	LargestImagePixelValueTag      DataElementTag = 0x00280107
	LossyImageCompressionTag       DataElementTag = 0x00282110
	LossyImageCompressionRatioTag  DataElementTag = 0x00282112
	LossyImageCompressionMethodTag DataElementTag = 0x00282114
	PixelDataProviderURLTag        DataElementTag = 0x00287FE0
	EncapsulatedDocumentTag        DataElementTag = 0x00420011
	AudioSampleDataTag             DataElementTag = 0x5000200C
	CurveDataTag                   DataElementTag = 0x50003000
	SpectroscopyDataTag            DataElementTag = 0x56000020
	WaveformDataTag                DataElementTag = 0x54001010
	OverlayDataTag                 DataElementTag = 0x60003000
	FloatPixelDataTag              DataElementTag = 0x7FE00008
	DoubleFloatPixelDataTag        DataElementTag = 0x7FE00009
	PixelDataTag                   DataElementTag = 0x7FE00010
	DataSetTrailingPaddingTag      DataElementTag = 0xFFFCFFFC
	ItemTag                        DataElementTag = 0xFFFEE000
	ItemDelimitationItemTag        DataElementTag = 0xFFFEE00D
	SequenceDelimitationItemTag    DataElementTag = 0xFFFEE0DD
)
