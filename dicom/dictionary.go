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
	"io"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// DictEntry describes a single tag of the DICOM data dictionary.
type DictEntry struct {
	Tag     DataElementTag
	VR      *VR
	VM      string
	Keyword string

	// Mask selects the bits of a tag that must equal Tag for the entry to apply. Zero means the
	// entry matches Tag exactly. Repeating groups such as (60xx,3000) use the mask 0xFF00FFFF.
	Mask uint32
}

func (e DictEntry) matches(tag DataElementTag) bool {
	if e.Mask == 0 {
		return e.Tag == tag
	}
	return uint32(tag)&e.Mask == uint32(e.Tag)
}

// Dictionary resolves tags to their data dictionary entries.
type Dictionary interface {
	Lookup(tag DataElementTag) (DictEntry, bool)
}

// MapDictionary is a Dictionary backed by an exact-match map and a list of masked entries for
// repeating groups.
type MapDictionary struct {
	exact  map[DataElementTag]DictEntry
	masked []DictEntry
}

// NewDictionary returns a MapDictionary holding entries. Later entries replace earlier entries
// for the same tag.
func NewDictionary(entries ...DictEntry) *MapDictionary {
	d := &MapDictionary{exact: map[DataElementTag]DictEntry{}}
	for _, e := range entries {
		d.Add(e)
	}
	return d
}

// Add registers e in the dictionary.
func (d *MapDictionary) Add(e DictEntry) {
	if e.Mask == 0 || e.Mask == 0xFFFFFFFF {
		e.Mask = 0
		d.exact[e.Tag] = e
		return
	}
	for i, m := range d.masked {
		if m.Tag == e.Tag && m.Mask == e.Mask {
			d.masked[i] = e
			return
		}
	}
	d.masked = append(d.masked, e)
	// more specific masks first
	sort.SliceStable(d.masked, func(i, j int) bool {
		return bitCount(d.masked[i].Mask) > bitCount(d.masked[j].Mask)
	})
}

// Lookup implements Dictionary. Group length tags and private creator tags resolve to generic
// entries when no specific entry exists.
func (d *MapDictionary) Lookup(tag DataElementTag) (DictEntry, bool) {
	if e, ok := d.exact[tag]; ok {
		return e, true
	}
	for _, e := range d.masked {
		if e.matches(tag) {
			return e, true
		}
	}
	switch {
	case tag.IsGroupLength() && !tag.isDelimiter():
		return DictEntry{Tag: tag, VR: ULVR, VM: "1", Keyword: "GenericGroupLength"}, true
	case tag.IsPrivateCreator():
		return DictEntry{Tag: tag, VR: LOVR, VM: "1", Keyword: "PrivateCreator"}, true
	}
	return DictEntry{}, false
}

// Len returns the number of entries in the dictionary.
func (d *MapDictionary) Len() int {
	return len(d.exact) + len(d.masked)
}

func bitCount(m uint32) int {
	n := 0
	for ; m != 0; m &= m - 1 {
		n++
	}
	return n
}

type layeredDictionary []Dictionary

func (l layeredDictionary) Lookup(tag DataElementTag) (DictEntry, bool) {
	for _, d := range l {
		if e, ok := d.Lookup(tag); ok {
			return e, true
		}
	}
	return DictEntry{}, false
}

// Merge returns a Dictionary that consults dicts in order and returns the first match. It is
// typically used to layer private dictionaries over DefaultDictionary.
func Merge(dicts ...Dictionary) Dictionary {
	return layeredDictionary(dicts)
}

type yamlDictEntry struct {
	Tag     string `yaml:"tag"`
	VR      string `yaml:"vr"`
	VM      string `yaml:"vm"`
	Keyword string `yaml:"keyword"`
}

// LoadDictionary reads dictionary entries from a YAML list such as
//
//	- tag: "(0009,1001)"
//	  vr: LO
//	  vm: "1"
//	  keyword: AcmeScannerMode
//	- tag: "(60xx,0022)"
//	  vr: LO
//	  keyword: OverlayDescription
//
// An "x" in the tag denotes a repeating digit.
func LoadDictionary(r io.Reader) (*MapDictionary, error) {
	var raw []yamlDictEntry
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decoding dictionary: %w", err)
	}

	d := NewDictionary()
	for i, re := range raw {
		tag, mask, err := parseTagPattern(re.Tag)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		vr, err := lookupVRByName(re.VR)
		if err != nil {
			return nil, fmt.Errorf("entry %d (%v): %w", i, re.Tag, err)
		}
		vm := re.VM
		if vm == "" {
			vm = "1"
		}
		d.Add(DictEntry{Tag: tag, VR: vr, VM: vm, Keyword: re.Keyword, Mask: mask})
	}
	return d, nil
}

// parseTagPattern parses "(gggg,eeee)" where any digit may be "x".
func parseTagPattern(s string) (DataElementTag, uint32, error) {
	p := strings.TrimSpace(s)
	p = strings.TrimPrefix(p, "(")
	p = strings.TrimSuffix(p, ")")
	p = strings.Replace(p, ",", "", 1)
	if len(p) != 8 {
		return 0, 0, fmt.Errorf("malformed tag %q: %w", s, ErrInvalidTag)
	}

	var value, mask string
	for _, c := range strings.ToLower(p) {
		if c == 'x' {
			value += "0"
			mask += "0"
		} else {
			value += string(c)
			mask += "f"
		}
	}
	v, err := strconv.ParseUint(value, 16, 32)
	if err != nil {
		return 0, 0, fmt.Errorf("malformed tag %q: %w", s, ErrInvalidTag)
	}
	m, _ := strconv.ParseUint(mask, 16, 32)
	if m == 0xFFFFFFFF {
		m = 0
	}
	return DataElementTag(v), uint32(m), nil
}

// DefaultDictionary is the built-in data dictionary. It covers the file meta information, the
// patient, study, series and image pixel modules, the repeating overlay and curve groups, and
// the item and delimitation tags. Extend it with Merge and LoadDictionary.
var DefaultDictionary = NewDictionary(builtinEntries...)

var builtinEntries = []DictEntry{
	{Tag: FileMetaInformationGroupLengthTag, VR: ULVR, VM: "1", Keyword: "FileMetaInformationGroupLength"},
	{Tag: FileMetaInformationVersionTag, VR: OBVR, VM: "1", Keyword: "FileMetaInformationVersion"},
	{Tag: MediaStorageSOPClassUIDTag, VR: UIVR, VM: "1", Keyword: "MediaStorageSOPClassUID"},
	{Tag: MediaStorageSOPInstanceUIDTag, VR: UIVR, VM: "1", Keyword: "MediaStorageSOPInstanceUID"},
	{Tag: TransferSyntaxUIDTag, VR: UIVR, VM: "1", Keyword: "TransferSyntaxUID"},
	{Tag: ImplementationClassUIDTag, VR: UIVR, VM: "1", Keyword: "ImplementationClassUID"},
	{Tag: ImplementationVersionNameTag, VR: SHVR, VM: "1", Keyword: "ImplementationVersionName"},
	{Tag: SourceApplicationEntityTitleTag, VR: AEVR, VM: "1", Keyword: "SourceApplicationEntityTitle"},

	{Tag: SpecificCharacterSetTag, VR: CSVR, VM: "1-n", Keyword: "SpecificCharacterSet"},
	{Tag: ImageTypeTag, VR: CSVR, VM: "2-n", Keyword: "ImageType"},
	{Tag: 0x00080012, VR: DAVR, VM: "1", Keyword: "InstanceCreationDate"},
	{Tag: 0x00080013, VR: TMVR, VM: "1", Keyword: "InstanceCreationTime"},
	{Tag: SOPClassUIDTag, VR: UIVR, VM: "1", Keyword: "SOPClassUID"},
	{Tag: SOPInstanceUIDTag, VR: UIVR, VM: "1", Keyword: "SOPInstanceUID"},
	{Tag: StudyDateTag, VR: DAVR, VM: "1", Keyword: "StudyDate"},
	{Tag: 0x00080021, VR: DAVR, VM: "1", Keyword: "SeriesDate"},
	{Tag: 0x0008002A, VR: DTVR, VM: "1", Keyword: "AcquisitionDateTime"},
	{Tag: 0x00080030, VR: TMVR, VM: "1", Keyword: "StudyTime"},
	{Tag: 0x00080050, VR: SHVR, VM: "1", Keyword: "AccessionNumber"},
	{Tag: 0x00080054, VR: AEVR, VM: "1-n", Keyword: "RetrieveAETitle"},
	{Tag: ModalityTag, VR: CSVR, VM: "1", Keyword: "Modality"},
	{Tag: 0x00080070, VR: LOVR, VM: "1", Keyword: "Manufacturer"},
	{Tag: 0x00080080, VR: LOVR, VM: "1", Keyword: "InstitutionName"},
	{Tag: 0x00080090, VR: PNVR, VM: "1", Keyword: "ReferringPhysicianName"},
	{Tag: 0x00080119, VR: UCVR, VM: "1", Keyword: "LongCodeValue"},
	{Tag: 0x00081030, VR: LOVR, VM: "1", Keyword: "StudyDescription"},
	{Tag: 0x0008103E, VR: LOVR, VM: "1", Keyword: "SeriesDescription"},
	{Tag: 0x00081115, VR: SQVR, VM: "1", Keyword: "ReferencedSeriesSequence"},
	{Tag: ReferencedImageSequenceTag, VR: SQVR, VM: "1", Keyword: "ReferencedImageSequence"},
	{Tag: ReferencedSOPClassUIDTag, VR: UIVR, VM: "1", Keyword: "ReferencedSOPClassUID"},
	{Tag: ReferencedSOPInstanceUIDTag, VR: UIVR, VM: "1", Keyword: "ReferencedSOPInstanceUID"},
	{Tag: 0x00081190, VR: URVR, VM: "1", Keyword: "RetrieveURL"},
	{Tag: DerivationDescriptionTag, VR: STVR, VM: "1", Keyword: "DerivationDescription"},
	{Tag: SourceImageSequenceTag, VR: SQVR, VM: "1", Keyword: "SourceImageSequence"},

	{Tag: PatientNameTag, VR: PNVR, VM: "1", Keyword: "PatientName"},
	{Tag: PatientIDTag, VR: LOVR, VM: "1", Keyword: "PatientID"},
	{Tag: 0x00100030, VR: DAVR, VM: "1", Keyword: "PatientBirthDate"},
	{Tag: 0x00100040, VR: CSVR, VM: "1", Keyword: "PatientSex"},
	{Tag: 0x00101010, VR: ASVR, VM: "1", Keyword: "PatientAge"},
	{Tag: 0x00101030, VR: DSVR, VM: "1", Keyword: "PatientWeight"},

	{Tag: 0x00180050, VR: DSVR, VM: "1", Keyword: "SliceThickness"},
	{Tag: 0x00186020, VR: SLVR, VM: "1", Keyword: "ReferencePixelX0"},
	{Tag: 0x00189087, VR: FDVR, VM: "1", Keyword: "DiffusionBValue"},
	{Tag: 0x00189219, VR: SSVR, VM: "1", Keyword: "TagAngleSecondAxis"},

	{Tag: StudyInstanceUIDTag, VR: UIVR, VM: "1", Keyword: "StudyInstanceUID"},
	{Tag: SeriesInstanceUIDTag, VR: UIVR, VM: "1", Keyword: "SeriesInstanceUID"},
	{Tag: 0x00200011, VR: ISVR, VM: "1", Keyword: "SeriesNumber"},
	{Tag: 0x00200013, VR: ISVR, VM: "1", Keyword: "InstanceNumber"},
	{Tag: 0x00204000, VR: LTVR, VM: "1", Keyword: "ImageComments"},
	{Tag: 0x00209057, VR: ULVR, VM: "1", Keyword: "InStackPositionNumber"},
	{Tag: 0x00209165, VR: ATVR, VM: "1", Keyword: "DimensionIndexPointer"},

	{Tag: SamplesPerPixelTag, VR: USVR, VM: "1", Keyword: "SamplesPerPixel"},
	{Tag: PhotometricInterpretationTag, VR: CSVR, VM: "1", Keyword: "PhotometricInterpretation"},
	{Tag: PlanarConfigurationTag, VR: USVR, VM: "1", Keyword: "PlanarConfiguration"},
	{Tag: NumberOfFramesTag, VR: ISVR, VM: "1", Keyword: "NumberOfFrames"},
	{Tag: 0x00280009, VR: ATVR, VM: "1-n", Keyword: "FrameIncrementPointer"},
	{Tag: RowsTag, VR: USVR, VM: "1", Keyword: "Rows"},
	{Tag: ColumnsTag, VR: USVR, VM: "1", Keyword: "Columns"},
	{Tag: 0x00280030, VR: DSVR, VM: "2", Keyword: "PixelSpacing"},
	{Tag: BitsAllocatedTag, VR: USVR, VM: "1", Keyword: "BitsAllocated"},
	{Tag: BitsStoredTag, VR: USVR, VM: "1", Keyword: "BitsStored"},
	{Tag: HighBitTag, VR: USVR, VM: "1", Keyword: "HighBit"},
	{Tag: PixelRepresentationTag, VR: USVR, VM: "1", Keyword: "PixelRepresentation"},
	{Tag: SmallestImagePixelValueTag, VR: XSVR, VM: "1", Keyword: "SmallestImagePixelValue"},
	{Tag: LargestImagePixelValueTag, VR: XSVR, VM: "1", Keyword: "LargestImagePixelValue"},
	{Tag: 0x00281101, VR: XSVR, VM: "3", Keyword: "RedPaletteColorLookupTableDescriptor"},
	{Tag: 0x00281201, VR: OWVR, VM: "1", Keyword: "RedPaletteColorLookupTableData"},
	{Tag: LossyImageCompressionTag, VR: CSVR, VM: "1", Keyword: "LossyImageCompression"},
	{Tag: LossyImageCompressionRatioTag, VR: DSVR, VM: "1-n", Keyword: "LossyImageCompressionRatio"},
	{Tag: LossyImageCompressionMethodTag, VR: CSVR, VM: "1-n", Keyword: "LossyImageCompressionMethod"},
	{Tag: 0x00283002, VR: XSVR, VM: "3", Keyword: "LUTDescriptor"},
	{Tag: 0x00283006, VR: LTAmbiguousVR, VM: "1-n", Keyword: "LUTData"},
	{Tag: PixelDataProviderURLTag, VR: URVR, VM: "1", Keyword: "PixelDataProviderURL"},

	{Tag: 0x00400275, VR: SQVR, VM: "1", Keyword: "RequestAttributesSequence"},
	{Tag: 0x0040A160, VR: UTVR, VM: "1", Keyword: "TextValue"},
	{Tag: 0x0040A730, VR: SQVR, VM: "1", Keyword: "ContentSequence"},
	{Tag: EncapsulatedDocumentTag, VR: OBVR, VM: "1", Keyword: "EncapsulatedDocument"},
	{Tag: 0x00660129, VR: OLVR, VM: "1", Keyword: "TrackPointIndexList"},
	{Tag: 0x00700014, VR: FLVR, VM: "2", Keyword: "AnchorPoint"},

	{Tag: AudioSampleDataTag, VR: OXVR, VM: "1", Keyword: "AudioSampleData", Mask: 0xFF00FFFF},
	{Tag: CurveDataTag, VR: OXVR, VM: "1", Keyword: "CurveData", Mask: 0xFF00FFFF},
	{Tag: WaveformDataTag, VR: OXVR, VM: "1", Keyword: "WaveformData"},
	{Tag: SpectroscopyDataTag, VR: OFVR, VM: "1", Keyword: "SpectroscopyData"},
	{Tag: 0x60000010, VR: USVR, VM: "1", Keyword: "OverlayRows", Mask: 0xFF00FFFF},
	{Tag: 0x60000011, VR: USVR, VM: "1", Keyword: "OverlayColumns", Mask: 0xFF00FFFF},
	{Tag: 0x60000040, VR: CSVR, VM: "1", Keyword: "OverlayType", Mask: 0xFF00FFFF},
	{Tag: 0x60000050, VR: SSVR, VM: "2", Keyword: "OverlayOrigin", Mask: 0xFF00FFFF},
	{Tag: 0x60000100, VR: USVR, VM: "1", Keyword: "OverlayBitsAllocated", Mask: 0xFF00FFFF},
	{Tag: OverlayDataTag, VR: OXVR, VM: "1", Keyword: "OverlayData", Mask: 0xFF00FFFF},

	{Tag: 0x7FE00001, VR: OVVR, VM: "1", Keyword: "ExtendedOffsetTable"},
	{Tag: 0x7FE00002, VR: OVVR, VM: "1", Keyword: "ExtendedOffsetTableLengths"},
	{Tag: FloatPixelDataTag, VR: OFVR, VM: "1", Keyword: "FloatPixelData"},
	{Tag: DoubleFloatPixelDataTag, VR: ODVR, VM: "1", Keyword: "DoubleFloatPixelData"},
	{Tag: PixelDataTag, VR: OXVR, VM: "1", Keyword: "PixelData"},

	{Tag: DataSetTrailingPaddingTag, VR: OBVR, VM: "1", Keyword: "DataSetTrailingPadding"},
	{Tag: ItemTag, VR: NAVR, VM: "1", Keyword: "Item"},
	{Tag: ItemDelimitationItemTag, VR: NAVR, VM: "1", Keyword: "ItemDelimitationItem"},
	{Tag: SequenceDelimitationItemTag, VR: NAVR, VM: "1", Keyword: "SequenceDelimitationItem"},
}
