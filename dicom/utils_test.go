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
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/davecgh/go-spew/spew"
)

// nodeDump prints node trees, including unexported transfer state, in failure messages.
var nodeDump = spew.ConfigState{Indent: "  ", DisablePointerAddresses: true, SortKeys: true, MaxDepth: 6}

// patientBirthDateTag is a DA element left empty by the nested data sets below.
const patientBirthDateTag DataElementTag = 0x00100030

func concat(parts ...[]byte) []byte {
	return bytes.Join(parts, nil)
}

func u16(order binary.ByteOrder, v uint16) []byte {
	b := make([]byte, 2)
	order.PutUint16(b, v)
	return b
}

func u32(order binary.ByteOrder, v uint32) []byte {
	b := make([]byte, 4)
	order.PutUint32(b, v)
	return b
}

func tagBytes(order binary.ByteOrder, tag DataElementTag) []byte {
	return concat(u16(order, tag.GroupNumber()), u16(order, tag.ElementNumber()))
}

// explicitElement encodes an element in explicit VR with the given length field.
func explicitElement(order binary.ByteOrder, tag DataElementTag, vr string, length uint32, value []byte) []byte {
	v, err := LookupVR(vr)
	if err != nil {
		panic(err)
	}
	if v.Has32BitLength() {
		return concat(tagBytes(order, tag), []byte(vr), []byte{0, 0}, u32(order, length), value)
	}
	return concat(tagBytes(order, tag), []byte(vr), u16(order, uint16(length)), value)
}

// explicitLE encodes an element in explicit VR little endian with a length matching value.
func explicitLE(tag DataElementTag, vr string, value []byte) []byte {
	return explicitElement(binary.LittleEndian, tag, vr, uint32(len(value)), value)
}

func implicitLE(tag DataElementTag, length uint32, value []byte) []byte {
	return concat(tagBytes(binary.LittleEndian, tag), u32(binary.LittleEndian, length), value)
}

func itemHeaderLE(tag DataElementTag, length uint32) []byte {
	return implicitLE(tag, length, nil)
}

// itemScenario is an explicit VR little endian item of undefined length holding an empty
// sequence of undefined length, a UID and a US value.
var itemScenario = concat(
	itemHeaderLE(ItemTag, UndefinedLength),
	explicitElement(binary.LittleEndian, ReferencedImageSequenceTag, "SQ", UndefinedLength, nil),
	itemHeaderLE(SequenceDelimitationItemTag, 0),
	explicitLE(ReferencedSOPInstanceUIDTag, "UI", []byte("1.2.840\x00")),
	explicitLE(RowsTag, "US", []byte{0x05, 0x00}),
	itemHeaderLE(ItemDelimitationItemTag, 0),
)

// sampleDataSet returns a data set that exercises every node type.
func sampleDataSet(t *testing.T) *DataSet {
	t.Helper()
	ds := NewDataSet()
	mustInsert(t, ds, NewStringElement(SpecificCharacterSetTag, CSVR, "ISO_IR 100"))
	mustInsert(t, ds, NewStringElement(SOPClassUIDTag, UIVR, "1.2.840.10008.5.1.4.1.1.7"))
	mustInsert(t, ds, NewStringElement(SOPInstanceUIDTag, UIVR, "1.2.3.4.5.6.7"))
	mustInsert(t, ds, NewStringElement(ModalityTag, CSVR, "OT"))
	mustInsert(t, ds, NewStringElement(PatientNameTag, PNVR, "Doe^John"))
	mustInsert(t, ds, NewStringElement(PatientIDTag, LOVR, "12345"))

	ref := NewItem()
	mustInsert(t, ref, NewStringElement(ReferencedSOPClassUIDTag, UIVR, "1.2.840.10008.5.1.4.1.1.4"))
	mustInsert(t, ref, NewStringElement(ReferencedSOPInstanceUIDTag, UIVR, "1.2.840.113619.2.176"))
	empty := NewItem()
	mustInsert(t, ds, NewSequence(ReferencedImageSequenceTag, ref, empty))
	mustInsert(t, ds, NewSequence(SourceImageSequenceTag))

	mustInsert(t, ds, NewUint16Element(SamplesPerPixelTag, USVR, 1))
	mustInsert(t, ds, NewStringElement(PhotometricInterpretationTag, CSVR, "MONOCHROME2"))
	mustInsert(t, ds, NewUint16Element(RowsTag, USVR, 2))
	mustInsert(t, ds, NewUint16Element(ColumnsTag, USVR, 2))
	mustInsert(t, ds, NewUint16Element(BitsAllocatedTag, USVR, 16))
	mustInsert(t, ds, NewUint16Element(BitsStoredTag, USVR, 12))
	mustInsert(t, ds, NewUint16Element(HighBitTag, USVR, 11))
	mustInsert(t, ds, NewUint16Element(PixelRepresentationTag, USVR, 0))
	mustInsert(t, ds, NewFloat64Element(0x00189087, FDVR, 1000.5))
	mustInsert(t, ds, NewTagElement(0x00209165, PatientNameTag))
	mustInsert(t, ds, NewBytesElement(PixelDataTag, OWVR, []byte{0x11, 0x11, 0x22, 0x22, 0x33, 0x33, 0x44, 0x44}))
	return ds
}

// encapsulatedDataSet returns a data set with encapsulated pixel data of two fragments.
func encapsulatedDataSet(t *testing.T) *DataSet {
	t.Helper()
	ds := NewDataSet()
	mustInsert(t, ds, NewUint16Element(RowsTag, USVR, 1))
	mustInsert(t, ds, NewUint16Element(ColumnsTag, USVR, 1))
	mustInsert(t, ds, NewPixelSequence([]byte{1, 2, 3, 4}, []byte{5, 6}))
	return ds
}

// nestedDataSet returns a data set with nested items that end in empty elements and empty
// items, and pixel data matching syntax.
func nestedDataSet(t *testing.T, syntax *TransferSyntax) *DataSet {
	t.Helper()
	source := NewItem()
	mustInsert(t, source, NewStringElement(ReferencedSOPInstanceUIDTag, UIVR, "1.2.3"))
	ref := NewItem()
	mustInsert(t, ref, NewStringElement(ReferencedSOPClassUIDTag, UIVR, "1.2.840.10008.5.1.4.1.1.4"))
	mustInsert(t, ref, NewSequence(SourceImageSequenceTag, source, NewItem()))
	mustInsert(t, ref, NewStringElement(patientBirthDateTag, DAVR))

	ds := NewDataSet()
	mustInsert(t, ds, NewStringElement(SOPInstanceUIDTag, UIVR, "1.2.3.4.5.6.7"))
	mustInsert(t, ds, NewSequence(ReferencedImageSequenceTag, ref, NewItem()))
	mustInsert(t, ds, NewStringElement(PatientIDTag, LOVR, "abc"))
	mustInsert(t, ds, NewStringElement(patientBirthDateTag, DAVR))
	mustInsert(t, ds, NewUint16Element(RowsTag, USVR, 2))
	mustInsert(t, ds, NewUint16Element(ColumnsTag, USVR, 2))
	if syntax.Encapsulated {
		mustInsert(t, ds, NewPixelSequence([]byte{1, 2, 3, 4}, []byte{5, 6}))
	} else {
		mustInsert(t, ds, NewBytesElement(PixelDataTag, OWVR, []byte{1, 2, 3, 4, 5, 6, 7, 8}))
	}
	return ds
}

func mustInsert(t *testing.T, ds *DataSet, n Node) {
	t.Helper()
	if err := ds.Insert(n, false); err != nil {
		t.Fatalf("Insert(%v) => %v", n.Tag(), err)
	}
}

// encode writes ds into memory.
func encode(t *testing.T, ds *DataSet, syntax *TransferSyntax, opts ...WriteOption) []byte {
	t.Helper()
	out := NewOutputBufferStream(0)
	ds.TransferInit()
	if err := ds.Write(out, syntax, opts...); err != nil {
		t.Fatalf("Write(_, %v) => %v", syntax, err)
	}
	return out.Drain()
}

// decode reads a top-level data set from b.
func decode(t *testing.T, b []byte, syntax *TransferSyntax, opts ...ReadOption) *DataSet {
	t.Helper()
	ds := NewDataSet()
	if err := ds.Read(NewBufferStreamFromBytes(b), syntax, opts...); err != nil {
		t.Fatalf("Read(_, %v) => %v", syntax, err)
	}
	return ds
}
