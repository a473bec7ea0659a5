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
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func groupLengthDataSet(t *testing.T, extra ...Node) *DataSet {
	ds := NewDataSet()
	mustInsert(t, ds, NewStringElement(ModalityTag, nil, "OT"))
	mustInsert(t, ds, NewStringElement(PatientIDTag, nil, "12345"))
	for _, n := range extra {
		mustInsert(t, ds, n)
	}
	return ds
}

func groupLengthValue(t *testing.T, ds *DataSet, group uint16) uint32 {
	t.Helper()
	e, err := ds.Element(NewTag(group, 0))
	require.NoError(t, err)
	require.Equal(t, ULVR, e.VR())
	v, err := e.Uint32s()
	require.NoError(t, err)
	require.Len(t, v, 1)
	return v[0]
}

func TestComputeGroupLength(t *testing.T) {
	stale := func() Node { return NewUint32Element(NewTag(0x0008, 0), ULVR, 99) }
	testCases := []struct {
		name   string
		extra  []Node
		mode   GroupLengthMode
		tags   []DataElementTag
		values map[uint16]uint32
	}{
		{
			name:   "with",
			mode:   GroupLengthWith,
			tags:   []DataElementTag{0x00080000, ModalityTag, 0x00100000, PatientIDTag},
			values: map[uint16]uint32{0x0008: 10, 0x0010: 14},
		},
		{
			name:   "with replaces stale",
			extra:  []Node{stale()},
			mode:   GroupLengthWith,
			tags:   []DataElementTag{0x00080000, ModalityTag, 0x00100000, PatientIDTag},
			values: map[uint16]uint32{0x0008: 10, 0x0010: 14},
		},
		{
			name:  "without",
			extra: []Node{stale()},
			mode:  GroupLengthWithout,
			tags:  []DataElementTag{ModalityTag, PatientIDTag},
		},
		{
			name:   "recalc",
			extra:  []Node{stale()},
			mode:   GroupLengthRecalc,
			tags:   []DataElementTag{0x00080000, ModalityTag, PatientIDTag},
			values: map[uint16]uint32{0x0008: 10},
		},
		{
			name:   "recalc replaces non-UL",
			extra:  []Node{NewStringElement(NewTag(0x0008, 0), LOVR, "x")},
			mode:   GroupLengthRecalc,
			tags:   []DataElementTag{0x00080000, ModalityTag, PatientIDTag},
			values: map[uint16]uint32{0x0008: 10},
		},
		{
			name:  "no change",
			extra: []Node{stale()},
			mode:  GroupLengthNoChange,
			tags:  []DataElementTag{0x00080000, ModalityTag, PatientIDTag},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ds := groupLengthDataSet(t, tc.extra...)
			err := ds.ComputeGroupLengthAndPadding(tc.mode, PaddingNoChange, ExplicitVRLittleEndian, ExplicitLengthEncoding, 0, 0, 0)
			require.NoError(t, err)
			assert.Equal(t, tc.tags, ds.SortedTags())
			for group, want := range tc.values {
				if got := groupLengthValue(t, ds, group); got != want {
					t.Fatalf("group length of %04X => %d, want %d", group, got, want)
				}
			}
		})
	}
}

func TestComputePadding(t *testing.T) {
	testCases := []struct {
		name           string
		padlen         uint32
		instanceLength uint32
		padding        int
	}{
		{"room for the header", 32, 0, 10},
		{"next multiple", 16, 0, 10},
		{"already aligned", 10, 0, -1},
		{"counts the instance prefix", 32, 4, 6},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ds := NewDataSet()
			mustInsert(t, ds, NewStringElement(ModalityTag, nil, "OT"))
			err := ds.ComputeGroupLengthAndPadding(GroupLengthNoChange, PaddingWith, ExplicitVRLittleEndian, ExplicitLengthEncoding, tc.padlen, 0, tc.instanceLength)
			require.NoError(t, err)

			e, _ := ds.Get(DataSetTrailingPaddingTag).(*DataElement)
			if tc.padding < 0 {
				if e != nil {
					t.Fatalf("got padding element %v, want none", e)
				}
				return
			}
			require.NotNil(t, e)
			assert.Equal(t, uint32(tc.padding), e.Length())
			total := ds.EncodedLength(ExplicitVRLittleEndian, ExplicitLengthEncoding) + uint64(tc.instanceLength)
			assert.Zero(t, total%uint64(tc.padlen), "total length %d", total)
		})
	}
}

func TestComputePaddingOfItems(t *testing.T) {
	item := NewItem()
	mustInsert(t, item, NewStringElement(ModalityTag, nil, "OT"))
	ds := NewDataSet()
	mustInsert(t, ds, NewSequence(ReferencedImageSequenceTag, item))

	err := ds.ComputeGroupLengthAndPadding(GroupLengthNoChange, PaddingWith, ExplicitVRLittleEndian, ExplicitLengthEncoding, 0, 16, 0)
	require.NoError(t, err)
	assert.Nil(t, ds.Get(DataSetTrailingPaddingTag))
	require.Equal(t, 2, item.Len())
	pad, err := item.Element(DataSetTrailingPaddingTag)
	require.NoError(t, err)
	assert.Equal(t, uint32(10), pad.Length())
	assert.Equal(t, uint64(32), item.valueLength(ExplicitVRLittleEndian, ExplicitLengthEncoding))
}

func TestComputePaddingReplacesAndRemoves(t *testing.T) {
	ds := NewDataSet()
	mustInsert(t, ds, NewStringElement(ModalityTag, nil, "OT"))
	mustInsert(t, ds, NewBytesElement(DataSetTrailingPaddingTag, OBVR, make([]byte, 100)))

	require.NoError(t, ds.ComputeGroupLengthAndPadding(GroupLengthNoChange, PaddingWith, ExplicitVRLittleEndian, ExplicitLengthEncoding, 32, 0, 0))
	pad, err := ds.Element(DataSetTrailingPaddingTag)
	require.NoError(t, err)
	assert.Equal(t, uint32(10), pad.Length())

	require.NoError(t, ds.ComputeGroupLengthAndPadding(GroupLengthNoChange, PaddingWithout, ExplicitVRLittleEndian, ExplicitLengthEncoding, 0, 0, 0))
	assert.Equal(t, []DataElementTag{ModalityTag}, ds.SortedTags())
}

func TestComputePaddingOddLength(t *testing.T) {
	ds := NewDataSet()
	for _, lens := range [][2]uint32{{3, 0}, {0, 5}} {
		err := ds.ComputeGroupLengthAndPadding(GroupLengthNoChange, PaddingWith, ExplicitVRLittleEndian, ExplicitLengthEncoding, lens[0], lens[1], 0)
		if !errors.Is(err, ErrIllegalCall) {
			t.Fatalf("ComputeGroupLengthAndPadding(_, _, _, _, %d, %d, _) => %v, want %v", lens[0], lens[1], err, ErrIllegalCall)
		}
	}
}

func TestComputeLengths(t *testing.T) {
	ds := sampleDataSet(t)
	require.NoError(t, ds.Insert(encapsulatedDataSet(t).Get(PixelDataTag), true))
	ds.ComputeLengths(ExplicitVRLittleEndian, ExplicitLengthEncoding)

	seq, err := ds.Sequence(ReferencedImageSequenceTag)
	require.NoError(t, err)
	assert.Equal(t, uint32(78), seq.Length())
	assert.Equal(t, uint32(62), seq.Item(0).Length())
	assert.Equal(t, uint32(0), seq.Item(1).Length())

	empty, err := ds.Sequence(SourceImageSequenceTag)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), empty.Length())

	assert.Equal(t, uint32(UndefinedLength), ds.Get(PixelDataTag).Length())
}
