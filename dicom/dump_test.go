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
	"testing"

	"github.com/sebdah/goldie"
	"github.com/stretchr/testify/assert"
)

func TestDump(t *testing.T) {
	goldie.Assert(t, "SampleDataSetDump", []byte(sampleDataSet(t).String()))
	goldie.Assert(t, "EncapsulatedDataSetDump", []byte(encapsulatedDataSet(t).String()))
}

func TestValueSummary(t *testing.T) {
	many := make([]uint16, 10)
	testCases := []struct {
		name string
		e    *DataElement
		want string
	}{
		{"strings", NewStringElement(ImageTypeTag, CSVR, "ORIGINAL", "PRIMARY"), "[ORIGINAL\\PRIMARY]"},
		{"empty", NewElement(PatientIDTag, LOVR), "[]"},
		{"negative", NewInt16Element(0x00189219, SSVR, -1), "[-1]"},
		{"truncated", NewUint16Element(RowsTag, USVR, many...), "[0\\0\\0\\0\\0\\0\\0\\0\\...]"},
		{"odd binary", NewBytesElement(RowsTag, USVR, []byte{1}), "(1 bytes)"},
		{"bulk data", NewBytesElement(PixelDataTag, OBVR, make([]byte, 6)), "(6 bytes)"},
	}
	for _, tc := range testCases {
		if got := tc.e.valueSummary(); got != tc.want {
			t.Fatalf("%s: valueSummary() => %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestToDict(t *testing.T) {
	ds := encapsulatedDataSet(t)
	seq := NewSequence(ReferencedImageSequenceTag, NewItem())
	mustInsert(t, seq.Item(0), NewStringElement(ReferencedSOPInstanceUIDTag, UIVR, "1.2"))
	mustInsert(t, ds, seq)

	want := `{
		"(0008,1140) SQ": [{"(0008,1155) UI": ["1.2"]}],
		"(0028,0010) US": ["1"],
		"(0028,0011) US": ["1"],
		"(7FE0,0010) OB": ["(0 bytes)", "(4 bytes)", "(2 bytes)"]
	}`
	assert.JSONEq(t, want, StringIndent(ds.ToDict()))
}
