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

func TestDecodedStrings(t *testing.T) {
	testCases := []struct {
		name  string
		terms []string
		e     *DataElement
		want  []string
	}{
		{
			name:  "latin 1",
			terms: []string{"ISO_IR 100"},
			e:     NewStringElement(PatientNameTag, PNVR, "M\xfcller^Hans"),
			want:  []string{"Müller^Hans"},
		},
		{
			name:  "multiple values",
			terms: []string{"ISO_IR 100"},
			e:     NewStringElement(0x00081030, LOVR, "Gr\xfcn", "Bl\xe4u"),
			want:  []string{"Grün", "Bläu"},
		},
		{
			name:  "utf-8",
			terms: []string{"ISO_IR 192"},
			e:     NewStringElement(PatientNameTag, PNVR, "Müller"),
			want:  []string{"Müller"},
		},
		{
			name:  "japanese code extensions",
			terms: []string{"", "ISO 2022 IR 87"},
			e:     NewBytesElement(PatientNameTag, PNVR, []byte("Yamada^Tarou=\x1b$B;3ED\x1b(B^\x1b$BB@O:\x1b(B")),
			want:  []string{"Yamada^Tarou=山田^太郎"},
		},
		{
			name:  "default repertoire",
			terms: []string{""},
			e:     NewStringElement(PatientIDTag, LOVR, "ABC"),
			want:  []string{"ABC"},
		},
		{
			name:  "code string is not decoded",
			terms: []string{"ISO_IR 192"},
			e:     NewBytesElement(ModalityTag, CSVR, []byte("M\xfc")),
			want:  []string{"M\xfc"},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cs, err := NewCharacterSet(tc.terms...)
			require.NoError(t, err)
			got, err := tc.e.DecodedStrings(cs)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestUnsupportedCharacterSet(t *testing.T) {
	if _, err := NewCharacterSet("ISO_IR 999"); !errors.Is(err, ErrUnsupportedCoding) {
		t.Fatalf("NewCharacterSet(%q) => %v, want %v", "ISO_IR 999", err, ErrUnsupportedCoding)
	}

	ds := NewDataSet()
	mustInsert(t, ds, NewStringElement(SpecificCharacterSetTag, CSVR, "KLINGON"))
	if _, err := ds.CharacterSet(); !errors.Is(err, ErrUnsupportedCoding) {
		t.Fatalf("CharacterSet() => %v, want %v", err, ErrUnsupportedCoding)
	}
}

func TestDataSetCharacterSet(t *testing.T) {
	cs, err := NewDataSet().CharacterSet()
	require.NoError(t, err)
	assert.Same(t, DefaultCharacterSet, cs)

	cs, err = sampleDataSet(t).CharacterSet()
	require.NoError(t, err)
	assert.Equal(t, []string{"ISO_IR 100"}, cs.Terms)

	e := NewBytesElement(PatientNameTag, PNVR, []byte("D\xf6e "))
	got, err := e.DecodedStrings(DefaultCharacterSet)
	require.NoError(t, err)
	assert.Equal(t, []string{"Döe"}, got)

	raw, err := e.DecodedStrings(nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"D\xf6e"}, raw)
}
