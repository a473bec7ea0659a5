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
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultDictionary(t *testing.T) {
	testCases := []struct {
		name    string
		tag     DataElementTag
		vr      *VR
		keyword string
		found   bool
	}{
		{"exact", PatientNameTag, PNVR, "PatientName", true},
		{"meta", TransferSyntaxUIDTag, UIVR, "TransferSyntaxUID", true},
		{"repeating overlay group", 0x60023000, OXVR, "OverlayData", true},
		{"repeating curve group", 0x50043000, OXVR, "CurveData", true},
		{"repeating group base", OverlayDataTag, OXVR, "OverlayData", true},
		{"group length", 0x00090000, ULVR, "GenericGroupLength", true},
		{"private creator", 0x00290010, LOVR, "PrivateCreator", true},
		{"item", ItemTag, NAVR, "Item", true},
		{"unknown private", 0x00291001, nil, "", false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			entry, ok := DefaultDictionary.Lookup(tc.tag)
			if ok != tc.found {
				t.Fatalf("Lookup(%v) found %v, want %v", tc.tag, ok, tc.found)
			}
			if entry.VR != tc.vr || entry.Keyword != tc.keyword {
				t.Fatalf("Lookup(%v) => (%v, %v), want (%v, %v)", tc.tag, entry.VR, entry.Keyword, tc.vr, tc.keyword)
			}
		})
	}
}

const privateDictionary = `
- tag: "(0029,1001)"
  vr: LO
  keyword: AcmeScannerMode
- tag: "(0029,1002)"
  vr: US
  vm: "2"
  keyword: AcmeMatrix
- tag: "(60xx,0022)"
  vr: LO
  keyword: OverlayDescription
`

func TestLoadDictionary(t *testing.T) {
	d, err := LoadDictionary(strings.NewReader(privateDictionary))
	require.NoError(t, err)
	assert.Equal(t, 3, d.Len())

	entry, ok := d.Lookup(0x00291001)
	require.True(t, ok)
	assert.Equal(t, DictEntry{Tag: 0x00291001, VR: LOVR, VM: "1", Keyword: "AcmeScannerMode"}, entry)

	entry, ok = d.Lookup(0x00291002)
	require.True(t, ok)
	assert.Equal(t, "2", entry.VM)

	entry, ok = d.Lookup(0x60040022)
	require.True(t, ok)
	assert.Equal(t, "OverlayDescription", entry.Keyword)
	assert.Equal(t, uint32(0xFF00FFFF), entry.Mask)

	_, ok = d.Lookup(PatientNameTag)
	assert.False(t, ok)

	merged := Merge(d, DefaultDictionary)
	entry, ok = merged.Lookup(PatientNameTag)
	require.True(t, ok)
	assert.Equal(t, PNVR, entry.VR)
	entry, ok = merged.Lookup(0x00291001)
	require.True(t, ok)
	assert.Equal(t, LOVR, entry.VR)
}

func TestLoadDictionaryErrors(t *testing.T) {
	testCases := []struct {
		name string
		yaml string
		err  error
	}{
		{"short tag", `- {tag: "(0029,10)", vr: LO}`, ErrInvalidTag},
		{"bad digit", `- {tag: "(0029,10G1)", vr: LO}`, ErrInvalidTag},
		{"unknown vr", `- {tag: "(0029,1001)", vr: ZZ}`, ErrInvalidVR},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadDictionary(strings.NewReader(tc.yaml))
			if !errors.Is(err, tc.err) {
				t.Fatalf("LoadDictionary(_) => %v, want %v", err, tc.err)
			}
		})
	}

	if _, err := LoadDictionary(strings.NewReader("tag: [")); err == nil {
		t.Fatalf("LoadDictionary(_) of malformed YAML => nil, want error")
	}
}

func TestDictionaryAddReplaces(t *testing.T) {
	d := NewDictionary(
		DictEntry{Tag: 0x00291001, VR: LOVR, Keyword: "Old"},
		DictEntry{Tag: 0x60000022, VR: LOVR, Keyword: "OldMasked", Mask: 0xFF00FFFF},
	)
	d.Add(DictEntry{Tag: 0x00291001, VR: SHVR, Keyword: "New"})
	d.Add(DictEntry{Tag: 0x60000022, VR: SHVR, Keyword: "NewMasked", Mask: 0xFF00FFFF})
	assert.Equal(t, 2, d.Len())

	entry, _ := d.Lookup(0x00291001)
	assert.Equal(t, "New", entry.Keyword)
	entry, _ = d.Lookup(0x60020022)
	assert.Equal(t, "NewMasked", entry.Keyword)
}
