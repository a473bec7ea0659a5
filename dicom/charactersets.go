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
	"strings"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// defaultCharacterRepertoire decodes values when Specific Character Set is absent. It is a
// superset of the ISO IR 6 (ASCII) default repertoire.
var defaultCharacterRepertoire encoding.Encoding = charmap.Windows1252

// lookupLabelByTerm is a mapping of specific character set defined terms to golang charset labels.
// See link below for list of character set defined terms.
// http://dicom.nema.org/medical/dicom/current/output/chtml/part02/sect_D.6.2.html
var lookupLabelByTerm = map[string]string{
	"ISO_IR 6":   "us-ascii",
	"ISO_IR 100": "iso-ir-100",
	"ISO_IR 101": "iso-ir-101",
	"ISO_IR 109": "iso-ir-109",
	"ISO_IR 110": "iso-ir-110",
	"ISO_IR 144": "iso-ir-144",
	"ISO_IR 127": "iso-ir-127",
	"ISO_IR 126": "iso-ir-126",
	"ISO_IR 138": "iso-ir-138",
	"ISO_IR 148": "iso-ir-148",
	"ISO_IR 13":  "shift-jis",
	"ISO_IR 166": "tis-620",
	"ISO_IR 192": "utf-8",
	"GB18030":    "gb18030",
	"GBK":        "gbk",

	"ISO 2022 IR 6":   "us-ascii",
	"ISO 2022 IR 100": "iso-ir-100",
	"ISO 2022 IR 101": "iso-ir-101",
	"ISO 2022 IR 109": "iso-ir-109",
	"ISO 2022 IR 110": "iso-ir-110",
	"ISO 2022 IR 144": "iso-ir-144",
	"ISO 2022 IR 127": "iso-ir-127",
	"ISO 2022 IR 126": "iso-ir-126",
	"ISO 2022 IR 138": "iso-ir-138",
	"ISO 2022 IR 148": "iso-ir-148",
	"ISO 2022 IR 13":  "shift-jis",
	"ISO 2022 IR 166": "tis-620",
	"ISO 2022 IR 87":  "iso-2022-jp",
	"ISO 2022 IR 159": "iso-2022-jp",
	"ISO 2022 IR 149": "iso-ir-149",
}

func lookupEncoding(term string) (encoding.Encoding, error) {
	label, ok := lookupLabelByTerm[term]
	if !ok {
		return nil, fmt.Errorf("specific character set defined term not found: %v", term)
	}

	coding, _ := charset.Lookup(label)
	if coding == nil {
		return nil, fmt.Errorf("missing encoding for label %q", label)
	}
	return coding, nil
}

// CharacterSet decodes string values according to the Specific Character Set (0008,0005) of a
// data set.
type CharacterSet struct {
	// Terms are the defined terms of Specific Character Set; an empty first term stands for the
	// default repertoire
	Terms []string

	coding encoding.Encoding
}

// DefaultCharacterSet is used for data sets without Specific Character Set.
var DefaultCharacterSet = &CharacterSet{coding: defaultCharacterRepertoire}

// NewCharacterSet returns the character set for the given defined terms. With code extensions
// (multiple terms) values are decoded with the last term, whose ISO 2022 decoder also handles the
// escape sequences switching back to the default repertoire.
func NewCharacterSet(terms ...string) (*CharacterSet, error) {
	cs := &CharacterSet{Terms: terms, coding: defaultCharacterRepertoire}
	for i := len(terms) - 1; i >= 0; i-- {
		term := strings.TrimSpace(terms[i])
		if term == "" {
			continue
		}
		coding, err := lookupEncoding(term)
		if err != nil {
			return nil, fmt.Errorf("%v: %w", err, ErrUnsupportedCoding)
		}
		cs.coding = coding
		break
	}
	return cs, nil
}

// CharacterSet returns the character set declared by the data set, or DefaultCharacterSet if it
// declares none. Items without Specific Character Set inherit the one of the enclosing data set,
// which the caller has to track.
func (d *DataSet) CharacterSet() (*CharacterSet, error) {
	e, err := d.Element(SpecificCharacterSetTag)
	if err != nil {
		return DefaultCharacterSet, nil
	}
	terms, err := e.Strings()
	if err != nil {
		return nil, err
	}
	return NewCharacterSet(terms...)
}

// affectedByCharacterSet is true for the VRs whose values may use characters outside the default
// repertoire.
func (vr *VR) affectedByCharacterSet() bool {
	switch vr {
	case SHVR, LOVR, STVR, LTVR, PNVR, UCVR, UTVR:
		return true
	}
	return false
}

// DecodedStrings returns the values of a string element converted to UTF-8 according to cs.
func (e *DataElement) DecodedStrings(cs *CharacterSet) ([]string, error) {
	if cs == nil || !e.vr.affectedByCharacterSet() {
		return e.Strings()
	}
	b, err := e.Bytes()
	if err != nil {
		return nil, err
	}
	if len(b) == 0 {
		return []string{}, nil
	}
	decoded, err := cs.coding.NewDecoder().Bytes(b)
	if err != nil {
		return nil, fmt.Errorf("decoding %v: %w", e.tag, err)
	}
	return splitValues(string(decoded), e.vr.multiValued()), nil
}
