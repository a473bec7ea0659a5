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
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Velocidex/ordereddict"
)

// maxSummaryValues bounds the number of values shown for a numeric element
const maxSummaryValues = 8

// StringIndent returns v as indented JSON. Data sets should be converted with ToDict first.
func StringIndent(v interface{}) string {
	result, err := json.MarshalIndent(v, "", " ")
	if err != nil {
		panic(err)
	}
	return string(result)
}

// String returns a dump of the data set, one node per line, with nested items indented.
func (d *DataSet) String() string {
	var b strings.Builder
	d.dump(&b, 0)
	return b.String()
}

func (d *DataSet) dump(b *strings.Builder, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, n := range d.elements {
		b.WriteString(indent)
		b.WriteString(n.String())
		b.WriteString("\n")

		switch c := n.(type) {
		case *Sequence:
			for i, it := range c.items {
				fmt.Fprintf(b, "%s  %v Item %d\n", indent, ItemTag, i+1)
				it.dump(b, depth+2)
			}
		case *PixelSequence:
			for _, it := range c.items {
				fmt.Fprintf(b, "%s  %v\n", indent, it)
			}
		}
	}
}

// valueSummary formats the value for dumps: strings and numbers are shown, binary data only by
// size.
func (e *DataElement) valueSummary() string {
	if e.ref != nil {
		return fmt.Sprintf("(not loaded, %d bytes)", e.ref.Reference.Length)
	}
	v := e.summaryValues()
	if v == nil {
		return fmt.Sprintf("(%d bytes)", len(e.value))
	}
	return "[" + strings.Join(v, "\\") + "]"
}

// summaryValues returns the values as strings, or nil for binary data.
func (e *DataElement) summaryValues() []string {
	var vals []string
	add := func(v interface{}) {
		vals = append(vals, fmt.Sprint(v))
	}

	switch e.vr {
	case USVR:
		v, err := e.Uint16s()
		if err != nil {
			return nil
		}
		for _, x := range v {
			add(x)
		}
	case SSVR:
		v, err := e.Int16s()
		if err != nil {
			return nil
		}
		for _, x := range v {
			add(x)
		}
	case ULVR:
		v, err := e.Uint32s()
		if err != nil {
			return nil
		}
		for _, x := range v {
			add(x)
		}
	case SLVR:
		v, err := e.Int32s()
		if err != nil {
			return nil
		}
		for _, x := range v {
			add(x)
		}
	case UVVR:
		v, err := e.Uint64s()
		if err != nil {
			return nil
		}
		for _, x := range v {
			add(x)
		}
	case SVVR:
		v, err := e.Int64s()
		if err != nil {
			return nil
		}
		for _, x := range v {
			add(x)
		}
	case FLVR:
		v, err := e.Float32s()
		if err != nil {
			return nil
		}
		for _, x := range v {
			add(x)
		}
	case FDVR:
		v, err := e.Float64s()
		if err != nil {
			return nil
		}
		for _, x := range v {
			add(x)
		}
	case ATVR:
		v, err := e.Tags()
		if err != nil {
			return nil
		}
		for _, x := range v {
			add(x)
		}
	default:
		if !e.vr.IsString() {
			return nil
		}
		strs, err := e.Strings()
		if err != nil {
			return nil
		}
		return strs
	}

	if len(vals) > maxSummaryValues {
		vals = append(vals[:maxSummaryValues], "...")
	}
	if vals == nil {
		vals = []string{}
	}
	return vals
}

// ToDict converts the data set into an ordered dictionary keyed by tag and VR, suitable for JSON
// output. Sequences become lists of dictionaries, binary values are represented by their size.
func (d *DataSet) ToDict() *ordereddict.Dict {
	result := ordereddict.NewDict()
	for _, n := range d.elements {
		key := fmt.Sprintf("%v %v", n.Tag(), n.VR())
		switch c := n.(type) {
		case *Sequence:
			items := make([]*ordereddict.Dict, 0, len(c.items))
			for _, it := range c.items {
				items = append(items, it.ToDict())
			}
			result.Set(key, items)
		case *PixelSequence:
			items := make([]string, 0, len(c.items))
			for _, it := range c.items {
				items = append(items, it.valueSummary())
			}
			result.Set(key, items)
		case *DataElement:
			if c.ref == nil {
				if v := c.summaryValues(); v != nil {
					result.Set(key, v)
					continue
				}
			}
			result.Set(key, c.valueSummary())
		}
	}
	return result
}
