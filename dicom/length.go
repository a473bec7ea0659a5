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
	"encoding/binary"
	"fmt"
	"math"
)

// ComputeGroupLengthAndPadding prepares the data set for writing in syntax. Depending on gl, group
// length elements are added, removed or recalculated, and depending on pad, trailing padding
// elements (FFFC,FFFC) are removed or recreated so that the data set ends on a multiple of padlen
// bytes and every nested item on a multiple of subPadlen bytes. instanceLength is the number of
// bytes written before the data set, e.g. the preamble and meta group of a file. Both padding
// lengths must be even; 0 disables padding on the respective level.
func (d *DataSet) ComputeGroupLengthAndPadding(gl GroupLengthMode, pad PaddingMode, syntax *TransferSyntax, enc LengthEncoding, padlen, subPadlen, instanceLength uint32) error {
	if padlen%2 != 0 || subPadlen%2 != 0 {
		return fmt.Errorf("padding lengths %d and %d must be even: %w", padlen, subPadlen, ErrIllegalCall)
	}
	if gl == GroupLengthNoChange && pad == PaddingNoChange {
		return nil
	}

	kept := d.elements[:0]
	for _, n := range d.elements {
		if seq, ok := n.(*Sequence); ok {
			if err := seq.ComputeGroupLengthAndPadding(gl, pad, syntax, enc, subPadlen, subPadlen, instanceLength); err != nil {
				return err
			}
		}
		tag := n.Tag()
		if (gl == GroupLengthWith || gl == GroupLengthWithout) && tag.IsGroupLength() {
			continue
		}
		if pad != PaddingNoChange && tag == DataSetTrailingPaddingTag {
			continue
		}
		kept = append(kept, n)
	}
	d.elements = kept

	if gl == GroupLengthWith || gl == GroupLengthRecalc {
		d.updateGroupLengths(gl, syntax, enc)
	}
	if pad == PaddingWith && padlen > 0 {
		d.addPadding(syntax, enc, padlen, instanceLength)
	}
	return nil
}

// updateGroupLengths sets the value of the group length element of every group to the encoded
// size of the remaining elements of the group. With GroupLengthWith a missing group length element
// is created. Group length elements with a VR other than UL are replaced.
func (d *DataSet) updateGroupLengths(gl GroupLengthMode, syntax *TransferSyntax, enc LengthEncoding) {
	var (
		out    []Node
		glElem *DataElement
		grplen uint64
		group  = -1
	)
	flush := func() {
		if glElem != nil {
			glElem.setUint32(clampLength(grplen))
		}
	}

	for _, n := range d.elements {
		tag := n.Tag()
		if g := int(tag.GroupNumber()); g != group {
			flush()
			glElem, grplen, group = nil, 0, g
			switch {
			case tag.IsGroupLength():
				e, ok := n.(*DataElement)
				if !ok || e.vr != ULVR {
					e = NewElement(tag, ULVR)
					n = e
				}
				glElem = e
			case gl == GroupLengthWith:
				glElem = NewElement(NewTag(uint16(g), 0), ULVR)
				glElem.setUint32(0)
				out = append(out, glElem)
			}
		}
		if !tag.IsGroupLength() {
			grplen += n.EncodedLength(syntax, enc)
		}
		out = append(out, n)
	}
	flush()
	d.elements = out
}

// addPadding appends a trailing padding element so that the encoded data set, counted from the
// start of the instance for a top-level data set, ends on a multiple of padlen bytes.
func (d *DataSet) addPadding(syntax *TransferSyntax, enc LengthEncoding, padlen, instanceLength uint32) {
	total := d.valueLength(syntax, enc)
	if d.top {
		total += uint64(instanceLength)
	}
	padding := uint64(padlen) - total%uint64(padlen)
	if padding == uint64(padlen) {
		return
	}
	// the padding element needs room for its own header
	hdr := uint64(syntax.HeaderSize(OBVR))
	for hdr > padding {
		padding += uint64(padlen)
	}
	padding -= hdr

	pe := NewBytesElement(DataSetTrailingPaddingTag, OBVR, make([]byte, padding))
	_ = d.Insert(pe, true)
	if e, ok := d.Get(NewTag(DataSetTrailingPaddingTag.GroupNumber(), 0)).(*DataElement); ok {
		if v, err := e.Uint32s(); err == nil && len(v) == 1 {
			e.setUint32(clampLength(uint64(v[0]) + pe.EncodedLength(syntax, enc)))
		}
	}
}

// ComputeGroupLengthAndPadding applies the group length and padding rules to every item of the
// sequence, see DataSet.ComputeGroupLengthAndPadding.
func (seq *Sequence) ComputeGroupLengthAndPadding(gl GroupLengthMode, pad PaddingMode, syntax *TransferSyntax, enc LengthEncoding, padlen, subPadlen, instanceLength uint32) error {
	for _, it := range seq.items {
		if err := it.ComputeGroupLengthAndPadding(gl, pad, syntax, enc, padlen, subPadlen, instanceLength); err != nil {
			return fmt.Errorf("item of %v: %w", seq.tag, err)
		}
	}
	return nil
}

// ComputeLengths sets the length field of every node of the tree to the size of its value when
// encoded in syntax, with nested sequences and items encoded as enc. Encapsulated pixel data
// always keeps an undefined length.
func (d *DataSet) ComputeLengths(syntax *TransferSyntax, enc LengthEncoding) {
	_ = walk(d, func(n Node) error {
		if _, ok := n.(*PixelSequence); ok {
			return nil
		}
		n.header().length = clampLength(n.valueLength(syntax, enc))
		return nil
	})
}

// clampLength converts a computed length to a length field, which cannot hold UndefinedLength.
func clampLength(n uint64) uint32 {
	if n >= math.MaxUint32 {
		return math.MaxUint32 - 1
	}
	return uint32(n)
}

func (e *DataElement) setUint32(v uint32) {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	e.SetBytes(b, binary.LittleEndian)
}
