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
	"math"

	"github.com/rs/zerolog/log"
)

// Sequence models a DICOM sequence: an element whose value is an ordered list of items, each of
// which is a nested DataSet.
type Sequence struct {
	nodeHeader

	items []*DataSet

	// itemSyntax overrides the syntax of the items, e.g. UN sequences are always implicit VR
	// little endian
	itemSyntax *TransferSyntax

	pending *DataSet
	cursor  int
}

// NewSequence returns an empty sequence with the given tag.
func NewSequence(tag DataElementTag, items ...*DataSet) *Sequence {
	seq := &Sequence{nodeHeader: nodeHeader{tag: tag, vr: SQVR, length: UndefinedLength}}
	for _, it := range items {
		seq.Append(it)
	}
	return seq
}

// Items returns the items of the sequence.
func (seq *Sequence) Items() []*DataSet {
	return seq.items
}

// Len returns the number of items.
func (seq *Sequence) Len() int {
	return len(seq.items)
}

// Item returns item i, or nil if out of range.
func (seq *Sequence) Item(i int) *DataSet {
	if i < 0 || i >= len(seq.items) {
		return nil
	}
	return seq.items[i]
}

// Append adds item at the end of the sequence.
func (seq *Sequence) Append(item *DataSet) {
	item.asItem()
	seq.items = append(seq.items, item)
}

// Insert adds item at position i, shifting later items.
func (seq *Sequence) Insert(i int, item *DataSet) error {
	if i < 0 || i > len(seq.items) {
		return fmt.Errorf("inserting item at %d of %d: %w", i, len(seq.items), ErrIllegalCall)
	}
	item.asItem()
	seq.items = append(seq.items, nil)
	copy(seq.items[i+1:], seq.items[i:])
	seq.items[i] = item
	return nil
}

// Remove removes and returns item i.
func (seq *Sequence) Remove(i int) (*DataSet, error) {
	if i < 0 || i >= len(seq.items) {
		return nil, fmt.Errorf("removing item %d of %d: %w", i, len(seq.items), ErrIllegalCall)
	}
	item := seq.items[i]
	seq.items = append(seq.items[:i], seq.items[i+1:]...)
	return item, nil
}

// TransferInit implements Node.
func (seq *Sequence) TransferInit() {
	seq.resetTransfer()
	seq.pending = nil
	seq.cursor = 0
	for _, it := range seq.items {
		it.TransferInit()
	}
}

func (seq *Sequence) children() []Node {
	nodes := make([]Node, len(seq.items))
	for i, it := range seq.items {
		nodes[i] = it
	}
	return nodes
}

func (seq *Sequence) valueLength(syntax *TransferSyntax, enc LengthEncoding) uint64 {
	var n uint64
	for _, it := range seq.items {
		n += it.EncodedLength(syntax, enc)
	}
	return n
}

// lengthField returns the length written for the sequence. Sequences too long for a 32-bit length
// are always written with undefined length.
func (seq *Sequence) lengthField(syntax *TransferSyntax, enc LengthEncoding) uint32 {
	if enc == UndefinedLengthEncoding {
		return UndefinedLength
	}
	n := seq.valueLength(syntax, enc)
	if n >= math.MaxUint32 {
		return UndefinedLength
	}
	return uint32(n)
}

// EncodedLength implements Node.
func (seq *Sequence) EncodedLength(syntax *TransferSyntax, enc LengthEncoding) uint64 {
	n := uint64(syntax.HeaderSize(SQVR)) + seq.valueLength(syntax, enc)
	if seq.lengthField(syntax, enc) == UndefinedLength {
		n += 8
	}
	return n
}

// String returns a one line description of the sequence.
func (seq *Sequence) String() string {
	return fmt.Sprintf("%v %v (Sequence, %d items)", seq.tag, seq.vr, len(seq.items))
}

func (seq *Sequence) syntaxOf(syntax *TransferSyntax) *TransferSyntax {
	if seq.itemSyntax != nil {
		return seq.itemSyntax
	}
	return syntax
}

func (seq *Sequence) read(s Stream, syntax *TransferSyntax, ctx *readContext) error {
	if seq.state == TransferReady {
		return nil
	}
	if seq.state == TransferInit {
		seq.state = TransferInProgress
		seq.transferred = 0
		seq.items = nil
	}
	syntax = seq.syntaxOf(syntax)

	for seq.pending != nil || seq.length == UndefinedLength || seq.transferred < uint64(seq.length) {
		if seq.pending != nil {
			start := s.Tell()
			err := seq.pending.read(s, syntax, ctx)
			seq.transferred += uint64(s.Tell() - start)
			if err != nil {
				if isSuspended(err) {
					return err
				}
				seq.recordErr(err)
				if isStreamError(err) {
					seq.items = append(seq.items, seq.pending)
					seq.pending = nil
					return err
				}
			}
			seq.items = append(seq.items, seq.pending)
			seq.pending = nil
			continue
		}

		s.SetPutbackMark()
		tag, length, err := readItemHeader(s, syntax.ByteOrder)
		if err != nil {
			s.UnsetPutbackMark()
			if !isSuspended(err) {
				seq.recordErr(err)
			}
			return err
		}

		switch tag {
		case ItemTag:
			s.UnsetPutbackMark()
			seq.transferred += 8
			item := NewItem()
			item.length = length
			seq.pending = item
		case SequenceDelimitationItemTag:
			s.UnsetPutbackMark()
			seq.transferred += 8
			if seq.length == UndefinedLength {
				seq.state = TransferReady
				return seq.err
			}
			seq.recordErr(fmt.Errorf("sequence delimitation in %v of explicit length: %w", seq.tag, ErrUnexpectedDelimitation))
		case ItemDelimitationItemTag:
			s.UnsetPutbackMark()
			seq.transferred += 8
			seq.recordErr(fmt.Errorf("item delimitation outside of item in %v: %w", seq.tag, ErrUnexpectedDelimitation))
		default:
			err := fmt.Errorf("%v where an item of %v was expected: %w", tag, seq.tag, ErrInvalidTag)
			seq.recordErr(err)
			if seq.length != UndefinedLength {
				s.UnsetPutbackMark()
				return err
			}
			// treat the stray element as the end of the sequence and let the enclosing data set
			// parse it
			if perr := s.Putback(); perr != nil {
				return perr
			}
			log.Warn().Str("tag", tag.String()).Str("sequence", seq.tag.String()).Msg("sequence ended without delimitation item")
			seq.state = TransferReady
			return err
		}
	}

	if seq.transferred > uint64(seq.length) {
		seq.recordErr(fmt.Errorf("items of %v exceed its length %d: %w", seq.tag, seq.length, ErrInvalidLength))
	}
	seq.state = TransferReady
	return seq.err
}

func (seq *Sequence) write(s Stream, syntax *TransferSyntax, ctx *writeContext) error {
	if seq.state == TransferReady {
		return nil
	}
	if seq.state == TransferInit {
		length := seq.lengthField(syntax, ctx.enc)
		var dw dcmWriter
		if err := dw.elementHeader(syntax, seq.tag, SQVR, length); err != nil {
			return err
		}
		if err := dw.commit(s); err != nil {
			return err
		}
		for _, it := range seq.items {
			it.TransferInit()
		}
		seq.vr = SQVR
		seq.length = length
		seq.state = TransferInProgress
		seq.cursor = 0
	}

	for ; seq.cursor < len(seq.items); seq.cursor++ {
		if err := seq.items[seq.cursor].write(s, syntax, ctx); err != nil {
			return err
		}
	}

	if seq.length == UndefinedLength {
		var dw dcmWriter
		dw.Delimiter(syntax.ByteOrder, SequenceDelimitationItemTag)
		if err := dw.commit(s); err != nil {
			return err
		}
	}
	seq.state = TransferReady
	return nil
}
