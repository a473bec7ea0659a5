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
	"sort"

	"github.com/rs/zerolog/log"
)

// topLevelTag is the pseudo tag of a top-level data set
const topLevelTag DataElementTag = 0xFFFFFFFF

// DataSet models a DICOM Data Set as defined
// http://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_3.10
//
// A DataSet is either the top-level data set of a file or an item of a Sequence. Its nodes are
// kept in ascending tag order and every tag appears at most once.
type DataSet struct {
	nodeHeader

	elements []Node
	top      bool

	pending Node
	cursor  int
}

// NewDataSet returns an empty top-level data set.
func NewDataSet() *DataSet {
	return &DataSet{nodeHeader: nodeHeader{tag: topLevelTag, vr: NAVR, length: UndefinedLength}, top: true}
}

// NewItem returns an empty sequence item.
func NewItem() *DataSet {
	return &DataSet{nodeHeader: nodeHeader{tag: ItemTag, vr: NAVR, length: UndefinedLength}}
}

func (d *DataSet) asItem() {
	d.top = false
	d.tag = ItemTag
}

// IsItem is true for sequence items.
func (d *DataSet) IsItem() bool {
	return !d.top
}

// Len returns the number of nodes.
func (d *DataSet) Len() int {
	return len(d.elements)
}

// Elements returns the nodes in ascending tag order.
func (d *DataSet) Elements() []Node {
	return append([]Node(nil), d.elements...)
}

// SortedTags returns the tags of the data set in ascending order.
func (d *DataSet) SortedTags() []DataElementTag {
	tags := make([]DataElementTag, len(d.elements))
	for i, n := range d.elements {
		tags[i] = n.Tag()
	}
	return tags
}

func (d *DataSet) index(tag DataElementTag) (int, bool) {
	i := sort.Search(len(d.elements), func(i int) bool {
		return d.elements[i].Tag() >= tag
	})
	return i, i < len(d.elements) && d.elements[i].Tag() == tag
}

// Insert adds n at the position given by its tag. If the tag is already present, Insert returns
// ErrDoubledTag unless replace is set.
func (d *DataSet) Insert(n Node, replace bool) error {
	if n.Tag().isDelimiter() {
		return fmt.Errorf("inserting %v into data set: %w", n.Tag(), ErrInvalidTag)
	}
	if item, ok := n.(*DataSet); ok && item == d {
		return fmt.Errorf("inserting data set into itself: %w", ErrIllegalCall)
	}
	i, found := d.index(n.Tag())
	if found {
		if !replace {
			return fmt.Errorf("inserting %v: %w", n.Tag(), ErrDoubledTag)
		}
		d.elements[i] = n
		return nil
	}
	d.elements = append(d.elements, nil)
	copy(d.elements[i+1:], d.elements[i:])
	d.elements[i] = n
	return nil
}

// Remove removes and returns the node with the given tag, or nil if absent.
func (d *DataSet) Remove(tag DataElementTag) Node {
	i, found := d.index(tag)
	if !found {
		return nil
	}
	n := d.elements[i]
	d.elements = append(d.elements[:i], d.elements[i+1:]...)
	return n
}

// Clear removes all nodes.
func (d *DataSet) Clear() {
	d.elements = nil
}

// Get returns the node with the given tag, or nil if absent.
func (d *DataSet) Get(tag DataElementTag) Node {
	if i, found := d.index(tag); found {
		return d.elements[i]
	}
	return nil
}

// Element returns the leaf element with the given tag.
func (d *DataSet) Element(tag DataElementTag) (*DataElement, error) {
	switch n := d.Get(tag).(type) {
	case *DataElement:
		return n, nil
	case nil:
		return nil, fmt.Errorf("%v: %w", tag, ErrTagNotFound)
	default:
		return nil, fmt.Errorf("%v is a %T: %w", tag, n, ErrIllegalCall)
	}
}

// Sequence returns the sequence with the given tag.
func (d *DataSet) Sequence(tag DataElementTag) (*Sequence, error) {
	switch n := d.Get(tag).(type) {
	case *Sequence:
		return n, nil
	case nil:
		return nil, fmt.Errorf("%v: %w", tag, ErrTagNotFound)
	default:
		return nil, fmt.Errorf("%v is a %T: %w", tag, n, ErrIllegalCall)
	}
}

// FindString returns the first value of the string element with the given tag.
func (d *DataSet) FindString(tag DataElementTag) (string, error) {
	e, err := d.Element(tag)
	if err != nil {
		return "", err
	}
	return e.StringValue()
}

// FindInt returns the first value of the integer element with the given tag.
func (d *DataSet) FindInt(tag DataElementTag) (int, error) {
	e, err := d.Element(tag)
	if err != nil {
		return 0, err
	}
	return e.IntValue()
}

// PutString inserts or replaces a string element, taking its VR from the data dictionary.
func (d *DataSet) PutString(tag DataElementTag, values ...string) error {
	vr := tag.DictionaryVR()
	if !vr.IsString() {
		return fmt.Errorf("%v has non-string VR %v: %w", tag, vr, ErrIllegalCall)
	}
	return d.Insert(NewStringElement(tag, vr, values...), true)
}

// PutUint16 inserts or replaces a US element.
func (d *DataSet) PutUint16(tag DataElementTag, values ...uint16) error {
	return d.Insert(NewUint16Element(tag, USVR, values...), true)
}

// LoadAllDataIntoMemory loads every unresolved value of the tree.
func (d *DataSet) LoadAllDataIntoMemory() error {
	return walk(d, func(n Node) error {
		if e, ok := loadable(n); ok {
			return e.Load()
		}
		return nil
	})
}

func loadable(n Node) (*DataElement, bool) {
	switch e := n.(type) {
	case *DataElement:
		return e, true
	case *PixelItem:
		return &e.DataElement, true
	}
	return nil, false
}

// TransferInit implements Node.
func (d *DataSet) TransferInit() {
	d.resetTransfer()
	d.pending = nil
	d.cursor = 0
	for _, n := range d.elements {
		n.TransferInit()
	}
}

func (d *DataSet) children() []Node {
	return d.elements
}

func (d *DataSet) valueLength(syntax *TransferSyntax, enc LengthEncoding) uint64 {
	var n uint64
	for _, e := range d.elements {
		n += e.EncodedLength(syntax, enc)
	}
	return n
}

func (d *DataSet) lengthField(syntax *TransferSyntax, enc LengthEncoding) uint32 {
	if enc == UndefinedLengthEncoding {
		return UndefinedLength
	}
	n := d.valueLength(syntax, enc)
	if n >= math.MaxUint32 {
		return UndefinedLength
	}
	return uint32(n)
}

// EncodedLength implements Node. For a top-level data set it is the size of its elements.
func (d *DataSet) EncodedLength(syntax *TransferSyntax, enc LengthEncoding) uint64 {
	n := d.valueLength(syntax, enc)
	if d.top {
		return n
	}
	n += 8
	if d.lengthField(syntax, enc) == UndefinedLength {
		n += 8
	}
	return n
}

// Read parses the data set from s, encoded in syntax. Read is resumable: when it returns
// ErrNeedMoreData, feed s and call Read again; bytes already consumed are not parsed twice. A
// top-level data set ends at the end of the stream. For an item the stream starts with the item
// header.
//
// Read returns the first error encountered. Content parsed before an error remains available.
func (d *DataSet) Read(s Stream, syntax *TransferSyntax, opts ...ReadOption) error {
	if !s.ReadMode() {
		return ErrWrongStreamMode
	}
	ctx := newReadContext(opts...)
	if !d.top && d.state == TransferInit {
		tag, length, err := readItemHeader(s, syntax.ByteOrder)
		if err != nil {
			return err
		}
		if tag != ItemTag {
			return fmt.Errorf("%v where an item was expected: %w", tag, ErrInvalidTag)
		}
		d.length = length
	}
	if err := d.read(s, syntax, ctx); err != nil {
		return err
	}
	return d.err
}

// Write encodes the data set to s in syntax. Write is resumable: when it returns ErrBufferFull,
// drain s and call Write again. Pixel data that cannot be written in syntax is rejected with
// ErrUnsupportedCoding, see CheckSyntax. Checks, group lengths and padding are handled before
// the first byte is written. Call TransferInit before writing a data set that was already read
// or written.
func (d *DataSet) Write(s Stream, syntax *TransferSyntax, opts ...WriteOption) error {
	if s.ReadMode() {
		return ErrWrongStreamMode
	}
	ctx := newWriteContext(opts...)
	if d.state == TransferInit {
		if err := d.CheckSyntax(syntax); err != nil {
			return err
		}
		if err := d.ComputeGroupLengthAndPadding(ctx.groupLength, ctx.padding, syntax, ctx.enc, ctx.padlen, ctx.subPadlen, 0); err != nil {
			return err
		}
	}
	if err := d.write(s, syntax, ctx); err != nil {
		return err
	}
	return s.Flush()
}

func (d *DataSet) read(s Stream, syntax *TransferSyntax, ctx *readContext) error {
	if d.state == TransferReady {
		return nil
	}
	if d.state == TransferInit {
		d.state = TransferInProgress
		d.transferred = 0
	}

	// a pending child is completed even when its header used up the rest of the length
	for d.pending != nil || d.top || d.length == UndefinedLength || d.transferred < uint64(d.length) {
		if d.pending != nil {
			start := s.Tell()
			err := d.pending.read(s, syntax, ctx)
			d.transferred += uint64(s.Tell() - start)
			if err != nil {
				if isSuspended(err) {
					return err
				}
				d.recordErr(err)
				if isStreamError(err) {
					d.insertRead(d.pending, ctx)
					d.pending = nil
					return err
				}
			}
			d.insertRead(d.pending, ctx)
			d.pending = nil
			continue
		}

		if d.top && s.EndOfStream() {
			break
		}

		hdr, err := readElementHeader(s, syntax, ctx.dictionary())
		if err != nil {
			if !isSuspended(err) {
				d.recordErr(err)
			}
			return err
		}
		d.transferred += uint64(hdr.size)

		switch hdr.tag {
		case ItemDelimitationItemTag:
			if !d.top && d.length == UndefinedLength {
				d.state = TransferReady
				return d.err
			}
			d.recordErr(fmt.Errorf("item delimitation in data set of explicit length: %w", ErrUnexpectedDelimitation))
			continue
		case SequenceDelimitationItemTag:
			err := fmt.Errorf("sequence delimitation inside data set: %w", ErrUnexpectedDelimitation)
			d.recordErr(err)
			if d.top || d.length != UndefinedLength {
				continue
			}
			// the item misses its delimitation; leave the sequence delimitation to the sequence
			if perr := s.PutbackN(int64(hdr.size)); perr != nil {
				return perr
			}
			d.transferred -= uint64(hdr.size)
			d.state = TransferReady
			return err
		}

		if ctx.stopAt != nil && ctx.stopAt(hdr.tag, s.Tell()-int64(hdr.size)) {
			if perr := s.PutbackN(int64(hdr.size)); perr != nil {
				return perr
			}
			d.transferred -= uint64(hdr.size)
			break
		}
		if hdr.vrErr != nil {
			log.Warn().Str("tag", hdr.tag.String()).Msg("unknown VR, reading value as UN")
			d.recordErr(fmt.Errorf("%v: %w", hdr.tag, hdr.vrErr))
		}

		node, err := newNode(hdr, d, ctx)
		if err != nil {
			d.recordErr(err)
			return err
		}
		d.pending = node
	}

	if !d.top && d.length != UndefinedLength && d.transferred > uint64(d.length) {
		d.recordErr(fmt.Errorf("elements of item exceed its length %d: %w", d.length, ErrInvalidLength))
	}
	d.state = TransferReady
	return d.err
}

// insertRead adds a node produced by the parser.
func (d *DataSet) insertRead(n Node, ctx *readContext) {
	if ctx.dropGroupLengths && n.Tag().IsGroupLength() {
		return
	}
	if err := d.Insert(n, false); err != nil {
		log.Warn().Str("tag", n.Tag().String()).Msg("element found twice in one data set, ignoring second entry")
	}
}

func (d *DataSet) write(s Stream, syntax *TransferSyntax, ctx *writeContext) error {
	if d.state == TransferReady {
		return nil
	}
	if d.state == TransferInit {
		if !d.top {
			length := d.lengthField(syntax, ctx.enc)
			var dw dcmWriter
			dw.itemHeader(syntax.ByteOrder, ItemTag, length)
			if err := dw.commit(s); err != nil {
				return err
			}
			d.length = length
		}
		for _, n := range d.elements {
			n.TransferInit()
		}
		d.state = TransferInProgress
		d.cursor = 0
	}

	for ; d.cursor < len(d.elements); d.cursor++ {
		if err := d.elements[d.cursor].write(s, syntax, ctx); err != nil {
			return err
		}
	}

	if !d.top && d.length == UndefinedLength {
		var dw dcmWriter
		dw.Delimiter(syntax.ByteOrder, ItemDelimitationItemTag)
		if err := dw.commit(s); err != nil {
			return err
		}
	}
	d.state = TransferReady
	return nil
}
