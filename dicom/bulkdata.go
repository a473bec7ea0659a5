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

// BulkDataReference describes the location of a contiguous sequence of bytes in a file
type BulkDataReference struct {
	Reference ByteRegion
}

// ByteRegion is a contiguous sequence of bytes in a file described by an Offset and a length
type ByteRegion struct {
	Offset int64
	Length int64
}

// PixelItem is a fragment of encapsulated pixel data, or the basic offset table when it is the
// first item of a PixelSequence.
type PixelItem struct {
	DataElement
}

// NewPixelItem returns a fragment holding b.
func NewPixelItem(b []byte) *PixelItem {
	p := &PixelItem{}
	p.tag = ItemTag
	p.vr = OBVR
	p.SetBytes(b, binary.LittleEndian)
	return p
}

// EncodedLength implements Node.
func (p *PixelItem) EncodedLength(syntax *TransferSyntax, enc LengthEncoding) uint64 {
	return 8 + p.valueLength(syntax, enc)
}

func (p *PixelItem) write(s Stream, syntax *TransferSyntax, ctx *writeContext) error {
	if p.state == TransferReady {
		return nil
	}
	if p.state == TransferInit {
		if err := p.Load(); err != nil {
			p.recordErr(err)
			return err
		}
		var dw dcmWriter
		dw.itemHeader(syntax.ByteOrder, ItemTag, uint32(len(p.value)))
		if err := dw.commit(s); err != nil {
			return err
		}
		p.out = p.value
		p.length = uint32(len(p.value))
		p.state = TransferInProgress
		p.transferred = 0
	}
	for p.transferred < uint64(len(p.out)) {
		n, err := s.WriteBytes(p.out[p.transferred:])
		p.transferred += uint64(n)
		if err != nil {
			return fmt.Errorf("writing pixel item: %w", err)
		}
	}
	p.out = nil
	p.state = TransferReady
	return nil
}

// String returns a one line description of the fragment.
func (p *PixelItem) String() string {
	return fmt.Sprintf("%v pi #%d", p.tag, p.valueLength(nil, ExplicitLengthEncoding))
}

// PixelSequence represents image pixel data (7FE0,0010) in encapsulated format as described in
// http://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_A.4. The first item is
// the basic offset table, which may be empty; the remaining items are fragments of compressed
// frames.
type PixelSequence struct {
	nodeHeader

	items   []*PixelItem
	pending *PixelItem
	cursor  int
}

// NewPixelSequence returns encapsulated pixel data with an empty offset table followed by the
// given fragments.
func NewPixelSequence(fragments ...[]byte) *PixelSequence {
	ps := &PixelSequence{nodeHeader: nodeHeader{tag: PixelDataTag, vr: OBVR, length: UndefinedLength}}
	ps.items = append(ps.items, NewPixelItem(nil))
	for _, f := range fragments {
		ps.AppendFragment(f)
	}
	return ps
}

func newPixelSequence(tag DataElementTag) *PixelSequence {
	return &PixelSequence{nodeHeader: nodeHeader{tag: tag, vr: OBVR, length: UndefinedLength}}
}

// Items returns the offset table followed by all fragments.
func (ps *PixelSequence) Items() []*PixelItem {
	return ps.items
}

// OffsetTable returns the first item, or nil if the sequence holds no item.
func (ps *PixelSequence) OffsetTable() *PixelItem {
	if len(ps.items) == 0 {
		return nil
	}
	return ps.items[0]
}

// Fragments returns the items following the offset table.
func (ps *PixelSequence) Fragments() []*PixelItem {
	if len(ps.items) < 2 {
		return nil
	}
	return ps.items[1:]
}

// AppendFragment adds a fragment, padding it to even length.
func (ps *PixelSequence) AppendFragment(b []byte) {
	if len(ps.items) == 0 {
		ps.items = append(ps.items, NewPixelItem(nil))
	}
	if len(b)%2 != 0 {
		b = append(append([]byte(nil), b...), 0)
	}
	ps.items = append(ps.items, NewPixelItem(b))
}

// SetOffsetTable fills the basic offset table from the encoded size of each frame. The offsets
// are relative to the first byte of the first fragment item and every frame size must count its
// item headers.
func (ps *PixelSequence) SetOffsetTable(frameSizes []uint32) error {
	table := make([]byte, 4*len(frameSizes))
	var offset uint64
	for i, size := range frameSizes {
		if size%2 != 0 {
			return fmt.Errorf("frame %d has odd size %d: %w", i, size, ErrInvalidOffsetTable)
		}
		if offset > math.MaxUint32 {
			return fmt.Errorf("frame %d starts beyond 4 GiB: %w", i, ErrInvalidOffsetTable)
		}
		binary.LittleEndian.PutUint32(table[4*i:], uint32(offset))
		offset += uint64(size)
	}
	if len(ps.items) == 0 {
		ps.items = append(ps.items, NewPixelItem(table))
		return nil
	}
	ps.items[0].SetBytes(table, binary.LittleEndian)
	return nil
}

// Offsets decodes the basic offset table.
func (ps *PixelSequence) Offsets() ([]uint32, error) {
	table := ps.OffsetTable()
	if table == nil {
		return nil, nil
	}
	b, err := table.Bytes()
	if err != nil {
		return nil, err
	}
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("offset table of %d bytes: %w", len(b), ErrInvalidOffsetTable)
	}
	offsets := make([]uint32, len(b)/4)
	for i := range offsets {
		offsets[i] = binary.LittleEndian.Uint32(b[4*i:])
	}
	return offsets, nil
}

// Frames reassembles the compressed frames. The basic offset table is used when present;
// otherwise each fragment is one frame when there are numberOfFrames fragments, and all
// fragments form a single frame when numberOfFrames is 1.
func (ps *PixelSequence) Frames(numberOfFrames int) ([][]byte, error) {
	fragments := ps.Fragments()
	offsets, err := ps.Offsets()
	if err != nil {
		return nil, err
	}

	if len(offsets) == 0 {
		switch {
		case numberOfFrames <= 1:
			frame, err := concatFragments(fragments)
			if err != nil {
				return nil, err
			}
			return [][]byte{frame}, nil
		case numberOfFrames == len(fragments):
			frames := make([][]byte, len(fragments))
			for i, f := range fragments {
				b, err := f.Bytes()
				if err != nil {
					return nil, err
				}
				frames[i] = b
			}
			return frames, nil
		}
		return nil, fmt.Errorf("%d fragments for %d frames without offset table: %w", len(fragments), numberOfFrames, ErrInvalidOffsetTable)
	}

	// group fragments by the offset of their item header
	frames := make([][]byte, len(offsets))
	frame := -1
	var pos uint64
	for _, f := range fragments {
		for frame+1 < len(offsets) && uint64(offsets[frame+1]) == pos {
			frame++
		}
		if frame < 0 {
			return nil, fmt.Errorf("first offset %d does not start a fragment: %w", offsets[0], ErrInvalidOffsetTable)
		}
		b, err := f.Bytes()
		if err != nil {
			return nil, err
		}
		frames[frame] = append(frames[frame], b...)
		pos += f.EncodedLength(ExplicitVRLittleEndian, ExplicitLengthEncoding)
	}
	if frame != len(offsets)-1 {
		return nil, fmt.Errorf("offset %d does not start a fragment: %w", offsets[frame+1], ErrInvalidOffsetTable)
	}
	return frames, nil
}

func concatFragments(fragments []*PixelItem) ([]byte, error) {
	var out []byte
	for _, f := range fragments {
		b, err := f.Bytes()
		if err != nil {
			return nil, err
		}
		out = append(out, b...)
	}
	return out, nil
}

// CheckSyntax reports whether the pixel data of the data set, including pixel data in sequence
// items, can be written in syntax. Encapsulated pixel data needs an encapsulated syntax and
// native pixel data a native one; ChangeTransferSyntax in package codec converts between them.
func (d *DataSet) CheckSyntax(syntax *TransferSyntax) error {
	for _, n := range d.elements {
		switch c := n.(type) {
		case *Sequence:
			for _, it := range c.items {
				if err := it.CheckSyntax(syntax); err != nil {
					return err
				}
			}
		case *PixelSequence:
			if !syntax.Encapsulated {
				return fmt.Errorf("encapsulated %v in native %v: %w", c.tag, syntax, ErrUnsupportedCoding)
			}
		case *DataElement:
			if c.tag == PixelDataTag && syntax.Encapsulated {
				return fmt.Errorf("native %v in encapsulated %v: %w", c.tag, syntax, ErrUnsupportedCoding)
			}
		}
	}
	return nil
}

// TransferInit implements Node.
func (ps *PixelSequence) TransferInit() {
	ps.resetTransfer()
	ps.pending = nil
	ps.cursor = 0
	for _, it := range ps.items {
		it.TransferInit()
	}
}

func (ps *PixelSequence) children() []Node {
	nodes := make([]Node, len(ps.items))
	for i, it := range ps.items {
		nodes[i] = it
	}
	return nodes
}

func (ps *PixelSequence) valueLength(syntax *TransferSyntax, enc LengthEncoding) uint64 {
	var n uint64
	for _, it := range ps.items {
		n += it.EncodedLength(syntax, enc)
	}
	return n
}

// EncodedLength implements Node. Encapsulated pixel data always has undefined length.
func (ps *PixelSequence) EncodedLength(syntax *TransferSyntax, enc LengthEncoding) uint64 {
	return uint64(syntax.HeaderSize(OBVR)) + ps.valueLength(syntax, enc) + 8
}

// String returns a one line description of the pixel sequence.
func (ps *PixelSequence) String() string {
	return fmt.Sprintf("%v %v (PixelSequence, %d items)", ps.tag, ps.vr, len(ps.items))
}

func (ps *PixelSequence) read(s Stream, syntax *TransferSyntax, ctx *readContext) error {
	if ps.state == TransferReady {
		return nil
	}
	if ps.state == TransferInit {
		ps.state = TransferInProgress
		ps.transferred = 0
		ps.items = nil
	}

	for {
		if ps.pending != nil {
			start := s.Tell()
			err := ps.pending.read(s, syntax, ctx)
			ps.transferred += uint64(s.Tell() - start)
			if err != nil {
				if isSuspended(err) {
					return err
				}
				ps.recordErr(err)
				ps.items = append(ps.items, ps.pending)
				ps.pending = nil
				return err
			}
			if ctx.dropOffsetTable && len(ps.items) == 0 {
				ps.pending.SetBytes(nil, syntax.ByteOrder)
			}
			ps.items = append(ps.items, ps.pending)
			ps.pending = nil
			continue
		}

		tag, length, err := readItemHeader(s, syntax.ByteOrder)
		if err != nil {
			if !isSuspended(err) {
				ps.recordErr(err)
			}
			return err
		}
		ps.transferred += 8

		switch tag {
		case ItemTag:
			if length == UndefinedLength {
				err := fmt.Errorf("pixel item with undefined length: %w", ErrInvalidLength)
				ps.recordErr(err)
				return err
			}
			item := &PixelItem{}
			item.tag = ItemTag
			item.vr = OBVR
			item.length = length
			ps.pending = item
		case SequenceDelimitationItemTag:
			ps.state = TransferReady
			return ps.err
		default:
			err := fmt.Errorf("%v in encapsulated pixel data: %w", tag, ErrInvalidTag)
			ps.recordErr(err)
			return err
		}
	}
}

func (ps *PixelSequence) write(s Stream, syntax *TransferSyntax, ctx *writeContext) error {
	if ps.state == TransferReady {
		return nil
	}
	if ps.state == TransferInit {
		var dw dcmWriter
		if err := dw.elementHeader(syntax, ps.tag, OBVR, UndefinedLength); err != nil {
			return err
		}
		if err := dw.commit(s); err != nil {
			return err
		}
		for _, it := range ps.items {
			it.TransferInit()
		}
		ps.state = TransferInProgress
		ps.cursor = 0
		ps.length = UndefinedLength
	}

	for ; ps.cursor < len(ps.items); ps.cursor++ {
		if err := ps.items[ps.cursor].write(s, syntax, ctx); err != nil {
			return err
		}
	}

	var dw dcmWriter
	dw.Delimiter(syntax.ByteOrder, SequenceDelimitationItemTag)
	if err := dw.commit(s); err != nil {
		return err
	}
	ps.state = TransferReady
	return nil
}
