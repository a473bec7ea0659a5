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

	"github.com/rs/zerolog/log"
)

// readContext carries the read options through the tree
type readContext struct {
	dict             Dictionary
	maxReadLength    uint32
	isBulkData       func(DataElementTag) bool
	dropGroupLengths bool
	dropOffsetTable  bool
	strict           bool

	// stopAt ends a top-level data set before the first element it returns true for. offset is
	// the stream position of the element header.
	stopAt func(tag DataElementTag, offset int64) bool
}

func newReadContext(opts ...ReadOption) *readContext {
	ctx := &readContext{}
	for _, opt := range opts {
		opt.apply(ctx)
	}
	return ctx
}

func (ctx *readContext) dictionary() Dictionary {
	if ctx.dict == nil {
		return DefaultDictionary
	}
	return ctx.dict
}

// deferValue is true if the value of the element should be left unresolved in the stream.
func (ctx *readContext) deferValue(tag DataElementTag, length uint32) bool {
	if ctx.maxReadLength > 0 && length > ctx.maxReadLength {
		return true
	}
	return ctx.isBulkData != nil && length > 0 && ctx.isBulkData(tag)
}

// elementHeader is the decoded header of a data element, item or delimitation item
type elementHeader struct {
	tag    DataElementTag
	vr     *VR
	length uint32
	// size is the number of bytes of the header
	size int

	// vrErr is set when an explicit VR was not recognized
	vrErr error
}

// readElementHeader consumes the header of the next element. The header is consumed completely
// or not at all: when fewer bytes are available the stream is left untouched and the stream
// condition is returned.
func readElementHeader(s Stream, syntax *TransferSyntax, dict Dictionary) (elementHeader, error) {
	var hdr elementHeader
	order := syntax.ByteOrder

	if err := s.AvailN(8); err != nil {
		return hdr, headerErr(err)
	}
	s.SetPutbackMark()
	defer s.UnsetPutbackMark()

	dr := dcmReader{s}
	tag, err := dr.Tag(order)
	if err != nil {
		return hdr, err
	}
	hdr.tag = tag
	hdr.size = 8

	if tag.GroupNumber() == 0xFFFE {
		// items and delimitation items never carry a VR
		hdr.vr = NAVR
		hdr.length, err = dr.UInt32(order)
		return hdr, err
	}

	if !syntax.ExplicitVR {
		hdr.vr = implicitVR(tag, dict)
		hdr.length, err = dr.UInt32(order)
		return hdr, err
	}

	name, err := dr.String(vrSize)
	if err != nil {
		return hdr, err
	}
	vr, err := lookupVRByName(name)
	if err == nil && (vr.IsAmbiguous() || vr == NAVR) {
		err = fmt.Errorf("dictionary-only vr %q in stream: %w", name, ErrInvalidVR)
	}
	if err != nil {
		// unknown VRs are read as UN, which has a 32-bit length
		hdr.vrErr = err
		vr = UNVR
	}
	hdr.vr = vr

	if !vr.Has32BitLength() {
		length, err := dr.UInt16(order)
		hdr.length = uint32(length)
		return hdr, err
	}

	// reserved bytes and the 32-bit length
	if err := s.AvailN(6); err != nil {
		if perr := s.Putback(); perr != nil {
			return hdr, perr
		}
		return hdr, headerErr(err)
	}
	if err := dr.Skip(2); err != nil { // reserved
		return hdr, err
	}
	hdr.length, err = dr.UInt32(order)
	hdr.size = 12
	return hdr, err
}

// headerErr reports a stream that ends inside a header as truncated.
func headerErr(err error) error {
	if err == ErrEndOfStream {
		return fmt.Errorf("truncated element header: %w", ErrEndOfStream)
	}
	return err
}

// readItemHeader consumes an item or delimitation header: a tag followed by a 32-bit length.
func readItemHeader(s Stream, order binary.ByteOrder) (DataElementTag, uint32, error) {
	if err := s.AvailN(8); err != nil {
		return 0, 0, headerErr(err)
	}
	dr := dcmReader{s}
	tag, err := dr.Tag(order)
	if err != nil {
		return 0, 0, err
	}
	length, err := dr.UInt32(order)
	return tag, length, err
}

// implicitVR looks up the VR of tag when it is not part of the stream.
func implicitVR(tag DataElementTag, dict Dictionary) *VR {
	if entry, ok := dict.Lookup(tag); ok {
		return entry.VR
	}
	return UNVR
}

// resolveAmbiguousVR picks the concrete VR of a dictionary VR that depends on context. xs stays
// ambiguous when the Pixel Representation of the data set has not been read yet; callers can
// resolve it later with DataElement.ResolveVR.
func resolveAmbiguousVR(hdr elementHeader, parent *DataSet) *VR {
	switch hdr.vr {
	case OXVR:
		if hdr.length == UndefinedLength {
			return OBVR
		}
		return OWVR
	case LTAmbiguousVR:
		return OWVR
	case XSVR:
		if parent != nil {
			if rep, err := parent.FindInt(PixelRepresentationTag); err == nil {
				if rep == 1 {
					return SSVR
				}
				return USVR
			}
		}
		log.Debug().Str("tag", hdr.tag.String()).Msg("leaving US or SS unresolved, pixel representation unknown")
		return XSVR
	}
	return hdr.vr
}

// newNode creates the node that will hold the value announced by hdr.
func newNode(hdr elementHeader, parent *DataSet, ctx *readContext) (Node, error) {
	if hdr.tag == ItemTag {
		return nil, fmt.Errorf("item tag outside of sequence: %w", ErrInvalidTag)
	}

	vr := resolveAmbiguousVR(hdr, parent)
	undefined := hdr.length == UndefinedLength

	switch {
	case vr == SQVR:
		seq := NewSequence(hdr.tag)
		seq.length = hdr.length
		return seq, nil
	case undefined && hdr.tag == PixelDataTag && (vr == OBVR || vr == OWVR || vr == UNVR):
		return newPixelSequence(hdr.tag), nil
	case undefined && (vr == OBVR || vr == OWVR || vr == UNVR):
		// PS3.5 6.2.2: UN with undefined length is a sequence encoded in implicit VR little
		// endian. OB and OW of undefined length are read as sequences in the current syntax.
		seq := NewSequence(hdr.tag)
		if vr == UNVR {
			seq.itemSyntax = ImplicitVRLittleEndian
		}
		log.Debug().Str("tag", hdr.tag.String()).Str("vr", vr.Name).Msg("reading undefined length value as sequence")
		return seq, nil
	case undefined:
		return nil, fmt.Errorf("%v %v with undefined length: %w", hdr.tag, vr, ErrInvalidLength)
	}

	e := &DataElement{nodeHeader: nodeHeader{tag: hdr.tag, vr: vr, length: hdr.length}}
	return e, nil
}
