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
	"bytes"
	"encoding/binary"
	"fmt"
)

// dcmWriter assembles element headers so that they reach the Stream in a single write. A header
// is either written completely or not at all.
type dcmWriter struct {
	bytes.Buffer
}

func (dw *dcmWriter) Tag(order binary.ByteOrder, tag DataElementTag) {
	dw.UInt16(order, tag.GroupNumber())
	dw.UInt16(order, tag.ElementNumber())
}

func (dw *dcmWriter) Delimiter(order binary.ByteOrder, tag DataElementTag) {
	dw.Tag(order, tag)
	dw.UInt32(order, 0)
}

func (dw *dcmWriter) UInt16(order binary.ByteOrder, v uint16) {
	buf := make([]byte, 2)
	order.PutUint16(buf, v)
	dw.Write(buf)
}

func (dw *dcmWriter) UInt32(order binary.ByteOrder, v uint32) {
	buf := make([]byte, 4)
	order.PutUint32(buf, v)
	dw.Write(buf)
}

// commit writes the assembled bytes to s if they fit, and resets the writer.
func (dw *dcmWriter) commit(s Stream) error {
	if err := s.AvailN(int64(dw.Len())); err != nil {
		return err
	}
	n, err := s.WriteBytes(dw.Bytes())
	if err != nil {
		return err
	}
	if n != dw.Len() {
		return fmt.Errorf("wrote %d of %d header bytes: %w", n, dw.Len(), ErrInvalidStream)
	}
	dw.Reset()
	return nil
}

// elementHeader assembles the header of an element with the given tag, VR and length field.
func (dw *dcmWriter) elementHeader(syntax *TransferSyntax, tag DataElementTag, vr *VR, length uint32) error {
	dw.Tag(syntax.ByteOrder, tag)
	if !syntax.ExplicitVR {
		dw.UInt32(syntax.ByteOrder, length)
		return nil
	}

	dw.WriteString(vr.Name)
	if vr.Has32BitLength() {
		dw.UInt16(syntax.ByteOrder, 0) // reserved
		dw.UInt32(syntax.ByteOrder, length)
		return nil
	}
	if length > 0xFFFF {
		return fmt.Errorf("value length %d of %v exceeds 16-bit length field: %w", length, tag, ErrInvalidLength)
	}
	dw.UInt16(syntax.ByteOrder, uint16(length))
	return nil
}

// itemHeader assembles an item or delimitation header, which never carries a VR.
func (dw *dcmWriter) itemHeader(order binary.ByteOrder, tag DataElementTag, length uint32) {
	dw.Tag(order, tag)
	dw.UInt32(order, length)
}
