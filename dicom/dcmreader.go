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
)

// dcmReader decodes the fixed size fields of element headers from a Stream. Callers make sure the
// bytes are available (see Stream.AvailN) before using it.
type dcmReader struct {
	s Stream
}

func (dr dcmReader) Tag(order binary.ByteOrder) (DataElementTag, error) {
	group, err := dr.UInt16(order)
	if err != nil {
		return 0, err
	}
	element, err := dr.UInt16(order)
	if err != nil {
		return 0, err
	}

	return NewTag(group, element), nil
}

func (dr dcmReader) Skip(n int) error {
	_, err := dr.Bytes(n)
	return err
}

func (dr dcmReader) String(n int) (string, error) {
	b, err := dr.Bytes(n)
	return string(b), err
}

func (dr dcmReader) Bytes(n int) ([]byte, error) {
	b := make([]byte, n)
	gotN, err := dr.s.ReadBytes(b)
	if err != nil {
		return nil, err
	}
	if gotN != n {
		return nil, fmt.Errorf("internal error: expected %d available bytes but got %d: %w", n, gotN, ErrEndOfStream)
	}
	return b, nil
}

func (dr dcmReader) UInt32(byteOrder binary.ByteOrder) (uint32, error) {
	b, err := dr.Bytes(4)
	if err != nil {
		return 0, err
	}
	return byteOrder.Uint32(b), nil
}

func (dr dcmReader) UInt16(byteOrder binary.ByteOrder) (uint16, error) {
	b, err := dr.Bytes(2)
	if err != nil {
		return 0, err
	}
	return byteOrder.Uint16(b), nil
}
