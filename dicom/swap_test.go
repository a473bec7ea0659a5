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
	"errors"
	"testing"
)

func TestSwapIfNecessary(t *testing.T) {
	testCases := []struct {
		name   string
		target binary.ByteOrder
		source binary.ByteOrder
		width  int
		in     []byte
		want   []byte
		err    error
	}{
		{"same order", binary.LittleEndian, binary.LittleEndian, 2, []byte{1, 2, 3, 4}, []byte{1, 2, 3, 4}, nil},
		{"bytes", binary.BigEndian, binary.LittleEndian, 1, []byte{1, 2, 3}, []byte{1, 2, 3}, nil},
		{"words", binary.BigEndian, binary.LittleEndian, 2, []byte{1, 2, 3, 4}, []byte{2, 1, 4, 3}, nil},
		{"double words", binary.LittleEndian, binary.BigEndian, 4, []byte{1, 2, 3, 4, 5, 6, 7, 8}, []byte{4, 3, 2, 1, 8, 7, 6, 5}, nil},
		{"quad words", binary.BigEndian, binary.LittleEndian, 8, []byte{1, 2, 3, 4, 5, 6, 7, 8}, []byte{8, 7, 6, 5, 4, 3, 2, 1}, nil},
		{"invalid width", binary.BigEndian, binary.LittleEndian, 3, []byte{1, 2, 3}, []byte{1, 2, 3}, ErrIllegalCall},
		{"partial value", binary.BigEndian, binary.LittleEndian, 4, []byte{1, 2, 3, 4, 5, 6}, []byte{1, 2, 3, 4, 5, 6}, ErrIllegalCall},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			buf := append([]byte(nil), tc.in...)
			err := SwapIfNecessary(tc.target, tc.source, buf, tc.width)
			if !errors.Is(err, tc.err) {
				t.Fatalf("SwapIfNecessary(_, _, _, %d) => %v, want %v", tc.width, err, tc.err)
			}
			if !bytes.Equal(buf, tc.want) {
				t.Fatalf("got % X, want % X", buf, tc.want)
			}
			if tc.err != nil {
				return
			}
			if err := SwapIfNecessary(tc.source, tc.target, buf, tc.width); err != nil {
				t.Fatalf("swapping back => %v", err)
			}
			if !bytes.Equal(buf, tc.in) {
				t.Fatalf("swapping twice => % X, want % X", buf, tc.in)
			}
		})
	}
}
