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

// SwapIfNecessary converts buf in place from the source to the target byte order, treating it as a
// sequence of width-byte values. It is a no-op when both orders agree or width is 1. Swapping is
// its own inverse.
func SwapIfNecessary(target, source binary.ByteOrder, buf []byte, width int) error {
	switch width {
	case 1, 2, 4, 8:
	default:
		return fmt.Errorf("swapping values of width %d: %w", width, ErrIllegalCall)
	}
	if len(buf)%width != 0 {
		return fmt.Errorf("swapping %d bytes in units of %d: %w", len(buf), width, ErrIllegalCall)
	}
	if width == 1 || sameOrder(target, source) {
		return nil
	}

	for i := 0; i < len(buf); i += width {
		v := buf[i : i+width]
		for l, r := 0, width-1; l < r; l, r = l+1, r-1 {
			v[l], v[r] = v[r], v[l]
		}
	}
	return nil
}

func sameOrder(a, b binary.ByteOrder) bool {
	if a == nil || b == nil {
		return true
	}
	return a.String() == b.String()
}
