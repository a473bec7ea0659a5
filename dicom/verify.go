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
	"fmt"

	"github.com/rs/zerolog/log"
)

// Verify checks every value of the tree for an odd length, which DICOM does not allow, and
// returns the first problem found. With autocorrect, odd values are padded (space for text, NUL
// for UIDs, zero for binary data), redundant trailing padding of text values is removed and the
// explicit lengths of sequences and items are recomputed for the default transfer syntax (Implicit
// VR Little Endian). Verify then only fails for values it could not correct.
func (d *DataSet) Verify(autocorrect bool) error {
	var first error
	report := func(err error) {
		if first == nil {
			first = err
		}
	}

	_ = walk(d, func(n Node) error {
		switch e := n.(type) {
		case *PixelItem:
			if err := verifyValue(&e.DataElement, autocorrect, "pixel fragment"); err != nil {
				report(err)
			}
		case *DataElement:
			if err := verifyValue(e, autocorrect, "value"); err != nil {
				report(err)
			}
		}
		return nil
	})

	if autocorrect {
		_ = walk(d, func(n Node) error {
			switch c := n.(type) {
			case *Sequence:
				if c.length != UndefinedLength {
					c.length = c.lengthField(ImplicitVRLittleEndian, ExplicitLengthEncoding)
				}
			case *DataSet:
				if !c.top && c.length != UndefinedLength {
					c.length = c.lengthField(ImplicitVRLittleEndian, ExplicitLengthEncoding)
				}
			}
			return nil
		})
	}
	return first
}

func verifyValue(e *DataElement, autocorrect bool, what string) error {
	length := e.valueLength(nil, ExplicitLengthEncoding)
	if !autocorrect {
		if length%2 != 0 {
			return fmt.Errorf("%s of %v has odd length %d: %w", what, e.tag, length, ErrInvalidLength)
		}
		return nil
	}

	if err := e.Load(); err != nil {
		return err
	}
	value := e.value
	if e.vr.IsString() {
		value = trimPadding(value, e.vr.padding())
	}
	if len(value)%2 != 0 {
		log.Debug().Str("tag", e.tag.String()).Int("length", len(value)).Msgf("padding %s of odd length", what)
		value = append(value, e.vr.padding())
	}
	if len(value) != len(e.value) {
		e.SetBytes(value, e.order)
	}
	return nil
}

// trimPadding removes all but the padding needed to keep the value at even length.
func trimPadding(b []byte, pad byte) []byte {
	trimmed := bytes.TrimRight(b, string([]byte{pad}))
	if len(trimmed) < len(b) && len(trimmed)%2 != 0 {
		trimmed = b[:len(trimmed)+1]
	}
	return trimmed
}
