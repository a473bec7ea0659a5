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
	"io"
)

// Parse parses a DICOM file represented as an io.Reader. If r is also an io.ReadSeeker (e.g. an
// *os.File) the file is read in place, so that WithMaxReadLength and ReferenceBulkData can leave
// large values in r to be loaded on demand. Any other reader is consumed completely first.
//
// The returned FileFormat holds whatever was parsed even when an error is returned.
func Parse(r io.Reader, opts ...ReadOption) (*FileFormat, error) {
	var s Stream
	if rs, ok := r.(io.ReadSeeker); ok {
		fs, err := NewReadSeekerStream(rs)
		if err != nil {
			return nil, fmt.Errorf("creating stream: %w", err)
		}
		s = fs
	} else {
		b, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("reading input: %w", err)
		}
		s = NewBufferStreamFromBytes(b)
	}

	ff := NewFileFormat(nil)
	if err := ff.ReadFile(s, opts...); err != nil {
		return ff, fmt.Errorf("parsing file: %w", err)
	}
	return ff, nil
}

// ParseDataSet parses a data set without preamble and meta information, encoded in syntax.
func ParseDataSet(r io.Reader, syntax *TransferSyntax, opts ...ReadOption) (*DataSet, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}
	ds := NewDataSet()
	if err := ds.Read(NewBufferStreamFromBytes(b), syntax, opts...); err != nil {
		return ds, fmt.Errorf("parsing data set: %w", err)
	}
	return ds, nil
}
