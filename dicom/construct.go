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

// Construct writes ff as a DICOM file to w with the data set encoded in syntax. The meta
// information is completed as described in FileFormat.UpdateMetaInfo; its group length is always
// recalculated. By default, there is no validation against the DICOM standard of any form.
func Construct(w io.Writer, ff *FileFormat, syntax *TransferSyntax, opts ...WriteOption) error {
	ff.TransferInit()
	if err := ff.WriteFile(NewWriterStream(w), syntax, opts...); err != nil {
		return fmt.Errorf("constructing file: %w", err)
	}
	return nil
}

// ConstructDataSet writes ds without preamble and meta information to w, encoded in syntax.
func ConstructDataSet(w io.Writer, ds *DataSet, syntax *TransferSyntax, opts ...WriteOption) error {
	ds.TransferInit()
	if err := ds.Write(NewWriterStream(w), syntax, opts...); err != nil {
		return fmt.Errorf("constructing data set: %w", err)
	}
	return nil
}
