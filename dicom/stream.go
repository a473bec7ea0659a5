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

import "io"

// Stream is the byte source or sink of the read and write engine. Streams never block: reads
// consume at most the bytes that are currently available and writes accept at most the bytes
// that currently fit.
//
// A Stream keeps a sticky status, reported by Err. ErrNeedMoreData and ErrBufferFull are
// cleared when the client feeds or drains the stream; every other status is permanent.
type Stream interface {
	// ReadBytes reads up to len(p) available bytes into p. It returns ErrNeedMoreData or
	// ErrEndOfStream when no byte is available.
	ReadBytes(p []byte) (int, error)
	// WriteBytes writes as many bytes of p as fit and returns ErrBufferFull if not all did.
	WriteBytes(p []byte) (int, error)

	// Seek moves to an absolute position. Only random access streams support arbitrary seeks.
	Seek(offset int64) error
	// Tell returns the absolute position of the stream.
	Tell() int64

	// Avail returns the number of bytes that can be read, or written, without suspending.
	Avail() int64
	// AvailN returns nil if at least n bytes can be transferred without suspending. Unlike
	// ReadBytes it never changes the sticky status.
	AvailN(n int64) error

	// SetPutbackMark remembers the current position so that Putback can return to it.
	SetPutbackMark()
	UnsetPutbackMark()
	// Putback returns to the putback mark and removes it.
	Putback() error
	// PutbackN moves the read position n bytes back.
	PutbackN(n int64) error

	EndOfStream() bool
	Flush() error
	Err() error
	ReadMode() bool
	RandomAccess() bool
}

// BulkDataSource gives random access to the bytes of a stream after parsing, so that values
// left unresolved by a read can be loaded on demand.
type BulkDataSource interface {
	io.ReaderAt
}

// bulkDataSourcer is implemented by streams that can hand out a BulkDataSource.
type bulkDataSourcer interface {
	BulkDataSource() BulkDataSource
}

func streamSource(s Stream) BulkDataSource {
	if bs, ok := s.(bulkDataSourcer); ok {
		return bs.BulkDataSource()
	}
	return nil
}
