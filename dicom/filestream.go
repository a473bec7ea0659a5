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
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
)

// FileStream is a random access Stream over a file or any io.ReadSeeker, or a write-only Stream
// over a file or io.Writer.
type FileStream struct {
	r      io.ReadSeeker
	w      *bufio.Writer
	closer io.Closer
	path   string

	pos  int64
	size int64
	mark int64
	err  error
}

// OpenFileStream opens path for reading.
func OpenFileStream(path string) (*FileStream, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %v: %w", path, err)
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat %v: %w", path, err)
	}
	return &FileStream{r: f, closer: f, path: path, size: fi.Size(), mark: -1}, nil
}

// NewReadSeekerStream returns a read Stream over rs starting at its current offset.
func NewReadSeekerStream(rs io.ReadSeeker) (*FileStream, error) {
	pos, err := rs.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, fmt.Errorf("getting current offset: %w", err)
	}
	size, err := rs.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, fmt.Errorf("getting size: %w", err)
	}
	if _, err := rs.Seek(pos, io.SeekStart); err != nil {
		return nil, fmt.Errorf("restoring offset: %w", err)
	}
	return &FileStream{r: rs, pos: pos, size: size, mark: -1}, nil
}

// CreateFileStream creates or truncates path for writing.
func CreateFileStream(path string) (*FileStream, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating %v: %w", path, err)
	}
	return &FileStream{w: bufio.NewWriter(f), closer: f, path: path, mark: -1}, nil
}

// NewWriterStream returns a write Stream over w. Call Flush once writing is complete.
func NewWriterStream(w io.Writer) *FileStream {
	return &FileStream{w: bufio.NewWriter(w), mark: -1}
}

func (s *FileStream) fail(err error) error {
	if s.err == nil {
		s.err = err
	}
	return err
}

// ReadBytes implements Stream.
func (s *FileStream) ReadBytes(p []byte) (int, error) {
	if s.r == nil {
		return 0, s.fail(ErrWrongStreamMode)
	}
	if s.err != nil && s.err != ErrEndOfStream {
		return 0, s.err
	}
	n := int64(len(p))
	if rem := s.size - s.pos; rem < n {
		n = rem
	}
	if n <= 0 {
		if len(p) == 0 {
			return 0, nil
		}
		s.err = ErrEndOfStream
		return 0, ErrEndOfStream
	}
	got, err := io.ReadFull(s.r, p[:n])
	s.pos += int64(got)
	if err != nil {
		return got, s.fail(fmt.Errorf("%w: %v", ErrInvalidStream, err))
	}
	return got, nil
}

// WriteBytes implements Stream.
func (s *FileStream) WriteBytes(p []byte) (int, error) {
	if s.w == nil {
		return 0, s.fail(ErrWrongStreamMode)
	}
	if s.err != nil {
		return 0, s.err
	}
	n, err := s.w.Write(p)
	s.pos += int64(n)
	if err != nil {
		return n, s.fail(fmt.Errorf("%w: %v", ErrInvalidStream, err))
	}
	return n, nil
}

// Seek implements Stream.
func (s *FileStream) Seek(offset int64) error {
	if s.r == nil {
		return s.fail(ErrWrongStreamMode)
	}
	if offset < 0 || offset > s.size {
		return fmt.Errorf("seeking to %d of %d bytes: %w", offset, s.size, ErrIllegalCall)
	}
	if _, err := s.r.Seek(offset, io.SeekStart); err != nil {
		return s.fail(fmt.Errorf("%w: %v", ErrInvalidStream, err))
	}
	s.pos = offset
	return nil
}

// Tell implements Stream.
func (s *FileStream) Tell() int64 {
	return s.pos
}

// Avail implements Stream.
func (s *FileStream) Avail() int64 {
	if s.w != nil {
		return math.MaxInt64
	}
	return s.size - s.pos
}

// AvailN implements Stream.
func (s *FileStream) AvailN(n int64) error {
	if s.Avail() >= n {
		return nil
	}
	return ErrEndOfStream
}

// SetPutbackMark implements Stream.
func (s *FileStream) SetPutbackMark() {
	s.mark = s.pos
}

// UnsetPutbackMark implements Stream.
func (s *FileStream) UnsetPutbackMark() {
	s.mark = -1
}

// Putback implements Stream.
func (s *FileStream) Putback() error {
	if s.mark < 0 {
		return fmt.Errorf("putback without mark: %w", ErrIllegalCall)
	}
	mark := s.mark
	s.mark = -1
	return s.Seek(mark)
}

// PutbackN implements Stream.
func (s *FileStream) PutbackN(n int64) error {
	return s.Seek(s.pos - n)
}

// EndOfStream implements Stream.
func (s *FileStream) EndOfStream() bool {
	return s.r != nil && s.pos >= s.size
}

// Flush implements Stream.
func (s *FileStream) Flush() error {
	if s.w == nil {
		return nil
	}
	if err := s.w.Flush(); err != nil {
		return s.fail(fmt.Errorf("%w: %v", ErrInvalidStream, err))
	}
	return nil
}

// Err implements Stream.
func (s *FileStream) Err() error {
	return s.err
}

// ReadMode implements Stream.
func (s *FileStream) ReadMode() bool {
	return s.r != nil
}

// RandomAccess implements Stream.
func (s *FileStream) RandomAccess() bool {
	return s.r != nil
}

// Close flushes pending output and closes the underlying file, if the stream owns one.
func (s *FileStream) Close() error {
	if err := s.Flush(); err != nil {
		return err
	}
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}

// BulkDataSource returns a source that stays usable after the stream is closed when the stream
// was opened from a path.
func (s *FileStream) BulkDataSource() BulkDataSource {
	if s.path != "" && s.r != nil {
		return fileSource(s.path)
	}
	if ra, ok := s.r.(io.ReaderAt); ok {
		return ra
	}
	return nil
}

// fileSource reopens the file for every access
type fileSource string

func (p fileSource) ReadAt(b []byte, off int64) (int, error) {
	f, err := os.Open(string(p))
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return f.ReadAt(b, off)
}
