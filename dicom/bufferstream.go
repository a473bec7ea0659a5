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
	"math"
)

// BufferStream is an in-memory Stream. In read mode the client feeds it chunk by chunk with Fill
// and marks the end with SetEndOfStream; readers that run out of bytes get ErrNeedMoreData and
// resume after the next Fill. In write mode it holds at most capacity bytes until they are
// drained; writers that run out of room get ErrBufferFull and resume after the next Drain.
type BufferStream struct {
	buf []byte
	// read cursor within buf
	off int
	// stream position of buf[0]
	base int64
	mark int64

	eos      bool
	write    bool
	capacity int
	err      error
}

// NewBufferStream returns an empty read mode BufferStream awaiting Fill.
func NewBufferStream() *BufferStream {
	return &BufferStream{mark: -1}
}

// NewBufferStreamFromBytes returns a read mode BufferStream holding b, with the end of stream
// already set.
func NewBufferStreamFromBytes(b []byte) *BufferStream {
	return &BufferStream{buf: b, mark: -1, eos: true}
}

// NewOutputBufferStream returns a write mode BufferStream. A capacity of 0 is unbounded.
func NewOutputBufferStream(capacity int) *BufferStream {
	return &BufferStream{write: true, capacity: capacity, mark: -1}
}

// Fill appends p to the bytes available for reading.
func (s *BufferStream) Fill(p []byte) error {
	if s.write {
		return s.fail(ErrWrongStreamMode)
	}
	if s.eos {
		return fmt.Errorf("filling after end of stream: %w", ErrIllegalCall)
	}

	// drop consumed bytes that can no longer be put back
	keep := s.off
	if s.mark >= 0 && int(s.mark-s.base) < keep {
		keep = int(s.mark - s.base)
	}
	if keep > 0 {
		n := copy(s.buf, s.buf[keep:])
		s.buf = s.buf[:n]
		s.off -= keep
		s.base += int64(keep)
	}
	s.buf = append(s.buf, p...)

	if s.err == ErrNeedMoreData {
		s.err = nil
	}
	return nil
}

// SetEndOfStream declares that no more bytes will be filled in.
func (s *BufferStream) SetEndOfStream() {
	s.eos = true
}

// Drain returns and removes the bytes written so far.
func (s *BufferStream) Drain() []byte {
	out := s.buf
	s.base += int64(len(out))
	s.buf = nil
	if s.err == ErrBufferFull {
		s.err = nil
	}
	return out
}

// Bytes returns the bytes written so far, or the unread bytes in read mode, without consuming
// them.
func (s *BufferStream) Bytes() []byte {
	if s.write {
		return s.buf
	}
	return s.buf[s.off:]
}

func (s *BufferStream) fail(err error) error {
	if s.err == nil {
		s.err = err
	}
	return err
}

// ReadBytes implements Stream.
func (s *BufferStream) ReadBytes(p []byte) (int, error) {
	if s.write {
		return 0, s.fail(ErrWrongStreamMode)
	}
	n := copy(p, s.buf[s.off:])
	s.off += n
	if n == 0 && len(p) > 0 {
		if s.eos {
			s.err = ErrEndOfStream
			return 0, ErrEndOfStream
		}
		return 0, s.fail(ErrNeedMoreData)
	}
	return n, nil
}

// WriteBytes implements Stream.
func (s *BufferStream) WriteBytes(p []byte) (int, error) {
	if !s.write {
		return 0, s.fail(ErrWrongStreamMode)
	}
	n := len(p)
	if free := s.Avail(); int64(n) > free {
		n = int(free)
	}
	s.buf = append(s.buf, p[:n]...)
	if n < len(p) {
		return n, s.fail(ErrBufferFull)
	}
	return n, nil
}

// Seek implements Stream. A BufferStream can only seek within the bytes it still holds.
func (s *BufferStream) Seek(offset int64) error {
	if s.write {
		return s.fail(ErrWrongStreamMode)
	}
	if offset < s.base || offset > s.base+int64(len(s.buf)) {
		return fmt.Errorf("seeking to %d outside of buffered bytes: %w", offset, ErrIllegalCall)
	}
	s.off = int(offset - s.base)
	return nil
}

// Tell implements Stream.
func (s *BufferStream) Tell() int64 {
	if s.write {
		return s.base + int64(len(s.buf))
	}
	return s.base + int64(s.off)
}

// Avail implements Stream.
func (s *BufferStream) Avail() int64 {
	if s.write {
		if s.capacity <= 0 {
			return math.MaxInt64
		}
		return int64(s.capacity - len(s.buf))
	}
	return int64(len(s.buf) - s.off)
}

// AvailN implements Stream.
func (s *BufferStream) AvailN(n int64) error {
	switch {
	case s.Avail() >= n:
		return nil
	case s.write:
		return ErrBufferFull
	case s.eos:
		return ErrEndOfStream
	}
	return ErrNeedMoreData
}

// SetPutbackMark implements Stream.
func (s *BufferStream) SetPutbackMark() {
	s.mark = s.Tell()
}

// UnsetPutbackMark implements Stream.
func (s *BufferStream) UnsetPutbackMark() {
	s.mark = -1
}

// Putback implements Stream.
func (s *BufferStream) Putback() error {
	if s.mark < 0 {
		return fmt.Errorf("putback without mark: %w", ErrIllegalCall)
	}
	mark := s.mark
	s.mark = -1
	return s.Seek(mark)
}

// PutbackN implements Stream.
func (s *BufferStream) PutbackN(n int64) error {
	return s.Seek(s.Tell() - n)
}

// EndOfStream implements Stream.
func (s *BufferStream) EndOfStream() bool {
	return !s.write && s.eos && s.off >= len(s.buf)
}

// Flush implements Stream.
func (s *BufferStream) Flush() error {
	return nil
}

// Err implements Stream.
func (s *BufferStream) Err() error {
	return s.err
}

// ReadMode implements Stream.
func (s *BufferStream) ReadMode() bool {
	return !s.write
}

// RandomAccess implements Stream.
func (s *BufferStream) RandomAccess() bool {
	return false
}
