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
	"errors"
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferStreamRead(t *testing.T) {
	s := NewBufferStream()
	p := make([]byte, 4)
	if _, err := s.ReadBytes(p); !errors.Is(err, ErrNeedMoreData) {
		t.Fatalf("ReadBytes(_) => %v, want %v", err, ErrNeedMoreData)
	}
	assert.Equal(t, ErrNeedMoreData, s.Err())

	require.NoError(t, s.Fill([]byte("abc")))
	assert.NoError(t, s.Err())
	assert.Equal(t, ErrNeedMoreData, s.AvailN(4))
	assert.NoError(t, s.AvailN(3))

	n, err := s.ReadBytes(p)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(p[:n]))
	assert.Equal(t, int64(3), s.Tell())

	require.NoError(t, s.Fill([]byte("de")))
	s.SetEndOfStream()
	assert.False(t, s.EndOfStream())
	n, err = s.ReadBytes(p)
	require.NoError(t, err)
	assert.Equal(t, "de", string(p[:n]))
	assert.True(t, s.EndOfStream())
	assert.Equal(t, ErrEndOfStream, s.AvailN(1))

	if _, err := s.ReadBytes(p); !errors.Is(err, ErrEndOfStream) {
		t.Fatalf("ReadBytes(_) => %v, want %v", err, ErrEndOfStream)
	}
	if err := s.Fill([]byte("f")); !errors.Is(err, ErrIllegalCall) {
		t.Fatalf("Fill(_) after end of stream => %v, want %v", err, ErrIllegalCall)
	}
}

func TestBufferStreamPutbackAcrossFill(t *testing.T) {
	s := NewBufferStream()
	require.NoError(t, s.Fill([]byte("abcd")))
	p := make([]byte, 2)
	_, err := s.ReadBytes(p)
	require.NoError(t, err)

	s.SetPutbackMark()
	_, err = s.ReadBytes(p)
	require.NoError(t, err)
	require.NoError(t, s.Fill([]byte("ef")))
	require.NoError(t, s.Putback())
	assert.Equal(t, int64(2), s.Tell())

	rest := make([]byte, 4)
	n, err := s.ReadBytes(rest)
	require.NoError(t, err)
	assert.Equal(t, "cdef", string(rest[:n]))

	require.NoError(t, s.PutbackN(3))
	assert.Equal(t, "def", string(s.Bytes()))

	if err := s.Putback(); !errors.Is(err, ErrIllegalCall) {
		t.Fatalf("Putback() without mark => %v, want %v", err, ErrIllegalCall)
	}
}

func TestBufferStreamWrite(t *testing.T) {
	s := NewOutputBufferStream(4)
	assert.False(t, s.ReadMode())
	assert.Equal(t, ErrBufferFull, s.AvailN(5))

	n, err := s.WriteBytes([]byte("abcdef"))
	if n != 4 || !errors.Is(err, ErrBufferFull) {
		t.Fatalf("WriteBytes(_) => (%d, %v), want (4, %v)", n, err, ErrBufferFull)
	}
	assert.Equal(t, "abcd", string(s.Drain()))
	assert.NoError(t, s.Err())
	assert.Equal(t, int64(4), s.Tell())

	n, err = s.WriteBytes([]byte("ef"))
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, int64(2), s.Avail())
	assert.Equal(t, "ef", string(s.Bytes()))

	if _, err := s.ReadBytes(make([]byte, 1)); !errors.Is(err, ErrWrongStreamMode) {
		t.Fatalf("ReadBytes(_) on output stream => %v, want %v", err, ErrWrongStreamMode)
	}
}

func TestFileStream(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stream.bin")
	w, err := CreateFileStream(path)
	require.NoError(t, err)
	assert.False(t, w.ReadMode())
	_, err = w.WriteBytes([]byte("0123456789"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	r, err := OpenFileStream(path)
	require.NoError(t, err)
	defer r.Close()
	assert.True(t, r.RandomAccess())
	assert.Equal(t, int64(10), r.Avail())

	p := make([]byte, 4)
	r.SetPutbackMark()
	n, err := r.ReadBytes(p)
	require.NoError(t, err)
	assert.Equal(t, "0123", string(p[:n]))
	require.NoError(t, r.Putback())
	assert.Equal(t, int64(0), r.Tell())

	require.NoError(t, r.Seek(8))
	n, err = r.ReadBytes(p)
	require.NoError(t, err)
	assert.Equal(t, "89", string(p[:n]))
	assert.True(t, r.EndOfStream())
	if _, err := r.ReadBytes(p); !errors.Is(err, ErrEndOfStream) {
		t.Fatalf("ReadBytes(_) at end => %v, want %v", err, ErrEndOfStream)
	}
	if err := r.Seek(11); !errors.Is(err, ErrIllegalCall) {
		t.Fatalf("Seek(11) => %v, want %v", err, ErrIllegalCall)
	}

	src := r.BulkDataSource()
	require.NotNil(t, src)
	n, err = src.ReadAt(p, 3)
	require.NoError(t, err)
	assert.Equal(t, "3456", string(p[:n]))
}

func TestReadSeekerStream(t *testing.T) {
	rs := bytes.NewReader([]byte("xxabcd"))
	_, err := rs.Seek(2, io.SeekStart)
	require.NoError(t, err)

	s, err := NewReadSeekerStream(rs)
	require.NoError(t, err)
	assert.Equal(t, int64(2), s.Tell())
	assert.Equal(t, int64(4), s.Avail())

	p := make([]byte, 4)
	n, err := s.ReadBytes(p)
	require.NoError(t, err)
	assert.Equal(t, "abcd", string(p[:n]))
	assert.NotNil(t, s.BulkDataSource())
}

func TestWriterStream(t *testing.T) {
	var buf bytes.Buffer
	s := NewWriterStream(&buf)
	_, err := s.WriteBytes([]byte("abc"))
	require.NoError(t, err)
	assert.Equal(t, int64(3), s.Tell())
	require.NoError(t, s.Flush())
	assert.Equal(t, "abc", buf.String())
	if _, err := s.ReadBytes(make([]byte, 1)); !errors.Is(err, ErrWrongStreamMode) {
		t.Fatalf("ReadBytes(_) on writer => %v, want %v", err, ErrWrongStreamMode)
	}
}
