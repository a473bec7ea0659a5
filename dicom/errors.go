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

import "errors"

// Structural errors describe malformed or inconsistent encodings.
var (
	// ErrInvalidTag is returned when a tag appears where it is not allowed, e.g. a data element
	// where a sequence item was expected.
	ErrInvalidTag = errors.New("invalid tag")
	// ErrInvalidVR is recorded when an explicit VR code is not a known value representation.
	ErrInvalidVR = errors.New("invalid value representation")
	// ErrDoubledTag is returned when a tag is inserted into a data set that already holds it.
	ErrDoubledTag = errors.New("doubled tag")
	// ErrUnexpectedDelimitation is returned for a delimitation item that does not close the
	// enclosing container.
	ErrUnexpectedDelimitation = errors.New("unexpected delimitation item")
	// ErrInvalidLength is returned for value lengths that cannot be honoured, such as undefined
	// length on an element that is not a sequence or encapsulated pixel data.
	ErrInvalidLength = errors.New("invalid value length")
	// ErrInvalidOffsetTable is returned when a basic offset table cannot be built or used.
	ErrInvalidOffsetTable = errors.New("invalid basic offset table")
)

// Stream errors. ErrNeedMoreData and ErrBufferFull are not failures: they ask the caller to feed
// or drain the stream and call again.
var (
	ErrEndOfStream     = errors.New("end of stream")
	ErrInvalidStream   = errors.New("invalid stream")
	ErrWrongStreamMode = errors.New("wrong stream mode")
	ErrBufferFull      = errors.New("stream buffer full")
	ErrNeedMoreData    = errors.New("need more data")
)

// Semantic errors.
var (
	ErrTagNotFound = errors.New("tag not found")
	ErrIllegalCall = errors.New("illegal call")
	// ErrNotLoaded is returned by value accessors of elements whose value has not been loaded
	// from its source yet.
	ErrNotLoaded = errors.New("value not loaded")
	// ErrUnsupportedCoding is returned when no codec can perform a requested representation change.
	ErrUnsupportedCoding = errors.New("unsupported coding")
)

// isSuspended is true for the stream conditions that suspend a transfer instead of failing it.
func isSuspended(err error) bool {
	return errors.Is(err, ErrNeedMoreData) || errors.Is(err, ErrBufferFull)
}

// isStreamError is true for errors that stop consumption of the stream.
func isStreamError(err error) bool {
	return isSuspended(err) ||
		errors.Is(err, ErrEndOfStream) ||
		errors.Is(err, ErrInvalidStream) ||
		errors.Is(err, ErrWrongStreamMode)
}
