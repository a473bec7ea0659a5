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
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"

	"github.com/rs/zerolog/log"
)

// maxReadChunk bounds how much memory is allocated ahead of the bytes actually read, so that a
// corrupt length field cannot trigger a huge allocation.
const maxReadChunk = 1 << 20

// DataElement models a DICOM Data Element as defined in
// http://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_3.10
//
// The value is kept as raw bytes in the byte order of the transfer syntax it was read in and is
// converted on access and on write. A value may be left unresolved by a read (see
// WithMaxReadLength and ReferenceBulkData); it then has to be loaded with Load before its
// accessors can be used.
type DataElement struct {
	nodeHeader

	value []byte
	order binary.ByteOrder

	ref    *BulkDataReference
	source BulkDataSource

	// out is the value being written, converted to the target byte order
	out []byte
}

// NewElement returns an element without value. If vr is nil it is taken from the data dictionary.
func NewElement(tag DataElementTag, vr *VR) *DataElement {
	if vr == nil {
		vr = tag.DictionaryVR()
	}
	return &DataElement{nodeHeader: nodeHeader{tag: tag, vr: vr}, order: binary.LittleEndian}
}

// NewStringElement returns an element holding the given string values.
func NewStringElement(tag DataElementTag, vr *VR, values ...string) *DataElement {
	e := NewElement(tag, vr)
	e.SetStrings(values...)
	return e
}

// NewBytesElement returns an element holding b, which is assumed to be little endian.
func NewBytesElement(tag DataElementTag, vr *VR, b []byte) *DataElement {
	e := NewElement(tag, vr)
	e.SetBytes(b, binary.LittleEndian)
	return e
}

// NewUint16Element returns an element holding the given US values.
func NewUint16Element(tag DataElementTag, vr *VR, values ...uint16) *DataElement {
	return newNumberElement(tag, vr, values)
}

// NewInt16Element returns an element holding the given SS values.
func NewInt16Element(tag DataElementTag, vr *VR, values ...int16) *DataElement {
	return newNumberElement(tag, vr, values)
}

// NewUint32Element returns an element holding the given UL values.
func NewUint32Element(tag DataElementTag, vr *VR, values ...uint32) *DataElement {
	return newNumberElement(tag, vr, values)
}

// NewInt32Element returns an element holding the given SL values.
func NewInt32Element(tag DataElementTag, vr *VR, values ...int32) *DataElement {
	return newNumberElement(tag, vr, values)
}

// NewFloat32Element returns an element holding the given FL values.
func NewFloat32Element(tag DataElementTag, vr *VR, values ...float32) *DataElement {
	return newNumberElement(tag, vr, values)
}

// NewFloat64Element returns an element holding the given FD values.
func NewFloat64Element(tag DataElementTag, vr *VR, values ...float64) *DataElement {
	return newNumberElement(tag, vr, values)
}

// NewTagElement returns an AT element holding the given tags.
func NewTagElement(tag DataElementTag, values ...DataElementTag) *DataElement {
	pairs := make([]uint16, 0, 2*len(values))
	for _, v := range values {
		pairs = append(pairs, v.GroupNumber(), v.ElementNumber())
	}
	return newNumberElement(tag, ATVR, pairs)
}

func newNumberElement(tag DataElementTag, vr *VR, data interface{}) *DataElement {
	e := NewElement(tag, vr)
	var buf bytes.Buffer
	// writing fixed size slices to a bytes.Buffer cannot fail
	_ = binary.Write(&buf, binary.LittleEndian, data)
	e.SetBytes(buf.Bytes(), binary.LittleEndian)
	return e
}

// SetBytes replaces the value of the element. order is the byte order of b.
func (e *DataElement) SetBytes(b []byte, order binary.ByteOrder) {
	e.value = b
	e.order = order
	e.ref = nil
	e.source = nil
	e.length = uint32(len(b))
}

// SetStrings replaces the value with values joined by "\" and padded to even length.
func (e *DataElement) SetStrings(values ...string) {
	b := strings.Join(values, "\\")
	if len(b)%2 != 0 {
		b += string(e.vr.padding())
	}
	e.SetBytes([]byte(b), binary.LittleEndian)
}

// IsLoaded is false while the value is only referenced in its source.
func (e *DataElement) IsLoaded() bool {
	return e.ref == nil
}

// Reference returns the location of an unresolved value, or nil once the value is loaded.
func (e *DataElement) Reference() *BulkDataReference {
	return e.ref
}

// Load reads an unresolved value from its source.
func (e *DataElement) Load() error {
	if e.ref == nil {
		return nil
	}
	if e.source == nil {
		return fmt.Errorf("loading %v: no source: %w", e.tag, ErrNotLoaded)
	}
	buf := make([]byte, e.ref.Reference.Length)
	n, err := e.source.ReadAt(buf, e.ref.Reference.Offset)
	if n != len(buf) {
		if err == nil || err == io.EOF {
			err = ErrEndOfStream
		}
		return fmt.Errorf("loading %v at offset %d: %w", e.tag, e.ref.Reference.Offset, err)
	}
	e.value = buf
	e.ref = nil
	e.source = nil
	return nil
}

// ByteOrder returns the byte order of the raw value.
func (e *DataElement) ByteOrder() binary.ByteOrder {
	return e.order
}

// Bytes returns the raw value in the element's byte order.
func (e *DataElement) Bytes() ([]byte, error) {
	if e.ref != nil {
		return nil, fmt.Errorf("%v: %w", e.tag, ErrNotLoaded)
	}
	return e.value, nil
}

// ResolveVR replaces an ambiguous or unknown VR by vr.
func (e *DataElement) ResolveVR(vr *VR) error {
	ok := false
	switch e.vr {
	case OXVR:
		ok = vr == OBVR || vr == OWVR
	case XSVR:
		ok = vr == USVR || vr == SSVR
	case LTAmbiguousVR:
		ok = vr == USVR || vr == SSVR || vr == OWVR
	case UNVR:
		ok = !vr.IsAmbiguous() && vr != NAVR
	}
	if !ok {
		return fmt.Errorf("resolving %v from %v to %v: %w", e.tag, e.vr, vr, ErrIllegalCall)
	}
	e.vr = vr
	return nil
}

// multiValued is false for the text VRs that do not use "\" as value delimiter
func (vr *VR) multiValued() bool {
	switch vr {
	case LTVR, STVR, UTVR, URVR:
		return false
	}
	return true
}

// Strings returns the values of a string element, with padding removed.
func (e *DataElement) Strings() ([]string, error) {
	if !e.vr.IsString() {
		return nil, fmt.Errorf("%v has non-string VR %v: %w", e.tag, e.vr, ErrIllegalCall)
	}
	b, err := e.Bytes()
	if err != nil {
		return nil, err
	}
	if len(b) == 0 {
		return []string{}, nil
	}
	return splitValues(string(b), e.vr.multiValued()), nil
}

// splitValues splits a string value at "\" and removes padding. Leading spaces are significant
// in LT, ST, UT and UR, which are never split.
func splitValues(s string, multiValued bool) []string {
	isPadding := func(r rune) bool {
		return unicode.IsSpace(r) || r == 0x00
	}
	if !multiValued {
		return []string{strings.TrimRightFunc(s, isPadding)}
	}
	strs := strings.Split(s, "\\")
	for i, v := range strs {
		strs[i] = strings.TrimFunc(v, isPadding)
	}
	return strs
}

// StringValue returns the first value of a string element.
func (e *DataElement) StringValue() (string, error) {
	strs, err := e.Strings()
	if err != nil {
		return "", err
	}
	if len(strs) == 0 {
		return "", nil
	}
	return strs[0], nil
}

func (e *DataElement) decodeNumbers(width int, data func(n int) interface{}) (interface{}, error) {
	if e.vr.IsString() || e.vr == SQVR {
		return nil, fmt.Errorf("%v has non-binary VR %v: %w", e.tag, e.vr, ErrIllegalCall)
	}
	b, err := e.Bytes()
	if err != nil {
		return nil, err
	}
	if len(b)%width != 0 {
		return nil, fmt.Errorf("%v: %d bytes are not a multiple of %d: %w", e.tag, len(b), width, ErrInvalidLength)
	}
	v := data(len(b) / width)
	if err := binary.Read(bytes.NewReader(b), e.order, v); err != nil {
		return nil, fmt.Errorf("binary.Read(_, _, _) => %v", err)
	}
	return v, nil
}

// Uint16s decodes the value as unsigned 16-bit integers.
func (e *DataElement) Uint16s() ([]uint16, error) {
	v, err := e.decodeNumbers(2, func(n int) interface{} { return make([]uint16, n) })
	if err != nil {
		return nil, err
	}
	return v.([]uint16), nil
}

// Int16s decodes the value as signed 16-bit integers.
func (e *DataElement) Int16s() ([]int16, error) {
	v, err := e.decodeNumbers(2, func(n int) interface{} { return make([]int16, n) })
	if err != nil {
		return nil, err
	}
	return v.([]int16), nil
}

// Uint32s decodes the value as unsigned 32-bit integers.
func (e *DataElement) Uint32s() ([]uint32, error) {
	v, err := e.decodeNumbers(4, func(n int) interface{} { return make([]uint32, n) })
	if err != nil {
		return nil, err
	}
	return v.([]uint32), nil
}

// Int32s decodes the value as signed 32-bit integers.
func (e *DataElement) Int32s() ([]int32, error) {
	v, err := e.decodeNumbers(4, func(n int) interface{} { return make([]int32, n) })
	if err != nil {
		return nil, err
	}
	return v.([]int32), nil
}

// Uint64s decodes the value as unsigned 64-bit integers.
func (e *DataElement) Uint64s() ([]uint64, error) {
	v, err := e.decodeNumbers(8, func(n int) interface{} { return make([]uint64, n) })
	if err != nil {
		return nil, err
	}
	return v.([]uint64), nil
}

// Int64s decodes the value as signed 64-bit integers.
func (e *DataElement) Int64s() ([]int64, error) {
	v, err := e.decodeNumbers(8, func(n int) interface{} { return make([]int64, n) })
	if err != nil {
		return nil, err
	}
	return v.([]int64), nil
}

// Float32s decodes the value as 32-bit floats.
func (e *DataElement) Float32s() ([]float32, error) {
	v, err := e.decodeNumbers(4, func(n int) interface{} { return make([]float32, n) })
	if err != nil {
		return nil, err
	}
	return v.([]float32), nil
}

// Float64s decodes the value as 64-bit floats.
func (e *DataElement) Float64s() ([]float64, error) {
	v, err := e.decodeNumbers(8, func(n int) interface{} { return make([]float64, n) })
	if err != nil {
		return nil, err
	}
	return v.([]float64), nil
}

// Tags decodes the value of an AT element.
func (e *DataElement) Tags() ([]DataElementTag, error) {
	pairs, err := e.Uint16s()
	if err != nil {
		return nil, err
	}
	if len(pairs)%2 != 0 {
		return nil, fmt.Errorf("%v: odd number of tag halves: %w", e.tag, ErrInvalidLength)
	}
	tags := make([]DataElementTag, len(pairs)/2)
	for i := range tags {
		tags[i] = NewTag(pairs[2*i], pairs[2*i+1])
	}
	return tags, nil
}

// IntValue returns the first value of an integer element, whether binary (US, SS, UL, SL, SV,
// UV) or text (IS).
func (e *DataElement) IntValue() (int, error) {
	var v int
	var n int
	switch e.vr {
	case USVR, XSVR:
		vals, err := e.Uint16s()
		if err != nil {
			return 0, err
		}
		if n = len(vals); n > 0 {
			v = int(vals[0])
		}
	case SSVR:
		vals, err := e.Int16s()
		if err != nil {
			return 0, err
		}
		if n = len(vals); n > 0 {
			v = int(vals[0])
		}
	case ULVR:
		vals, err := e.Uint32s()
		if err != nil {
			return 0, err
		}
		if n = len(vals); n > 0 {
			v = int(vals[0])
		}
	case SLVR:
		vals, err := e.Int32s()
		if err != nil {
			return 0, err
		}
		if n = len(vals); n > 0 {
			v = int(vals[0])
		}
	case SVVR, UVVR:
		vals, err := e.Int64s()
		if err != nil {
			return 0, err
		}
		if n = len(vals); n > 0 {
			v = int(vals[0])
		}
	case ISVR:
		s, err := e.StringValue()
		if err != nil {
			return 0, err
		}
		if s == "" {
			break
		}
		i, err := strconv.Atoi(s)
		if err != nil {
			return 0, fmt.Errorf("%v: parsing %q: %w", e.tag, s, err)
		}
		return i, nil
	default:
		return 0, fmt.Errorf("%v has non-integer VR %v: %w", e.tag, e.vr, ErrIllegalCall)
	}
	if n == 0 {
		return 0, fmt.Errorf("%v is empty: %w", e.tag, ErrTagNotFound)
	}
	return v, nil
}

// TransferInit implements Node.
func (e *DataElement) TransferInit() {
	e.resetTransfer()
	e.out = nil
}

func (e *DataElement) valueLength(*TransferSyntax, LengthEncoding) uint64 {
	if e.ref != nil {
		return uint64(e.ref.Reference.Length)
	}
	return uint64(len(e.value))
}

// EncodedLength implements Node.
func (e *DataElement) EncodedLength(syntax *TransferSyntax, enc LengthEncoding) uint64 {
	n := e.valueLength(syntax, enc)
	return uint64(syntax.HeaderSize(syntax.headerVR(e.vr, n))) + n
}

func (e *DataElement) children() []Node {
	return nil
}

// read consumes the value field. The header was consumed by the enclosing container.
func (e *DataElement) read(s Stream, syntax *TransferSyntax, ctx *readContext) error {
	if e.state == TransferReady {
		return nil
	}
	if e.state == TransferInit {
		e.state = TransferInProgress
		e.transferred = 0
		e.order = syntax.ByteOrder
		e.value = nil
		if ctx.deferValue(e.tag, e.length) && s.RandomAccess() {
			if src := streamSource(s); src != nil {
				return e.reference(s, src)
			}
		}
	}

	for e.transferred < uint64(e.length) {
		chunk := uint64(e.length) - e.transferred
		if chunk > maxReadChunk {
			chunk = maxReadChunk
		}
		if avail := s.Avail(); avail > 0 && uint64(avail) < chunk {
			chunk = uint64(avail)
		}
		start := len(e.value)
		e.value = append(e.value, make([]byte, chunk)...)
		n, err := s.ReadBytes(e.value[start:])
		e.value = e.value[:start+n]
		e.transferred += uint64(n)
		if err != nil {
			err = fmt.Errorf("reading value of %v: %w", e.tag, err)
			if !isSuspended(err) {
				e.recordErr(err)
			}
			return err
		}
	}

	e.state = TransferReady
	if e.length%2 != 0 {
		log.Warn().Str("tag", e.tag.String()).Uint32("length", e.length).Msg("odd value length")
		if ctx.strict {
			err := fmt.Errorf("%v has odd length %d: %w", e.tag, e.length, ErrInvalidLength)
			e.recordErr(err)
			return err
		}
	}
	return nil
}

// reference skips the value and records where it can be loaded from later.
func (e *DataElement) reference(s Stream, src BulkDataSource) error {
	offset := s.Tell()
	if err := s.AvailN(int64(e.length)); err != nil {
		err = fmt.Errorf("referencing value of %v: %w", e.tag, err)
		e.recordErr(err)
		return err
	}
	if err := s.Seek(offset + int64(e.length)); err != nil {
		e.recordErr(err)
		return err
	}
	e.ref = &BulkDataReference{Reference: ByteRegion{Offset: offset, Length: int64(e.length)}}
	e.source = src
	e.transferred = uint64(e.length)
	e.state = TransferReady
	return nil
}

func (e *DataElement) write(s Stream, syntax *TransferSyntax, ctx *writeContext) error {
	if e.state == TransferReady {
		return nil
	}
	if e.state == TransferInit {
		if err := e.Load(); err != nil {
			e.recordErr(err)
			return err
		}
		var dw dcmWriter
		vr := syntax.headerVR(e.vr, uint64(len(e.value)))
		if err := dw.elementHeader(syntax, e.tag, vr, uint32(len(e.value))); err != nil {
			e.recordErr(err)
			return err
		}
		out, err := e.encodedValue(syntax)
		if err != nil {
			e.recordErr(err)
			return err
		}
		if err := dw.commit(s); err != nil {
			return err
		}
		e.out = out
		e.length = uint32(len(e.value))
		e.state = TransferInProgress
		e.transferred = 0
	}

	for e.transferred < uint64(len(e.out)) {
		n, err := s.WriteBytes(e.out[e.transferred:])
		e.transferred += uint64(n)
		if err != nil {
			return fmt.Errorf("writing value of %v: %w", e.tag, err)
		}
	}
	e.out = nil
	e.state = TransferReady
	return nil
}

// encodedValue returns the value in the byte order of syntax.
func (e *DataElement) encodedValue(syntax *TransferSyntax) ([]byte, error) {
	width := e.vr.concrete().ElementWidth()
	if width == 1 || sameOrder(syntax.ByteOrder, e.order) {
		return e.value, nil
	}
	out := append([]byte(nil), e.value...)
	if err := SwapIfNecessary(syntax.ByteOrder, e.order, out, width); err != nil {
		return nil, fmt.Errorf("converting %v to %v: %w", e.tag, syntax, err)
	}
	return out, nil
}

// String returns a one line description of the element.
func (e *DataElement) String() string {
	return fmt.Sprintf("%v %v #%d %v", e.tag, e.vr, e.valueLength(nil, ExplicitLengthEncoding), e.valueSummary())
}
