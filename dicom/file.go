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
	"compress/flate"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"
)

const (
	preambleLength = 128
	dicomSignature = "DICM"
	// (0002,0000) UL in Explicit VR Little Endian: tag, VR, 16-bit length and 4 byte value
	groupLengthElementSize = 12

	// ImplementationClassUID identifies this toolkit in the meta information of written files.
	ImplementationClassUID = "2.25.305828488182831875890203105390285383139"
	// ImplementationVersionName is written next to ImplementationClassUID.
	ImplementationVersionName = "GODICOMTK_10"
)

type filePhase int

const (
	phasePreamble filePhase = iota
	phaseMeta
	phaseInflate
	phaseDataSet
	phaseDeflate
	phaseDone
)

// FileFormat is a DICOM file as defined in
// http://dicom.nema.org/medical/dicom/current/output/html/part10.html#chapter_7: a 128 byte
// preamble, the "DICM" signature, the File Meta Information (group 0002, always Explicit VR
// Little Endian) and the data set, encoded in the transfer syntax named by the meta information.
type FileFormat struct {
	Preamble [preambleLength]byte
	Meta     *DataSet
	DataSet  *DataSet

	syntax *TransferSyntax
	err    error

	// metaStart is the stream position of the first meta information element
	metaStart int64

	rphase filePhase
	wphase filePhase

	// compressed data set of a deflated file, collected until the end of the stream
	compressed []byte
	inflated   *BufferStream

	// deflated data set being written
	deflated    []byte
	deflatedPos int
}

// NewFileFormat returns a file holding ds and empty meta information.
func NewFileFormat(ds *DataSet) *FileFormat {
	if ds == nil {
		ds = NewDataSet()
	}
	return &FileFormat{Meta: NewDataSet(), DataSet: ds}
}

// TransferSyntax returns the syntax the data set was read in, or nil before the meta information
// has been read.
func (ff *FileFormat) TransferSyntax() *TransferSyntax {
	return ff.syntax
}

// TransferInit resets the file for a new read or write.
func (ff *FileFormat) TransferInit() {
	ff.rphase, ff.wphase = phasePreamble, phasePreamble
	ff.err = nil
	ff.compressed, ff.inflated = nil, nil
	ff.deflated, ff.deflatedPos = nil, 0
	ff.Meta.TransferInit()
	ff.DataSet.TransferInit()
}

func (ff *FileFormat) recordErr(err error) {
	if ff.err == nil {
		ff.err = err
	}
}

// ReadFile parses the file from s. Like DataSet.Read it is resumable: on ErrNeedMoreData feed s
// and call ReadFile again.
//
// Files without preamble are accepted: if the stream does not start with a preamble followed by
// "DICM", the meta information is expected at offset 0 and, if there is none, the data set is
// read in a transfer syntax guessed from its first element.
func (ff *FileFormat) ReadFile(s Stream, opts ...ReadOption) error {
	if !s.ReadMode() {
		return ErrWrongStreamMode
	}
	ctx := newReadContext(opts...)

	for {
		switch ff.rphase {
		case phasePreamble:
			if err := ff.readPreamble(s); err != nil {
				return err
			}
		case phaseMeta:
			metaCtx := *ctx
			metaCtx.stopAt = ff.endOfMeta
			if err := ff.Meta.read(s, ExplicitVRLittleEndian, &metaCtx); err != nil {
				if ff.Meta.TransferState() != TransferReady {
					return err
				}
				ff.recordErr(fmt.Errorf("reading meta information: %w", err))
			}
			if err := ff.selectSyntax(s); err != nil {
				return err
			}
		case phaseInflate:
			if err := ff.inflate(s); err != nil {
				return err
			}
		case phaseDataSet:
			in := s
			if ff.inflated != nil {
				in = ff.inflated
			}
			if err := ff.DataSet.read(in, ff.syntax, ctx); err != nil {
				if ff.DataSet.TransferState() != TransferReady {
					return err
				}
				ff.recordErr(err)
			}
			ff.rphase = phaseDone
		default:
			return ff.err
		}
	}
}

func (ff *FileFormat) startMeta(s Stream) {
	ff.metaStart = s.Tell()
	ff.rphase = phaseMeta
}

// endOfMeta is true for the first element that is not part of the meta information: an element
// of another group or, when the meta information starts with its group length, an element beyond
// the announced length.
func (ff *FileFormat) endOfMeta(tag DataElementTag, offset int64) bool {
	if tag.GroupNumber() != 0x0002 {
		return true
	}
	elements := ff.Meta.Elements()
	if len(elements) == 0 || elements[0].Tag() != FileMetaInformationGroupLengthTag {
		return false
	}
	length, err := ff.Meta.FindInt(FileMetaInformationGroupLengthTag)
	if err != nil || offset < ff.metaStart+groupLengthElementSize+int64(length) {
		return false
	}
	log.Warn().Str("tag", tag.String()).Msg("meta information element beyond group length, reading it with the data set")
	return true
}

func (ff *FileFormat) readPreamble(s Stream) error {
	err := s.AvailN(preambleLength + 4)
	if isSuspended(err) {
		return err
	}
	if err == nil {
		s.SetPutbackMark()
		b := make([]byte, preambleLength+4)
		if _, err := s.ReadBytes(b); err != nil {
			s.UnsetPutbackMark()
			return err
		}
		if string(b[preambleLength:]) == dicomSignature {
			s.UnsetPutbackMark()
			copy(ff.Preamble[:], b)
			ff.startMeta(s)
			return nil
		}
		if err := s.Putback(); err != nil {
			return err
		}
	}
	return ff.detectWithoutPreamble(s)
}

func (ff *FileFormat) detectWithoutPreamble(s Stream) error {
	if err := s.AvailN(4); err != nil {
		if isSuspended(err) {
			return err
		}
		// nothing that could hold an element
		ff.syntax = ImplicitVRLittleEndian
		ff.rphase = phaseDataSet
		return nil
	}

	s.SetPutbackMark()
	b := make([]byte, 4)
	if _, err := s.ReadBytes(b); err != nil {
		s.UnsetPutbackMark()
		return err
	}
	if string(b) == dicomSignature {
		s.UnsetPutbackMark()
		log.Debug().Msg("DICOM signature without preamble")
		ff.startMeta(s)
		return nil
	}
	if err := s.Putback(); err != nil {
		return err
	}
	if binary.LittleEndian.Uint16(b) == 0x0002 {
		log.Debug().Msg("meta information without preamble")
		ff.startMeta(s)
		return nil
	}

	syntax, err := guessSyntax(s)
	if err != nil {
		return err
	}
	log.Warn().Str("syntax", syntax.Name).Msg("no DICOM file signature, reading plain data set")
	ff.syntax = syntax
	ff.rphase = phaseDataSet
	return nil
}

// guessSyntax looks at the first element of a data set: a VR code after the tag means an
// explicit syntax, and a group that only makes sense when swapped means big endian.
func guessSyntax(s Stream) (*TransferSyntax, error) {
	if err := s.AvailN(6); err != nil {
		if isSuspended(err) {
			return nil, err
		}
		return ImplicitVRLittleEndian, nil
	}
	s.SetPutbackMark()
	b := make([]byte, 6)
	_, err := s.ReadBytes(b)
	if perr := s.Putback(); perr != nil {
		return nil, perr
	}
	if err != nil {
		return nil, err
	}
	if !isVRCode(b[4:6]) {
		return ImplicitVRLittleEndian, nil
	}
	if binary.LittleEndian.Uint16(b) > 0x00FF && binary.BigEndian.Uint16(b) <= 0x00FF {
		return ExplicitVRBigEndian, nil
	}
	return ExplicitVRLittleEndian, nil
}

func isVRCode(b []byte) bool {
	for _, c := range b {
		if c < 'A' || c > 'Z' {
			return false
		}
	}
	_, err := lookupVRByName(string(b))
	return err == nil
}

func (ff *FileFormat) selectSyntax(s Stream) error {
	uid, err := ff.Meta.FindString(TransferSyntaxUIDTag)
	switch {
	case err != nil || uid == "":
		log.Warn().Msg("no transfer syntax in meta information, guessing from data set")
		syntax, err := guessSyntax(s)
		if err != nil {
			return err
		}
		ff.syntax = syntax
	default:
		if _, err := LookupTransferSyntax(uid); err != nil {
			log.Warn().Str("uid", uid).Msg("unknown transfer syntax, assuming explicit VR little endian")
		}
		ff.syntax = lookupTransferSyntaxOrDefault(uid)
	}

	ff.rphase = phaseDataSet
	if ff.syntax.Deflated {
		ff.rphase = phaseInflate
	}
	return nil
}

// inflate collects the rest of the stream and decompresses it. Deflated data sets are raw
// deflate streams, see http://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_A.5
func (ff *FileFormat) inflate(s Stream) error {
	buf := make([]byte, 32<<10)
	for !s.EndOfStream() {
		n, err := s.ReadBytes(buf)
		ff.compressed = append(ff.compressed, buf[:n]...)
		if err != nil {
			if errors.Is(err, ErrEndOfStream) {
				break
			}
			return err
		}
	}

	data, err := io.ReadAll(flate.NewReader(bytes.NewReader(ff.compressed)))
	if err != nil {
		return fmt.Errorf("inflating data set: %w: %v", ErrInvalidStream, err)
	}
	ff.compressed = nil
	ff.inflated = NewBufferStreamFromBytes(data)
	ff.rphase = phaseDataSet
	return nil
}

// UpdateMetaInfo fills in the meta information for writing the data set in syntax: the file meta
// information version, the media storage SOP class and instance taken from the data set, the
// transfer syntax and the implementation identification. Meta elements found in the data set
// are moved to the meta information.
func (ff *FileFormat) UpdateMetaInfo(syntax *TransferSyntax) error {
	for _, n := range ff.DataSet.Elements() {
		if !n.Tag().IsMetaElement() {
			continue
		}
		ff.DataSet.Remove(n.Tag())
		if ff.Meta.Get(n.Tag()) == nil {
			if err := ff.Meta.Insert(n, false); err != nil {
				return err
			}
		}
	}

	if ff.Meta.Get(FileMetaInformationVersionTag) == nil {
		if err := ff.Meta.Insert(NewBytesElement(FileMetaInformationVersionTag, OBVR, []byte{0x00, 0x01}), false); err != nil {
			return err
		}
	}
	for _, ref := range []struct{ meta, ds DataElementTag }{
		{MediaStorageSOPClassUIDTag, SOPClassUIDTag},
		{MediaStorageSOPInstanceUIDTag, SOPInstanceUIDTag},
	} {
		if uid, err := ff.DataSet.FindString(ref.ds); err == nil && uid != "" {
			if err := ff.Meta.PutString(ref.meta, uid); err != nil {
				return err
			}
		}
	}
	if err := ff.Meta.PutString(TransferSyntaxUIDTag, syntax.UID); err != nil {
		return err
	}
	if err := ff.Meta.PutString(ImplementationClassUIDTag, ImplementationClassUID); err != nil {
		return err
	}
	return ff.Meta.PutString(ImplementationVersionNameTag, ImplementationVersionName)
}

// WriteFile encodes the file to s with the data set in syntax. The meta information is updated
// first, see UpdateMetaInfo, and always carries a correct group length. Padding requested by
// opts counts the preamble and the meta information. WriteFile is resumable like DataSet.Write.
func (ff *FileFormat) WriteFile(s Stream, syntax *TransferSyntax, opts ...WriteOption) error {
	if s.ReadMode() {
		return ErrWrongStreamMode
	}
	ctx := newWriteContext(opts...)

	for {
		switch ff.wphase {
		case phasePreamble:
			if err := ff.prepareWrite(syntax, ctx); err != nil {
				return err
			}
			var dw dcmWriter
			dw.Write(ff.Preamble[:])
			dw.WriteString(dicomSignature)
			if err := dw.commit(s); err != nil {
				return err
			}
			ff.wphase = phaseMeta
		case phaseMeta:
			if err := ff.Meta.write(s, ExplicitVRLittleEndian, &writeContext{}); err != nil {
				return err
			}
			ff.wphase = phaseDataSet
			if syntax.Deflated {
				ff.wphase = phaseDeflate
			}
		case phaseDeflate:
			if err := ff.writeDeflated(s, syntax, ctx); err != nil {
				return err
			}
			ff.wphase = phaseDone
		case phaseDataSet:
			if err := ff.DataSet.write(s, syntax, ctx); err != nil {
				return err
			}
			ff.wphase = phaseDone
		default:
			ff.syntax = syntax
			return s.Flush()
		}
	}
}

func (ff *FileFormat) prepareWrite(syntax *TransferSyntax, ctx *writeContext) error {
	if err := ff.DataSet.CheckSyntax(syntax); err != nil {
		return err
	}
	if err := ff.UpdateMetaInfo(syntax); err != nil {
		return err
	}
	if err := ff.Meta.ComputeGroupLengthAndPadding(GroupLengthWith, PaddingNoChange, ExplicitVRLittleEndian, ExplicitLengthEncoding, 0, 0, 0); err != nil {
		return err
	}
	metaLength := ff.Meta.EncodedLength(ExplicitVRLittleEndian, ExplicitLengthEncoding)
	instanceLength := clampLength(preambleLength + 4 + metaLength)
	if err := ff.DataSet.ComputeGroupLengthAndPadding(ctx.groupLength, ctx.padding, syntax, ctx.enc, ctx.padlen, ctx.subPadlen, instanceLength); err != nil {
		return err
	}
	ff.Meta.TransferInit()
	ff.DataSet.TransferInit()
	return nil
}

// writeDeflated encodes the data set in memory, compresses it and writes the compressed bytes.
func (ff *FileFormat) writeDeflated(s Stream, syntax *TransferSyntax, ctx *writeContext) error {
	if ff.deflated == nil {
		out := NewOutputBufferStream(0)
		if err := ff.DataSet.write(out, syntax, ctx); err != nil {
			return err
		}
		var buf bytes.Buffer
		zw, err := flate.NewWriter(&buf, flate.DefaultCompression)
		if err != nil {
			return err
		}
		if _, err := zw.Write(out.Drain()); err != nil {
			return fmt.Errorf("deflating data set: %w", err)
		}
		if err := zw.Close(); err != nil {
			return fmt.Errorf("deflating data set: %w", err)
		}
		ff.deflated = buf.Bytes()
		ff.deflatedPos = 0
	}

	for ff.deflatedPos < len(ff.deflated) {
		n, err := s.WriteBytes(ff.deflated[ff.deflatedPos:])
		ff.deflatedPos += n
		if err != nil {
			return err
		}
	}
	return nil
}

// LoadFile reads the DICOM file at path. Values skipped with WithMaxReadLength or
// ReferenceBulkData are loaded from path on demand.
func LoadFile(path string, opts ...ReadOption) (*FileFormat, error) {
	s, err := OpenFileStream(path)
	if err != nil {
		return nil, err
	}
	defer s.Close()

	ff := NewFileFormat(nil)
	if err := ff.ReadFile(s, opts...); err != nil {
		return ff, fmt.Errorf("reading %v: %w", path, err)
	}
	return ff, nil
}

// SaveFile writes the file to path with the data set in syntax.
func (ff *FileFormat) SaveFile(path string, syntax *TransferSyntax, opts ...WriteOption) error {
	s, err := CreateFileStream(path)
	if err != nil {
		return err
	}
	ff.TransferInit()
	if err := ff.WriteFile(s, syntax, opts...); err != nil {
		s.Close()
		return fmt.Errorf("writing %v: %w", path, err)
	}
	return s.Close()
}
