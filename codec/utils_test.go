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

package codec

import (
	"errors"
	"strconv"
	"testing"

	"github.com/GoogleCloudPlatform/go-dicom-toolkit/dicom"
)

var errNoTranscode = errors.New("fake codec does not transcode")

// fragmentSize is the codec parameter of fakeCodec
type fragmentSize int

func (fragmentSize) Name() string { return "fragmentSize" }

// fakeCodec "compresses" each frame by splitting it into fragments. The lossy variant also drops
// the low nibble of every byte. transcodeFrom names a syntax it converts from directly.
type fakeCodec struct {
	syntax        *dicom.TransferSyntax
	lossy         bool
	transcodeFrom *dicom.TransferSyntax
	calls         *[]string
}

func (c fakeCodec) record(call string) {
	if c.calls != nil {
		*c.calls = append(*c.calls, c.syntax.Name+" "+call)
	}
}

func (c fakeCodec) Decode(_ RepresentationParameter, pixels *dicom.PixelSequence, _ Parameter, ds *dicom.DataSet) ([]byte, error) {
	c.record("decode")
	info, err := ImageInfoFromDataSet(ds)
	if err != nil {
		return nil, err
	}
	frames, err := pixels.Frames(info.NumberOfFrames)
	if err != nil {
		return nil, err
	}
	var raw []byte
	for _, f := range frames {
		raw = append(raw, f[:info.FrameSize()]...)
	}
	return raw, nil
}

func (c fakeCodec) Encode(raw []byte, _ RepresentationParameter, param Parameter, ds *dicom.DataSet) (*EncodeResult, error) {
	c.record("encode")
	return c.encode(raw, param, ds)
}

func (c fakeCodec) encode(raw []byte, param Parameter, ds *dicom.DataSet) (*EncodeResult, error) {
	info, err := ImageInfoFromDataSet(ds)
	if err != nil {
		return nil, err
	}
	size := 4
	if p, ok := param.(fragmentSize); ok {
		size = int(p)
	}

	ps := dicom.NewPixelSequence()
	var frameSizes []uint32
	for i := 0; i < info.NumberOfFrames; i++ {
		frame := append([]byte(nil), raw[i*info.FrameSize():(i+1)*info.FrameSize()]...)
		if c.lossy {
			for j := range frame {
				frame[j] &^= 0x0F
			}
		}
		var frameSize uint32
		for len(frame) > 0 {
			n := size
			if n > len(frame) {
				n = len(frame)
			}
			ps.AppendFragment(frame[:n])
			frameSize += 8 + uint32(n+n%2)
			frame = frame[n:]
		}
		frameSizes = append(frameSizes, frameSize)
	}
	if err := ps.SetOffsetTable(frameSizes); err != nil {
		return nil, err
	}
	res := &EncodeResult{Pixels: ps}
	if c.lossy {
		res.Lossy, res.NewInstance, res.Ratio, res.Method = true, true, 2, "ISO_10918_1"
	}
	return res, nil
}

func (c fakeCodec) Transcode(from *dicom.TransferSyntax, _ RepresentationParameter, pixels *dicom.PixelSequence, _ RepresentationParameter, param Parameter, ds *dicom.DataSet) (*EncodeResult, error) {
	c.record("transcode")
	if from != c.transcodeFrom {
		return nil, errNoTranscode
	}
	raw, err := fakeCodec{syntax: from}.Decode(nil, pixels, nil, ds)
	if err != nil {
		return nil, err
	}
	return c.encode(raw, param, ds)
}

func (c fakeCodec) CanChangeCoding(from, to *dicom.TransferSyntax) bool {
	switch {
	case to == c.syntax:
		return !from.Encapsulated || from == c.transcodeFrom
	case from == c.syntax:
		return !to.Encapsulated
	}
	return false
}

// imageDataSet returns a 2x2 16 bit image with the given number of frames.
func imageDataSet(t *testing.T, frames int) *dicom.DataSet {
	t.Helper()
	ds := dicom.NewDataSet()
	for _, e := range []*dicom.DataElement{
		dicom.NewStringElement(dicom.ImageTypeTag, dicom.CSVR, "ORIGINAL", "PRIMARY"),
		dicom.NewStringElement(dicom.SOPClassUIDTag, dicom.UIVR, "1.2.840.10008.5.1.4.1.1.7"),
		dicom.NewStringElement(dicom.SOPInstanceUIDTag, dicom.UIVR, "1.2.3.4"),
		dicom.NewUint16Element(dicom.SamplesPerPixelTag, dicom.USVR, 1),
		dicom.NewStringElement(dicom.PhotometricInterpretationTag, dicom.CSVR, "MONOCHROME2"),
		dicom.NewStringElement(dicom.NumberOfFramesTag, dicom.ISVR, strconv.Itoa(frames)),
		dicom.NewUint16Element(dicom.RowsTag, dicom.USVR, 2),
		dicom.NewUint16Element(dicom.ColumnsTag, dicom.USVR, 2),
		dicom.NewUint16Element(dicom.BitsAllocatedTag, dicom.USVR, 16),
		dicom.NewUint16Element(dicom.BitsStoredTag, dicom.USVR, 16),
		dicom.NewUint16Element(dicom.HighBitTag, dicom.USVR, 15),
		dicom.NewUint16Element(dicom.PixelRepresentationTag, dicom.USVR, 0),
		dicom.NewBytesElement(dicom.PixelDataTag, dicom.OWVR, rawPixelData(frames)),
	} {
		if err := ds.Insert(e, false); err != nil {
			t.Fatalf("Insert(%v) => %v", e.Tag(), err)
		}
	}
	return ds
}

func rawPixelData(frames int) []byte {
	raw := make([]byte, 8*frames)
	for i := range raw {
		raw[i] = byte(0x11 * (i + 1))
	}
	return raw
}
