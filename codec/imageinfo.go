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
	"fmt"

	"github.com/GoogleCloudPlatform/go-dicom-toolkit/dicom"
)

// ImageInfo is the image pixel description of a data set, see
// http://dicom.nema.org/medical/dicom/current/output/html/part03.html#sect_C.7.6.3
type ImageInfo struct {
	Rows                      int
	Columns                   int
	SamplesPerPixel           int
	BitsAllocated             int
	BitsStored                int
	HighBit                   int
	PixelRepresentation       int
	PlanarConfiguration       int
	NumberOfFrames            int
	PhotometricInterpretation string
}

// ImageInfoFromDataSet reads the image pixel description from ds. Rows, Columns and Bits
// Allocated are required; the other attributes default to a single frame, single sample,
// unsigned image with all allocated bits stored.
func ImageInfoFromDataSet(ds *dicom.DataSet) (ImageInfo, error) {
	var info ImageInfo
	required := []struct {
		tag dicom.DataElementTag
		v   *int
	}{
		{dicom.RowsTag, &info.Rows},
		{dicom.ColumnsTag, &info.Columns},
		{dicom.BitsAllocatedTag, &info.BitsAllocated},
	}
	for _, r := range required {
		v, err := ds.FindInt(r.tag)
		if err != nil {
			return ImageInfo{}, fmt.Errorf("image pixel module: %w", err)
		}
		*r.v = v
	}

	optional := []struct {
		tag dicom.DataElementTag
		v   *int
		def int
	}{
		{dicom.SamplesPerPixelTag, &info.SamplesPerPixel, 1},
		{dicom.BitsStoredTag, &info.BitsStored, info.BitsAllocated},
		{dicom.PixelRepresentationTag, &info.PixelRepresentation, 0},
		{dicom.PlanarConfigurationTag, &info.PlanarConfiguration, 0},
		{dicom.NumberOfFramesTag, &info.NumberOfFrames, 1},
	}
	for _, o := range optional {
		v, err := ds.FindInt(o.tag)
		switch {
		case errors.Is(err, dicom.ErrTagNotFound):
			v = o.def
		case err != nil:
			return ImageInfo{}, fmt.Errorf("image pixel module: %w", err)
		}
		*o.v = v
	}

	info.HighBit = info.BitsStored - 1
	if v, err := ds.FindInt(dicom.HighBitTag); err == nil {
		info.HighBit = v
	}
	if s, err := ds.FindString(dicom.PhotometricInterpretationTag); err == nil {
		info.PhotometricInterpretation = s
	}
	if err := info.validate(); err != nil {
		return ImageInfo{}, err
	}
	return info, nil
}

func (info ImageInfo) validate() error {
	switch {
	case info.Rows <= 0 || info.Columns <= 0:
		return fmt.Errorf("image size %dx%d: %w", info.Columns, info.Rows, dicom.ErrIllegalCall)
	case info.BitsAllocated <= 0 || info.BitsStored <= 0 || info.BitsStored > info.BitsAllocated:
		return fmt.Errorf("%d of %d bits stored: %w", info.BitsStored, info.BitsAllocated, dicom.ErrIllegalCall)
	case info.SamplesPerPixel <= 0 || info.NumberOfFrames <= 0:
		return fmt.Errorf("%d samples, %d frames: %w", info.SamplesPerPixel, info.NumberOfFrames, dicom.ErrIllegalCall)
	}
	return nil
}

// FrameSize returns the number of bytes of one uncompressed frame.
func (info ImageInfo) FrameSize() int {
	bits := info.Rows * info.Columns * info.SamplesPerPixel * info.BitsAllocated
	return (bits + 7) / 8
}

// PixelDataSize returns the number of bytes of all uncompressed frames, padded to even length.
func (info ImageInfo) PixelDataSize() int {
	n := info.FrameSize() * info.NumberOfFrames
	return n + n%2
}
