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
	"testing"

	"github.com/GoogleCloudPlatform/go-dicom-toolkit/dicom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImageInfoFromDataSet(t *testing.T) {
	info, err := ImageInfoFromDataSet(imageDataSet(t, 3))
	require.NoError(t, err)
	assert.Equal(t, ImageInfo{
		Rows: 2, Columns: 2, SamplesPerPixel: 1, BitsAllocated: 16, BitsStored: 16, HighBit: 15,
		NumberOfFrames: 3, PhotometricInterpretation: "MONOCHROME2",
	}, info)
	assert.Equal(t, 8, info.FrameSize())
	assert.Equal(t, 24, info.PixelDataSize())
}

func TestImageInfoDefaults(t *testing.T) {
	ds := dicom.NewDataSet()
	require.NoError(t, ds.PutUint16(dicom.RowsTag, 3))
	require.NoError(t, ds.PutUint16(dicom.ColumnsTag, 3))
	require.NoError(t, ds.PutUint16(dicom.BitsAllocatedTag, 8))

	info, err := ImageInfoFromDataSet(ds)
	require.NoError(t, err)
	assert.Equal(t, ImageInfo{
		Rows: 3, Columns: 3, SamplesPerPixel: 1, BitsAllocated: 8, BitsStored: 8, HighBit: 7,
		NumberOfFrames: 1,
	}, info)
	assert.Equal(t, 9, info.FrameSize())
	assert.Equal(t, 10, info.PixelDataSize())
}

func TestImageInfoErrors(t *testing.T) {
	testCases := []struct {
		name   string
		modify func(*dicom.DataSet)
		err    error
	}{
		{"no rows", func(ds *dicom.DataSet) { ds.Remove(dicom.RowsTag) }, dicom.ErrTagNotFound},
		{"no bits allocated", func(ds *dicom.DataSet) { ds.Remove(dicom.BitsAllocatedTag) }, dicom.ErrTagNotFound},
		{"bits stored exceed bits allocated", func(ds *dicom.DataSet) { _ = ds.PutUint16(dicom.BitsStoredTag, 17) }, dicom.ErrIllegalCall},
		{"zero columns", func(ds *dicom.DataSet) { _ = ds.PutUint16(dicom.ColumnsTag, 0) }, dicom.ErrIllegalCall},
		{"zero frames", func(ds *dicom.DataSet) { _ = ds.PutString(dicom.NumberOfFramesTag, "0") }, dicom.ErrIllegalCall},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ds := imageDataSet(t, 1)
			tc.modify(ds)
			if _, err := ImageInfoFromDataSet(ds); !errors.Is(err, tc.err) {
				t.Fatalf("ImageInfoFromDataSet(_) => %v, want %v", err, tc.err)
			}
		})
	}
}

func TestFrameSizeOfBitPackedImage(t *testing.T) {
	info := ImageInfo{Rows: 3, Columns: 3, SamplesPerPixel: 1, BitsAllocated: 1, NumberOfFrames: 2}
	assert.Equal(t, 2, info.FrameSize())
	assert.Equal(t, 4, info.PixelDataSize())
}
