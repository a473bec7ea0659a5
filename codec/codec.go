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
	"github.com/GoogleCloudPlatform/go-dicom-toolkit/dicom"
)

// Parameter configures a codec independently of the image being coded, e.g. the number of
// threads or the fragment size used by an encoder.
type Parameter interface {
	// Name identifies the parameter type in log messages
	Name() string
}

// RepresentationParameter describes one concrete representation within a transfer syntax, e.g.
// the quality of a lossy JPEG encoding. Codecs that have a single representation accept nil.
type RepresentationParameter interface {
	Name() string
}

// Codec converts pixel data between the native (uncompressed) representation and the
// encapsulated representation of one transfer syntax.
//
// Raw pixel data is always little endian, with frames stored one after the other. ds is the
// data set holding the pixel data; codecs read the image geometry from it (see
// ImageInfoFromDataSet) and must not modify it.
type Codec interface {
	// Decode decompresses all frames of pixels.
	Decode(from RepresentationParameter, pixels *dicom.PixelSequence, param Parameter, ds *dicom.DataSet) ([]byte, error)

	// Encode compresses raw into a new pixel sequence in the representation to.
	Encode(raw []byte, to RepresentationParameter, param Parameter, ds *dicom.DataSet) (*EncodeResult, error)

	// Transcode converts pixels from the transfer syntax from into the syntax the codec is
	// registered for without going through the raw representation. It is only called for pairs
	// CanChangeCoding accepts.
	Transcode(from *dicom.TransferSyntax, fromRep RepresentationParameter, pixels *dicom.PixelSequence, toRep RepresentationParameter, param Parameter, ds *dicom.DataSet) (*EncodeResult, error)

	// CanChangeCoding reports whether the codec converts directly from one syntax to the other.
	// It must not have side effects.
	CanChangeCoding(from, to *dicom.TransferSyntax) bool
}

// EncodeResult is the outcome of Encode and Transcode.
type EncodeResult struct {
	// Pixels is the encapsulated pixel data, offset table first
	Pixels *dicom.PixelSequence

	// NewInstance is set when the content changed materially, so that the data set needs a new
	// SOP Instance UID.
	NewInstance bool

	// Lossy is set when information was lost. Ratio is the achieved compression ratio and Method
	// the value for Lossy Image Compression Method (0028,2114), both optional.
	Lossy  bool
	Ratio  float64
	Method string
}

// RegistryEntry binds a codec to the transfer syntax it produces.
type RegistryEntry struct {
	Syntax *dicom.TransferSyntax
	Codec  Codec

	// DefaultRepresentation is used when callers do not ask for a specific representation
	DefaultRepresentation RepresentationParameter
	Parameter             Parameter
}
