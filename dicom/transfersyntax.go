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
	"encoding/binary"
	"fmt"
)

// list of transfer syntaxes obtained from
// http://dicom.nema.org/medical/dicom/current/output/html/part06.html#chapter_A
const (
	// ImplicitVRLittleEndianUID is the Implicit VR Little Endian UID
	ImplicitVRLittleEndianUID = "1.2.840.10008.1.2"
	// ExplicitVRLittleEndianUID is the Explicit VR Little Endian UID
	ExplicitVRLittleEndianUID = "1.2.840.10008.1.2.1"
	// ExplicitVRBigEndianUID is the Explicit VR Big Endian UID
	ExplicitVRBigEndianUID = "1.2.840.10008.1.2.2"
	// DeflatedExplicitVRLittleEndianUID is the Deflated Explicit VR Little Endian UID
	DeflatedExplicitVRLittleEndianUID = "1.2.840.10008.1.2.1.99"
	// JPEGBaselineUID is the JPEG Baseline (Process 1) transfer syntax UID
	JPEGBaselineUID = "1.2.840.10008.1.2.4.50"
	// JPEGExtendedUID is the JPEG Extended (Process 2 & 4) transfer syntax UID
	JPEGExtendedUID = "1.2.840.10008.1.2.4.51"
	// JPEGLosslessUID is the JPEG Lossless, Non-Hierarchical (Process 14) transfer syntax UID
	JPEGLosslessUID = "1.2.840.10008.1.2.4.57"
	// JPEGLosslessSV1UID is the JPEG Lossless, First-Order Prediction (Process 14, Selection
	// Value 1) transfer syntax UID
	JPEGLosslessSV1UID = "1.2.840.10008.1.2.4.70"
	// JPEGLSLosslessUID is the JPEG-LS Lossless transfer syntax UID
	JPEGLSLosslessUID = "1.2.840.10008.1.2.4.80"
	// JPEGLSNearLosslessUID is the JPEG-LS Lossy (Near-Lossless) transfer syntax UID
	JPEGLSNearLosslessUID = "1.2.840.10008.1.2.4.81"
	// JPEG2000LosslessUID is the JPEG 2000 Image Compression (Lossless Only) transfer syntax UID
	JPEG2000LosslessUID = "1.2.840.10008.1.2.4.90"
	// JPEG2000UID is the JPEG 2000 Image Compression transfer syntax UID
	JPEG2000UID = "1.2.840.10008.1.2.4.91"
	// MPEG2UID is the MPEG2 Main Profile @ Main Level transfer syntax UID
	MPEG2UID = "1.2.840.10008.1.2.4.100"
	// RLELosslessUID is the RLE Lossless transfer syntax UID
	RLELosslessUID = "1.2.840.10008.1.2.5"
)

const (
	vrSize  = 2
	tagSize = 4
)

// TransferSyntax describes how a data set is encoded: byte order, whether VRs are explicit, and
// whether pixel data is encapsulated or the whole data set deflated.
type TransferSyntax struct {
	UID  string
	Name string

	ByteOrder    binary.ByteOrder
	ExplicitVR   bool
	Encapsulated bool
	Deflated     bool
	Lossy        bool
}

// Known transfer syntaxes.
var (
	ImplicitVRLittleEndian = &TransferSyntax{
		UID: ImplicitVRLittleEndianUID, Name: "Implicit VR Little Endian",
		ByteOrder: binary.LittleEndian,
	}
	ExplicitVRLittleEndian = &TransferSyntax{
		UID: ExplicitVRLittleEndianUID, Name: "Explicit VR Little Endian",
		ByteOrder: binary.LittleEndian, ExplicitVR: true,
	}
	ExplicitVRBigEndian = &TransferSyntax{
		UID: ExplicitVRBigEndianUID, Name: "Explicit VR Big Endian",
		ByteOrder: binary.BigEndian, ExplicitVR: true,
	}
	DeflatedExplicitVRLittleEndian = &TransferSyntax{
		UID: DeflatedExplicitVRLittleEndianUID, Name: "Deflated Explicit VR Little Endian",
		ByteOrder: binary.LittleEndian, ExplicitVR: true, Deflated: true,
	}
	JPEGBaseline          = encapsulated(JPEGBaselineUID, "JPEG Baseline", true)
	JPEGExtended          = encapsulated(JPEGExtendedUID, "JPEG Extended", true)
	JPEGLossless          = encapsulated(JPEGLosslessUID, "JPEG Lossless, Non-Hierarchical", false)
	JPEGLosslessSV1       = encapsulated(JPEGLosslessSV1UID, "JPEG Lossless, Selection Value 1", false)
	JPEGLSLossless        = encapsulated(JPEGLSLosslessUID, "JPEG-LS Lossless", false)
	JPEGLSNearLossless    = encapsulated(JPEGLSNearLosslessUID, "JPEG-LS Near-Lossless", true)
	JPEG2000Lossless      = encapsulated(JPEG2000LosslessUID, "JPEG 2000 Lossless Only", false)
	JPEG2000              = encapsulated(JPEG2000UID, "JPEG 2000", true)
	MPEG2                 = encapsulated(MPEG2UID, "MPEG2 Main Profile @ Main Level", true)
	RLELossless           = encapsulated(RLELosslessUID, "RLE Lossless", false)
	knownTransferSyntaxes = []*TransferSyntax{
		ImplicitVRLittleEndian, ExplicitVRLittleEndian, ExplicitVRBigEndian,
		DeflatedExplicitVRLittleEndian, JPEGBaseline, JPEGExtended, JPEGLossless, JPEGLosslessSV1,
		JPEGLSLossless, JPEGLSNearLossless, JPEG2000Lossless, JPEG2000, MPEG2, RLELossless,
	}
)

func encapsulated(uid, name string, lossy bool) *TransferSyntax {
	return &TransferSyntax{
		UID: uid, Name: name, ByteOrder: binary.LittleEndian, ExplicitVR: true,
		Encapsulated: true, Lossy: lossy,
	}
}

// LookupTransferSyntax returns the known transfer syntax with the given UID.
func LookupTransferSyntax(uid string) (*TransferSyntax, error) {
	for _, ts := range knownTransferSyntaxes {
		if ts.UID == uid {
			return ts, nil
		}
	}
	return nil, fmt.Errorf("unknown transfer syntax uid %q: %w", uid, ErrIllegalCall)
}

// LookupTransferSyntaxByName returns the known transfer syntax with the given name.
func LookupTransferSyntaxByName(name string) (*TransferSyntax, error) {
	for _, ts := range knownTransferSyntaxes {
		if ts.Name == name {
			return ts, nil
		}
	}
	return nil, fmt.Errorf("unknown transfer syntax name %q: %w", name, ErrIllegalCall)
}

// lookupTransferSyntaxOrDefault is used by readers that must keep going on unknown syntaxes.
func lookupTransferSyntaxOrDefault(uid string) *TransferSyntax {
	if ts, err := LookupTransferSyntax(uid); err == nil {
		return ts
	}

	// any other syntax should be explicit VR little endian according to PS3.5 A.4
	// http://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_A.4
	return &TransferSyntax{
		UID: uid, Name: uid, ByteOrder: binary.LittleEndian, ExplicitVR: true, Encapsulated: true,
	}
}

// String returns the name of the transfer syntax.
func (ts *TransferSyntax) String() string {
	return ts.Name
}

// IsBigEndian is true for big endian syntaxes.
func (ts *TransferSyntax) IsBigEndian() bool {
	return ts.ByteOrder == binary.BigEndian
}

// has32BitLength is true if elements of vr carry a 32 bit length field in this syntax.
func (ts *TransferSyntax) has32BitLength(vr *VR) bool {
	// Implicit syntaxes always use 32 bit lengths. For explicit VR, lengths can be stored in a 32
	// bit field or a 16 bit field depending on the VR type. The 2 cases are defined at the link:
	// http://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_7.1.2
	return !ts.ExplicitVR || vr.Has32BitLength()
}

// HeaderSize returns the size in bytes of the tag, VR and length fields of an element with the
// given VR.
func (ts *TransferSyntax) HeaderSize(vr *VR) uint32 {
	if !ts.ExplicitVR {
		return tagSize + 4
	}
	if vr.Has32BitLength() {
		return tagSize + vrSize + 2 /*reserved*/ + 4 /*32-bit length*/
	}
	return tagSize + vrSize + 2 /*16-bit length*/
}

// headerVR returns the VR written for a value of valueLength bytes. Ambiguous VRs fall back to
// their concrete default and short VRs whose value does not fit a 16-bit length become UN.
func (ts *TransferSyntax) headerVR(vr *VR, valueLength uint64) *VR {
	vr = vr.concrete()
	if ts.ExplicitVR && !vr.Has32BitLength() && valueLength > 0xFFFF {
		return UNVR
	}
	return vr
}
