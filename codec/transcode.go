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
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/GoogleCloudPlatform/go-dicom-toolkit/dicom"
	"github.com/google/uuid"
)

// uidRoot is the root for UIDs derived from a UUID, see
// http://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_B.2
const uidRoot = "2.25."

// NewUID returns a new globally unique UID derived from a random UUID.
func NewUID() string {
	u := uuid.New()
	return uidRoot + new(big.Int).SetBytes(u[:]).String()
}

// ChangeTransferSyntax converts the pixel data of ds from one transfer syntax to another using the
// codecs of reg. Pixel data nested in sequence items, such as icon images, is converted as well.
// Data sets without pixel data and changes between native syntaxes need no codec.
// When a codec reports a lossy or otherwise material change, ds is updated accordingly: Image
// Type becomes DERIVED, Lossy Image Compression is set and a new SOP Instance UID is generated
// that refers back to the original instance in Source Image Sequence.
func ChangeTransferSyntax(reg *Registry, ds *dicom.DataSet, from, to *dicom.TransferSyntax, rep RepresentationParameter) error {
	if from.UID == to.UID || (!from.Encapsulated && !to.Encapsulated) {
		return nil
	}

	var changes EncodeResult
	if err := convertTree(reg, ds, from, to, rep, &changes); err != nil {
		return err
	}
	if changes.Lossy {
		if err := markLossy(ds, &changes); err != nil {
			return err
		}
	}
	if changes.NewInstance || changes.Lossy {
		uid, err := newInstance(ds)
		if err != nil {
			return err
		}
		reg.logger.Info().Str("uid", uid).Msg("created new SOP instance")
	}
	return nil
}

// convertTree converts the pixel data of the items of d before its own and collects the changes
// the codecs report. Ratio and method come from the outermost pixel data.
func convertTree(reg *Registry, d *dicom.DataSet, from, to *dicom.TransferSyntax, rep RepresentationParameter, changes *EncodeResult) error {
	for _, n := range d.Elements() {
		seq, ok := n.(*dicom.Sequence)
		if !ok {
			continue
		}
		for _, item := range seq.Items() {
			if err := convertTree(reg, item, from, to, rep, changes); err != nil {
				return err
			}
		}
	}

	res, err := convertPixelData(reg, d, from, to, rep)
	if err != nil || res == nil {
		return err
	}
	changes.NewInstance = changes.NewInstance || res.NewInstance
	changes.Lossy = changes.Lossy || res.Lossy
	if res.Ratio > 0 || res.Method != "" {
		changes.Ratio, changes.Method = res.Ratio, res.Method
	}
	return nil
}

// convertPixelData converts the pixel data of d. The result is nil when d has no pixel data or
// the pixel data was decoded to the native representation.
func convertPixelData(reg *Registry, d *dicom.DataSet, from, to *dicom.TransferSyntax, rep RepresentationParameter) (*EncodeResult, error) {
	n := d.Get(dicom.PixelDataTag)
	if n == nil {
		return nil, nil
	}

	var (
		res *EncodeResult
		err error
	)
	switch {
	case !to.Encapsulated:
		ps, ok := n.(*dicom.PixelSequence)
		if !ok {
			return nil, fmt.Errorf("pixel data is not encapsulated in %v: %w", from, dicom.ErrIllegalCall)
		}
		raw, err := reg.Decode(from, ps, d)
		if err != nil {
			return nil, err
		}
		return nil, insertRawPixels(d, raw)
	case !from.Encapsulated:
		e, ok := n.(*dicom.DataElement)
		if !ok {
			return nil, fmt.Errorf("pixel data is encapsulated in native %v: %w", from, dicom.ErrIllegalCall)
		}
		var raw []byte
		if raw, err = rawPixels(e); err != nil {
			return nil, err
		}
		res, err = reg.Encode(raw, to, rep, d)
	default:
		ps, ok := n.(*dicom.PixelSequence)
		if !ok {
			return nil, fmt.Errorf("pixel data is not encapsulated in %v: %w", from, dicom.ErrIllegalCall)
		}
		res, err = reg.Transcode(from, ps, to, rep, d)
	}
	if err != nil {
		return nil, err
	}
	if err := insertPixels(d, res); err != nil {
		return nil, err
	}
	return res, nil
}

func rawPixels(e *dicom.DataElement) ([]byte, error) {
	if err := e.Load(); err != nil {
		return nil, err
	}
	b, err := e.Bytes()
	if err != nil {
		return nil, err
	}
	if e.ByteOrder() == binary.LittleEndian {
		return b, nil
	}
	out := append([]byte(nil), b...)
	if err := dicom.SwapIfNecessary(binary.LittleEndian, e.ByteOrder(), out, e.VR().ElementWidth()); err != nil {
		return nil, err
	}
	return out, nil
}

func insertRawPixels(ds *dicom.DataSet, raw []byte) error {
	vr := dicom.OWVR
	if info, err := ImageInfoFromDataSet(ds); err == nil && info.BitsAllocated <= 8 {
		vr = dicom.OBVR
	}
	if len(raw)%2 != 0 {
		raw = append(raw, 0)
	}
	return ds.Insert(dicom.NewBytesElement(dicom.PixelDataTag, vr, raw), true)
}

func insertPixels(d *dicom.DataSet, res *EncodeResult) error {
	if res == nil || res.Pixels == nil {
		return fmt.Errorf("codec returned no pixel data: %w", dicom.ErrIllegalCall)
	}
	if res.Pixels.Tag() != dicom.PixelDataTag {
		return fmt.Errorf("codec returned %v instead of pixel data: %w", res.Pixels.Tag(), dicom.ErrInvalidTag)
	}
	return d.Insert(res.Pixels, true)
}

func markLossy(ds *dicom.DataSet, res *EncodeResult) error {
	if types, err := ds.Element(dicom.ImageTypeTag); err == nil {
		values, err := types.Strings()
		if err == nil && len(values) > 0 && values[0] != "DERIVED" {
			values[0] = "DERIVED"
			types.SetStrings(values...)
		}
	}
	if err := ds.PutString(dicom.LossyImageCompressionTag, "01"); err != nil {
		return err
	}
	if res.Ratio > 0 {
		if err := appendValue(ds, dicom.LossyImageCompressionRatioTag, fmt.Sprintf("%.5g", res.Ratio)); err != nil {
			return err
		}
	}
	if res.Method != "" {
		return appendValue(ds, dicom.LossyImageCompressionMethodTag, res.Method)
	}
	return nil
}

// appendValue adds v to the values of a multi-valued string element.
func appendValue(ds *dicom.DataSet, tag dicom.DataElementTag, v string) error {
	var values []string
	if e, err := ds.Element(tag); err == nil {
		if values, err = e.Strings(); err != nil {
			return err
		}
	}
	return ds.PutString(tag, append(values, v)...)
}

// newInstance gives ds a new SOP Instance UID and references the previous instance in Source
// Image Sequence.
func newInstance(ds *dicom.DataSet) (string, error) {
	class, _ := ds.FindString(dicom.SOPClassUIDTag)
	instance, _ := ds.FindString(dicom.SOPInstanceUIDTag)
	if class != "" && instance != "" {
		seq, err := ds.Sequence(dicom.SourceImageSequenceTag)
		if err != nil {
			seq = dicom.NewSequence(dicom.SourceImageSequenceTag)
			if err := ds.Insert(seq, true); err != nil {
				return "", err
			}
		}
		item := dicom.NewItem()
		if err := item.PutString(dicom.ReferencedSOPClassUIDTag, class); err != nil {
			return "", err
		}
		if err := item.PutString(dicom.ReferencedSOPInstanceUIDTag, instance); err != nil {
			return "", err
		}
		seq.Append(item)
	}

	uid := NewUID()
	if err := ds.PutString(dicom.SOPInstanceUIDTag, uid); err != nil {
		return "", err
	}
	return uid, nil
}
