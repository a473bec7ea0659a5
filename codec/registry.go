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
	"fmt"

	"github.com/GoogleCloudPlatform/go-dicom-toolkit/dicom"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Registry maps encapsulated transfer syntaxes to the codec producing them. It holds at most one
// entry per syntax.
type Registry struct {
	entries map[string]*RegistryEntry
	order   []string
	logger  zerolog.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger makes the registry log to l instead of the global logger.
func WithLogger(l zerolog.Logger) Option {
	return func(r *Registry) {
		r.logger = l
	}
}

// NewRegistry returns an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{entries: make(map[string]*RegistryEntry), logger: log.Logger}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds entry. Registering a syntax that already has an entry does nothing; use
// Deregister first to replace a codec.
func (r *Registry) Register(entry RegistryEntry) error {
	if entry.Syntax == nil || entry.Codec == nil {
		return fmt.Errorf("registering codec: syntax and codec are required: %w", dicom.ErrIllegalCall)
	}
	if !entry.Syntax.Encapsulated {
		return fmt.Errorf("registering codec for %v: not an encapsulated syntax: %w", entry.Syntax, dicom.ErrIllegalCall)
	}
	uid := entry.Syntax.UID
	if _, ok := r.entries[uid]; ok {
		r.logger.Debug().Str("syntax", entry.Syntax.Name).Msg("codec already registered")
		return nil
	}
	r.entries[uid] = &entry
	r.order = append(r.order, uid)
	r.logger.Debug().Str("syntax", entry.Syntax.Name).Msg("registered codec")
	return nil
}

// Deregister removes the entry for syntax and reports whether there was one.
func (r *Registry) Deregister(syntax *dicom.TransferSyntax) bool {
	if _, ok := r.entries[syntax.UID]; !ok {
		return false
	}
	delete(r.entries, syntax.UID)
	for i, uid := range r.order {
		if uid == syntax.UID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	r.logger.Debug().Str("syntax", syntax.Name).Msg("deregistered codec")
	return true
}

// Lookup returns the entry registered for syntax.
func (r *Registry) Lookup(syntax *dicom.TransferSyntax) (*RegistryEntry, bool) {
	if syntax == nil {
		return nil, false
	}
	e, ok := r.entries[syntax.UID]
	return e, ok
}

// UpdateParameter replaces the codec parameter of a registered syntax.
func (r *Registry) UpdateParameter(syntax *dicom.TransferSyntax, param Parameter) error {
	e, ok := r.Lookup(syntax)
	if !ok {
		return fmt.Errorf("no codec registered for %v: %w", syntax, dicom.ErrIllegalCall)
	}
	e.Parameter = param
	return nil
}

// Cleanup removes all entries.
func (r *Registry) Cleanup() {
	r.entries = make(map[string]*RegistryEntry)
	r.order = nil
}

// Len returns the number of registered syntaxes.
func (r *Registry) Len() int {
	return len(r.entries)
}

// Syntaxes returns the registered syntaxes in registration order.
func (r *Registry) Syntaxes() []*dicom.TransferSyntax {
	out := make([]*dicom.TransferSyntax, 0, len(r.order))
	for _, uid := range r.order {
		out = append(out, r.entries[uid].Syntax)
	}
	return out
}

// CanChangeCoding reports whether a registered codec converts directly from one syntax to the
// other. For a pair of encapsulated syntaxes false does not mean that Transcode fails: it may
// still decode with one codec and encode with another.
func (r *Registry) CanChangeCoding(from, to *dicom.TransferSyntax) bool {
	for _, uid := range r.order {
		if r.entries[uid].Codec.CanChangeCoding(from, to) {
			return true
		}
	}
	return false
}

// direct returns the first codec converting from one syntax to the other.
func (r *Registry) direct(from, to *dicom.TransferSyntax) (*RegistryEntry, bool) {
	if e, ok := r.Lookup(to); ok && e.Codec.CanChangeCoding(from, to) {
		return e, true
	}
	for _, uid := range r.order {
		if e := r.entries[uid]; e.Codec.CanChangeCoding(from, to) {
			return e, true
		}
	}
	return nil, false
}

// Decode decompresses pixels encoded in from. The codec registered for from must accept the
// conversion to Explicit VR Little Endian.
func (r *Registry) Decode(from *dicom.TransferSyntax, pixels *dicom.PixelSequence, ds *dicom.DataSet) ([]byte, error) {
	e, ok := r.Lookup(from)
	if !ok || !e.Codec.CanChangeCoding(from, dicom.ExplicitVRLittleEndian) {
		return nil, fmt.Errorf("decoding %v: %w", from, dicom.ErrUnsupportedCoding)
	}
	r.logger.Debug().Str("from", from.Name).Msg("decoding pixel data")
	raw, err := e.Codec.Decode(e.DefaultRepresentation, pixels, e.Parameter, ds)
	if err != nil {
		return nil, fmt.Errorf("decoding %v: %w", from, err)
	}
	return raw, nil
}

// Encode compresses raw pixel data into the syntax to. A nil rep selects the default
// representation of the registered codec.
func (r *Registry) Encode(raw []byte, to *dicom.TransferSyntax, rep RepresentationParameter, ds *dicom.DataSet) (*EncodeResult, error) {
	e, ok := r.Lookup(to)
	if !ok || !e.Codec.CanChangeCoding(dicom.ExplicitVRLittleEndian, to) {
		return nil, fmt.Errorf("encoding %v: %w", to, dicom.ErrUnsupportedCoding)
	}
	if rep == nil {
		rep = e.DefaultRepresentation
	}
	r.logger.Debug().Str("to", to.Name).Msg("encoding pixel data")
	res, err := e.Codec.Encode(raw, rep, e.Parameter, ds)
	if err != nil {
		return nil, fmt.Errorf("encoding %v: %w", to, err)
	}
	return res, nil
}

// Transcode converts pixels from one encapsulated syntax to another. A codec that converts
// directly is preferred; otherwise the pixels are decoded with the codec of from and encoded with
// the codec of to. Both results are equivalent for lossless codecs.
func (r *Registry) Transcode(from *dicom.TransferSyntax, pixels *dicom.PixelSequence, to *dicom.TransferSyntax, rep RepresentationParameter, ds *dicom.DataSet) (*EncodeResult, error) {
	if e, ok := r.direct(from, to); ok {
		if rep == nil {
			rep = e.DefaultRepresentation
		}
		var fromRep RepresentationParameter
		if src, ok := r.Lookup(from); ok {
			fromRep = src.DefaultRepresentation
		}
		r.logger.Debug().Str("from", from.Name).Str("to", to.Name).Msg("transcoding pixel data")
		res, err := e.Codec.Transcode(from, fromRep, pixels, rep, e.Parameter, ds)
		if err != nil {
			return nil, fmt.Errorf("transcoding %v to %v: %w", from, to, err)
		}
		return res, nil
	}

	r.logger.Debug().Str("from", from.Name).Str("to", to.Name).Msg("no direct transcoder, decoding first")
	raw, err := r.Decode(from, pixels, ds)
	if err != nil {
		return nil, err
	}
	res, err := r.Encode(raw, to, rep, ds)
	if err != nil {
		return nil, err
	}
	if from.Lossy {
		res.Lossy = true
	}
	return res, nil
}

// Default is the process-wide registry used by Register, Lookup and Cleanup.
var Default = NewRegistry()

// Register adds entry to Default.
func Register(entry RegistryEntry) error {
	return Default.Register(entry)
}

// Lookup returns the entry of Default registered for syntax.
func Lookup(syntax *dicom.TransferSyntax) (*RegistryEntry, bool) {
	return Default.Lookup(syntax)
}

// Cleanup removes all entries from Default.
func Cleanup() {
	Default.Cleanup()
}
