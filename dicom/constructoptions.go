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

// GroupLengthMode selects how group length elements (gggg,0000) are handled on write.
type GroupLengthMode int

const (
	// GroupLengthNoChange leaves group length elements as they are.
	GroupLengthNoChange GroupLengthMode = iota
	// GroupLengthWith removes all group length elements and adds a correct one to every group.
	GroupLengthWith
	// GroupLengthWithout removes all group length elements.
	GroupLengthWithout
	// GroupLengthRecalc updates the value of existing group length elements.
	GroupLengthRecalc
)

// PaddingMode selects how the trailing padding element (FFFC,FFFC) is handled on write.
type PaddingMode int

const (
	// PaddingNoChange leaves padding elements as they are.
	PaddingNoChange PaddingMode = iota
	// PaddingWith replaces padding elements so that data sets and items end on a multiple of the
	// padding length.
	PaddingWith
	// PaddingWithout removes all padding elements.
	PaddingWithout
)

// writeContext carries the write options through the tree
type writeContext struct {
	enc         LengthEncoding
	groupLength GroupLengthMode
	padding     PaddingMode
	padlen      uint32
	subPadlen   uint32
}

func newWriteContext(opts ...WriteOption) *writeContext {
	ctx := &writeContext{}
	for _, opt := range opts {
		opt.apply(ctx)
	}
	return ctx
}

// WriteOption configures how data sets and files are written.
type WriteOption struct {
	apply func(*writeContext)
}

// ExplicitLengths ensures all sequences and sequence items are written with explicit length. This
// is the default. Sequences longer than a 32-bit length are written with undefined length anyway.
var ExplicitLengths = WriteOption{func(ctx *writeContext) {
	ctx.enc = ExplicitLengthEncoding
}}

// UndefinedLengths ensures all sequences and sequence items are written with undefined length
// followed by a delimitation item.
var UndefinedLengths = WriteOption{func(ctx *writeContext) {
	ctx.enc = UndefinedLengthEncoding
}}

// WithGroupLength adds a group length element with the correct value to every group.
var WithGroupLength = WriteOption{func(ctx *writeContext) {
	ctx.groupLength = GroupLengthWith
}}

// WithoutGroupLength removes all group length elements.
var WithoutGroupLength = WriteOption{func(ctx *writeContext) {
	ctx.groupLength = GroupLengthWithout
}}

// RecalcGroupLength updates existing group length elements.
var RecalcGroupLength = WriteOption{func(ctx *writeContext) {
	ctx.groupLength = GroupLengthRecalc
}}

// WithoutPadding removes all trailing padding elements.
var WithoutPadding = WriteOption{func(ctx *writeContext) {
	ctx.padding = PaddingWithout
}}

// WithPadding pads the data set to a multiple of padlen bytes and every item to a multiple of
// subPadlen bytes with a trailing padding element. Both lengths must be even; 0 disables the
// respective padding.
func WithPadding(padlen, subPadlen uint32) WriteOption {
	return WriteOption{func(ctx *writeContext) {
		ctx.padding = PaddingWith
		ctx.padlen = padlen
		ctx.subPadlen = subPadlen
	}}
}
