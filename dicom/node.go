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

// TransferState tracks how far a node has been read or written.
type TransferState int

const (
	// TransferInit means the transfer of the node has not started.
	TransferInit TransferState = iota
	// TransferInProgress means the transfer was suspended part way, e.g. by ErrNeedMoreData.
	TransferInProgress
	// TransferReady means the node was transferred completely.
	TransferReady
)

func (s TransferState) String() string {
	switch s {
	case TransferInit:
		return "init"
	case TransferInProgress:
		return "in progress"
	case TransferReady:
		return "ready"
	}
	return "unknown"
}

// LengthEncoding selects how sequences and items are delimited when written.
type LengthEncoding int

const (
	// ExplicitLengthEncoding writes the computed length of sequences and items.
	ExplicitLengthEncoding LengthEncoding = iota
	// UndefinedLengthEncoding writes sequences and items with undefined length followed by a
	// delimitation item.
	UndefinedLengthEncoding
)

// Node is an element of the object tree: a DataElement, a DataSet (top-level or sequence item), a
// Sequence, a PixelSequence or a PixelItem.
type Node interface {
	Tag() DataElementTag
	VR() *VR
	// Length returns the length field of the node, which may be UndefinedLength.
	Length() uint32
	// Err returns the first error recorded while reading or writing the node.
	Err() error
	TransferState() TransferState
	// TransferInit resets the node, and its children, for a new read or write.
	TransferInit()
	// EncodedLength returns the number of bytes the node occupies when written in syntax,
	// including headers and delimitation items. It is never UndefinedLength.
	EncodedLength(syntax *TransferSyntax, enc LengthEncoding) uint64
	String() string

	header() *nodeHeader
	read(s Stream, syntax *TransferSyntax, ctx *readContext) error
	write(s Stream, syntax *TransferSyntax, ctx *writeContext) error
	// valueLength is the length of the value field, excluding the node's own header and delimiter
	valueLength(syntax *TransferSyntax, enc LengthEncoding) uint64
	children() []Node
}

// nodeHeader holds the state shared by all nodes.
type nodeHeader struct {
	tag    DataElementTag
	vr     *VR
	length uint32
	err    error

	state       TransferState
	transferred uint64
}

func (h *nodeHeader) Tag() DataElementTag { return h.tag }

func (h *nodeHeader) VR() *VR { return h.vr }

func (h *nodeHeader) Length() uint32 { return h.length }

func (h *nodeHeader) Err() error { return h.err }

func (h *nodeHeader) TransferState() TransferState { return h.state }

func (h *nodeHeader) header() *nodeHeader { return h }

func (h *nodeHeader) recordErr(err error) {
	if h.err == nil {
		h.err = err
	}
}

func (h *nodeHeader) resetTransfer() {
	h.state = TransferInit
	h.transferred = 0
}

// Stack is an ordered list of nodes describing a path through the tree, most recently pushed on
// top. It refers to nodes without owning them.
type Stack struct {
	nodes []Node
}

// NewStack returns an empty stack.
func NewStack() *Stack {
	return &Stack{}
}

// Push puts n on top of the stack.
func (s *Stack) Push(n Node) {
	s.nodes = append(s.nodes, n)
}

// Pop removes and returns the top node, or nil if the stack is empty.
func (s *Stack) Pop() Node {
	if len(s.nodes) == 0 {
		return nil
	}
	n := s.nodes[len(s.nodes)-1]
	s.nodes = s.nodes[:len(s.nodes)-1]
	return n
}

// Top returns the top node, or nil if the stack is empty.
func (s *Stack) Top() Node {
	return s.Elem(0)
}

// Elem returns the node i positions below the top, or nil.
func (s *Stack) Elem(i int) Node {
	if i < 0 || i >= len(s.nodes) {
		return nil
	}
	return s.nodes[len(s.nodes)-1-i]
}

// Len returns the number of nodes on the stack.
func (s *Stack) Len() int {
	return len(s.nodes)
}

// Clear removes all nodes.
func (s *Stack) Clear() {
	s.nodes = s.nodes[:0]
}

// Path returns the nodes from the bottom to the top of the stack.
func (s *Stack) Path() []Node {
	return append([]Node(nil), s.nodes...)
}

func (s *Stack) truncate(n int) {
	s.nodes = s.nodes[:n]
}
