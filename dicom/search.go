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

import "fmt"

// SearchMode selects where a search starts.
type SearchMode int

const (
	// SearchFromHere searches the whole tree below the node Search is called on. The stack is
	// cleared first.
	SearchFromHere SearchMode = iota
	// SearchFromStackTop searches the subtree below the top of the stack.
	SearchFromStackTop
	// SearchAfterStackTop continues a depth-first traversal after the top of the stack, e.g. to
	// find the next occurrence of a tag.
	SearchAfterStackTop
)

func (m SearchMode) String() string {
	switch m {
	case SearchFromHere:
		return "from here"
	case SearchFromStackTop:
		return "from stack top"
	case SearchAfterStackTop:
		return "after stack top"
	}
	return fmt.Sprintf("SearchMode(%d)", int(m))
}

// Search looks for the first node with the given tag in depth-first pre-order. On success the
// stack holds the path from a child of d down to the match, with the match on top. Without
// intoSub only one level of the tree is searched. If no node matches, Search returns
// ErrTagNotFound and leaves the stack as it was.
func (d *DataSet) Search(tag DataElementTag, stack *Stack, mode SearchMode, intoSub bool) error {
	saved := stack.Path()
	var found bool
	switch mode {
	case SearchFromHere:
		stack.Clear()
		found = find(d, tag, stack, intoSub)
	case SearchFromStackTop:
		start := stack.Top()
		if start == nil {
			start = d
		}
		found = find(start, tag, stack, intoSub)
	case SearchAfterStackTop:
		for {
			if err := nextObject(d, stack, intoSub); err != nil {
				break
			}
			if stack.Top().Tag() == tag {
				found = true
				break
			}
		}
	default:
		return fmt.Errorf("search mode %v: %w", mode, ErrIllegalCall)
	}
	if !found {
		stack.nodes = saved
		return fmt.Errorf("%v: %w", tag, ErrTagNotFound)
	}
	return nil
}

// NextObject advances stack to the next node of the tree in depth-first pre-order, starting with
// the first child of d when the stack is empty. Without intoSub it moves to the next sibling of
// the top only. At the end of the traversal it returns ErrTagNotFound.
func (d *DataSet) NextObject(stack *Stack, intoSub bool) error {
	return nextObject(d, stack, intoSub)
}

func find(n Node, tag DataElementTag, stack *Stack, intoSub bool) bool {
	for _, c := range n.children() {
		stack.Push(c)
		if c.Tag() == tag {
			return true
		}
		if intoSub && find(c, tag, stack, intoSub) {
			return true
		}
		stack.Pop()
	}
	return false
}

func nextObject(root Node, stack *Stack, intoSub bool) error {
	top := stack.Top()
	if top == nil {
		children := root.children()
		if len(children) == 0 {
			return fmt.Errorf("empty tree: %w", ErrTagNotFound)
		}
		stack.Push(children[0])
		return nil
	}
	if intoSub {
		if children := top.children(); len(children) > 0 {
			stack.Push(children[0])
			return nil
		}
	}
	for stack.Len() > 0 {
		n := stack.Pop()
		parent := stack.Top()
		if parent == nil {
			parent = root
		}
		if next := nextSibling(parent, n); next != nil {
			stack.Push(next)
			return nil
		}
		if !intoSub {
			break
		}
	}
	return fmt.Errorf("end of tree: %w", ErrTagNotFound)
}

func nextSibling(parent, n Node) Node {
	children := parent.children()
	for i, c := range children {
		if c == n {
			if i+1 < len(children) {
				return children[i+1]
			}
			return nil
		}
	}
	return nil
}

// walk calls fn for n and every node below it in depth-first pre-order.
func walk(n Node, fn func(Node) error) error {
	if err := fn(n); err != nil {
		return err
	}
	for _, c := range n.children() {
		if err := walk(c, fn); err != nil {
			return err
		}
	}
	return nil
}
