// Package fieldset parses client field-selection strings into a request tree.
//
// A selection is a list of dotted paths. Each input element may itself be a
// comma-separated list, so `Parse("a,b.c", "b.d")` and
// `Parse("a", "b.c", "b.d")` build the same tree. The last segment of every
// path is recorded as an explicitly requested name on the node reached by
// walking the preceding segments. Duplicate and overlapping paths merge
// silently.
package fieldset

import "strings"

// RequestNode is one level of a parsed field request. Names holds the
// field, fieldset or expansion names requested at this level in first-seen
// order; Children holds the subtrees of dotted continuations.
//
// A RequestNode is built once per render call and never mutated afterwards.
type RequestNode struct {
	Names    []string
	Children map[string]*RequestNode

	nameIndex map[string]struct{}
}

var emptyNode = &RequestNode{}

// NewRequestNode returns an empty request node.
func NewRequestNode() *RequestNode {
	return &RequestNode{}
}

// Parse builds a request tree from raw selection strings.
// Empty input yields a root with no explicit names (defaults only).
func Parse(values ...string) *RequestNode {
	root := NewRequestNode()
	for _, value := range values {
		for _, path := range strings.Split(value, ",") {
			path = strings.TrimSpace(path)
			if path == "" {
				continue
			}
			root.insert(strings.Split(path, "."))
		}
	}
	return root
}

func (n *RequestNode) insert(segments []string) {
	node := n
	for _, segment := range segments[:len(segments)-1] {
		node = node.childOrNew(segment)
	}
	node.addName(segments[len(segments)-1])
}

func (n *RequestNode) childOrNew(name string) *RequestNode {
	if child, ok := n.Children[name]; ok {
		return child
	}
	if n.Children == nil {
		n.Children = make(map[string]*RequestNode)
	}
	child := NewRequestNode()
	n.Children[name] = child
	return child
}

func (n *RequestNode) addName(name string) {
	if n.nameIndex == nil {
		n.nameIndex = make(map[string]struct{})
	}
	if _, ok := n.nameIndex[name]; ok {
		return
	}
	n.nameIndex[name] = struct{}{}
	n.Names = append(n.Names, name)
}

// Has reports whether name was explicitly requested at this level.
func (n *RequestNode) Has(name string) bool {
	if n == nil {
		return false
	}
	_, ok := n.nameIndex[name]
	return ok
}

// Child returns the continuation below name, or an empty node when the
// request did not descend past it. The result is never nil.
func (n *RequestNode) Child(name string) *RequestNode {
	if n == nil {
		return emptyNode
	}
	if child, ok := n.Children[name]; ok {
		return child
	}
	return emptyNode
}

// Empty reports whether the node carries no names and no children.
func (n *RequestNode) Empty() bool {
	return n == nil || (len(n.Names) == 0 && len(n.Children) == 0)
}
