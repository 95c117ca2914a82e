// Package tree implements the immutable state tree addressed by paths. A tree
// is built from *Node values tagged as Null, Bool, Number, String, Map or Seq;
// a nil *Node means "absent". Nodes are never mutated after construction:
// every write returns a new root that shares all untouched subtrees with the
// previous one, so pointer equality doubles as a cheap "unchanged" check.
package tree

import (
	"fmt"
	"sort"
)

// Kind tags the variant held by a Node.
type Kind uint8

const (
	// KindUndefined is reported for nil nodes.
	KindUndefined Kind = iota
	KindNull
	KindBool
	KindNumber
	KindString
	KindMap
	KindSeq
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindMap:
		return "map"
	case KindSeq:
		return "seq"
	default:
		return "undefined"
	}
}

// Node is an immutable tree value.
type Node struct {
	kind   Kind
	flag   bool
	number float64
	text   string
	fields map[string]*Node
	items  []*Node
}

var (
	nullNode  = &Node{kind: KindNull}
	trueNode  = &Node{kind: KindBool, flag: true}
	falseNode = &Node{kind: KindBool}
)

// Null returns the shared null node.
func Null() *Node {
	return nullNode
}

// Bool returns a boolean node.
func Bool(v bool) *Node {
	if v {
		return trueNode
	}
	return falseNode
}

// Number returns a numeric node.
func Number(v float64) *Node {
	return &Node{kind: KindNumber, number: v}
}

// String returns a string node.
func String(v string) *Node {
	return &Node{kind: KindString, text: v}
}

// Map returns a map node holding a copy of fields. Nil children are dropped.
func Map(fields map[string]*Node) *Node {
	out := make(map[string]*Node, len(fields))
	for key, child := range fields {
		if child == nil {
			continue
		}
		out[key] = child
	}
	return &Node{kind: KindMap, fields: out}
}

// Seq returns a sequence node holding items. Nil items are stored as Null.
func Seq(items ...*Node) *Node {
	out := make([]*Node, len(items))
	for i, item := range items {
		if item == nil {
			item = nullNode
		}
		out[i] = item
	}
	return &Node{kind: KindSeq, items: out}
}

// Kind returns the node tag; nil nodes report KindUndefined.
func (n *Node) Kind() Kind {
	if n == nil {
		return KindUndefined
	}
	return n.kind
}

// Exists reports whether n is present.
func (n *Node) Exists() bool {
	return n != nil
}

// IsNull reports whether n is absent or null.
func (n *Node) IsNull() bool {
	return n == nil || n.kind == KindNull
}

// IsContainer reports whether n is a Map or Seq.
func (n *Node) IsContainer() bool {
	return n != nil && (n.kind == KindMap || n.kind == KindSeq)
}

// BoolValue returns the boolean held by n.
func (n *Node) BoolValue() (bool, bool) {
	if n == nil || n.kind != KindBool {
		return false, false
	}
	return n.flag, true
}

// NumberValue returns the number held by n.
func (n *Node) NumberValue() (float64, bool) {
	if n == nil || n.kind != KindNumber {
		return 0, false
	}
	return n.number, true
}

// StringValue returns the string held by n.
func (n *Node) StringValue() (string, bool) {
	if n == nil || n.kind != KindString {
		return "", false
	}
	return n.text, true
}

// Len returns the number of children of a container, zero otherwise.
func (n *Node) Len() int {
	if n == nil {
		return 0
	}
	switch n.kind {
	case KindMap:
		return len(n.fields)
	case KindSeq:
		return len(n.items)
	default:
		return 0
	}
}

// Keys returns the sorted keys of a map node.
func (n *Node) Keys() []string {
	if n == nil || n.kind != KindMap {
		return nil
	}
	keys := make([]string, 0, len(n.fields))
	for key := range n.fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Field returns the child stored under key in a map node.
func (n *Node) Field(key string) *Node {
	if n == nil || n.kind != KindMap {
		return nil
	}
	return n.fields[key]
}

// At returns the item at index i in a seq node.
func (n *Node) At(i int) *Node {
	if n == nil || n.kind != KindSeq || i < 0 || i >= len(n.items) {
		return nil
	}
	return n.items[i]
}

// Items returns a copy of the items of a seq node.
func (n *Node) Items() []*Node {
	if n == nil || n.kind != KindSeq {
		return nil
	}
	return append([]*Node(nil), n.items...)
}

// Fields returns a copy of the children of a map node.
func (n *Node) Fields() map[string]*Node {
	if n == nil || n.kind != KindMap {
		return nil
	}
	out := make(map[string]*Node, len(n.fields))
	for key, child := range n.fields {
		out[key] = child
	}
	return out
}

// Interface converts n into plain Go values: map[string]any, []any, float64,
// string, bool or nil.
func (n *Node) Interface() any {
	if n == nil {
		return nil
	}
	switch n.kind {
	case KindBool:
		return n.flag
	case KindNumber:
		return n.number
	case KindString:
		return n.text
	case KindMap:
		out := make(map[string]any, len(n.fields))
		for key, child := range n.fields {
			out[key] = child.Interface()
		}
		return out
	case KindSeq:
		out := make([]any, len(n.items))
		for i, item := range n.items {
			out[i] = item.Interface()
		}
		return out
	default:
		return nil
	}
}

// String renders n as compact JSON for debugging.
func (n *Node) String() string {
	if n == nil {
		return "undefined"
	}
	raw, err := n.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("<%s: %v>", n.kind, err)
	}
	return string(raw)
}

// Append returns a new seq with items added at the end. Absent and null nodes
// are treated as empty sequences.
func (n *Node) Append(items ...*Node) *Node {
	base := n.Items()
	if n.IsNull() {
		base = nil
	}
	return Seq(append(base, items...)...)
}

// Filter returns a new seq holding the items for which keep returns true.
func (n *Node) Filter(keep func(i int, item *Node) bool) *Node {
	out := make([]*Node, 0, n.Len())
	for i, item := range n.Items() {
		if keep(i, item) {
			out = append(out, item)
		}
	}
	return Seq(out...)
}

// RemoveAt returns a new seq without the item at index i.
func (n *Node) RemoveAt(i int) *Node {
	return n.Filter(func(j int, _ *Node) bool { return j != i })
}

// With returns a new map with key set to child. Absent and null nodes are
// treated as empty maps.
func (n *Node) With(key string, child *Node) *Node {
	fields := n.Fields()
	if fields == nil {
		fields = map[string]*Node{}
	}
	fields[key] = child
	return Map(fields)
}

// Without returns a new map without key.
func (n *Node) Without(key string) *Node {
	fields := n.Fields()
	delete(fields, key)
	return Map(fields)
}
