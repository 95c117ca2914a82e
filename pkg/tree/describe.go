package tree

import (
	"github.com/goliatone/go-formstate/pkg/path"
)

// FieldDescriptor describes a leaf location and the kind stored there.
type FieldDescriptor struct {
	Path string `json:"path"`
	Kind string `json:"kind"`
}

// Leaf pairs a leaf location with its node.
type Leaf struct {
	Path path.Path
	Node *Node
}

// Leaves walks root depth-first in key order and returns every scalar, null,
// empty map and empty sequence location.
func Leaves(root *Node) []Leaf {
	var out []Leaf
	collectLeaves(root, path.Path{}, &out)
	return out
}

func collectLeaves(n *Node, prefix path.Path, out *[]Leaf) {
	if n == nil {
		return
	}
	switch n.kind {
	case KindMap:
		if len(n.fields) == 0 {
			*out = append(*out, Leaf{Path: prefix, Node: n})
			return
		}
		for _, key := range sortedKeys(n.fields) {
			collectLeaves(n.fields[key], prefix.Key(key), out)
		}
	case KindSeq:
		if len(n.items) == 0 {
			*out = append(*out, Leaf{Path: prefix, Node: n})
			return
		}
		for i, item := range n.items {
			collectLeaves(item, prefix.Index(i), out)
		}
	default:
		*out = append(*out, Leaf{Path: prefix, Node: n})
	}
}

// Describe returns field descriptors for every leaf of root. Sequences are
// described once with the kind of their first item, mirroring how form field
// lists present repeated inputs.
func Describe(root *Node) []FieldDescriptor {
	descriptors := describe(root, "")
	if descriptors == nil {
		return []FieldDescriptor{}
	}
	return descriptors
}

func describe(n *Node, prefix string) []FieldDescriptor {
	if n == nil {
		return nil
	}
	switch n.kind {
	case KindMap:
		if len(n.fields) == 0 {
			return []FieldDescriptor{{Path: prefix, Kind: "map"}}
		}
		var fields []FieldDescriptor
		for _, key := range sortedKeys(n.fields) {
			fields = append(fields, describe(n.fields[key], joinPath(prefix, key))...)
		}
		return fields
	case KindSeq:
		elementKind := "any"
		if len(n.items) > 0 {
			elementKind = n.items[0].Kind().String()
		}
		return []FieldDescriptor{{Path: prefix, Kind: "[]" + elementKind}}
	default:
		if prefix == "" {
			return nil
		}
		return []FieldDescriptor{{Path: prefix, Kind: n.kind.String()}}
	}
}

func joinPath(prefix, segment string) string {
	if prefix == "" {
		return segment
	}
	return prefix + path.Separator + segment
}
