package tree

import (
	"errors"
	"fmt"

	"github.com/goliatone/go-formstate/pkg/path"
)

// ErrPathConflict indicates a write that would traverse through a scalar, or
// address a sequence with a non-numeric key.
var ErrPathConflict = errors.New("tree: path conflicts with existing value")

// PathError captures the path and the segment at which a tree operation failed.
type PathError struct {
	Op      string
	Path    path.Path
	Segment int
	Kind    Kind
	Err     error
}

func (e *PathError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("tree: %s %q at segment %d (%s): %v", e.Op, e.Path.String(), e.Segment, e.Kind, e.Err)
}

func (e *PathError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Updater computes the new value at a path from the previous one. Returning
// nil removes a map entry or nulls a sequence slot.
type Updater func(prev *Node) (*Node, error)

// Replace returns an Updater that ignores the previous value.
func Replace(next *Node) Updater {
	return func(*Node) (*Node, error) {
		return next, nil
	}
}

// MapUpdate adapts an infallible function into an Updater.
func MapUpdate(fn func(prev *Node) *Node) Updater {
	return func(prev *Node) (*Node, error) {
		return fn(prev), nil
	}
}

// Get returns the node at p, or nil when any level is absent, null, a scalar,
// or does not hold the addressed key/index. The root path returns root.
func Get(root *Node, p path.Path) *Node {
	current := root
	for i := 0; i < p.Len(); i++ {
		if current == nil {
			return nil
		}
		segment := p.At(i)
		switch current.kind {
		case KindMap:
			current = current.fields[segment.Name()]
		case KindSeq:
			index, ok := segment.Position()
			if !ok {
				return nil
			}
			current = current.At(index)
		default:
			return nil
		}
	}
	return current
}

// Has reports whether a value exists at p.
func Has(root *Node, p path.Path) bool {
	return Get(root, p) != nil
}

// Set replaces the value at p with v.
func Set(root *Node, p path.Path, v *Node) (*Node, error) {
	return Update(root, p, Replace(v))
}

// Update rebuilds every ancestor along p with the same siblings and applies
// fn to the addressed value. Missing containers are created (Seq for index
// segments, Map otherwise); writes past the end of a sequence pad it with Null.
// Deleting a value that does not exist returns root unchanged.
func Update(root *Node, p path.Path, fn Updater) (*Node, error) {
	if fn == nil {
		return root, nil
	}
	return update(root, p, 0, fn)
}

func update(current *Node, p path.Path, depth int, fn Updater) (*Node, error) {
	if depth == p.Len() {
		return fn(current)
	}
	segment := p.At(depth)

	// Containers synthesised for a missing level are dropped again when the
	// write below them turns out to be a no-op.
	untouched := current
	if current.IsNull() {
		if segment.IsIndex() {
			current = &Node{kind: KindSeq}
		} else {
			current = &Node{kind: KindMap, fields: map[string]*Node{}}
		}
	}

	switch current.kind {
	case KindMap:
		key := segment.Name()
		prev := current.fields[key]
		next, err := update(prev, p, depth+1, fn)
		if err != nil {
			return nil, err
		}
		if next == prev {
			return untouched, nil
		}
		fields := make(map[string]*Node, len(current.fields)+1)
		for k, child := range current.fields {
			fields[k] = child
		}
		if next == nil {
			delete(fields, key)
		} else {
			fields[key] = next
		}
		return &Node{kind: KindMap, fields: fields}, nil
	case KindSeq:
		index, ok := segment.Position()
		if !ok {
			return nil, &PathError{Op: "update", Path: p, Segment: depth, Kind: current.kind, Err: ErrPathConflict}
		}
		prev := current.At(index)
		next, err := update(prev, p, depth+1, fn)
		if err != nil {
			return nil, err
		}
		if next == nil && prev == nil {
			return untouched, nil
		}
		if next == nil {
			next = nullNode
		}
		if next == prev {
			return untouched, nil
		}
		size := len(current.items)
		if index >= size {
			size = index + 1
		}
		items := make([]*Node, size)
		copy(items, current.items)
		for i := len(current.items); i < size; i++ {
			items[i] = nullNode
		}
		items[index] = next
		return &Node{kind: KindSeq, items: items}, nil
	default:
		return nil, &PathError{Op: "update", Path: p, Segment: depth, Kind: current.kind, Err: ErrPathConflict}
	}
}
