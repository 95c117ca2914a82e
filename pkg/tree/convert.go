package tree

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"sort"

	"gopkg.in/yaml.v3"
)

// From converts plain Go values into a tree. Maps with string keys, slices,
// arrays, numbers, strings, booleans and nil are converted directly; any other
// value (structs, pointers to structs) goes through its JSON encoding.
func From(value any) (*Node, error) {
	switch typed := value.(type) {
	case nil:
		return nullNode, nil
	case *Node:
		if typed == nil {
			return nullNode, nil
		}
		return typed, nil
	case bool:
		return Bool(typed), nil
	case string:
		return String(typed), nil
	case json.Number:
		f, err := typed.Float64()
		if err != nil {
			return nil, fmt.Errorf("tree: number %q: %w", typed.String(), err)
		}
		return Number(f), nil
	case float64:
		return Number(typed), nil
	case float32:
		return Number(float64(typed)), nil
	case int:
		return Number(float64(typed)), nil
	case int64:
		return Number(float64(typed)), nil
	case int32:
		return Number(float64(typed)), nil
	case map[string]any:
		fields := make(map[string]*Node, len(typed))
		for key, child := range typed {
			node, err := From(child)
			if err != nil {
				return nil, fmt.Errorf("tree: field %q: %w", key, err)
			}
			fields[key] = node
		}
		return &Node{kind: KindMap, fields: fields}, nil
	case []any:
		items := make([]*Node, len(typed))
		for i, child := range typed {
			node, err := From(child)
			if err != nil {
				return nil, fmt.Errorf("tree: index %d: %w", i, err)
			}
			items[i] = node
		}
		return &Node{kind: KindSeq, items: items}, nil
	}
	return fromReflect(reflect.ValueOf(value))
}

// MustFrom is like From but panics on error.
func MustFrom(value any) *Node {
	node, err := From(value)
	if err != nil {
		panic(err)
	}
	return node
}

func fromReflect(rv reflect.Value) (*Node, error) {
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Number(float64(rv.Int())), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return Number(float64(rv.Uint())), nil
	case reflect.Float32, reflect.Float64:
		return Number(rv.Float()), nil
	case reflect.Bool:
		return Bool(rv.Bool()), nil
	case reflect.String:
		return String(rv.String()), nil
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return nullNode, nil
		}
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			break
		}
		items := make([]*Node, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			node, err := From(rv.Index(i).Interface())
			if err != nil {
				return nil, fmt.Errorf("tree: index %d: %w", i, err)
			}
			items[i] = node
		}
		return &Node{kind: KindSeq, items: items}, nil
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			break
		}
		if rv.IsNil() {
			return nullNode, nil
		}
		fields := make(map[string]*Node, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			key := iter.Key().String()
			node, err := From(iter.Value().Interface())
			if err != nil {
				return nil, fmt.Errorf("tree: field %q: %w", key, err)
			}
			fields[key] = node
		}
		return &Node{kind: KindMap, fields: fields}, nil
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return nullNode, nil
		}
	}
	return fromJSON(rv.Interface())
}

func fromJSON(value any) (*Node, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("tree: encode %T: %w", value, err)
	}
	return Decode(raw)
}

// Decode parses a JSON document into a tree.
func Decode(raw []byte) (*Node, error) {
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	var generic any
	if err := decoder.Decode(&generic); err != nil {
		return nil, fmt.Errorf("tree: decode json: %w", err)
	}
	return From(generic)
}

// MarshalJSON implements json.Marshaler.
func (n *Node) MarshalJSON() ([]byte, error) {
	if n == nil {
		return []byte("null"), nil
	}
	if n.kind == KindNumber && (math.IsNaN(n.number) || math.IsInf(n.number, 0)) {
		return nil, fmt.Errorf("tree: number %v is not representable in json", n.number)
	}
	return json.Marshal(n.Interface())
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *Node) UnmarshalJSON(raw []byte) error {
	decoded, err := Decode(raw)
	if err != nil {
		return err
	}
	*n = *decoded
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (n *Node) MarshalYAML() (any, error) {
	if n == nil {
		return nil, nil
	}
	return n.Interface(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (n *Node) UnmarshalYAML(value *yaml.Node) error {
	var generic any
	if err := value.Decode(&generic); err != nil {
		return fmt.Errorf("tree: decode yaml: %w", err)
	}
	decoded, err := From(normalizeYAML(generic))
	if err != nil {
		return err
	}
	*n = *decoded
	return nil
}

// normalizeYAML turns map[any]any produced for non-string YAML keys into
// string keyed maps.
func normalizeYAML(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		for key, child := range typed {
			typed[key] = normalizeYAML(child)
		}
		return typed
	case map[any]any:
		out := make(map[string]any, len(typed))
		for key, child := range typed {
			out[fmt.Sprint(key)] = normalizeYAML(child)
		}
		return out
	case []any:
		for i, child := range typed {
			typed[i] = normalizeYAML(child)
		}
		return typed
	default:
		return value
	}
}

// Equal reports whether a and b hold the same value. Identical pointers
// short-circuit, which makes comparisons between structurally shared trees
// cheap.
func Equal(a, b *Node) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNull:
		return true
	case KindBool:
		return a.flag == b.flag
	case KindNumber:
		return a.number == b.number
	case KindString:
		return a.text == b.text
	case KindMap:
		if len(a.fields) != len(b.fields) {
			return false
		}
		for key, child := range a.fields {
			other, ok := b.fields[key]
			if !ok || !Equal(child, other) {
				return false
			}
		}
		return true
	case KindSeq:
		if len(a.items) != len(b.items) {
			return false
		}
		for i := range a.items {
			if !Equal(a.items[i], b.items[i]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func sortedKeys(fields map[string]*Node) []string {
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
