// Package schema infers JSON Schema documents from Go values and state trees,
// so a typed form definition can drive schema validation without a
// hand-written schema.
package schema

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/goliatone/go-formstate/pkg/tree"
)

// Draft is the $schema URI written by Document.
const Draft = "https://json-schema.org/draft/2020-12/schema"

// TagName is the struct tag read for form constraints. Supported options are
// "required" and "-" (skip the field):
//
//	Email string `json:"email" form:"required"`
const TagName = "form"

// Infer builds a JSON Schema object for value. Structs honour json names and
// the form tag; maps, slices and state trees are described by their contents.
// Sequences take their item schema from the first element.
func Infer(value any) (map[string]any, error) {
	if node, ok := value.(*tree.Node); ok {
		return inferNode(node), nil
	}
	b := &builder{visiting: map[reflect.Type]bool{}}
	return b.build(reflect.ValueOf(value))
}

// builder tracks the struct types on the current descent; a type met again
// below itself is described as an unconstrained schema.
type builder struct {
	visiting map[reflect.Type]bool
}

// Document infers a schema for value and encodes it as indented JSON with a
// $schema header.
func Document(value any) (string, error) {
	inferred, err := Infer(value)
	if err != nil {
		return "", err
	}
	doc := make(map[string]any, len(inferred)+1)
	for key, v := range inferred {
		doc[key] = v
	}
	doc["$schema"] = Draft
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("schema: encode: %w", err)
	}
	return string(raw), nil
}

func inferNode(n *tree.Node) map[string]any {
	switch n.Kind() {
	case tree.KindBool:
		return map[string]any{"type": "boolean"}
	case tree.KindNumber:
		return map[string]any{"type": "number"}
	case tree.KindString:
		return map[string]any{"type": "string"}
	case tree.KindMap:
		properties := map[string]any{}
		for _, key := range n.Keys() {
			properties[key] = inferNode(n.Field(key))
		}
		return map[string]any{"type": "object", "properties": properties}
	case tree.KindSeq:
		items := map[string]any{}
		if n.Len() > 0 {
			items = inferNode(n.At(0))
		}
		return map[string]any{"type": "array", "items": items}
	default:
		return map[string]any{}
	}
}

func (b *builder) build(rv reflect.Value) (map[string]any, error) {
	if !rv.IsValid() {
		return map[string]any{"type": "null"}, nil
	}

	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			child, err := b.build(reflect.Zero(rv.Type().Elem()))
			if err != nil {
				return nil, err
			}
			return nullable(child), nil
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Interface:
		if rv.IsNil() {
			return map[string]any{}, nil
		}
		return b.build(rv.Elem())
	case reflect.Bool:
		return map[string]any{"type": "boolean"}, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return map[string]any{"type": "integer"}, nil
	case reflect.Float32, reflect.Float64:
		return map[string]any{"type": "number"}, nil
	case reflect.String:
		return map[string]any{"type": "string"}, nil
	case reflect.Struct:
		if rv.Type() == reflect.TypeOf(time.Time{}) {
			return map[string]any{"type": "string", "format": "date-time"}, nil
		}
		return b.schemaForStruct(rv)
	case reflect.Map:
		return b.schemaForMap(rv)
	case reflect.Slice, reflect.Array:
		return b.schemaForSlice(rv)
	default:
		return nil, fmt.Errorf("schema: kind %s unsupported", rv.Kind())
	}
}

// nullable widens a typed schema to also accept null, which is how nil
// pointers round-trip through a state tree.
func nullable(schema map[string]any) map[string]any {
	if kind, ok := schema["type"].(string); ok && kind != "null" {
		schema["type"] = []string{kind, "null"}
	}
	return schema
}

func (b *builder) schemaForMap(rv reflect.Value) (map[string]any, error) {
	if rv.Type().Key().Kind() != reflect.String {
		return nil, fmt.Errorf("schema: map key type %s unsupported", rv.Type().Key())
	}

	keys := rv.MapKeys()
	names := make([]string, 0, len(keys))
	for _, key := range keys {
		names = append(names, key.String())
	}
	sort.Strings(names)

	properties := make(map[string]any, len(names))
	for _, name := range names {
		child, err := b.build(rv.MapIndex(reflect.ValueOf(name).Convert(rv.Type().Key())))
		if err != nil {
			return nil, err
		}
		properties[name] = child
	}
	return map[string]any{"type": "object", "properties": properties}, nil
}

func (b *builder) schemaForStruct(rv reflect.Value) (map[string]any, error) {
	rt := rv.Type()
	if b.visiting[rt] {
		return map[string]any{}, nil
	}
	b.visiting[rt] = true
	defer delete(b.visiting, rt)

	properties := map[string]any{}
	var required []string

	for i := 0; i < rv.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}

		name := field.Name
		if tag := field.Tag.Get("json"); tag != "" {
			tagName := strings.Split(tag, ",")[0]
			if tagName == "-" {
				continue
			}
			if tagName != "" {
				name = tagName
			}
		}

		constraints := strings.Split(field.Tag.Get(TagName), ",")
		if constraints[0] == "-" {
			continue
		}

		child, err := b.build(rv.Field(i))
		if err != nil {
			return nil, fmt.Errorf("schema: field %s: %w", field.Name, err)
		}
		for _, constraint := range constraints {
			if strings.TrimSpace(constraint) != "required" {
				continue
			}
			required = append(required, name)
			if child["type"] == "string" {
				child["minLength"] = 1
			}
		}
		properties[name] = child
	}

	out := map[string]any{"type": "object", "properties": properties}
	if len(required) > 0 {
		sort.Strings(required)
		out["required"] = required
	}
	return out, nil
}

func (b *builder) schemaForSlice(rv reflect.Value) (map[string]any, error) {
	if rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() == reflect.Uint8 {
		return map[string]any{"type": "string", "format": "byte"}, nil
	}

	var itemSchema map[string]any
	var err error
	if rv.Len() > 0 {
		itemSchema, err = b.build(rv.Index(0))
	} else {
		itemSchema, err = b.build(reflect.Zero(rv.Type().Elem()))
	}
	if err != nil {
		return nil, err
	}
	return map[string]any{"type": "array", "items": itemSchema}, nil
}
