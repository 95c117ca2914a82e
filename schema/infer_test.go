package schema

import (
	"encoding/json"
	"reflect"
	"testing"
	"time"

	"github.com/goliatone/go-formstate/pkg/tree"
)

type address struct {
	City string `json:"city" form:"required"`
	Zip  string `json:"zip,omitempty"`
}

type profile struct {
	Name     string    `json:"name" form:"required"`
	Age      int       `json:"age"`
	Score    float64   `json:"score"`
	Active   bool      `json:"active"`
	Joined   time.Time `json:"joined"`
	Avatar   []byte    `json:"avatar"`
	Tags     []string  `json:"tags"`
	Address  *address  `json:"address"`
	Internal string    `json:"-"`
	Draft    string    `json:"draft" form:"-"`
	secret   string
}

func TestInferStruct(t *testing.T) {
	got, err := Infer(profile{})
	if err != nil {
		t.Fatalf("infer: %v", err)
	}

	properties := got["properties"].(map[string]any)
	if _, ok := properties["Internal"]; ok {
		t.Fatalf("expected json:\"-\" field to be skipped")
	}
	if _, ok := properties["draft"]; ok {
		t.Fatalf("expected form:\"-\" field to be skipped")
	}
	if _, ok := properties["secret"]; ok {
		t.Fatalf("expected unexported field to be skipped")
	}
	if !reflect.DeepEqual(got["required"], []string{"name"}) {
		t.Fatalf("unexpected required list %v", got["required"])
	}

	want := map[string]any{
		"name":   map[string]any{"type": "string", "minLength": 1},
		"age":    map[string]any{"type": "integer"},
		"score":  map[string]any{"type": "number"},
		"active": map[string]any{"type": "boolean"},
		"joined": map[string]any{"type": "string", "format": "date-time"},
		"avatar": map[string]any{"type": "string", "format": "byte"},
		"tags":   map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
	}
	for name, schema := range want {
		if !reflect.DeepEqual(properties[name], schema) {
			t.Fatalf("property %s: want %v got %v", name, schema, properties[name])
		}
	}

	nested := properties["address"].(map[string]any)
	if !reflect.DeepEqual(nested["required"], []string{"city"}) {
		t.Fatalf("expected nil pointer struct to be described, got %v", nested)
	}
	if !reflect.DeepEqual(nested["type"], []string{"object", "null"}) {
		t.Fatalf("expected nil pointer to be nullable, got %v", nested["type"])
	}
}

func TestInferTree(t *testing.T) {
	root := tree.MustFrom(map[string]any{
		"a":       map[string]any{"b": true},
		"numbers": []any{1, 2},
		"empty":   []any{},
		"blank":   nil,
	})

	got, err := Infer(root)
	if err != nil {
		t.Fatalf("infer: %v", err)
	}
	want := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"a":       map[string]any{"type": "object", "properties": map[string]any{"b": map[string]any{"type": "boolean"}}},
			"numbers": map[string]any{"type": "array", "items": map[string]any{"type": "number"}},
			"empty":   map[string]any{"type": "array", "items": map[string]any{}},
			"blank":   map[string]any{},
		},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("want %v got %v", want, got)
	}
}

type category struct {
	Name     string     `json:"name"`
	Parent   *category  `json:"parent"`
	Children []category `json:"children"`
}

func TestInferRecursiveTypes(t *testing.T) {
	got, err := Infer(category{})
	if err != nil {
		t.Fatalf("infer: %v", err)
	}
	properties := got["properties"].(map[string]any)
	if !reflect.DeepEqual(properties["parent"], map[string]any{}) {
		t.Fatalf("expected recursive pointer to be unconstrained, got %v", properties["parent"])
	}
	want := map[string]any{"type": "array", "items": map[string]any{}}
	if !reflect.DeepEqual(properties["children"], want) {
		t.Fatalf("expected recursive slice items to be unconstrained, got %v", properties["children"])
	}
}

func TestInferRejectsUnsupported(t *testing.T) {
	if _, err := Infer(map[int]string{1: "x"}); err == nil {
		t.Fatalf("expected error for non-string map keys")
	}
	if _, err := Infer(struct{ C chan int }{}); err == nil {
		t.Fatalf("expected error for channel field")
	}
}

func TestDocumentAddsDraft(t *testing.T) {
	raw, err := Document(map[string]any{"email": "x"})
	if err != nil {
		t.Fatalf("document: %v", err)
	}
	var doc map[string]any
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if doc["$schema"] != Draft {
		t.Fatalf("expected $schema header, got %v", doc["$schema"])
	}
	if doc["type"] != "object" {
		t.Fatalf("expected object type, got %v", doc["type"])
	}
}
