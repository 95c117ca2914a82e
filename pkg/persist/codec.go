package persist

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formstate/pkg/tree"
)

// Codec serialises state trees to strings.
type Codec interface {
	Name() string
	Encode(root *tree.Node) (string, error)
	Decode(raw string) (*tree.Node, error)
}

// JSONCodec stores trees as compact JSON.
type JSONCodec struct{}

func (JSONCodec) Name() string { return "json" }

func (JSONCodec) Encode(root *tree.Node) (string, error) {
	raw, err := json.Marshal(root)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func (JSONCodec) Decode(raw string) (*tree.Node, error) {
	return tree.Decode([]byte(raw))
}

// YAMLCodec stores trees as YAML documents.
type YAMLCodec struct{}

func (YAMLCodec) Name() string { return "yaml" }

func (YAMLCodec) Encode(root *tree.Node) (string, error) {
	raw, err := yaml.Marshal(root)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func (YAMLCodec) Decode(raw string) (*tree.Node, error) {
	var node *tree.Node
	if err := yaml.Unmarshal([]byte(raw), &node); err != nil {
		return nil, err
	}
	if node == nil {
		return tree.Null(), nil
	}
	return node, nil
}

// CodecByName returns the codec registered under name ("json" or "yaml").
func CodecByName(name string) (Codec, error) {
	switch name {
	case "", "json":
		return JSONCodec{}, nil
	case "yaml", "yml":
		return YAMLCodec{}, nil
	default:
		return nil, fmt.Errorf("persist: unknown codec %q", name)
	}
}
