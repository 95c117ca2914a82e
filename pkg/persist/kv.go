// Package persist stores serialised state trees behind an opaque string
// key-value contract. Backends only move strings; a Codec turns trees into
// those strings and back.
package persist

import (
	"context"
	"errors"
	"fmt"

	"github.com/goliatone/go-formstate/pkg/tree"
)

// ErrEmptyKey is returned when a backend is asked to use an empty key.
var ErrEmptyKey = errors.New("persist: key must not be empty")

// KV is a string key-value store. Load reports ok=false when the key has never
// been saved. Implementations must be safe for concurrent use.
type KV interface {
	Load(ctx context.Context, key string) (value string, ok bool, err error)
	Save(ctx context.Context, key, value string) error
}

// LoadTree reads key from kv and decodes it with codec.
func LoadTree(ctx context.Context, kv KV, codec Codec, key string) (*tree.Node, bool, error) {
	if kv == nil {
		return nil, false, fmt.Errorf("persist: kv is required")
	}
	if codec == nil {
		codec = JSONCodec{}
	}
	raw, ok, err := kv.Load(ctx, key)
	if err != nil {
		return nil, false, fmt.Errorf("persist: load %q: %w", key, err)
	}
	if !ok {
		return nil, false, nil
	}
	node, err := codec.Decode(raw)
	if err != nil {
		return nil, false, fmt.Errorf("persist: decode %q with %s: %w", key, codec.Name(), err)
	}
	return node, true, nil
}

// SaveTree encodes root with codec and writes it under key.
func SaveTree(ctx context.Context, kv KV, codec Codec, key string, root *tree.Node) error {
	if kv == nil {
		return fmt.Errorf("persist: kv is required")
	}
	if codec == nil {
		codec = JSONCodec{}
	}
	raw, err := codec.Encode(root)
	if err != nil {
		return fmt.Errorf("persist: encode %q with %s: %w", key, codec.Name(), err)
	}
	if err := kv.Save(ctx, key, raw); err != nil {
		return fmt.Errorf("persist: save %q: %w", key, err)
	}
	return nil
}
