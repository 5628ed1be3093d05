// Package statetree compares and projects JSON-like state snapshots.
package statetree

import (
	"encoding/json"
	"fmt"
	"reflect"
)

// Tree is the generic form of a canonical snapshot: objects are
// map[string]any, sequences are []any, leaves are string, float64, bool or nil.
type Tree = map[string]any

// Encode converts a typed snapshot into a Tree through its JSON encoding and
// also returns the encoded bytes.
func Encode(v any) (Tree, []byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, nil, fmt.Errorf("encode snapshot: %w", err)
	}
	var tree Tree
	if err := json.Unmarshal(raw, &tree); err != nil {
		return nil, nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return tree, raw, nil
}

// FromValue is Encode without the encoded bytes.
func FromValue(v any) (Tree, error) {
	tree, _, err := Encode(v)
	return tree, err
}

// Decode reads a tree (or any part of one) into a typed value. Fields absent
// from a projection are left at their zero values.
func Decode[T any](v any) (T, error) {
	var out T
	raw, err := json.Marshal(v)
	if err != nil {
		return out, fmt.Errorf("encode projection: %w", err)
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("decode projection: %w", err)
	}
	return out, nil
}

// Clone deep-copies objects and sequences. Leaves are immutable and shared.
func Clone(v any) any {
	switch val := v.(type) {
	case map[string]any:
		if val == nil {
			return map[string]any(nil)
		}
		out := make(map[string]any, len(val))
		for k, child := range val {
			out[k] = Clone(child)
		}
		return out
	case []any:
		if val == nil {
			return []any(nil)
		}
		out := make([]any, len(val))
		for i, child := range val {
			out[i] = Clone(child)
		}
		return out
	default:
		return v
	}
}

// CloneTree is Clone for a whole snapshot.
func CloneTree(t Tree) Tree {
	out, _ := Clone(t).(map[string]any)
	return out
}

// Equal is deep structural equality.
func Equal(a, b any) bool {
	return reflect.DeepEqual(a, b)
}
