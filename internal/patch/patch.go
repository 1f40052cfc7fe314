// Package patch turns partial updates into field-level patch operations.
//
// A partial update is an ordered Object: only the fields to change are
// present, and a field set to Unset is removed from the stored document.
// Build flattens nested objects into leaf operations whose paths are
// slash-delimited, e.g. {"region": "NA"} becomes set /region "NA".
package patch

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Op is a patch operation kind.
type Op string

// Supported operations.
const (
	OpSet    Op = "set"
	OpRemove Op = "remove"
)

// Operation is a single field-level mutation.
type Operation struct {
	Op    Op     `json:"op"`
	Path  string `json:"path"`
	Value any    `json:"value"`
}

// UnsetValue is the type of Unset.
type UnsetValue struct{}

// Unset marks a field for removal. JSON null decodes to Unset.
var Unset = UnsetValue{}

// Member is one key/value pair of an Object.
type Member struct {
	Key   string
	Value any
}

// Object is an ordered mapping. Values are scalars, slices, Unset or a
// nested Object.
type Object []Member

// Get returns the value of the last member named key.
func (o Object) Get(key string) (any, bool) {
	for i := len(o) - 1; i >= 0; i-- {
		if o[i].Key == key {
			return o[i].Value, true
		}
	}
	return nil, false
}

// Keys returns member keys in order.
func (o Object) Keys() []string {
	keys := make([]string, len(o))
	for i, m := range o {
		keys[i] = m.Key
	}
	return keys
}

// FromMap converts a map into an Object. Go maps are unordered, so keys are
// sorted to keep the resulting operation order stable.
func FromMap(m map[string]any) Object {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	obj := make(Object, 0, len(keys))
	for _, k := range keys {
		obj = append(obj, Member{Key: k, Value: m[k]})
	}
	return obj
}

// Build flattens obj into patch operations, depth first, in member order.
//
// Nested objects are descended into and never produce an operation for the
// intermediate key itself; each level recurses into its own sub-object, so
// {"a": {"b": {"c": 1}}} yields exactly set /a/b/c 1. Slices are leaves and
// are set as a whole. An empty nested object yields nothing.
func Build(obj Object) []Operation {
	return build(obj, "", make([]Operation, 0, len(obj)))
}

func build(obj Object, prefix string, ops []Operation) []Operation {
	for _, m := range obj {
		path := prefix + "/" + EscapeSegment(m.Key)

		switch v := m.Value.(type) {
		case Object:
			ops = build(v, path, ops)
		case map[string]any:
			ops = build(FromMap(v), path, ops)
		case UnsetValue:
			ops = append(ops, Operation{Op: OpRemove, Path: path})
		default:
			ops = append(ops, Operation{Op: OpSet, Path: path, Value: v})
		}
	}
	return ops
}

// ErrInvalidPath is returned for paths that are not slash-prefixed.
var ErrInvalidPath = errors.New("invalid patch path")

var (
	segmentEscaper   = strings.NewReplacer("~", "~0", "/", "~1")
	segmentUnescaper = strings.NewReplacer("~1", "/", "~0", "~")
)

// EscapeSegment escapes a key for use as one path segment (RFC 6901).
func EscapeSegment(key string) string {
	return segmentEscaper.Replace(key)
}

// SplitPath splits a patch path into unescaped segments.
func SplitPath(path string) ([]string, error) {
	if !strings.HasPrefix(path, "/") || len(path) < 2 {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}

	parts := strings.Split(path[1:], "/")
	for i, p := range parts {
		parts[i] = segmentUnescaper.Replace(p)
	}
	return parts, nil
}
