package patch

import (
	"errors"
	"fmt"
)

// ErrPathNotFound is returned when an operation targets a field, or the
// parent of a field, that does not exist.
var ErrPathNotFound = errors.New("patch path not found")

// Apply applies ops to doc in order. Semantics follow the managed store:
// set creates or replaces a field whose parent object exists, remove fails
// when the field is missing. doc is modified in place; on error it may hold
// a partial result and must be discarded.
func Apply(doc map[string]any, ops []Operation) error {
	for _, op := range ops {
		segments, err := SplitPath(op.Path)
		if err != nil {
			return err
		}

		parent, ok := walk(doc, segments[:len(segments)-1])
		if !ok {
			return fmt.Errorf("%w: %s", ErrPathNotFound, op.Path)
		}
		field := segments[len(segments)-1]

		switch op.Op {
		case OpSet:
			parent[field] = plain(op.Value)
		case OpRemove:
			if _, exists := parent[field]; !exists {
				return fmt.Errorf("%w: %s", ErrPathNotFound, op.Path)
			}
			delete(parent, field)
		default:
			return fmt.Errorf("%w: unsupported op %q at %s", ErrInvalidPath, op.Op, op.Path)
		}
	}
	return nil
}

// Lookup returns the value at path.
func Lookup(doc map[string]any, path string) (any, bool) {
	segments, err := SplitPath(path)
	if err != nil {
		return nil, false
	}

	parent, ok := walk(doc, segments[:len(segments)-1])
	if !ok {
		return nil, false
	}
	v, ok := parent[segments[len(segments)-1]]
	return v, ok
}

func walk(doc map[string]any, segments []string) (map[string]any, bool) {
	cur := doc
	for _, s := range segments {
		next, ok := cur[s].(map[string]any)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

// plain converts Objects nested in a value into maps so the document stays
// encodable by encoding/json.
func plain(v any) any {
	switch t := v.(type) {
	case Object:
		m := make(map[string]any, len(t))
		for _, member := range t {
			m[member.Key] = plain(member.Value)
		}
		return m
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = plain(e)
		}
		return out
	default:
		return v
	}
}
