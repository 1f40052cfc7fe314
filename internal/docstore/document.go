package docstore

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/semifinals/users/internal/patch"
)

// decodeDocument decodes a JSON object, keeping numbers as json.Number so
// re-encoding does not change them.
func decodeDocument(raw []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if doc == nil {
		return nil, fmt.Errorf("%w: not a JSON object", ErrInvalidDocument)
	}
	return doc, nil
}

// documentKey extracts the id and checks that the partition key value in
// the document matches partitionKey.
func documentKey(doc map[string]any, partitionKeyPath, partitionKey string) (string, error) {
	id, ok := doc["id"].(string)
	if !ok || id == "" {
		return "", fmt.Errorf("%w: missing string id", ErrInvalidDocument)
	}

	pk, ok := patch.Lookup(doc, partitionKeyPath)
	if !ok {
		return "", fmt.Errorf("%w: missing partition key %s", ErrInvalidDocument, partitionKeyPath)
	}
	if s, isString := pk.(string); !isString || s != partitionKey {
		return "", fmt.Errorf("%w: partition key %s does not match %q", ErrInvalidDocument, partitionKeyPath, partitionKey)
	}

	return id, nil
}

// applyPatch is the in-process patch used by the memory and postgres
// backends. It mirrors the managed store: the id and partition key are
// immutable and removing a missing field is an error.
func applyPatch(raw []byte, partitionKeyPath string, ops []patch.Operation, cond Condition) ([]byte, error) {
	doc, err := decodeDocument(raw)
	if err != nil {
		return nil, err
	}

	if !cond.Matches(doc) {
		return nil, ErrPreconditionFailed
	}

	for _, op := range ops {
		if op.Path == "/id" || op.Path == partitionKeyPath {
			return nil, fmt.Errorf("%w: %s is immutable", ErrInvalidPatch, op.Path)
		}
	}

	if err := patch.Apply(doc, ops); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPatch, err)
	}

	return json.Marshal(doc)
}
