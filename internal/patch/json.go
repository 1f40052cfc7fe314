package patch

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/buger/jsonparser"
)

// ErrNotObject is returned when a partial update is not a JSON object.
var ErrNotObject = errors.New("partial update must be a JSON object")

// ParseObject decodes a JSON object into an Object, keeping the member order
// of the document. null values become Unset, nested objects become nested
// Objects, numbers are kept as json.Number.
func ParseObject(data []byte) (Object, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return nil, ErrNotObject
	}
	// jsonparser skips over some malformed input; reject it up front.
	if !json.Valid(data) {
		return nil, fmt.Errorf("%w: malformed JSON", ErrNotObject)
	}
	return parseObject(data)
}

func parseObject(data []byte) (Object, error) {
	obj := Object{}

	err := jsonparser.ObjectEach(data, func(key, value []byte, dataType jsonparser.ValueType, _ int) error {
		v, err := parseValue(value, dataType)
		if err != nil {
			return fmt.Errorf("field %q: %w", key, err)
		}
		obj = append(obj, Member{Key: string(key), Value: v})
		return nil
	})
	if err != nil {
		return nil, err
	}

	return obj, nil
}

func parseValue(value []byte, dataType jsonparser.ValueType) (any, error) {
	switch dataType {
	case jsonparser.Object:
		return parseObject(value)
	case jsonparser.Null:
		return Unset, nil
	case jsonparser.String:
		return jsonparser.ParseString(value)
	case jsonparser.Boolean:
		return jsonparser.ParseBoolean(value)
	case jsonparser.Number:
		return json.Number(string(value)), nil
	case jsonparser.Array:
		dec := json.NewDecoder(bytes.NewReader(value))
		dec.UseNumber()
		var arr []any
		if err := dec.Decode(&arr); err != nil {
			return nil, err
		}
		return arr, nil
	default:
		return nil, fmt.Errorf("unsupported JSON value type %v", dataType)
	}
}
