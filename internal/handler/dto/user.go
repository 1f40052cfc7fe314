// Package dto provides Data Transfer Objects for API requests and responses.
package dto

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/semifinals/users/internal/patch"
)

// ValidationError reports a request that failed decoding or validation.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// Field names accepted in user bodies.
const (
	FieldUsername = "username"
	FieldVerified = "verified"
	FieldRegion   = "region"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// CreateUserRequest represents the request body for creating a user.
type CreateUserRequest struct {
	Username *string `json:"username" validate:"required"`
	Verified *bool   `json:"verified" validate:"required"`
	Region   *string `json:"region,omitempty"`
}

// DecodeCreateUser decodes and validates a create body. Unknown fields,
// including a client supplied id, are rejected.
func DecodeCreateUser(r io.Reader) (*CreateUserRequest, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()

	var req CreateUserRequest
	if err := dec.Decode(&req); err != nil {
		return nil, decodeError(err)
	}
	if dec.More() {
		return nil, invalid("request body must contain a single JSON object")
	}

	if err := validate.Struct(req); err != nil {
		return nil, validationError(err)
	}

	return &req, nil
}

// DecodeUpdateUser decodes an update body into patch members in document
// order. A null region removes the region; username and verified cannot be
// removed. The last occurrence of a repeated key wins.
func DecodeUpdateUser(r io.Reader) (patch.Object, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read request body: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, invalid("request body is required")
	}

	obj, err := patch.ParseObject(data)
	if err != nil {
		return nil, invalid("request body must be a JSON object")
	}

	var changes patch.Object
	seen := make(map[string]bool, len(obj))
	for _, key := range obj.Keys() {
		if seen[key] {
			continue
		}
		seen[key] = true
		value, _ := obj.Get(key)

		switch key {
		case FieldUsername:
			if _, ok := value.(string); !ok {
				return nil, invalid("%s must be a string", key)
			}
		case FieldVerified:
			if _, ok := value.(bool); !ok {
				return nil, invalid("%s must be a boolean value", key)
			}
		case FieldRegion:
			if _, ok := value.(string); !ok && value != patch.Unset {
				return nil, invalid("%s must be a string or null", key)
			}
		default:
			return nil, invalid("property %s should not exist", key)
		}

		changes = append(changes, patch.Member{Key: key, Value: value})
	}

	return changes, nil
}

// idParam validates path ids.
type idParam struct {
	ID string `json:"id" validate:"required,max=255,excludesall=/\\?#"`
}

// ValidateID checks a user id taken from the request path.
func ValidateID(id string) error {
	if err := validate.Struct(idParam{ID: id}); err != nil {
		return validationError(err)
	}
	return nil
}

func decodeError(err error) error {
	var typeErr *json.UnmarshalTypeError
	var syntaxErr *json.SyntaxError
	var maxErr *http.MaxBytesError

	switch {
	case errors.As(err, &maxErr):
		return err
	case errors.As(err, &typeErr) && typeErr.Field == "":
		return invalid("request body must be a JSON object")
	case errors.As(err, &typeErr):
		return invalid("%s must be a %s", typeErr.Field, jsonKind(typeErr.Type))
	case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF):
		return invalid("request body is not valid JSON")
	case errors.Is(err, io.EOF):
		return invalid("request body is required")
	case strings.HasPrefix(err.Error(), "json: unknown field "):
		field := strings.Trim(strings.TrimPrefix(err.Error(), "json: unknown field "), `"`)
		return invalid("property %s should not exist", field)
	default:
		return invalid("invalid request body: %v", err)
	}
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return invalid("%v", err)
	}

	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return invalid("%s is required", fe.Field())
	case "max":
		return invalid("%s must be at most %s characters", fe.Field(), fe.Param())
	case "excludesall":
		return invalid("%s must not contain any of %s", fe.Field(), fe.Param())
	default:
		return invalid("%s failed %s validation", fe.Field(), fe.Tag())
	}
}

func jsonKind(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Bool:
		return "boolean value"
	case reflect.String:
		return "string"
	default:
		return t.Kind().String()
	}
}
