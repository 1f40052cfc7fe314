package service

import "github.com/oklog/ulid/v2"

// IDGenerator produces document ids.
type IDGenerator interface {
	NewID() string
}

// ULIDGenerator produces 26-character, URL-safe, time-ordered ids.
type ULIDGenerator struct{}

// NewID returns a new ULID.
func (ULIDGenerator) NewID() string {
	return ulid.Make().String()
}

// ValidID reports whether id has the format produced by ULIDGenerator.
func ValidID(id string) bool {
	_, err := ulid.ParseStrict(id)
	return err == nil
}
