// Package docstore provides container-scoped access to a partitioned
// document database.
//
// A container is identified by a name and a partition key path and is
// created on first use. Documents travel as raw JSON. Three backends share
// the same semantics: Azure Cosmos DB, PostgreSQL (JSONB tables) and an
// in-memory store for development and tests.
package docstore

import (
	"context"
	"errors"

	"github.com/semifinals/users/internal/patch"
)

// Store errors.
var (
	ErrNotFound             = errors.New("document not found")
	ErrConflict             = errors.New("document already exists")
	ErrPreconditionFailed   = errors.New("patch condition not met")
	ErrInvalidPatch         = errors.New("invalid patch")
	ErrInvalidDocument      = errors.New("invalid document")
	ErrPartitionKeyMismatch = errors.New("container exists with a different partition key path")
)

// Store opens containers in one logical database.
type Store interface {
	// EnsureContainer returns the named container, creating the database
	// and the container when they do not exist yet. Repeated calls with the
	// same arguments are safe.
	EnsureContainer(ctx context.Context, name, partitionKeyPath string) (Container, error)

	// Ping checks connectivity to the backing database.
	Ping(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}

// Container is a partitioned collection of JSON documents.
type Container interface {
	Name() string
	PartitionKeyPath() string

	// GetItem returns the document, or found == false when there is none.
	GetItem(ctx context.Context, id, partitionKey string) (doc []byte, found bool, err error)

	// CreateItem persists doc and returns it as stored. doc must carry an
	// "id" field and the partition key value. Returns ErrConflict when the
	// id is already taken.
	CreateItem(ctx context.Context, partitionKey string, doc []byte) ([]byte, error)

	// PatchItem applies ops atomically and returns the updated document.
	// Returns ErrNotFound when the document does not exist and
	// ErrPreconditionFailed when cond is set and does not hold.
	PatchItem(ctx context.Context, id, partitionKey string, ops []patch.Operation, cond Condition) ([]byte, error)

	// DeleteItem reports whether a document was deleted.
	DeleteItem(ctx context.Context, id, partitionKey string) (bool, error)
}
