package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/semifinals/users/internal/patch"
)

// MemoryStore keeps documents in process memory.
type MemoryStore struct {
	mu         sync.RWMutex
	containers map[string]*memoryContainer
}

// NewMemory creates an empty MemoryStore.
func NewMemory() *MemoryStore {
	return &MemoryStore{
		containers: make(map[string]*memoryContainer),
	}
}

// EnsureContainer returns the named container, creating it if needed.
func (s *MemoryStore) EnsureContainer(ctx context.Context, name, partitionKeyPath string) (Container, error) {
	if _, err := patch.SplitPath(partitionKeyPath); err != nil {
		return nil, fmt.Errorf("partition key path: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.containers[name]; ok {
		if c.pkPath != partitionKeyPath {
			return nil, fmt.Errorf("%w: %s has %s", ErrPartitionKeyMismatch, name, c.pkPath)
		}
		return c, nil
	}

	c := &memoryContainer{
		store:  s,
		name:   name,
		pkPath: partitionKeyPath,
		items:  make(map[itemKey][]byte),
	}
	s.containers[name] = c
	return c, nil
}

// Ping always succeeds.
func (s *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error {
	return nil
}

type itemKey struct {
	partitionKey string
	id           string
}

type memoryContainer struct {
	store  *MemoryStore
	name   string
	pkPath string
	items  map[itemKey][]byte
}

func (c *memoryContainer) Name() string             { return c.name }
func (c *memoryContainer) PartitionKeyPath() string { return c.pkPath }

func (c *memoryContainer) GetItem(ctx context.Context, id, partitionKey string) ([]byte, bool, error) {
	c.store.mu.RLock()
	defer c.store.mu.RUnlock()

	doc, ok := c.items[itemKey{partitionKey, id}]
	if !ok {
		return nil, false, nil
	}
	return clone(doc), true, nil
}

func (c *memoryContainer) CreateItem(ctx context.Context, partitionKey string, raw []byte) ([]byte, error) {
	doc, err := decodeDocument(raw)
	if err != nil {
		return nil, err
	}
	id, err := documentKey(doc, c.pkPath, partitionKey)
	if err != nil {
		return nil, err
	}
	stored, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}

	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	key := itemKey{partitionKey, id}
	if _, exists := c.items[key]; exists {
		return nil, fmt.Errorf("%w: %s", ErrConflict, id)
	}
	c.items[key] = stored
	return clone(stored), nil
}

func (c *memoryContainer) PatchItem(ctx context.Context, id, partitionKey string, ops []patch.Operation, cond Condition) ([]byte, error) {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	key := itemKey{partitionKey, id}
	current, ok := c.items[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	updated, err := applyPatch(current, c.pkPath, ops, cond)
	if err != nil {
		return nil, err
	}
	c.items[key] = updated
	return clone(updated), nil
}

func (c *memoryContainer) DeleteItem(ctx context.Context, id, partitionKey string) (bool, error) {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	key := itemKey{partitionKey, id}
	if _, ok := c.items[key]; !ok {
		return false, nil
	}
	delete(c.items, key)
	return true, nil
}

func clone(b []byte) []byte {
	return append([]byte(nil), b...)
}
