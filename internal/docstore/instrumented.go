package docstore

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/semifinals/users/internal/metrics"
	"github.com/semifinals/users/internal/patch"
)

// Instrument wraps store so that every container operation is timed,
// counted by outcome and logged at debug level.
func Instrument(store Store, recorder metrics.Recorder, logger *slog.Logger) Store {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &instrumentedStore{Store: store, recorder: recorder, logger: logger}
}

type instrumentedStore struct {
	Store
	recorder metrics.Recorder
	logger   *slog.Logger
}

func (s *instrumentedStore) EnsureContainer(ctx context.Context, name, partitionKeyPath string) (Container, error) {
	start := time.Now()
	c, err := s.Store.EnsureContainer(ctx, name, partitionKeyPath)
	s.observe(ctx, "ensure_container", name, "", start, outcome(err))
	if err != nil {
		return nil, err
	}
	return &instrumentedContainer{Container: c, store: s}, nil
}

func (s *instrumentedStore) observe(ctx context.Context, op, container, id string, start time.Time, result string) {
	elapsed := time.Since(start)
	s.recorder.ObserveStoreOperation(op, result, elapsed)
	s.logger.DebugContext(ctx, "docstore operation",
		"operation", op,
		"container", container,
		"id", id,
		"outcome", result,
		"duration_ms", elapsed.Milliseconds(),
	)
}

type instrumentedContainer struct {
	Container
	store *instrumentedStore
}

func (c *instrumentedContainer) GetItem(ctx context.Context, id, partitionKey string) ([]byte, bool, error) {
	start := time.Now()
	doc, found, err := c.Container.GetItem(ctx, id, partitionKey)
	result := outcome(err)
	if err == nil && !found {
		result = metrics.OutcomeNotFound
	}
	c.store.observe(ctx, "get_item", c.Name(), id, start, result)
	return doc, found, err
}

func (c *instrumentedContainer) CreateItem(ctx context.Context, partitionKey string, doc []byte) ([]byte, error) {
	start := time.Now()
	out, err := c.Container.CreateItem(ctx, partitionKey, doc)
	c.store.observe(ctx, "create_item", c.Name(), "", start, outcome(err))
	return out, err
}

func (c *instrumentedContainer) PatchItem(ctx context.Context, id, partitionKey string, ops []patch.Operation, cond Condition) ([]byte, error) {
	start := time.Now()
	out, err := c.Container.PatchItem(ctx, id, partitionKey, ops, cond)
	c.store.observe(ctx, "patch_item", c.Name(), id, start, outcome(err))
	return out, err
}

func (c *instrumentedContainer) DeleteItem(ctx context.Context, id, partitionKey string) (bool, error) {
	start := time.Now()
	deleted, err := c.Container.DeleteItem(ctx, id, partitionKey)
	result := outcome(err)
	if err == nil && !deleted {
		result = metrics.OutcomeNotFound
	}
	c.store.observe(ctx, "delete_item", c.Name(), id, start, result)
	return deleted, err
}

func outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case errors.Is(err, ErrNotFound):
		return metrics.OutcomeNotFound
	default:
		return metrics.OutcomeError
	}
}
