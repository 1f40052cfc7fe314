package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/semifinals/users/internal/patch"
)

// ============================================================================
// Backend contract, shared by the unit and integration suites
// ============================================================================

func uniqueName(prefix string) string {
	return fmt.Sprintf("%s%d", prefix, time.Now().UnixNano())
}

func decodeForTest(t *testing.T, raw []byte) map[string]any {
	t.Helper()
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("stored document is not JSON: %v (%s)", err, raw)
	}
	return doc
}

// runContract exercises every Container operation against store.
func runContract(t *testing.T, store Store) {
	ctx := context.Background()

	newContainer := func(t *testing.T) Container {
		t.Helper()
		c, err := store.EnsureContainer(ctx, uniqueName("c"), "/id")
		if err != nil {
			t.Fatalf("EnsureContainer() error = %v", err)
		}
		return c
	}

	t.Run("EnsureContainer is idempotent", func(t *testing.T) {
		name := uniqueName("idem")
		for i := 0; i < 2; i++ {
			c, err := store.EnsureContainer(ctx, name, "/id")
			if err != nil {
				t.Fatalf("EnsureContainer() call %d error = %v", i, err)
			}
			if c.Name() != name || c.PartitionKeyPath() != "/id" {
				t.Errorf("container = %s %s", c.Name(), c.PartitionKeyPath())
			}
		}
	})

	t.Run("EnsureContainer rejects a different partition key path", func(t *testing.T) {
		name := uniqueName("pk")
		if _, err := store.EnsureContainer(ctx, name, "/id"); err != nil {
			t.Fatalf("EnsureContainer() error = %v", err)
		}
		_, err := store.EnsureContainer(ctx, name, "/region")
		if !errors.Is(err, ErrPartitionKeyMismatch) {
			t.Errorf("error = %v, want ErrPartitionKeyMismatch", err)
		}
	})

	t.Run("EnsureContainer concurrently", func(t *testing.T) {
		name := uniqueName("race")
		var wg sync.WaitGroup
		errs := make(chan error, 8)
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := store.EnsureContainer(ctx, name, "/id")
				errs <- err
			}()
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			if err != nil {
				t.Errorf("concurrent EnsureContainer() error = %v", err)
			}
		}
	})

	t.Run("create then get", func(t *testing.T) {
		c := newContainer(t)

		created, err := c.CreateItem(ctx, "u1", []byte(`{"id":"u1","username":"alice","verified":false}`))
		if err != nil {
			t.Fatalf("CreateItem() error = %v", err)
		}
		want := map[string]any{"id": "u1", "username": "alice", "verified": false}
		if diff := cmp.Diff(want, decodeForTest(t, created)); diff != "" {
			t.Errorf("created mismatch (-want +got):\n%s", diff)
		}

		got, found, err := c.GetItem(ctx, "u1", "u1")
		if err != nil || !found {
			t.Fatalf("GetItem() = found %v, err %v", found, err)
		}
		if diff := cmp.Diff(want, decodeForTest(t, got)); diff != "" {
			t.Errorf("read mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("get missing", func(t *testing.T) {
		c := newContainer(t)
		doc, found, err := c.GetItem(ctx, "missing", "missing")
		if err != nil {
			t.Fatalf("GetItem() error = %v", err)
		}
		if found || doc != nil {
			t.Errorf("GetItem() = %s, %v; want absent", doc, found)
		}
	})

	t.Run("create duplicate", func(t *testing.T) {
		c := newContainer(t)
		doc := []byte(`{"id":"dup","username":"a","verified":true}`)
		if _, err := c.CreateItem(ctx, "dup", doc); err != nil {
			t.Fatalf("CreateItem() error = %v", err)
		}
		if _, err := c.CreateItem(ctx, "dup", doc); !errors.Is(err, ErrConflict) {
			t.Errorf("second CreateItem() error = %v, want ErrConflict", err)
		}
	})

	t.Run("patch set and remove", func(t *testing.T) {
		c := newContainer(t)
		if _, err := c.CreateItem(ctx, "p1", []byte(`{"id":"p1","username":"a","verified":false,"region":"eu"}`)); err != nil {
			t.Fatalf("CreateItem() error = %v", err)
		}

		ops := []patch.Operation{
			{Op: patch.OpSet, Path: "/verified", Value: true},
			{Op: patch.OpRemove, Path: "/region"},
		}
		updated, err := c.PatchItem(ctx, "p1", "p1", ops, nil)
		if err != nil {
			t.Fatalf("PatchItem() error = %v", err)
		}
		want := map[string]any{"id": "p1", "username": "a", "verified": true}
		if diff := cmp.Diff(want, decodeForTest(t, updated)); diff != "" {
			t.Errorf("patched mismatch (-want +got):\n%s", diff)
		}

		stored, _, err := c.GetItem(ctx, "p1", "p1")
		if err != nil {
			t.Fatalf("GetItem() error = %v", err)
		}
		if diff := cmp.Diff(want, decodeForTest(t, stored)); diff != "" {
			t.Errorf("stored mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("patch missing document", func(t *testing.T) {
		c := newContainer(t)
		ops := []patch.Operation{{Op: patch.OpSet, Path: "/verified", Value: true}}
		if _, err := c.PatchItem(ctx, "nope", "nope", ops, nil); !errors.Is(err, ErrNotFound) {
			t.Errorf("PatchItem() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("patch condition", func(t *testing.T) {
		c := newContainer(t)
		if _, err := c.CreateItem(ctx, "c1", []byte(`{"id":"c1","username":"a","verified":false}`)); err != nil {
			t.Fatalf("CreateItem() error = %v", err)
		}
		ops := []patch.Operation{{Op: patch.OpSet, Path: "/username", Value: "b"}}

		_, err := c.PatchItem(ctx, "c1", "c1", ops, Where("/verified", true))
		if !errors.Is(err, ErrPreconditionFailed) {
			t.Fatalf("PatchItem() error = %v, want ErrPreconditionFailed", err)
		}

		updated, err := c.PatchItem(ctx, "c1", "c1", ops, Where("/verified", false))
		if err != nil {
			t.Fatalf("PatchItem() error = %v", err)
		}
		if got := decodeForTest(t, updated)["username"]; got != "b" {
			t.Errorf("username = %v, want b", got)
		}
	})

	t.Run("delete", func(t *testing.T) {
		c := newContainer(t)
		if _, err := c.CreateItem(ctx, "d1", []byte(`{"id":"d1","username":"a","verified":false}`)); err != nil {
			t.Fatalf("CreateItem() error = %v", err)
		}

		deleted, err := c.DeleteItem(ctx, "d1", "d1")
		if err != nil || !deleted {
			t.Fatalf("DeleteItem() = %v, %v; want true, nil", deleted, err)
		}

		deleted, err = c.DeleteItem(ctx, "d1", "d1")
		if err != nil || deleted {
			t.Errorf("second DeleteItem() = %v, %v; want false, nil", deleted, err)
		}

		if _, found, _ := c.GetItem(ctx, "d1", "d1"); found {
			t.Error("document still present after delete")
		}
	})

	t.Run("ping", func(t *testing.T) {
		if err := store.Ping(ctx); err != nil {
			t.Errorf("Ping() error = %v", err)
		}
	})
}
