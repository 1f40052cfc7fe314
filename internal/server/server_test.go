package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func testServer(t *testing.T, handler http.Handler) (*Server, net.Listener) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(handler, Config{ShutdownTimeout: 5 * time.Second}, logger), ln
}

func TestServer_ServesUntilCancelled(t *testing.T) {
	srv, ln := testServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	var order []string
	srv.OnShutdown("store", func(ctx context.Context) error {
		order = append(order, "store")
		return nil
	})
	srv.OnShutdown("cache", func(ctx context.Context) error {
		order = append(order, "cache")
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/ping")
	if err != nil {
		t.Fatalf("GET /ping: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("status = %d, want 204", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Serve() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve() did not return after cancel")
	}

	if diff := cmp.Diff([]string{"cache", "store"}, order); diff != "" {
		t.Errorf("shutdown order mismatch (-want +got):\n%s", diff)
	}
}

func TestServer_ShutdownErrorsJoined(t *testing.T) {
	srv, ln := testServer(t, http.NotFoundHandler())

	errStore := errors.New("store close failed")
	ran := false
	srv.OnShutdown("store", func(ctx context.Context) error {
		ran = true
		return nil
	})
	srv.OnShutdown("cache", func(ctx context.Context) error { return errStore })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := srv.Serve(ctx, ln)
	if !errors.Is(err, errStore) {
		t.Errorf("Serve() error = %v, want %v", err, errStore)
	}
	if !ran {
		t.Error("later hooks must still run after a failure")
	}
}
