package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/semifinals/users/internal/envelope"
	"github.com/semifinals/users/internal/metrics"
)

func decodeException(t *testing.T, rec *httptest.ResponseRecorder) (envelope.Envelope, envelope.Exception) {
	t.Helper()
	env, data, err := envelope.Decode(rec.Body.Bytes())
	if err != nil {
		t.Fatalf("failed to decode envelope: %v", err)
	}
	var payload envelope.ExceptionData
	if err := json.Unmarshal(data, &payload); err != nil {
		t.Fatalf("failed to decode exception: %v", err)
	}
	return env, payload.Exception
}

func TestHandler_NotFound(t *testing.T) {
	h := New()

	req := httptest.NewRequest(http.MethodGet, "/nonexistent/path", nil)
	rec := httptest.NewRecorder()

	h.NotFound(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", rec.Code)
	}

	env, exc := decodeException(t, rec)
	if env.Success || env.StatusCode != http.StatusNotFound || env.StatusMessage != "Not found" {
		t.Errorf("unexpected envelope: %+v", env)
	}
	if exc.Name != "NotFoundException" {
		t.Errorf("unexpected exception name: %s", exc.Name)
	}
	if exc.Message != "Cannot GET /nonexistent/path" {
		t.Errorf("unexpected exception message: %s", exc.Message)
	}
}

func TestHandler_MethodNotAllowed(t *testing.T) {
	h := New()

	req := httptest.NewRequest(http.MethodPut, "/abc", nil)
	rec := httptest.NewRecorder()

	h.MethodNotAllowed(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected status 405, got %d", rec.Code)
	}

	env, exc := decodeException(t, rec)
	if env.StatusMessage != "Method not allowed" {
		t.Errorf("unexpected status message: %s", env.StatusMessage)
	}
	if exc.Name != "MethodNotAllowedException" || exc.Message != "Cannot PUT /abc" {
		t.Errorf("unexpected exception: %+v", exc)
	}
}

func TestMetricsHandler(t *testing.T) {
	recorder := metrics.NewPrometheus()
	recorder.IncUserCreated()
	h := NewMetricsHandler(recorder.Handler())

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()

	h.Metrics(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "users_created_total 1") {
		t.Errorf("metrics output missing users_created_total:\n%s", rec.Body.String())
	}
}

func TestMetricsHandler_NotConfigured(t *testing.T) {
	h := NewMetricsHandler(nil)

	rec := httptest.NewRecorder()
	h.Metrics(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status 503, got %d", rec.Code)
	}
	env, _, err := envelope.Decode(rec.Body.Bytes())
	if err != nil {
		t.Fatalf("failed to decode envelope: %v", err)
	}
	if env.Success || env.StatusMessage != "Service unavailable" {
		t.Errorf("unexpected envelope: %+v", env)
	}
}
