package main

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/gorillamux"

	"github.com/semifinals/users/internal/testutil"
)

// loadSpec loads and validates docs/api/openapi.yaml.
func loadSpec(t *testing.T) (*openapi3.T, routers.Router) {
	t.Helper()

	root, err := testutil.ProjectRoot()
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(root, "docs", "api", "openapi.yaml")

	loader := openapi3.NewLoader()
	spec, err := loader.LoadFromFile(path)
	if err != nil {
		t.Fatalf("Failed to load OpenAPI spec from %s: %v", path, err)
	}

	if err := spec.Validate(context.Background()); err != nil {
		t.Fatalf("OpenAPI spec validation failed: %v", err)
	}

	router, err := gorillamux.NewRouter(spec)
	if err != nil {
		t.Fatalf("Failed to create router from spec: %v", err)
	}

	return spec, router
}

// validateResponse checks rec against the operation documented for req.
func validateResponse(t *testing.T, router routers.Router, req *http.Request, rec *httptest.ResponseRecorder) {
	t.Helper()

	route, pathParams, err := router.FindRoute(req)
	if err != nil {
		t.Fatalf("Could not find route for %s %s in spec: %v", req.Method, req.URL.Path, err)
	}

	input := &openapi3filter.ResponseValidationInput{
		RequestValidationInput: &openapi3filter.RequestValidationInput{
			Request:    req,
			PathParams: pathParams,
			Route:      route,
		},
		Status: rec.Code,
		Header: rec.Header(),
		Body:   io.NopCloser(bytes.NewReader(rec.Body.Bytes())),
		Options: &openapi3filter.Options{
			IncludeResponseStatus: true,
		},
	}

	if err := openapi3filter.ValidateResponse(context.Background(), input); err != nil {
		t.Errorf("%s %s -> %d: response validation failed: %v\nBody: %s",
			req.Method, req.URL.Path, rec.Code, err, rec.Body.String())
	}
}

func TestOpenAPISpecValid(t *testing.T) {
	spec, _ := loadSpec(t)

	for _, path := range []string{"/", "/{id}", "/ping", "/healthz", "/readyz", "/metrics"} {
		if spec.Paths.Find(path) == nil {
			t.Errorf("Expected path %s not found in spec", path)
		}
	}
}

// TestContract_Responses drives every documented user outcome through the
// router and validates the responses against the OpenAPI document.
func TestContract_Responses(t *testing.T) {
	_, router := loadSpec(t)
	app := newTestApp(t)

	send := func(method, path, body string) {
		t.Helper()
		var reader io.Reader
		if body != "" {
			reader = bytes.NewReader([]byte(body))
		}
		req := httptest.NewRequest(method, path, reader)
		if body != "" {
			req.Header.Set("Content-Type", "application/json")
		}
		rec := httptest.NewRecorder()
		app.router.ServeHTTP(rec, req)
		validateResponse(t, router, req, rec)
	}

	created := app.create(t, `{"username":"contract","verified":false,"region":"NA"}`)
	id := "/" + created.ID

	send(http.MethodGet, "/ping", "")
	send(http.MethodGet, "/healthz", "")
	send(http.MethodGet, "/readyz", "")

	send(http.MethodPost, "/", `{"username":"alice","verified":true}`)
	send(http.MethodPost, "/", `{"username":"alice"}`)
	send(http.MethodGet, id, "")
	send(http.MethodPatch, id, `{"verified":true,"region":null}`)
	send(http.MethodPatch, id, `{"verified":"invalid"}`)
	send(http.MethodGet, "/01ARZ3NDEKTSV4RRFFQ69G5FAV", "")
	send(http.MethodDelete, id, "")
	send(http.MethodDelete, id, "")
}

func TestContract_RateLimited(t *testing.T) {
	_, router := loadSpec(t)
	app := newTestApp(t, withLimiter(rejectingLimiter{}))

	req := httptest.NewRequest(http.MethodGet, "/01ARZ3NDEKTSV4RRFFQ69G5FAV", nil)
	rec := httptest.NewRecorder()
	app.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected status 429, got %d", rec.Code)
	}
	validateResponse(t, router, req, rec)
}
