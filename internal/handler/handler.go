// Package handler provides HTTP request handlers.
package handler

import (
	"fmt"
	"net/http"

	"github.com/semifinals/users/internal/envelope"
)

// Handler serves the router fallbacks.
type Handler struct{}

// New creates a new Handler instance.
func New() *Handler {
	return &Handler{}
}

// NotFound handles 404 responses for unknown routes.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	envelope.WriteError(w, envelope.NotFound(fmt.Sprintf("Cannot %s %s", r.Method, r.URL.Path)))
}

// MethodNotAllowed handles 405 responses.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	envelope.WriteError(w, envelope.NewError(http.StatusMethodNotAllowed, fmt.Sprintf("Cannot %s %s", r.Method, r.URL.Path)))
}
