package handler

import (
	"net/http"

	"github.com/semifinals/users/internal/envelope"
)

// MetricsHandler exposes collected metrics.
type MetricsHandler struct {
	exporter http.Handler
}

// NewMetricsHandler creates a new MetricsHandler. exporter renders the
// exposition format; a nil exporter makes the endpoint report 503.
func NewMetricsHandler(exporter http.Handler) *MetricsHandler {
	return &MetricsHandler{exporter: exporter}
}

// Metrics serves GET /metrics.
func (h *MetricsHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	if h.exporter == nil {
		envelope.WriteError(w, envelope.NewError(http.StatusServiceUnavailable, "Metrics are not enabled"))
		return
	}
	h.exporter.ServeHTTP(w, r)
}
