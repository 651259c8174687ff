package handlers

import (
	"net/http"
)

// MetricsHandler serves the Prometheus exposition endpoint.
type MetricsHandler struct {
	handler http.Handler
}

// NewMetricsHandler wraps a promhttp handler.
func NewMetricsHandler(handler http.Handler) *MetricsHandler {
	return &MetricsHandler{handler: handler}
}

// RegisterRoutes registers GET /metrics. It is unauthenticated; restrict it
// at the network edge.
func (h *MetricsHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.Handle("GET /metrics", h.handler)
}
