package handlers

import (
	"context"
	"net/http"
	"os"
	"runtime"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/ekaya-inc/studysphere/pkg/config"
)

const dependencyCheckTimeout = 2 * time.Second

// PingResponse contains service status and version information.
type PingResponse struct {
	Status       string            `json:"status"`
	Version      string            `json:"version"`
	Service      string            `json:"service"`
	GoVersion    string            `json:"go_version"`
	Hostname     string            `json:"hostname"`
	Environment  string            `json:"environment"`
	Dependencies map[string]string `json:"dependencies,omitempty"`
}

// Pinger is a backing store that can report reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles health check and ping endpoints.
type HealthHandler struct {
	cfg          *config.Config
	dependencies map[string]Pinger
	logger       *zap.Logger
}

// NewHealthHandler creates a new HealthHandler. dependencies are reported by
// /ping and may be nil.
func NewHealthHandler(cfg *config.Config, dependencies map[string]Pinger, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{cfg: cfg, dependencies: dependencies, logger: logger}
}

// RegisterRoutes registers the health handler's routes on the given mux.
func (h *HealthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.Health)
	mux.HandleFunc("GET /ping", h.Ping)
}

// Health handles GET /health requests. It is a liveness probe and never
// touches backing stores.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Ping handles GET /ping requests with version, environment and the
// reachability of each backing store. An unreachable store degrades the
// status without failing the request.
func (h *HealthHandler) Ping(w http.ResponseWriter, r *http.Request) {
	hostname, err := os.Hostname()
	if err != nil {
		http.Error(w, "failed to get hostname", http.StatusInternalServerError)
		return
	}

	response := PingResponse{
		Status:      "ok",
		Version:     h.cfg.Version,
		Service:     "studysphere",
		GoVersion:   runtime.Version(),
		Hostname:    hostname,
		Environment: h.cfg.Env,
	}

	if len(h.dependencies) > 0 {
		response.Dependencies = make(map[string]string, len(h.dependencies))
		names := make([]string, 0, len(h.dependencies))
		for name := range h.dependencies {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			ctx, cancel := context.WithTimeout(r.Context(), dependencyCheckTimeout)
			err := h.dependencies[name].Ping(ctx)
			cancel()
			if err != nil {
				h.logger.Warn("Dependency check failed", zap.String("dependency", name), zap.Error(err))
				response.Dependencies[name] = "unavailable"
				response.Status = "degraded"
				continue
			}
			response.Dependencies[name] = "ok"
		}
	}

	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to encode ping response", zap.Error(err))
	}
}
