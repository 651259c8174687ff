package database

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// slowAcquireThreshold marks pool waits worth a warning; sustained waits mean
// MaxConnections is too low for the request load.
const slowAcquireThreshold = 250 * time.Millisecond

// WithScopeContext returns handler middleware that holds one pooled
// connection for the life of the request. Register it inside the auth
// middleware so rejected requests never touch the pool.
func WithScopeContext(db *DB, logger *zap.Logger) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			scope, err := db.WithScope(r.Context())
			if err != nil {
				logger.Error("Failed to acquire database connection",
					zap.String("path", r.URL.Path),
					zap.Error(err))
				writeInternalError(w)
				return
			}
			defer scope.Close()

			if wait := time.Since(start); wait > slowAcquireThreshold {
				logger.Warn("Slow database connection acquire",
					zap.String("path", r.URL.Path),
					zap.Duration("wait", wait))
			}

			next(w, r.WithContext(SetScope(r.Context(), scope)))
		}
	}
}

// writeInternalError writes the generic 500 body used across the API.
func writeInternalError(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   "internal_error",
		"message": "An internal error occurred",
	})
}
