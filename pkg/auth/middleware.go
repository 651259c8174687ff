package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"
)

// Middleware guards API routes. Token extraction and validation live in
// AuthService; this type only turns the outcome into a 401 or a context.
type Middleware struct {
	authService AuthService
	logger      *zap.Logger
}

// NewMiddleware creates a new auth middleware with the given AuthService.
func NewMiddleware(authService AuthService, logger *zap.Logger) *Middleware {
	return &Middleware{
		authService: authService,
		logger:      logger.Named("auth"),
	}
}

// RequireAuth puts the caller's claims and raw token into the request
// context. Requests without a valid user identity get a 401.
func (m *Middleware) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, token, err := m.authService.ValidateRequest(r)
		if err != nil {
			// Missing credentials are routine; anything else is worth a look.
			if !errors.Is(err, ErrMissingAuthorization) {
				m.logger.Debug("Rejected credentials",
					zap.String("path", r.URL.Path),
					zap.Error(err))
			}
			Unauthorized(w)
			return
		}
		next(w, r.WithContext(WithClaims(r.Context(), claims, token)))
	}
}

// Unauthorized writes the standard 401 response body.
func Unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   "unauthorized",
		"message": "Authentication required",
	})
}
