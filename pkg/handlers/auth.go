package handlers

import (
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/ekaya-inc/studysphere/pkg/apperrors"
	"github.com/ekaya-inc/studysphere/pkg/audit"
	"github.com/ekaya-inc/studysphere/pkg/auth"
	"github.com/ekaya-inc/studysphere/pkg/models"
	"github.com/ekaya-inc/studysphere/pkg/services"
)

// ScopeMiddleware attaches a pooled database connection to the request.
type ScopeMiddleware func(http.HandlerFunc) http.HandlerFunc

// LoginResponse is returned by a successful credential login.
type LoginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      *models.User `json:"user"`
}

// LogoutResponse is returned by logout.
type LogoutResponse struct {
	LoggedOut bool `json:"loggedOut"`
}

// AuthHandler handles registration, login and session endpoints.
type AuthHandler struct {
	userService services.UserService
	issuer      *auth.TokenIssuer
	sessions    *auth.SessionStore
	auditor     *audit.SecurityAuditor
	logger      *zap.Logger
}

// NewAuthHandler creates a new auth handler. sessions may be nil, in which
// case tokens are only returned in the response body.
func NewAuthHandler(userService services.UserService, issuer *auth.TokenIssuer, sessions *auth.SessionStore, auditor *audit.SecurityAuditor, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		userService: userService,
		issuer:      issuer,
		sessions:    sessions,
		auditor:     auditor,
		logger:      logger.Named("auth-handler"),
	}
}

// RegisterRoutes registers the auth handler's routes on the given mux.
func (h *AuthHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware, scopeMiddleware ScopeMiddleware) {
	mux.HandleFunc("POST /api/auth/register", scopeMiddleware(h.Register))
	mux.HandleFunc("POST /api/auth/login", scopeMiddleware(h.Login))
	mux.HandleFunc("POST /api/auth/logout", h.Logout)
	mux.HandleFunc("GET /api/auth/me", authMiddleware.RequireAuth(scopeMiddleware(h.Me)))
}

// Register handles POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input models.RegisterInput
	if err := decodeJSON(r, &input); err != nil {
		writeBadRequest(w, h.logger, err)
		return
	}

	user, err := h.userService.Register(r.Context(), &input)
	if err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			h.auditor.LogRegistrationConflict(r, input.Email)
		}
		writeServiceError(w, h.logger, "User", err)
		return
	}

	h.auditor.LogRegistration(r, user.ID, user.Email)

	if err := WriteSuccess(w, http.StatusCreated, user); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Login handles POST /api/auth/login
// Issues a token, returns it in the body and stores it in the session cookie.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input models.LoginInput
	if err := decodeJSON(r, &input); err != nil {
		writeBadRequest(w, h.logger, err)
		return
	}

	user, err := h.userService.Authenticate(r.Context(), &input)
	if err != nil {
		if errors.Is(err, apperrors.ErrInvalidCredentials) {
			h.auditor.LogLoginFailure(r, input.Email)
		}
		writeServiceError(w, h.logger, "User", err)
		return
	}

	token, expiresAt, err := h.issuer.Issue(user)
	if err != nil {
		writeServiceError(w, h.logger, "User", err)
		return
	}

	if h.sessions != nil {
		if err := h.sessions.SetToken(w, r, token); err != nil {
			writeServiceError(w, h.logger, "User", err)
			return
		}
	}

	h.auditor.LogLoginSuccess(r, user.ID, user.Email)

	if err := WriteSuccess(w, http.StatusOK, LoginResponse{Token: token, ExpiresAt: expiresAt, User: user}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Logout handles POST /api/auth/logout
// Clears the session cookie. Bearer tokens stay valid until they expire.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if h.sessions != nil {
		if err := h.sessions.Clear(w, r); err != nil {
			h.logger.Warn("Failed to clear session", zap.Error(err))
		}
	}
	h.auditor.LogLogout(r)

	if err := WriteSuccess(w, http.StatusOK, LogoutResponse{LoggedOut: true}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Me handles GET /api/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireOwner(w, r)
	if !ok {
		return
	}

	user, err := h.userService.GetByID(r.Context(), userID)
	if err != nil {
		writeServiceError(w, h.logger, "User", err)
		return
	}

	if err := WriteSuccess(w, http.StatusOK, user); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
