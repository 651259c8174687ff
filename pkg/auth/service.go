package auth

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// Common authentication errors.
var (
	ErrMissingAuthorization = errors.New("missing authorization")
	ErrInvalidAuthFormat    = errors.New("invalid authorization header format")
	ErrInvalidSubject       = errors.New("token subject is not a user id")
)

// AuthService defines the interface for authentication operations.
// This abstraction enables clean separation between HTTP handling
// and authentication logic, making both easier to test.
type AuthService interface {
	// ValidateRequest extracts and validates a JWT from the request.
	// It checks for the token in:
	//   1. The session cookie (browser clients)
	//   2. Authorization header with "Bearer" scheme (API clients)
	// Returns the validated claims, the raw token string, or an error.
	ValidateRequest(r *http.Request) (*Claims, string, error)
}

// authService implements AuthService.
type authService struct {
	validator TokenValidator
	sessions  *SessionStore
	logger    *zap.Logger
}

// NewAuthService creates a new AuthService. sessions may be nil, in which
// case only the Authorization header is consulted.
func NewAuthService(validator TokenValidator, sessions *SessionStore, logger *zap.Logger) AuthService {
	return &authService{
		validator: validator,
		sessions:  sessions,
		logger:    logger,
	}
}

// ValidateRequest extracts and validates a JWT from the request.
func (s *authService) ValidateRequest(r *http.Request) (*Claims, string, error) {
	tokenString, tokenSource, err := s.extractToken(r)
	if err != nil {
		return nil, "", err
	}

	claims, err := s.validator.ValidateToken(tokenString)
	if err != nil {
		s.logger.Debug("JWT validation failed",
			zap.Error(err),
			zap.String("path", r.URL.Path),
			zap.String("token_source", tokenSource))
		return nil, "", err
	}

	if _, ok := claims.UserID(); !ok {
		s.logger.Debug("JWT subject is not a user id",
			zap.String("path", r.URL.Path),
			zap.String("subject", claims.Subject))
		return nil, "", ErrInvalidSubject
	}

	return claims, tokenString, nil
}

func (s *authService) extractToken(r *http.Request) (token, source string, err error) {
	if s.sessions != nil {
		if token, err := s.sessions.Token(r); err == nil {
			return token, "cookie", nil
		}
	}

	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		s.logger.Debug("No JWT found in request",
			zap.String("path", r.URL.Path),
			zap.String("method", r.Method))
		return "", "", ErrMissingAuthorization
	}

	scheme, token, ok := strings.Cut(authHeader, " ")
	if !ok || scheme != "Bearer" || token == "" || strings.Contains(token, " ") {
		s.logger.Debug("Invalid Authorization header format",
			zap.String("path", r.URL.Path))
		return "", "", ErrInvalidAuthFormat
	}
	return token, "header", nil
}

// Ensure authService implements AuthService at compile time.
var _ AuthService = (*authService)(nil)
