package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// mockTokenValidator is a mock implementation of TokenValidator for testing.
type mockTokenValidator struct {
	claims        *Claims
	err           error
	capturedToken string
}

func (m *mockTokenValidator) ValidateToken(tokenString string) (*Claims, error) {
	m.capturedToken = tokenString
	if m.err != nil {
		return nil, m.err
	}
	return m.claims, nil
}

func (m *mockTokenValidator) Close() {}

func userClaims(id uuid.UUID) *Claims {
	c := &Claims{Email: "ada@example.com"}
	c.Subject = id.String()
	return c
}

func newTestSessionStore() *SessionStore {
	return NewSessionStore("session-secret", "studysphere_session", time.Hour, CookieSettings{Secure: false})
}

// sessionCookie round-trips a token through the store and returns the cookie
// a browser would send back.
func sessionCookie(t *testing.T, store *SessionStore, token string) *http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	if err := store.SetToken(rec, req, token); err != nil {
		t.Fatalf("SetToken failed: %v", err)
	}
	for _, c := range rec.Result().Cookies() {
		if c.Name == store.Name() {
			return c
		}
	}
	t.Fatal("session cookie not set")
	return nil
}

func TestAuthService_ValidateRequest_SessionCookie(t *testing.T) {
	id := uuid.New()
	validator := &mockTokenValidator{claims: userClaims(id)}
	store := newTestSessionStore()
	service := NewAuthService(validator, store, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
	req.AddCookie(sessionCookie(t, store, "cookie-token"))

	claims, token, err := service.ValidateRequest(req)
	if err != nil {
		t.Fatalf("ValidateRequest failed: %v", err)
	}
	if token != "cookie-token" || validator.capturedToken != "cookie-token" {
		t.Errorf("expected token 'cookie-token', got %q", token)
	}
	if got, _ := claims.UserID(); got != id {
		t.Errorf("expected user %s, got %s", id, got)
	}
}

func TestAuthService_ValidateRequest_AuthHeader(t *testing.T) {
	validator := &mockTokenValidator{claims: userClaims(uuid.New())}
	service := NewAuthService(validator, newTestSessionStore(), zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
	req.Header.Set("Authorization", "Bearer my-jwt-token")

	_, token, err := service.ValidateRequest(req)
	if err != nil {
		t.Fatalf("ValidateRequest failed: %v", err)
	}
	if token != "my-jwt-token" {
		t.Errorf("expected token 'my-jwt-token', got %q", token)
	}
}

func TestAuthService_ValidateRequest_TamperedCookieFallsBackToHeader(t *testing.T) {
	validator := &mockTokenValidator{claims: userClaims(uuid.New())}
	service := NewAuthService(validator, newTestSessionStore(), zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
	req.AddCookie(&http.Cookie{Name: "studysphere_session", Value: "forged"})
	req.Header.Set("Authorization", "Bearer header-token")

	_, token, err := service.ValidateRequest(req)
	if err != nil {
		t.Fatalf("ValidateRequest failed: %v", err)
	}
	if token != "header-token" {
		t.Errorf("expected header token, got %q", token)
	}
}

func TestAuthService_ValidateRequest_Errors(t *testing.T) {
	tests := []struct {
		name      string
		header    string
		validator *mockTokenValidator
		wantErr   error
	}{
		{name: "no credentials", validator: &mockTokenValidator{}, wantErr: ErrMissingAuthorization},
		{name: "basic scheme", header: "Basic abc", validator: &mockTokenValidator{}, wantErr: ErrInvalidAuthFormat},
		{name: "bearer without token", header: "Bearer ", validator: &mockTokenValidator{}, wantErr: ErrInvalidAuthFormat},
		{name: "extra parts", header: "Bearer a b", validator: &mockTokenValidator{}, wantErr: ErrInvalidAuthFormat},
		{
			name:      "non-uuid subject",
			header:    "Bearer token",
			validator: &mockTokenValidator{claims: &Claims{}},
			wantErr:   ErrInvalidSubject,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := NewAuthService(tt.validator, nil, zap.NewNop())
			req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			_, _, err := service.ValidateRequest(req)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestAuthService_ValidateRequest_ValidatorError(t *testing.T) {
	validationErr := errors.New("token expired")
	service := NewAuthService(&mockTokenValidator{err: validationErr}, nil, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
	req.Header.Set("Authorization", "Bearer stale")

	if _, _, err := service.ValidateRequest(req); !errors.Is(err, validationErr) {
		t.Errorf("expected validator error, got %v", err)
	}
}

func TestSessionStore_Clear(t *testing.T) {
	store := newTestSessionStore()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	req.AddCookie(sessionCookie(t, store, "some-token"))

	if err := store.Clear(rec, req); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}

	var cleared *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == store.Name() {
			cleared = c
		}
	}
	if cleared == nil {
		t.Fatal("expected session cookie to be rewritten")
	}
	if cleared.MaxAge >= 0 {
		t.Errorf("expected expired cookie, got MaxAge %d", cleared.MaxAge)
	}
	if !cleared.HttpOnly {
		t.Error("expected HttpOnly cookie")
	}
}

func TestSessionStore_TokenMissing(t *testing.T) {
	store := newTestSessionStore()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	if _, err := store.Token(req); !errors.Is(err, ErrNoSessionToken) {
		t.Errorf("expected ErrNoSessionToken, got %v", err)
	}
}
