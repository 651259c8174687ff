package mcpauth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ekaya-inc/studysphere/pkg/auth"
	"github.com/ekaya-inc/studysphere/pkg/testhelpers"
)

// mockAuthService is a mock implementation of auth.AuthService for testing.
type mockAuthService struct {
	claims      *auth.Claims
	token       string
	validateErr error
}

func (m *mockAuthService) ValidateRequest(r *http.Request) (*auth.Claims, string, error) {
	if m.validateErr != nil {
		return nil, "", m.validateErr
	}
	return m.claims, m.token, nil
}

func userClaims(subject string) *auth.Claims {
	return &auth.Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: subject}}
}

func TestMiddleware_RequireAuth_Success(t *testing.T) {
	userID := uuid.New()
	authService := &mockAuthService{claims: userClaims(userID.String()), token: "test-token"}
	middleware := NewMiddleware(authService, zap.NewNop())

	var handlerCalled bool
	var ctxUser uuid.UUID
	var ctxToken string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
		ctxUser = auth.UserIDFromContext(r.Context())
		ctxToken, _ = auth.GetToken(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/mcp", nil)
	rec := httptest.NewRecorder()
	middleware.RequireAuth()(handler).ServeHTTP(rec, req)

	if !handlerCalled {
		t.Fatal("expected handler to be called")
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rec.Code)
	}
	if ctxUser != userID {
		t.Errorf("expected user %s in context, got %s", userID, ctxUser)
	}
	if ctxToken != "test-token" {
		t.Errorf("expected token 'test-token' in context, got %q", ctxToken)
	}
}

func TestMiddleware_RequireAuth_InvalidToken(t *testing.T) {
	authService := &mockAuthService{validateErr: auth.ErrMissingAuthorization}
	middleware := NewMiddleware(authService, zap.NewNop())

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be called")
	})

	req := httptest.NewRequest(http.MethodPost, "/mcp", nil)
	rec := httptest.NewRecorder()
	middleware.RequireAuth()(handler).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", rec.Code)
	}

	wwwAuth := rec.Header().Get("WWW-Authenticate")
	if !strings.Contains(wwwAuth, "Bearer") {
		t.Errorf("expected Bearer in WWW-Authenticate, got %q", wwwAuth)
	}
	if !strings.Contains(wwwAuth, `error="invalid_token"`) {
		t.Errorf("expected error=invalid_token in WWW-Authenticate, got %q", wwwAuth)
	}
}

func TestMiddleware_RequireAuth_NonUserSubject(t *testing.T) {
	authService := &mockAuthService{claims: userClaims("service-account"), token: "test-token"}
	middleware := NewMiddleware(authService, zap.NewNop())

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be called")
	})

	req := httptest.NewRequest(http.MethodPost, "/mcp", nil)
	rec := httptest.NewRecorder()
	middleware.RequireAuth()(handler).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", rec.Code)
	}
	if !strings.Contains(rec.Header().Get("WWW-Authenticate"), "does not identify a user") {
		t.Errorf("unexpected WWW-Authenticate: %q", rec.Header().Get("WWW-Authenticate"))
	}
}

func TestMiddleware_WWWAuthenticateFormat(t *testing.T) {
	m := NewMiddleware(&mockAuthService{}, zap.NewNop())
	rec := httptest.NewRecorder()

	m.writeWWWAuthenticate(rec, http.StatusUnauthorized, "invalid_token", "The access token is invalid or expired")

	expected := `Bearer error="invalid_token", error_description="The access token is invalid or expired"`
	if got := rec.Header().Get("WWW-Authenticate"); got != expected {
		t.Errorf("expected %q, got %q", expected, got)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", rec.Code)
	}
}

func TestMiddleware_RequireAuth_UnverifiedDevToken(t *testing.T) {
	jwksClient, err := auth.NewJWKSClient(context.Background(), &auth.JWKSConfig{EnableVerification: false})
	if err != nil {
		t.Fatalf("NewJWKSClient: %v", err)
	}
	middleware := NewMiddleware(auth.NewAuthService(jwksClient, nil, zap.NewNop()), zap.NewNop())

	userID := uuid.New()
	var ctxUser uuid.UUID
	handler := middleware.RequireAuth()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctxUser = auth.UserIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/mcp", nil)
	req.Header.Set("Authorization", testhelpers.GenerateTestJWTWithBearer(userID.String(), "ada@example.com"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if ctxUser != userID {
		t.Errorf("user id = %s, want %s", ctxUser, userID)
	}

	// A dev token whose subject is not a user id is still rejected.
	req = httptest.NewRequest(http.MethodPost, "/mcp", nil)
	req.Header.Set("Authorization", testhelpers.GenerateTestJWTWithBearer("service-account", ""))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}
