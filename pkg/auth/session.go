package auth

import (
	"crypto/sha256"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/sessions"
)

// sessionKeyToken is the session value holding the signed JWT.
const sessionKeyToken = "token"

// ErrNoSessionToken is returned when the session carries no token.
var ErrNoSessionToken = errors.New("no token in session")

// SessionStore keeps the login token in a signed, HttpOnly cookie for
// browser clients.
type SessionStore struct {
	store *sessions.CookieStore
	name  string
}

// NewSessionStore creates a cookie session store.
//
// The secret parameter is used to sign session cookies. It can be any
// passphrase; it is SHA-256 hashed to derive a 32-byte key. It must be
// consistent across restarts and replicas.
func NewSessionStore(secret, cookieName string, maxAge time.Duration, settings CookieSettings) *SessionStore {
	key := sha256.Sum256([]byte(secret))

	store := sessions.NewCookieStore(key[:])
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		Secure:   settings.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	return &SessionStore{store: store, name: cookieName}
}

// Name returns the session cookie name.
func (s *SessionStore) Name() string { return s.name }

// SetToken stores token in the session cookie.
func (s *SessionStore) SetToken(w http.ResponseWriter, r *http.Request, token string) error {
	session, err := s.store.Get(r, s.name)
	if err != nil && session == nil {
		return err
	}
	session.Values[sessionKeyToken] = token
	return session.Save(r, w)
}

// Token reads the token from the session cookie.
func (s *SessionStore) Token(r *http.Request) (string, error) {
	if _, err := r.Cookie(s.name); err != nil {
		return "", ErrNoSessionToken
	}
	session, err := s.store.Get(r, s.name)
	if err != nil {
		return "", err
	}
	token, ok := session.Values[sessionKeyToken].(string)
	if !ok || token == "" {
		return "", ErrNoSessionToken
	}
	return token, nil
}

// Clear expires the session cookie.
func (s *SessionStore) Clear(w http.ResponseWriter, r *http.Request) error {
	session, err := s.store.Get(r, s.name)
	if err != nil && session == nil {
		return err
	}
	session.Values = map[any]any{}
	session.Options.MaxAge = -1
	return session.Save(r, w)
}
