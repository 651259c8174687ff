package auth

import (
	"net/url"
)

// CookieSettings contains cookie security settings derived from base URL.
type CookieSettings struct {
	// Secure indicates whether the cookie should only be sent over HTTPS.
	Secure bool
}

// DeriveCookieSettings determines cookie security from the public base URL:
// plain http (local development) allows insecure cookies, anything else,
// including an empty or invalid URL, requires HTTPS.
func DeriveCookieSettings(baseURL string) CookieSettings {
	if baseURL == "" {
		return CookieSettings{Secure: true}
	}
	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return CookieSettings{Secure: true}
	}
	return CookieSettings{Secure: parsedURL.Scheme != "http"}
}
