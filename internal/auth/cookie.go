package auth

import (
	"net/http"
	"time"
)

// SessionCookieName is the cookie carrying the session token.
const SessionCookieName = "jwt"

// SetSessionCookie binds an issued token to the response. The cookie is
// http-only and same-site strict; secure is set in deployed builds.
func SetSessionCookie(w http.ResponseWriter, token string, expiresAt time.Time, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
		Expires:  expiresAt,
	})
}

// ClearSessionCookie overwrites the session cookie with an empty value
// that expired at the epoch. A still-valid token replayed outside the
// cookie channel remains verifiable until its own expiry; there is no
// server-side revocation.
func ClearSessionCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
		Expires:  time.Unix(0, 0),
	})
}

// SessionTokenFromRequest reads the session token from the request
// cookie. A missing cookie yields ErrUnauthorized.
func SessionTokenFromRequest(r *http.Request) (string, error) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil || cookie.Value == "" {
		return "", ErrUnauthorized
	}
	return cookie.Value, nil
}
