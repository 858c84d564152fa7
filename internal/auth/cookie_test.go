package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == SessionCookieName {
			return cookie
		}
	}
	t.Fatalf("no %q cookie set", SessionCookieName)
	return nil
}

func TestSetSessionCookie(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	expiresAt := time.Now().Add(time.Hour)
	SetSessionCookie(rec, "token-value", expiresAt, true)

	cookie := sessionCookie(t, rec)
	if cookie.Value != "token-value" {
		t.Fatalf("cookie value mismatch: %q", cookie.Value)
	}
	if !cookie.HttpOnly {
		t.Fatalf("cookie must be http-only")
	}
	if !cookie.Secure {
		t.Fatalf("cookie must be secure when requested")
	}
	if cookie.SameSite != http.SameSiteStrictMode {
		t.Fatalf("cookie must be same-site strict")
	}
	if cookie.Expires.Unix() != expiresAt.Unix() {
		t.Fatalf("cookie expiry %v does not match token expiry %v", cookie.Expires, expiresAt)
	}
}

func TestClearSessionCookie(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	ClearSessionCookie(rec, false)

	cookie := sessionCookie(t, rec)
	if cookie.Value != "" {
		t.Fatalf("cleared cookie must be empty, got %q", cookie.Value)
	}
	if !cookie.Expires.Before(time.Now()) {
		t.Fatalf("cleared cookie must already be expired, got %v", cookie.Expires)
	}
}

func TestSessionTokenFromRequest(t *testing.T) {
	t.Parallel()

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	if _, err := SessionTokenFromRequest(r); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("want ErrUnauthorized without cookie, got %v", err)
	}

	r.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "tok"})
	token, err := SessionTokenFromRequest(r)
	if err != nil {
		t.Fatalf("SessionTokenFromRequest error: %v", err)
	}
	if token != "tok" {
		t.Fatalf("token mismatch: %q", token)
	}
}
