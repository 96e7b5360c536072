package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeProvider(t *testing.T, userinfo map[string]any) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /token", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "good-code", r.Form.Get("code"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"access_token": "at-123", "token_type": "Bearer", "expires_in": 3600})
	})
	mux.HandleFunc("GET /userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer at-123" {
			http.Error(w, "bad token", http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(userinfo)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestProvider(srv *httptest.Server) *OAuthProvider {
	return NewOAuthProvider(OAuthConfig{
		Provider:     "oidc",
		ClientID:     "client",
		ClientSecret: "secret",
		AuthURL:      srv.URL + "/authorize",
		TokenURL:     srv.URL + "/token",
		UserInfoURL:  srv.URL + "/userinfo",
		RedirectURL:  "http://localhost/api/callback",
		Scopes:       []string{"openid", "email"},
	}, NewTokenManager("secret", "gigdash", time.Hour), false)
}

// begin runs the first leg and returns the state and nonce cookie.
func begin(t *testing.T, p *OAuthProvider, redirect string) (string, *http.Cookie) {
	t.Helper()
	rec := httptest.NewRecorder()
	target, err := p.Begin(rec, redirect)
	require.NoError(t, err)
	u, err := url.Parse(target)
	require.NoError(t, err)
	assert.Equal(t, "client", u.Query().Get("client_id"))
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	return u.Query().Get("state"), cookies[0]
}

func TestOAuthFlow(t *testing.T) {
	srv := fakeProvider(t, map[string]any{"sub": "abc", "email": "dee@example.com", "given_name": "Dee", "email_verified": true})
	p := newTestProvider(srv)
	state, nonce := begin(t, p, "/vehicles")

	req := httptest.NewRequest(http.MethodGet, "/api/callback?code=good-code&state="+url.QueryEscape(state), nil)
	req.AddCookie(nonce)
	id, redirect, err := p.Complete(context.Background(), httptest.NewRecorder(), req)
	require.NoError(t, err)
	assert.Equal(t, "/vehicles", redirect)
	assert.Equal(t, "oidc", id.Provider)
	assert.Equal(t, "abc", id.Subject)
	assert.Equal(t, "dee@example.com", id.Email)
	assert.Equal(t, "Dee", id.FirstName)
	assert.True(t, id.EmailVerified)
	assert.Equal(t, 300, nonce.MaxAge)
}

func TestOAuthStateChecks(t *testing.T) {
	srv := fakeProvider(t, map[string]any{"sub": "abc", "email": "dee@example.com"})
	p := newTestProvider(srv)
	state, nonce := begin(t, p, "")

	t.Run("missing nonce cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/callback?code=good-code&state="+url.QueryEscape(state), nil)
		_, _, err := p.Complete(context.Background(), httptest.NewRecorder(), req)
		assert.ErrorIs(t, err, ErrStateMismatch)
	})
	t.Run("forged state", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/callback?code=good-code&state=forged", nil)
		req.AddCookie(nonce)
		_, _, err := p.Complete(context.Background(), httptest.NewRecorder(), req)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
	t.Run("provider error", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/callback?error=access_denied&state="+url.QueryEscape(state), nil)
		req.AddCookie(nonce)
		_, _, err := p.Complete(context.Background(), httptest.NewRecorder(), req)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "access_denied")
	})
}

func TestOAuthIncompleteUserinfo(t *testing.T) {
	srv := fakeProvider(t, map[string]any{"sub": "abc"})
	p := newTestProvider(srv)
	state, nonce := begin(t, p, "")

	req := httptest.NewRequest(http.MethodGet, "/api/callback?code=good-code&state="+url.QueryEscape(state), nil)
	req.AddCookie(nonce)
	_, _, err := p.Complete(context.Background(), httptest.NewRecorder(), req)
	assert.Error(t, err)
}

func TestSafeRedirect(t *testing.T) {
	cases := map[string]string{
		"":                     "/",
		"/dashboard":           "/dashboard",
		"//evil.example":       "/",
		"https://evil.example": "/",
		"relative/path":        "/",
		"/\\evil.example":      "/",
		"/\\/evil.example":     "/",
		"/path\\with-slash":    "/",
		"/%2F%2Fevil.example":  "/%2F%2Fevil.example",
		"/vehicles?tab=docs":   "/vehicles?tab=docs",
	}
	for in, want := range cases {
		assert.Equal(t, want, safeRedirect(in), in)
	}
}
