package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hongminglow/gigdash/internal/assistant"
	"github.com/hongminglow/gigdash/internal/auth"
	"github.com/hongminglow/gigdash/internal/documents"
	"github.com/hongminglow/gigdash/internal/middleware"
	"github.com/hongminglow/gigdash/internal/models"
	"github.com/hongminglow/gigdash/internal/rbac"
	"github.com/hongminglow/gigdash/internal/storage/memory"
)

type harness struct {
	t      *testing.T
	store  *memory.Store
	blobs  *documents.MemoryStore
	tokens *auth.TokenManager
	mux    *http.ServeMux
	seq    int
}

func newHarness(t *testing.T, llm assistant.LLM) *harness {
	t.Helper()
	logger := zap.NewNop()
	store := memory.New()
	blobs := documents.NewMemoryStore()
	tokens := auth.NewTokenManager("test-secret", "gigdash-test", time.Hour)
	sessions := auth.NewSessionManager(store, time.Hour, false)
	guard := Guard{
		Authn:  middleware.NewAuthenticator(sessions, tokens, store, logger),
		Authz:  rbac.NewAuthorizer(store, store, logger),
		Logger: logger,
	}
	limiter := middleware.NewRateLimiter(middleware.PerMinute(1000), logger)
	bot := assistant.New(llm, store, logger, 3)

	mux := http.NewServeMux()
	for _, h := range []interface{ Register(*http.ServeMux) }{
		NewHealthHandler(time.Now(), nil),
		NewAuthHandler(store, tokens, sessions, limiter, guard, logger),
		NewOAuthHandler(nil, store, sessions, logger),
		NewCompanyHandler(store, guard, logger),
		NewApplicationHandler(store, guard, logger),
		NewVehicleHandler(store, blobs, guard, logger),
		NewDocumentHandler(store, blobs, "docs", 1<<20, guard, logger),
		NewCreditHandler(store, guard, logger),
		NewDashboardHandler(store, guard, logger),
		NewAssistantHandler(bot, limiter, guard, logger),
		NewAdminHandler(store, guard, logger),
	} {
		h.Register(mux)
	}
	return &harness{t: t, store: store, blobs: blobs, tokens: tokens, mux: mux}
}

// user creates an account with role and returns it with a bearer token.
func (h *harness) user(role string) (models.User, string) {
	h.t.Helper()
	h.seq++
	u, err := h.store.CreateUser(context.Background(), models.User{
		Username: fmt.Sprintf("user%d", h.seq),
		Email:    fmt.Sprintf("user%d@example.com", h.seq),
		Role:     role,
		State:    "TX",
	})
	require.NoError(h.t, err)
	token, err := h.tokens.Generate(u)
	require.NoError(h.t, err)
	return u, token
}

func (h *harness) company(c models.Company) models.Company {
	h.t.Helper()
	created, err := h.store.CreateCompany(context.Background(), c)
	require.NoError(h.t, err)
	return created
}

func (h *harness) do(method, path, token string, body any) *httptest.ResponseRecorder {
	h.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(h.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return h.serve(req)
}

func (h *harness) serve(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.mux.ServeHTTP(rec, req)
	return rec
}

type envelope[T any] struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

func decodeData[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var env envelope[T]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env.Data
}

func TestHealth(t *testing.T) {
	h := newHarness(t, nil)
	rec := h.do(http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	status := decodeData[map[string]string](t, rec)
	assert.Equal(t, "ok", status["status"])
}

func TestAuthRegisterLoginLogout(t *testing.T) {
	h := newHarness(t, nil)

	rec := h.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "alice",
		"email":    "alice@example.com",
		"password": "correct horse",
		"state":    "ca",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decodeData[models.User](t, rec)
	assert.Equal(t, "alice", created.Username)
	assert.Equal(t, "CA", created.State)
	assert.Equal(t, models.RoleWorker, created.Role)

	stored, err := h.store.FindByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.Contains(t, stored.PasswordHash, "scrypt$")

	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	sid := cookies[0]
	assert.Equal(t, auth.SessionCookieName, sid.Name)
	assert.True(t, sid.HttpOnly)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/user", nil)
	req.AddCookie(sid)
	rec = h.serve(req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, created.ID, decodeData[models.User](t, rec).ID)

	t.Run("duplicate", func(t *testing.T) {
		rec := h.do(http.MethodPost, "/api/auth/register", "", map[string]string{
			"username": "alice", "email": "other@example.com", "password": "correct horse",
		})
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("invalid input", func(t *testing.T) {
		for name, body := range map[string]map[string]string{
			"short password": {"username": "bob", "email": "bob@example.com", "password": "short"},
			"bad email":      {"username": "bob", "email": "not-an-email", "password": "correct horse"},
			"bad state":      {"username": "bob", "email": "bob@example.com", "password": "correct horse", "state": "Texas"},
		} {
			rec := h.do(http.MethodPost, "/api/auth/register", "", body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, name)
		}
	})

	t.Run("login", func(t *testing.T) {
		rec := h.do(http.MethodPost, "/api/auth/login", "", map[string]string{"identifier": "alice", "password": "wrong password"})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)

		rec = h.do(http.MethodPost, "/api/auth/login", "", map[string]string{"identifier": "ALICE@example.com", "password": "correct horse"})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		body := decodeData[struct {
			Token string      `json:"token"`
			User  models.User `json:"user"`
		}](t, rec)
		require.NotEmpty(t, body.Token)
		assert.Empty(t, body.User.PasswordHash)

		rec = h.do(http.MethodGet, "/api/auth/user", body.Token, nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("logout ends the session", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
		req.AddCookie(sid)
		rec := h.serve(req)
		require.Equal(t, http.StatusOK, rec.Code)

		req = httptest.NewRequest(http.MethodGet, "/api/auth/user", nil)
		req.AddCookie(sid)
		assert.Equal(t, http.StatusUnauthorized, h.serve(req).Code)
	})
}

func TestUpdateProfile(t *testing.T) {
	h := newHarness(t, nil)
	_, token := h.user(models.RoleWorker)

	rec := h.do(http.MethodPatch, "/api/auth/user", token, map[string]string{"city": "Austin", "state": "tx"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	u := decodeData[models.User](t, rec)
	assert.Equal(t, "Austin", u.City)
	assert.Equal(t, "TX", u.State)

	rec = h.do(http.MethodPatch, "/api/auth/user", token, map[string]string{"state": "Texas"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRoutesRequireAuth(t *testing.T) {
	h := newHarness(t, nil)
	for _, path := range []string{"/api/auth/user", "/api/applications", "/api/vehicles", "/api/credit/summary", "/api/dashboard"} {
		rec := h.do(http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}
	rec := h.do(http.MethodGet, "/api/applications", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestOAuthNotConfigured(t *testing.T) {
	h := newHarness(t, nil)
	assert.Equal(t, http.StatusServiceUnavailable, h.do(http.MethodGet, "/api/login", "", nil).Code)
	assert.Equal(t, http.StatusServiceUnavailable, h.do(http.MethodGet, "/api/callback?state=x&code=y", "", nil).Code)
}
