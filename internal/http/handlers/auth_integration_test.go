package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/hongminglow/gigdash/internal/auth"
	"github.com/hongminglow/gigdash/internal/middleware"
	"github.com/hongminglow/gigdash/internal/models"
	"github.com/hongminglow/gigdash/internal/rbac"
	"github.com/hongminglow/gigdash/internal/storage/postgres"
)

// TestAuthIntegration exercises register, login and the session cookie against a live Postgres.
func TestAuthIntegration(t *testing.T) {
	if os.Getenv("RUN_AUTH_INTEGRATION") != "true" {
		t.Skip("set RUN_AUTH_INTEGRATION=true to run this integration test")
	}

	loadDotEnv()
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Fatal("DATABASE_URL is required")
	}

	ctx := context.Background()
	store, err := postgres.NewStore(ctx, dbURL)
	if err != nil {
		t.Fatalf("init store: %v", err)
	}
	defer store.Close()

	secret := mustGetEnv(t, "JWT_SECRET")
	issuer := mustGetEnv(t, "JWT_ISSUER")
	ttl := mustGetTTL(t)
	tokens := auth.NewTokenManager(secret, issuer, ttl)
	sessions := auth.NewSessionManager(store, time.Hour, false)
	logger := zap.NewNop()
	guard := Guard{
		Authn:  middleware.NewAuthenticator(sessions, tokens, store, logger),
		Authz:  rbac.NewAuthorizer(store, store, logger),
		Logger: logger,
	}
	limiter := middleware.NewRateLimiter(middleware.PerMinute(100), logger)

	mux := http.NewServeMux()
	authHandler := NewAuthHandler(store, tokens, sessions, limiter, guard, logger)
	authHandler.Register(mux)

	ts := httptest.NewServer(mux)
	defer ts.Close()

	username := fmt.Sprintf("apitest_%d", time.Now().UnixNano())
	email := fmt.Sprintf("%s@example.com", username)
	phone := fmt.Sprintf("+1555%07d", time.Now().UnixNano()%1_000_0000)
	password := fmt.Sprintf("Pass!%d", time.Now().UnixNano())

	registerBody := map[string]string{
		"username": username,
		"email":    email,
		"phone":    phone,
		"password": password,
	}
	user := requestRegister(t, ts.URL, registerBody)

	if user.Username != username || user.Email != email || user.Phone != phone {
		t.Fatalf("register mismatch: got %+v", user)
	}
	if user.Role != models.RoleWorker || len(user.Permissions) == 0 {
		t.Fatalf("new user should be a worker with permissions: got role=%q perms=%v", user.Role, user.Permissions)
	}

	loggedIn := requestLogin(t, ts.URL, username, password)
	if loggedIn.User.ID != user.ID {
		t.Fatalf("login returned wrong user id: want %d got %d", user.ID, loggedIn.User.ID)
	}
	if strings.TrimSpace(loggedIn.Token) == "" {
		t.Fatal("login response missing token")
	}

	me := requestMe(t, ts.URL, loggedIn.Token)
	if me.ID != user.ID {
		t.Fatalf("bearer token resolved to user %d, want %d", me.ID, user.ID)
	}

	t.Logf("created user %s (id=%d) and successfully logged in via /api/auth/login", username, user.ID)
}

type loginResponseBody struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

type envelopeBody[T any] struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

func requestRegister(t *testing.T, baseURL string, payload map[string]string) models.User {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal register payload: %v", err)
	}

	req, err := http.NewRequest(http.MethodPost, fmt.Sprintf("%s/api/auth/register", baseURL), bytes.NewReader(body))
	if err != nil {
		t.Fatalf("build register request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("register request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register status = %d", resp.StatusCode)
	}

	var out envelopeBody[models.User]
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode register response: %v", err)
	}
	if len(resp.Cookies()) == 0 {
		t.Fatal("register did not set a session cookie")
	}
	return out.Data
}

func requestLogin(t *testing.T, baseURL, identifier, password string) loginResponseBody {
	t.Helper()
	body, err := json.Marshal(map[string]string{
		"identifier": identifier,
		"password":   password,
	})
	if err != nil {
		t.Fatalf("marshal login payload: %v", err)
	}
	req, err := http.NewRequest(http.MethodPost, fmt.Sprintf("%s/api/auth/login", baseURL), bytes.NewReader(body))
	if err != nil {
		t.Fatalf("build login request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("login request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status = %d", resp.StatusCode)
	}

	var out envelopeBody[loginResponseBody]
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	return out.Data
}

func requestMe(t *testing.T, baseURL, token string) models.User {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, fmt.Sprintf("%s/api/auth/user", baseURL), nil)
	if err != nil {
		t.Fatalf("build user request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("user request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("user status = %d", resp.StatusCode)
	}
	var out envelopeBody[models.User]
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode user response: %v", err)
	}
	return out.Data
}

func mustGetEnv(t *testing.T, key string) string {
	t.Helper()
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		t.Fatalf("%s is required", key)
	}
	return val
}

func mustGetTTL(t *testing.T) time.Duration {
	t.Helper()
	minutesStr := mustGetEnv(t, "JWT_TTL_MINUTES")
	minutes, err := strconv.Atoi(minutesStr)
	if err != nil || minutes <= 0 {
		t.Fatalf("invalid JWT_TTL_MINUTES value: %q", minutesStr)
	}
	return time.Duration(minutes) * time.Minute
}

func loadDotEnv() {
	paths := []string{
		".env",
		"../.env",
		"../../.env",
		"../../../.env",
		"../../../../.env",
	}
	for _, path := range paths {
		_ = godotenv.Overload(path)
	}
}
