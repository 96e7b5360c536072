package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/hongminglow/gigdash/internal/auth"
	"github.com/hongminglow/gigdash/internal/http/respond"
	"github.com/hongminglow/gigdash/internal/models"
	"github.com/hongminglow/gigdash/internal/storage"
)

// OAuthHandler runs third-party login. provider is nil when OAuth is not configured.
type OAuthHandler struct {
	provider *auth.OAuthProvider
	users    storage.UserStore
	sessions *auth.SessionManager
	logger   *zap.Logger
}

func NewOAuthHandler(provider *auth.OAuthProvider, users storage.UserStore, sessions *auth.SessionManager, logger *zap.Logger) *OAuthHandler {
	return &OAuthHandler{provider: provider, users: users, sessions: sessions, logger: logger}
}

func (h *OAuthHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/login", h.handleLogin)
	mux.HandleFunc("GET /api/callback", h.handleCallback)
}

func (h *OAuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if h.provider == nil {
		respond.Error(w, http.StatusServiceUnavailable, "oauth login is not configured")
		return
	}
	target, err := h.provider.Begin(w, r.URL.Query().Get("redirect"))
	if err != nil {
		h.logger.Error("oauth begin", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "failed to start login")
		return
	}
	http.Redirect(w, r, target, http.StatusFound)
}

func (h *OAuthHandler) handleCallback(w http.ResponseWriter, r *http.Request) {
	if h.provider == nil {
		respond.Error(w, http.StatusServiceUnavailable, "oauth login is not configured")
		return
	}
	id, redirect, err := h.provider.Complete(r.Context(), w, r)
	if err != nil {
		if errors.Is(err, auth.ErrStateMismatch) || errors.Is(err, auth.ErrInvalidToken) {
			respond.Error(w, http.StatusBadRequest, "invalid login state")
			return
		}
		h.logger.Warn("oauth callback", zap.Error(err))
		respond.Error(w, http.StatusUnauthorized, "login failed")
		return
	}
	user, err := h.resolveUser(r.Context(), id)
	if errors.Is(err, errUnverifiedEmail) {
		respond.Error(w, http.StatusConflict, "an account with this email already exists; sign in with your password to link it")
		return
	}
	if err != nil {
		h.logger.Error("oauth resolve user", zap.String("provider", id.Provider), zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "failed to sign in")
		return
	}
	if _, err := h.sessions.Start(r.Context(), w, user.ID); err != nil {
		h.logger.Error("start session", zap.Int64("user_id", user.ID), zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "failed to start session")
		return
	}
	http.Redirect(w, r, redirect, http.StatusFound)
}

var errUnverifiedEmail = errors.New("provider email is not verified")

// resolveUser finds the account linked to id, links an existing account with the same email
// when the provider has verified it, or creates a new worker account.
func (h *OAuthHandler) resolveUser(ctx context.Context, id auth.Identity) (models.User, error) {
	user, err := h.users.FindByProvider(ctx, id.Provider, id.Subject)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return models.User{}, err
	}

	user, err = h.users.FindByEmail(ctx, id.Email)
	switch {
	case err == nil:
		if !id.EmailVerified {
			return models.User{}, errUnverifiedEmail
		}
		if err := h.users.LinkProvider(ctx, user.ID, id.Provider, id.Subject); err != nil {
			return models.User{}, fmt.Errorf("link provider: %w", err)
		}
		return user, nil
	case !errors.Is(err, storage.ErrNotFound):
		return models.User{}, err
	}

	base := usernameFromEmail(id.Email)
	for attempt := 0; attempt < 5; attempt++ {
		username := base
		if attempt > 0 {
			username = fmt.Sprintf("%s%d", base, attempt+1)
		}
		created, err := h.users.CreateUser(ctx, models.User{
			Username:        username,
			Email:           id.Email,
			FirstName:       id.FirstName,
			LastName:        id.LastName,
			ProfileImageURL: id.Picture,
			Role:            models.RoleWorker,
			AuthProvider:    id.Provider,
			ProviderSubject: id.Subject,
		})
		if err == nil {
			return created, nil
		}
		if !errors.Is(err, storage.ErrAlreadyExists) {
			return models.User{}, err
		}
	}
	return models.User{}, fmt.Errorf("no free username for %s", base)
}

func usernameFromEmail(email string) string {
	local, _, _ := strings.Cut(email, "@")
	local = strings.ToLower(strings.TrimSpace(local))
	if local == "" {
		return "worker"
	}
	return local
}
