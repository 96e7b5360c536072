package handlers

import (
	"errors"
	"net/http"
	"net/mail"
	"strings"

	"go.uber.org/zap"

	"github.com/hongminglow/gigdash/internal/auth"
	"github.com/hongminglow/gigdash/internal/http/respond"
	"github.com/hongminglow/gigdash/internal/middleware"
	"github.com/hongminglow/gigdash/internal/models"
	"github.com/hongminglow/gigdash/internal/models/dto"
	"github.com/hongminglow/gigdash/internal/storage"
)

// AuthHandler owns register/login/logout and the signed-in user's profile.
type AuthHandler struct {
	store    storage.UserStore
	tokens   *auth.TokenManager
	sessions *auth.SessionManager
	hasher   auth.PasswordHasher
	limiter  *middleware.RateLimiter
	guard    Guard
	logger   *zap.Logger
}

// NewAuthHandler constructs the handler. limiter guards login and register.
func NewAuthHandler(store storage.UserStore, tokens *auth.TokenManager, sessions *auth.SessionManager,
	limiter *middleware.RateLimiter, guard Guard, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		store:    store,
		tokens:   tokens,
		sessions: sessions,
		hasher:   auth.DefaultHasher,
		limiter:  limiter,
		guard:    guard,
		logger:   logger,
	}
}

// Register attaches auth routes to the mux.
func (h *AuthHandler) Register(mux *http.ServeMux) {
	mux.Handle("POST /api/auth/register", h.limiter.Handler(http.HandlerFunc(h.handleRegister)))
	mux.Handle("POST /api/auth/login", h.limiter.Handler(http.HandlerFunc(h.handleLogin)))
	mux.HandleFunc("POST /api/auth/logout", h.handleLogout)
	mux.Handle("GET /api/auth/user", h.guard.With("", h.handleMe))
	mux.Handle("PATCH /api/auth/user", h.guard.With("", h.handleUpdateProfile))
}

func (h *AuthHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if !decode(w, r, &req) {
		return
	}
	phone := normalizePhone(req)
	if err := validateCredentials(req.Username, req.Email, req.Password); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validateState(req.State); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	passwordHash, err := h.hasher.Hash(req.Password)
	if err != nil {
		h.logger.Error("hash password", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "failed to hash password")
		return
	}

	user := models.User{
		Username:     strings.TrimSpace(req.Username),
		Email:        strings.TrimSpace(req.Email),
		Phone:        phone,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		City:         strings.TrimSpace(req.City),
		State:        strings.TrimSpace(req.State),
		Role:         models.RoleWorker,
		AuthProvider: "local",
		PasswordHash: passwordHash,
	}
	created, err := h.store.CreateUser(r.Context(), user)
	if err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			respond.Error(w, http.StatusConflict, "user already exists")
			return
		}
		storeError(w, r, h.logger, err, "user")
		return
	}
	if _, err := h.sessions.Start(r.Context(), w, created.ID); err != nil {
		h.logger.Error("start session", zap.Int64("user_id", created.ID), zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "failed to start session")
		return
	}

	respond.JSON(w, http.StatusCreated, "User created successfully", created)
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Identifier) == "" || strings.TrimSpace(req.Password) == "" {
		respond.Error(w, http.StatusBadRequest, "identifier and password are required")
		return
	}
	user, err := h.store.FindByUsernameOrEmail(r.Context(), strings.TrimSpace(req.Identifier))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respond.Error(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		h.logger.Error("login: fetch user", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "failed to fetch user")
		return
	}
	if user.PasswordHash == "" {
		// Accounts created through OAuth have no password.
		respond.Error(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if err := h.hasher.Verify(user.PasswordHash, req.Password); err != nil {
		if !errors.Is(err, auth.ErrPasswordMismatch) {
			h.logger.Warn("login: verify password", zap.Int64("user_id", user.ID), zap.Error(err))
		}
		respond.Error(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if _, err := h.sessions.Start(r.Context(), w, user.ID); err != nil {
		h.logger.Error("start session", zap.Int64("user_id", user.ID), zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "failed to start session")
		return
	}
	token, err := h.tokens.Generate(user)
	if err != nil {
		respond.Error(w, http.StatusInternalServerError, "failed to generate token")
		return
	}
	respond.JSON(w, http.StatusOK, "login successful", dto.LoginResponse{Token: token, User: user})
}

func (h *AuthHandler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.End(w, r); err != nil {
		h.logger.Warn("end session", zap.Error(err))
	}
	respond.JSON(w, http.StatusOK, "logged out", nil)
}

func (h *AuthHandler) handleMe(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, "ok", currentUser(r))
}

func (h *AuthHandler) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var update models.ProfileUpdate
	if !decode(w, r, &update) {
		return
	}
	if update.State != nil {
		if err := validateState(*update.State); err != nil {
			respond.Error(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	updated, err := h.store.UpdateProfile(r.Context(), currentUser(r).ID, update)
	if err != nil {
		storeError(w, r, h.logger, err, "user")
		return
	}
	respond.JSON(w, http.StatusOK, "profile updated", updated)
}

func normalizePhone(req dto.RegisterRequest) string {
	if trimmed := strings.TrimSpace(req.Phone); trimmed != "" {
		return trimmed
	}
	return strings.TrimSpace(req.PhoneNumber)
}

func validateCredentials(username, email, password string) error {
	if strings.TrimSpace(username) == "" || strings.TrimSpace(email) == "" {
		return errors.New("username and email are required")
	}
	if _, err := mail.ParseAddress(strings.TrimSpace(email)); err != nil {
		return errors.New("email is invalid")
	}
	return auth.ValidatePassword(password)
}

// validateState accepts an empty value or a two-letter state code.
func validateState(state string) error {
	s := strings.TrimSpace(state)
	if s == "" {
		return nil
	}
	if len(s) != 2 || !isLetter(s[0]) || !isLetter(s[1]) {
		return errors.New("state must be a two-letter code")
	}
	return nil
}

func isLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
