package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/hongminglow/gigdash/internal/auth"
	"github.com/hongminglow/gigdash/internal/http/respond"
	"github.com/hongminglow/gigdash/internal/models"
	"github.com/hongminglow/gigdash/internal/storage"
)

type userKey struct{}

// ErrUnauthenticated is returned when neither a session nor a bearer token identifies the caller.
var ErrUnauthenticated = errors.New("unauthenticated")

// WithUser stores the authenticated user on ctx.
func WithUser(ctx context.Context, user models.User) context.Context {
	return context.WithValue(ctx, userKey{}, user)
}

// UserFromContext returns the authenticated user, if any.
func UserFromContext(ctx context.Context) (models.User, bool) {
	user, ok := ctx.Value(userKey{}).(models.User)
	return user, ok
}

// Authenticator resolves the caller from the session cookie or a bearer token.
type Authenticator struct {
	sessions *auth.SessionManager
	tokens   *auth.TokenManager
	users    storage.UserStore
	logger   *zap.Logger
}

// NewAuthenticator creates the authentication middleware.
func NewAuthenticator(sessions *auth.SessionManager, tokens *auth.TokenManager, users storage.UserStore, logger *zap.Logger) *Authenticator {
	return &Authenticator{sessions: sessions, tokens: tokens, users: users, logger: logger}
}

// Identify resolves the user behind r. The session cookie wins over the Authorization header.
func (a *Authenticator) Identify(r *http.Request) (models.User, error) {
	userID, err := a.sessions.Resolve(r)
	if errors.Is(err, auth.ErrNoSession) {
		userID, err = a.bearer(r)
	}
	if err != nil {
		return models.User{}, err
	}
	user, err := a.users.GetUser(r.Context(), userID)
	if errors.Is(err, storage.ErrNotFound) {
		return models.User{}, ErrUnauthenticated
	}
	return user, err
}

// Require rejects unauthenticated requests with 401 and stores the user on the context.
func (a *Authenticator) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := a.Identify(r)
		if err != nil {
			if !errors.Is(err, ErrUnauthenticated) && !errors.Is(err, auth.ErrInvalidToken) {
				a.logger.Error("authenticate request", zap.Error(err), zap.String("request_id", RequestID(r.Context())))
				respond.Error(w, http.StatusInternalServerError, "failed to authenticate")
				return
			}
			respond.Error(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}

func (a *Authenticator) bearer(r *http.Request) (int64, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return 0, ErrUnauthenticated
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return 0, ErrUnauthenticated
	}
	return a.tokens.Parse(strings.TrimSpace(token))
}

// clientIP returns the address RealIP resolved, or the direct peer when RealIP is not in the chain.
func clientIP(r *http.Request) string {
	if ip, ok := r.Context().Value(clientIPKey{}).(string); ok && ip != "" {
		return ip
	}
	return remoteHost(r)
}

// ClientIP exposes the resolved caller address to handlers.
func ClientIP(r *http.Request) string {
	return clientIP(r)
}
