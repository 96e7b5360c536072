package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/hongminglow/gigdash/internal/models"
	"github.com/hongminglow/gigdash/internal/storage"
)

// SessionCookieName is the cookie carrying the session id.
const SessionCookieName = "gigdash_sid"

// ErrNoSession is returned when a request carries no valid session.
var ErrNoSession = errors.New("no active session")

// SessionManager issues and resolves cookie-backed login sessions.
type SessionManager struct {
	store  storage.SessionStore
	ttl    time.Duration
	secure bool
	now    func() time.Time
}

// NewSessionManager creates a manager persisting sessions in store.
func NewSessionManager(store storage.SessionStore, ttl time.Duration, secureCookie bool) *SessionManager {
	return &SessionManager{store: store, ttl: ttl, secure: secureCookie, now: time.Now}
}

// Start creates a session for userID and sets the session cookie.
func (m *SessionManager) Start(ctx context.Context, w http.ResponseWriter, userID int64) (models.Session, error) {
	now := m.now()
	sess := models.Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		ExpiresAt: now.Add(m.ttl),
		CreatedAt: now,
	}
	if err := m.store.CreateSession(ctx, sess); err != nil {
		return models.Session{}, fmt.Errorf("create session: %w", err)
	}
	http.SetCookie(w, m.cookie(sess.ID, sess.ExpiresAt))
	return sess, nil
}

// Resolve returns the user id behind the request's session cookie.
func (m *SessionManager) Resolve(r *http.Request) (int64, error) {
	c, err := r.Cookie(SessionCookieName)
	if err != nil || c.Value == "" {
		return 0, ErrNoSession
	}
	sess, err := m.store.GetSession(r.Context(), c.Value)
	if errors.Is(err, storage.ErrNotFound) {
		return 0, ErrNoSession
	}
	if err != nil {
		return 0, err
	}
	if sess.Expired(m.now()) {
		_ = m.store.DeleteSession(r.Context(), sess.ID)
		return 0, ErrNoSession
	}
	return sess.UserID, nil
}

// End deletes the request's session and clears the cookie.
func (m *SessionManager) End(w http.ResponseWriter, r *http.Request) error {
	defer http.SetCookie(w, m.cookie("", time.Unix(0, 0)))
	c, err := r.Cookie(SessionCookieName)
	if err != nil || c.Value == "" {
		return nil
	}
	return m.store.DeleteSession(r.Context(), c.Value)
}

// Sweep purges expired sessions.
func (m *SessionManager) Sweep(ctx context.Context) (int64, error) {
	return m.store.DeleteExpiredSessions(ctx, m.now())
}

func (m *SessionManager) cookie(value string, expires time.Time) *http.Cookie {
	c := &http.Cookie{
		Name:     SessionCookieName,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	}
	if value == "" {
		c.MaxAge = -1
	}
	return c
}
