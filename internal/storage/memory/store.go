// Package memory implements storage.Store on mutex-guarded maps. It backs tests and
// STORAGE_DRIVER=memory local runs.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/hongminglow/gigdash/internal/models"
	"github.com/hongminglow/gigdash/internal/rbac"
	"github.com/hongminglow/gigdash/internal/storage"
)

var _ storage.Store = (*Store)(nil)

// Store keeps every table in memory.
type Store struct {
	mu  sync.RWMutex
	now func() time.Time
	seq int64

	users        map[int64]models.User
	companies    map[int64]models.Company
	applications map[int64]models.Application
	vehicles     map[int64]models.Vehicle
	documents    map[int64]models.VehicleDocument
	scores       map[int64]models.CreditScore
	tradelines   map[int64]models.Tradeline
	audit        []models.AuditLog
	chat         []models.ChatMessage
	sessions     map[string]models.Session
}

// New returns an empty store.
func New() *Store {
	return &Store{
		now:          time.Now,
		users:        map[int64]models.User{},
		companies:    map[int64]models.Company{},
		applications: map[int64]models.Application{},
		vehicles:     map[int64]models.Vehicle{},
		documents:    map[int64]models.VehicleDocument{},
		scores:       map[int64]models.CreditScore{},
		tradelines:   map[int64]models.Tradeline{},
		sessions:     map[string]models.Session{},
	}
}

// Close is a no-op.
func (s *Store) Close() {}

func (s *Store) nextID() int64 {
	s.seq++
	return s.seq
}

// ---- users ----

func (s *Store) CreateUser(_ context.Context, user models.User) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == user.Username || strings.EqualFold(u.Email, user.Email) {
			return models.User{}, storage.ErrAlreadyExists
		}
		if user.ProviderSubject != "" && u.AuthProvider == user.AuthProvider && u.ProviderSubject == user.ProviderSubject {
			return models.User{}, storage.ErrAlreadyExists
		}
	}
	if user.Role == "" {
		user.Role = models.RoleWorker
	}
	user.State = strings.ToUpper(user.State)
	user.ID = s.nextID()
	user.CreatedAt = s.now()
	user.UpdatedAt = user.CreatedAt
	s.users[user.ID] = user
	return s.withPermissions(user), nil
}

func (s *Store) GetUser(_ context.Context, id int64) (models.User, error) {
	return s.findUser(func(u models.User) bool { return u.ID == id })
}

func (s *Store) FindByUsername(_ context.Context, username string) (models.User, error) {
	return s.findUser(func(u models.User) bool { return u.Username == username })
}

func (s *Store) FindByEmail(_ context.Context, email string) (models.User, error) {
	return s.findUser(func(u models.User) bool { return strings.EqualFold(u.Email, email) })
}

func (s *Store) FindByUsernameOrEmail(_ context.Context, identifier string) (models.User, error) {
	return s.findUser(func(u models.User) bool {
		return u.Username == identifier || strings.EqualFold(u.Email, identifier)
	})
}

func (s *Store) FindByProvider(_ context.Context, provider, subject string) (models.User, error) {
	return s.findUser(func(u models.User) bool {
		return subject != "" && u.AuthProvider == provider && u.ProviderSubject == subject
	})
}

func (s *Store) LinkProvider(_ context.Context, userID int64, provider, subject string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return storage.ErrNotFound
	}
	u.AuthProvider, u.ProviderSubject, u.UpdatedAt = provider, subject, s.now()
	s.users[userID] = u
	return nil
}

func (s *Store) UpdateProfile(_ context.Context, userID int64, update models.ProfileUpdate) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return models.User{}, storage.ErrNotFound
	}
	setIf(&u.FirstName, update.FirstName)
	setIf(&u.LastName, update.LastName)
	setIf(&u.Phone, update.Phone)
	setIf(&u.City, update.City)
	if update.State != nil {
		u.State = strings.ToUpper(strings.TrimSpace(*update.State))
	}
	u.UpdatedAt = s.now()
	s.users[userID] = u
	return s.withPermissions(u), nil
}

func (s *Store) SetRole(_ context.Context, userID int64, role string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok || rbac.GrantsFor(role) == nil {
		return models.User{}, storage.ErrNotFound
	}
	u.Role, u.UpdatedAt = role, s.now()
	s.users[userID] = u
	return s.withPermissions(u), nil
}

func (s *Store) ListUsers(_ context.Context) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, s.withPermissions(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) findUser(match func(models.User) bool) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if match(u) {
			return s.withPermissions(u), nil
		}
	}
	return models.User{}, storage.ErrNotFound
}

func (s *Store) withPermissions(u models.User) models.User {
	u.Permissions = rbac.GrantsFor(u.Role)
	if u.Permissions == nil {
		u.Permissions = []string{}
	}
	return u
}

func (s *Store) PermissionsForRole(_ context.Context, role string) ([]string, error) {
	grants := rbac.GrantsFor(role)
	if grants == nil {
		return []string{}, nil
	}
	return grants, nil
}

func (s *Store) ListRoles(_ context.Context) ([]models.Role, error) {
	out := make([]models.Role, 0, len(rbac.Roles))
	for _, r := range rbac.Roles {
		out = append(out, models.Role{ID: r.ID, RoleName: r.Name, RoleDescription: r.Description, Permissions: rbac.GrantsFor(r.Name)})
	}
	return out, nil
}

// ---- sessions ----

func (s *Store) CreateSession(_ context.Context, sess models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sess.ID]; ok {
		return storage.ErrAlreadyExists
	}
	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = s.now()
	}
	s.sessions[sess.ID] = sess
	return nil
}

func (s *Store) GetSession(_ context.Context, id string) (models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return models.Session{}, storage.ErrNotFound
	}
	return sess, nil
}

func (s *Store) DeleteSession(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

func (s *Store) DeleteExpiredSessions(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, sess := range s.sessions {
		if sess.Expired(now) {
			delete(s.sessions, id)
			n++
		}
	}
	return n, nil
}

// ---- audit + chat ----

func (s *Store) WriteAudit(_ context.Context, e models.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e.ID = s.nextID()
	e.CreatedAt = s.now()
	s.audit = append(s.audit, e)
	return nil
}

func (s *Store) ListAudit(_ context.Context, filter models.AuditFilter) ([]models.AuditLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	limit := filter.Limit
	if limit <= 0 {
		limit = storage.DefaultAuditLimit
	}
	out := []models.AuditLog{}
	for i := len(s.audit) - 1; i >= 0 && len(out) < limit; i-- {
		e := s.audit[i]
		if filter.UserID != nil && (e.UserID == nil || *e.UserID != *filter.UserID) {
			continue
		}
		if filter.Action != "" && e.Action != filter.Action {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (s *Store) AppendChatMessage(_ context.Context, m models.ChatMessage) (models.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[m.UserID]; !ok {
		return models.ChatMessage{}, storage.ErrNotFound
	}
	m.ID = s.nextID()
	m.CreatedAt = s.now()
	s.chat = append(s.chat, m)
	return m, nil
}

func (s *Store) ListChatMessages(_ context.Context, userID int64, limit int) ([]models.ChatMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var mine []models.ChatMessage
	for _, m := range s.chat {
		if m.UserID == userID {
			mine = append(mine, m)
		}
	}
	if limit > 0 && len(mine) > limit {
		mine = mine[len(mine)-limit:]
	}
	out := make([]models.ChatMessage, len(mine))
	copy(out, mine)
	return out, nil
}

func (s *Store) ClearChat(_ context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.chat[:0]
	for _, m := range s.chat {
		if m.UserID != userID {
			kept = append(kept, m)
		}
	}
	s.chat = kept
	return nil
}

func setIf(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
