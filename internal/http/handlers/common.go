package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/hongminglow/gigdash/internal/http/respond"
	"github.com/hongminglow/gigdash/internal/middleware"
	"github.com/hongminglow/gigdash/internal/models"
	"github.com/hongminglow/gigdash/internal/rbac"
	"github.com/hongminglow/gigdash/internal/storage"
)

const maxJSONBody = 1 << 20

// Guard wraps routes with authentication and, optionally, a permission check.
type Guard struct {
	Authn  *middleware.Authenticator
	Authz  *rbac.Authorizer
	Logger *zap.Logger
}

// With requires a signed-in user holding perm. An empty perm only requires sign-in.
func (g Guard) With(perm string, h http.HandlerFunc) http.Handler {
	var next http.Handler = h
	if perm != "" {
		next = middleware.RequirePermission(g.Authz, g.Logger, perm, next)
	}
	return g.Authn.Require(next)
}

// audit records an allowed mutating action.
func (g Guard) audit(r *http.Request, action, resource string, id int64, details map[string]any) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		return
	}
	act := middleware.AuditAction(r, action, resource, strconv.FormatInt(id, 10))
	for k, v := range details {
		act.Details[k] = v
	}
	g.Authz.Record(r.Context(), &user, act, true)
}

func currentUser(r *http.Request) models.User {
	user, _ := middleware.UserFromContext(r.Context())
	return user
}

// decode reads a JSON body into dst, writing a 400 when it cannot.
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody))
	if err := dec.Decode(dst); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return false
	}
	return true
}

// pathID parses the named path value as a positive id, writing a 400 when it is not one.
func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		respond.Error(w, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return id, true
}

// queryInt reads a positive integer query parameter, returning def when absent or invalid.
func queryInt(r *http.Request, key string, def int) int {
	n, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || n <= 0 {
		return def
	}
	return n
}

// storeError maps storage sentinels to statuses. what names the resource in messages.
func storeError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error, what string) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		respond.Error(w, http.StatusNotFound, what+" not found")
	case errors.Is(err, storage.ErrAlreadyExists):
		respond.Error(w, http.StatusConflict, what+" already exists")
	case errors.Is(err, storage.ErrConflict):
		respond.Error(w, http.StatusConflict, "conflicting "+what+" state")
	default:
		logger.Error("storage error",
			zap.String("resource", what),
			zap.String("request_id", middleware.RequestID(r.Context())),
			zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "failed to process "+what)
	}
}
