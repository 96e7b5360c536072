package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/hongminglow/gigdash/internal/http/respond"
	"github.com/hongminglow/gigdash/internal/models"
	"github.com/hongminglow/gigdash/internal/models/dto"
	"github.com/hongminglow/gigdash/internal/rbac"
	"github.com/hongminglow/gigdash/internal/storage"
)

// AdminStore is what the admin endpoints need.
type AdminStore interface {
	storage.UserStore
	storage.AuditStore
}

// AdminHandler manages user roles and reads the audit log.
type AdminHandler struct {
	store  AdminStore
	guard  Guard
	logger *zap.Logger
}

func NewAdminHandler(store AdminStore, guard Guard, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{store: store, guard: guard, logger: logger}
}

func (h *AdminHandler) Register(mux *http.ServeMux) {
	mux.Handle("GET /api/admin/users", h.guard.With(rbac.UsersManage, h.handleListUsers))
	mux.Handle("PUT /api/admin/users/{id}/role", h.guard.With(rbac.UsersManage, h.handleSetRole))
	mux.Handle("GET /api/admin/audit", h.guard.With(rbac.AuditRead, h.handleAudit))
}

func (h *AdminHandler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.store.ListUsers(r.Context())
	if err != nil {
		storeError(w, r, h.logger, err, "user")
		return
	}
	respond.JSON(w, http.StatusOK, "ok", users)
}

func (h *AdminHandler) handleSetRole(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req dto.RoleChangeRequest
	if !decode(w, r, &req) {
		return
	}
	role := strings.TrimSpace(req.Role)
	if !models.ValidRole(role) {
		respond.Error(w, http.StatusBadRequest, "unknown role")
		return
	}
	if id == currentUser(r).ID && role != models.RoleAdmin {
		respond.Error(w, http.StatusConflict, "admins cannot remove their own admin role")
		return
	}
	before, err := h.store.GetUser(r.Context(), id)
	if err != nil {
		storeError(w, r, h.logger, err, "user")
		return
	}
	updated, err := h.store.SetRole(r.Context(), id, role)
	if err != nil {
		storeError(w, r, h.logger, err, "user")
		return
	}
	h.guard.audit(r, "user.role", "user", id, map[string]any{"from": before.Role, "to": role})
	respond.JSON(w, http.StatusOK, "role updated", updated)
}

func (h *AdminHandler) handleAudit(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := models.AuditFilter{
		Action: q.Get("action"),
		Limit:  queryInt(r, "limit", storage.DefaultAuditLimit),
	}
	if raw := q.Get("user_id"); raw != "" {
		uid, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			respond.Error(w, http.StatusBadRequest, "invalid user_id")
			return
		}
		filter.UserID = &uid
	}
	if filter.Limit > 1000 {
		filter.Limit = 1000
	}
	entries, err := h.store.ListAudit(r.Context(), filter)
	if err != nil {
		storeError(w, r, h.logger, err, "audit log")
		return
	}
	respond.JSON(w, http.StatusOK, "ok", entries)
}
