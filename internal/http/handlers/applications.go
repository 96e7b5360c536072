package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hongminglow/gigdash/internal/http/respond"
	"github.com/hongminglow/gigdash/internal/models"
	"github.com/hongminglow/gigdash/internal/models/dto"
	"github.com/hongminglow/gigdash/internal/rbac"
	"github.com/hongminglow/gigdash/internal/storage"
)

// ApplicationStore is what the applications endpoints need.
type ApplicationStore interface {
	storage.ApplicationStore
	GetCompany(ctx context.Context, id int64) (models.Company, error)
}

// ApplicationHandler tracks a worker's job applications.
type ApplicationHandler struct {
	store  ApplicationStore
	guard  Guard
	logger *zap.Logger
	now    func() time.Time
}

func NewApplicationHandler(store ApplicationStore, guard Guard, logger *zap.Logger) *ApplicationHandler {
	return &ApplicationHandler{store: store, guard: guard, logger: logger, now: time.Now}
}

func (h *ApplicationHandler) Register(mux *http.ServeMux) {
	mux.Handle("GET /api/applications", h.guard.With(rbac.ApplicationsRead, h.handleList))
	mux.Handle("POST /api/applications", h.guard.With(rbac.ApplicationsWrite, h.handleCreate))
	mux.Handle("GET /api/applications/{id}", h.guard.With(rbac.ApplicationsRead, h.handleGet))
	mux.Handle("PATCH /api/applications/{id}", h.guard.With(rbac.ApplicationsWrite, h.handleUpdate))
	mux.Handle("DELETE /api/applications/{id}", h.guard.With(rbac.ApplicationsWrite, h.handleDelete))
}

func (h *ApplicationHandler) handleList(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if status != "" && !models.ValidApplicationStatus(status) {
		respond.Error(w, http.StatusBadRequest, "unknown status")
		return
	}
	apps, err := h.store.ListApplications(r.Context(), currentUser(r).ID, status)
	if err != nil {
		storeError(w, r, h.logger, err, "application")
		return
	}
	respond.JSON(w, http.StatusOK, "ok", apps)
}

func (h *ApplicationHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	app, err := h.store.GetApplication(r.Context(), currentUser(r).ID, id)
	if err != nil {
		storeError(w, r, h.logger, err, "application")
		return
	}
	respond.JSON(w, http.StatusOK, "ok", app)
}

func (h *ApplicationHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req dto.ApplicationRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Status == "" {
		req.Status = models.StatusInterested
	}
	if !models.ValidApplicationStatus(req.Status) {
		respond.Error(w, http.StatusBadRequest, "unknown status")
		return
	}
	if req.CompanyID <= 0 {
		respond.Error(w, http.StatusBadRequest, "companyId is required")
		return
	}
	if _, err := h.store.GetCompany(r.Context(), req.CompanyID); err != nil {
		storeError(w, r, h.logger, err, "company")
		return
	}

	app := models.Application{
		UserID:     currentUser(r).ID,
		CompanyID:  req.CompanyID,
		Status:     req.Status,
		AppliedAt:  req.AppliedAt.Ptr(),
		FollowUpAt: req.FollowUpAt.Ptr(),
		Notes:      strings.TrimSpace(req.Notes),
	}
	h.stampApplied(&app)
	created, err := h.store.CreateApplication(r.Context(), app)
	if err != nil {
		storeError(w, r, h.logger, err, "application")
		return
	}
	respond.JSON(w, http.StatusCreated, "application created", created)
}

func (h *ApplicationHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var patch dto.ApplicationPatch
	if !decode(w, r, &patch) {
		return
	}
	app, err := h.store.GetApplication(r.Context(), currentUser(r).ID, id)
	if err != nil {
		storeError(w, r, h.logger, err, "application")
		return
	}

	if patch.Status != nil && *patch.Status != app.Status {
		to := *patch.Status
		if !models.ValidApplicationStatus(to) {
			respond.Error(w, http.StatusBadRequest, "unknown status")
			return
		}
		if !models.CanTransition(app.Status, to) {
			respond.Errorf(w, http.StatusConflict, "cannot move application from %s to %s", app.Status, to)
			return
		}
		if app.Reapplicable() && to == models.StatusApplied {
			app.AppliedAt = nil
		}
		app.Status = to
	}
	if patch.AppliedAt.Set {
		app.AppliedAt = patch.AppliedAt.Ptr()
	}
	if patch.FollowUpAt.Set {
		app.FollowUpAt = patch.FollowUpAt.Ptr()
	}
	if patch.Notes != nil {
		app.Notes = strings.TrimSpace(*patch.Notes)
	}
	h.stampApplied(&app)

	updated, err := h.store.UpdateApplication(r.Context(), app)
	if err != nil {
		storeError(w, r, h.logger, err, "application")
		return
	}
	respond.JSON(w, http.StatusOK, "application updated", updated)
}

func (h *ApplicationHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.store.DeleteApplication(r.Context(), currentUser(r).ID, id); err != nil {
		storeError(w, r, h.logger, err, "application")
		return
	}
	respond.JSON(w, http.StatusOK, "application deleted", nil)
}

// stampApplied sets AppliedAt once an application has actually been submitted.
func (h *ApplicationHandler) stampApplied(app *models.Application) {
	if app.AppliedAt != nil {
		return
	}
	switch app.Status {
	case models.StatusApplied, models.StatusPending, models.StatusApproved, models.StatusActive:
		now := h.now()
		app.AppliedAt = &now
	}
}
