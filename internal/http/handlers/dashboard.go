package handlers

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/hongminglow/gigdash/internal/dashboard"
	"github.com/hongminglow/gigdash/internal/http/respond"
	"github.com/hongminglow/gigdash/internal/rbac"
)

// DashboardHandler serves the overview cards.
type DashboardHandler struct {
	source dashboard.Source
	guard  Guard
	logger *zap.Logger
	now    func() time.Time
}

func NewDashboardHandler(source dashboard.Source, guard Guard, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{source: source, guard: guard, logger: logger, now: time.Now}
}

func (h *DashboardHandler) Register(mux *http.ServeMux) {
	mux.Handle("GET /api/dashboard", h.guard.With(rbac.ApplicationsRead, h.handle))
}

func (h *DashboardHandler) handle(w http.ResponseWriter, r *http.Request) {
	summary, err := dashboard.Build(r.Context(), h.source, currentUser(r).ID, h.now())
	if err != nil {
		storeError(w, r, h.logger, err, "dashboard")
		return
	}
	respond.JSON(w, http.StatusOK, "ok", summary)
}
