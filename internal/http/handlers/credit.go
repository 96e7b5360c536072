package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hongminglow/gigdash/internal/dashboard"
	"github.com/hongminglow/gigdash/internal/http/respond"
	"github.com/hongminglow/gigdash/internal/models"
	"github.com/hongminglow/gigdash/internal/models/dto"
	"github.com/hongminglow/gigdash/internal/rbac"
	"github.com/hongminglow/gigdash/internal/storage"
)

// CreditHandler tracks credit score snapshots and tradelines.
type CreditHandler struct {
	store  storage.CreditStore
	guard  Guard
	logger *zap.Logger
	now    func() time.Time
}

func NewCreditHandler(store storage.CreditStore, guard Guard, logger *zap.Logger) *CreditHandler {
	return &CreditHandler{store: store, guard: guard, logger: logger, now: time.Now}
}

func (h *CreditHandler) Register(mux *http.ServeMux) {
	mux.Handle("GET /api/credit/summary", h.guard.With(rbac.CreditRead, h.handleSummary))
	mux.Handle("GET /api/credit/scores", h.guard.With(rbac.CreditRead, h.handleListScores))
	mux.Handle("POST /api/credit/scores", h.guard.With(rbac.CreditWrite, h.handleCreateScore))
	mux.Handle("DELETE /api/credit/scores/{id}", h.guard.With(rbac.CreditWrite, h.handleDeleteScore))
	mux.Handle("GET /api/credit/tradelines", h.guard.With(rbac.CreditRead, h.handleListTradelines))
	mux.Handle("POST /api/credit/tradelines", h.guard.With(rbac.CreditWrite, h.handleCreateTradeline))
	mux.Handle("PATCH /api/credit/tradelines/{id}", h.guard.With(rbac.CreditWrite, h.handleUpdateTradeline))
	mux.Handle("DELETE /api/credit/tradelines/{id}", h.guard.With(rbac.CreditWrite, h.handleDeleteTradeline))
}

func (h *CreditHandler) handleSummary(w http.ResponseWriter, r *http.Request) {
	userID := currentUser(r).ID
	scores, err := h.store.ListCreditScores(r.Context(), userID)
	if err != nil {
		storeError(w, r, h.logger, err, "credit score")
		return
	}
	tradelines, err := h.store.ListTradelines(r.Context(), userID)
	if err != nil {
		storeError(w, r, h.logger, err, "tradeline")
		return
	}
	respond.JSON(w, http.StatusOK, "ok", dashboard.CreditSummary(scores, tradelines))
}

func (h *CreditHandler) handleListScores(w http.ResponseWriter, r *http.Request) {
	scores, err := h.store.ListCreditScores(r.Context(), currentUser(r).ID)
	if err != nil {
		storeError(w, r, h.logger, err, "credit score")
		return
	}
	respond.JSON(w, http.StatusOK, "ok", scores)
}

func (h *CreditHandler) handleCreateScore(w http.ResponseWriter, r *http.Request) {
	var req dto.CreditScoreRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Model == "" {
		req.Model = "fico"
	}
	switch {
	case req.Score < models.MinCreditScore || req.Score > models.MaxCreditScore:
		respond.Errorf(w, http.StatusBadRequest, "score must be between %d and %d", models.MinCreditScore, models.MaxCreditScore)
		return
	case !models.ValidBureau(req.Bureau):
		respond.Error(w, http.StatusBadRequest, "unknown bureau")
		return
	case !models.ValidScoreModel(req.Model):
		respond.Error(w, http.StatusBadRequest, "unknown score model")
		return
	}
	recorded := h.now()
	if t := req.RecordedAt.Ptr(); t != nil {
		recorded = *t
	}
	created, err := h.store.CreateCreditScore(r.Context(), models.CreditScore{
		UserID:     currentUser(r).ID,
		Score:      req.Score,
		Bureau:     req.Bureau,
		Model:      req.Model,
		RecordedAt: recorded,
		Notes:      strings.TrimSpace(req.Notes),
	})
	if err != nil {
		storeError(w, r, h.logger, err, "credit score")
		return
	}
	respond.JSON(w, http.StatusCreated, "credit score recorded", created)
}

func (h *CreditHandler) handleDeleteScore(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.store.DeleteCreditScore(r.Context(), currentUser(r).ID, id); err != nil {
		storeError(w, r, h.logger, err, "credit score")
		return
	}
	respond.JSON(w, http.StatusOK, "credit score deleted", nil)
}

func (h *CreditHandler) handleListTradelines(w http.ResponseWriter, r *http.Request) {
	tradelines, err := h.store.ListTradelines(r.Context(), currentUser(r).ID)
	if err != nil {
		storeError(w, r, h.logger, err, "tradeline")
		return
	}
	respond.JSON(w, http.StatusOK, "ok", tradelines)
}

func (h *CreditHandler) handleCreateTradeline(w http.ResponseWriter, r *http.Request) {
	var req dto.TradelineRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Status == "" {
		req.Status = models.TradelineOpen
	}
	t := models.Tradeline{
		UserID:         currentUser(r).ID,
		Creditor:       strings.TrimSpace(req.Creditor),
		AccountType:    req.AccountType,
		CreditLimit:    req.CreditLimit,
		Balance:        req.Balance,
		Status:         req.Status,
		OpenedAt:       req.OpenedAt.Ptr(),
		LastReportedAt: req.LastReportedAt.Ptr(),
	}
	if err := validateTradeline(t); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	created, err := h.store.CreateTradeline(r.Context(), t)
	if err != nil {
		storeError(w, r, h.logger, err, "tradeline")
		return
	}
	respond.JSON(w, http.StatusCreated, "tradeline created", created)
}

func (h *CreditHandler) handleUpdateTradeline(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var p dto.TradelinePatch
	if !decode(w, r, &p) {
		return
	}
	t, err := h.store.GetTradeline(r.Context(), currentUser(r).ID, id)
	if err != nil {
		storeError(w, r, h.logger, err, "tradeline")
		return
	}
	trimIf(&t.Creditor, p.Creditor)
	trimIf(&t.Status, p.Status)
	if p.CreditLimit != nil {
		t.CreditLimit = *p.CreditLimit
	}
	if p.Balance != nil {
		t.Balance = *p.Balance
	}
	if p.LastReportedAt != nil {
		t.LastReportedAt = p.LastReportedAt.Ptr()
	}
	if err := validateTradeline(t); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	updated, err := h.store.UpdateTradeline(r.Context(), t)
	if err != nil {
		storeError(w, r, h.logger, err, "tradeline")
		return
	}
	respond.JSON(w, http.StatusOK, "tradeline updated", updated)
}

func (h *CreditHandler) handleDeleteTradeline(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.store.DeleteTradeline(r.Context(), currentUser(r).ID, id); err != nil {
		storeError(w, r, h.logger, err, "tradeline")
		return
	}
	respond.JSON(w, http.StatusOK, "tradeline deleted", nil)
}

func validateTradeline(t models.Tradeline) error {
	switch {
	case t.Creditor == "":
		return fmt.Errorf("creditor is required")
	case !models.ValidAccountType(t.AccountType):
		return fmt.Errorf("unknown account type %q", t.AccountType)
	case !models.ValidTradelineStatus(t.Status):
		return fmt.Errorf("unknown tradeline status %q", t.Status)
	case t.CreditLimit.IsNegative() || t.Balance.IsNegative():
		return fmt.Errorf("credit limit and balance must not be negative")
	}
	return nil
}
