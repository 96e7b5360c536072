package handlers

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/hongminglow/gigdash/internal/http/respond"
	"github.com/hongminglow/gigdash/internal/models"
	"github.com/hongminglow/gigdash/internal/rbac"
	"github.com/hongminglow/gigdash/internal/storage"
)

// CompanyHandler serves the gig company catalog. Writes are admin-only and audited.
type CompanyHandler struct {
	store  storage.CompanyStore
	guard  Guard
	logger *zap.Logger
}

func NewCompanyHandler(store storage.CompanyStore, guard Guard, logger *zap.Logger) *CompanyHandler {
	return &CompanyHandler{store: store, guard: guard, logger: logger}
}

func (h *CompanyHandler) Register(mux *http.ServeMux) {
	mux.Handle("GET /api/companies", h.guard.With(rbac.CompaniesRead, h.handleList))
	mux.Handle("GET /api/companies/{id}", h.guard.With(rbac.CompaniesRead, h.handleGet))
	mux.Handle("POST /api/companies", h.guard.With(rbac.CompaniesManage, h.handleCreate))
	mux.Handle("PUT /api/companies/{id}", h.guard.With(rbac.CompaniesManage, h.handleUpdate))
	mux.Handle("DELETE /api/companies/{id}", h.guard.With(rbac.CompaniesManage, h.handleDelete))
}

func (h *CompanyHandler) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := models.CompanyFilter{
		Category:   q.Get("category"),
		Region:     strings.ToUpper(strings.TrimSpace(q.Get("region"))),
		ActiveOnly: q.Get("all") != "true" || !currentUser(r).HasPermission(rbac.CompaniesManage),
	}
	if filter.Category != "" && !models.ValidCompanyCategory(filter.Category) {
		respond.Error(w, http.StatusBadRequest, "unknown category")
		return
	}
	companies, err := h.store.ListCompanies(r.Context(), filter)
	if err != nil {
		storeError(w, r, h.logger, err, "company")
		return
	}
	respond.JSON(w, http.StatusOK, "ok", companies)
}

func (h *CompanyHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	company, err := h.store.GetCompany(r.Context(), id)
	if err != nil {
		storeError(w, r, h.logger, err, "company")
		return
	}
	respond.JSON(w, http.StatusOK, "ok", company)
}

func (h *CompanyHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	company := models.Company{Active: true}
	if !decode(w, r, &company) {
		return
	}
	company.ID = 0
	if !h.prepare(w, &company) {
		return
	}
	created, err := h.store.CreateCompany(r.Context(), company)
	if err != nil {
		storeError(w, r, h.logger, err, "company")
		return
	}
	h.guard.audit(r, "company.create", "company", created.ID, map[string]any{"slug": created.Slug})
	respond.JSON(w, http.StatusCreated, "company created", created)
}

func (h *CompanyHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	company := models.Company{Active: true}
	if !decode(w, r, &company) {
		return
	}
	company.ID = id
	if !h.prepare(w, &company) {
		return
	}
	updated, err := h.store.UpdateCompany(r.Context(), company)
	if err != nil {
		storeError(w, r, h.logger, err, "company")
		return
	}
	h.guard.audit(r, "company.update", "company", id, map[string]any{"slug": updated.Slug})
	respond.JSON(w, http.StatusOK, "company updated", updated)
}

func (h *CompanyHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.store.DeleteCompany(r.Context(), id); err != nil {
		storeError(w, r, h.logger, err, "company")
		return
	}
	h.guard.audit(r, "company.delete", "company", id, nil)
	respond.JSON(w, http.StatusOK, "company deleted", nil)
}

// prepare normalises list fields and region codes, then validates.
func (h *CompanyHandler) prepare(w http.ResponseWriter, c *models.Company) bool {
	c.Name = strings.TrimSpace(c.Name)
	c.Slug = strings.TrimSpace(c.Slug)
	for i, region := range c.Regions {
		if strings.EqualFold(region, models.RegionNationwide) {
			c.Regions[i] = models.RegionNationwide
		} else {
			c.Regions[i] = strings.ToUpper(strings.TrimSpace(region))
		}
	}
	if c.Regions == nil {
		c.Regions = []string{}
	}
	if c.VehicleTypes == nil {
		c.VehicleTypes = []string{}
	}
	if c.Requirements == nil {
		c.Requirements = []string{}
	}
	if err := c.Validate(); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}
