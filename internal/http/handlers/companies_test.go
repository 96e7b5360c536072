package handlers

import (
	"context"
	"net/http"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/gigdash/internal/models"
)

func companyBody(slug string) map[string]any {
	return map[string]any{
		"name":           "Acme Couriers",
		"slug":           slug,
		"category":       "delivery",
		"vehicleTypes":   []string{"car", "ebike"},
		"regions":        []string{"tx", "Nationwide"},
		"payModel":       "per-delivery",
		"avgHourlyPay":   "21.50",
		"onboardingDays": 4,
	}
}

func TestCompanyPermissions(t *testing.T) {
	h := newHarness(t, nil)
	worker, workerToken := h.user(models.RoleWorker)
	_, adminToken := h.user(models.RoleAdmin)

	rec := h.do(http.MethodPost, "/api/companies", workerToken, companyBody("acme"))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	denied, err := h.store.ListAudit(context.Background(), models.AuditFilter{UserID: &worker.ID})
	require.NoError(t, err)
	require.Len(t, denied, 1)
	assert.False(t, denied[0].Allowed)
	assert.Equal(t, "companies:manage", denied[0].Details["permission"])

	rec = h.do(http.MethodPost, "/api/companies", adminToken, companyBody("acme"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decodeData[models.Company](t, rec)
	assert.True(t, created.Active)
	assert.Equal(t, []string{"TX", models.RegionNationwide}, created.Regions)
	assert.Equal(t, "21.5", created.AvgHourlyPay.String())

	entries, err := h.store.ListAudit(context.Background(), models.AuditFilter{Action: "company.create"})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, entries[0].Allowed)
	assert.Equal(t, strconv.FormatInt(created.ID, 10), entries[0].ResourceID)

	rec = h.do(http.MethodPost, "/api/companies", adminToken, companyBody("acme"))
	assert.Equal(t, http.StatusConflict, rec.Code)

	bad := companyBody("Bad Slug")
	rec = h.do(http.MethodPost, "/api/companies", adminToken, bad)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	path := "/api/companies/" + strconv.FormatInt(created.ID, 10)
	rec = h.do(http.MethodGet, path, workerToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	update := companyBody("acme")
	update["active"] = false
	rec = h.do(http.MethodPut, path, adminToken, update)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.False(t, decodeData[models.Company](t, rec).Active)

	// Workers only see active companies; admins can ask for all.
	assert.Empty(t, decodeData[[]models.Company](t, h.do(http.MethodGet, "/api/companies?all=true", workerToken, nil)))
	assert.Len(t, decodeData[[]models.Company](t, h.do(http.MethodGet, "/api/companies?all=true", adminToken, nil)), 1)

	assert.Equal(t, http.StatusForbidden, h.do(http.MethodDelete, path, workerToken, nil).Code)
	require.Equal(t, http.StatusOK, h.do(http.MethodDelete, path, adminToken, nil).Code)
	assert.Equal(t, http.StatusNotFound, h.do(http.MethodGet, path, workerToken, nil).Code)
}

func TestCompanyListFilters(t *testing.T) {
	h := newHarness(t, nil)
	_, token := h.user(models.RoleWorker)

	texas := sampleCompany("texas-eats")
	texas.Regions = []string{"TX"}
	h.company(texas)
	rides := sampleCompany("zoom-rides")
	rides.Category = "rideshare"
	h.company(rides)

	got := decodeData[[]models.Company](t, h.do(http.MethodGet, "/api/companies?region=ca", token, nil))
	require.Len(t, got, 1)
	assert.Equal(t, "zoom-rides", got[0].Slug)

	got = decodeData[[]models.Company](t, h.do(http.MethodGet, "/api/companies?category=delivery", token, nil))
	require.Len(t, got, 1)
	assert.Equal(t, "texas-eats", got[0].Slug)

	assert.Equal(t, http.StatusBadRequest, h.do(http.MethodGet, "/api/companies?category=boats", token, nil).Code)
}

func TestAdminRoleManagement(t *testing.T) {
	h := newHarness(t, nil)
	worker, workerToken := h.user(models.RoleWorker)
	admin, adminToken := h.user(models.RoleAdmin)
	rolePath := "/api/admin/users/" + strconv.FormatInt(worker.ID, 10) + "/role"

	assert.Equal(t, http.StatusForbidden, h.do(http.MethodGet, "/api/admin/users", workerToken, nil).Code)
	assert.Equal(t, http.StatusForbidden, h.do(http.MethodPut, rolePath, workerToken, map[string]string{"role": "admin"}).Code)

	rec := h.do(http.MethodGet, "/api/admin/users", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeData[[]models.User](t, rec), 2)

	rec = h.do(http.MethodPut, rolePath, adminToken, map[string]string{"role": "owner"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	selfPath := "/api/admin/users/" + strconv.FormatInt(admin.ID, 10) + "/role"
	rec = h.do(http.MethodPut, selfPath, adminToken, map[string]string{"role": models.RoleWorker})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = h.do(http.MethodPut, "/api/admin/users/999/role", adminToken, map[string]string{"role": models.RoleWorker})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = h.do(http.MethodPut, rolePath, adminToken, map[string]string{"role": models.RolePremiumWorker})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	promoted := decodeData[models.User](t, rec)
	assert.Equal(t, models.RolePremiumWorker, promoted.Role)
	assert.Contains(t, promoted.Permissions, "assistant:use")

	rec = h.do(http.MethodGet, "/api/admin/audit?action=user.role", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	entries := decodeData[[]models.AuditLog](t, rec)
	require.Len(t, entries, 1)
	assert.Equal(t, models.RoleWorker, entries[0].Details["from"])
	assert.Equal(t, models.RolePremiumWorker, entries[0].Details["to"])
	require.NotNil(t, entries[0].UserID)
	assert.Equal(t, admin.ID, *entries[0].UserID)

	rec = h.do(http.MethodGet, "/api/admin/audit?user_id="+strconv.FormatInt(worker.ID, 10), adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	for _, e := range decodeData[[]models.AuditLog](t, rec) {
		assert.False(t, e.Allowed)
	}
	assert.Equal(t, http.StatusBadRequest, h.do(http.MethodGet, "/api/admin/audit?user_id=abc", adminToken, nil).Code)
}
