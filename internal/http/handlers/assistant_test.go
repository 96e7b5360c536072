package handlers

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/gigdash/internal/assistant"
	"github.com/hongminglow/gigdash/internal/models"
	"github.com/hongminglow/gigdash/internal/recommend"
)

type cannedLLM struct {
	reply string
	err   error
}

func (c cannedLLM) Generate(context.Context, assistant.Request) (assistant.Response, error) {
	return assistant.Response{Text: c.reply}, c.err
}

func TestAssistantChatUnavailable(t *testing.T) {
	h := newHarness(t, nil)
	_, token := h.user(models.RoleWorker)

	rec := h.do(http.MethodPost, "/api/assistant/chat", token, map[string]string{"message": "hello"})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = h.do(http.MethodPost, "/api/assistant/chat", token, map[string]string{"message": "   "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAssistantChatAndHistory(t *testing.T) {
	h := newHarness(t, cannedLLM{reply: "Hi! How can I help?"})
	_, token := h.user(models.RoleWorker)

	rec := h.do(http.MethodPost, "/api/assistant/chat", token, map[string]string{"message": "hello"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decodeData[struct {
		Reply     string   `json:"reply"`
		ToolsUsed []string `json:"toolsUsed"`
	}](t, rec)
	assert.Equal(t, "Hi! How can I help?", resp.Reply)
	assert.Empty(t, resp.ToolsUsed)

	rec = h.do(http.MethodGet, "/api/assistant/history", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	history := decodeData[[]models.ChatMessage](t, rec)
	require.Len(t, history, 2)
	assert.Equal(t, "hello", history[0].Content)

	require.Equal(t, http.StatusOK, h.do(http.MethodDelete, "/api/assistant/history", token, nil).Code)
	assert.Empty(t, decodeData[[]models.ChatMessage](t, h.do(http.MethodGet, "/api/assistant/history", token, nil)))
}

func TestAssistantChatUpstreamError(t *testing.T) {
	h := newHarness(t, cannedLLM{err: errors.New("quota exceeded")})
	_, token := h.user(models.RoleWorker)

	rec := h.do(http.MethodPost, "/api/assistant/chat", token, map[string]string{"message": "hello"})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestRecommendations(t *testing.T) {
	h := newHarness(t, nil)
	user, token := h.user(models.RoleWorker)

	h.company(sampleCompany("near-me"))
	far := sampleCompany("far-away")
	far.Regions = []string{"WA"}
	h.company(far)
	_, err := h.store.CreateVehicle(context.Background(), models.Vehicle{
		UserID: user.ID, Make: "Honda", Model: "Civic", Year: 2020, Type: "car", Status: models.VehicleStatusActive,
	})
	require.NoError(t, err)

	rec := h.do(http.MethodGet, "/api/assistant/recommendations?limit=1", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	recs := decodeData[[]recommend.Recommendation](t, rec)
	require.Len(t, recs, 1)
	assert.Equal(t, "near-me", recs[0].Company.Slug)
	assert.NotEmpty(t, recs[0].Reasons)
}

func TestDashboard(t *testing.T) {
	h := newHarness(t, nil)
	user, token := h.user(models.RoleWorker)
	dashly := h.company(sampleCompany("dashly"))
	zoom := h.company(sampleCompany("zoom"))
	ctx := context.Background()

	followUp := time.Now().Add(48 * time.Hour)
	for _, app := range []models.Application{
		{UserID: user.ID, CompanyID: dashly.ID, Status: models.StatusActive},
		{UserID: user.ID, CompanyID: zoom.ID, Status: models.StatusApplied, FollowUpAt: &followUp},
	} {
		_, err := h.store.CreateApplication(ctx, app)
		require.NoError(t, err)
	}
	expiring := time.Now().Add(10 * 24 * time.Hour)
	_, err := h.store.CreateVehicle(ctx, models.Vehicle{
		UserID: user.ID, Make: "Honda", Model: "Civic", Year: 2020, Type: "car",
		Status: models.VehicleStatusActive, InsuranceExpiresAt: &expiring,
	})
	require.NoError(t, err)

	rec := h.do(http.MethodGet, "/api/dashboard", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	summary := decodeData[models.DashboardSummary](t, rec)
	assert.Equal(t, 2, summary.TotalApplications)
	assert.Equal(t, 1, summary.ActiveGigs)
	assert.Equal(t, 1, summary.ApplicationsByStatus[models.StatusApplied])
	assert.Equal(t, 0, summary.ApplicationsByStatus[models.StatusRejected])
	assert.Equal(t, 1, summary.Vehicles)
	assert.Equal(t, 1, summary.VehiclesNeedingAttention)
	require.Len(t, summary.UpcomingFollowUps, 1)
	assert.Equal(t, models.StatusApplied, summary.UpcomingFollowUps[0].Status)
}
