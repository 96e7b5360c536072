package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/hongminglow/gigdash/internal/assistant"
	"github.com/hongminglow/gigdash/internal/http/respond"
	"github.com/hongminglow/gigdash/internal/middleware"
	"github.com/hongminglow/gigdash/internal/models/dto"
	"github.com/hongminglow/gigdash/internal/rbac"
)

const (
	defaultHistoryLimit   = 50
	defaultRecommendLimit = 10
	maxRecommendLimit     = 50
)

// AssistantHandler exposes GigBot chat and company recommendations.
type AssistantHandler struct {
	bot     *assistant.Assistant
	limiter *middleware.RateLimiter
	guard   Guard
	logger  *zap.Logger
}

// NewAssistantHandler builds the handler. limiter throttles chat per user.
func NewAssistantHandler(bot *assistant.Assistant, limiter *middleware.RateLimiter, guard Guard, logger *zap.Logger) *AssistantHandler {
	return &AssistantHandler{bot: bot, limiter: limiter, guard: guard, logger: logger}
}

func (h *AssistantHandler) Register(mux *http.ServeMux) {
	mux.Handle("POST /api/assistant/chat", h.guard.With(rbac.AssistantUse, h.limiter.Handler(http.HandlerFunc(h.handleChat)).ServeHTTP))
	mux.Handle("GET /api/assistant/history", h.guard.With(rbac.AssistantUse, h.handleHistory))
	mux.Handle("DELETE /api/assistant/history", h.guard.With(rbac.AssistantUse, h.handleClear))
	mux.Handle("GET /api/assistant/recommendations", h.guard.With(rbac.CompaniesRead, h.handleRecommendations))
}

func (h *AssistantHandler) handleChat(w http.ResponseWriter, r *http.Request) {
	var req dto.ChatRequest
	if !decode(w, r, &req) {
		return
	}
	resp, err := h.bot.Chat(r.Context(), currentUser(r), req.Message)
	switch {
	case err == nil:
		respond.JSON(w, http.StatusOK, "ok", resp)
	case errors.Is(err, assistant.ErrEmptyMessage):
		respond.Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, assistant.ErrUnavailable):
		respond.Error(w, http.StatusServiceUnavailable, "GigBot is not available right now")
	default:
		h.logger.Error("assistant chat", zap.Int64("user_id", currentUser(r).ID),
			zap.String("request_id", middleware.RequestID(r.Context())), zap.Error(err))
		respond.Error(w, http.StatusBadGateway, "GigBot could not answer, please try again")
	}
}

func (h *AssistantHandler) handleHistory(w http.ResponseWriter, r *http.Request) {
	msgs, err := h.bot.History(r.Context(), currentUser(r).ID, queryInt(r, "limit", defaultHistoryLimit))
	if err != nil {
		storeError(w, r, h.logger, err, "chat history")
		return
	}
	respond.JSON(w, http.StatusOK, "ok", msgs)
}

func (h *AssistantHandler) handleClear(w http.ResponseWriter, r *http.Request) {
	if err := h.bot.ClearHistory(r.Context(), currentUser(r).ID); err != nil {
		storeError(w, r, h.logger, err, "chat history")
		return
	}
	respond.JSON(w, http.StatusOK, "chat history cleared", nil)
}

func (h *AssistantHandler) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", defaultRecommendLimit)
	if limit > maxRecommendLimit {
		limit = maxRecommendLimit
	}
	recs, err := h.bot.Recommend(r.Context(), currentUser(r), limit)
	if err != nil {
		storeError(w, r, h.logger, err, "recommendations")
		return
	}
	respond.JSON(w, http.StatusOK, "ok", recs)
}
