// Package assistant implements GigBot, a tool-calling chat assistant over the worker's own data.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hongminglow/gigdash/internal/dashboard"
	"github.com/hongminglow/gigdash/internal/metrics"
	"github.com/hongminglow/gigdash/internal/models"
	"github.com/hongminglow/gigdash/internal/models/dto"
	"github.com/hongminglow/gigdash/internal/recommend"
	"github.com/hongminglow/gigdash/internal/storage"
)

const (
	// HistoryLimit is how many stored messages are replayed to the model.
	HistoryLimit = 20

	fallbackReply = "Sorry, I couldn't finish looking that up. Please try asking in a simpler way."
)

var (
	ErrUnavailable  = errors.New("assistant is not configured")
	ErrEmptyMessage = errors.New("message is required")
)

// Store is the data GigBot reads and the history it keeps.
type Store interface {
	storage.ApplicationStore
	storage.VehicleStore
	storage.CreditStore
	storage.CompanyStore
	storage.ChatStore
}

// Assistant runs chats and recommendations. A nil LLM disables chat only.
type Assistant struct {
	llm       LLM
	store     Store
	logger    *zap.Logger
	maxRounds int
	now       func() time.Time
}

// New builds an Assistant. maxRounds bounds how many tool rounds one chat may take.
func New(llm LLM, store Store, logger *zap.Logger, maxRounds int) *Assistant {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxRounds <= 0 {
		maxRounds = 5
	}
	return &Assistant{llm: llm, store: store, logger: logger, maxRounds: maxRounds, now: time.Now}
}

// Enabled reports whether chat is available.
func (a *Assistant) Enabled() bool {
	return a.llm != nil
}

// Chat answers one user message, letting the model call tools in between.
func (a *Assistant) Chat(ctx context.Context, user models.User, message string) (dto.ChatResponse, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return dto.ChatResponse{}, ErrEmptyMessage
	}
	if a.llm == nil {
		return dto.ChatResponse{}, ErrUnavailable
	}
	started := time.Now()
	defer func() { metrics.ObserveChat(time.Since(started)) }()

	history, err := a.store.ListChatMessages(ctx, user.ID, HistoryLimit)
	if err != nil {
		return dto.ChatResponse{}, fmt.Errorf("load chat history: %w", err)
	}
	msgs := make([]Message, 0, len(history)+1)
	for _, h := range history {
		role := RoleUser
		if h.Role == models.ChatRoleAssistant {
			role = RoleModel
		}
		msgs = append(msgs, Message{Role: role, Text: h.Content})
	}
	msgs = append(msgs, Message{Role: RoleUser, Text: message})

	req := Request{System: a.systemPrompt(user), Tools: Tools}
	var (
		reply string
		used  []string
	)
	for round := 0; ; round++ {
		req.Messages = msgs
		resp, err := a.llm.Generate(ctx, req)
		if err != nil {
			return dto.ChatResponse{}, fmt.Errorf("generate reply: %w", err)
		}
		if len(resp.ToolCalls) == 0 {
			reply = strings.TrimSpace(resp.Text)
			break
		}
		if round >= a.maxRounds {
			a.logger.Warn("assistant tool round limit reached",
				zap.Int64("user_id", user.ID), zap.Int("rounds", round))
			break
		}

		msgs = append(msgs, Message{Role: RoleModel, Text: resp.Text, ToolCalls: resp.ToolCalls})
		results := make([]ToolResult, 0, len(resp.ToolCalls))
		for _, call := range resp.ToolCalls {
			res, err := a.runTool(ctx, user, call)
			metrics.RecordToolCall(call.Name, err == nil)
			if err != nil {
				a.logger.Info("assistant tool failed", zap.String("tool", call.Name), zap.Error(err))
			}
			used = appendUnique(used, call.Name)
			results = append(results, res)
		}
		msgs = append(msgs, Message{Role: RoleTool, ToolResults: results})
	}
	if reply == "" {
		reply = fallbackReply
	}

	if _, err := a.store.AppendChatMessage(ctx, models.ChatMessage{UserID: user.ID, Role: models.ChatRoleUser, Content: message}); err != nil {
		return dto.ChatResponse{}, fmt.Errorf("save message: %w", err)
	}
	if _, err := a.store.AppendChatMessage(ctx, models.ChatMessage{UserID: user.ID, Role: models.ChatRoleAssistant, Content: reply}); err != nil {
		return dto.ChatResponse{}, fmt.Errorf("save reply: %w", err)
	}
	if used == nil {
		used = []string{}
	}
	return dto.ChatResponse{Reply: reply, ToolsUsed: used}, nil
}

// History returns the stored conversation, oldest first.
func (a *Assistant) History(ctx context.Context, userID int64, limit int) ([]models.ChatMessage, error) {
	return a.store.ListChatMessages(ctx, userID, limit)
}

// ClearHistory forgets the user's conversation.
func (a *Assistant) ClearHistory(ctx context.Context, userID int64) error {
	return a.store.ClearChat(ctx, userID)
}

// Recommend ranks companies for user. It does not need an LLM.
func (a *Assistant) Recommend(ctx context.Context, user models.User, limit int) ([]recommend.Recommendation, error) {
	vehicles, err := a.store.ListVehicles(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("list vehicles: %w", err)
	}
	apps, err := a.store.ListApplications(ctx, user.ID, "")
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	companies, err := a.store.ListCompanies(ctx, models.CompanyFilter{ActiveOnly: true})
	if err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}
	metrics.RecordRecommendation()
	return recommend.Rank(recommend.Input{
		User:         user,
		Vehicles:     vehicles,
		Applications: apps,
		Companies:    companies,
	}, limit), nil
}

// Dashboard builds the user's dashboard summary.
func (a *Assistant) Dashboard(ctx context.Context, userID int64) (models.DashboardSummary, error) {
	return dashboard.Build(ctx, a.store, userID, a.now())
}

func (a *Assistant) systemPrompt(user models.User) string {
	var b strings.Builder
	b.WriteString("You are GigBot, an assistant for gig-economy workers. You help track job applications, ")
	b.WriteString("keep vehicles road-legal, understand credit, and pick gig companies to apply to. ")
	b.WriteString("Use the tools to look up the worker's data instead of guessing, and keep answers short. ")
	b.WriteString("Do not give legal or financial advice beyond general guidance.\n")
	fmt.Fprintf(&b, "Worker: %s.", user.DisplayName())
	if user.City != "" || user.State != "" {
		fmt.Fprintf(&b, " Location: %s.", strings.Trim(user.City+", "+user.State, ", "))
	}
	fmt.Fprintf(&b, " Today is %s.", a.now().Format("2006-01-02"))
	return b.String()
}

func appendUnique(list []string, v string) []string {
	for _, s := range list {
		if s == v {
			return list
		}
	}
	return append(list, v)
}
