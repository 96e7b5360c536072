package assistant

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/hongminglow/gigdash/internal/dashboard"
	"github.com/hongminglow/gigdash/internal/models"
)

// Tool names.
const (
	ToolGetApplications    = "get_applications"
	ToolGetVehicles        = "get_vehicles"
	ToolGetCreditSummary   = "get_credit_summary"
	ToolListCompanies      = "list_companies"
	ToolRecommendCompanies = "recommend_companies"
	ToolGetDashboard       = "get_dashboard"
)

const (
	defaultRecommendLimit = 5
	maxRecommendLimit     = 20
)

// Tools is what GigBot may call. Every tool reads data of the chatting user only.
var Tools = []ToolDefinition{
	{
		Name:        ToolGetApplications,
		Description: "List the worker's job applications with company and status.",
		Params: []Param{{
			Name: "status", Type: "string", Description: "Only applications in this status.",
			Enum: models.ApplicationStatuses,
		}},
	},
	{
		Name:        ToolGetVehicles,
		Description: "List the worker's vehicles, including insurance and registration expiry dates.",
	},
	{
		Name:        ToolGetCreditSummary,
		Description: "Latest credit score, band, score change, utilization and tradeline counts.",
	},
	{
		Name:        ToolListCompanies,
		Description: "List active gig companies, optionally filtered by category or state.",
		Params: []Param{
			{Name: "category", Type: "string", Description: "Company category.", Enum: models.CompanyCategories},
			{Name: "region", Type: "string", Description: "Two-letter US state code."},
		},
	},
	{
		Name:        ToolRecommendCompanies,
		Description: "Rank companies the worker has not applied to by region, vehicle fit, onboarding speed, pay model and diversification.",
		Params: []Param{{
			Name: "limit", Type: "integer", Description: fmt.Sprintf("How many to return (default %d, max %d).", defaultRecommendLimit, maxRecommendLimit),
		}},
	},
	{
		Name:        ToolGetDashboard,
		Description: "Dashboard overview: applications per status, active gigs, vehicles needing attention, credit and upcoming follow-ups.",
	},
}

// runTool executes one call and wraps its output, or its error, for the model.
func (a *Assistant) runTool(ctx context.Context, user models.User, call ToolCall) (ToolResult, error) {
	out, err := a.execute(ctx, user, call)
	res := ToolResult{ID: call.ID, Name: call.Name}
	if err != nil {
		res.Response = map[string]any{"error": err.Error()}
		return res, err
	}
	res.Response = map[string]any{"result": out}
	return res, nil
}

func (a *Assistant) execute(ctx context.Context, user models.User, call ToolCall) (any, error) {
	switch call.Name {
	case ToolGetApplications:
		status := stringArg(call.Args, "status")
		if status != "" && !models.ValidApplicationStatus(status) {
			return nil, fmt.Errorf("unknown status %q", status)
		}
		return a.store.ListApplications(ctx, user.ID, status)
	case ToolGetVehicles:
		return a.store.ListVehicles(ctx, user.ID)
	case ToolGetCreditSummary:
		scores, err := a.store.ListCreditScores(ctx, user.ID)
		if err != nil {
			return nil, err
		}
		tradelines, err := a.store.ListTradelines(ctx, user.ID)
		if err != nil {
			return nil, err
		}
		return dashboard.CreditSummary(scores, tradelines), nil
	case ToolListCompanies:
		return a.store.ListCompanies(ctx, models.CompanyFilter{
			Category:   stringArg(call.Args, "category"),
			Region:     strings.ToUpper(stringArg(call.Args, "region")),
			ActiveOnly: true,
		})
	case ToolRecommendCompanies:
		limit := intArg(call.Args, "limit", defaultRecommendLimit)
		if limit <= 0 {
			limit = defaultRecommendLimit
		}
		if limit > maxRecommendLimit {
			limit = maxRecommendLimit
		}
		return a.Recommend(ctx, user, limit)
	case ToolGetDashboard:
		return a.Dashboard(ctx, user.ID)
	default:
		return nil, fmt.Errorf("unknown tool %q", call.Name)
	}
}

func stringArg(args map[string]any, key string) string {
	if v, ok := args[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

// intArg accepts JSON numbers and numeric strings.
func intArg(args map[string]any, key string, def int) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case int64:
		return int(v)
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return def
}
