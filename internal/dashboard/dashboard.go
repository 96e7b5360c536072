// Package dashboard aggregates a worker's records into the overview cards.
package dashboard

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hongminglow/gigdash/internal/models"
)

const (
	// AttentionWindow is how far ahead vehicle paperwork expiry is flagged.
	AttentionWindow = 30 * 24 * time.Hour
	// FollowUpWindow is how far ahead application follow-ups are listed.
	FollowUpWindow = 7 * 24 * time.Hour
)

// Source is the data a dashboard is built from.
type Source interface {
	ListApplications(ctx context.Context, userID int64, status string) ([]models.Application, error)
	ListVehicles(ctx context.Context, userID int64) ([]models.Vehicle, error)
	ListCreditScores(ctx context.Context, userID int64) ([]models.CreditScore, error)
	ListTradelines(ctx context.Context, userID int64) ([]models.Tradeline, error)
}

// Build loads the user's records from src and summarizes them.
func Build(ctx context.Context, src Source, userID int64, now time.Time) (models.DashboardSummary, error) {
	apps, err := src.ListApplications(ctx, userID, "")
	if err != nil {
		return models.DashboardSummary{}, fmt.Errorf("list applications: %w", err)
	}
	vehicles, err := src.ListVehicles(ctx, userID)
	if err != nil {
		return models.DashboardSummary{}, fmt.Errorf("list vehicles: %w", err)
	}
	scores, err := src.ListCreditScores(ctx, userID)
	if err != nil {
		return models.DashboardSummary{}, fmt.Errorf("list credit scores: %w", err)
	}
	tradelines, err := src.ListTradelines(ctx, userID)
	if err != nil {
		return models.DashboardSummary{}, fmt.Errorf("list tradelines: %w", err)
	}
	return Summarize(apps, vehicles, scores, tradelines, now), nil
}

// Summarize builds the dashboard summary at now.
func Summarize(apps []models.Application, vehicles []models.Vehicle, scores []models.CreditScore,
	tradelines []models.Tradeline, now time.Time) models.DashboardSummary {
	out := models.DashboardSummary{
		ApplicationsByStatus: make(map[string]int, len(models.ApplicationStatuses)),
		TotalApplications:    len(apps),
		UpcomingFollowUps:    []models.Application{},
		Credit:               CreditSummary(scores, tradelines),
	}
	for _, s := range models.ApplicationStatuses {
		out.ApplicationsByStatus[s] = 0
	}

	horizon := now.Add(FollowUpWindow)
	for _, a := range apps {
		out.ApplicationsByStatus[a.Status]++
		if a.Engaged() {
			out.ActiveGigs++
		}
		if a.FollowUpAt != nil && !a.FollowUpAt.Before(now) && a.FollowUpAt.Before(horizon) && !a.Reapplicable() {
			out.UpcomingFollowUps = append(out.UpcomingFollowUps, a)
		}
	}
	sort.Slice(out.UpcomingFollowUps, func(i, j int) bool {
		return out.UpcomingFollowUps[i].FollowUpAt.Before(*out.UpcomingFollowUps[j].FollowUpAt)
	})

	for _, v := range vehicles {
		if v.Status == models.VehicleStatusRetired {
			continue
		}
		out.Vehicles++
		if v.NeedsAttention(now, AttentionWindow) {
			out.VehiclesNeedingAttention++
		}
	}
	return out
}

// CreditSummary reduces score history (newest first) and tradelines to the credit card.
func CreditSummary(scores []models.CreditScore, tradelines []models.Tradeline) models.CreditSummary {
	out := models.CreditSummary{TotalLimit: decimal.Zero, TotalBalance: decimal.Zero}
	if len(scores) > 0 {
		sorted := make([]models.CreditScore, len(scores))
		copy(sorted, scores)
		sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].RecordedAt.After(sorted[j].RecordedAt) })
		latest := sorted[0]
		out.LatestScore = &latest
		out.Band = Band(latest.Score)
		if len(sorted) > 1 {
			out.ScoreChange = latest.Score - sorted[1].Score
		}
	}

	for _, t := range tradelines {
		if t.Status != models.TradelineClosed {
			out.OpenTradelines++
		}
		if t.Status == models.TradelineDelinquent {
			out.Delinquent++
		}
		if t.Revolving() {
			out.TotalLimit = out.TotalLimit.Add(t.CreditLimit)
			out.TotalBalance = out.TotalBalance.Add(t.Balance)
		}
	}
	if out.TotalLimit.IsPositive() {
		pct, _ := out.TotalBalance.Div(out.TotalLimit).Mul(decimal.NewFromInt(100)).Round(1).Float64()
		out.UtilizationPct = pct
	}
	return out
}

// Band names the score range.
func Band(score int) string {
	switch {
	case score < 580:
		return "poor"
	case score < 670:
		return "fair"
	case score < 740:
		return "good"
	case score < 800:
		return "very-good"
	default:
		return "exceptional"
	}
}
