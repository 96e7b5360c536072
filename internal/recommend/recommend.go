// Package recommend ranks gig companies for a worker with a weighted sum of heuristic sub-scores.
package recommend

import (
	"math"
	"sort"
	"strings"

	"github.com/hongminglow/gigdash/internal/models"
)

// Weights of each sub-score in the total. They sum to 1.
const (
	WeightRegion          = 0.30
	WeightVehicle         = 0.25
	WeightOnboarding      = 0.15
	WeightPay             = 0.15
	WeightDiversification = 0.15
)

var payModelScores = map[string]float64{
	models.PayModelHourly:      90,
	models.PayModelPerDelivery: 75,
	models.PayModelPerTask:     70,
	models.PayModelPerMile:     65,
	models.PayModelCommission:  55,
}

// Input is everything the scorer needs about one worker.
type Input struct {
	User         models.User
	Vehicles     []models.Vehicle
	Applications []models.Application
	Companies    []models.Company
}

// Breakdown holds the five sub-scores, each in [0, 100].
type Breakdown struct {
	Region          float64 `json:"region"`
	Vehicle         float64 `json:"vehicle"`
	Onboarding      float64 `json:"onboarding"`
	Pay             float64 `json:"pay"`
	Diversification float64 `json:"diversification"`
}

// Total is the weighted sum rounded to one decimal.
func (b Breakdown) Total() float64 {
	sum := WeightRegion*b.Region + WeightVehicle*b.Vehicle + WeightOnboarding*b.Onboarding +
		WeightPay*b.Pay + WeightDiversification*b.Diversification
	return math.Round(sum*10) / 10
}

// Recommendation is one scored company.
type Recommendation struct {
	Company   models.Company `json:"company"`
	Score     float64        `json:"score"`
	Breakdown Breakdown      `json:"breakdown"`
	Reasons   []string       `json:"reasons"`
}

// Rank scores every eligible company and returns the best limit of them (all when limit <= 0).
// Inactive companies and companies with an open application are skipped.
func Rank(in Input, limit int) []Recommendation {
	applied := make(map[int64]models.Application, len(in.Applications))
	perCategory := map[string]int{}
	for _, a := range in.Applications {
		applied[a.CompanyID] = a
		if a.CompanyCategory != "" {
			perCategory[a.CompanyCategory]++
		}
	}
	fleet := vehicleTypes(in.Vehicles)

	out := make([]Recommendation, 0, len(in.Companies))
	for _, c := range in.Companies {
		if !c.Active {
			continue
		}
		if a, ok := applied[c.ID]; ok && !a.Reapplicable() {
			continue
		}
		b := Breakdown{
			Region:          RegionScore(in.User.State, c.Regions),
			Vehicle:         VehicleScore(fleet, c.VehicleTypes),
			Onboarding:      OnboardingScore(c.OnboardingDays),
			Pay:             PayScore(c.PayModel),
			Diversification: DiversificationScore(perCategory[c.Category]),
		}
		out = append(out, Recommendation{
			Company:   c,
			Score:     b.Total(),
			Breakdown: b,
			Reasons:   reasons(c, b),
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Company.Name < out[j].Company.Name
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// RegionScore: 100 when the company serves the worker's state, 80 when nationwide,
// 50 when the worker has not set a state, otherwise 0.
func RegionScore(state string, regions []string) float64 {
	state = strings.TrimSpace(state)
	if state == "" {
		return 50
	}
	nationwide := false
	for _, r := range regions {
		if strings.EqualFold(r, state) {
			return 100
		}
		if r == models.RegionNationwide {
			nationwide = true
		}
	}
	if nationwide {
		return 80
	}
	return 0
}

// VehicleScore: 100 when the fleet has an accepted type, 90 when no vehicle is needed,
// 0 without any vehicle, 20 on a type mismatch.
func VehicleScore(fleet map[string]bool, accepted []string) float64 {
	if len(accepted) == 0 {
		return 90
	}
	if len(fleet) == 0 {
		return 0
	}
	for _, t := range accepted {
		if fleet[t] {
			return 100
		}
	}
	return 20
}

// OnboardingScore rewards companies that activate new workers quickly. Zero means unknown.
func OnboardingScore(days int) float64 {
	switch {
	case days <= 0:
		return 50
	case days <= 3:
		return 100
	case days <= 7:
		return 80
	case days <= 14:
		return 60
	case days <= 30:
		return 40
	default:
		return 20
	}
}

// PayScore looks up the pay model's predictability score.
func PayScore(model string) float64 {
	if s, ok := payModelScores[model]; ok {
		return s
	}
	return 50
}

// DiversificationScore falls as the worker piles up open applications in one category.
func DiversificationScore(sameCategory int) float64 {
	switch {
	case sameCategory <= 0:
		return 100
	case sameCategory == 1:
		return 70
	case sameCategory == 2:
		return 40
	default:
		return 15
	}
}

func vehicleTypes(vehicles []models.Vehicle) map[string]bool {
	out := map[string]bool{}
	for _, v := range vehicles {
		if v.Status != models.VehicleStatusRetired {
			out[v.Type] = true
		}
	}
	return out
}

func reasons(c models.Company, b Breakdown) []string {
	var out []string
	switch {
	case b.Region == 100:
		out = append(out, "operates in your state")
	case b.Region == 80:
		out = append(out, "operates nationwide")
	case b.Region == 0:
		out = append(out, "not available in your state")
	}
	switch {
	case b.Vehicle == 100:
		out = append(out, "your vehicle qualifies")
	case b.Vehicle == 90:
		out = append(out, "no vehicle required")
	case b.Vehicle == 0:
		out = append(out, "requires a vehicle: "+strings.Join(c.VehicleTypes, ", "))
	case b.Vehicle == 20:
		out = append(out, "accepts only "+strings.Join(c.VehicleTypes, ", "))
	}
	if b.Onboarding >= 80 {
		out = append(out, "fast onboarding")
	}
	if b.Pay >= 80 {
		out = append(out, "predictable "+c.PayModel+" pay")
	}
	if b.Diversification == 100 {
		out = append(out, "diversifies into "+c.Category)
	}
	return out
}
