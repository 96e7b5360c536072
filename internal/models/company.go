package models

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	PayModelHourly      = "hourly"
	PayModelPerDelivery = "per-delivery"
	PayModelPerMile     = "per-mile"
	PayModelCommission  = "commission"
	PayModelPerTask     = "per-task"
)

// RegionNationwide marks a company that operates in every state.
const RegionNationwide = "nationwide"

var CompanyCategories = []string{"delivery", "rideshare", "grocery", "freight", "pet-care", "task"}

// Company is a gig platform a worker can apply to.
type Company struct {
	ID             int64           `json:"id"`
	Name           string          `json:"name"`
	Slug           string          `json:"slug"`
	Category       string          `json:"category"`
	Description    string          `json:"description,omitempty"`
	Website        string          `json:"website,omitempty"`
	VehicleTypes   []string        `json:"vehicleTypes"`
	Regions        []string        `json:"regions"`
	PayModel       string          `json:"payModel"`
	AvgHourlyPay   decimal.Decimal `json:"avgHourlyPay"`
	OnboardingDays int             `json:"onboardingDays"`
	Requirements   []string        `json:"requirements"`
	Active         bool            `json:"active"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// CompanyFilter narrows company listings.
type CompanyFilter struct {
	Category   string
	Region     string
	ActiveOnly bool
}

// Matches applies the filter to a single company.
func (f CompanyFilter) Matches(c Company) bool {
	if f.ActiveOnly && !c.Active {
		return false
	}
	if f.Category != "" && c.Category != f.Category {
		return false
	}
	if f.Region != "" && !c.ServesRegion(f.Region) {
		return false
	}
	return true
}

// ServesRegion reports whether the company operates in the given state code.
func (c Company) ServesRegion(state string) bool {
	for _, r := range c.Regions {
		if r == RegionNationwide || strings.EqualFold(r, state) {
			return true
		}
	}
	return false
}

// ValidCompanyCategory reports whether category is a known company category.
func ValidCompanyCategory(category string) bool {
	return contains(CompanyCategories, category)
}

// ValidPayModel reports whether model is a known pay model.
func ValidPayModel(model string) bool {
	switch model {
	case PayModelHourly, PayModelPerDelivery, PayModelPerMile, PayModelCommission, PayModelPerTask:
		return true
	}
	return false
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

// Validate checks the fields a company needs before it is stored.
func (c Company) Validate() error {
	switch {
	case strings.TrimSpace(c.Name) == "":
		return errors.New("name is required")
	case !slugPattern.MatchString(c.Slug):
		return fmt.Errorf("slug %q must be lowercase letters, digits and dashes", c.Slug)
	case !ValidCompanyCategory(c.Category):
		return fmt.Errorf("unknown category %q", c.Category)
	case !ValidPayModel(c.PayModel):
		return fmt.Errorf("unknown pay model %q", c.PayModel)
	case c.OnboardingDays < 0:
		return errors.New("onboardingDays must not be negative")
	case c.AvgHourlyPay.IsNegative():
		return errors.New("avgHourlyPay must not be negative")
	}
	for _, t := range c.VehicleTypes {
		if !ValidVehicleType(t) {
			return fmt.Errorf("unknown vehicle type %q", t)
		}
	}
	return nil
}

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)
