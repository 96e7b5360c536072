// Package catalog loads the gig company catalog from YAML and seeds it into the store.
package catalog

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/hongminglow/gigdash/internal/models"
	"github.com/hongminglow/gigdash/internal/storage"
)

//go:embed companies.yaml
var defaultCatalog []byte

type file struct {
	Companies []entry `yaml:"companies"`
}

type entry struct {
	Name           string   `yaml:"name"`
	Slug           string   `yaml:"slug"`
	Category       string   `yaml:"category"`
	Description    string   `yaml:"description"`
	Website        string   `yaml:"website"`
	VehicleTypes   []string `yaml:"vehicle_types"`
	Regions        []string `yaml:"regions"`
	PayModel       string   `yaml:"pay_model"`
	AvgHourlyPay   string   `yaml:"avg_hourly_pay"`
	OnboardingDays int      `yaml:"onboarding_days"`
	Requirements   []string `yaml:"requirements"`
	Inactive       bool     `yaml:"inactive"`
}

// Load reads the catalog at path, or the embedded default when path is empty.
func Load(path string) ([]models.Company, error) {
	data := defaultCatalog
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read catalog: %w", err)
		}
		data = raw
	}
	return Parse(data)
}

// Parse decodes and validates a catalog document.
func Parse(data []byte) ([]models.Company, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if len(f.Companies) == 0 {
		return nil, errors.New("catalog has no companies")
	}

	seen := make(map[string]bool, len(f.Companies))
	out := make([]models.Company, 0, len(f.Companies))
	for i, e := range f.Companies {
		c, err := e.company()
		if err != nil {
			return nil, fmt.Errorf("catalog entry %d (%s): %w", i+1, e.Name, err)
		}
		if seen[c.Slug] {
			return nil, fmt.Errorf("catalog entry %d: duplicate slug %q", i+1, c.Slug)
		}
		seen[c.Slug] = true
		out = append(out, c)
	}
	return out, nil
}

func (e entry) company() (models.Company, error) {
	pay := decimal.Zero
	if s := strings.TrimSpace(e.AvgHourlyPay); s != "" {
		d, err := decimal.NewFromString(s)
		if err != nil {
			return models.Company{}, fmt.Errorf("avg_hourly_pay: %w", err)
		}
		pay = d
	}
	regions := make([]string, 0, len(e.Regions))
	for _, r := range e.Regions {
		r = strings.TrimSpace(r)
		if !strings.EqualFold(r, models.RegionNationwide) {
			r = strings.ToUpper(r)
		} else {
			r = models.RegionNationwide
		}
		regions = append(regions, r)
	}
	c := models.Company{
		Name:           strings.TrimSpace(e.Name),
		Slug:           strings.TrimSpace(e.Slug),
		Category:       e.Category,
		Description:    e.Description,
		Website:        e.Website,
		VehicleTypes:   nonNil(e.VehicleTypes),
		Regions:        regions,
		PayModel:       e.PayModel,
		AvgHourlyPay:   pay,
		OnboardingDays: e.OnboardingDays,
		Requirements:   nonNil(e.Requirements),
		Active:         !e.Inactive,
	}
	return c, c.Validate()
}

// Seed upserts every company by slug and returns how many were written.
func Seed(ctx context.Context, store storage.CompanyStore, companies []models.Company, logger *zap.Logger) (int, error) {
	for i, c := range companies {
		saved, err := store.UpsertCompanyBySlug(ctx, c)
		if err != nil {
			return i, fmt.Errorf("upsert %s: %w", c.Slug, err)
		}
		logger.Debug("company seeded", zap.String("slug", saved.Slug), zap.Int64("id", saved.ID))
	}
	return len(companies), nil
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
