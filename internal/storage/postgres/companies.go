package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/hongminglow/gigdash/internal/models"
)

const companyColumns = `id, name, slug, category, description, website, vehicle_types, regions, pay_model,
	avg_hourly_pay, onboarding_days, requirements, active, created_at, updated_at`

// ListCompanies returns companies matching filter ordered by name.
func (s *Store) ListCompanies(ctx context.Context, filter models.CompanyFilter) ([]models.Company, error) {
	query := `SELECT ` + companyColumns + ` FROM companies
		WHERE ($1 = '' OR category = $1)
		AND ($2 = '' OR upper($2) = ANY(regions) OR 'nationwide' = ANY(regions))
		AND (NOT $3 OR active)
		ORDER BY name`
	rows, err := s.pool.Query(ctx, query, filter.Category, filter.Region, filter.ActiveOnly)
	if err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}
	return collect(rows, scanCompany)
}

// GetCompany fetches one company.
func (s *Store) GetCompany(ctx context.Context, id int64) (models.Company, error) {
	c, err := scanCompany(s.pool.QueryRow(ctx, `SELECT `+companyColumns+` FROM companies WHERE id = $1`, id))
	return c, mapReadErr(err)
}

// CreateCompany inserts a company; the slug must be unique.
func (s *Store) CreateCompany(ctx context.Context, c models.Company) (models.Company, error) {
	const query = `INSERT INTO companies (name, slug, category, description, website, vehicle_types, regions,
			pay_model, avg_hourly_pay, onboarding_days, requirements, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING ` + companyColumns
	created, err := scanCompany(s.pool.QueryRow(ctx, query, companyArgs(c)...))
	if err != nil {
		return models.Company{}, mapWriteErr(err)
	}
	return created, nil
}

// UpdateCompany overwrites every editable column of the company.
func (s *Store) UpdateCompany(ctx context.Context, c models.Company) (models.Company, error) {
	const query = `UPDATE companies SET name = $1, slug = $2, category = $3, description = $4, website = $5,
			vehicle_types = $6, regions = $7, pay_model = $8, avg_hourly_pay = $9, onboarding_days = $10,
			requirements = $11, active = $12, updated_at = NOW()
		WHERE id = $13
		RETURNING ` + companyColumns
	updated, err := scanCompany(s.pool.QueryRow(ctx, query, append(companyArgs(c), c.ID)...))
	if err != nil {
		return models.Company{}, mapWriteErr(err)
	}
	return updated, nil
}

// DeleteCompany removes a company and, by cascade, its applications.
func (s *Store) DeleteCompany(ctx context.Context, id int64) error {
	return expectOne(s.pool.Exec(ctx, `DELETE FROM companies WHERE id = $1`, id))
}

// UpsertCompanyBySlug inserts or refreshes a catalog entry keyed by slug.
func (s *Store) UpsertCompanyBySlug(ctx context.Context, c models.Company) (models.Company, error) {
	const query = `INSERT INTO companies (name, slug, category, description, website, vehicle_types, regions,
			pay_model, avg_hourly_pay, onboarding_days, requirements, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (slug) DO UPDATE SET name = EXCLUDED.name, category = EXCLUDED.category,
			description = EXCLUDED.description, website = EXCLUDED.website, vehicle_types = EXCLUDED.vehicle_types,
			regions = EXCLUDED.regions, pay_model = EXCLUDED.pay_model, avg_hourly_pay = EXCLUDED.avg_hourly_pay,
			onboarding_days = EXCLUDED.onboarding_days, requirements = EXCLUDED.requirements,
			active = EXCLUDED.active, updated_at = NOW()
		RETURNING ` + companyColumns
	out, err := scanCompany(s.pool.QueryRow(ctx, query, companyArgs(c)...))
	if err != nil {
		return models.Company{}, mapWriteErr(err)
	}
	return out, nil
}

func companyArgs(c models.Company) []any {
	return []any{c.Name, c.Slug, c.Category, c.Description, c.Website, nonNil(c.VehicleTypes), nonNil(c.Regions),
		c.PayModel, c.AvgHourlyPay, c.OnboardingDays, nonNil(c.Requirements), c.Active}
}

func scanCompany(row pgx.Row) (models.Company, error) {
	var c models.Company
	err := row.Scan(&c.ID, &c.Name, &c.Slug, &c.Category, &c.Description, &c.Website, &c.VehicleTypes, &c.Regions,
		&c.PayModel, &c.AvgHourlyPay, &c.OnboardingDays, &c.Requirements, &c.Active, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
