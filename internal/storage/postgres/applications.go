package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/hongminglow/gigdash/internal/models"
)

const applicationSelect = `SELECT a.id, a.user_id, a.company_id, c.name, c.category, a.status, a.applied_at,
	a.follow_up_at, a.notes, a.created_at, a.updated_at
	FROM applications a JOIN companies c ON c.id = a.company_id`

// ListApplications returns a user's applications, newest first, optionally by status.
func (s *Store) ListApplications(ctx context.Context, userID int64, status string) ([]models.Application, error) {
	rows, err := s.pool.Query(ctx, applicationSelect+` WHERE a.user_id = $1 AND ($2 = '' OR a.status = $2)
		ORDER BY a.updated_at DESC, a.id DESC`, userID, status)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanApplication)
}

// GetApplication fetches one of the user's applications.
func (s *Store) GetApplication(ctx context.Context, userID, id int64) (models.Application, error) {
	app, err := scanApplication(s.pool.QueryRow(ctx, applicationSelect+` WHERE a.user_id = $1 AND a.id = $2`, userID, id))
	return app, mapReadErr(err)
}

// CreateApplication inserts an application; one per user and company.
func (s *Store) CreateApplication(ctx context.Context, app models.Application) (models.Application, error) {
	var id int64
	err := s.pool.QueryRow(ctx, `INSERT INTO applications (user_id, company_id, status, applied_at, follow_up_at, notes)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		app.UserID, app.CompanyID, app.Status, app.AppliedAt, app.FollowUpAt, app.Notes).Scan(&id)
	if err != nil {
		return models.Application{}, mapWriteErr(err)
	}
	return s.GetApplication(ctx, app.UserID, id)
}

// UpdateApplication overwrites status, dates and notes.
func (s *Store) UpdateApplication(ctx context.Context, app models.Application) (models.Application, error) {
	tag, err := s.pool.Exec(ctx, `UPDATE applications SET status = $3, applied_at = $4, follow_up_at = $5, notes = $6,
		updated_at = NOW() WHERE user_id = $1 AND id = $2`,
		app.UserID, app.ID, app.Status, app.AppliedAt, app.FollowUpAt, app.Notes)
	if err := expectOne(tag, err); err != nil {
		return models.Application{}, mapWriteErr(err)
	}
	return s.GetApplication(ctx, app.UserID, app.ID)
}

// DeleteApplication removes one of the user's applications.
func (s *Store) DeleteApplication(ctx context.Context, userID, id int64) error {
	return expectOne(s.pool.Exec(ctx, `DELETE FROM applications WHERE user_id = $1 AND id = $2`, userID, id))
}

func scanApplication(row pgx.Row) (models.Application, error) {
	var a models.Application
	err := row.Scan(&a.ID, &a.UserID, &a.CompanyID, &a.CompanyName, &a.CompanyCategory, &a.Status, &a.AppliedAt,
		&a.FollowUpAt, &a.Notes, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}
