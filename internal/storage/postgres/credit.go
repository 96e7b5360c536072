package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/hongminglow/gigdash/internal/models"
)

// ListCreditScores returns score snapshots newest first.
func (s *Store) ListCreditScores(ctx context.Context, userID int64) ([]models.CreditScore, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, user_id, score, bureau, model, recorded_at, notes, created_at
		FROM credit_scores WHERE user_id = $1 ORDER BY recorded_at DESC, id DESC`, userID)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanCreditScore)
}

// CreateCreditScore records a score snapshot.
func (s *Store) CreateCreditScore(ctx context.Context, cs models.CreditScore) (models.CreditScore, error) {
	created, err := scanCreditScore(s.pool.QueryRow(ctx, `INSERT INTO credit_scores (user_id, score, bureau, model, recorded_at, notes)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, user_id, score, bureau, model, recorded_at, notes, created_at`,
		cs.UserID, cs.Score, cs.Bureau, cs.Model, cs.RecordedAt, cs.Notes))
	if err != nil {
		return models.CreditScore{}, mapWriteErr(err)
	}
	return created, nil
}

// DeleteCreditScore removes a snapshot.
func (s *Store) DeleteCreditScore(ctx context.Context, userID, id int64) error {
	return expectOne(s.pool.Exec(ctx, `DELETE FROM credit_scores WHERE user_id = $1 AND id = $2`, userID, id))
}

func scanCreditScore(row pgx.Row) (models.CreditScore, error) {
	var cs models.CreditScore
	err := row.Scan(&cs.ID, &cs.UserID, &cs.Score, &cs.Bureau, &cs.Model, &cs.RecordedAt, &cs.Notes, &cs.CreatedAt)
	return cs, err
}

const tradelineColumns = `id, user_id, creditor, account_type, credit_limit, balance, status, opened_at,
	last_reported_at, created_at, updated_at`

// ListTradelines returns a user's credit accounts.
func (s *Store) ListTradelines(ctx context.Context, userID int64) ([]models.Tradeline, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+tradelineColumns+` FROM tradelines WHERE user_id = $1 ORDER BY id`, userID)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanTradeline)
}

// GetTradeline fetches one tradeline.
func (s *Store) GetTradeline(ctx context.Context, userID, id int64) (models.Tradeline, error) {
	t, err := scanTradeline(s.pool.QueryRow(ctx, `SELECT `+tradelineColumns+` FROM tradelines WHERE user_id = $1 AND id = $2`, userID, id))
	return t, mapReadErr(err)
}

// CreateTradeline inserts a tradeline.
func (s *Store) CreateTradeline(ctx context.Context, t models.Tradeline) (models.Tradeline, error) {
	created, err := scanTradeline(s.pool.QueryRow(ctx, `INSERT INTO tradelines (user_id, creditor, account_type, credit_limit,
			balance, status, opened_at, last_reported_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+tradelineColumns,
		t.UserID, t.Creditor, t.AccountType, t.CreditLimit, t.Balance, t.Status, t.OpenedAt, t.LastReportedAt))
	if err != nil {
		return models.Tradeline{}, mapWriteErr(err)
	}
	return created, nil
}

// UpdateTradeline overwrites the editable columns.
func (s *Store) UpdateTradeline(ctx context.Context, t models.Tradeline) (models.Tradeline, error) {
	updated, err := scanTradeline(s.pool.QueryRow(ctx, `UPDATE tradelines SET creditor = $3, credit_limit = $4, balance = $5,
			status = $6, last_reported_at = $7, updated_at = NOW()
		WHERE user_id = $1 AND id = $2
		RETURNING `+tradelineColumns,
		t.UserID, t.ID, t.Creditor, t.CreditLimit, t.Balance, t.Status, t.LastReportedAt))
	if err != nil {
		return models.Tradeline{}, mapWriteErr(err)
	}
	return updated, nil
}

// DeleteTradeline removes a tradeline.
func (s *Store) DeleteTradeline(ctx context.Context, userID, id int64) error {
	return expectOne(s.pool.Exec(ctx, `DELETE FROM tradelines WHERE user_id = $1 AND id = $2`, userID, id))
}

func scanTradeline(row pgx.Row) (models.Tradeline, error) {
	var t models.Tradeline
	err := row.Scan(&t.ID, &t.UserID, &t.Creditor, &t.AccountType, &t.CreditLimit, &t.Balance, &t.Status, &t.OpenedAt,
		&t.LastReportedAt, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}
