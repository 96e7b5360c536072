package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/hongminglow/gigdash/internal/models"
	"github.com/hongminglow/gigdash/internal/storage"
)

// WriteAudit appends an audit row.
func (s *Store) WriteAudit(ctx context.Context, e models.AuditLog) error {
	_, err := s.pool.Exec(ctx, `INSERT INTO audit_logs (user_id, action, resource, resource_id, allowed, ip, user_agent, details)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		e.UserID, e.Action, e.Resource, e.ResourceID, e.Allowed, e.IP, e.UserAgent, e.Details)
	return err
}

// ListAudit returns the newest audit rows matching filter.
func (s *Store) ListAudit(ctx context.Context, filter models.AuditFilter) ([]models.AuditLog, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = storage.DefaultAuditLimit
	}
	rows, err := s.pool.Query(ctx, `SELECT id, user_id, action, resource, resource_id, allowed, ip, user_agent, details, created_at
		FROM audit_logs
		WHERE ($1::BIGINT IS NULL OR user_id = $1) AND ($2 = '' OR action = $2)
		ORDER BY created_at DESC, id DESC LIMIT $3`, filter.UserID, filter.Action, limit)
	if err != nil {
		return nil, err
	}
	return collect(rows, func(row pgx.Row) (models.AuditLog, error) {
		var e models.AuditLog
		err := row.Scan(&e.ID, &e.UserID, &e.Action, &e.Resource, &e.ResourceID, &e.Allowed, &e.IP, &e.UserAgent,
			&e.Details, &e.CreatedAt)
		return e, err
	})
}
