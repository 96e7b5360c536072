package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/hongminglow/gigdash/internal/models"
	"github.com/hongminglow/gigdash/internal/storage"
)

const userColumns = `u.id, u.username, u.email, u.phone, u.first_name, u.last_name, u.profile_image_url,
	u.city, u.state, u.role, u.auth_provider, u.provider_subject, u.password_hash, u.created_at, u.updated_at,
	(
		SELECT COALESCE(array_agg(p.permission_name ORDER BY p.id), '{}')
		FROM role r
		JOIN role_permissions rp ON rp.role_id = r.id
		JOIN permission p ON rp.permission_id = p.id
		WHERE r.role_name = u.role
	)`

// CreateUser inserts a new user row.
func (s *Store) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	if user.Role == "" {
		user.Role = models.RoleWorker
	}
	const query = `
		WITH u AS (
			INSERT INTO users (username, email, phone, first_name, last_name, profile_image_url, city, state,
				role, auth_provider, provider_subject, password_hash)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			RETURNING *
		)
		SELECT ` + userColumns + ` FROM u;`
	row := s.pool.QueryRow(ctx, query, user.Username, user.Email, user.Phone, user.FirstName, user.LastName,
		user.ProfileImageURL, user.City, strings.ToUpper(user.State), user.Role, user.AuthProvider,
		user.ProviderSubject, user.PasswordHash)
	created, err := scanUser(row)
	if err != nil {
		return models.User{}, mapWriteErr(err)
	}
	return created, nil
}

// GetUser fetches a user by id.
func (s *Store) GetUser(ctx context.Context, id int64) (models.User, error) {
	return s.findUser(ctx, `u.id = $1`, id)
}

// FindByUsername fetches a user by username.
func (s *Store) FindByUsername(ctx context.Context, username string) (models.User, error) {
	return s.findUser(ctx, `u.username = $1`, username)
}

// FindByEmail fetches a user by email address.
func (s *Store) FindByEmail(ctx context.Context, email string) (models.User, error) {
	return s.findUser(ctx, `lower(u.email) = lower($1)`, email)
}

// FindByUsernameOrEmail fetches the first user matching the identifier as username or email.
func (s *Store) FindByUsernameOrEmail(ctx context.Context, identifier string) (models.User, error) {
	return s.findUser(ctx, `u.username = $1 OR lower(u.email) = lower($1)`, identifier)
}

// FindByProvider fetches a user linked to an external identity.
func (s *Store) FindByProvider(ctx context.Context, provider, subject string) (models.User, error) {
	return s.findUser(ctx, `u.auth_provider = $1 AND u.provider_subject = $2`, provider, subject)
}

// LinkProvider attaches an external identity to an existing account.
func (s *Store) LinkProvider(ctx context.Context, userID int64, provider, subject string) error {
	tag, err := s.pool.Exec(ctx, `UPDATE users SET auth_provider = $2, provider_subject = $3, updated_at = NOW() WHERE id = $1`,
		userID, provider, subject)
	return mapWriteErr(expectOne(tag, err))
}

// UpdateProfile applies the non-nil fields of update.
func (s *Store) UpdateProfile(ctx context.Context, userID int64, update models.ProfileUpdate) (models.User, error) {
	var state *string
	if update.State != nil {
		upper := strings.ToUpper(strings.TrimSpace(*update.State))
		state = &upper
	}
	const query = `
		WITH u AS (
			UPDATE users SET
				first_name = COALESCE($2, first_name),
				last_name = COALESCE($3, last_name),
				phone = COALESCE($4, phone),
				city = COALESCE($5, city),
				state = COALESCE($6, state),
				updated_at = NOW()
			WHERE id = $1
			RETURNING *
		)
		SELECT ` + userColumns + ` FROM u;`
	row := s.pool.QueryRow(ctx, query, userID, update.FirstName, update.LastName, update.Phone, update.City, state)
	user, err := scanUser(row)
	if err != nil {
		return models.User{}, mapWriteErr(err)
	}
	return user, nil
}

// SetRole changes a user's role. The role must exist in the role table.
func (s *Store) SetRole(ctx context.Context, userID int64, role string) (models.User, error) {
	const query = `
		WITH u AS (
			UPDATE users SET role = r.role_name, updated_at = NOW()
			FROM role r
			WHERE users.id = $1 AND r.role_name = $2
			RETURNING users.*
		)
		SELECT ` + userColumns + ` FROM u;`
	user, err := scanUser(s.pool.QueryRow(ctx, query, userID, role))
	if err != nil {
		return models.User{}, mapWriteErr(err)
	}
	return user, nil
}

// ListUsers returns every user ordered by id.
func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+userColumns+` FROM users u ORDER BY u.id`)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanUser)
}

func (s *Store) findUser(ctx context.Context, where string, args ...any) (models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users u WHERE ` + where + ` LIMIT 1;`
	return scanUser(s.pool.QueryRow(ctx, query, args...))
}

func scanUser(row pgx.Row) (models.User, error) {
	var user models.User
	if err := row.Scan(&user.ID, &user.Username, &user.Email, &user.Phone, &user.FirstName, &user.LastName,
		&user.ProfileImageURL, &user.City, &user.State, &user.Role, &user.AuthProvider, &user.ProviderSubject,
		&user.PasswordHash, &user.CreatedAt, &user.UpdatedAt, &user.Permissions); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, storage.ErrNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

// PermissionsForRole resolves a role through role_permissions.
func (s *Store) PermissionsForRole(ctx context.Context, role string) ([]string, error) {
	const query = `
		SELECT COALESCE(array_agg(p.permission_name ORDER BY p.id), '{}')
		FROM role r
		JOIN role_permissions rp ON rp.role_id = r.id
		JOIN permission p ON rp.permission_id = p.id
		WHERE r.role_name = $1`
	var perms []string
	if err := s.pool.QueryRow(ctx, query, role).Scan(&perms); err != nil {
		return nil, mapReadErr(err)
	}
	return perms, nil
}

// ListRoles returns every role with its permission names.
func (s *Store) ListRoles(ctx context.Context) ([]models.Role, error) {
	const query = `
		SELECT r.id, r.role_name, COALESCE(r.role_description, ''),
		(
			SELECT COALESCE(array_agg(p.permission_name ORDER BY p.id), '{}')
			FROM role_permissions rp
			JOIN permission p ON rp.permission_id = p.id
			WHERE rp.role_id = r.id
		)
		FROM role r ORDER BY r.id`
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	return collect(rows, func(row pgx.Row) (models.Role, error) {
		var r models.Role
		err := row.Scan(&r.ID, &r.RoleName, &r.RoleDescription, &r.Permissions)
		return r, err
	})
}
