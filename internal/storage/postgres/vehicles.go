package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/hongminglow/gigdash/internal/models"
)

const vehicleColumns = `id, user_id, nickname, make, model, year, type, license_plate, vin, color, mileage,
	insurance_expires_at, registration_expires_at, status, created_at, updated_at`

// ListVehicles returns a user's fleet ordered by creation.
func (s *Store) ListVehicles(ctx context.Context, userID int64) ([]models.Vehicle, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+vehicleColumns+` FROM vehicles WHERE user_id = $1 ORDER BY id`, userID)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanVehicle)
}

// GetVehicle fetches one of the user's vehicles.
func (s *Store) GetVehicle(ctx context.Context, userID, id int64) (models.Vehicle, error) {
	v, err := scanVehicle(s.pool.QueryRow(ctx, `SELECT `+vehicleColumns+` FROM vehicles WHERE user_id = $1 AND id = $2`, userID, id))
	return v, mapReadErr(err)
}

// CreateVehicle inserts a vehicle.
func (s *Store) CreateVehicle(ctx context.Context, v models.Vehicle) (models.Vehicle, error) {
	const query = `INSERT INTO vehicles (user_id, nickname, make, model, year, type, license_plate, vin, color, mileage,
			insurance_expires_at, registration_expires_at, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING ` + vehicleColumns
	created, err := scanVehicle(s.pool.QueryRow(ctx, query, v.UserID, v.Nickname, v.Make, v.Model, v.Year, v.Type,
		v.LicensePlate, v.VIN, v.Color, v.Mileage, v.InsuranceExpiresAt, v.RegistrationExpiresAt, v.Status))
	if err != nil {
		return models.Vehicle{}, mapWriteErr(err)
	}
	return created, nil
}

// UpdateVehicle overwrites the editable columns of a vehicle.
func (s *Store) UpdateVehicle(ctx context.Context, v models.Vehicle) (models.Vehicle, error) {
	const query = `UPDATE vehicles SET nickname = $3, make = $4, model = $5, year = $6, type = $7, license_plate = $8,
			vin = $9, color = $10, mileage = $11, insurance_expires_at = $12, registration_expires_at = $13,
			status = $14, updated_at = NOW()
		WHERE user_id = $1 AND id = $2
		RETURNING ` + vehicleColumns
	updated, err := scanVehicle(s.pool.QueryRow(ctx, query, v.UserID, v.ID, v.Nickname, v.Make, v.Model, v.Year, v.Type,
		v.LicensePlate, v.VIN, v.Color, v.Mileage, v.InsuranceExpiresAt, v.RegistrationExpiresAt, v.Status))
	if err != nil {
		return models.Vehicle{}, mapWriteErr(err)
	}
	return updated, nil
}

// DeleteVehicle removes a vehicle and its document rows.
func (s *Store) DeleteVehicle(ctx context.Context, userID, id int64) error {
	return expectOne(s.pool.Exec(ctx, `DELETE FROM vehicles WHERE user_id = $1 AND id = $2`, userID, id))
}

// VehiclesExpiringBefore lists non-retired vehicles across all users whose paperwork lapses before cutoff.
func (s *Store) VehiclesExpiringBefore(ctx context.Context, cutoff time.Time) ([]models.Vehicle, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+vehicleColumns+` FROM vehicles
		WHERE status <> 'retired' AND (insurance_expires_at < $1 OR registration_expires_at < $1)
		ORDER BY user_id, id`, cutoff)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanVehicle)
}

func scanVehicle(row pgx.Row) (models.Vehicle, error) {
	var v models.Vehicle
	err := row.Scan(&v.ID, &v.UserID, &v.Nickname, &v.Make, &v.Model, &v.Year, &v.Type, &v.LicensePlate, &v.VIN,
		&v.Color, &v.Mileage, &v.InsuranceExpiresAt, &v.RegistrationExpiresAt, &v.Status, &v.CreatedAt, &v.UpdatedAt)
	return v, err
}

const documentColumns = `id, vehicle_id, user_id, kind, file_name, object_key, content_type, size_bytes, uploaded_at`

// ListVehicleDocuments returns documents attached to one of the user's vehicles.
func (s *Store) ListVehicleDocuments(ctx context.Context, userID, vehicleID int64) ([]models.VehicleDocument, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+documentColumns+` FROM vehicle_documents
		WHERE user_id = $1 AND vehicle_id = $2 ORDER BY uploaded_at DESC, id DESC`, userID, vehicleID)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanDocument)
}

// CreateVehicleDocument records an uploaded object.
func (s *Store) CreateVehicleDocument(ctx context.Context, d models.VehicleDocument) (models.VehicleDocument, error) {
	const query = `INSERT INTO vehicle_documents (vehicle_id, user_id, kind, file_name, object_key, content_type, size_bytes)
		SELECT v.id, v.user_id, $3, $4, $5, $6, $7 FROM vehicles v WHERE v.id = $1 AND v.user_id = $2
		RETURNING ` + documentColumns
	created, err := scanDocument(s.pool.QueryRow(ctx, query, d.VehicleID, d.UserID, d.Kind, d.FileName, d.ObjectKey,
		d.ContentType, d.SizeBytes))
	if err != nil {
		return models.VehicleDocument{}, mapWriteErr(err)
	}
	return created, nil
}

// GetVehicleDocument fetches one document.
func (s *Store) GetVehicleDocument(ctx context.Context, userID, vehicleID, id int64) (models.VehicleDocument, error) {
	d, err := scanDocument(s.pool.QueryRow(ctx, `SELECT `+documentColumns+` FROM vehicle_documents
		WHERE user_id = $1 AND vehicle_id = $2 AND id = $3`, userID, vehicleID, id))
	return d, mapReadErr(err)
}

// DeleteVehicleDocument removes a document row. The object itself is deleted by the caller.
func (s *Store) DeleteVehicleDocument(ctx context.Context, userID, vehicleID, id int64) error {
	return expectOne(s.pool.Exec(ctx, `DELETE FROM vehicle_documents WHERE user_id = $1 AND vehicle_id = $2 AND id = $3`,
		userID, vehicleID, id))
}

func scanDocument(row pgx.Row) (models.VehicleDocument, error) {
	var d models.VehicleDocument
	err := row.Scan(&d.ID, &d.VehicleID, &d.UserID, &d.Kind, &d.FileName, &d.ObjectKey, &d.ContentType, &d.SizeBytes, &d.UploadedAt)
	return d, err
}
