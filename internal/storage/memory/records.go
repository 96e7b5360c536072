package memory

import (
	"context"
	"sort"
	"time"

	"github.com/hongminglow/gigdash/internal/models"
	"github.com/hongminglow/gigdash/internal/storage"
)

// ---- companies ----

func (s *Store) ListCompanies(_ context.Context, filter models.CompanyFilter) ([]models.Company, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.Company{}
	for _, c := range s.companies {
		if filter.Matches(c) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) GetCompany(_ context.Context, id int64) (models.Company, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.companies[id]
	if !ok {
		return models.Company{}, storage.ErrNotFound
	}
	return c, nil
}

func (s *Store) CreateCompany(_ context.Context, c models.Company) (models.Company, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.companyBySlug(c.Slug); ok {
		return models.Company{}, storage.ErrAlreadyExists
	}
	c.ID = s.nextID()
	c.CreatedAt = s.now()
	c.UpdatedAt = c.CreatedAt
	s.companies[c.ID] = c
	return c, nil
}

func (s *Store) UpdateCompany(_ context.Context, c models.Company) (models.Company, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.companies[c.ID]
	if !ok {
		return models.Company{}, storage.ErrNotFound
	}
	if other, ok := s.companyBySlug(c.Slug); ok && other.ID != c.ID {
		return models.Company{}, storage.ErrAlreadyExists
	}
	c.CreatedAt = existing.CreatedAt
	c.UpdatedAt = s.now()
	s.companies[c.ID] = c
	return c, nil
}

func (s *Store) DeleteCompany(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.companies[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.companies, id)
	for appID, a := range s.applications {
		if a.CompanyID == id {
			delete(s.applications, appID)
		}
	}
	return nil
}

func (s *Store) UpsertCompanyBySlug(ctx context.Context, c models.Company) (models.Company, error) {
	s.mu.Lock()
	existing, ok := s.companyBySlug(c.Slug)
	s.mu.Unlock()
	if !ok {
		return s.CreateCompany(ctx, c)
	}
	c.ID = existing.ID
	return s.UpdateCompany(ctx, c)
}

func (s *Store) companyBySlug(slug string) (models.Company, bool) {
	for _, c := range s.companies {
		if c.Slug == slug {
			return c, true
		}
	}
	return models.Company{}, false
}

// ---- applications ----

func (s *Store) ListApplications(_ context.Context, userID int64, status string) ([]models.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.Application{}
	for _, a := range s.applications {
		if a.UserID == userID && (status == "" || a.Status == status) {
			out = append(out, s.joinCompany(a))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *Store) GetApplication(_ context.Context, userID, id int64) (models.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.applications[id]
	if !ok || a.UserID != userID {
		return models.Application{}, storage.ErrNotFound
	}
	return s.joinCompany(a), nil
}

func (s *Store) CreateApplication(_ context.Context, a models.Application) (models.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.companies[a.CompanyID]; !ok {
		return models.Application{}, storage.ErrNotFound
	}
	for _, existing := range s.applications {
		if existing.UserID == a.UserID && existing.CompanyID == a.CompanyID {
			return models.Application{}, storage.ErrAlreadyExists
		}
	}
	a.ID = s.nextID()
	a.CreatedAt = s.now()
	a.UpdatedAt = a.CreatedAt
	s.applications[a.ID] = a
	return s.joinCompany(a), nil
}

func (s *Store) UpdateApplication(_ context.Context, a models.Application) (models.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.applications[a.ID]
	if !ok || existing.UserID != a.UserID {
		return models.Application{}, storage.ErrNotFound
	}
	existing.Status, existing.AppliedAt, existing.FollowUpAt, existing.Notes = a.Status, a.AppliedAt, a.FollowUpAt, a.Notes
	existing.UpdatedAt = s.now()
	s.applications[a.ID] = existing
	return s.joinCompany(existing), nil
}

func (s *Store) DeleteApplication(_ context.Context, userID, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.applications[id]
	if !ok || a.UserID != userID {
		return storage.ErrNotFound
	}
	delete(s.applications, id)
	return nil
}

func (s *Store) joinCompany(a models.Application) models.Application {
	if c, ok := s.companies[a.CompanyID]; ok {
		a.CompanyName, a.CompanyCategory = c.Name, c.Category
	}
	return a
}

// ---- vehicles ----

func (s *Store) ListVehicles(_ context.Context, userID int64) ([]models.Vehicle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.Vehicle{}
	for _, v := range s.vehicles {
		if v.UserID == userID {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) GetVehicle(_ context.Context, userID, id int64) (models.Vehicle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.vehicles[id]
	if !ok || v.UserID != userID {
		return models.Vehicle{}, storage.ErrNotFound
	}
	return v, nil
}

func (s *Store) CreateVehicle(_ context.Context, v models.Vehicle) (models.Vehicle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v.ID = s.nextID()
	v.CreatedAt = s.now()
	v.UpdatedAt = v.CreatedAt
	s.vehicles[v.ID] = v
	return v, nil
}

func (s *Store) UpdateVehicle(_ context.Context, v models.Vehicle) (models.Vehicle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.vehicles[v.ID]
	if !ok || existing.UserID != v.UserID {
		return models.Vehicle{}, storage.ErrNotFound
	}
	v.CreatedAt = existing.CreatedAt
	v.UpdatedAt = s.now()
	s.vehicles[v.ID] = v
	return v, nil
}

func (s *Store) DeleteVehicle(_ context.Context, userID, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.vehicles[id]
	if !ok || v.UserID != userID {
		return storage.ErrNotFound
	}
	delete(s.vehicles, id)
	for docID, d := range s.documents {
		if d.VehicleID == id {
			delete(s.documents, docID)
		}
	}
	return nil
}

func (s *Store) VehiclesExpiringBefore(_ context.Context, cutoff time.Time) ([]models.Vehicle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.Vehicle{}
	for _, v := range s.vehicles {
		if v.Status != models.VehicleStatusRetired && v.ExpiresWithin(cutoff, 0) {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UserID != out[j].UserID {
			return out[i].UserID < out[j].UserID
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) ListVehicleDocuments(_ context.Context, userID, vehicleID int64) ([]models.VehicleDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.VehicleDocument{}
	for _, d := range s.documents {
		if d.UserID == userID && d.VehicleID == vehicleID {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s *Store) CreateVehicleDocument(_ context.Context, d models.VehicleDocument) (models.VehicleDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.vehicles[d.VehicleID]
	if !ok || v.UserID != d.UserID {
		return models.VehicleDocument{}, storage.ErrNotFound
	}
	d.ID = s.nextID()
	d.UploadedAt = s.now()
	s.documents[d.ID] = d
	return d, nil
}

func (s *Store) GetVehicleDocument(_ context.Context, userID, vehicleID, id int64) (models.VehicleDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.documents[id]
	if !ok || d.UserID != userID || d.VehicleID != vehicleID {
		return models.VehicleDocument{}, storage.ErrNotFound
	}
	return d, nil
}

func (s *Store) DeleteVehicleDocument(_ context.Context, userID, vehicleID, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.documents[id]
	if !ok || d.UserID != userID || d.VehicleID != vehicleID {
		return storage.ErrNotFound
	}
	delete(s.documents, id)
	return nil
}

// ---- credit ----

func (s *Store) ListCreditScores(_ context.Context, userID int64) ([]models.CreditScore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.CreditScore{}
	for _, cs := range s.scores {
		if cs.UserID == userID {
			out = append(out, cs)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].RecordedAt.Equal(out[j].RecordedAt) {
			return out[i].RecordedAt.After(out[j].RecordedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *Store) CreateCreditScore(_ context.Context, cs models.CreditScore) (models.CreditScore, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cs.ID = s.nextID()
	cs.CreatedAt = s.now()
	s.scores[cs.ID] = cs
	return cs, nil
}

func (s *Store) DeleteCreditScore(_ context.Context, userID, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cs, ok := s.scores[id]
	if !ok || cs.UserID != userID {
		return storage.ErrNotFound
	}
	delete(s.scores, id)
	return nil
}

func (s *Store) ListTradelines(_ context.Context, userID int64) ([]models.Tradeline, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.Tradeline{}
	for _, t := range s.tradelines {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) GetTradeline(_ context.Context, userID, id int64) (models.Tradeline, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tradelines[id]
	if !ok || t.UserID != userID {
		return models.Tradeline{}, storage.ErrNotFound
	}
	return t, nil
}

func (s *Store) CreateTradeline(_ context.Context, t models.Tradeline) (models.Tradeline, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t.ID = s.nextID()
	t.CreatedAt = s.now()
	t.UpdatedAt = t.CreatedAt
	s.tradelines[t.ID] = t
	return t, nil
}

func (s *Store) UpdateTradeline(_ context.Context, t models.Tradeline) (models.Tradeline, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.tradelines[t.ID]
	if !ok || existing.UserID != t.UserID {
		return models.Tradeline{}, storage.ErrNotFound
	}
	existing.Creditor, existing.CreditLimit, existing.Balance = t.Creditor, t.CreditLimit, t.Balance
	existing.Status, existing.LastReportedAt = t.Status, t.LastReportedAt
	existing.UpdatedAt = s.now()
	s.tradelines[t.ID] = existing
	return existing, nil
}

func (s *Store) DeleteTradeline(_ context.Context, userID, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tradelines[id]
	if !ok || t.UserID != userID {
		return storage.ErrNotFound
	}
	delete(s.tradelines, id)
	return nil
}
