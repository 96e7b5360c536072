package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hongminglow/gigdash/internal/documents"
	"github.com/hongminglow/gigdash/internal/http/respond"
	"github.com/hongminglow/gigdash/internal/models"
	"github.com/hongminglow/gigdash/internal/models/dto"
	"github.com/hongminglow/gigdash/internal/rbac"
	"github.com/hongminglow/gigdash/internal/storage"
)

const minVehicleYear = 1980

// VehicleHandler manages the worker's fleet. Deleting a vehicle also removes its document objects.
type VehicleHandler struct {
	store  storage.VehicleStore
	blobs  documents.BlobStore
	guard  Guard
	logger *zap.Logger
	now    func() time.Time
}

func NewVehicleHandler(store storage.VehicleStore, blobs documents.BlobStore, guard Guard, logger *zap.Logger) *VehicleHandler {
	return &VehicleHandler{store: store, blobs: blobs, guard: guard, logger: logger, now: time.Now}
}

func (h *VehicleHandler) Register(mux *http.ServeMux) {
	mux.Handle("GET /api/vehicles", h.guard.With(rbac.VehiclesRead, h.handleList))
	mux.Handle("POST /api/vehicles", h.guard.With(rbac.VehiclesWrite, h.handleCreate))
	mux.Handle("GET /api/vehicles/{id}", h.guard.With(rbac.VehiclesRead, h.handleGet))
	mux.Handle("PATCH /api/vehicles/{id}", h.guard.With(rbac.VehiclesWrite, h.handleUpdate))
	mux.Handle("DELETE /api/vehicles/{id}", h.guard.With(rbac.VehiclesWrite, h.handleDelete))
}

func (h *VehicleHandler) handleList(w http.ResponseWriter, r *http.Request) {
	vehicles, err := h.store.ListVehicles(r.Context(), currentUser(r).ID)
	if err != nil {
		storeError(w, r, h.logger, err, "vehicle")
		return
	}
	respond.JSON(w, http.StatusOK, "ok", vehicles)
}

func (h *VehicleHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	vehicle, err := h.store.GetVehicle(r.Context(), currentUser(r).ID, id)
	if err != nil {
		storeError(w, r, h.logger, err, "vehicle")
		return
	}
	respond.JSON(w, http.StatusOK, "ok", vehicle)
}

func (h *VehicleHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req dto.VehicleRequest
	if !decode(w, r, &req) {
		return
	}
	v := models.Vehicle{
		UserID:                currentUser(r).ID,
		Nickname:              strings.TrimSpace(req.Nickname),
		Make:                  strings.TrimSpace(req.Make),
		Model:                 strings.TrimSpace(req.Model),
		Year:                  req.Year,
		Type:                  req.Type,
		LicensePlate:          strings.ToUpper(strings.TrimSpace(req.LicensePlate)),
		VIN:                   strings.ToUpper(strings.TrimSpace(req.VIN)),
		Color:                 strings.TrimSpace(req.Color),
		Mileage:               req.Mileage,
		InsuranceExpiresAt:    req.InsuranceExpiresAt.Ptr(),
		RegistrationExpiresAt: req.RegistrationExpiresAt.Ptr(),
		Status:                req.Status,
	}
	if v.Status == "" {
		v.Status = models.VehicleStatusActive
	}
	if err := h.validate(v); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	created, err := h.store.CreateVehicle(r.Context(), v)
	if err != nil {
		storeError(w, r, h.logger, err, "vehicle")
		return
	}
	respond.JSON(w, http.StatusCreated, "vehicle created", created)
}

func (h *VehicleHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var p dto.VehiclePatch
	if !decode(w, r, &p) {
		return
	}
	v, err := h.store.GetVehicle(r.Context(), currentUser(r).ID, id)
	if err != nil {
		storeError(w, r, h.logger, err, "vehicle")
		return
	}
	trimIf(&v.Nickname, p.Nickname)
	trimIf(&v.Make, p.Make)
	trimIf(&v.Model, p.Model)
	trimIf(&v.Color, p.Color)
	trimIf(&v.Type, p.Type)
	trimIf(&v.Status, p.Status)
	if p.LicensePlate != nil {
		v.LicensePlate = strings.ToUpper(strings.TrimSpace(*p.LicensePlate))
	}
	if p.VIN != nil {
		v.VIN = strings.ToUpper(strings.TrimSpace(*p.VIN))
	}
	if p.Year != nil {
		v.Year = *p.Year
	}
	if p.Mileage != nil {
		v.Mileage = *p.Mileage
	}
	if p.InsuranceExpiresAt.Set {
		v.InsuranceExpiresAt = p.InsuranceExpiresAt.Ptr()
	}
	if p.RegistrationExpiresAt.Set {
		v.RegistrationExpiresAt = p.RegistrationExpiresAt.Ptr()
	}
	if err := h.validate(v); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	updated, err := h.store.UpdateVehicle(r.Context(), v)
	if err != nil {
		storeError(w, r, h.logger, err, "vehicle")
		return
	}
	respond.JSON(w, http.StatusOK, "vehicle updated", updated)
}

func (h *VehicleHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	userID := currentUser(r).ID
	docs, err := h.store.ListVehicleDocuments(r.Context(), userID, id)
	if err != nil {
		storeError(w, r, h.logger, err, "vehicle")
		return
	}
	if err := h.store.DeleteVehicle(r.Context(), userID, id); err != nil {
		storeError(w, r, h.logger, err, "vehicle")
		return
	}
	for _, d := range docs {
		if err := h.blobs.Delete(r.Context(), d.ObjectKey); err != nil {
			h.logger.Warn("delete document object", zap.String("key", d.ObjectKey), zap.Error(err))
		}
	}
	respond.JSON(w, http.StatusOK, "vehicle deleted", nil)
}

func (h *VehicleHandler) validate(v models.Vehicle) error {
	maxYear := h.now().Year() + 1
	switch {
	case v.Make == "" || v.Model == "":
		return fmt.Errorf("make and model are required")
	case v.Year < minVehicleYear || v.Year > maxYear:
		return fmt.Errorf("year must be between %d and %d", minVehicleYear, maxYear)
	case !models.ValidVehicleType(v.Type):
		return fmt.Errorf("unknown vehicle type %q", v.Type)
	case !models.ValidVehicleStatus(v.Status):
		return fmt.Errorf("unknown vehicle status %q", v.Status)
	case v.VIN != "" && len(v.VIN) != 17:
		return fmt.Errorf("vin must be 17 characters")
	case v.Mileage < 0:
		return fmt.Errorf("mileage must not be negative")
	}
	return nil
}

func trimIf(dst *string, v *string) {
	if v != nil {
		*dst = strings.TrimSpace(*v)
	}
}
