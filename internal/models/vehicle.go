package models

import "time"

const (
	VehicleStatusActive      = "active"
	VehicleStatusMaintenance = "maintenance"
	VehicleStatusRetired     = "retired"
)

var vehicleTypes = []string{"car", "suv", "truck", "van", "motorcycle", "scooter", "ebike", "bicycle"}

var documentKinds = []string{"insurance", "registration", "inspection", "other"}

// Vehicle is one entry of a worker's fleet.
type Vehicle struct {
	ID                    int64      `json:"id"`
	UserID                int64      `json:"userId"`
	Nickname              string     `json:"nickname,omitempty"`
	Make                  string     `json:"make"`
	Model                 string     `json:"model"`
	Year                  int        `json:"year"`
	Type                  string     `json:"type"`
	LicensePlate          string     `json:"licensePlate,omitempty"`
	VIN                   string     `json:"vin,omitempty"`
	Color                 string     `json:"color,omitempty"`
	Mileage               int        `json:"mileage"`
	InsuranceExpiresAt    *time.Time `json:"insuranceExpiresAt,omitempty"`
	RegistrationExpiresAt *time.Time `json:"registrationExpiresAt,omitempty"`
	Status                string     `json:"status"`
	CreatedAt             time.Time  `json:"createdAt"`
	UpdatedAt             time.Time  `json:"updatedAt"`
}

// NeedsAttention reports vehicles in maintenance or with paperwork expiring within window.
func (v Vehicle) NeedsAttention(now time.Time, window time.Duration) bool {
	if v.Status == VehicleStatusRetired {
		return false
	}
	if v.Status == VehicleStatusMaintenance {
		return true
	}
	return v.ExpiresWithin(now, window)
}

// ExpiresWithin reports whether insurance or registration lapses before now+window.
func (v Vehicle) ExpiresWithin(now time.Time, window time.Duration) bool {
	cutoff := now.Add(window)
	for _, t := range []*time.Time{v.InsuranceExpiresAt, v.RegistrationExpiresAt} {
		if t != nil && t.Before(cutoff) {
			return true
		}
	}
	return false
}

// ValidVehicleType reports whether t is a supported vehicle type.
func ValidVehicleType(t string) bool {
	return contains(vehicleTypes, t)
}

// ValidVehicleStatus reports whether s is a supported vehicle status.
func ValidVehicleStatus(s string) bool {
	return s == VehicleStatusActive || s == VehicleStatusMaintenance || s == VehicleStatusRetired
}

// VehicleDocument is an uploaded file attached to a vehicle.
type VehicleDocument struct {
	ID          int64     `json:"id"`
	VehicleID   int64     `json:"vehicleId"`
	UserID      int64     `json:"userId"`
	Kind        string    `json:"kind"`
	FileName    string    `json:"fileName"`
	ObjectKey   string    `json:"-"`
	ContentType string    `json:"contentType"`
	SizeBytes   int64     `json:"sizeBytes"`
	UploadedAt  time.Time `json:"uploadedAt"`
}

// ValidDocumentKind reports whether kind is a supported document kind.
func ValidDocumentKind(kind string) bool {
	return contains(documentKinds, kind)
}
