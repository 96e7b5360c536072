package dto

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Date accepts both RFC 3339 timestamps and plain YYYY-MM-DD dates from form inputs.
type Date struct {
	time.Time
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			d.Time = t
			return nil
		}
	}
	return fmt.Errorf("invalid date %q: expected RFC 3339 or YYYY-MM-DD", s)
}

// Ptr returns nil for a missing date.
func (d *Date) Ptr() *time.Time {
	if d == nil || d.IsZero() {
		return nil
	}
	t := d.Time
	return &t
}

// NullDate is a PATCH field: Set is true whenever the key was present, and an explicit null
// or "" clears the stored date.
type NullDate struct {
	Set  bool
	Date Date
}

func (n *NullDate) UnmarshalJSON(b []byte) error {
	n.Set = true
	n.Date = Date{}
	if string(b) == "null" {
		return nil
	}
	return n.Date.UnmarshalJSON(b)
}

// Ptr returns nil when the field was cleared or absent.
func (n NullDate) Ptr() *time.Time {
	return n.Date.Ptr()
}

type ApplicationRequest struct {
	CompanyID  int64  `json:"companyId"`
	Status     string `json:"status"`
	AppliedAt  *Date  `json:"appliedAt"`
	FollowUpAt *Date  `json:"followUpAt"`
	Notes      string `json:"notes"`
}

type ApplicationPatch struct {
	Status     *string  `json:"status"`
	AppliedAt  NullDate `json:"appliedAt"`
	FollowUpAt NullDate `json:"followUpAt"`
	Notes      *string  `json:"notes"`
}

type VehicleRequest struct {
	Nickname              string `json:"nickname"`
	Make                  string `json:"make"`
	Model                 string `json:"model"`
	Year                  int    `json:"year"`
	Type                  string `json:"type"`
	LicensePlate          string `json:"licensePlate"`
	VIN                   string `json:"vin"`
	Color                 string `json:"color"`
	Mileage               int    `json:"mileage"`
	InsuranceExpiresAt    *Date  `json:"insuranceExpiresAt"`
	RegistrationExpiresAt *Date  `json:"registrationExpiresAt"`
	Status                string `json:"status"`
}

type VehiclePatch struct {
	Nickname              *string  `json:"nickname"`
	Make                  *string  `json:"make"`
	Model                 *string  `json:"model"`
	Year                  *int     `json:"year"`
	Type                  *string  `json:"type"`
	LicensePlate          *string  `json:"licensePlate"`
	VIN                   *string  `json:"vin"`
	Color                 *string  `json:"color"`
	Mileage               *int     `json:"mileage"`
	InsuranceExpiresAt    NullDate `json:"insuranceExpiresAt"`
	RegistrationExpiresAt NullDate `json:"registrationExpiresAt"`
	Status                *string  `json:"status"`
}

type CreditScoreRequest struct {
	Score      int    `json:"score"`
	Bureau     string `json:"bureau"`
	Model      string `json:"model"`
	RecordedAt *Date  `json:"recordedAt"`
	Notes      string `json:"notes"`
}

type TradelineRequest struct {
	Creditor       string          `json:"creditor"`
	AccountType    string          `json:"accountType"`
	CreditLimit    decimal.Decimal `json:"creditLimit"`
	Balance        decimal.Decimal `json:"balance"`
	Status         string          `json:"status"`
	OpenedAt       *Date           `json:"openedAt"`
	LastReportedAt *Date           `json:"lastReportedAt"`
}

type TradelinePatch struct {
	Creditor       *string          `json:"creditor"`
	CreditLimit    *decimal.Decimal `json:"creditLimit"`
	Balance        *decimal.Decimal `json:"balance"`
	Status         *string          `json:"status"`
	LastReportedAt *Date            `json:"lastReportedAt"`
}

type ChatRequest struct {
	Message string `json:"message"`
}

type ChatResponse struct {
	Reply     string   `json:"reply"`
	ToolsUsed []string `json:"toolsUsed"`
}
