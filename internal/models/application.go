package models

import "time"

const (
	StatusInterested = "interested"
	StatusApplied    = "applied"
	StatusPending    = "pending"
	StatusApproved   = "approved"
	StatusActive     = "active"
	StatusRejected   = "rejected"
	StatusInactive   = "inactive"
)

// ApplicationStatuses lists every status in pipeline order.
var ApplicationStatuses = []string{
	StatusInterested, StatusApplied, StatusPending, StatusApproved, StatusActive, StatusRejected, StatusInactive,
}

// forward moves along the hiring pipeline; rejected and inactive are reachable from anywhere.
var applicationTransitions = map[string][]string{
	StatusInterested: {StatusApplied},
	StatusApplied:    {StatusPending},
	StatusPending:    {StatusApproved},
	StatusApproved:   {StatusActive},
	StatusActive:     {},
	StatusRejected:   {StatusApplied},
	StatusInactive:   {StatusApplied},
}

// Application tracks a worker's progress with one company.
type Application struct {
	ID              int64      `json:"id"`
	UserID          int64      `json:"userId"`
	CompanyID       int64      `json:"companyId"`
	CompanyName     string     `json:"companyName,omitempty"`
	CompanyCategory string     `json:"companyCategory,omitempty"`
	Status          string     `json:"status"`
	AppliedAt       *time.Time `json:"appliedAt,omitempty"`
	FollowUpAt      *time.Time `json:"followUpAt,omitempty"`
	Notes           string     `json:"notes,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// ValidApplicationStatus reports whether status is known.
func ValidApplicationStatus(status string) bool {
	_, ok := applicationTransitions[status]
	return ok
}

// CanTransition reports whether an application may move from one status to another.
func CanTransition(from, to string) bool {
	if from == to {
		return true
	}
	if !ValidApplicationStatus(to) {
		return false
	}
	if to == StatusRejected || to == StatusInactive {
		return true
	}
	return contains(applicationTransitions[from], to)
}

// Reapplicable reports whether a closed application may be restarted.
func (a Application) Reapplicable() bool {
	return a.Status == StatusRejected || a.Status == StatusInactive
}

// Engaged reports whether the worker is approved or already working the gig.
func (a Application) Engaged() bool {
	return a.Status == StatusApproved || a.Status == StatusActive
}
