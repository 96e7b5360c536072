package models

import "time"

// AuditLog records an access decision or privileged mutation.
type AuditLog struct {
	ID         int64          `json:"id"`
	UserID     *int64         `json:"userId,omitempty"`
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	ResourceID string         `json:"resourceId,omitempty"`
	Allowed    bool           `json:"allowed"`
	IP         string         `json:"ip,omitempty"`
	UserAgent  string         `json:"userAgent,omitempty"`
	Details    map[string]any `json:"details,omitempty"`
	CreatedAt  time.Time      `json:"createdAt"`
}

// AuditFilter narrows audit listings. A zero Limit means the store default.
type AuditFilter struct {
	UserID *int64
	Action string
	Limit  int
}
