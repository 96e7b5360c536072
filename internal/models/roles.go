package models

const (
	RoleWorker        = "worker"
	RolePremiumWorker = "premium-worker"
	RoleAdmin         = "admin"
)

// Role is a named bundle of permissions.
type Role struct {
	ID              int64    `json:"id"`
	RoleName        string   `json:"role"`
	RoleDescription string   `json:"description"`
	Permissions     []string `json:"permissions"`
}

// ValidRole reports whether name is one of the seeded roles.
func ValidRole(name string) bool {
	switch name {
	case RoleWorker, RolePremiumWorker, RoleAdmin:
		return true
	}
	return false
}
