// Package rbac holds the permission table and the authorizer that gates handlers on it.
package rbac

import "github.com/hongminglow/gigdash/internal/models"

const (
	ApplicationsRead  = "applications:read"
	ApplicationsWrite = "applications:write"
	VehiclesRead      = "vehicles:read"
	VehiclesWrite     = "vehicles:write"
	CreditRead        = "credit:read"
	CreditWrite       = "credit:write"
	CompaniesRead     = "companies:read"
	CompaniesManage   = "companies:manage"
	AssistantUse      = "assistant:use"
	UsersManage       = "users:manage"
	AuditRead         = "audit:read"
)

// Permission is one seeded row of the permission table.
type Permission struct {
	ID          int64
	Name        string
	Description string
}

// Permissions is the seeded permission table in id order.
var Permissions = []Permission{
	{1, ApplicationsRead, "View own job applications"},
	{2, ApplicationsWrite, "Create and update own job applications"},
	{3, VehiclesRead, "View own vehicles"},
	{4, VehiclesWrite, "Manage own vehicles and documents"},
	{5, CreditRead, "View own credit data"},
	{6, CreditWrite, "Manage own credit data"},
	{7, CompaniesRead, "Browse the company catalog"},
	{8, CompaniesManage, "Edit the company catalog"},
	{9, AssistantUse, "Chat with GigBot"},
	{10, UsersManage, "Manage user roles"},
	{11, AuditRead, "Read the audit log"},
}

// SeedRole is one seeded row of the role table with its grants.
type SeedRole struct {
	ID          int64
	Name        string
	Description string
	Grants      []string
}

var workerGrants = []string{
	ApplicationsRead, ApplicationsWrite,
	VehiclesRead, VehiclesWrite,
	CreditRead, CreditWrite,
	CompaniesRead, AssistantUse,
}

// Roles is the seeded role table.
var Roles = []SeedRole{
	{1, models.RoleWorker, "Gig worker", workerGrants},
	{2, models.RolePremiumWorker, "Gig worker with premium assistant limits", workerGrants},
	{3, models.RoleAdmin, "Administrator", allPermissionNames()},
}

// GrantsFor returns the seeded permissions of role, or nil for an unknown role.
func GrantsFor(role string) []string {
	for _, r := range Roles {
		if r.Name == role {
			out := make([]string, len(r.Grants))
			copy(out, r.Grants)
			return out
		}
	}
	return nil
}

// PermissionID returns the seeded id of a permission name.
func PermissionID(name string) (int64, bool) {
	for _, p := range Permissions {
		if p.Name == name {
			return p.ID, true
		}
	}
	return 0, false
}

func allPermissionNames() []string {
	out := make([]string, 0, len(Permissions))
	for _, p := range Permissions {
		out = append(out, p.Name)
	}
	return out
}
