package rbac

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/hongminglow/gigdash/internal/metrics"
	"github.com/hongminglow/gigdash/internal/models"
	"github.com/hongminglow/gigdash/internal/storage"
)

// Action describes what is being attempted, for the audit trail.
type Action struct {
	Name       string
	Resource   string
	ResourceID string
	IP         string
	UserAgent  string
	Details    map[string]any
}

// Authorizer checks permissions against the role table and writes the audit log.
type Authorizer struct {
	roles  storage.RoleStore
	audit  storage.AuditStore
	logger *zap.Logger
}

// NewAuthorizer creates an authorizer.
func NewAuthorizer(roles storage.RoleStore, audit storage.AuditStore, logger *zap.Logger) *Authorizer {
	return &Authorizer{roles: roles, audit: audit, logger: logger}
}

// Permissions returns the user's permission set, looking the role up when it was not preloaded.
func (a *Authorizer) Permissions(ctx context.Context, user models.User) ([]string, error) {
	if user.Permissions != nil {
		return user.Permissions, nil
	}
	perms, err := a.roles.PermissionsForRole(ctx, user.Role)
	if err != nil {
		return nil, fmt.Errorf("lookup permissions for role %q: %w", user.Role, err)
	}
	return perms, nil
}

// Check reports whether user holds perm. Denials are audited.
func (a *Authorizer) Check(ctx context.Context, user models.User, perm string, act Action) (bool, error) {
	perms, err := a.Permissions(ctx, user)
	if err != nil {
		return false, err
	}
	for _, p := range perms {
		if p == perm {
			metrics.RecordAccessDecision(perm, true)
			return true, nil
		}
	}
	metrics.RecordAccessDecision(perm, false)
	if act.Details == nil {
		act.Details = map[string]any{}
	}
	act.Details["permission"] = perm
	a.Record(ctx, &user, act, false)
	return false, nil
}

// Record writes an audit entry. Failures are logged and swallowed.
func (a *Authorizer) Record(ctx context.Context, user *models.User, act Action, allowed bool) {
	entry := models.AuditLog{
		Action:     act.Name,
		Resource:   act.Resource,
		ResourceID: act.ResourceID,
		Allowed:    allowed,
		IP:         act.IP,
		UserAgent:  act.UserAgent,
		Details:    act.Details,
	}
	if user != nil && user.ID != 0 {
		id := user.ID
		entry.UserID = &id
	}
	if err := a.audit.WriteAudit(ctx, entry); err != nil {
		a.logger.Warn("audit write failed",
			zap.String("action", act.Name),
			zap.String("resource", act.Resource),
			zap.Error(err))
	}
}
