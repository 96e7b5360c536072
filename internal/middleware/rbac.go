package middleware

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/hongminglow/gigdash/internal/http/respond"
	"github.com/hongminglow/gigdash/internal/rbac"
)

// RequirePermission gates next on perm. It must run after Authenticator.Require.
func RequirePermission(authz *rbac.Authorizer, logger *zap.Logger, perm string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r.Context())
		if !ok {
			respond.Error(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		allowed, err := authz.Check(r.Context(), user, perm, AuditAction(r, "access", r.URL.Path, ""))
		if err != nil {
			logger.Error("permission check", zap.String("permission", perm), zap.Error(err))
			respond.Error(w, http.StatusInternalServerError, "failed to check permissions")
			return
		}
		if !allowed {
			respond.Error(w, http.StatusForbidden, "forbidden")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// AuditAction builds an rbac.Action from the request's method, client address and user agent.
func AuditAction(r *http.Request, name, resource, resourceID string) rbac.Action {
	return rbac.Action{
		Name:       name,
		Resource:   resource,
		ResourceID: resourceID,
		IP:         clientIP(r),
		UserAgent:  r.UserAgent(),
		Details:    map[string]any{"method": r.Method},
	}
}
