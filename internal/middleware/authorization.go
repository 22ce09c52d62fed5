package middleware

import (
	"net/http"
	"slices"

	"go.uber.org/zap"
)

// RoleAdmin is the role allowed to manage the catalog
const RoleAdmin = "admin"

// RequireAdmin middleware ensures the actor has the admin role
func RequireAdmin(logger *zap.Logger) func(http.Handler) http.Handler {
	return RequireRole([]string{RoleAdmin}, logger)
}

// RequireRole middleware ensures the actor has one of the specified roles
func RequireRole(allowedRoles []string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := GetActor(r.Context())
			if !ok {
				logger.Warn("Actor not found in context", zap.String("path", r.URL.Path))
				RespondWithError(w, http.StatusForbidden, CodeForbidden, "insufficient permissions")
				return
			}

			if !slices.Contains(allowedRoles, actor.Role) {
				logger.Warn("Actor role not authorized",
					zap.String("actor_id", actor.ID),
					zap.String("role", actor.Role),
					zap.Strings("allowed_roles", allowedRoles),
				)
				RespondWithError(w, http.StatusForbidden, CodeForbidden, "insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
