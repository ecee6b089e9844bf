package middleware

import (
	"net/http"
	"slices"
	"strings"

	"wellness-appointments/internal/domain/entity"
	"wellness-appointments/pkg/response"
)

// RequireRole admits sessions whose role is one of allowedRoleIDs.
// Must run after AuthMiddleware, which puts the session in the context.
func RequireRole(allowedRoleIDs ...int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, ok := GetSessionFromContext(r.Context())
			if !ok {
				response.Unauthorized(w, "Role information not found")
				return
			}

			if !slices.Contains(allowedRoleIDs, session.RoleID) {
				response.Forbidden(w, "Only "+roleList(allowedRoleIDs)+" accounts can access this resource")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireEmployer guards the employer console (audit trail)
func RequireEmployer(next http.Handler) http.Handler {
	return RequireRole(entity.RoleIDEmployer)(next)
}

func roleList(roleIDs []int) string {
	names := make([]string, len(roleIDs))
	for i, id := range roleIDs {
		names[i] = entity.RoleName(id)
	}
	return strings.Join(names, " or ")
}
