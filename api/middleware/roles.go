package middleware

import (
	"net/http"

	"github.com/gearsupply/gearsupply-backend/api/responses"
	pkgerrors "github.com/gearsupply/gearsupply-backend/pkg/errors"
	"github.com/gearsupply/gearsupply-backend/pkg/logger"
)

// RequireRole gates a route group to actors holding one of the given roles.
// It assumes Auth already ran and seeded the role into the context.
func RequireRole(logg *logger.Logger, roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor := RoleFromContext(r.Context())
			if _, ok := allowed[actor]; !ok {
				err := pkgerrors.New(pkgerrors.CodeForbidden, "insufficient role")
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
