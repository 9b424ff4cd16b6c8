package rbac

import (
	"net/http"
)

var defaultChecker = NewChecker(nil)

// Default returns the checker the middleware uses.
func Default() *Checker { return defaultChecker }

// Require enforces a single permission for the role on the request context.
func Require(perm string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role := RoleFromContext(r.Context())
			if role == "" || !defaultChecker.Has(role, perm) {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
