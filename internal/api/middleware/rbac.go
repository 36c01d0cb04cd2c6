package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/lims-qc/identity-service/internal/core/domain"
)

// RBAC enforces role-based access control. Roles are compared as values from
// the closed domain.Role set, never as raw strings from the request.
func RBAC(allowedRoles ...domain.Role) echo.MiddlewareFunc {
	allowed := make(map[domain.Role]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get(CtxRole).(domain.Role)
			if _, ok := allowed[role]; !ok {
				return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
			}
			return next(c)
		}
	}
}
