package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/lims-qc/identity-service/internal/api/middleware"
	"github.com/lims-qc/identity-service/internal/core/domain"
)

// ctxClaims extracts the auth claims injected by the Auth middleware and
// fast-fails before any service call: a missing subject means the middleware
// did not run on this route.
func ctxClaims(c echo.Context) (userID string, role domain.Role, err error) {
	userID, _ = c.Get(middleware.CtxUserID).(string)
	if userID == "" {
		return "", "", echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	role, _ = c.Get(middleware.CtxRole).(domain.Role)
	return userID, role, nil
}

// authorizeSelfOrAdmin is the single authorization policy for record
// mutation: the subject may touch their own record, an admin may touch any.
// Every handler that guards a target id goes through here rather than
// re-implementing the comparison.
func authorizeSelfOrAdmin(c echo.Context, targetID string) (userID string, role domain.Role, err error) {
	userID, role, err = ctxClaims(c)
	if err != nil {
		return "", "", err
	}
	if userID != targetID && role != domain.RoleAdmin {
		return "", "", domain.ErrForbidden
	}
	return userID, role, nil
}
