package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/melkan/community-platform/internal/model"
)

// RequireRole returns a middleware that rejects requests whose role
// list does not contain the required role with a 403. It assumes
// JWTAuth ran earlier on the chain and stored the list under CtxRoles;
// a request without roles is likewise forbidden.
func RequireRole(required model.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			roles := RolesFromContext(c)
			if !model.HasRole(roles, required) {
				return c.JSON(http.StatusForbidden, echo.Map{"message": "forbidden"})
			}
			return next(c)
		}
	}
}
