package middleware // middleware provides shared request processing for handlers

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/melkan/community-platform/internal/model"
	"github.com/melkan/community-platform/internal/utils"
)

// Context keys populated by JWTAuth for downstream handlers.
const (
	CtxUserID   = "user_id"  // uint64 subject id
	CtxUsername = "username" // string
	CtxRoles    = "roles"    // []model.Role
)

// JWTAuth returns an Echo middleware that validates a Bearer access
// token and injects the token's identity and role claims into the
// request context. A missing or malformed Authorization header is a
// 401 (the caller never authenticated); a token that fails signature
// or expiry checks is a 403. The provided secret must be the
// access-token secret used when issuing tokens.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"message": "missing bearer token"})
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			claims, err := utils.ParseAccessToken(secret, raw)
			if err != nil {
				return c.JSON(http.StatusForbidden, echo.Map{"message": "invalid token"})
			}
			uid, err := claims.UserID()
			if err != nil {
				return c.JSON(http.StatusForbidden, echo.Map{"message": "invalid token"})
			}

			roles := make([]model.Role, len(claims.Roles))
			for i, r := range claims.Roles {
				roles[i] = model.Role(r)
			}

			c.Set(CtxUserID, uid)
			c.Set(CtxUsername, claims.Username)
			c.Set(CtxRoles, roles)
			return next(c)
		}
	}
}

// RolesFromContext returns the role list stored by JWTAuth, or nil when
// the request is unauthenticated.
func RolesFromContext(c echo.Context) []model.Role {
	if v, ok := c.Get(CtxRoles).([]model.Role); ok {
		return v
	}
	return nil
}
