package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	authpkg "github.com/himtika/proposal-tracker/internal/auth"
)

// JWT validates bearer tokens and stores user metadata in the request context.
// Tokens listed in revocations are rejected.
func JWT(manager *authpkg.JWTManager, revocations *authpkg.Revocations) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return deny(c, http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				return deny(c, http.StatusUnauthorized, "invalid authorization header")
			}

			claims, err := manager.ParseToken(strings.TrimSpace(parts[1]))
			if err != nil {
				return deny(c, http.StatusUnauthorized, "invalid token")
			}
			if revocations != nil && revocations.IsRevoked(claims.ID) {
				return deny(c, http.StatusUnauthorized, "token revoked")
			}

			c.Set(ContextKeyUserID, claims.Subject)
			c.Set(ContextKeyUserEmail, claims.Email)
			c.Set(ContextKeyUserRole, claims.Role)
			c.Set(ContextKeyTokenID, claims.ID)
			if claims.ExpiresAt != nil {
				c.Set(ContextKeyTokenExpiry, claims.ExpiresAt.Time)
			}

			return next(c)
		}
	}
}
