package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/himtika/proposal-tracker/internal/entity"
	"github.com/himtika/proposal-tracker/internal/identity"
)

// ActorResolver loads the current state of a signed-in user.
type ActorResolver interface {
	CurrentActor(ctx context.Context, userID uuid.UUID) (entity.Actor, error)
}

// RequireRole enforces that the authenticated request carries one of the given access roles.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			value, ok := c.Get(ContextKeyUserRole).(string)
			if !ok || value == "" {
				return deny(c, http.StatusForbidden, "missing role")
			}
			if !hasRole(value, roles) {
				return deny(c, http.StatusForbidden, "insufficient permissions")
			}
			return next(c)
		}
	}
}

// RequireActorRole checks the stored access role of the signed-in user, so a
// demoted or deleted account loses access before its token expires.
func RequireActorRole(actors ActorResolver, roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID, ok := UserIDFromContext(c)
			if !ok {
				return deny(c, http.StatusUnauthorized, "authentication required")
			}
			actor, err := actors.CurrentActor(c.Request().Context(), userID)
			switch {
			case errors.Is(err, identity.ErrAnonymous):
				return deny(c, http.StatusUnauthorized, "authentication required")
			case err != nil:
				return deny(c, http.StatusServiceUnavailable, "storage unavailable, try again")
			}
			if !hasRole(actor.AccessRole, roles) {
				return deny(c, http.StatusForbidden, "insufficient permissions")
			}
			return next(c)
		}
	}
}

func hasRole(value string, roles []string) bool {
	for _, role := range roles {
		if value == role {
			return true
		}
	}
	return false
}
