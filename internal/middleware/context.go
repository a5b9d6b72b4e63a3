package middleware

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// Context keys used to store authentication metadata.
const (
	ContextKeyUserID      = "user_id"
	ContextKeyUserEmail   = "user_email"
	ContextKeyUserRole    = "user_role"
	ContextKeyTokenID     = "token_id"
	ContextKeyTokenExpiry = "token_expiry"
	ContextKeyRequestID   = "request_id"
)

// UserIDFromContext returns the authenticated user id, if any.
func UserIDFromContext(c echo.Context) (uuid.UUID, bool) {
	raw, ok := c.Get(ContextKeyUserID).(string)
	if !ok || raw == "" {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

type errorBody struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func deny(c echo.Context, status int, message string) error {
	if status == 0 {
		status = http.StatusForbidden
	}
	return c.JSON(status, errorBody{Status: "error", Message: message})
}
