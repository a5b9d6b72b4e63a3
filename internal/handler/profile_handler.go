package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/himtika/proposal-tracker/internal/dto"
	"github.com/himtika/proposal-tracker/internal/middleware"
	"github.com/himtika/proposal-tracker/internal/service"
)

// ProfileHandler serves the signed-in member's own profile.
type ProfileHandler struct {
	users *service.UserService
}

// NewProfileHandler constructs a ProfileHandler.
func NewProfileHandler(users *service.UserService) *ProfileHandler {
	return &ProfileHandler{users: users}
}

// Get handles GET /me.
func (h *ProfileHandler) Get(c echo.Context) error {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		return Error(c, http.StatusUnauthorized, "authentication required")
	}
	profile, err := h.users.Profile(c.Request().Context(), userID)
	if err != nil {
		return failure(c, err, "failed to load profile")
	}
	return Success(c, http.StatusOK, "profile retrieved", profile)
}

// Update handles PATCH /me.
func (h *ProfileHandler) Update(c echo.Context) error {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		return Error(c, http.StatusUnauthorized, "authentication required")
	}
	var req dto.UpdateProfileRequest
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "invalid payload")
	}

	profile, err := h.users.UpdateProfile(c.Request().Context(), userID, req)
	if err != nil {
		return failure(c, err, "failed to update profile")
	}
	return Success(c, http.StatusOK, "profile updated", profile)
}
