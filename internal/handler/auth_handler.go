package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/himtika/proposal-tracker/internal/dto"
	"github.com/himtika/proposal-tracker/internal/middleware"
	"github.com/himtika/proposal-tracker/internal/service"
)

// AuthHandler exposes authentication endpoints.
type AuthHandler struct {
	authService *service.AuthService
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Register handles POST /auth/register requests.
func (h *AuthHandler) Register(c echo.Context) error {
	var req dto.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "invalid payload")
	}

	resp, err := h.authService.Register(c.Request().Context(), req)
	if err != nil {
		return failure(c, err, "unable to register user")
	}

	return Success(c, http.StatusCreated, "registration successful", resp)
}

// Login handles POST /auth/login requests.
func (h *AuthHandler) Login(c echo.Context) error {
	var req dto.LoginRequest
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "invalid payload")
	}

	resp, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return failure(c, err, "unable to authenticate")
	}

	return Success(c, http.StatusOK, "login successful", resp)
}

// Logout handles POST /auth/logout requests.
func (h *AuthHandler) Logout(c echo.Context) error {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		return Error(c, http.StatusUnauthorized, "authentication required")
	}
	tokenID, _ := c.Get(middleware.ContextKeyTokenID).(string)
	expiresAt, ok := c.Get(middleware.ContextKeyTokenExpiry).(time.Time)
	if !ok {
		expiresAt = time.Now().Add(24 * time.Hour)
	}

	h.authService.Logout(c.Request().Context(), userID, tokenID, expiresAt)
	return Success(c, http.StatusOK, "logged out", nil)
}
