package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/himtika/proposal-tracker/internal/entity"
	"github.com/himtika/proposal-tracker/internal/identity"
	"github.com/himtika/proposal-tracker/internal/middleware"
	"github.com/himtika/proposal-tracker/internal/outreach"
	"github.com/himtika/proposal-tracker/internal/repository"
	"github.com/himtika/proposal-tracker/internal/service"
)

// ActorSource resolves the signed-in user into an actor.
type ActorSource interface {
	CurrentActor(ctx context.Context, userID uuid.UUID) (entity.Actor, error)
}

func currentActor(c echo.Context, actors ActorSource) (entity.Actor, error) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		return entity.Actor{}, identity.ErrAnonymous
	}
	return actors.CurrentActor(c.Request().Context(), userID)
}

// failure renders err with the status its kind maps to. Unclassified errors
// use fallback as the message.
func failure(c echo.Context, err error, fallback string) error {
	var (
		validationErr *outreach.ValidationError
		inputErr      service.InputError
		csvErr        service.CSVValidationError
		persistErr    *repository.PersistenceError
	)

	switch {
	case errors.As(err, &validationErr):
		return ErrorWithData(c, http.StatusUnprocessableEntity, validationErr.Error(),
			map[string]string{"reason": string(validationErr.Reason)})
	case errors.As(err, &inputErr), errors.As(err, &csvErr):
		return Error(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrInvalidUserID),
		errors.Is(err, service.ErrInvalidRole),
		errors.Is(err, service.ErrInvalidBackup),
		errors.Is(err, outreach.ErrUnknownChannel),
		errors.Is(err, outreach.ErrUnknownTransition):
		return Error(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, identity.ErrAnonymous):
		return Error(c, http.StatusUnauthorized, "authentication required")
	case errors.Is(err, service.ErrInvalidCredentials):
		return Error(c, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, service.ErrForbidden):
		return Error(c, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrCompanyNotFound):
		return Error(c, http.StatusNotFound, "company not found")
	case errors.Is(err, repository.ErrUserNotFound):
		return Error(c, http.StatusNotFound, "user not found")
	case errors.Is(err, service.ErrConflict):
		return Error(c, http.StatusConflict, "company was changed by someone else, reload and retry")
	case errors.Is(err, service.ErrEmailAlreadyExists), errors.Is(err, repository.ErrEmailDuplicate):
		return Error(c, http.StatusConflict, "email already exists")
	case errors.Is(err, repository.ErrCompanyExists):
		return Error(c, http.StatusConflict, "company already exists")
	case errors.Is(err, service.ErrIncompleteProfile), errors.Is(err, service.ErrChannelUnavailable):
		return Error(c, http.StatusUnprocessableEntity, err.Error())
	case errors.As(err, &persistErr):
		return Error(c, http.StatusServiceUnavailable, "storage unavailable, try again")
	default:
		return Error(c, http.StatusInternalServerError, fallback)
	}
}

func parseIntDefault(input string, fallback int) int {
	if input == "" {
		return fallback
	}
	if value, err := strconv.Atoi(input); err == nil {
		return value
	}
	return fallback
}

// expectedVersion reads the optimistic version from If-Match, falling back to body.
func expectedVersion(c echo.Context, body int64) (int64, error) {
	raw := strings.TrimSpace(c.Request().Header.Get("If-Match"))
	if raw == "" || raw == "*" {
		return body, nil
	}
	raw = strings.Trim(strings.TrimPrefix(raw, "W/"), `"`)
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v < 0 {
		return 0, service.InputError{Message: "invalid If-Match header"}
	}
	return v, nil
}

func setETag(c echo.Context, company *entity.Company) {
	if company != nil {
		c.Response().Header().Set("ETag", `"`+strconv.FormatInt(company.Version, 10)+`"`)
	}
}
