package service

import (
	"errors"

	"github.com/himtika/proposal-tracker/internal/repository"
)

var (
	// ErrEmailAlreadyExists is returned when registering an email that is taken.
	ErrEmailAlreadyExists = errors.New("email already exists")
	// ErrInvalidCredentials is returned for unknown emails and wrong passwords alike.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidUserID      = errors.New("invalid user id")
	ErrInvalidRole        = errors.New("invalid role")

	// ErrForbidden is returned when the actor may not touch the company.
	ErrForbidden = errors.New("operation not permitted for this actor")
	// ErrIncompleteProfile is returned when sending without a name or position on the profile.
	ErrIncompleteProfile = errors.New("sender profile must include full name and position")
	// ErrChannelUnavailable is returned when the company has no usable contact for the channel.
	ErrChannelUnavailable = errors.New("company has no contact for this channel")
	ErrInvalidBackup      = errors.New("invalid backup")

	ErrCompanyNotFound = repository.ErrCompanyNotFound
	ErrConflict        = repository.ErrConflict
)

// InputError reports a malformed request field.
type InputError struct {
	Message string
}

// Error implements the error interface.
func (e InputError) Error() string {
	return e.Message
}
