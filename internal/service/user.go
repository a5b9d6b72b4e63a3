package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/himtika/proposal-tracker/internal/dto"
	"github.com/himtika/proposal-tracker/internal/entity"
	"github.com/himtika/proposal-tracker/internal/identity"
	"github.com/himtika/proposal-tracker/internal/repository"
)

// UserService encapsulates user administration and self-service profile edits.
type UserService struct {
	repo     repository.UsersRepository
	notifier ActorNotifier
	logger   *zap.Logger
}

// NewUserService builds a new UserService instance.
func NewUserService(repo repository.UsersRepository, notifier ActorNotifier, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{repo: repo, notifier: notifier, logger: logger}
}

func toUserResponse(u *entity.User) dto.UserResponse {
	return dto.UserResponse{
		ID:       u.ID.String(),
		Email:    u.Email,
		Role:     u.Role,
		FullName: u.FullName,
		Phone:    u.Phone,
		Position: u.Position,
	}
}

func validRole(role string) bool {
	return role == entity.RoleAdmin || role == entity.RoleMember
}

// ListUsers returns all users as DTOs.
func (s *UserService) ListUsers(ctx context.Context) ([]dto.UserResponse, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		responses = append(responses, toUserResponse(&users[i]))
	}
	return responses, nil
}

// CreateUser creates a new user with the supplied role.
func (s *UserService) CreateUser(ctx context.Context, req dto.CreateUserRequest) (*dto.UserResponse, error) {
	req.Email = strings.TrimSpace(req.Email)
	req.Role = strings.TrimSpace(req.Role)

	if req.Email == "" || req.Password == "" {
		return nil, InputError{Message: "email and password are required"}
	}
	if req.Role == "" {
		req.Role = entity.RoleMember
	}
	if !validRole(req.Role) {
		return nil, ErrInvalidRole
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.repo.Create(ctx, repository.CreateUserInput{
		Email:        req.Email,
		PasswordHash: string(hashed),
		Role:         req.Role,
		FullName:     strings.TrimSpace(req.FullName),
		Phone:        strings.TrimSpace(req.Phone),
		Position:     strings.TrimSpace(req.Position),
	})
	if err != nil {
		return nil, err
	}

	resp := toUserResponse(user)
	return &resp, nil
}

// UpdateUser mutates selected account fields.
func (s *UserService) UpdateUser(ctx context.Context, id string, req dto.UpdateUserRequest) (*dto.UserResponse, error) {
	userID, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrInvalidUserID
	}

	var input repository.UpdateUserInput
	if req.Email != nil {
		trimmed := strings.TrimSpace(*req.Email)
		if trimmed == "" {
			return nil, InputError{Message: "email cannot be empty"}
		}
		input.Email = &trimmed
	}

	if req.Role != nil {
		trimmed := strings.TrimSpace(*req.Role)
		if !validRole(trimmed) {
			return nil, ErrInvalidRole
		}
		input.Role = &trimmed
	}

	if req.Password != nil {
		if strings.TrimSpace(*req.Password) == "" {
			return nil, InputError{Message: "password cannot be empty"}
		}
		hashed, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		pwd := string(hashed)
		input.PasswordHash = &pwd
	}

	user, err := s.repo.Update(ctx, userID, input)
	if err != nil {
		return nil, err
	}

	notify(ctx, s.notifier, s.logger, identity.EventProfileUpdated, user.ID)
	resp := toUserResponse(user)
	return &resp, nil
}

// DeleteUser removes a user by id.
func (s *UserService) DeleteUser(ctx context.Context, id string) error {
	userID, err := uuid.Parse(id)
	if err != nil {
		return ErrInvalidUserID
	}
	if err := s.repo.Delete(ctx, userID); err != nil {
		return err
	}
	notify(ctx, s.notifier, s.logger, identity.EventDeleted, userID)
	return nil
}

// Profile returns the signed-in user's account and profile.
func (s *UserService) Profile(ctx context.Context, userID uuid.UUID) (*dto.UserResponse, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	resp := toUserResponse(user)
	return &resp, nil
}

// UpdateProfile edits the name, phone and position printed in outreach messages.
func (s *UserService) UpdateProfile(ctx context.Context, userID uuid.UUID, req dto.UpdateProfileRequest) (*dto.UserResponse, error) {
	trim := func(v *string) *string {
		if v == nil {
			return nil
		}
		t := strings.TrimSpace(*v)
		return &t
	}

	user, err := s.repo.Update(ctx, userID, repository.UpdateUserInput{
		FullName: trim(req.FullName),
		Phone:    trim(req.Phone),
		Position: trim(req.Position),
	})
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, identity.ErrAnonymous
		}
		return nil, err
	}

	notify(ctx, s.notifier, s.logger, identity.EventProfileUpdated, user.ID)
	resp := toUserResponse(user)
	return &resp, nil
}
