package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/himtika/proposal-tracker/internal/auth"
	"github.com/himtika/proposal-tracker/internal/dto"
	"github.com/himtika/proposal-tracker/internal/entity"
	"github.com/himtika/proposal-tracker/internal/identity"
	"github.com/himtika/proposal-tracker/internal/repository"
)

// AuthService coordinates credential validation and token issuance.
type AuthService struct {
	users       repository.UsersRepository
	jwt         *auth.JWTManager
	revocations *auth.Revocations
	notifier    ActorNotifier
	logger      *zap.Logger
}

// NewAuthService constructs a new AuthService.
func NewAuthService(users repository.UsersRepository, jwtManager *auth.JWTManager, revocations *auth.Revocations, notifier ActorNotifier, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if revocations == nil {
		revocations = auth.NewRevocations()
	}
	return &AuthService{users: users, jwt: jwtManager, revocations: revocations, notifier: notifier, logger: logger}
}

// Register creates a member account with its profile and returns a JWT.
func (s *AuthService) Register(ctx context.Context, req dto.RegisterRequest) (dto.LoginResponse, error) {
	email := strings.TrimSpace(req.Email)
	if email == "" || req.Password == "" {
		return dto.LoginResponse{}, InputError{Message: "email and password are required"}
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return dto.LoginResponse{}, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.users.Create(ctx, repository.CreateUserInput{
		Email:        email,
		PasswordHash: string(hashed),
		Role:         entity.RoleMember,
		FullName:     strings.TrimSpace(req.FullName),
		Phone:        strings.TrimSpace(req.Phone),
		Position:     strings.TrimSpace(req.Position),
	})
	if err != nil {
		if errors.Is(err, repository.ErrEmailDuplicate) {
			return dto.LoginResponse{}, ErrEmailAlreadyExists
		}
		return dto.LoginResponse{}, err
	}

	resp, err := s.issue(user)
	if err != nil {
		return dto.LoginResponse{}, err
	}

	notify(ctx, s.notifier, s.logger, identity.EventSignedUp, user.ID)
	return resp, nil
}

// Login validates credentials and returns a JWT.
func (s *AuthService) Login(ctx context.Context, email, password string) (dto.LoginResponse, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return dto.LoginResponse{}, InputError{Message: "email and password are required"}
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return dto.LoginResponse{}, ErrInvalidCredentials
		}
		return dto.LoginResponse{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return dto.LoginResponse{}, ErrInvalidCredentials
	}

	resp, err := s.issue(user)
	if err != nil {
		return dto.LoginResponse{}, err
	}

	notify(ctx, s.notifier, s.logger, identity.EventSignedIn, user.ID)
	return resp, nil
}

func (s *AuthService) issue(user *entity.User) (dto.LoginResponse, error) {
	token, err := s.jwt.GenerateToken(user.ID.String(), user.Email, user.Role)
	if err != nil {
		return dto.LoginResponse{}, err
	}
	return dto.LoginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.jwt.TTL().Seconds()),
	}, nil
}

// Logout revokes the presented token until its natural expiry.
func (s *AuthService) Logout(ctx context.Context, userID uuid.UUID, tokenID string, expiresAt time.Time) {
	s.revocations.Revoke(tokenID, expiresAt)
	notify(ctx, s.notifier, s.logger, identity.EventSignedOut, userID)
}
