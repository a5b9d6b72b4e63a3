package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/himtika/proposal-tracker/internal/auth"
	"github.com/himtika/proposal-tracker/internal/dto"
	"github.com/himtika/proposal-tracker/internal/entity"
	"github.com/himtika/proposal-tracker/internal/identity"
	"github.com/himtika/proposal-tracker/internal/repository"
)

func TestAuthService_Login(t *testing.T) {
	hashed, err := bcrypt.GenerateFromPassword([]byte("super-secret"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("unexpected bcrypt error: %v", err)
	}
	userID := uuid.MustParse("aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa")

	tests := map[string]struct {
		email       string
		password    string
		repo        repository.UsersRepository
		expectError error
	}{
		"empty credentials": {
			repo:        &mockUsersRepository{},
			expectError: InputError{Message: "email and password are required"},
		},
		"user not found": {
			email:    "john@example.com",
			password: "whatever",
			repo: &mockUsersRepository{
				findByEmail: func(ctx context.Context, email string) (*entity.User, error) {
					return nil, repository.ErrUserNotFound
				},
			},
			expectError: ErrInvalidCredentials,
		},
		"password mismatch": {
			email:    "john@example.com",
			password: "wrong",
			repo: &mockUsersRepository{
				findByEmail: func(ctx context.Context, email string) (*entity.User, error) {
					return &entity.User{ID: uuid.New(), Email: email, PasswordHash: string(hashed), Role: entity.RoleMember}, nil
				},
			},
			expectError: ErrInvalidCredentials,
		},
		"success": {
			email:    " john@example.com ",
			password: "super-secret",
			repo: &mockUsersRepository{
				findByEmail: func(ctx context.Context, email string) (*entity.User, error) {
					if email != "john@example.com" {
						t.Fatalf("expected trimmed email, got %q", email)
					}
					return &entity.User{ID: userID, Email: email, PasswordHash: string(hashed), Role: entity.RoleAdmin}, nil
				},
			},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			jwtManager := auth.NewJWTManager("test-secret", 0)
			notifier := &recordingNotifier{}
			service := NewAuthService(tt.repo, jwtManager, nil, notifier, nil)

			resp, err := service.Login(context.Background(), tt.email, tt.password)
			if tt.expectError != nil {
				if !errors.Is(err, tt.expectError) {
					t.Fatalf("expected error %v, got %v", tt.expectError, err)
				}
				if resp.AccessToken != "" {
					t.Fatalf("expected empty token on error, got %q", resp.AccessToken)
				}
				if len(notifier.events) != 0 {
					t.Fatalf("no event expected on failure")
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if resp.TokenType != "Bearer" || resp.ExpiresIn != 86400 {
				t.Fatalf("unexpected token metadata: %+v", resp)
			}
			claims, err := jwtManager.ParseToken(resp.AccessToken)
			if err != nil || claims.Subject != userID.String() || claims.Role != entity.RoleAdmin {
				t.Fatalf("unexpected token claims %+v (%v)", claims, err)
			}
			if len(notifier.events) != 1 || notifier.events[0].Kind != identity.EventSignedIn {
				t.Fatalf("expected signed_in event, got %+v", notifier.events)
			}
		})
	}
}

func TestAuthService_Register(t *testing.T) {
	tests := map[string]struct {
		req         dto.RegisterRequest
		repo        repository.UsersRepository
		expectError error
	}{
		"empty payload": {
			repo:        &mockUsersRepository{},
			expectError: InputError{Message: "email and password are required"},
		},
		"duplicate email": {
			req: dto.RegisterRequest{Email: "john@example.com", Password: "password123"},
			repo: &mockUsersRepository{
				create: func(ctx context.Context, input repository.CreateUserInput) (*entity.User, error) {
					return nil, repository.ErrEmailDuplicate
				},
			},
			expectError: ErrEmailAlreadyExists,
		},
		"success with profile": {
			req: dto.RegisterRequest{Email: "jane@example.com", Password: "password123", FullName: " Jane ", Position: "Humas", Phone: "0812"},
			repo: &mockUsersRepository{
				create: func(ctx context.Context, input repository.CreateUserInput) (*entity.User, error) {
					if input.Role != entity.RoleMember || input.FullName != "Jane" || input.Position != "Humas" {
						t.Fatalf("unexpected create input: %+v", input)
					}
					if bcrypt.CompareHashAndPassword([]byte(input.PasswordHash), []byte("password123")) != nil {
						t.Fatalf("expected hashed password")
					}
					return &entity.User{ID: uuid.New(), Email: input.Email, Role: input.Role}, nil
				},
			},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			notifier := &recordingNotifier{}
			service := NewAuthService(tt.repo, auth.NewJWTManager("register-secret", 0), nil, notifier, nil)

			resp, err := service.Register(context.Background(), tt.req)
			if tt.expectError != nil {
				if !errors.Is(err, tt.expectError) {
					t.Fatalf("expected error %v, got %v", tt.expectError, err)
				}
				if resp.AccessToken != "" {
					t.Fatalf("expected empty token on error, got %q", resp.AccessToken)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if resp.AccessToken == "" {
				t.Fatalf("expected token to be returned")
			}
			if len(notifier.events) != 1 || notifier.events[0].Kind != identity.EventSignedUp {
				t.Fatalf("expected signed_up event, got %+v", notifier.events)
			}
		})
	}
}

func TestAuthService_Logout(t *testing.T) {
	revocations := auth.NewRevocations()
	notifier := &recordingNotifier{err: errors.New("redis down")}
	service := NewAuthService(&mockUsersRepository{}, auth.NewJWTManager("secret", 0), revocations, notifier, nil)

	userID := uuid.New()
	service.Logout(context.Background(), userID, "token-1", time.Now().Add(time.Hour))

	if !revocations.IsRevoked("token-1") {
		t.Fatalf("expected token to be revoked")
	}
	if len(notifier.events) != 1 || notifier.events[0].Kind != identity.EventSignedOut || notifier.events[0].UserID != userID {
		t.Fatalf("expected signed_out event, got %+v", notifier.events)
	}
}
