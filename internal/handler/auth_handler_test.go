package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/himtika/proposal-tracker/internal/auth"
	"github.com/himtika/proposal-tracker/internal/entity"
	"github.com/himtika/proposal-tracker/internal/middleware"
	"github.com/himtika/proposal-tracker/internal/repository"
	"github.com/himtika/proposal-tracker/internal/service"
)

func newAuthHandler(t *testing.T, repo repository.UsersRepository, revocations *auth.Revocations) *AuthHandler {
	t.Helper()
	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	return NewAuthHandler(service.NewAuthService(repo, jwtManager, revocations, nil, nil))
}

func TestAuthHandler_Register(t *testing.T) {
	e := echo.New()

	tests := map[string]struct {
		body       string
		repo       *stubUsersRepo
		wantStatus int
	}{
		"invalid payload": {
			body:       "{",
			repo:       &stubUsersRepo{},
			wantStatus: http.StatusBadRequest,
		},
		"missing password": {
			body:       `{"email":"rina@himtika.id"}`,
			repo:       &stubUsersRepo{},
			wantStatus: http.StatusBadRequest,
		},
		"duplicate email": {
			body: `{"email":"rina@himtika.id","password":"rahasia"}`,
			repo: &stubUsersRepo{create: func(ctx context.Context, input repository.CreateUserInput) (*entity.User, error) {
				return nil, repository.ErrEmailDuplicate
			}},
			wantStatus: http.StatusConflict,
		},
		"success": {
			body: `{"email":"rina@himtika.id","password":"rahasia","full_name":" Rina ","position":"Humas"}`,
			repo: &stubUsersRepo{create: func(ctx context.Context, input repository.CreateUserInput) (*entity.User, error) {
				if input.Role != entity.RoleMember || input.FullName != "Rina" || input.Position != "Humas" {
					t.Errorf("unexpected create input: %+v", input)
				}
				return &entity.User{ID: memberID, Email: input.Email, Role: input.Role}, nil
			}},
			wantStatus: http.StatusCreated,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewBufferString(tt.body))
			req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			if err := newAuthHandler(t, tt.repo, nil).Register(c); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestAuthHandler_Login(t *testing.T) {
	hashed, err := bcrypt.GenerateFromPassword([]byte("rahasia"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("unexpected bcrypt error: %v", err)
	}
	repo := &stubUsersRepo{findByEmail: func(ctx context.Context, email string) (*entity.User, error) {
		if email != "rina@himtika.id" {
			return nil, repository.ErrUserNotFound
		}
		return &entity.User{ID: memberID, Email: email, PasswordHash: string(hashed), Role: entity.RoleMember}, nil
	}}

	e := echo.New()
	tests := map[string]struct {
		body       string
		wantStatus int
	}{
		"unknown user":   {body: `{"email":"budi@himtika.id","password":"rahasia"}`, wantStatus: http.StatusUnauthorized},
		"wrong password": {body: `{"email":"rina@himtika.id","password":"salah"}`, wantStatus: http.StatusUnauthorized},
		"success":        {body: `{"email":"rina@himtika.id","password":"rahasia"}`, wantStatus: http.StatusOK},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString(tt.body))
			req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			if err := newAuthHandler(t, repo, nil).Login(c); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d", tt.wantStatus, rec.Code)
			}
			if tt.wantStatus != http.StatusOK {
				return
			}

			var payload struct {
				Data struct {
					AccessToken string `json:"access_token"`
				} `json:"data"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			if payload.Data.AccessToken == "" {
				t.Fatalf("expected access token in response")
			}
		})
	}
}

func TestAuthHandler_Logout(t *testing.T) {
	e := echo.New()
	revocations := auth.NewRevocations()
	handler := newAuthHandler(t, &stubUsersRepo{}, revocations)

	t.Run("anonymous", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		if err := handler.Logout(c); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("revokes token", func(t *testing.T) {
		tokenID := uuid.NewString()
		req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		signIn(c, memberID)
		c.Set(middleware.ContextKeyTokenID, tokenID)
		c.Set(middleware.ContextKeyTokenExpiry, time.Now().Add(time.Hour))

		if err := handler.Logout(c); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if !revocations.IsRevoked(tokenID) {
			t.Fatalf("expected token to be revoked")
		}
	})
}
