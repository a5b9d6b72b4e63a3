package handler

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/himtika/proposal-tracker/internal/dto"
	"github.com/himtika/proposal-tracker/internal/entity"
	"github.com/himtika/proposal-tracker/internal/identity"
	"github.com/himtika/proposal-tracker/internal/middleware"
	"github.com/himtika/proposal-tracker/internal/repository"
)

var (
	memberID      = uuid.MustParse("aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa")
	testCompanyID = uuid.MustParse("cccccccc-cccc-cccc-cccc-cccccccccccc")

	member = entity.Actor{
		ID:          memberID,
		DisplayName: "Rina Kusuma",
		Role:        "Humas",
		Email:       "rina@himtika.id",
		Phone:       "081234567890",
		AccessRole:  entity.RoleMember,
	}
)

type stubUsersRepo struct {
	findByEmail func(ctx context.Context, email string) (*entity.User, error)
	findByID    func(ctx context.Context, id uuid.UUID) (*entity.User, error)
	create      func(ctx context.Context, input repository.CreateUserInput) (*entity.User, error)
	list        func(ctx context.Context) ([]entity.User, error)
	update      func(ctx context.Context, id uuid.UUID, input repository.UpdateUserInput) (*entity.User, error)
	delete      func(ctx context.Context, id uuid.UUID) error
}

func (s *stubUsersRepo) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	if s.findByEmail != nil {
		return s.findByEmail(ctx, email)
	}
	return nil, errors.New("not implemented")
}

func (s *stubUsersRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	if s.findByID != nil {
		return s.findByID(ctx, id)
	}
	return nil, errors.New("not implemented")
}

func (s *stubUsersRepo) Create(ctx context.Context, input repository.CreateUserInput) (*entity.User, error) {
	if s.create != nil {
		return s.create(ctx, input)
	}
	return nil, errors.New("not implemented")
}

func (s *stubUsersRepo) List(ctx context.Context) ([]entity.User, error) {
	if s.list != nil {
		return s.list(ctx)
	}
	return nil, errors.New("not implemented")
}

func (s *stubUsersRepo) Update(ctx context.Context, id uuid.UUID, input repository.UpdateUserInput) (*entity.User, error) {
	if s.update != nil {
		return s.update(ctx, id, input)
	}
	return nil, errors.New("not implemented")
}

func (s *stubUsersRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if s.delete != nil {
		return s.delete(ctx, id)
	}
	return errors.New("not implemented")
}

type stubCompaniesRepo struct {
	create       func(ctx context.Context, c *entity.Company) error
	findByID     func(ctx context.Context, id uuid.UUID) (*entity.Company, error)
	delete       func(ctx context.Context, id uuid.UUID) error
	list         func(ctx context.Context, filter dto.CompanyFilter) ([]entity.Company, error)
	updateStatus func(ctx context.Context, id uuid.UUID, ch entity.Channel, status entity.ChannelStatus, expectedVersion int64) (*entity.Company, error)
	upsert       func(ctx context.Context, companies []entity.Company) (repository.BulkUpsertResult, error)
	stats        func(ctx context.Context, ownerID *uuid.UUID) (entity.CompanyStats, error)
}

func (s *stubCompaniesRepo) Create(ctx context.Context, c *entity.Company) error {
	if s.create != nil {
		return s.create(ctx, c)
	}
	return errors.New("not implemented")
}

func (s *stubCompaniesRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Company, error) {
	if s.findByID != nil {
		return s.findByID(ctx, id)
	}
	return nil, errors.New("not implemented")
}

func (s *stubCompaniesRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if s.delete != nil {
		return s.delete(ctx, id)
	}
	return errors.New("not implemented")
}

func (s *stubCompaniesRepo) List(ctx context.Context, filter dto.CompanyFilter) ([]entity.Company, error) {
	if s.list != nil {
		return s.list(ctx, filter)
	}
	return nil, errors.New("not implemented")
}

func (s *stubCompaniesRepo) UpdateChannelStatus(ctx context.Context, id uuid.UUID, ch entity.Channel, status entity.ChannelStatus, expectedVersion int64) (*entity.Company, error) {
	if s.updateStatus != nil {
		return s.updateStatus(ctx, id, ch, status, expectedVersion)
	}
	return nil, errors.New("not implemented")
}

func (s *stubCompaniesRepo) Upsert(ctx context.Context, companies []entity.Company) (repository.BulkUpsertResult, error) {
	if s.upsert != nil {
		return s.upsert(ctx, companies)
	}
	return repository.BulkUpsertResult{}, errors.New("not implemented")
}

func (s *stubCompaniesRepo) Stats(ctx context.Context, ownerID *uuid.UUID) (entity.CompanyStats, error) {
	if s.stats != nil {
		return s.stats(ctx, ownerID)
	}
	return entity.CompanyStats{}, errors.New("not implemented")
}

// stubActors resolves every known user id to a fixed actor.
type stubActors map[uuid.UUID]entity.Actor

func (s stubActors) CurrentActor(ctx context.Context, userID uuid.UUID) (entity.Actor, error) {
	actor, ok := s[userID]
	if !ok {
		return entity.Actor{}, identity.ErrAnonymous
	}
	return actor, nil
}

func signIn(c echo.Context, id uuid.UUID) {
	c.Set(middleware.ContextKeyUserID, id.String())
}

func storedCompany() *entity.Company {
	return &entity.Company{
		ID:        testCompanyID,
		Name:      "PT Maju Jaya",
		Email:     "csr@majujaya.co.id",
		Phone:     "0812-3456-7890",
		DateAdded: time.Date(2025, 2, 10, 8, 0, 0, 0, time.UTC),
		CreatedBy: member.Ref(),
		Version:   3,
	}
}
