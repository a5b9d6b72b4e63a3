package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/himtika/proposal-tracker/internal/dto"
	"github.com/himtika/proposal-tracker/internal/entity"
	"github.com/himtika/proposal-tracker/internal/identity"
	"github.com/himtika/proposal-tracker/internal/repository"
)

type mockUsersRepository struct {
	findByEmail func(ctx context.Context, email string) (*entity.User, error)
	findByID    func(ctx context.Context, id uuid.UUID) (*entity.User, error)
	create      func(ctx context.Context, input repository.CreateUserInput) (*entity.User, error)
	list        func(ctx context.Context) ([]entity.User, error)
	update      func(ctx context.Context, id uuid.UUID, input repository.UpdateUserInput) (*entity.User, error)
	delete      func(ctx context.Context, id uuid.UUID) error
}

func (m *mockUsersRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	if m.findByEmail != nil {
		return m.findByEmail(ctx, email)
	}
	return nil, errors.New("findByEmail not implemented")
}

func (m *mockUsersRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	if m.findByID != nil {
		return m.findByID(ctx, id)
	}
	return nil, errors.New("FindByID not implemented")
}

func (m *mockUsersRepository) Create(ctx context.Context, input repository.CreateUserInput) (*entity.User, error) {
	if m.create != nil {
		return m.create(ctx, input)
	}
	return nil, errors.New("create not implemented")
}

func (m *mockUsersRepository) List(ctx context.Context) ([]entity.User, error) {
	if m.list != nil {
		return m.list(ctx)
	}
	return nil, errors.New("List not implemented")
}

func (m *mockUsersRepository) Update(ctx context.Context, id uuid.UUID, input repository.UpdateUserInput) (*entity.User, error) {
	if m.update != nil {
		return m.update(ctx, id, input)
	}
	return nil, errors.New("Update not implemented")
}

func (m *mockUsersRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if m.delete != nil {
		return m.delete(ctx, id)
	}
	return errors.New("Delete not implemented")
}

type mockCompaniesRepository struct {
	create       func(ctx context.Context, c *entity.Company) error
	findByID     func(ctx context.Context, id uuid.UUID) (*entity.Company, error)
	delete       func(ctx context.Context, id uuid.UUID) error
	list         func(ctx context.Context, filter dto.CompanyFilter) ([]entity.Company, error)
	updateStatus func(ctx context.Context, id uuid.UUID, ch entity.Channel, status entity.ChannelStatus, expectedVersion int64) (*entity.Company, error)
	upsert       func(ctx context.Context, companies []entity.Company) (repository.BulkUpsertResult, error)
	stats        func(ctx context.Context, ownerID *uuid.UUID) (entity.CompanyStats, error)
}

func (m *mockCompaniesRepository) Create(ctx context.Context, c *entity.Company) error {
	if m.create != nil {
		return m.create(ctx, c)
	}
	return errors.New("create not implemented")
}

func (m *mockCompaniesRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Company, error) {
	if m.findByID != nil {
		return m.findByID(ctx, id)
	}
	return nil, errors.New("findByID not implemented")
}

func (m *mockCompaniesRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if m.delete != nil {
		return m.delete(ctx, id)
	}
	return errors.New("delete not implemented")
}

func (m *mockCompaniesRepository) List(ctx context.Context, filter dto.CompanyFilter) ([]entity.Company, error) {
	if m.list != nil {
		return m.list(ctx, filter)
	}
	return nil, errors.New("list not implemented")
}

func (m *mockCompaniesRepository) UpdateChannelStatus(ctx context.Context, id uuid.UUID, ch entity.Channel, status entity.ChannelStatus, expectedVersion int64) (*entity.Company, error) {
	if m.updateStatus != nil {
		return m.updateStatus(ctx, id, ch, status, expectedVersion)
	}
	return nil, errors.New("updateStatus not implemented")
}

func (m *mockCompaniesRepository) Upsert(ctx context.Context, companies []entity.Company) (repository.BulkUpsertResult, error) {
	if m.upsert != nil {
		return m.upsert(ctx, companies)
	}
	return repository.BulkUpsertResult{}, errors.New("upsert not implemented")
}

func (m *mockCompaniesRepository) Stats(ctx context.Context, ownerID *uuid.UUID) (entity.CompanyStats, error) {
	if m.stats != nil {
		return m.stats(ctx, ownerID)
	}
	return entity.CompanyStats{}, errors.New("stats not implemented")
}

type recordingNotifier struct {
	events []identity.Event
	err    error
}

func (n *recordingNotifier) Notify(ctx context.Context, kind identity.EventKind, userID uuid.UUID) error {
	n.events = append(n.events, identity.Event{Kind: kind, UserID: userID})
	return n.err
}

type fixedClock struct {
	now time.Time
}

func (c *fixedClock) Now() time.Time { return c.now }

func stringPtr(v string) *string {
	return &v
}
