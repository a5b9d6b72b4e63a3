package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/himtika/proposal-tracker/internal/dto"
	"github.com/himtika/proposal-tracker/internal/entity"
	"github.com/himtika/proposal-tracker/internal/identity"
	"github.com/himtika/proposal-tracker/internal/metrics"
	"github.com/himtika/proposal-tracker/internal/outreach"
	"github.com/himtika/proposal-tracker/internal/repository"
)

const (
	defaultPerPage = 50
	maxPerPage     = 200
	// maxOffset keeps the row offset within a signed 32-bit integer on every store.
	maxOffset = math.MaxInt32
)

// OutreachService runs the company record lifecycle and outreach status
// transitions on behalf of an actor.
type OutreachService struct {
	repo            repository.CompaniesRepository
	composer        *outreach.Composer
	clock           Clock
	metrics         *metrics.OutreachMetrics
	logger          *zap.Logger
	newID           func() uuid.UUID
	defaultPageSize int
}

// OutreachOption customises an OutreachService.
type OutreachOption func(*OutreachService)

// WithClock overrides the time source.
func WithClock(c Clock) OutreachOption {
	return func(s *OutreachService) { s.clock = c }
}

// WithMetrics records outreach counters on m.
func WithMetrics(m *metrics.OutreachMetrics) OutreachOption {
	return func(s *OutreachService) { s.metrics = m }
}

// WithLogger sets the logger used for persistence failures.
func WithLogger(l *zap.Logger) OutreachOption {
	return func(s *OutreachService) { s.logger = l }
}

// WithDefaultPageSize sets the page size used when a listing does not ask for one.
func WithDefaultPageSize(n int) OutreachOption {
	return func(s *OutreachService) {
		if n > 0 && n <= maxPerPage {
			s.defaultPageSize = n
		}
	}
}

// NewOutreachService creates a new instance of OutreachService.
func NewOutreachService(repo repository.CompaniesRepository, composer *outreach.Composer, opts ...OutreachOption) *OutreachService {
	s := &OutreachService{
		repo:            repo,
		composer:        composer,
		clock:           SystemClock(),
		logger:          zap.NewNop(),
		newID:           uuid.New,
		defaultPageSize: defaultPerPage,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddCompany validates the candidate and stores it owned by the actor with
// both channels not sent.
func (s *OutreachService) AddCompany(ctx context.Context, actor entity.Actor, candidate outreach.Candidate) (*entity.Company, error) {
	if actor.ID == uuid.Nil {
		return nil, identity.ErrAnonymous
	}
	if err := outreach.Validate(candidate); err != nil {
		s.rejected(err)
		return nil, err
	}

	candidate = candidate.Trimmed()
	company := &entity.Company{
		ID:        s.newID(),
		Name:      candidate.Name,
		Email:     candidate.Email,
		Phone:     candidate.Phone,
		DateAdded: s.clock.Now().UTC(),
		CreatedBy: actor.Ref(),
	}

	if err := s.repo.Create(ctx, company); err != nil {
		return nil, s.logged("create company", err, zap.String("company_id", company.ID.String()))
	}

	s.metrics.CompanyAdded()
	return company, nil
}

// RemoveCompany deletes a company. Only its creator or an admin may do so.
func (s *OutreachService) RemoveCompany(ctx context.Context, actor entity.Actor, id uuid.UUID) error {
	if actor.ID == uuid.Nil {
		return identity.ErrAnonymous
	}

	company, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return s.logged("find company", err, zap.String("company_id", id.String()))
	}
	if company.CreatedBy.ID != actor.ID && !actor.IsAdmin() {
		return ErrForbidden
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return s.logged("delete company", err, zap.String("company_id", id.String()))
	}

	s.metrics.CompanyRemoved()
	return nil
}

// FindCompany returns a single company.
func (s *OutreachService) FindCompany(ctx context.Context, id uuid.UUID) (*entity.Company, error) {
	company, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.logged("find company", err, zap.String("company_id", id.String()))
	}
	return company, nil
}

// ListCompanies returns companies respecting pagination defaults.
func (s *OutreachService) ListCompanies(ctx context.Context, filter dto.CompanyFilter) ([]entity.Company, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PerPage <= 0 {
		filter.PerPage = s.defaultPageSize
	}
	if filter.PerPage > maxPerPage {
		filter.PerPage = maxPerPage
	}
	if filter.Page-1 > maxOffset/filter.PerPage {
		return nil, InputError{Message: "page is out of range"}
	}
	if filter.Status == "" {
		filter.Status = dto.StatusAll
	}
	filter.Search = strings.TrimSpace(filter.Search)

	companies, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, s.logged("list companies", err)
	}
	return companies, nil
}

// Stats aggregates outreach progress, optionally for one owner.
func (s *OutreachService) Stats(ctx context.Context, ownerID *uuid.UUID) (entity.CompanyStats, error) {
	stats, err := s.repo.Stats(ctx, ownerID)
	if err != nil {
		return entity.CompanyStats{}, s.logged("company stats", err)
	}
	return stats, nil
}

// UpdateStatus applies a transition to one channel of a company and persists
// the resulting channel status. A positive expectedVersion turns on the
// optimistic check; zero keeps last-writer-wins.
func (s *OutreachService) UpdateStatus(ctx context.Context, actor entity.Actor, id uuid.UUID, ch entity.Channel, transition outreach.Transition, expectedVersion int64) (*entity.Company, error) {
	if actor.ID == uuid.Nil {
		return nil, identity.ErrAnonymous
	}

	company, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.logged("find company", err, zap.String("company_id", id.String()))
	}
	return s.transition(ctx, actor, company, ch, transition, expectedVersion)
}

// transition applies and persists a status change on an already loaded company.
func (s *OutreachService) transition(ctx context.Context, actor entity.Actor, company *entity.Company, ch entity.Channel, transition outreach.Transition, expectedVersion int64) (*entity.Company, error) {
	id := company.ID
	if expectedVersion > 0 && company.Version != expectedVersion {
		s.metrics.Conflict()
		return nil, ErrConflict
	}

	status, err := outreach.Apply(company, ch, transition, actor.Ref(), s.clock.Now())
	if err != nil {
		return nil, err
	}

	updated, err := s.repo.UpdateChannelStatus(ctx, id, ch, status, expectedVersion)
	if err != nil {
		if errors.Is(err, ErrConflict) {
			s.metrics.Conflict()
		}
		return nil, s.logged("update channel status", err,
			zap.String("company_id", id.String()),
			zap.String("channel", string(ch)),
			zap.String("transition", string(transition)))
	}

	s.metrics.Transition(string(ch), string(transition))
	return updated, nil
}

// Compose renders the outreach message and deep link for a company without
// changing its status. Missing profile fields are reported as warnings.
func (s *OutreachService) Compose(ctx context.Context, actor entity.Actor, id uuid.UUID, ch entity.Channel) (dto.ComposeResponse, error) {
	company, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return dto.ComposeResponse{}, s.logged("find company", err, zap.String("company_id", id.String()))
	}
	return s.compose(company, actor, ch)
}

// Send composes the message, builds the link and marks the channel sent.
// The sender profile must carry a name and a position.
func (s *OutreachService) Send(ctx context.Context, actor entity.Actor, id uuid.UUID, ch entity.Channel, expectedVersion int64) (dto.SendResponse, error) {
	if actor.ID == uuid.Nil {
		return dto.SendResponse{}, identity.ErrAnonymous
	}
	if !actor.CanSend() {
		return dto.SendResponse{}, ErrIncompleteProfile
	}

	company, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return dto.SendResponse{}, s.logged("find company", err, zap.String("company_id", id.String()))
	}
	composed, err := s.compose(company, actor, ch)
	if err != nil {
		return dto.SendResponse{}, err
	}

	updated, err := s.transition(ctx, actor, company, ch, outreach.TransitionMarkSent, expectedVersion)
	if err != nil {
		return dto.SendResponse{}, err
	}

	return dto.SendResponse{ComposeResponse: composed, Company: *updated}, nil
}

func (s *OutreachService) compose(company *entity.Company, actor entity.Actor, ch entity.Channel) (dto.ComposeResponse, error) {
	if !ch.Valid() {
		return dto.ComposeResponse{}, fmt.Errorf("%w: %q", outreach.ErrUnknownChannel, ch)
	}
	contact := company.ContactFor(ch)
	if contact == "" {
		return dto.ComposeResponse{}, ErrChannelUnavailable
	}

	sender := outreach.Sender{
		DisplayName: actor.DisplayName,
		Role:        actor.Role,
		Phone:       actor.Phone,
		Email:       actor.Email,
	}
	resp := dto.ComposeResponse{
		Channel: ch,
		Message: s.composer.Compose(company.Name, sender),
	}
	if !actor.CanSend() {
		resp.Warnings = append(resp.Warnings, "sender profile is missing full name or position")
	}

	switch ch {
	case entity.ChannelWhatsApp:
		phone := outreach.NormalizePhone(contact)
		if !outreach.PhoneLooksDialable(phone) {
			resp.Warnings = append(resp.Warnings, "phone number does not look like a valid Indonesian number")
		}
		resp.Link = outreach.WhatsAppLink(phone, resp.Message)
	case entity.ChannelEmail:
		resp.Subject = s.composer.Subject(company.Name, sender)
		link, err := outreach.MailtoLink(contact, resp.Subject, resp.Message)
		if err != nil {
			return dto.ComposeResponse{}, fmt.Errorf("%w: %v", ErrChannelUnavailable, err)
		}
		resp.Link = link
	}
	return resp, nil
}

func (s *OutreachService) rejected(err error) {
	var vErr *outreach.ValidationError
	if errors.As(err, &vErr) {
		s.metrics.Rejected(string(vErr.Reason))
	}
}

// logged records persistence failures and returns err unchanged.
func (s *OutreachService) logged(op string, err error, fields ...zap.Field) error {
	var pErr *repository.PersistenceError
	if errors.As(err, &pErr) {
		s.logger.Error(op+" failed", append(fields, zap.Error(err))...)
	}
	return err
}
