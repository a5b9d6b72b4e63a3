package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/himtika/proposal-tracker/internal/dto"
	"github.com/himtika/proposal-tracker/internal/entity"
	"github.com/himtika/proposal-tracker/internal/outreach"
	"github.com/himtika/proposal-tracker/internal/repository"
	"github.com/himtika/proposal-tracker/internal/service"
)

var otherID = uuid.MustParse("bbbbbbbb-bbbb-bbbb-bbbb-bbbbbbbbbbbb")

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

func newOutreachService(t *testing.T, repo repository.CompaniesRepository) *service.OutreachService {
	t.Helper()
	composer, err := outreach.NewComposer(outreach.DefaultTemplate())
	if err != nil {
		t.Fatalf("composer: %v", err)
	}
	return service.NewOutreachService(repo, composer,
		service.WithClock(fixedClock{now: time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)}))
}

func newCompaniesHandler(t *testing.T, repo repository.CompaniesRepository) *CompaniesHandler {
	t.Helper()
	actors := stubActors{
		memberID: member,
		otherID:  {ID: otherID, Email: "budi@himtika.id", AccessRole: entity.RoleMember},
	}
	return NewCompaniesHandler(newOutreachService(t, repo), actors)
}

func TestCompaniesHandler_List(t *testing.T) {
	tests := map[string]struct {
		query      string
		anonymous  bool
		wantStatus int
		check      func(t *testing.T, f dto.CompanyFilter)
	}{
		"defaults to own companies": {
			query:      "/companies?q=%20maju%20&per_page=25",
			wantStatus: http.StatusOK,
			check: func(t *testing.T, f dto.CompanyFilter) {
				if f.OwnerID == nil || *f.OwnerID != memberID {
					t.Fatalf("expected owner scope, got %v", f.OwnerID)
				}
				if f.Search != "maju" || f.PerPage != 25 || f.Page != 1 || f.Status != dto.StatusAll {
					t.Fatalf("unexpected filter: %+v", f)
				}
			},
		},
		"whole team with status": {
			query:      "/companies?scope=all&status=none_sent&page=2",
			wantStatus: http.StatusOK,
			check: func(t *testing.T, f dto.CompanyFilter) {
				if f.OwnerID != nil || f.Status != dto.StatusNoneSent || f.Page != 2 || f.PerPage != 50 {
					t.Fatalf("unexpected filter: %+v", f)
				}
			},
		},
		"unknown scope":     {query: "/companies?scope=everyone", wantStatus: http.StatusBadRequest},
		"unknown status":    {query: "/companies?status=opened", wantStatus: http.StatusBadRequest},
		"page out of range": {query: "/companies?page=99999999&per_page=200", wantStatus: http.StatusBadRequest},
		"anonymous":         {query: "/companies", anonymous: true, wantStatus: http.StatusUnauthorized},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			var captured dto.CompanyFilter
			repo := &stubCompaniesRepo{list: func(ctx context.Context, filter dto.CompanyFilter) ([]entity.Company, error) {
				captured = filter
				return []entity.Company{*storedCompany()}, nil
			}}

			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, tt.query, nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)
			if !tt.anonymous {
				signIn(c, memberID)
			}

			if err := newCompaniesHandler(t, repo).List(c); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}
			if tt.check != nil {
				tt.check(t, captured)
			}
		})
	}
}

func TestCompaniesHandler_Create(t *testing.T) {
	tests := map[string]struct {
		body       string
		wantStatus int
		wantReason string
	}{
		"invalid payload": {body: "{", wantStatus: http.StatusBadRequest},
		"missing name":    {body: `{"name":"  ","email":"a@b.co"}`, wantStatus: http.StatusUnprocessableEntity, wantReason: "missing_name"},
		"missing contact": {body: `{"name":"PT Maju"}`, wantStatus: http.StatusUnprocessableEntity, wantReason: "missing_contact"},
		"created":         {body: `{"name":" PT Maju ","phone":"0812"}`, wantStatus: http.StatusCreated},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			var created *entity.Company
			repo := &stubCompaniesRepo{create: func(ctx context.Context, c *entity.Company) error {
				c.Version = 1
				created = c
				return nil
			}}

			e := echo.New()
			req := httptest.NewRequest(http.MethodPost, "/companies", bytes.NewBufferString(tt.body))
			req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)
			signIn(c, memberID)

			if err := newCompaniesHandler(t, repo).Create(c); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}

			if tt.wantReason != "" {
				var payload struct {
					Data map[string]string `json:"data"`
				}
				if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
					t.Fatalf("decode response: %v", err)
				}
				if payload.Data["reason"] != tt.wantReason {
					t.Fatalf("expected reason %s, got %v", tt.wantReason, payload.Data)
				}
			}
			if tt.wantStatus == http.StatusCreated {
				if created == nil || created.Name != "PT Maju" || created.CreatedBy.ID != memberID {
					t.Fatalf("unexpected stored company: %+v", created)
				}
				if created.Status.AnySent() {
					t.Fatalf("new company must start unsent")
				}
				if rec.Header().Get("ETag") != `"1"` {
					t.Fatalf("expected ETag, got %q", rec.Header().Get("ETag"))
				}
			}
		})
	}
}

func TestCompaniesHandler_Delete(t *testing.T) {
	tests := map[string]struct {
		query      string
		actor      uuid.UUID
		wantStatus int
		wantDelete bool
	}{
		"unconfirmed":    {query: "", actor: memberID, wantStatus: http.StatusBadRequest},
		"not the owner":  {query: "?confirm=true", actor: otherID, wantStatus: http.StatusForbidden},
		"owner confirms": {query: "?confirm=true", actor: memberID, wantStatus: http.StatusOK, wantDelete: true},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			deleted := false
			repo := &stubCompaniesRepo{
				findByID: func(ctx context.Context, id uuid.UUID) (*entity.Company, error) { return storedCompany(), nil },
				delete: func(ctx context.Context, id uuid.UUID) error {
					deleted = true
					return nil
				},
			}

			e := echo.New()
			req := httptest.NewRequest(http.MethodDelete, "/companies/"+testCompanyID.String()+tt.query, nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)
			c.SetParamNames("id")
			c.SetParamValues(testCompanyID.String())
			signIn(c, tt.actor)

			if err := newCompaniesHandler(t, repo).Delete(c); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d", tt.wantStatus, rec.Code)
			}
			if deleted != tt.wantDelete {
				t.Fatalf("expected deleted=%v", tt.wantDelete)
			}
		})
	}
}

func TestCompaniesHandler_UpdateStatus(t *testing.T) {
	tests := map[string]struct {
		channel     string
		body        string
		ifMatch     string
		storeErr    error
		wantStatus  int
		wantVersion int64
	}{
		"mark sent":          {channel: "whatsapp", body: `{"transition":"mark_sent"}`, wantStatus: http.StatusOK},
		"body version":       {channel: "email", body: `{"transition":"reset","expected_version":3}`, wantStatus: http.StatusOK, wantVersion: 3},
		"if-match version":   {channel: "email", body: `{"transition":"mark_sent"}`, ifMatch: `W/"3"`, wantStatus: http.StatusOK, wantVersion: 3},
		"stale if-match":     {channel: "email", body: `{"transition":"mark_sent"}`, ifMatch: `"2"`, wantStatus: http.StatusConflict},
		"malformed if-match": {channel: "email", body: `{"transition":"mark_sent"}`, ifMatch: "abc", wantStatus: http.StatusBadRequest},
		"unknown channel":    {channel: "sms", body: `{"transition":"mark_sent"}`, wantStatus: http.StatusBadRequest},
		"unknown transition": {channel: "email", body: `{"transition":"toggle"}`, wantStatus: http.StatusBadRequest},
		"store unavailable": {
			channel:    "whatsapp",
			body:       `{"transition":"mark_sent"}`,
			storeErr:   &repository.PersistenceError{Op: "update channel status", Err: context.DeadlineExceeded},
			wantStatus: http.StatusServiceUnavailable,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			var gotVersion int64
			repo := &stubCompaniesRepo{
				findByID: func(ctx context.Context, id uuid.UUID) (*entity.Company, error) { return storedCompany(), nil },
				updateStatus: func(ctx context.Context, id uuid.UUID, ch entity.Channel, status entity.ChannelStatus, expectedVersion int64) (*entity.Company, error) {
					if tt.storeErr != nil {
						return nil, tt.storeErr
					}
					gotVersion = expectedVersion
					c := storedCompany()
					*c.Status.For(ch) = status
					c.Version++
					return c, nil
				},
			}

			e := echo.New()
			req := httptest.NewRequest(http.MethodPost, "/companies/x/status/"+tt.channel, bytes.NewBufferString(tt.body))
			req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			if tt.ifMatch != "" {
				req.Header.Set("If-Match", tt.ifMatch)
			}
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)
			c.SetParamNames("id", "channel")
			c.SetParamValues(testCompanyID.String(), tt.channel)
			signIn(c, memberID)

			if err := newCompaniesHandler(t, repo).UpdateStatus(c); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}
			if tt.wantStatus != http.StatusOK {
				return
			}
			if gotVersion != tt.wantVersion {
				t.Fatalf("expected version %d passed to store, got %d", tt.wantVersion, gotVersion)
			}
			if rec.Header().Get("ETag") != `"4"` {
				t.Fatalf("expected bumped ETag, got %q", rec.Header().Get("ETag"))
			}
		})
	}
}

func TestCompaniesHandler_Compose(t *testing.T) {
	repo := &stubCompaniesRepo{findByID: func(ctx context.Context, id uuid.UUID) (*entity.Company, error) {
		c := storedCompany()
		if id != testCompanyID {
			return nil, repository.ErrCompanyNotFound
		}
		return c, nil
	}}

	tests := map[string]struct {
		id         uuid.UUID
		channel    string
		wantStatus int
		wantLink   string
	}{
		"whatsapp":  {id: testCompanyID, channel: "whatsapp", wantStatus: http.StatusOK, wantLink: "https://wa.me/6281234567890?text="},
		"email":     {id: testCompanyID, channel: "email", wantStatus: http.StatusOK, wantLink: "mailto:csr@majujaya.co.id?subject="},
		"not found": {id: uuid.New(), channel: "email", wantStatus: http.StatusNotFound},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/companies/x/compose/"+tt.channel, nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)
			c.SetParamNames("id", "channel")
			c.SetParamValues(tt.id.String(), tt.channel)
			signIn(c, memberID)

			if err := newCompaniesHandler(t, repo).Compose(c); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}
			if tt.wantLink == "" {
				return
			}

			var payload struct {
				Data dto.ComposeResponse `json:"data"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			if !strings.HasPrefix(payload.Data.Link, tt.wantLink) {
				t.Fatalf("expected link prefix %s, got %s", tt.wantLink, payload.Data.Link)
			}
			if !strings.Contains(payload.Data.Message, "PT Maju Jaya") {
				t.Fatalf("expected company name in message: %s", payload.Data.Message)
			}
		})
	}
}

func TestCompaniesHandler_Send(t *testing.T) {
	tests := map[string]struct {
		actor      uuid.UUID
		wantStatus int
	}{
		"incomplete profile": {actor: otherID, wantStatus: http.StatusUnprocessableEntity},
		"sent":               {actor: memberID, wantStatus: http.StatusOK},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			var written entity.ChannelStatus
			repo := &stubCompaniesRepo{
				findByID: func(ctx context.Context, id uuid.UUID) (*entity.Company, error) { return storedCompany(), nil },
				updateStatus: func(ctx context.Context, id uuid.UUID, ch entity.Channel, status entity.ChannelStatus, expectedVersion int64) (*entity.Company, error) {
					written = status
					c := storedCompany()
					*c.Status.For(ch) = status
					return c, nil
				},
			}

			e := echo.New()
			req := httptest.NewRequest(http.MethodPost, "/companies/x/send/email", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)
			c.SetParamNames("id", "channel")
			c.SetParamValues(testCompanyID.String(), "email")
			signIn(c, tt.actor)

			if err := newCompaniesHandler(t, repo).Send(c); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}
			if tt.wantStatus == http.StatusOK {
				if !written.Sent || written.SentBy == nil || written.SentBy.Name != "Rina Kusuma" || written.DateSent == nil {
					t.Fatalf("unexpected status written: %+v", written)
				}
			}
		})
	}
}

func TestCompaniesHandler_Stats(t *testing.T) {
	var owner *uuid.UUID
	repo := &stubCompaniesRepo{stats: func(ctx context.Context, ownerID *uuid.UUID) (entity.CompanyStats, error) {
		owner = ownerID
		return entity.CompanyStats{Total: 4, WhatsAppSent: 2, EmailSent: 1, BothSent: 1, AnySent: 2, NoneSent: 2}, nil
	}}

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/companies/stats?scope=all", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	signIn(c, memberID)

	if err := newCompaniesHandler(t, repo).Stats(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK || owner != nil {
		t.Fatalf("expected team-wide stats, got status %d owner %v", rec.Code, owner)
	}
	if !strings.Contains(rec.Body.String(), `"none_sent":2`) {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestCompaniesHandler_Export(t *testing.T) {
	repo := &stubCompaniesRepo{list: func(ctx context.Context, filter dto.CompanyFilter) ([]entity.Company, error) {
		return []entity.Company{*storedCompany()}, nil
	}}

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/companies/export", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	signIn(c, memberID)

	if err := newCompaniesHandler(t, repo).Export(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get(echo.HeaderContentDisposition); got != `attachment; filename="himtika-proposal-backup-2025-03-01.json"` {
		t.Fatalf("unexpected content disposition: %s", got)
	}

	backup, err := service.DecodeBackup(rec.Body)
	if err != nil {
		t.Fatalf("decode backup: %v", err)
	}
	if backup.Version != service.BackupVersion || len(backup.Companies) != 1 {
		t.Fatalf("unexpected backup: %+v", backup)
	}
}
