package handler

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/himtika/proposal-tracker/internal/dto"
	"github.com/himtika/proposal-tracker/internal/entity"
	"github.com/himtika/proposal-tracker/internal/outreach"
	"github.com/himtika/proposal-tracker/internal/service"
)

// CompaniesHandler exposes company records and outreach actions.
type CompaniesHandler struct {
	service *service.OutreachService
	actors  ActorSource
}

// NewCompaniesHandler creates a new handler instance.
func NewCompaniesHandler(service *service.OutreachService, actors ActorSource) *CompaniesHandler {
	return &CompaniesHandler{service: service, actors: actors}
}

// ownerScope maps ?scope= onto an owner filter. "mine" is the default.
func ownerScope(c echo.Context, actor entity.Actor) (*uuid.UUID, error) {
	switch strings.ToLower(strings.TrimSpace(c.QueryParam("scope"))) {
	case "", "mine":
		id := actor.ID
		return &id, nil
	case "all":
		return nil, nil
	default:
		return nil, service.InputError{Message: "scope must be mine or all"}
	}
}

func companyID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, service.InputError{Message: "invalid company id"}
	}
	return id, nil
}

// List handles GET /companies requests.
func (h *CompaniesHandler) List(c echo.Context) error {
	actor, err := currentActor(c, h.actors)
	if err != nil {
		return failure(c, err, "failed to resolve actor")
	}
	owner, err := ownerScope(c, actor)
	if err != nil {
		return failure(c, err, "invalid scope")
	}
	status, ok := dto.ParseStatusFilter(strings.ToLower(strings.TrimSpace(c.QueryParam("status"))))
	if !ok {
		return Error(c, http.StatusBadRequest, "status must be all, any_sent or none_sent")
	}

	filter := dto.CompanyFilter{
		OwnerID: owner,
		Status:  status,
		Search:  strings.TrimSpace(c.QueryParam("q")),
		Page:    parseIntDefault(c.QueryParam("page"), 1),
		PerPage: parseIntDefault(c.QueryParam("per_page"), 0),
	}

	companies, err := h.service.ListCompanies(c.Request().Context(), filter)
	if err != nil {
		return failure(c, err, "failed to list companies")
	}

	return Success(c, http.StatusOK, "companies retrieved", companies)
}

// Create handles POST /companies requests.
func (h *CompaniesHandler) Create(c echo.Context) error {
	actor, err := currentActor(c, h.actors)
	if err != nil {
		return failure(c, err, "failed to resolve actor")
	}
	var req dto.CreateCompanyRequest
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "invalid payload")
	}

	company, err := h.service.AddCompany(c.Request().Context(), actor, outreach.Candidate{Name: req.Name, Email: req.Email, Phone: req.Phone})
	if err != nil {
		return failure(c, err, "failed to add company")
	}

	setETag(c, company)
	return Success(c, http.StatusCreated, "company added", company)
}

// Get handles GET /companies/:id requests.
func (h *CompaniesHandler) Get(c echo.Context) error {
	id, err := companyID(c)
	if err != nil {
		return failure(c, err, "invalid company id")
	}
	company, err := h.service.FindCompany(c.Request().Context(), id)
	if err != nil {
		return failure(c, err, "failed to load company")
	}
	setETag(c, company)
	return Success(c, http.StatusOK, "company retrieved", company)
}

// Delete handles DELETE /companies/:id?confirm=true requests. Deletion is
// irreversible, so the caller must confirm it explicitly.
func (h *CompaniesHandler) Delete(c echo.Context) error {
	if c.QueryParam("confirm") != "true" {
		return Error(c, http.StatusBadRequest, "deletion must be confirmed with confirm=true")
	}
	actor, err := currentActor(c, h.actors)
	if err != nil {
		return failure(c, err, "failed to resolve actor")
	}
	id, err := companyID(c)
	if err != nil {
		return failure(c, err, "invalid company id")
	}

	if err := h.service.RemoveCompany(c.Request().Context(), actor, id); err != nil {
		return failure(c, err, "failed to delete company")
	}
	return Success(c, http.StatusOK, "company deleted", nil)
}

// Stats handles GET /companies/stats requests.
func (h *CompaniesHandler) Stats(c echo.Context) error {
	actor, err := currentActor(c, h.actors)
	if err != nil {
		return failure(c, err, "failed to resolve actor")
	}
	owner, err := ownerScope(c, actor)
	if err != nil {
		return failure(c, err, "invalid scope")
	}

	stats, err := h.service.Stats(c.Request().Context(), owner)
	if err != nil {
		return failure(c, err, "failed to compute stats")
	}
	return Success(c, http.StatusOK, "stats retrieved", stats)
}

// UpdateStatus handles POST /companies/:id/status/:channel requests.
func (h *CompaniesHandler) UpdateStatus(c echo.Context) error {
	actor, err := currentActor(c, h.actors)
	if err != nil {
		return failure(c, err, "failed to resolve actor")
	}
	id, err := companyID(c)
	if err != nil {
		return failure(c, err, "invalid company id")
	}
	ch, err := outreach.ParseChannel(c.Param("channel"))
	if err != nil {
		return failure(c, err, "invalid channel")
	}

	var req dto.UpdateStatusRequest
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "invalid payload")
	}
	transition, err := outreach.ParseTransition(req.Transition)
	if err != nil {
		return failure(c, err, "invalid transition")
	}
	version, err := expectedVersion(c, req.ExpectedVersion)
	if err != nil {
		return failure(c, err, "invalid version")
	}

	company, err := h.service.UpdateStatus(c.Request().Context(), actor, id, ch, transition, version)
	if err != nil {
		return failure(c, err, "failed to update status")
	}

	setETag(c, company)
	return Success(c, http.StatusOK, "status updated", company)
}

// Compose handles GET /companies/:id/compose/:channel requests.
func (h *CompaniesHandler) Compose(c echo.Context) error {
	actor, err := currentActor(c, h.actors)
	if err != nil {
		return failure(c, err, "failed to resolve actor")
	}
	id, err := companyID(c)
	if err != nil {
		return failure(c, err, "invalid company id")
	}
	ch, err := outreach.ParseChannel(c.Param("channel"))
	if err != nil {
		return failure(c, err, "invalid channel")
	}

	composed, err := h.service.Compose(c.Request().Context(), actor, id, ch)
	if err != nil {
		return failure(c, err, "failed to compose message")
	}
	return Success(c, http.StatusOK, "message composed", composed)
}

// Send handles POST /companies/:id/send/:channel requests.
func (h *CompaniesHandler) Send(c echo.Context) error {
	actor, err := currentActor(c, h.actors)
	if err != nil {
		return failure(c, err, "failed to resolve actor")
	}
	id, err := companyID(c)
	if err != nil {
		return failure(c, err, "invalid company id")
	}
	ch, err := outreach.ParseChannel(c.Param("channel"))
	if err != nil {
		return failure(c, err, "invalid channel")
	}
	version, err := expectedVersion(c, 0)
	if err != nil {
		return failure(c, err, "invalid version")
	}

	sent, err := h.service.Send(c.Request().Context(), actor, id, ch, version)
	if err != nil {
		return failure(c, err, "failed to send proposal")
	}

	setETag(c, &sent.Company)
	return Success(c, http.StatusOK, "proposal ready to send", sent)
}

// Export handles GET /companies/export requests.
func (h *CompaniesHandler) Export(c echo.Context) error {
	actor, err := currentActor(c, h.actors)
	if err != nil {
		return failure(c, err, "failed to resolve actor")
	}
	owner, err := ownerScope(c, actor)
	if err != nil {
		return failure(c, err, "invalid scope")
	}

	backup, err := h.service.ExportBackup(c.Request().Context(), owner)
	if err != nil {
		return failure(c, err, "failed to export companies")
	}

	filename := fmt.Sprintf("himtika-proposal-backup-%s.json", backup.ExportDate.Format("2006-01-02"))
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return c.JSON(http.StatusOK, backup)
}
