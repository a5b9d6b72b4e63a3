package handler

import (
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/himtika/proposal-tracker/internal/service"
)

// AdminUploadHandler handles bulk ingestion for administrators.
type AdminUploadHandler struct {
	service *service.OutreachService
	actors  ActorSource
}

// NewAdminUploadHandler wires a handler backed by the outreach service.
func NewAdminUploadHandler(service *service.OutreachService, actors ActorSource) *AdminUploadHandler {
	return &AdminUploadHandler{service: service, actors: actors}
}

// UploadCSV handles POST /admin/upload-csv requests.
func (h *AdminUploadHandler) UploadCSV(c echo.Context) error {
	actor, err := currentActor(c, h.actors)
	if err != nil {
		return failure(c, err, "failed to resolve actor")
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return Error(c, http.StatusBadRequest, "missing csv file")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return Error(c, http.StatusBadRequest, "unable to open file")
	}
	defer file.Close()

	summary, err := h.service.ImportCompaniesCSV(c.Request().Context(), actor, file)
	if err != nil {
		return failure(c, err, "failed to process csv")
	}

	return Success(c, http.StatusOK, "companies CSV processed", summary)
}

// ImportBackup handles POST /admin/companies/import requests. The backup is
// read from a multipart "file" field or from the raw JSON body.
func (h *AdminUploadHandler) ImportBackup(c echo.Context) error {
	actor, err := currentActor(c, h.actors)
	if err != nil {
		return failure(c, err, "failed to resolve actor")
	}

	var body io.Reader = c.Request().Body
	if strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		fileHeader, err := c.FormFile("file")
		if err != nil {
			return Error(c, http.StatusBadRequest, "missing backup file")
		}
		file, err := fileHeader.Open()
		if err != nil {
			return Error(c, http.StatusBadRequest, "unable to open file")
		}
		defer file.Close()
		body = file
	}

	backup, err := service.DecodeBackup(body)
	if err != nil {
		return failure(c, err, "invalid backup")
	}

	summary, err := h.service.RestoreBackup(c.Request().Context(), actor, backup)
	if err != nil {
		return failure(c, err, "failed to restore backup")
	}

	return Success(c, http.StatusOK, "backup restored", summary)
}
