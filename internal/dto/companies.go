package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/himtika/proposal-tracker/internal/entity"
)

// StatusFilter narrows company listings by outreach progress.
type StatusFilter string

const (
	StatusAll      StatusFilter = "all"
	StatusAnySent  StatusFilter = "any_sent"
	StatusNoneSent StatusFilter = "none_sent"
)

// ParseStatusFilter maps query input onto a filter, defaulting to all.
func ParseStatusFilter(value string) (StatusFilter, bool) {
	switch StatusFilter(value) {
	case "", StatusAll:
		return StatusAll, true
	case StatusAnySent, "sent":
		return StatusAnySent, true
	case StatusNoneSent, "pending":
		return StatusNoneSent, true
	default:
		return "", false
	}
}

// CompanyFilter contains query parameters for company listings. A nil
// OwnerID lists every team member's companies.
type CompanyFilter struct {
	OwnerID *uuid.UUID
	Status  StatusFilter
	Search  string
	Page    int
	PerPage int
}

// Offset returns the row offset for the current page.
func (f CompanyFilter) Offset() int {
	if f.Page <= 1 {
		return 0
	}
	return (f.Page - 1) * f.PerPage
}

// CreateCompanyRequest is the payload for adding a company.
type CreateCompanyRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// UpdateStatusRequest is the payload for a status transition.
type UpdateStatusRequest struct {
	Transition      string `json:"transition"`
	ExpectedVersion int64  `json:"expected_version"`
}

// ComposeResponse carries a rendered outreach message and its deep link.
type ComposeResponse struct {
	Channel  entity.Channel `json:"channel"`
	Subject  string         `json:"subject,omitempty"`
	Message  string         `json:"message"`
	Link     string         `json:"link"`
	Warnings []string       `json:"warnings,omitempty"`
}

// SendResponse is returned after a proposal was dispatched over a channel.
type SendResponse struct {
	ComposeResponse
	Company entity.Company `json:"company"`
}

// Backup is the portable export format of the company list.
type Backup struct {
	Version    string           `json:"version"`
	ExportDate time.Time        `json:"exportDate"`
	Companies  []entity.Company `json:"companies"`
}

// ImportSummary reports the outcome of a bulk import.
type ImportSummary struct {
	Inserted int      `json:"inserted"`
	Updated  int      `json:"updated"`
	Skipped  int      `json:"skipped"`
	Total    int      `json:"total"`
	Errors   []string `json:"errors,omitempty"`
}
