// Package outreach holds the pure rules of proposal outreach: contact
// validation, phone canonicalisation, message composition and the
// per-channel status machine.
package outreach

import (
	"fmt"
	"strings"
)

// Reason classifies why a candidate record was rejected.
type Reason string

const (
	ReasonMissingName    Reason = "missing_name"
	ReasonMissingContact Reason = "missing_contact"
)

// ValidationError reports a rejected candidate.
type ValidationError struct {
	Reason Reason
}

func (e *ValidationError) Error() string {
	switch e.Reason {
	case ReasonMissingName:
		return "company name is required"
	case ReasonMissingContact:
		return "either email or phone is required"
	default:
		return fmt.Sprintf("invalid company: %s", e.Reason)
	}
}

// Is matches any ValidationError carrying the same reason.
func (e *ValidationError) Is(target error) bool {
	t, ok := target.(*ValidationError)
	return ok && t.Reason == e.Reason
}

var (
	ErrMissingName    error = &ValidationError{Reason: ReasonMissingName}
	ErrMissingContact error = &ValidationError{Reason: ReasonMissingContact}
)

// Candidate is user input for a new company record.
type Candidate struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// Trimmed returns the candidate with surrounding whitespace removed.
func (c Candidate) Trimmed() Candidate {
	return Candidate{
		Name:  strings.TrimSpace(c.Name),
		Email: strings.TrimSpace(c.Email),
		Phone: strings.TrimSpace(c.Phone),
	}
}

// Validate checks that a candidate has a name and at least one contact.
func Validate(c Candidate) error {
	c = c.Trimmed()
	if c.Name == "" {
		return &ValidationError{Reason: ReasonMissingName}
	}
	if c.Email == "" && c.Phone == "" {
		return &ValidationError{Reason: ReasonMissingContact}
	}
	return nil
}
