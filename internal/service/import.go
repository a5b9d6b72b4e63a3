package service

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/himtika/proposal-tracker/internal/dto"
	"github.com/himtika/proposal-tracker/internal/entity"
	"github.com/himtika/proposal-tracker/internal/identity"
	"github.com/himtika/proposal-tracker/internal/outreach"
)

// BackupVersion is written into every export.
const BackupVersion = "1.0"

// CSVValidationError indicates that the provided CSV payload is invalid.
type CSVValidationError struct {
	Message string
}

// Error implements the error interface.
func (e CSVValidationError) Error() string {
	return e.Message
}

// ImportCompaniesCSV adds every valid row of a name,email,phone CSV as a new
// company owned by the actor. Rejected rows are skipped and reported.
func (s *OutreachService) ImportCompaniesCSV(ctx context.Context, actor entity.Actor, r io.Reader) (dto.ImportSummary, error) {
	if actor.ID == uuid.Nil {
		return dto.ImportSummary{}, identity.ErrAnonymous
	}

	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return dto.ImportSummary{}, CSVValidationError{Message: "csv file is empty"}
		}
		return dto.ImportSummary{}, CSVValidationError{Message: fmt.Sprintf("read csv header: %v", err)}
	}

	index, valErr := buildHeaderIndex(header)
	if valErr != nil {
		return dto.ImportSummary{}, valErr
	}

	var (
		summary dto.ImportSummary
		records []entity.Company
		rowNum  = 1
		now     = s.clock.Now().UTC()
	)

	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return dto.ImportSummary{}, CSVValidationError{Message: fmt.Sprintf("read csv row %d: %v", rowNum+1, err)}
		}
		rowNum++

		candidate := outreach.Candidate{
			Name:  column(row, index, "name"),
			Email: column(row, index, "email"),
			Phone: column(row, index, "phone"),
		}
		if err := outreach.Validate(candidate); err != nil {
			s.rejected(err)
			summary.Skipped++
			summary.Errors = append(summary.Errors, fmt.Sprintf("row %d: %v", rowNum, err))
			continue
		}

		candidate = candidate.Trimmed()
		records = append(records, entity.Company{
			ID:        s.newID(),
			Name:      candidate.Name,
			Email:     candidate.Email,
			Phone:     candidate.Phone,
			DateAdded: now,
			CreatedBy: actor.Ref(),
		})
	}

	return s.upsert(ctx, records, summary)
}

var requiredCSVHeaders = []string{"name"}

// buildHeaderIndex maps lower-cased column names to positions. A name column
// and at least one of email or phone are required.
func buildHeaderIndex(header []string) (map[string]int, error) {
	index := make(map[string]int)
	for i, col := range header {
		index[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(col, "\ufeff")))] = i
	}

	missing := make([]string, 0)
	for _, required := range requiredCSVHeaders {
		if _, ok := index[required]; !ok {
			missing = append(missing, required)
		}
	}
	_, hasEmail := index["email"]
	_, hasPhone := index["phone"]
	if !hasEmail && !hasPhone {
		missing = append(missing, "email or phone")
	}
	if len(missing) > 0 {
		return nil, CSVValidationError{Message: fmt.Sprintf("missing required columns: %s", strings.Join(missing, ", "))}
	}
	return index, nil
}

func column(row []string, index map[string]int, name string) string {
	i, ok := index[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// ExportBackup returns every company, optionally limited to one owner.
func (s *OutreachService) ExportBackup(ctx context.Context, ownerID *uuid.UUID) (dto.Backup, error) {
	companies, err := s.repo.List(ctx, dto.CompanyFilter{OwnerID: ownerID, Status: dto.StatusAll})
	if err != nil {
		return dto.Backup{}, s.logged("export companies", err)
	}
	return dto.Backup{
		Version:    BackupVersion,
		ExportDate: s.clock.Now().UTC(),
		Companies:  companies,
	}, nil
}

// DecodeBackup parses a backup document.
func DecodeBackup(r io.Reader) (dto.Backup, error) {
	var backup dto.Backup
	dec := json.NewDecoder(r)
	if err := dec.Decode(&backup); err != nil {
		return dto.Backup{}, fmt.Errorf("%w: %v", ErrInvalidBackup, err)
	}
	if backup.Companies == nil {
		return dto.Backup{}, fmt.Errorf("%w: companies list is missing", ErrInvalidBackup)
	}
	return backup, nil
}

// RestoreBackup upserts the companies of a backup by id, keeping their
// status. Records without an id, a date added, a valid contact or with an
// inconsistent channel status are skipped.
func (s *OutreachService) RestoreBackup(ctx context.Context, actor entity.Actor, backup dto.Backup) (dto.ImportSummary, error) {
	if actor.ID == uuid.Nil {
		return dto.ImportSummary{}, identity.ErrAnonymous
	}
	if backup.Version != "" && backup.Version != BackupVersion {
		return dto.ImportSummary{}, fmt.Errorf("%w: unsupported version %q", ErrInvalidBackup, backup.Version)
	}

	var (
		summary dto.ImportSummary
		records = make([]entity.Company, 0, len(backup.Companies))
	)
	for i, c := range backup.Companies {
		if err := restorable(c); err != nil {
			s.rejected(err)
			summary.Skipped++
			summary.Errors = append(summary.Errors, fmt.Sprintf("company %d: %v", i+1, err))
			continue
		}

		c.Name = strings.TrimSpace(c.Name)
		c.Email = strings.TrimSpace(c.Email)
		c.Phone = strings.TrimSpace(c.Phone)
		c.DateAdded = c.DateAdded.UTC()
		if c.CreatedBy.ID == uuid.Nil {
			c.CreatedBy = actor.Ref()
		}
		records = append(records, c)
	}

	return s.upsert(ctx, records, summary)
}

func restorable(c entity.Company) error {
	if c.ID == uuid.Nil {
		return errors.New("id is required")
	}
	if c.DateAdded.IsZero() {
		return errors.New("date added is required")
	}
	if err := outreach.Validate(outreach.Candidate{Name: c.Name, Email: c.Email, Phone: c.Phone}); err != nil {
		return err
	}
	for _, ch := range entity.Channels() {
		st := c.Status.For(ch)
		if st.Sent != (st.DateSent != nil && st.SentBy != nil) {
			return fmt.Errorf("%s status is inconsistent", ch)
		}
	}
	return nil
}

func (s *OutreachService) upsert(ctx context.Context, records []entity.Company, summary dto.ImportSummary) (dto.ImportSummary, error) {
	summary.Total = len(records) + summary.Skipped
	if len(records) > 0 {
		result, err := s.repo.Upsert(ctx, records)
		if err != nil {
			return dto.ImportSummary{}, s.logged("upsert companies", err, zap.Int("records", len(records)))
		}
		summary.Inserted = result.Inserted
		summary.Updated = result.Updated
	}

	s.metrics.Imported("inserted", summary.Inserted)
	s.metrics.Imported("updated", summary.Updated)
	s.metrics.Imported("skipped", summary.Skipped)
	return summary, nil
}
