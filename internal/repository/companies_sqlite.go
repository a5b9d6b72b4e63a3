package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/himtika/proposal-tracker/internal/dto"
	"github.com/himtika/proposal-tracker/internal/entity"
)

// SQLiteCompaniesRepository implements CompaniesRepository on a local SQLite file.
type SQLiteCompaniesRepository struct {
	db *sql.DB
}

// NewSQLiteCompaniesRepository wires a SQLite backed repository.
func NewSQLiteCompaniesRepository(db *sql.DB) *SQLiteCompaniesRepository {
	return &SQLiteCompaniesRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteCompany(row rowScanner) (*entity.Company, error) {
	var (
		c                    entity.Company
		id, createdBy        string
		dateAdded, updatedAt string
		wa, em               sqliteChannelColumns
	)
	err := row.Scan(
		&id, &c.Name, &c.Email, &c.Phone, &dateAdded, &createdBy, &c.CreatedBy.Name,
		&wa.sent, &wa.dateSent, &wa.sentBy, &wa.sentByName, &wa.sentByPhone,
		&em.sent, &em.dateSent, &em.sentBy, &em.sentByName, &em.sentByPhone,
		&c.Version, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if c.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("parse id: %w", err)
	}
	if c.CreatedBy.ID, err = uuid.Parse(createdBy); err != nil {
		return nil, fmt.Errorf("parse created_by: %w", err)
	}
	if c.DateAdded, err = parseTime(dateAdded); err != nil {
		return nil, err
	}
	if c.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	if c.Status.WhatsApp, err = wa.status(); err != nil {
		return nil, err
	}
	if c.Status.Email, err = em.status(); err != nil {
		return nil, err
	}
	return &c, nil
}

// sqliteInsertColumns extends companyColumns with the folded search columns.
const sqliteInsertColumns = companyColumns + `, name_search, email_search`

// foldSearch lowercases with full Unicode case mapping.
func foldSearch(s string) string {
	return strings.ToLower(s)
}

// companyInsertArgs lists values in sqliteInsertColumns order; updatedAt fills
// the updated_at slot after the fixed version literal.
func companyInsertArgs(c *entity.Company, updatedAt string) []any {
	args := []any{c.ID.String(), c.Name, c.Email, c.Phone, formatTime(c.DateAdded), c.CreatedBy.ID.String(), c.CreatedBy.Name}
	args = append(args, sqliteChannelArgs(c.Status.WhatsApp)...)
	args = append(args, sqliteChannelArgs(c.Status.Email)...)
	return append(args, updatedAt, foldSearch(c.Name), foldSearch(c.Email))
}

// Create inserts a new company row.
func (r *SQLiteCompaniesRepository) Create(ctx context.Context, company *entity.Company) error {
	if company == nil {
		return fmt.Errorf("company payload is nil")
	}

	args := companyInsertArgs(company, formatTime(company.DateAdded))
	_, err := r.db.ExecContext(ctx, `
        INSERT INTO companies (`+sqliteInsertColumns+`)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?, ?, ?)`, args...)
	if err != nil {
		if isSQLiteUnique(err) {
			return ErrCompanyExists
		}
		return persistErr("insert company", err)
	}
	company.Version = 1
	company.UpdatedAt = company.DateAdded.UTC()
	return nil
}

// FindByID returns a company by identifier.
func (r *SQLiteCompaniesRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Company, error) {
	c, err := scanSQLiteCompany(r.db.QueryRowContext(ctx, `SELECT `+companyColumns+` FROM companies WHERE id = ?`, id.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCompanyNotFound
		}
		return nil, persistErr("query company by id", err)
	}
	return c, nil
}

// Delete removes a company permanently.
func (r *SQLiteCompaniesRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM companies WHERE id = ?`, id.String())
	if err != nil {
		return persistErr("delete company", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return persistErr("delete company", err)
	}
	if affected == 0 {
		return ErrCompanyNotFound
	}
	return nil
}

func sqliteFilterClauses(filter dto.CompanyFilter) ([]string, []any) {
	var (
		clauses []string
		args    []any
	)
	if filter.OwnerID != nil {
		clauses = append(clauses, "created_by = ?")
		args = append(args, filter.OwnerID.String())
	}
	switch filter.Status {
	case dto.StatusAnySent:
		clauses = append(clauses, "(whatsapp_sent OR email_sent)")
	case dto.StatusNoneSent:
		clauses = append(clauses, "NOT whatsapp_sent AND NOT email_sent")
	}
	if term := strings.TrimSpace(filter.Search); term != "" {
		pattern := foldSearch(likePattern(term))
		clauses = append(clauses, `(name_search LIKE ? ESCAPE '\' OR email_search LIKE ? ESCAPE '\')`)
		args = append(args, pattern, pattern)
	}
	return clauses, args
}

// List retrieves companies matching every set filter, newest first.
func (r *SQLiteCompaniesRepository) List(ctx context.Context, filter dto.CompanyFilter) ([]entity.Company, error) {
	query := strings.Builder{}
	query.WriteString(`SELECT ` + companyColumns + ` FROM companies`)

	clauses, args := sqliteFilterClauses(filter)
	if len(clauses) > 0 {
		query.WriteString(" WHERE ")
		query.WriteString(strings.Join(clauses, " AND "))
	}
	query.WriteString(" ORDER BY date_added DESC, id ASC")
	if filter.PerPage > 0 {
		query.WriteString(" LIMIT ? OFFSET ?")
		args = append(args, filter.PerPage, filter.Offset())
	}

	rows, err := r.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, persistErr("list companies", err)
	}
	defer rows.Close()

	companies := make([]entity.Company, 0)
	for rows.Next() {
		c, err := scanSQLiteCompany(rows)
		if err != nil {
			return nil, persistErr("scan company", err)
		}
		companies = append(companies, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, persistErr("iterate companies", err)
	}
	return companies, nil
}

// UpdateChannelStatus persists one channel's status and bumps the version.
func (r *SQLiteCompaniesRepository) UpdateChannelStatus(ctx context.Context, id uuid.UUID, ch entity.Channel, status entity.ChannelStatus, expectedVersion int64) (*entity.Company, error) {
	prefix, ok := channelColumnPrefix[ch]
	if !ok {
		return nil, fmt.Errorf("unsupported channel %q", ch)
	}

	args := sqliteChannelArgs(status)
	args = append(args, formatTime(nowUTC()), id.String())
	query := fmt.Sprintf(`
        UPDATE companies SET
            %[1]s_sent = ?,
            %[1]s_date_sent = ?,
            %[1]s_sent_by = ?,
            %[1]s_sent_by_name = ?,
            %[1]s_sent_by_phone = ?,
            version = version + 1,
            updated_at = ?
        WHERE id = ?`, prefix)
	if expectedVersion > 0 {
		query += " AND version = ?"
		args = append(args, expectedVersion)
	}
	query += " RETURNING " + companyColumns

	c, err := scanSQLiteCompany(r.db.QueryRowContext(ctx, query, args...))
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, persistErr("update company status", err)
	}
	if expectedVersion <= 0 {
		return nil, ErrCompanyNotFound
	}

	var exists bool
	if err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM companies WHERE id = ?)`, id.String()).Scan(&exists); err != nil {
		return nil, persistErr("check company existence", err)
	}
	if exists {
		return nil, ErrConflict
	}
	return nil, ErrCompanyNotFound
}

// Upsert restores a batch of companies keyed by id inside one transaction.
func (r *SQLiteCompaniesRepository) Upsert(ctx context.Context, companies []entity.Company) (BulkUpsertResult, error) {
	var result BulkUpsertResult
	if len(companies) == 0 {
		return result, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return result, persistErr("start upsert tx", err)
	}
	defer tx.Rollback()

	now := formatTime(nowUTC())
	for i := range companies {
		c := &companies[i]

		var exists bool
		if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM companies WHERE id = ?)`, c.ID.String()).Scan(&exists); err != nil {
			return BulkUpsertResult{}, persistErr("check company existence", err)
		}

		args := companyInsertArgs(c, now)
		_, err := tx.ExecContext(ctx, `
            INSERT INTO companies (`+sqliteInsertColumns+`)
            VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?, ?, ?)
            ON CONFLICT (id) DO UPDATE SET
                name = excluded.name,
                email = excluded.email,
                phone = excluded.phone,
                whatsapp_sent = excluded.whatsapp_sent,
                whatsapp_date_sent = excluded.whatsapp_date_sent,
                whatsapp_sent_by = excluded.whatsapp_sent_by,
                whatsapp_sent_by_name = excluded.whatsapp_sent_by_name,
                whatsapp_sent_by_phone = excluded.whatsapp_sent_by_phone,
                email_sent = excluded.email_sent,
                email_date_sent = excluded.email_date_sent,
                email_sent_by = excluded.email_sent_by,
                email_sent_by_name = excluded.email_sent_by_name,
                email_sent_by_phone = excluded.email_sent_by_phone,
                name_search = excluded.name_search,
                email_search = excluded.email_search,
                version = companies.version + 1,
                updated_at = excluded.updated_at`, args...)
		if err != nil {
			return BulkUpsertResult{}, persistErr(fmt.Sprintf("upsert company %q", c.Name), err)
		}

		if exists {
			result.Updated++
		} else {
			result.Inserted++
		}
		result.Total++
	}

	if err := tx.Commit(); err != nil {
		return BulkUpsertResult{}, persistErr("commit upsert tx", err)
	}
	return result, nil
}

// Stats counts companies per outreach state, optionally for one owner.
func (r *SQLiteCompaniesRepository) Stats(ctx context.Context, ownerID *uuid.UUID) (entity.CompanyStats, error) {
	query := `
        SELECT
            COUNT(*),
            COALESCE(SUM(whatsapp_sent), 0),
            COALESCE(SUM(email_sent), 0),
            COALESCE(SUM(whatsapp_sent AND email_sent), 0),
            COALESCE(SUM(whatsapp_sent OR email_sent), 0)
        FROM companies`
	var args []any
	if ownerID != nil {
		query += " WHERE created_by = ?"
		args = append(args, ownerID.String())
	}

	var stats entity.CompanyStats
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&stats.Total, &stats.WhatsAppSent, &stats.EmailSent, &stats.BothSent, &stats.AnySent)
	if err != nil {
		return entity.CompanyStats{}, persistErr("company stats", err)
	}
	stats.NoneSent = stats.Total - stats.AnySent
	return stats, nil
}
