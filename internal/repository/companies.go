package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/himtika/proposal-tracker/internal/dto"
	"github.com/himtika/proposal-tracker/internal/entity"
)

// CompaniesRepository describes persistence operations for outreach targets.
type CompaniesRepository interface {
	Create(ctx context.Context, company *entity.Company) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Company, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter dto.CompanyFilter) ([]entity.Company, error)
	// UpdateChannelStatus writes the whole status of one channel in a single
	// statement. A zero expectedVersion skips the version check.
	UpdateChannelStatus(ctx context.Context, id uuid.UUID, ch entity.Channel, status entity.ChannelStatus, expectedVersion int64) (*entity.Company, error)
	Upsert(ctx context.Context, companies []entity.Company) (BulkUpsertResult, error)
	Stats(ctx context.Context, ownerID *uuid.UUID) (entity.CompanyStats, error)
}

// BulkUpsertResult summarises the number of rows inserted or updated.
type BulkUpsertResult struct {
	Inserted int
	Updated  int
	Total    int
}

const companyColumns = `id, name, email, phone, date_added, created_by, created_by_name,
            whatsapp_sent, whatsapp_date_sent, whatsapp_sent_by, whatsapp_sent_by_name, whatsapp_sent_by_phone,
            email_sent, email_date_sent, email_sent_by, email_sent_by_name, email_sent_by_phone,
            version, updated_at`

// channelColumnPrefix maps a channel onto its column prefix. Only values from
// this table are ever interpolated into SQL.
var channelColumnPrefix = map[entity.Channel]string{
	entity.ChannelWhatsApp: "whatsapp",
	entity.ChannelEmail:    "email",
}

// PGXCompaniesRepository implements CompaniesRepository using pgx.
type PGXCompaniesRepository struct {
	pool pgxPool
}

// NewPGXCompaniesRepository wires a pgx backed repository.
func NewPGXCompaniesRepository(pool *pgxpool.Pool) *PGXCompaniesRepository {
	return &PGXCompaniesRepository{pool: pool}
}

type pgChannelColumns struct {
	sent        bool
	dateSent    sql.NullTime
	sentBy      uuid.NullUUID
	sentByName  sql.NullString
	sentByPhone sql.NullString
}

func (cc pgChannelColumns) status() entity.ChannelStatus {
	if !cc.sent {
		return entity.ChannelStatus{}
	}
	status := entity.ChannelStatus{Sent: true}
	if cc.dateSent.Valid {
		ts := cc.dateSent.Time.UTC()
		status.DateSent = &ts
	}
	status.SentBy = &entity.ActorRef{ID: cc.sentBy.UUID, Name: cc.sentByName.String, Phone: cc.sentByPhone.String}
	return status
}

// channelArgs flattens a channel status into its five column values.
func channelArgs(s entity.ChannelStatus) []any {
	if !s.Sent {
		return []any{false, nil, nil, nil, nil}
	}
	var (
		dateSent any
		sentBy   any
		name     any
		phone    any
	)
	if s.DateSent != nil {
		dateSent = s.DateSent.UTC()
	}
	if s.SentBy != nil {
		sentBy = s.SentBy.ID
		name = s.SentBy.Name
		phone = s.SentBy.Phone
	}
	return []any{true, dateSent, sentBy, name, phone}
}

func scanCompany(row pgx.Row) (*entity.Company, error) {
	var (
		c      entity.Company
		wa, em pgChannelColumns
	)
	err := row.Scan(
		&c.ID, &c.Name, &c.Email, &c.Phone, &c.DateAdded, &c.CreatedBy.ID, &c.CreatedBy.Name,
		&wa.sent, &wa.dateSent, &wa.sentBy, &wa.sentByName, &wa.sentByPhone,
		&em.sent, &em.dateSent, &em.sentBy, &em.sentByName, &em.sentByPhone,
		&c.Version, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.DateAdded = c.DateAdded.UTC()
	c.UpdatedAt = c.UpdatedAt.UTC()
	c.Status.WhatsApp = wa.status()
	c.Status.Email = em.status()
	return &c, nil
}

func scanCompanies(rows pgx.Rows) ([]entity.Company, error) {
	companies := make([]entity.Company, 0)
	for rows.Next() {
		c, err := scanCompany(rows)
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

// Create inserts a new company with both channels in their initial state.
func (r *PGXCompaniesRepository) Create(ctx context.Context, company *entity.Company) error {
	if company == nil {
		return fmt.Errorf("company payload is nil")
	}

	args := []any{company.ID, company.Name, company.Email, company.Phone, company.DateAdded, company.CreatedBy.ID, company.CreatedBy.Name}
	args = append(args, channelArgs(company.Status.WhatsApp)...)
	args = append(args, channelArgs(company.Status.Email)...)

	row := r.pool.QueryRow(ctx, `
        INSERT INTO companies (`+companyColumns+`)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, 1, $5)
        RETURNING version, updated_at`, args...)

	if err := row.Scan(&company.Version, &company.UpdatedAt); err != nil {
		if isUniqueViolation(err, "companies_pkey") {
			return ErrCompanyExists
		}
		return persistErr("insert company", err)
	}
	return nil
}

// FindByID returns a company by identifier.
func (r *PGXCompaniesRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Company, error) {
	c, err := scanCompany(r.pool.QueryRow(ctx, `SELECT `+companyColumns+` FROM companies WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCompanyNotFound
		}
		return nil, persistErr("query company by id", err)
	}
	return c, nil
}

// Delete removes a company permanently.
func (r *PGXCompaniesRepository) Delete(ctx context.Context, id uuid.UUID) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM companies WHERE id = $1`, id)
	if err != nil {
		return persistErr("delete company", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrCompanyNotFound
	}
	return nil
}

// List retrieves companies matching every set filter, newest first.
func (r *PGXCompaniesRepository) List(ctx context.Context, filter dto.CompanyFilter) ([]entity.Company, error) {
	query := strings.Builder{}
	query.WriteString(`SELECT ` + companyColumns + ` FROM companies`)

	clauses, args := pgFilterClauses(filter)
	if len(clauses) > 0 {
		query.WriteString(" WHERE ")
		query.WriteString(strings.Join(clauses, " AND "))
	}
	query.WriteString(" ORDER BY date_added DESC, id ASC")

	if filter.PerPage > 0 {
		query.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2))
		args = append(args, filter.PerPage, filter.Offset())
	}

	rows, err := r.pool.Query(ctx, query.String(), args...)
	if err != nil {
		return nil, persistErr("list companies", err)
	}
	defer rows.Close()

	return scanCompanies(rows)
}

func pgFilterClauses(filter dto.CompanyFilter) ([]string, []any) {
	var (
		clauses []string
		args    []any
	)
	if filter.OwnerID != nil {
		args = append(args, *filter.OwnerID)
		clauses = append(clauses, fmt.Sprintf("created_by = $%d", len(args)))
	}
	switch filter.Status {
	case dto.StatusAnySent:
		clauses = append(clauses, "(whatsapp_sent OR email_sent)")
	case dto.StatusNoneSent:
		clauses = append(clauses, "NOT whatsapp_sent AND NOT email_sent")
	}
	if term := strings.TrimSpace(filter.Search); term != "" {
		args = append(args, likePattern(term))
		clauses = append(clauses, fmt.Sprintf("(name ILIKE $%d OR email ILIKE $%d)", len(args), len(args)))
	}
	return clauses, args
}

// UpdateChannelStatus persists one channel's status and bumps the version.
func (r *PGXCompaniesRepository) UpdateChannelStatus(ctx context.Context, id uuid.UUID, ch entity.Channel, status entity.ChannelStatus, expectedVersion int64) (*entity.Company, error) {
	prefix, ok := channelColumnPrefix[ch]
	if !ok {
		return nil, fmt.Errorf("unsupported channel %q", ch)
	}

	args := channelArgs(status)
	args = append(args, id)
	query := fmt.Sprintf(`
        UPDATE companies SET
            %[1]s_sent = $1,
            %[1]s_date_sent = $2,
            %[1]s_sent_by = $3,
            %[1]s_sent_by_name = $4,
            %[1]s_sent_by_phone = $5,
            version = version + 1,
            updated_at = NOW()
        WHERE id = $6`, prefix)
	if expectedVersion > 0 {
		args = append(args, expectedVersion)
		query += " AND version = $7"
	}
	query += " RETURNING " + companyColumns

	c, err := scanCompany(r.pool.QueryRow(ctx, query, args...))
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, persistErr("update company status", err)
	}
	if expectedVersion <= 0 {
		return nil, ErrCompanyNotFound
	}

	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM companies WHERE id = $1)`, id).Scan(&exists); err != nil {
		return nil, persistErr("check company existence", err)
	}
	if exists {
		return nil, ErrConflict
	}
	return nil, ErrCompanyNotFound
}

const upsertCompanySQL = `
        INSERT INTO companies (` + companyColumns + `)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, 1, NOW())
        ON CONFLICT (id) DO UPDATE SET
            name = EXCLUDED.name,
            email = EXCLUDED.email,
            phone = EXCLUDED.phone,
            whatsapp_sent = EXCLUDED.whatsapp_sent,
            whatsapp_date_sent = EXCLUDED.whatsapp_date_sent,
            whatsapp_sent_by = EXCLUDED.whatsapp_sent_by,
            whatsapp_sent_by_name = EXCLUDED.whatsapp_sent_by_name,
            whatsapp_sent_by_phone = EXCLUDED.whatsapp_sent_by_phone,
            email_sent = EXCLUDED.email_sent,
            email_date_sent = EXCLUDED.email_date_sent,
            email_sent_by = EXCLUDED.email_sent_by,
            email_sent_by_name = EXCLUDED.email_sent_by_name,
            email_sent_by_phone = EXCLUDED.email_sent_by_phone,
            version = companies.version + 1,
            updated_at = NOW()
        RETURNING xmax = 0`

// Upsert restores a batch of companies keyed by id inside one transaction.
func (r *PGXCompaniesRepository) Upsert(ctx context.Context, companies []entity.Company) (BulkUpsertResult, error) {
	var result BulkUpsertResult
	if len(companies) == 0 {
		return result, nil
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return result, persistErr("start upsert tx", err)
	}
	defer tx.Rollback(ctx)

	for _, c := range companies {
		args := []any{c.ID, c.Name, c.Email, c.Phone, c.DateAdded, c.CreatedBy.ID, c.CreatedBy.Name}
		args = append(args, channelArgs(c.Status.WhatsApp)...)
		args = append(args, channelArgs(c.Status.Email)...)

		var inserted bool
		if err := tx.QueryRow(ctx, upsertCompanySQL, args...).Scan(&inserted); err != nil {
			return BulkUpsertResult{}, persistErr(fmt.Sprintf("upsert company %q", c.Name), err)
		}
		if inserted {
			result.Inserted++
		} else {
			result.Updated++
		}
		result.Total++
	}

	if err := tx.Commit(ctx); err != nil {
		return BulkUpsertResult{}, persistErr("commit upsert tx", err)
	}
	return result, nil
}

// Stats counts companies per outreach state, optionally for one owner.
func (r *PGXCompaniesRepository) Stats(ctx context.Context, ownerID *uuid.UUID) (entity.CompanyStats, error) {
	query := `
        SELECT
            COUNT(*),
            COUNT(*) FILTER (WHERE whatsapp_sent),
            COUNT(*) FILTER (WHERE email_sent),
            COUNT(*) FILTER (WHERE whatsapp_sent AND email_sent),
            COUNT(*) FILTER (WHERE whatsapp_sent OR email_sent)
        FROM companies`
	var args []any
	if ownerID != nil {
		query += " WHERE created_by = $1"
		args = append(args, *ownerID)
	}

	var stats entity.CompanyStats
	err := r.pool.QueryRow(ctx, query, args...).Scan(&stats.Total, &stats.WhatsAppSent, &stats.EmailSent, &stats.BothSent, &stats.AnySent)
	if err != nil {
		return entity.CompanyStats{}, persistErr("company stats", err)
	}
	stats.NoneSent = stats.Total - stats.AnySent
	return stats, nil
}
