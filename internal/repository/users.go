package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/himtika/proposal-tracker/internal/entity"
)

// UsersRepository declares persistence operations for team member accounts.
type UsersRepository interface {
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
	Create(ctx context.Context, input CreateUserInput) (*entity.User, error)
	List(ctx context.Context) ([]entity.User, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateUserInput) (*entity.User, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// CreateUserInput holds the columns of a new user row.
type CreateUserInput struct {
	Email        string
	PasswordHash string
	Role         string
	FullName     string
	Phone        string
	Position     string
}

// UpdateUserInput lists the columns to patch; nil fields are left untouched.
type UpdateUserInput struct {
	Email        *string
	PasswordHash *string
	Role         *string
	FullName     *string
	Phone        *string
	Position     *string
}

func (in UpdateUserInput) columns() ([]string, []any) {
	var (
		cols []string
		vals []any
	)
	add := func(col string, v *string) {
		if v != nil {
			cols = append(cols, col)
			vals = append(vals, *v)
		}
	}
	add("email", in.Email)
	add("password_hash", in.PasswordHash)
	add("role", in.Role)
	add("full_name", in.FullName)
	add("phone", in.Phone)
	add("position", in.Position)
	return cols, vals
}

const userColumns = `id, email, password_hash, role, full_name, phone, position, created_at, updated_at`

const usersEmailConstraint = "users_email_key"

// PGXUsersRepository implements UsersRepository with pgx.
type PGXUsersRepository struct {
	pool pgxPool
}

// NewPGXUsersRepository instantiates a users repository.
func NewPGXUsersRepository(pool *pgxpool.Pool) *PGXUsersRepository {
	return &PGXUsersRepository{pool: pool}
}

func scanUser(row pgx.Row) (*entity.User, error) {
	var user entity.User
	err := row.Scan(&user.ID, &user.Email, &user.PasswordHash, &user.Role, &user.FullName, &user.Phone, &user.Position, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByEmail fetches a user by email if present.
func (r *PGXUsersRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	user, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE LOWER(email) = LOWER($1)`, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, persistErr("query user by email", err)
	}
	return user, nil
}

// FindByID retrieves a user by identifier.
func (r *PGXUsersRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	user, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, persistErr("query user by id", err)
	}
	return user, nil
}

// Create inserts a new user row.
func (r *PGXUsersRepository) Create(ctx context.Context, input CreateUserInput) (*entity.User, error) {
	row := r.pool.QueryRow(ctx, `
        INSERT INTO users (email, password_hash, role, full_name, phone, position)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING `+userColumns,
		input.Email, input.PasswordHash, input.Role, input.FullName, input.Phone, input.Position)

	user, err := scanUser(row)
	if err != nil {
		if isUniqueViolation(err, usersEmailConstraint) {
			return nil, fmt.Errorf("%w: %v", ErrEmailDuplicate, err)
		}
		return nil, persistErr("insert user", err)
	}
	return user, nil
}

// List returns all users ordered by creation date (desc).
func (r *PGXUsersRepository) List(ctx context.Context) ([]entity.User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at DESC`)
	if err != nil {
		return nil, persistErr("list users", err)
	}
	defer rows.Close()

	var users []entity.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, persistErr("scan user row", err)
		}
		users = append(users, *user)
	}
	if err := rows.Err(); err != nil {
		return nil, persistErr("iterate users", err)
	}
	return users, nil
}

// Update patches user attributes.
func (r *PGXUsersRepository) Update(ctx context.Context, id uuid.UUID, input UpdateUserInput) (*entity.User, error) {
	cols, args := input.columns()
	if len(cols) == 0 {
		return r.FindByID(ctx, id)
	}

	setClauses := make([]string, 0, len(cols)+1)
	for i, col := range cols {
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", col, i+1))
	}
	setClauses = append(setClauses, "updated_at = NOW()")
	args = append(args, id)

	query := fmt.Sprintf(`UPDATE users SET %s WHERE id = $%d RETURNING %s`, strings.Join(setClauses, ", "), len(args), userColumns)

	user, err := scanUser(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		if isUniqueViolation(err, usersEmailConstraint) {
			return nil, fmt.Errorf("%w: %v", ErrEmailDuplicate, err)
		}
		return nil, persistErr("update user", err)
	}
	return user, nil
}

// Delete removes a user by id.
func (r *PGXUsersRepository) Delete(ctx context.Context, id uuid.UUID) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return persistErr("delete user", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}
