package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/himtika/proposal-tracker/internal/entity"
)

// SQLiteUsersRepository implements UsersRepository on a local SQLite file.
type SQLiteUsersRepository struct {
	db *sql.DB
}

// NewSQLiteUsersRepository instantiates a users repository.
func NewSQLiteUsersRepository(db *sql.DB) *SQLiteUsersRepository {
	return &SQLiteUsersRepository{db: db}
}

func scanSQLiteUser(row rowScanner) (*entity.User, error) {
	var (
		user                 entity.User
		id                   string
		createdAt, updatedAt string
	)
	if err := row.Scan(&id, &user.Email, &user.PasswordHash, &user.Role, &user.FullName, &user.Phone, &user.Position, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	var err error
	if user.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("parse user id: %w", err)
	}
	if user.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if user.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByEmail fetches a user by email if present.
func (r *SQLiteUsersRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	user, err := scanSQLiteUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ? COLLATE NOCASE`, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, persistErr("query user by email", err)
	}
	return user, nil
}

// FindByID retrieves a user by identifier.
func (r *SQLiteUsersRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	user, err := scanSQLiteUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, persistErr("query user by id", err)
	}
	return user, nil
}

// Create inserts a new user row with a generated identifier.
func (r *SQLiteUsersRepository) Create(ctx context.Context, input CreateUserInput) (*entity.User, error) {
	now := nowUTC()
	user := &entity.User{
		ID:           uuid.New(),
		Email:        input.Email,
		PasswordHash: input.PasswordHash,
		Role:         input.Role,
		FullName:     input.FullName,
		Phone:        input.Phone,
		Position:     input.Position,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	_, err := r.db.ExecContext(ctx, `
        INSERT INTO users (`+userColumns+`)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID.String(), user.Email, user.PasswordHash, user.Role, user.FullName, user.Phone, user.Position, formatTime(now), formatTime(now))
	if err != nil {
		if isSQLiteUnique(err) {
			return nil, fmt.Errorf("%w: %v", ErrEmailDuplicate, err)
		}
		return nil, persistErr("insert user", err)
	}
	return user, nil
}

// List returns all users ordered by creation date (desc).
func (r *SQLiteUsersRepository) List(ctx context.Context) ([]entity.User, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at DESC`)
	if err != nil {
		return nil, persistErr("list users", err)
	}
	defer rows.Close()

	var users []entity.User
	for rows.Next() {
		user, err := scanSQLiteUser(rows)
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
func (r *SQLiteUsersRepository) Update(ctx context.Context, id uuid.UUID, input UpdateUserInput) (*entity.User, error) {
	cols, args := input.columns()
	if len(cols) == 0 {
		return r.FindByID(ctx, id)
	}

	setClauses := make([]string, 0, len(cols)+1)
	for _, col := range cols {
		setClauses = append(setClauses, col+" = ?")
	}
	setClauses = append(setClauses, "updated_at = ?")
	args = append(args, formatTime(nowUTC()), id.String())

	query := fmt.Sprintf(`UPDATE users SET %s WHERE id = ? RETURNING %s`, strings.Join(setClauses, ", "), userColumns)

	user, err := scanSQLiteUser(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		if isSQLiteUnique(err) {
			return nil, fmt.Errorf("%w: %v", ErrEmailDuplicate, err)
		}
		return nil, persistErr("update user", err)
	}
	return user, nil
}

// Delete removes a user by id.
func (r *SQLiteUsersRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id.String())
	if err != nil {
		return persistErr("delete user", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return persistErr("delete user", err)
	}
	if affected == 0 {
		return ErrUserNotFound
	}
	return nil
}
