// internal/accounts/store.go
// Package accounts owns user records and credential handling. Password
// hashes never leave this package.
package accounts

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/graphchat/text2cypher/api/schemas"
)

var (
	// ErrNotFound is returned when no user matches the lookup.
	ErrNotFound = errors.New("user not found")
	// ErrDuplicate is returned when an email or username is already taken.
	ErrDuplicate = errors.New("email or username already exists")
	// ErrBadCredentials is returned on authentication failure without
	// revealing whether the email or the password was wrong.
	ErrBadCredentials = errors.New("invalid email or password")
)

// DBPool abstracts the pgxpool.Pool to allow for mocking in tests.
type DBPool interface {
	Ping(ctx context.Context) error
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Store provides user CRUD on PostgreSQL.
type Store struct {
	pool DBPool
	log  *zap.Logger
}

// New creates a user store.
func New(pool DBPool, logger *zap.Logger) *Store {
	return &Store{
		pool: pool,
		log:  logger.Named("user_store"),
	}
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS users (
    id BIGSERIAL PRIMARY KEY,
    email VARCHAR(255) NOT NULL UNIQUE,
    username VARCHAR(128) NOT NULL UNIQUE,
    full_name VARCHAR(255),
    hashed_password VARCHAR(255) NOT NULL,
    is_active BOOLEAN NOT NULL DEFAULT true,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_users_email ON users(email);
`

// InitSchema creates the users table if it does not exist.
func (s *Store) InitSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to initialize users schema: %w", err)
	}
	return nil
}

const userColumns = "id, email, username, COALESCE(full_name, ''), is_active, created_at, updated_at"

// Create registers a new active user with a hashed password.
func (s *Store) Create(ctx context.Context, req schemas.UserCreate) (*schemas.User, error) {
	if req.Email == "" || req.Username == "" || req.Password == "" {
		return nil, fmt.Errorf("email, username and password are required")
	}

	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE email = $1 OR username = $2)`,
		req.Email, req.Username,
	).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to check for duplicates: %w", err)
	}
	if exists {
		return nil, ErrDuplicate
	}

	hashed, err := HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	var user schemas.User
	err = s.pool.QueryRow(ctx,
		`INSERT INTO users (email, username, full_name, hashed_password)
         VALUES ($1, $2, $3, $4)
         RETURNING `+userColumns,
		req.Email, req.Username, req.FullName, hashed,
	).Scan(&user.ID, &user.Email, &user.Username, &user.FullName, &user.IsActive, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return &user, nil
}

// GetByID fetches a user by primary key.
func (s *Store) GetByID(ctx context.Context, id int64) (*schemas.User, error) {
	return s.getBy(ctx, "id = $1", id)
}

// GetByEmail fetches a user by email.
func (s *Store) GetByEmail(ctx context.Context, email string) (*schemas.User, error) {
	return s.getBy(ctx, "email = $1", email)
}

func (s *Store) getBy(ctx context.Context, where string, arg any) (*schemas.User, error) {
	var user schemas.User
	err := s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE `+where, arg,
	).Scan(&user.ID, &user.Email, &user.Username, &user.FullName, &user.IsActive, &user.CreatedAt, &user.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}
	return &user, nil
}

// Authenticate verifies credentials and returns the matching active user.
// Unknown email and wrong password are indistinguishable to the caller.
func (s *Store) Authenticate(ctx context.Context, email, password string) (*schemas.User, error) {
	var user schemas.User
	var hashed string
	err := s.pool.QueryRow(ctx,
		`SELECT `+userColumns+`, hashed_password FROM users WHERE email = $1`, email,
	).Scan(&user.ID, &user.Email, &user.Username, &user.FullName, &user.IsActive, &user.CreatedAt, &user.UpdatedAt, &hashed)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrBadCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}
	if !user.IsActive || !VerifyPassword(password, hashed) {
		return nil, ErrBadCredentials
	}
	return &user, nil
}

// Update applies non-zero fields from the update payload.
func (s *Store) Update(ctx context.Context, id int64, upd schemas.UserUpdate) (*schemas.User, error) {
	current, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	email := current.Email
	if upd.Email != "" {
		email = upd.Email
	}
	username := current.Username
	if upd.Username != "" {
		username = upd.Username
	}
	fullName := current.FullName
	if upd.FullName != "" {
		fullName = upd.FullName
	}

	if email != current.Email || username != current.Username {
		var exists bool
		err := s.pool.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM users WHERE (email = $1 OR username = $2) AND id <> $3)`,
			email, username, id,
		).Scan(&exists)
		if err != nil {
			return nil, fmt.Errorf("failed to check for duplicates: %w", err)
		}
		if exists {
			return nil, ErrDuplicate
		}
	}

	if upd.Password != "" {
		hashed, err := HashPassword(upd.Password)
		if err != nil {
			return nil, err
		}
		if _, err := s.pool.Exec(ctx,
			`UPDATE users SET hashed_password = $2, updated_at = now() WHERE id = $1`, id, hashed); err != nil {
			return nil, fmt.Errorf("failed to update password: %w", err)
		}
	}

	var user schemas.User
	err = s.pool.QueryRow(ctx,
		`UPDATE users SET email = $2, username = $3, full_name = $4, updated_at = now()
         WHERE id = $1
         RETURNING `+userColumns,
		id, email, username, fullName,
	).Scan(&user.ID, &user.Email, &user.Username, &user.FullName, &user.IsActive, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return &user, nil
}

// Deactivate flags a user inactive without deleting their data.
func (s *Store) Deactivate(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE users SET is_active = false, updated_at = now() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to deactivate user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a user permanently.
func (s *Store) Delete(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// List pages through users.
func (s *Store) List(ctx context.Context, skip, limit int) ([]schemas.User, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.pool.Query(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY id OFFSET $1 LIMIT $2`, skip, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var out []schemas.User
	for rows.Next() {
		var user schemas.User
		if err := rows.Scan(&user.ID, &user.Email, &user.Username, &user.FullName, &user.IsActive, &user.CreatedAt, &user.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user row: %w", err)
		}
		out = append(out, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during row iteration: %w", err)
	}
	return out, nil
}
