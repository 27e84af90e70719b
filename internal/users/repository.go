package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/odyssey-erp/accounts/internal/platform/db"
	"github.com/odyssey-erp/accounts/internal/shared"
)

const (
	usernameConstraint = "accounts_username_key"
	emailConstraint    = "accounts_email_key"

	userColumns = `id, username, email, password_hash, created_at, updated_at`
)

// Store defines the account persistence operations.
type Store interface {
	FindByID(ctx context.Context, id int64) (*User, error)
	FindByUsername(ctx context.Context, username string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	Create(ctx context.Context, user *User) (*User, error)
	Update(ctx context.Context, user *User) (*User, error)
	Delete(ctx context.Context, id int64) error
}

// RepositoryPort is a Store that can run a unit of work in one transaction.
type RepositoryPort interface {
	Store
	InTx(ctx context.Context, fn func(Store) error) error
}

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool db.Pool
	q    db.DBTX
}

// NewRepository constructs a repository.
func NewRepository(pool db.Pool) *Repository {
	return &Repository{pool: pool, q: pool}
}

// InTx runs fn against a Store bound to a single RepeatableRead transaction.
func (r *Repository) InTx(ctx context.Context, fn func(Store) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(&Repository{pool: r.pool, q: tx})
	})
}

// FindByID fetches an account by identity.
func (r *Repository) FindByID(ctx context.Context, id int64) (*User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM accounts WHERE id = $1`, id)
}

// FindByUsername fetches an account by username.
func (r *Repository) FindByUsername(ctx context.Context, username string) (*User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM accounts WHERE username = $1`, username)
}

// FindByEmail fetches an account by email.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM accounts WHERE email = $1`, email)
}

// Create inserts user and fills in the store-assigned fields.
func (r *Repository) Create(ctx context.Context, user *User) (*User, error) {
	created := *user
	err := r.q.QueryRow(ctx,
		`INSERT INTO accounts (username, email, password_hash)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at, updated_at`,
		user.Username, user.Email, user.PasswordHash,
	).Scan(&created.ID, &created.CreatedAt, &created.UpdatedAt)
	if err != nil {
		if mapped := constraintError(err); mapped != nil {
			return nil, mapped
		}
		return nil, fmt.Errorf("users: insert account: %w", err)
	}
	return &created, nil
}

// Update overwrites username and email of the account with user.ID.
func (r *Repository) Update(ctx context.Context, user *User) (*User, error) {
	updated, err := r.findOne(ctx,
		`UPDATE accounts SET username = $2, email = $3, updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+userColumns,
		user.ID, user.Username, user.Email,
	)
	if err != nil {
		if mapped := constraintError(err); mapped != nil {
			return nil, mapped
		}
		return nil, err
	}
	return updated, nil
}

// Delete removes the account with id.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("users: delete account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *Repository) findOne(ctx context.Context, query string, args ...any) (*User, error) {
	var user User
	err := r.q.QueryRow(ctx, query, args...).Scan(
		&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("users: query account: %w", err)
	}
	return &user, nil
}

// constraintError translates unique violations on the account constraints.
func constraintError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgerrcode.UniqueViolation {
		return nil
	}
	switch pgErr.ConstraintName {
	case usernameConstraint:
		return shared.ErrUsernameTaken
	case emailConstraint:
		return shared.ErrEmailTaken
	}
	return nil
}

var _ RepositoryPort = (*Repository)(nil)
