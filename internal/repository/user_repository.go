package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/pantry-service/internal/domain"
)

// UserRepository defines persistence access for accounts. Email lookup goes
// exclusively through the deterministic digest; no plaintext email column exists.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmailDigest(ctx context.Context, digest string) (*domain.User, error)
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
	SessionRevokedAt(ctx context.Context, userID string) (*time.Time, error)
	RevokeAllSessions(ctx context.Context, userID string, at time.Time) error
}

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (display_name, email_digest, email_cipher, password_hash, role)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		user.DisplayName,
		user.EmailDigest,
		user.EmailCipher,
		user.PasswordHash,
		user.Role,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	const query = `
        SELECT id, display_name, email_digest, email_cipher, password_hash, role, session_revoked_at, created_at, updated_at
        FROM users WHERE id=$1`
	return r.scanUser(r.pool.QueryRow(ctx, query, id))
}

func (r *userRepository) GetByEmailDigest(ctx context.Context, digest string) (*domain.User, error) {
	const query = `
        SELECT id, display_name, email_digest, email_cipher, password_hash, role, session_revoked_at, created_at, updated_at
        FROM users WHERE email_digest=$1`
	return r.scanUser(r.pool.QueryRow(ctx, query, digest))
}

func (r *userRepository) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	const query = `UPDATE users SET password_hash=$1, updated_at=NOW() WHERE id=$2`
	cmd, err := r.pool.Exec(ctx, query, passwordHash, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *userRepository) SessionRevokedAt(ctx context.Context, userID string) (*time.Time, error) {
	const query = `SELECT session_revoked_at FROM users WHERE id=$1`
	var revokedAt *time.Time
	if err := r.pool.QueryRow(ctx, query, userID).Scan(&revokedAt); err != nil {
		return nil, err
	}
	return revokedAt, nil
}

func (r *userRepository) RevokeAllSessions(ctx context.Context, userID string, at time.Time) error {
	const query = `UPDATE users SET session_revoked_at=$1, updated_at=NOW() WHERE id=$2`
	cmd, err := r.pool.Exec(ctx, query, at, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *userRepository) scanUser(row pgx.Row) (*domain.User, error) {
	var user domain.User
	if err := row.Scan(
		&user.ID,
		&user.DisplayName,
		&user.EmailDigest,
		&user.EmailCipher,
		&user.PasswordHash,
		&user.Role,
		&user.SessionRevokedAt,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &user, nil
}
