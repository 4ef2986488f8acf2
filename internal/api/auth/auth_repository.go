package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// PGXPool is the subset of pgxpool.Pool the repository needs. Tests back it
// with pgxmock.
type PGXPool interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

var ErrUserNotFound = errors.New("user not found")

var _ Repository = (*PostgresRepository)(nil)

// Repository is the credential and refresh-token store.
type Repository interface {
	CreateUser(ctx context.Context, username, email, passwordHash string) (string, error)
	GetUserByEmail(ctx context.Context, email string) (*UserAuth, error)
	GetUserByID(ctx context.Context, userID string) (*UserAuth, error)
	StoreRefreshToken(ctx context.Context, userID, token string, expiresAt time.Time) error
	GetRefreshToken(ctx context.Context, token string) (*RefreshTokenInfo, error)
	RevokeRefreshToken(ctx context.Context, token string) error
}

type PostgresRepository struct {
	logger *slog.Logger
	pgpool PGXPool
}

func NewPostgresRepository(pgpool PGXPool, logger *slog.Logger) *PostgresRepository {
	return &PostgresRepository{
		logger: logger,
		pgpool: pgpool,
	}
}

func (r *PostgresRepository) CreateUser(ctx context.Context, username, email, passwordHash string) (string, error) {
	var userID string
	err := r.pgpool.QueryRow(ctx,
		"INSERT INTO users (username, email, password_hash) VALUES ($1, $2, $3) RETURNING id",
		username, email, passwordHash).Scan(&userID)
	if err != nil {
		return "", fmt.Errorf("failed to insert user: %w", err)
	}
	return userID, nil
}

func (r *PostgresRepository) GetUserByEmail(ctx context.Context, email string) (*UserAuth, error) {
	var user UserAuth
	err := r.pgpool.QueryRow(ctx,
		"SELECT id, username, email, password_hash FROM users WHERE email = $1",
		email).Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to query user by email: %w", err)
	}
	return &user, nil
}

func (r *PostgresRepository) GetUserByID(ctx context.Context, userID string) (*UserAuth, error) {
	var user UserAuth
	err := r.pgpool.QueryRow(ctx,
		"SELECT id, username, email, password_hash FROM users WHERE id = $1",
		userID).Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to query user by id: %w", err)
	}
	return &user, nil
}

func (r *PostgresRepository) StoreRefreshToken(ctx context.Context, userID, token string, expiresAt time.Time) error {
	_, err := r.pgpool.Exec(ctx,
		"INSERT INTO refresh_tokens (user_id, token, expires_at) VALUES ($1, $2, $3)",
		userID, token, expiresAt)
	if err != nil {
		return fmt.Errorf("store refresh token: db insert failed: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetRefreshToken(ctx context.Context, token string) (*RefreshTokenInfo, error) {
	var info RefreshTokenInfo
	err := r.pgpool.QueryRow(ctx,
		"SELECT user_id, expires_at, revoked_at FROM refresh_tokens WHERE token = $1",
		token).Scan(&info.UserID, &info.ExpiresAt, &info.RevokedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errors.New("invalid refresh token")
		}
		return nil, fmt.Errorf("get refresh token: query failed: %w", err)
	}
	return &info, nil
}

func (r *PostgresRepository) RevokeRefreshToken(ctx context.Context, token string) error {
	tag, err := r.pgpool.Exec(ctx,
		"UPDATE refresh_tokens SET revoked_at = $1 WHERE token = $2 AND revoked_at IS NULL",
		time.Now(), token)
	if err != nil {
		return fmt.Errorf("revoke refresh token: db update failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Already revoked or unknown; not an error for logout.
		r.logger.Debug("No refresh token found or already revoked")
	}
	return nil
}
