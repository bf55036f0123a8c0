package database

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/AhmetDemiroglu/GGHub-sub001/internal/domain/errors"
	"github.com/AhmetDemiroglu/GGHub-sub001/internal/domain/models"
	"github.com/AhmetDemiroglu/GGHub-sub001/internal/domain/repository"
)

// RefreshTokenPostgresRepository is the pgx implementation of
// RefreshTokenRepository.
type RefreshTokenPostgresRepository struct {
	pool *pgxpool.Pool
}

var _ repository.RefreshTokenRepository = (*RefreshTokenPostgresRepository)(nil)

// NewRefreshTokenPostgresRepository returns a repository backed by pool.
func NewRefreshTokenPostgresRepository(pool *pgxpool.Pool) *RefreshTokenPostgresRepository {
	return &RefreshTokenPostgresRepository{pool: pool}
}

const refreshTokenColumns = `id, user_id, token_hash, expires_at, created_at,
	revoked_at, revoked_reason, user_agent, ip_address`

// Create persists a new refresh token row.
func (r *RefreshTokenPostgresRepository) Create(ctx context.Context, token *models.RefreshToken) error {
	query := `
		INSERT INTO refresh_tokens (id, user_id, token_hash, expires_at, created_at, user_agent, ip_address)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.pool.Exec(ctx, query,
		token.ID, token.UserID, token.TokenHash, token.ExpiresAt,
		token.CreatedAt, token.UserAgent, token.IPAddress,
	)
	if err != nil {
		return fmt.Errorf("failed to create refresh token: %w", err)
	}
	return nil
}

// RevokeIfActive revokes the token in a single conditional UPDATE so that
// concurrent exchanges of the same token settle on exactly one winner.
func (r *RefreshTokenPostgresRepository) RevokeIfActive(ctx context.Context, tokenHash string, reason string) (*models.RefreshToken, error) {
	query := fmt.Sprintf(`
		UPDATE refresh_tokens
		SET revoked_at = now(), revoked_reason = $2
		WHERE token_hash = $1 AND revoked_at IS NULL AND expires_at > now()
		RETURNING %s`, refreshTokenColumns)

	token, err := scanRefreshToken(r.pool.QueryRow(ctx, query, tokenHash, reason))
	if err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) {
			return nil, errors.ErrInvalidRefreshToken
		}
		return nil, err
	}
	return token, nil
}

// Revoke marks the token revoked unconditionally.
func (r *RefreshTokenPostgresRepository) Revoke(ctx context.Context, tokenHash string, reason string) error {
	query := `
		UPDATE refresh_tokens
		SET revoked_at = now(), revoked_reason = $2
		WHERE token_hash = $1 AND revoked_at IS NULL`

	tag, err := r.pool.Exec(ctx, query, tokenHash, reason)
	if err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return errors.ErrInvalidRefreshToken
	}
	return nil
}

// RevokeAllForUser revokes every active token of the user and returns how
// many rows were touched.
func (r *RefreshTokenPostgresRepository) RevokeAllForUser(ctx context.Context, userID uuid.UUID, reason string) (int64, error) {
	query := `
		UPDATE refresh_tokens
		SET revoked_at = now(), revoked_reason = $2
		WHERE user_id = $1 AND revoked_at IS NULL`

	tag, err := r.pool.Exec(ctx, query, userID, reason)
	if err != nil {
		return 0, fmt.Errorf("failed to revoke user refresh tokens: %w", err)
	}
	return tag.RowsAffected(), nil
}

// DeleteExpired removes rows whose expiry passed before olderThan.
func (r *RefreshTokenPostgresRepository) DeleteExpired(ctx context.Context, olderThan time.Time) (int64, error) {
	query := `DELETE FROM refresh_tokens WHERE expires_at < $1`
	tag, err := r.pool.Exec(ctx, query, olderThan)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired refresh tokens: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanRefreshToken(row pgx.Row) (*models.RefreshToken, error) {
	var token models.RefreshToken
	err := row.Scan(
		&token.ID, &token.UserID, &token.TokenHash, &token.ExpiresAt,
		&token.CreatedAt, &token.RevokedAt, &token.RevokedReason,
		&token.UserAgent, &token.IPAddress,
	)
	if err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan refresh token: %w", err)
	}
	return &token, nil
}
