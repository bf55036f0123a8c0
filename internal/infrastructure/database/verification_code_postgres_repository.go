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

// VerificationCodePostgresRepository is the pgx implementation of
// VerificationCodeRepository.
type VerificationCodePostgresRepository struct {
	pool *pgxpool.Pool
}

var _ repository.VerificationCodeRepository = (*VerificationCodePostgresRepository)(nil)

// NewVerificationCodePostgresRepository returns a repository backed by pool.
func NewVerificationCodePostgresRepository(pool *pgxpool.Pool) *VerificationCodePostgresRepository {
	return &VerificationCodePostgresRepository{pool: pool}
}

// Create persists a new verification code row.
func (r *VerificationCodePostgresRepository) Create(ctx context.Context, code *models.VerificationCode) error {
	query := `
		INSERT INTO verification_codes (id, user_id, type, code_hash, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.pool.Exec(ctx, query,
		code.ID, code.UserID, code.Type, code.CodeHash, code.ExpiresAt, code.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create verification code: %w", err)
	}
	return nil
}

// FindByCodeHash fetches a code row by its hash and purpose.
func (r *VerificationCodePostgresRepository) FindByCodeHash(ctx context.Context, codeHash string, codeType models.VerificationCodeType) (*models.VerificationCode, error) {
	query := `
		SELECT id, user_id, type, code_hash, expires_at, created_at, used_at
		FROM verification_codes
		WHERE code_hash = $1 AND type = $2`

	var code models.VerificationCode
	err := r.pool.QueryRow(ctx, query, codeHash, codeType).Scan(
		&code.ID, &code.UserID, &code.Type, &code.CodeHash,
		&code.ExpiresAt, &code.CreatedAt, &code.UsedAt,
	)
	if err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) {
			return nil, errors.ErrInvalidToken
		}
		return nil, fmt.Errorf("failed to find verification code: %w", err)
	}
	return &code, nil
}

// MarkUsedIfUsable consumes the code in a single conditional UPDATE so that
// concurrent redemptions settle on exactly one winner.
func (r *VerificationCodePostgresRepository) MarkUsedIfUsable(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE verification_codes
		SET used_at = now()
		WHERE id = $1 AND used_at IS NULL AND expires_at > now()`

	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to mark verification code used: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return errors.ErrInvalidToken
	}
	return nil
}

// InvalidateForUser consumes all outstanding codes of one purpose for the
// user, typically before issuing a replacement.
func (r *VerificationCodePostgresRepository) InvalidateForUser(ctx context.Context, userID uuid.UUID, codeType models.VerificationCodeType) error {
	query := `
		UPDATE verification_codes
		SET used_at = now()
		WHERE user_id = $1 AND type = $2 AND used_at IS NULL`

	if _, err := r.pool.Exec(ctx, query, userID, codeType); err != nil {
		return fmt.Errorf("failed to invalidate verification codes: %w", err)
	}
	return nil
}

// DeleteExpired removes rows whose expiry passed before olderThan.
func (r *VerificationCodePostgresRepository) DeleteExpired(ctx context.Context, olderThan time.Time) (int64, error) {
	query := `DELETE FROM verification_codes WHERE expires_at < $1`
	tag, err := r.pool.Exec(ctx, query, olderThan)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired verification codes: %w", err)
	}
	return tag.RowsAffected(), nil
}
