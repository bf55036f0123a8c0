// Package repository declares the persistence ports implemented under
// internal/infrastructure/database.
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/AhmetDemiroglu/GGHub-sub001/internal/domain/models"
)

// UserRepository persists user accounts.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.UserStatus) error
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, passwordHash string) error
	MarkEmailVerified(ctx context.Context, id uuid.UUID, verifiedAt time.Time) error
	UpdateLastLogin(ctx context.Context, id uuid.UUID, loginAt time.Time) error
	List(ctx context.Context, params models.ListUsersParams) ([]*models.User, int64, error)
}

// RefreshTokenRepository persists hashed refresh tokens.
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *models.RefreshToken) error
	// RevokeIfActive atomically revokes the token identified by tokenHash
	// only if it is not yet revoked and not yet expired, returning the
	// revoked row. Concurrent calls for the same hash succeed at most once;
	// losers receive errors.ErrInvalidRefreshToken.
	RevokeIfActive(ctx context.Context, tokenHash string, reason string) (*models.RefreshToken, error)
	Revoke(ctx context.Context, tokenHash string, reason string) error
	RevokeAllForUser(ctx context.Context, userID uuid.UUID, reason string) (int64, error)
	DeleteExpired(ctx context.Context, olderThan time.Time) (int64, error)
}

// VerificationCodeRepository persists hashed one-time codes for email
// verification and password reset.
type VerificationCodeRepository interface {
	Create(ctx context.Context, code *models.VerificationCode) error
	FindByCodeHash(ctx context.Context, codeHash string, codeType models.VerificationCodeType) (*models.VerificationCode, error)
	// MarkUsedIfUsable atomically consumes the code if it is unused and not
	// expired. Concurrent redemptions succeed at most once.
	MarkUsedIfUsable(ctx context.Context, id uuid.UUID) error
	InvalidateForUser(ctx context.Context, userID uuid.UUID, codeType models.VerificationCodeType) error
	DeleteExpired(ctx context.Context, olderThan time.Time) (int64, error)
}
