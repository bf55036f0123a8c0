// Package interfaces declares the ports the service layer depends on beyond
// persistence.
package interfaces

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/AhmetDemiroglu/GGHub-sub001/internal/domain/models"
)

// PasswordHasher hashes and verifies user passwords. The encoded form is
// self-describing so the scheme can be migrated later.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, encodedHash string) (bool, error)
}

// AccessTokenClaims is the validated content of an access token.
type AccessTokenClaims struct {
	UserID    uuid.UUID
	Username  string
	Role      models.UserRole
	TokenID   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenManager signs and validates access tokens.
type TokenManager interface {
	GenerateAccessToken(user *models.User) (string, error)
	ValidateAccessToken(tokenString string) (*AccessTokenClaims, error)
	AccessTokenTTL() time.Duration
}

// Mailer delivers transactional mail. Implementations must be safe for
// concurrent use; callers dispatch on detached goroutines.
type Mailer interface {
	SendVerificationMail(ctx context.Context, to, username, verificationLink string) error
	SendPasswordResetMail(ctx context.Context, to, username, resetLink string) error
	SendPasswordChangedMail(ctx context.Context, to, username string) error
}

// RateLimiter enforces fixed-window request limits.
type RateLimiter interface {
	// Allow increments the counter for key and reports whether the request
	// is within limit for the window. A limiter failure opens the gate.
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// EventPublisher emits domain events to the message broker.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, key string, event any) error
	Close() error
}
