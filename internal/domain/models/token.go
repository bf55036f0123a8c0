package models

import (
	"time"

	"github.com/google/uuid"
)

// RefreshToken maps to the "refresh_tokens" table. Only the SHA-256 hash of
// the opaque token is stored; the plaintext exists solely in the response
// that issued it.
type RefreshToken struct {
	ID            uuid.UUID  `json:"id" db:"id"`
	UserID        uuid.UUID  `json:"user_id" db:"user_id"`
	TokenHash     string     `json:"-" db:"token_hash"`
	ExpiresAt     time.Time  `json:"expires_at" db:"expires_at"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	RevokedAt     *time.Time `json:"revoked_at,omitempty" db:"revoked_at"`
	RevokedReason *string    `json:"revoked_reason,omitempty" db:"revoked_reason"`
	UserAgent     string     `json:"user_agent,omitempty" db:"user_agent"`
	IPAddress     string     `json:"ip_address,omitempty" db:"ip_address"`
}

// Reasons recorded on refresh token revocation.
const (
	RevokedReasonRotated         = "rotated"
	RevokedReasonLogout          = "logout"
	RevokedReasonLogoutAll       = "logout_all"
	RevokedReasonPasswordChanged = "password_changed"
	RevokedReasonUserBlocked     = "user_blocked"
)

// TokenPair is the result of a successful login or refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

// VerificationCodeType distinguishes one-time code purposes.
type VerificationCodeType string

const (
	VerificationCodeTypeEmailVerification VerificationCodeType = "email_verification"
	VerificationCodeTypePasswordReset     VerificationCodeType = "password_reset"
)

// VerificationCode maps to the "verification_codes" table. Codes are opaque
// random tokens delivered by mail and stored hashed, single use.
type VerificationCode struct {
	ID        uuid.UUID            `json:"id" db:"id"`
	UserID    uuid.UUID            `json:"user_id" db:"user_id"`
	Type      VerificationCodeType `json:"type" db:"type"`
	CodeHash  string               `json:"-" db:"code_hash"`
	ExpiresAt time.Time            `json:"expires_at" db:"expires_at"`
	CreatedAt time.Time            `json:"created_at" db:"created_at"`
	UsedAt    *time.Time           `json:"used_at,omitempty" db:"used_at"`
}

// IsUsable reports whether the code can still be redeemed.
func (c *VerificationCode) IsUsable(now time.Time) bool {
	return c.UsedAt == nil && now.Before(c.ExpiresAt)
}
