package security

import (
	stderrors "errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/AhmetDemiroglu/GGHub-sub001/internal/domain/errors"
	"github.com/AhmetDemiroglu/GGHub-sub001/internal/domain/interfaces"
	"github.com/AhmetDemiroglu/GGHub-sub001/internal/domain/models"
)

// JWTService issues and validates HS256 access tokens.
type JWTService struct {
	signingKey     []byte
	issuer         string
	audience       string
	accessTokenTTL time.Duration
}

var _ interfaces.TokenManager = (*JWTService)(nil)

type accessClaims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// NewJWTService builds a token manager with the given symmetric key.
func NewJWTService(signingKey, issuer, audience string, accessTokenTTL time.Duration) *JWTService {
	return &JWTService{
		signingKey:     []byte(signingKey),
		issuer:         issuer,
		audience:       audience,
		accessTokenTTL: accessTokenTTL,
	}
}

// GenerateAccessToken signs a short lived token for the user. The subject is
// the user id and jti is a fresh uuid.
func (s *JWTService) GenerateAccessToken(user *models.User) (string, error) {
	now := time.Now().UTC()
	claims := accessClaims{
		Username: user.Username,
		Role:     string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			Issuer:    s.issuer,
			Audience:  jwt.ClaimStrings{s.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTokenTTL)),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}
	return signed, nil
}

// ValidateAccessToken parses and verifies a token string, returning its
// claims. Expired or otherwise invalid tokens map to the shared sentinels.
func (s *JWTService) ValidateAccessToken(tokenString string) (*interfaces.AccessTokenClaims, error) {
	var claims accessClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.signingKey, nil
	},
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if stderrors.Is(err, jwt.ErrTokenExpired) {
			return nil, errors.ErrExpiredToken
		}
		return nil, errors.ErrInvalidToken
	}
	if !token.Valid {
		return nil, errors.ErrInvalidToken
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, errors.ErrInvalidToken
	}

	out := &interfaces.AccessTokenClaims{
		UserID:   userID,
		Username: claims.Username,
		Role:     models.UserRole(claims.Role),
		TokenID:  claims.ID,
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}

// AccessTokenTTL returns the configured access token lifetime.
func (s *JWTService) AccessTokenTTL() time.Duration {
	return s.accessTokenTTL
}
