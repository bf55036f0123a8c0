package service

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/AhmetDemiroglu/GGHub-sub001/internal/domain/errors"
	"github.com/AhmetDemiroglu/GGHub-sub001/internal/domain/interfaces"
	"github.com/AhmetDemiroglu/GGHub-sub001/internal/domain/models"
	"github.com/AhmetDemiroglu/GGHub-sub001/internal/domain/repository"
	"github.com/AhmetDemiroglu/GGHub-sub001/internal/infrastructure/security"
	"github.com/AhmetDemiroglu/GGHub-sub001/internal/utils/logger"
	"github.com/AhmetDemiroglu/GGHub-sub001/internal/utils/metrics"
)

const refreshTokenBytes = 32

// ClientInfo carries per-request metadata recorded alongside issued tokens.
type ClientInfo struct {
	IP        string
	UserAgent string
}

// TokenService issues access/refresh token pairs and rotates refresh tokens.
type TokenService struct {
	refreshRepo  repository.RefreshTokenRepository
	userRepo     repository.UserRepository
	tokenManager interfaces.TokenManager
	refreshTTL   time.Duration
	log          *zap.Logger
}

// NewTokenService wires the token service.
func NewTokenService(
	refreshRepo repository.RefreshTokenRepository,
	userRepo repository.UserRepository,
	tokenManager interfaces.TokenManager,
	refreshTTL time.Duration,
	log *zap.Logger,
) *TokenService {
	return &TokenService{
		refreshRepo:  refreshRepo,
		userRepo:     userRepo,
		tokenManager: tokenManager,
		refreshTTL:   refreshTTL,
		log:          log,
	}
}

// CreateTokenPair issues a signed access token plus a fresh opaque refresh
// token for the user. Only the refresh token's SHA-256 hash is persisted.
func (s *TokenService) CreateTokenPair(ctx context.Context, user *models.User, client ClientInfo) (*models.TokenPair, error) {
	accessToken, err := s.tokenManager.GenerateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := security.GenerateSecureToken(refreshTokenBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	now := time.Now().UTC()
	record := &models.RefreshToken{
		ID:        uuid.New(),
		UserID:    user.ID,
		TokenHash: security.HashToken(refreshToken),
		ExpiresAt: now.Add(s.refreshTTL),
		CreatedAt: now,
		UserAgent: client.UserAgent,
		IPAddress: client.IP,
	}
	if err := s.refreshRepo.Create(ctx, record); err != nil {
		return nil, err
	}

	return &models.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.tokenManager.AccessTokenTTL().Seconds()),
	}, nil
}

// Refresh exchanges a refresh token for a new pair. The presented token is
// revoked and replaced in one conditional update, so of two concurrent
// exchanges of the same token exactly one succeeds and the other gets
// ErrInvalidRefreshToken.
func (s *TokenService) Refresh(ctx context.Context, refreshToken string, client ClientInfo) (*models.TokenPair, error) {
	tokenHash := security.HashToken(refreshToken)

	record, err := s.refreshRepo.RevokeIfActive(ctx, tokenHash, models.RevokedReasonRotated)
	if err != nil {
		if stderrors.Is(err, errors.ErrInvalidRefreshToken) {
			metrics.TokenRefreshTotal.WithLabelValues("rejected").Inc()
		}
		return nil, err
	}

	user, err := s.userRepo.FindByID(ctx, record.UserID)
	if err != nil {
		if stderrors.Is(err, errors.ErrUserNotFound) {
			return nil, errors.ErrInvalidRefreshToken
		}
		return nil, err
	}
	if user.Status == models.UserStatusBlocked {
		// The presented token is already revoked above; drop the rest too.
		// The caller sees the same failure as any other invalid token so
		// refresh never discloses account state.
		if _, err := s.refreshRepo.RevokeAllForUser(ctx, user.ID, models.RevokedReasonUserBlocked); err != nil {
			s.log.Error("failed to revoke tokens of blocked user",
				zap.String("user_id", user.ID.String()), zap.Error(err))
		}
		metrics.TokenRefreshTotal.WithLabelValues("rejected").Inc()
		return nil, errors.ErrInvalidRefreshToken
	}
	if user.Status == models.UserStatusDeleted {
		metrics.TokenRefreshTotal.WithLabelValues("rejected").Inc()
		return nil, errors.ErrInvalidRefreshToken
	}

	pair, err := s.CreateTokenPair(ctx, user, client)
	if err != nil {
		return nil, err
	}
	metrics.TokenRefreshTotal.WithLabelValues("success").Inc()
	return pair, nil
}

// Revoke invalidates a single refresh token, e.g. on logout.
func (s *TokenService) Revoke(ctx context.Context, refreshToken string, reason string) error {
	return s.refreshRepo.Revoke(ctx, security.HashToken(refreshToken), reason)
}

// RevokeAllForUser invalidates every active refresh token of the user.
func (s *TokenService) RevokeAllForUser(ctx context.Context, userID uuid.UUID, reason string) error {
	revoked, err := s.refreshRepo.RevokeAllForUser(ctx, userID, reason)
	if err != nil {
		return err
	}
	if revoked > 0 {
		logger.WithUserID(s.log, userID.String()).Info("revoked refresh tokens",
			zap.String("reason", reason),
			zap.Int64("count", revoked),
		)
	}
	return nil
}
