package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/AhmetDemiroglu/GGHub-sub001/internal/domain/repository"
)

// CleanupService periodically deletes refresh tokens and verification codes
// whose expiry lies further in the past than the retention window. Revoked
// rows inside the window stay available for audit.
type CleanupService struct {
	refreshRepo repository.RefreshTokenRepository
	codeRepo    repository.VerificationCodeRepository
	interval    time.Duration
	retention   time.Duration
	log         *zap.Logger
}

// NewCleanupService wires the cleanup service.
func NewCleanupService(
	refreshRepo repository.RefreshTokenRepository,
	codeRepo repository.VerificationCodeRepository,
	interval time.Duration,
	retention time.Duration,
	log *zap.Logger,
) *CleanupService {
	return &CleanupService{
		refreshRepo: refreshRepo,
		codeRepo:    codeRepo,
		interval:    interval,
		retention:   retention,
		log:         log,
	}
}

// Run sweeps on the configured interval until ctx is done.
func (s *CleanupService) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *CleanupService) sweep(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-s.retention)

	tokens, err := s.refreshRepo.DeleteExpired(ctx, cutoff)
	if err != nil {
		s.log.Error("failed to sweep expired refresh tokens", zap.Error(err))
	}
	codes, err := s.codeRepo.DeleteExpired(ctx, cutoff)
	if err != nil {
		s.log.Error("failed to sweep expired verification codes", zap.Error(err))
	}
	if tokens > 0 || codes > 0 {
		s.log.Info("swept expired rows",
			zap.Int64("refresh_tokens", tokens),
			zap.Int64("verification_codes", codes),
		)
	}
}
