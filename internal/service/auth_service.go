// Package service implements the authentication and session lifecycle.
package service

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/AhmetDemiroglu/GGHub-sub001/internal/config"
	"github.com/AhmetDemiroglu/GGHub-sub001/internal/domain/errors"
	"github.com/AhmetDemiroglu/GGHub-sub001/internal/domain/interfaces"
	"github.com/AhmetDemiroglu/GGHub-sub001/internal/domain/models"
	"github.com/AhmetDemiroglu/GGHub-sub001/internal/domain/repository"
	"github.com/AhmetDemiroglu/GGHub-sub001/internal/infrastructure/security"
	"github.com/AhmetDemiroglu/GGHub-sub001/internal/utils/metrics"
)

const (
	verificationTokenBytes = 32
	mailDispatchTimeout    = 15 * time.Second
)

// AuthService implements registration, login, email verification and the
// password lifecycle on top of the repositories and the token service.
type AuthService struct {
	userRepo  repository.UserRepository
	codeRepo  repository.VerificationCodeRepository
	tokens    *TokenService
	hasher    interfaces.PasswordHasher
	mailer    interfaces.Mailer
	publisher interfaces.EventPublisher
	limiter   interfaces.RateLimiter
	cfg       *config.Config
	log       *zap.Logger
}

// NewAuthService wires the auth service.
func NewAuthService(
	userRepo repository.UserRepository,
	codeRepo repository.VerificationCodeRepository,
	tokens *TokenService,
	hasher interfaces.PasswordHasher,
	mailer interfaces.Mailer,
	publisher interfaces.EventPublisher,
	limiter interfaces.RateLimiter,
	cfg *config.Config,
	log *zap.Logger,
) *AuthService {
	return &AuthService{
		userRepo:  userRepo,
		codeRepo:  codeRepo,
		tokens:    tokens,
		hasher:    hasher,
		mailer:    mailer,
		publisher: publisher,
		limiter:   limiter,
		cfg:       cfg,
		log:       log,
	}
}

// Register creates a pending account and dispatches the verification mail.
// The account cannot log in until the address is verified.
func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest, client ClientInfo) (*models.UserResponse, error) {
	if err := s.checkLimit(ctx, s.cfg.Security.RateLimiting.RegisterIP, "register:"+client.IP); err != nil {
		return nil, err
	}

	// Emails are stored lower case; the unique index is the backstop for
	// the race between these checks and the insert.
	email := strings.ToLower(req.Email)
	if _, err := s.userRepo.FindByEmail(ctx, email); err == nil {
		metrics.RegistrationsTotal.WithLabelValues("conflict").Inc()
		return nil, errors.ErrEmailExists
	} else if !stderrors.Is(err, errors.ErrUserNotFound) {
		return nil, err
	}
	if _, err := s.userRepo.FindByUsername(ctx, req.Username); err == nil {
		metrics.RegistrationsTotal.WithLabelValues("conflict").Inc()
		return nil, errors.ErrUsernameExists
	} else if !stderrors.Is(err, errors.ErrUserNotFound) {
		return nil, err
	}

	passwordHash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &models.User{
		ID:           uuid.New(),
		Username:     req.Username,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         models.UserRoleUser,
		Status:       models.UserStatusPendingVerification,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		metrics.RegistrationsTotal.WithLabelValues("conflict").Inc()
		return nil, err
	}
	metrics.RegistrationsTotal.WithLabelValues("success").Inc()

	if err := s.issueVerificationCode(ctx, user); err != nil {
		// The account exists; the user can request a new mail later.
		s.log.Error("failed to issue verification code after registration",
			zap.String("user_id", user.ID.String()), zap.Error(err))
	}

	s.publishEvent(models.TopicUserRegistered, user)

	resp := user.ToResponse()
	return &resp, nil
}

// Login authenticates by email and password and issues a token pair.
// Unknown email and wrong password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest, client ClientInfo) (*models.LoginResponse, error) {
	email := strings.ToLower(req.Email)
	if err := s.checkLimit(ctx, s.cfg.Security.RateLimiting.LoginEmailIP,
		fmt.Sprintf("login:%s:%s", email, client.IP)); err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if stderrors.Is(err, errors.ErrUserNotFound) {
			metrics.LoginAttemptsTotal.WithLabelValues("invalid_credentials").Inc()
			return nil, errors.ErrInvalidCredentials
		}
		return nil, err
	}

	ok, err := s.hasher.Verify(req.Password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}
	if !ok {
		metrics.LoginAttemptsTotal.WithLabelValues("invalid_credentials").Inc()
		return nil, errors.ErrInvalidCredentials
	}

	switch user.Status {
	case models.UserStatusBlocked:
		metrics.LoginAttemptsTotal.WithLabelValues("blocked").Inc()
		return nil, errors.ErrUserBlocked
	case models.UserStatusDeleted:
		metrics.LoginAttemptsTotal.WithLabelValues("invalid_credentials").Inc()
		return nil, errors.ErrInvalidCredentials
	}
	if !user.IsVerified() {
		metrics.LoginAttemptsTotal.WithLabelValues("unverified").Inc()
		return nil, errors.ErrEmailNotVerified
	}

	pair, err := s.tokens.CreateTokenPair(ctx, user, client)
	if err != nil {
		return nil, err
	}

	if err := s.userRepo.UpdateLastLogin(ctx, user.ID, time.Now().UTC()); err != nil {
		s.log.Warn("failed to update last login",
			zap.String("user_id", user.ID.String()), zap.Error(err))
	}

	metrics.LoginAttemptsTotal.WithLabelValues("success").Inc()
	s.publishEvent(models.TopicUserLogin, user)

	return &models.LoginResponse{User: user.ToResponse(), Tokens: *pair}, nil
}

// Refresh rotates a refresh token. See TokenService.Refresh.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string, client ClientInfo) (*models.TokenPair, error) {
	return s.tokens.Refresh(ctx, refreshToken, client)
}

// Logout revokes the presented refresh token. Revoking an already invalid
// token is not an error to the caller.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	err := s.tokens.Revoke(ctx, refreshToken, models.RevokedReasonLogout)
	if err != nil && !stderrors.Is(err, errors.ErrInvalidRefreshToken) {
		return err
	}
	return nil
}

// LogoutAll revokes every active refresh token of the user.
func (s *AuthService) LogoutAll(ctx context.Context, userID uuid.UUID) error {
	return s.tokens.RevokeAllForUser(ctx, userID, models.RevokedReasonLogoutAll)
}

// VerifyEmail redeems an email verification token. Each token works once.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) error {
	code, err := s.codeRepo.FindByCodeHash(ctx, security.HashToken(token), models.VerificationCodeTypeEmailVerification)
	if err != nil {
		return err
	}
	if !code.IsUsable(time.Now().UTC()) {
		return errors.ErrInvalidToken
	}
	if err := s.codeRepo.MarkUsedIfUsable(ctx, code.ID); err != nil {
		return err
	}

	user, err := s.userRepo.FindByID(ctx, code.UserID)
	if err != nil {
		return err
	}
	if user.IsVerified() {
		return errors.ErrEmailAlreadyVerified
	}
	if err := s.userRepo.MarkEmailVerified(ctx, user.ID, time.Now().UTC()); err != nil {
		return err
	}

	s.publishEvent(models.TopicUserVerified, user)
	s.log.Info("email verified", zap.String("user_id", user.ID.String()))
	return nil
}

// FrontendLoginURL builds the login page URL mail links redirect to.
func (s *AuthService) FrontendLoginURL(verified string) string {
	return fmt.Sprintf("%s/login?verified=%s", s.cfg.Frontend.BaseURL, verified)
}

// ResendVerification issues a fresh verification mail. The response does not
// reveal whether the address belongs to an account.
func (s *AuthService) ResendVerification(ctx context.Context, email string) error {
	email = strings.ToLower(email)
	if err := s.checkLimit(ctx, s.cfg.Security.RateLimiting.ResendVerification, "resend:"+email); err != nil {
		return err
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if stderrors.Is(err, errors.ErrUserNotFound) {
			return nil
		}
		return err
	}
	if user.IsVerified() {
		return errors.ErrEmailAlreadyVerified
	}

	return s.issueVerificationCode(ctx, user)
}

// ForgotPassword starts the password reset flow. The response does not
// reveal whether the address belongs to an account.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	email = strings.ToLower(email)
	if err := s.checkLimit(ctx, s.cfg.Security.RateLimiting.PasswordResetEmail, "pwreset:"+email); err != nil {
		return err
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if stderrors.Is(err, errors.ErrUserNotFound) {
			return nil
		}
		return err
	}
	if user.Status == models.UserStatusBlocked || user.Status == models.UserStatusDeleted {
		return nil
	}

	if err := s.codeRepo.InvalidateForUser(ctx, user.ID, models.VerificationCodeTypePasswordReset); err != nil {
		return err
	}

	token, err := s.createCode(ctx, user.ID, models.VerificationCodeTypePasswordReset,
		s.cfg.JWT.PasswordResetToken.ExpiresIn)
	if err != nil {
		return err
	}

	link := fmt.Sprintf("%s/reset-password?token=%s", s.cfg.Frontend.BaseURL, token)
	s.dispatchMail(func(ctx context.Context) error {
		return s.mailer.SendPasswordResetMail(ctx, user.Email, user.Username, link)
	})
	return nil
}

// ResetPassword redeems a reset token, replaces the password and signs the
// user out everywhere.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	code, err := s.codeRepo.FindByCodeHash(ctx, security.HashToken(token), models.VerificationCodeTypePasswordReset)
	if err != nil {
		return err
	}
	if !code.IsUsable(time.Now().UTC()) {
		return errors.ErrInvalidToken
	}
	if err := s.codeRepo.MarkUsedIfUsable(ctx, code.ID); err != nil {
		return err
	}

	user, err := s.userRepo.FindByID(ctx, code.UserID)
	if err != nil {
		return err
	}

	passwordHash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.userRepo.UpdatePasswordHash(ctx, user.ID, passwordHash); err != nil {
		return err
	}
	if err := s.tokens.RevokeAllForUser(ctx, user.ID, models.RevokedReasonPasswordChanged); err != nil {
		s.log.Error("failed to revoke tokens after password reset",
			zap.String("user_id", user.ID.String()), zap.Error(err))
	}

	s.publishEvent(models.TopicPasswordChanged, user)
	s.dispatchMail(func(ctx context.Context) error {
		return s.mailer.SendPasswordChangedMail(ctx, user.Email, user.Username)
	})
	return nil
}

// ChangePassword replaces the password of an authenticated user after
// re-checking the current one, then signs the user out everywhere.
func (s *AuthService) ChangePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) error {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return err
	}

	ok, err := s.hasher.Verify(currentPassword, user.PasswordHash)
	if err != nil {
		return fmt.Errorf("failed to verify password: %w", err)
	}
	if !ok {
		return errors.ErrInvalidCredentials
	}

	passwordHash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.userRepo.UpdatePasswordHash(ctx, user.ID, passwordHash); err != nil {
		return err
	}
	if err := s.tokens.RevokeAllForUser(ctx, user.ID, models.RevokedReasonPasswordChanged); err != nil {
		s.log.Error("failed to revoke tokens after password change",
			zap.String("user_id", user.ID.String()), zap.Error(err))
	}

	s.publishEvent(models.TopicPasswordChanged, user)
	s.dispatchMail(func(ctx context.Context) error {
		return s.mailer.SendPasswordChangedMail(ctx, user.Email, user.Username)
	})
	return nil
}

// GetUser fetches a user by id.
func (s *AuthService) GetUser(ctx context.Context, id uuid.UUID) (*models.UserResponse, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := user.ToResponse()
	return &resp, nil
}

func (s *AuthService) issueVerificationCode(ctx context.Context, user *models.User) error {
	if err := s.codeRepo.InvalidateForUser(ctx, user.ID, models.VerificationCodeTypeEmailVerification); err != nil {
		return err
	}

	token, err := s.createCode(ctx, user.ID, models.VerificationCodeTypeEmailVerification,
		s.cfg.JWT.EmailVerificationToken.ExpiresIn)
	if err != nil {
		return err
	}

	link := fmt.Sprintf("%s/verify-email?token=%s", s.cfg.Frontend.BaseURL, token)
	s.dispatchMail(func(ctx context.Context) error {
		return s.mailer.SendVerificationMail(ctx, user.Email, user.Username, link)
	})
	return nil
}

func (s *AuthService) createCode(ctx context.Context, userID uuid.UUID, codeType models.VerificationCodeType, ttl time.Duration) (string, error) {
	token, err := security.GenerateSecureToken(verificationTokenBytes)
	if err != nil {
		return "", fmt.Errorf("failed to generate verification token: %w", err)
	}

	now := time.Now().UTC()
	code := &models.VerificationCode{
		ID:        uuid.New(),
		UserID:    userID,
		Type:      codeType,
		CodeHash:  security.HashToken(token),
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}
	if err := s.codeRepo.Create(ctx, code); err != nil {
		return "", err
	}
	return token, nil
}

// dispatchMail runs fn on a detached goroutine so slow SMTP never blocks the
// request path. Failures are already logged and counted by the mailer.
func (s *AuthService) dispatchMail(fn func(ctx context.Context) error) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), mailDispatchTimeout)
		defer cancel()
		_ = fn(ctx)
	}()
}

func (s *AuthService) publishEvent(topic string, user *models.User) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		event := models.NewUserEvent(user)
		if err := s.publisher.Publish(ctx, topic, user.ID.String(), event); err != nil {
			s.log.Warn("failed to publish event",
				zap.String("topic", topic),
				zap.String("user_id", user.ID.String()),
				zap.Error(err),
			)
		}
	}()
}

func (s *AuthService) checkLimit(ctx context.Context, rule config.RateLimitRule, key string) error {
	rl := s.cfg.Security.RateLimiting
	if !rl.Enabled || !rule.Enabled || s.limiter == nil {
		return nil
	}
	allowed, err := s.limiter.Allow(ctx, key, rule.Limit, rule.Window)
	if err != nil {
		// Limiter failure already logged; fail open.
		return nil
	}
	if !allowed {
		metrics.RateLimitExceededTotal.Inc()
		return errors.ErrRateLimitExceeded
	}
	return nil
}
