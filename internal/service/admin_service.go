package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/AhmetDemiroglu/GGHub-sub001/internal/domain/errors"
	"github.com/AhmetDemiroglu/GGHub-sub001/internal/domain/interfaces"
	"github.com/AhmetDemiroglu/GGHub-sub001/internal/domain/models"
	"github.com/AhmetDemiroglu/GGHub-sub001/internal/domain/repository"
)

// AdminService implements the moderation surface.
type AdminService struct {
	userRepo  repository.UserRepository
	tokens    *TokenService
	publisher interfaces.EventPublisher
	log       *zap.Logger
}

// NewAdminService wires the admin service.
func NewAdminService(
	userRepo repository.UserRepository,
	tokens *TokenService,
	publisher interfaces.EventPublisher,
	log *zap.Logger,
) *AdminService {
	return &AdminService{
		userRepo:  userRepo,
		tokens:    tokens,
		publisher: publisher,
		log:       log,
	}
}

// ListUsers returns one page of users for the admin panel.
func (s *AdminService) ListUsers(ctx context.Context, params models.ListUsersParams) (*models.ListUsersResponse, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.PageSize < 1 || params.PageSize > 100 {
		params.PageSize = 20
	}

	users, total, err := s.userRepo.List(ctx, params)
	if err != nil {
		return nil, err
	}

	resp := &models.ListUsersResponse{
		Users:    make([]models.UserResponse, 0, len(users)),
		Total:    total,
		Page:     params.Page,
		PageSize: params.PageSize,
	}
	for _, u := range users {
		resp.Users = append(resp.Users, u.ToResponse())
	}
	resp.TotalPages = int((total + int64(params.PageSize) - 1) / int64(params.PageSize))
	return resp, nil
}

// BlockUser blocks the account and signs it out everywhere.
func (s *AdminService) BlockUser(ctx context.Context, id uuid.UUID) error {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if user.Status == models.UserStatusBlocked {
		return errors.ErrConflict
	}

	if err := s.userRepo.UpdateStatus(ctx, id, models.UserStatusBlocked); err != nil {
		return err
	}
	if err := s.tokens.RevokeAllForUser(ctx, id, models.RevokedReasonUserBlocked); err != nil {
		s.log.Error("failed to revoke tokens of blocked user",
			zap.String("user_id", id.String()), zap.Error(err))
	}

	s.publish(models.TopicUserBlocked, user)
	s.log.Info("user blocked", zap.String("user_id", id.String()))
	return nil
}

// UnblockUser restores a blocked account. The previous verification state
// decides whether it returns to active or pending verification.
func (s *AdminService) UnblockUser(ctx context.Context, id uuid.UUID) error {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if user.Status != models.UserStatusBlocked {
		return errors.ErrConflict
	}

	status := models.UserStatusActive
	if !user.IsVerified() {
		status = models.UserStatusPendingVerification
	}
	if err := s.userRepo.UpdateStatus(ctx, id, status); err != nil {
		return err
	}

	s.publish(models.TopicUserUnblocked, user)
	s.log.Info("user unblocked", zap.String("user_id", id.String()))
	return nil
}

func (s *AdminService) publish(topic string, user *models.User) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.publisher.Publish(ctx, topic, user.ID.String(), models.NewUserEvent(user)); err != nil {
			s.log.Warn("failed to publish event",
				zap.String("topic", topic), zap.Error(err))
		}
	}()
}
