package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/AhmetDemiroglu/GGHub-sub001/internal/domain/models"
)

type mockUserRepo struct{ mock.Mock }

func (m *mockUserRepo) Create(ctx context.Context, user *models.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *mockUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if u := args.Get(0); u != nil {
		return u.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if u := args.Get(0); u != nil {
		return u.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserRepo) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if u := args.Get(0); u != nil {
		return u.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status models.UserStatus) error {
	return m.Called(ctx, id, status).Error(0)
}

func (m *mockUserRepo) UpdatePasswordHash(ctx context.Context, id uuid.UUID, passwordHash string) error {
	return m.Called(ctx, id, passwordHash).Error(0)
}

func (m *mockUserRepo) MarkEmailVerified(ctx context.Context, id uuid.UUID, verifiedAt time.Time) error {
	return m.Called(ctx, id, verifiedAt).Error(0)
}

func (m *mockUserRepo) UpdateLastLogin(ctx context.Context, id uuid.UUID, loginAt time.Time) error {
	return m.Called(ctx, id, loginAt).Error(0)
}

func (m *mockUserRepo) List(ctx context.Context, params models.ListUsersParams) ([]*models.User, int64, error) {
	args := m.Called(ctx, params)
	var users []*models.User
	if u := args.Get(0); u != nil {
		users = u.([]*models.User)
	}
	return users, args.Get(1).(int64), args.Error(2)
}

type mockRefreshRepo struct{ mock.Mock }

func (m *mockRefreshRepo) Create(ctx context.Context, token *models.RefreshToken) error {
	return m.Called(ctx, token).Error(0)
}

func (m *mockRefreshRepo) RevokeIfActive(ctx context.Context, tokenHash string, reason string) (*models.RefreshToken, error) {
	args := m.Called(ctx, tokenHash, reason)
	if t := args.Get(0); t != nil {
		return t.(*models.RefreshToken), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockRefreshRepo) Revoke(ctx context.Context, tokenHash string, reason string) error {
	return m.Called(ctx, tokenHash, reason).Error(0)
}

func (m *mockRefreshRepo) RevokeAllForUser(ctx context.Context, userID uuid.UUID, reason string) (int64, error) {
	args := m.Called(ctx, userID, reason)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockRefreshRepo) DeleteExpired(ctx context.Context, olderThan time.Time) (int64, error) {
	args := m.Called(ctx, olderThan)
	return args.Get(0).(int64), args.Error(1)
}

type mockCodeRepo struct{ mock.Mock }

func (m *mockCodeRepo) Create(ctx context.Context, code *models.VerificationCode) error {
	return m.Called(ctx, code).Error(0)
}

func (m *mockCodeRepo) FindByCodeHash(ctx context.Context, codeHash string, codeType models.VerificationCodeType) (*models.VerificationCode, error) {
	args := m.Called(ctx, codeHash, codeType)
	if c := args.Get(0); c != nil {
		return c.(*models.VerificationCode), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockCodeRepo) MarkUsedIfUsable(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockCodeRepo) InvalidateForUser(ctx context.Context, userID uuid.UUID, codeType models.VerificationCodeType) error {
	return m.Called(ctx, userID, codeType).Error(0)
}

func (m *mockCodeRepo) DeleteExpired(ctx context.Context, olderThan time.Time) (int64, error) {
	args := m.Called(ctx, olderThan)
	return args.Get(0).(int64), args.Error(1)
}

// recordingMailer captures dispatched mail kinds; delivery runs on detached
// goroutines so assertions use Wait.
type recordingMailer struct {
	mu    sync.Mutex
	kinds []string
	done  chan struct{}
}

func newRecordingMailer() *recordingMailer {
	return &recordingMailer{done: make(chan struct{}, 16)}
}

func (m *recordingMailer) record(kind string) {
	m.mu.Lock()
	m.kinds = append(m.kinds, kind)
	m.mu.Unlock()
	m.done <- struct{}{}
}

func (m *recordingMailer) SendVerificationMail(_ context.Context, _, _, _ string) error {
	m.record("verification")
	return nil
}

func (m *recordingMailer) SendPasswordResetMail(_ context.Context, _, _, _ string) error {
	m.record("password_reset")
	return nil
}

func (m *recordingMailer) SendPasswordChangedMail(_ context.Context, _, _ string) error {
	m.record("password_changed")
	return nil
}

// Wait blocks until one mail was dispatched or the timeout elapses, then
// returns the kinds recorded so far.
func (m *recordingMailer) Wait(timeout time.Duration) []string {
	select {
	case <-m.done:
	case <-time.After(timeout):
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.kinds))
	copy(out, m.kinds)
	return out
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, string, string, any) error { return nil }
func (noopPublisher) Close() error                                       { return nil }

// stubLimiter returns a fixed verdict.
type stubLimiter struct{ allowed bool }

func (l stubLimiter) Allow(context.Context, string, int, time.Duration) (bool, error) {
	return l.allowed, nil
}

// recordingLimiter captures the keys presented to it.
type recordingLimiter struct {
	mu   sync.Mutex
	keys []string
}

func (l *recordingLimiter) Allow(_ context.Context, key string, _ int, _ time.Duration) (bool, error) {
	l.mu.Lock()
	l.keys = append(l.keys, key)
	l.mu.Unlock()
	return true, nil
}

func (l *recordingLimiter) seen() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.keys))
	copy(out, l.keys)
	return out
}
