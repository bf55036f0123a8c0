package http

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/AhmetDemiroglu/GGHub-sub001/internal/domain/errors"
	"github.com/AhmetDemiroglu/GGHub-sub001/internal/domain/models"
	"github.com/AhmetDemiroglu/GGHub-sub001/internal/domain/repository"
)

// In-memory repository fakes backing the handler tests.

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*models.User
}

var _ repository.UserRepository = (*fakeUserRepo)(nil)

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*models.User)}
}

func (r *fakeUserRepo) Create(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Email, user.Email) {
			return errors.ErrEmailExists
		}
		if strings.EqualFold(u.Username, user.Username) {
			return errors.ErrUsernameExists
		}
	}
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *fakeUserRepo) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		clone := *u
		return &clone, nil
	}
	return nil, errors.ErrUserNotFound
}

func (r *fakeUserRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			clone := *u
			return &clone, nil
		}
	}
	return nil, errors.ErrUserNotFound
}

func (r *fakeUserRepo) FindByUsername(_ context.Context, username string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Username, username) {
			clone := *u
			return &clone, nil
		}
	}
	return nil, errors.ErrUserNotFound
}

func (r *fakeUserRepo) UpdateStatus(_ context.Context, id uuid.UUID, status models.UserStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return errors.ErrUserNotFound
	}
	u.Status = status
	return nil
}

func (r *fakeUserRepo) UpdatePasswordHash(_ context.Context, id uuid.UUID, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return errors.ErrUserNotFound
	}
	u.PasswordHash = passwordHash
	return nil
}

func (r *fakeUserRepo) MarkEmailVerified(_ context.Context, id uuid.UUID, verifiedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return errors.ErrUserNotFound
	}
	u.EmailVerifiedAt = &verifiedAt
	if u.Status == models.UserStatusPendingVerification {
		u.Status = models.UserStatusActive
	}
	return nil
}

func (r *fakeUserRepo) UpdateLastLogin(_ context.Context, id uuid.UUID, loginAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return errors.ErrUserNotFound
	}
	u.LastLoginAt = &loginAt
	return nil
}

func (r *fakeUserRepo) List(_ context.Context, params models.ListUsersParams) ([]*models.User, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.User
	for _, u := range r.users {
		if params.Status != "" && u.Status != params.Status {
			continue
		}
		clone := *u
		out = append(out, &clone)
	}
	return out, int64(len(out)), nil
}

type fakeRefreshRepo struct {
	mu     sync.Mutex
	tokens map[string]*models.RefreshToken
}

var _ repository.RefreshTokenRepository = (*fakeRefreshRepo)(nil)

func newFakeRefreshRepo() *fakeRefreshRepo {
	return &fakeRefreshRepo{tokens: make(map[string]*models.RefreshToken)}
}

func (r *fakeRefreshRepo) Create(_ context.Context, token *models.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *token
	r.tokens[token.TokenHash] = &clone
	return nil
}

func (r *fakeRefreshRepo) RevokeIfActive(_ context.Context, tokenHash string, reason string) (*models.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tokens[tokenHash]
	if !ok || t.RevokedAt != nil || !time.Now().Before(t.ExpiresAt) {
		return nil, errors.ErrInvalidRefreshToken
	}
	now := time.Now()
	t.RevokedAt = &now
	t.RevokedReason = &reason
	clone := *t
	return &clone, nil
}

func (r *fakeRefreshRepo) Revoke(_ context.Context, tokenHash string, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tokens[tokenHash]
	if !ok || t.RevokedAt != nil {
		return errors.ErrInvalidRefreshToken
	}
	now := time.Now()
	t.RevokedAt = &now
	t.RevokedReason = &reason
	return nil
}

func (r *fakeRefreshRepo) RevokeAllForUser(_ context.Context, userID uuid.UUID, reason string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	now := time.Now()
	for _, t := range r.tokens {
		if t.UserID == userID && t.RevokedAt == nil {
			t.RevokedAt = &now
			t.RevokedReason = &reason
			count++
		}
	}
	return count, nil
}

func (r *fakeRefreshRepo) DeleteExpired(_ context.Context, olderThan time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for hash, t := range r.tokens {
		if t.ExpiresAt.Before(olderThan) {
			delete(r.tokens, hash)
			count++
		}
	}
	return count, nil
}

type fakeCodeRepo struct {
	mu    sync.Mutex
	codes map[string]*models.VerificationCode
}

var _ repository.VerificationCodeRepository = (*fakeCodeRepo)(nil)

func newFakeCodeRepo() *fakeCodeRepo {
	return &fakeCodeRepo{codes: make(map[string]*models.VerificationCode)}
}

func (r *fakeCodeRepo) Create(_ context.Context, code *models.VerificationCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *code
	r.codes[code.CodeHash] = &clone
	return nil
}

func (r *fakeCodeRepo) FindByCodeHash(_ context.Context, codeHash string, codeType models.VerificationCodeType) (*models.VerificationCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.codes[codeHash]; ok && c.Type == codeType {
		clone := *c
		return &clone, nil
	}
	return nil, errors.ErrInvalidToken
}

func (r *fakeCodeRepo) MarkUsedIfUsable(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.codes {
		if c.ID == id {
			if c.UsedAt != nil || !time.Now().Before(c.ExpiresAt) {
				return errors.ErrInvalidToken
			}
			now := time.Now()
			c.UsedAt = &now
			return nil
		}
	}
	return errors.ErrInvalidToken
}

func (r *fakeCodeRepo) InvalidateForUser(_ context.Context, userID uuid.UUID, codeType models.VerificationCodeType) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	for _, c := range r.codes {
		if c.UserID == userID && c.Type == codeType && c.UsedAt == nil {
			c.UsedAt = &now
		}
	}
	return nil
}

func (r *fakeCodeRepo) DeleteExpired(_ context.Context, olderThan time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for hash, c := range r.codes {
		if c.ExpiresAt.Before(olderThan) {
			delete(r.codes, hash)
			count++
		}
	}
	return count, nil
}

// linkMailer records the links embedded in outgoing mail so tests can redeem
// verification and reset tokens.
type linkMailer struct {
	links chan string
}

func newLinkMailer() *linkMailer {
	return &linkMailer{links: make(chan string, 16)}
}

func (m *linkMailer) SendVerificationMail(_ context.Context, _, _, link string) error {
	m.links <- link
	return nil
}

func (m *linkMailer) SendPasswordResetMail(_ context.Context, _, _, link string) error {
	m.links <- link
	return nil
}

func (m *linkMailer) SendPasswordChangedMail(_ context.Context, _, _ string) error {
	return nil
}

// nextToken waits for a mail and extracts the token query parameter.
func (m *linkMailer) nextToken(timeout time.Duration) (string, bool) {
	select {
	case link := <-m.links:
		if i := strings.Index(link, "token="); i >= 0 {
			return link[i+len("token="):], true
		}
		return "", false
	case <-time.After(timeout):
		return "", false
	}
}
