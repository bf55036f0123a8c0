package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/AhmetDemiroglu/GGHub-sub001/internal/config"
	"github.com/AhmetDemiroglu/GGHub-sub001/internal/domain/models"
	"github.com/AhmetDemiroglu/GGHub-sub001/internal/events/kafka"
	"github.com/AhmetDemiroglu/GGHub-sub001/internal/infrastructure/security"
	"github.com/AhmetDemiroglu/GGHub-sub001/internal/service"
)

type testServer struct {
	router  *gin.Engine
	mailer  *linkMailer
	users   *fakeUserRepo
	refresh *fakeRefreshRepo
	codes   *fakeCodeRepo
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := zap.NewNop()

	cfg := &config.Config{
		JWT: config.JWTConfig{
			SigningKey:             "test-signing-key",
			Issuer:                 "gghub-auth",
			Audience:               "gghub",
			AccessTokenTTL:         time.Hour,
			RefreshTokenTTL:        7 * 24 * time.Hour,
			EmailVerificationToken: config.TokenConfig{ExpiresIn: 24 * time.Hour},
			PasswordResetToken:     config.TokenConfig{ExpiresIn: time.Hour},
		},
		Security: config.SecurityConfig{PasswordSaltLength: 16},
		Frontend: config.FrontendConfig{BaseURL: "http://localhost:3000"},
	}

	users := newFakeUserRepo()
	refresh := newFakeRefreshRepo()
	codes := newFakeCodeRepo()
	mailer := newLinkMailer()

	hasher := security.NewHMACPasswordHasher(cfg.Security.PasswordSaltLength)
	manager := security.NewJWTService(cfg.JWT.SigningKey, cfg.JWT.Issuer, cfg.JWT.Audience, cfg.JWT.AccessTokenTTL)
	tokens := service.NewTokenService(refresh, users, manager, cfg.JWT.RefreshTokenTTL, log)
	auth := service.NewAuthService(users, codes, tokens, hasher, mailer, kafka.NewNoopPublisher(log), nil, cfg, log)
	admin := service.NewAdminService(users, tokens, kafka.NewNoopPublisher(log), log)

	router := NewRouter(cfg, NewAuthHandler(auth, log), NewAdminHandler(admin, log), manager, log)
	return &testServer{router: router, mailer: mailer, users: users, refresh: refresh, codes: codes}
}

func (s *testServer) do(t *testing.T, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) registerAndVerify(t *testing.T, username, email, password string) {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/v1/auth/register", models.RegisterRequest{
		Username: username, Email: email, Password: password,
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	token, ok := s.mailer.nextToken(time.Second)
	require.True(t, ok, "expected a verification mail")

	rec = s.do(t, http.MethodPost, "/api/v1/auth/verify-email", models.VerifyEmailRequest{Token: token}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func (s *testServer) login(t *testing.T, email, password string) models.LoginResponse {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/v1/auth/login", models.LoginRequest{Email: email, Password: password}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp models.LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestRegisterLoginLifecycle(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/v1/auth/register", models.RegisterRequest{
		Username: "proplayer", Email: "proplayer@example.com", Password: "sup3rsecret",
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created models.UserResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, models.UserStatusPendingVerification, created.Status)

	// Login before verification is rejected with a distinct status.
	rec = s.do(t, http.MethodPost, "/api/v1/auth/login", models.LoginRequest{
		Email: "proplayer@example.com", Password: "sup3rsecret",
	}, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	token, ok := s.mailer.nextToken(time.Second)
	require.True(t, ok)
	rec = s.do(t, http.MethodPost, "/api/v1/auth/verify-email", models.VerifyEmailRequest{Token: token}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// Second redemption of the same token fails.
	rec = s.do(t, http.MethodPost, "/api/v1/auth/verify-email", models.VerifyEmailRequest{Token: token}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	resp := s.login(t, "proplayer@example.com", "sup3rsecret")
	assert.Equal(t, "proplayer", resp.User.Username)
	assert.NotEmpty(t, resp.Tokens.AccessToken)
	assert.NotEmpty(t, resp.Tokens.RefreshToken)
}

func TestVerifyEmailRedirect(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/v1/auth/register", models.RegisterRequest{
		Username: "proplayer", Email: "proplayer@example.com", Password: "sup3rsecret",
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	token, ok := s.mailer.nextToken(time.Second)
	require.True(t, ok)

	rec = s.do(t, http.MethodGet, "/api/v1/auth/verify-email?token="+token, nil, nil)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "http://localhost:3000/login?verified=true", rec.Header().Get("Location"))

	// Reusing the token redirects with a failure flag.
	rec = s.do(t, http.MethodGet, "/api/v1/auth/verify-email?token="+token, nil, nil)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "http://localhost:3000/login?verified=false", rec.Header().Get("Location"))
}

func TestRegister_DuplicateEmailConflict(t *testing.T) {
	s := newTestServer(t)
	s.registerAndVerify(t, "playerone", "taken@example.com", "sup3rsecret")

	rec := s.do(t, http.MethodPost, "/api/v1/auth/register", models.RegisterRequest{
		Username: "playertwo", Email: "taken@example.com", Password: "sup3rsecret",
	}, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRegister_InvalidPayloadRejected(t *testing.T) {
	s := newTestServer(t)

	cases := []models.RegisterRequest{
		{Username: "ab", Email: "valid@example.com", Password: "sup3rsecret"},
		{Username: "validname", Email: "not-an-email", Password: "sup3rsecret"},
		{Username: "validname", Email: "valid@example.com", Password: "short"},
	}
	for _, req := range cases {
		rec := s.do(t, http.MethodPost, "/api/v1/auth/register", req, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "req=%+v", req)
	}
}

func TestLogin_WrongPasswordUnauthorized(t *testing.T) {
	s := newTestServer(t)
	s.registerAndVerify(t, "proplayer", "proplayer@example.com", "sup3rsecret")

	rec := s.do(t, http.MethodPost, "/api/v1/auth/login", models.LoginRequest{
		Email: "proplayer@example.com", Password: "wrong-password",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Same status and body for an unknown address.
	rec2 := s.do(t, http.MethodPost, "/api/v1/auth/login", models.LoginRequest{
		Email: "ghost@example.com", Password: "wrong-password",
	}, nil)
	assert.Equal(t, rec.Code, rec2.Code)
	assert.Equal(t, rec.Body.String(), rec2.Body.String())
}

func TestRefresh_RotationIsSingleUse(t *testing.T) {
	s := newTestServer(t)
	s.registerAndVerify(t, "proplayer", "proplayer@example.com", "sup3rsecret")
	resp := s.login(t, "proplayer@example.com", "sup3rsecret")

	rec := s.do(t, http.MethodPost, "/api/v1/auth/refresh", models.RefreshTokenRequest{
		RefreshToken: resp.Tokens.RefreshToken,
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var pair models.TokenPair
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pair))
	assert.NotEqual(t, resp.Tokens.RefreshToken, pair.RefreshToken)

	// Replaying the consumed token is rejected.
	rec = s.do(t, http.MethodPost, "/api/v1/auth/refresh", models.RefreshTokenRequest{
		RefreshToken: resp.Tokens.RefreshToken,
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// The replacement still works.
	rec = s.do(t, http.MethodPost, "/api/v1/auth/refresh", models.RefreshTokenRequest{
		RefreshToken: pair.RefreshToken,
	}, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRefresh_BlockedOwnerLooksLikeInvalidToken(t *testing.T) {
	s := newTestServer(t)
	s.registerAndVerify(t, "proplayer", "proplayer@example.com", "sup3rsecret")
	resp := s.login(t, "proplayer@example.com", "sup3rsecret")

	require.NoError(t, s.users.UpdateStatus(context.Background(), resp.User.ID, models.UserStatusBlocked))

	blocked := s.do(t, http.MethodPost, "/api/v1/auth/refresh", models.RefreshTokenRequest{
		RefreshToken: resp.Tokens.RefreshToken,
	}, nil)
	garbage := s.do(t, http.MethodPost, "/api/v1/auth/refresh", models.RefreshTokenRequest{
		RefreshToken: "no-such-token",
	}, nil)

	// A blocked account is indistinguishable from a bad token.
	assert.Equal(t, http.StatusUnauthorized, blocked.Code)
	assert.Equal(t, garbage.Code, blocked.Code)
	assert.Equal(t, garbage.Body.String(), blocked.Body.String())
}

func TestRefresh_ExpiredTokenRejected(t *testing.T) {
	s := newTestServer(t)
	s.registerAndVerify(t, "proplayer", "proplayer@example.com", "sup3rsecret")
	resp := s.login(t, "proplayer@example.com", "sup3rsecret")

	plaintext, err := security.GenerateSecureToken(32)
	require.NoError(t, err)
	require.NoError(t, s.refresh.Create(context.Background(), &models.RefreshToken{
		ID:        uuid.New(),
		UserID:    resp.User.ID,
		TokenHash: security.HashToken(plaintext),
		ExpiresAt: time.Now().Add(-time.Minute),
		CreatedAt: time.Now().Add(-time.Hour),
	}))

	rec := s.do(t, http.MethodPost, "/api/v1/auth/refresh", models.RefreshTokenRequest{
		RefreshToken: plaintext,
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestVerifyEmail_ExpiredTokenRejected(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodPost, "/api/v1/auth/register", models.RegisterRequest{
		Username: "proplayer", Email: "proplayer@example.com", Password: "sup3rsecret",
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	user, err := s.users.FindByEmail(context.Background(), "proplayer@example.com")
	require.NoError(t, err)

	plaintext, err := security.GenerateSecureToken(32)
	require.NoError(t, err)
	require.NoError(t, s.codes.Create(context.Background(), &models.VerificationCode{
		ID:        uuid.New(),
		UserID:    user.ID,
		Type:      models.VerificationCodeTypeEmailVerification,
		CodeHash:  security.HashToken(plaintext),
		ExpiresAt: time.Now().Add(-time.Minute),
	}))

	rec = s.do(t, http.MethodPost, "/api/v1/auth/verify-email", models.VerifyEmailRequest{Token: plaintext}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestResetPassword_ExpiredTokenRejected(t *testing.T) {
	s := newTestServer(t)
	s.registerAndVerify(t, "proplayer", "proplayer@example.com", "sup3rsecret")

	user, err := s.users.FindByEmail(context.Background(), "proplayer@example.com")
	require.NoError(t, err)

	plaintext, err := security.GenerateSecureToken(32)
	require.NoError(t, err)
	require.NoError(t, s.codes.Create(context.Background(), &models.VerificationCode{
		ID:        uuid.New(),
		UserID:    user.ID,
		Type:      models.VerificationCodeTypePasswordReset,
		CodeHash:  security.HashToken(plaintext),
		ExpiresAt: time.Now().Add(-time.Minute),
	}))

	rec := s.do(t, http.MethodPost, "/api/v1/auth/reset-password", models.ResetPasswordRequest{
		Token: plaintext, NewPassword: "new-password",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// The old password still works.
	s.login(t, "proplayer@example.com", "sup3rsecret")
}

func TestLogout_RevokesRefreshToken(t *testing.T) {
	s := newTestServer(t)
	s.registerAndVerify(t, "proplayer", "proplayer@example.com", "sup3rsecret")
	resp := s.login(t, "proplayer@example.com", "sup3rsecret")

	rec := s.do(t, http.MethodPost, "/api/v1/auth/logout", models.LogoutRequest{
		RefreshToken: resp.Tokens.RefreshToken,
	}, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/auth/refresh", models.RefreshTokenRequest{
		RefreshToken: resp.Tokens.RefreshToken,
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPasswordResetFlow(t *testing.T) {
	s := newTestServer(t)
	s.registerAndVerify(t, "proplayer", "proplayer@example.com", "old-password")
	loggedIn := s.login(t, "proplayer@example.com", "old-password")

	rec := s.do(t, http.MethodPost, "/api/v1/auth/forgot-password", models.ForgotPasswordRequest{
		Email: "proplayer@example.com",
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	token, ok := s.mailer.nextToken(time.Second)
	require.True(t, ok, "expected a reset mail")

	rec = s.do(t, http.MethodPost, "/api/v1/auth/reset-password", models.ResetPasswordRequest{
		Token: token, NewPassword: "new-password",
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// Old password no longer works, new one does.
	rec = s.do(t, http.MethodPost, "/api/v1/auth/login", models.LoginRequest{
		Email: "proplayer@example.com", Password: "old-password",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	s.login(t, "proplayer@example.com", "new-password")

	// Sessions from before the reset are revoked.
	rec = s.do(t, http.MethodPost, "/api/v1/auth/refresh", models.RefreshTokenRequest{
		RefreshToken: loggedIn.Tokens.RefreshToken,
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// A reset token is single use.
	rec = s.do(t, http.MethodPost, "/api/v1/auth/reset-password", models.ResetPasswordRequest{
		Token: token, NewPassword: "another-password",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestForgotPassword_UnknownEmailSameResponse(t *testing.T) {
	s := newTestServer(t)
	s.registerAndVerify(t, "proplayer", "proplayer@example.com", "sup3rsecret")

	known := s.do(t, http.MethodPost, "/api/v1/auth/forgot-password", models.ForgotPasswordRequest{
		Email: "proplayer@example.com",
	}, nil)
	unknown := s.do(t, http.MethodPost, "/api/v1/auth/forgot-password", models.ForgotPasswordRequest{
		Email: "ghost@example.com",
	}, nil)

	assert.Equal(t, known.Code, unknown.Code)
	assert.Equal(t, known.Body.String(), unknown.Body.String())
}

func TestChangePassword_RequiresAuth(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodPost, "/api/v1/auth/change-password", models.ChangePasswordRequest{
		CurrentPassword: "a-password", NewPassword: "b-password",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestChangePassword_SignsOutOtherSessions(t *testing.T) {
	s := newTestServer(t)
	s.registerAndVerify(t, "proplayer", "proplayer@example.com", "old-password")
	first := s.login(t, "proplayer@example.com", "old-password")
	second := s.login(t, "proplayer@example.com", "old-password")

	rec := s.do(t, http.MethodPost, "/api/v1/auth/change-password", models.ChangePasswordRequest{
		CurrentPassword: "old-password", NewPassword: "new-password",
	}, map[string]string{"Authorization": "Bearer " + first.Tokens.AccessToken})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	for _, tokens := range []models.TokenPair{first.Tokens, second.Tokens} {
		rec = s.do(t, http.MethodPost, "/api/v1/auth/refresh", models.RefreshTokenRequest{
			RefreshToken: tokens.RefreshToken,
		}, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	}
	s.login(t, "proplayer@example.com", "new-password")
}

func TestMe_ReturnsCurrentUser(t *testing.T) {
	s := newTestServer(t)
	s.registerAndVerify(t, "proplayer", "proplayer@example.com", "sup3rsecret")
	resp := s.login(t, "proplayer@example.com", "sup3rsecret")

	rec := s.do(t, http.MethodGet, "/api/v1/auth/me", nil,
		map[string]string{"Authorization": "Bearer " + resp.Tokens.AccessToken})
	require.Equal(t, http.StatusOK, rec.Code)

	var me models.UserResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &me))
	assert.Equal(t, resp.User.ID, me.ID)
}

func TestAdminEndpoints_RequireAdminRole(t *testing.T) {
	s := newTestServer(t)
	s.registerAndVerify(t, "proplayer", "proplayer@example.com", "sup3rsecret")
	resp := s.login(t, "proplayer@example.com", "sup3rsecret")

	rec := s.do(t, http.MethodGet, "/api/v1/admin/users", nil,
		map[string]string{"Authorization": "Bearer " + resp.Tokens.AccessToken})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/admin/users", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
