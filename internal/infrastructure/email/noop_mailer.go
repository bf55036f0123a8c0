package email

import (
	"context"

	"go.uber.org/zap"

	"github.com/AhmetDemiroglu/GGHub-sub001/internal/domain/interfaces"
)

// NoopMailer logs instead of sending. Used when mail is disabled, e.g. in
// local development without an SMTP relay.
type NoopMailer struct {
	log *zap.Logger
}

var _ interfaces.Mailer = (*NoopMailer)(nil)

// NewNoopMailer returns a mailer that only logs.
func NewNoopMailer(log *zap.Logger) *NoopMailer {
	return &NoopMailer{log: log}
}

func (m *NoopMailer) SendVerificationMail(_ context.Context, to, _, verificationLink string) error {
	m.log.Info("mail disabled, skipping verification mail",
		zap.String("to", to), zap.String("link", verificationLink))
	return nil
}

func (m *NoopMailer) SendPasswordResetMail(_ context.Context, to, _, resetLink string) error {
	m.log.Info("mail disabled, skipping password reset mail",
		zap.String("to", to), zap.String("link", resetLink))
	return nil
}

func (m *NoopMailer) SendPasswordChangedMail(_ context.Context, to, _ string) error {
	m.log.Info("mail disabled, skipping password changed mail", zap.String("to", to))
	return nil
}
