// Package email delivers transactional mail over SMTP.
package email

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"github.com/AhmetDemiroglu/GGHub-sub001/internal/config"
	"github.com/AhmetDemiroglu/GGHub-sub001/internal/domain/interfaces"
	"github.com/AhmetDemiroglu/GGHub-sub001/internal/utils/metrics"
)

// SMTPMailer sends mail through a configured SMTP relay using gomail.
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
	log    *zap.Logger
}

var _ interfaces.Mailer = (*SMTPMailer)(nil)

// NewSMTPMailer builds a mailer from the mail configuration.
func NewSMTPMailer(cfg config.MailConfig, log *zap.Logger) *SMTPMailer {
	dialer := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	from := cfg.FromAddress
	if cfg.FromName != "" {
		from = fmt.Sprintf("%s <%s>", cfg.FromName, cfg.FromAddress)
	}
	return &SMTPMailer{dialer: dialer, from: from, log: log}
}

// SendVerificationMail delivers the email verification link.
func (m *SMTPMailer) SendVerificationMail(ctx context.Context, to, username, verificationLink string) error {
	subject := "Verify your GGHub account"
	body := fmt.Sprintf(`<p>Hi %s,</p>
<p>Welcome to GGHub! Confirm your email address to activate your account:</p>
<p><a href="%s">Verify my email</a></p>
<p>The link expires in 24 hours. If you did not create an account, ignore this mail.</p>`,
		username, verificationLink)
	return m.send(ctx, "verification", to, subject, body)
}

// SendPasswordResetMail delivers the password reset link.
func (m *SMTPMailer) SendPasswordResetMail(ctx context.Context, to, username, resetLink string) error {
	subject := "Reset your GGHub password"
	body := fmt.Sprintf(`<p>Hi %s,</p>
<p>We received a request to reset your password:</p>
<p><a href="%s">Reset my password</a></p>
<p>The link expires in 1 hour. If you did not request a reset, ignore this mail; your password is unchanged.</p>`,
		username, resetLink)
	return m.send(ctx, "password_reset", to, subject, body)
}

// SendPasswordChangedMail notifies the user their password was changed.
func (m *SMTPMailer) SendPasswordChangedMail(ctx context.Context, to, username string) error {
	subject := "Your GGHub password was changed"
	body := fmt.Sprintf(`<p>Hi %s,</p>
<p>Your password was just changed and all active sessions were signed out.</p>
<p>If this was not you, reset your password immediately.</p>`, username)
	return m.send(ctx, "password_changed", to, subject, body)
}

func (m *SMTPMailer) send(ctx context.Context, kind, to, subject, htmlBody string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)

	if err := m.dialer.DialAndSend(msg); err != nil {
		metrics.MailDispatchTotal.WithLabelValues(kind, "error").Inc()
		m.log.Error("failed to send mail",
			zap.String("kind", kind),
			zap.Error(err),
		)
		return fmt.Errorf("failed to send %s mail: %w", kind, err)
	}
	metrics.MailDispatchTotal.WithLabelValues(kind, "success").Inc()
	m.log.Debug("mail sent", zap.String("kind", kind))
	return nil
}
