// Package mailer implements outbound transactional email. The only
// implementation writes the message to the log; a real provider would slot
// in behind the same interface.
package mailer

import (
	"context"
	"fmt"
	"net/url"

	"github.com/bobmcallan/advisor/internal/common"
)

// LogMailer logs outbound messages instead of delivering them. Useful for
// development and the simulated deployment, where no SMTP provider exists.
type LogMailer struct {
	from    string
	baseURL string
	logger  *common.Logger
}

// NewLogMailer creates a mailer that writes messages to the log.
func NewLogMailer(cfg *common.MailerConfig, logger *common.Logger) *LogMailer {
	return &LogMailer{
		from:    cfg.From,
		baseURL: cfg.BaseURL,
		logger:  logger,
	}
}

// SendVerificationEmail logs the email-verification link for an address.
func (m *LogMailer) SendVerificationEmail(_ context.Context, email, token string) error {
	link := m.link("/api/auth/verify-email", token)
	m.logger.Info().
		Str("from", m.from).
		Str("to", email).
		Str("link", link).
		Msg("Verification email")
	return nil
}

// SendPasswordResetEmail logs the password-reset link for an address.
func (m *LogMailer) SendPasswordResetEmail(_ context.Context, email, token string) error {
	link := m.link("/api/auth/reset-password", token)
	m.logger.Info().
		Str("from", m.from).
		Str("to", email).
		Str("link", link).
		Msg("Password reset email")
	return nil
}

func (m *LogMailer) link(path, token string) string {
	return fmt.Sprintf("%s%s?token=%s", m.baseURL, path, url.QueryEscape(token))
}
