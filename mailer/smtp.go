// Package mailer delivers verification codes and reset tokens over
// SMTP. The flows only see the domain.Mailer capability.
package mailer

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/verigate/verigate/config"
)

type SMTPMailer struct {
	addr string
	auth smtp.Auth
	from string
}

func NewSMTPMailer(cfg config.SMTP) *SMTPMailer {
	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	from := cfg.From
	if from == "" {
		from = cfg.Username
	}
	return &SMTPMailer{
		addr: fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		auth: auth,
		from: from,
	}
}

func (m *SMTPMailer) SendVerificationCode(ctx context.Context, email, code string) error {
	body := fmt.Sprintf(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2>Email verification</h2>
  <p>Your verification code is:</p>
  <div style="background-color: #f5f5f5; padding: 10px; text-align: center; font-size: 24px; font-weight: bold;">%s</div>
  <p>The code expires in 10 minutes.</p>
  <p>If you did not request this, please ignore this email.</p>
</div>`, code)

	msg := buildMessage(m.from, email, "Your verification code", body)
	if err := m.send(ctx, email, msg); err != nil {
		return fmt.Errorf("mailer: send verification code: %w", err)
	}
	return nil
}

func (m *SMTPMailer) SendResetToken(ctx context.Context, email, token string) error {
	body := fmt.Sprintf(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2>Password reset</h2>
  <p>Your password reset token is:</p>
  <div style="background-color: #f5f5f5; padding: 10px; text-align: center; font-size: 16px;"><code>%s</code></div>
  <p>The token expires in 1 hour.</p>
  <p>If you did not request this, please ignore this email.</p>
</div>`, token)

	msg := buildMessage(m.from, email, "Password reset request", body)
	if err := m.send(ctx, email, msg); err != nil {
		return fmt.Errorf("mailer: send reset token: %w", err)
	}
	return nil
}

func (m *SMTPMailer) send(ctx context.Context, to string, msg []byte) error {
	// net/smtp has no context support; honor cancellation before the
	// dial at least.
	if err := ctx.Err(); err != nil {
		return err
	}
	return smtp.SendMail(m.addr, m.auth, m.from, []string{to}, msg)
}

func buildMessage(from, to, subject, htmlBody string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: Verigate <%s>\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(htmlBody)
	b.WriteString("\r\n")
	return []byte(b.String())
}
