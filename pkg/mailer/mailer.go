// Package mailer sends account emails over SMTP. Callers treat delivery as
// best-effort; nothing here retries.
package mailer

import (
	"fmt"

	"account-service/pkg/utils"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

type Mailer struct {
	dialer      *gomail.Dialer
	from        string
	frontendURL string
	log         *zap.Logger
}

func NewMailer(config utils.EmailConfig, frontendURL string, log *zap.Logger) *Mailer {
	return &Mailer{
		dialer:      gomail.NewDialer(config.Host, config.Port, config.User, config.Password),
		from:        config.From,
		frontendURL: frontendURL,
		log:         log,
	}
}

func (m *Mailer) SendVerificationEmail(email, name, token string) error {
	link := fmt.Sprintf("%s/verify?token=%s", m.frontendURL, token)

	body := fmt.Sprintf(`<p>Hi %s,</p>
<p>Thanks for signing up. Please confirm your email address within 30 minutes:</p>
<p><a href="%s">Verify my email</a></p>
<p>If you did not create an account, you can ignore this email.</p>`, name, link)

	return m.send(email, "Verify your email address", body)
}

func (m *Mailer) SendWelcomeEmail(email, name string) error {
	body := fmt.Sprintf(`<p>Hi %s,</p>
<p>Your email address has been verified. Welcome aboard!</p>`, name)

	return m.send(email, "Welcome!", body)
}

func (m *Mailer) SendPasswordResetEmail(email, resetLink, name string) error {
	body := fmt.Sprintf(`<p>Hi %s,</p>
<p>We received a request to reset your password. The link below is valid for 30 minutes:</p>
<p><a href="%s">Reset my password</a></p>
<p>If you did not request this, you can ignore this email.</p>`, name, resetLink)

	return m.send(email, "Reset your password", body)
}

func (m *Mailer) send(to, subject, htmlBody string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send %q to %s: %w", subject, to, err)
	}

	m.log.Debug("Email sent",
		zap.String("to", to),
		zap.String("subject", subject))

	return nil
}
