package utils

import (
	"fmt"

	"gopkg.in/gomail.v2"

	"mailsift/config"
)

// Mailer sends outbound mail through the configured SES SMTP interface.
type Mailer struct {
	dialer    *gomail.Dialer
	fromEmail string
	fromName  string
}

func NewMailer(cfg *config.Config) *Mailer {
	return &Mailer{
		dialer:    gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword),
		fromEmail: cfg.FromEmail,
		fromName:  cfg.FromName,
	}
}

// Send delivers a single message. from falls back to the configured sender.
func (m *Mailer) Send(fromName, fromEmail, to, subject, htmlBody, textBody string) error {
	if fromEmail == "" {
		fromEmail = m.fromEmail
	}
	if fromName == "" {
		fromName = m.fromName
	}
	if fromEmail == "" {
		return fmt.Errorf("no from address configured")
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", msg.FormatAddress(fromEmail, fromName))
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	if textBody != "" {
		msg.SetBody("text/plain", textBody)
		if htmlBody != "" {
			msg.AddAlternative("text/html", htmlBody)
		}
	} else {
		msg.SetBody("text/html", htmlBody)
	}

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send to %s: %w", to, err)
	}
	return nil
}
