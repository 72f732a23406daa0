// Package mail delivers HTML email over SMTP.
package mail

import (
	"context"
	"crypto/tls"
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/iliyamo/restaurant-reservation/internal/logger"
)

// Config addresses the SMTP relay.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	// SkipVerify disables TLS certificate checks, for local relays only.
	SkipVerify bool
}

type sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPMailer sends each email over a fresh SMTP session.
type SMTPMailer struct {
	from   string
	dialer sender
}

func NewSMTPMailer(cfg Config) *SMTPMailer {
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	if cfg.SkipVerify {
		d.TLSConfig = &tls.Config{InsecureSkipVerify: true}
	}
	return &SMTPMailer{from: cfg.From, dialer: d}
}

func (m *SMTPMailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)
	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("smtp send to %s: %w", to, err)
	}
	return nil
}

// LogMailer writes emails to the log instead of sending them.  Used when no
// SMTP host is configured.
type LogMailer struct {
	Log *logger.Logger
}

func (m LogMailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	m.Log.Info("EMAIL", fmt.Sprintf("to=%s subject=%q (%d bytes, not sent: no SMTP host)", to, subject, len(htmlBody)))
	return nil
}
