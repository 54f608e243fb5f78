package email

import (
	"context"
	"fmt"
	"log"
	"net/smtp"

	"github.com/Rohitkumar9569/ROOMRADAR-sub000/internal/config"
)

// Sender delivers a fully formatted email message. rawMessage must contain
// headers and body.
type Sender interface {
	Send(ctx context.Context, to []string, subject string, rawMessage []byte) error
}

// SMTPSender implements Sender using net/smtp.
type SMTPSender struct {
	cfg  *config.Config
	auth smtp.Auth
	addr string
}

// NewSMTPSender creates a Sender backed by the configured SMTP server. With no
// host configured it degrades to a logging sender for local development.
func NewSMTPSender(cfg *config.Config) Sender {
	if cfg.SmtpHost == "" {
		log.Println("SMTP host not configured, using logging email sender.")
		return &LoggingSender{cfg: cfg}
	}

	auth := smtp.PlainAuth("", cfg.SmtpUsername, cfg.SmtpPassword, cfg.SmtpHost)
	return &SMTPSender{
		cfg:  cfg,
		auth: auth,
		addr: fmt.Sprintf("%s:%d", cfg.SmtpHost, cfg.SmtpPort),
	}
}

// Send sends an email using SMTP.
func (s *SMTPSender) Send(ctx context.Context, to []string, subject string, rawMessage []byte) error {
	if err := smtp.SendMail(s.addr, s.auth, s.cfg.SmtpFromAddress, to, rawMessage); err != nil {
		return fmt.Errorf("smtp error: %w", err)
	}
	log.Printf("Email sent via SMTP to %v (Subject: %s)", to, subject)
	return nil
}

// LoggingSender logs email details instead of sending them.
type LoggingSender struct {
	cfg *config.Config
}

// Send logs the email instead of sending.
func (s *LoggingSender) Send(ctx context.Context, to []string, subject string, rawMessage []byte) error {
	log.Printf("--- Email (logged, not sent) ---")
	log.Printf("To: %v", to)
	log.Printf("From: %s", s.cfg.SmtpFromAddress)
	log.Printf("Subject: %s", subject)
	log.Println(string(rawMessage))
	log.Printf("--- End email ---")
	return nil
}
