package mailer

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/facemark/facemark-api/pkg/config"
)

// Message is a single plain-text email.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender delivers messages. Abstracted so services can be tested without SMTP.
type Sender interface {
	Send(msg Message) error
}

// SMTPMailer sends mail through a single authenticated SMTP host.
type SMTPMailer struct {
	cfg  config.SMTPConfig
	auth smtp.Auth
}

// NewSMTPMailer builds a mailer from configuration.
func NewSMTPMailer(cfg config.SMTPConfig) *SMTPMailer {
	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	return &SMTPMailer{cfg: cfg, auth: auth}
}

// Send delivers one message.
func (m *SMTPMailer) Send(msg Message) error {
	if msg.To == "" {
		return fmt.Errorf("mail requires a recipient")
	}
	from := m.cfg.From
	if from == "" {
		from = m.cfg.Username
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	b.WriteString(msg.Body)

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	if err := smtp.SendMail(addr, m.auth, from, []string{msg.To}, []byte(b.String())); err != nil {
		return fmt.Errorf("send mail to %s: %w", msg.To, err)
	}
	return nil
}
