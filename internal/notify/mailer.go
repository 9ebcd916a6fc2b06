package notify

import (
	"context"
	"crypto/tls"
	"fmt"
	"mime"
	"net"
	"net/mail"
	"net/smtp"
	"strings"
	"time"

	"ayat-booking/internal/logger"
)

type Mailer interface {
	Send(ctx context.Context, email Email) error
}

type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
	// Timeout bounds one whole send. Zero means DefaultSMTPTimeout.
	Timeout time.Duration
}

const DefaultSMTPTimeout = 30 * time.Second

// SMTPMailer sends mail over STARTTLS. Without credentials it only logs
// the message it would have sent.
type SMTPMailer struct {
	Config SMTPConfig
	Logger *logger.Logger
}

func NewSMTPMailer(cfg SMTPConfig, log *logger.Logger) *SMTPMailer {
	return &SMTPMailer{Config: cfg, Logger: log}
}

func (m *SMTPMailer) mockMode() bool {
	return m.Config.Username == "" || m.Config.Password == ""
}

func (m *SMTPMailer) Send(ctx context.Context, email Email) error {
	if m.mockMode() {
		m.Logger.Info("EMAIL", fmt.Sprintf("Mock email to %s: %s", email.To, email.Subject))
		return nil
	}

	from, err := mail.ParseAddress(m.Config.From)
	if err != nil {
		return fmt.Errorf("invalid from address %q: %w", m.Config.From, err)
	}

	timeout := m.Config.Timeout
	if timeout <= 0 {
		timeout = DefaultSMTPTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	addr := net.JoinHostPort(m.Config.Host, m.Config.Port)
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	}
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	client, err := smtp.NewClient(conn, m.Config.Host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to greet SMTP server: %w", err)
	}
	defer client.Close()

	if err := client.StartTLS(&tls.Config{ServerName: m.Config.Host}); err != nil {
		return fmt.Errorf("failed to start TLS: %w", err)
	}
	if err := client.Auth(smtp.PlainAuth("", m.Config.Username, m.Config.Password, m.Config.Host)); err != nil {
		return fmt.Errorf("failed to authenticate: %w", err)
	}
	if err := client.Mail(from.Address); err != nil {
		return err
	}
	if err := client.Rcpt(email.To); err != nil {
		return err
	}

	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(buildMessage(m.Config.From, email)); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}

	m.Logger.Info("EMAIL", fmt.Sprintf("Email sent to %s", email.To))
	return client.Quit()
}

func buildMessage(from string, email Email) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + email.To + "\r\n")
	b.WriteString("Subject: " + mime.QEncoding.Encode("UTF-8", email.Subject) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(email.Body, "\n", "\r\n"))
	return []byte(b.String())
}
