package notify

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"rentdesk/server/internal/models"
)

// SMTPConfig holds the outgoing mail server settings
type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

// Enabled returns true if SMTP is configured with at least a host
func (c SMTPConfig) Enabled() bool {
	return c.Host != ""
}

// EmailNotifier mails new leads to the agency's notification address
type EmailNotifier struct {
	config       SMTPConfig
	to           string
	adminBaseURL string
	logger       *logrus.Logger
}

func NewEmailNotifier(config SMTPConfig, to, adminBaseURL string, logger *logrus.Logger) *EmailNotifier {
	if config.Port == "" {
		config.Port = "587"
	}
	return &EmailNotifier{
		config:       config,
		to:           to,
		adminBaseURL: adminBaseURL,
		logger:       logger,
	}
}

func (n *EmailNotifier) NotifyLead(ctx context.Context, lead models.Lead) error {
	if n.to == "" {
		return errors.New("notification email is not configured")
	}
	subject, body := LeadEmail(lead, n.adminBaseURL)
	return n.send(ctx, []string{n.to}, subject, body)
}

func (n *EmailNotifier) send(ctx context.Context, to []string, subject, body string) error {
	addr := net.JoinHostPort(n.config.Host, n.config.Port)

	dialer := &net.Dialer{Timeout: 10 * time.Second}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	// The deadline bounds the whole SMTP conversation, not only the dial
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, n.config.Host)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("smtp client: %w", err)
	}
	defer func() {
		if err := client.Quit(); err != nil && n.logger != nil {
			n.logger.WithError(err).Debug("SMTP quit failed")
		}
	}()

	if ok, _ := client.Extension("STARTTLS"); ok {
		tlsConfig := &tls.Config{
			ServerName: n.config.Host,
			MinVersion: tls.VersionTLS12,
		}
		if err := client.StartTLS(tlsConfig); err != nil {
			return fmt.Errorf("starttls: %w", err)
		}
	}

	if n.config.Username != "" {
		auth := smtp.PlainAuth("", n.config.Username, n.config.Password, n.config.Host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("auth: %w", err)
		}
	}

	if err := client.Mail(n.config.From); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}
	for _, rcpt := range to {
		if err := client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("rcpt to %s: %w", rcpt, err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("data: %w", err)
	}
	if _, err := w.Write([]byte(buildMessage(n.config.From, to, subject, body))); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close: %w", err)
	}
	return nil
}

var headerBreaks = strings.NewReplacer("\r", " ", "\n", " ")

// headerValue flattens line breaks so a value cannot start a new header
func headerValue(s string) string {
	return headerBreaks.Replace(s)
}

func buildMessage(from string, to []string, subject, body string) string {
	recipients := make([]string, len(to))
	for i, rcpt := range to {
		recipients[i] = headerValue(rcpt)
	}

	var sb strings.Builder
	sb.WriteString("From: ")
	sb.WriteString(headerValue(from))
	sb.WriteString("\r\n")
	sb.WriteString("To: ")
	sb.WriteString(strings.Join(recipients, ", "))
	sb.WriteString("\r\n")
	sb.WriteString("Subject: ")
	sb.WriteString(mime.QEncoding.Encode("utf-8", headerValue(subject)))
	sb.WriteString("\r\n")
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	sb.WriteString("\r\n")
	sb.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	return sb.String()
}
