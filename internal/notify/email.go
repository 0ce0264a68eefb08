// File: internal/notify/email.go

// Package notify delivers availability alerts over email.
package notify

import (
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/stockwatch-cli/internal/config"
)

// Emailer sends HTML notifications through an SMTP relay.
type Emailer struct {
	cfg    config.EmailConfig
	logger *zap.Logger
	now    func() time.Time

	// send is replaceable in tests.
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewEmailer(cfg config.EmailConfig, logger *zap.Logger) *Emailer {
	return &Emailer{
		cfg:    cfg,
		logger: logger.Named("notify"),
		now:    time.Now,
		send:   smtp.SendMail,
	}
}

// Send delivers one HTML notification. Disabled notifications are a
// silent no-op so callers never need to check the config themselves.
func (e *Emailer) Send(subject, htmlBody string) error {
	if !e.cfg.Enabled {
		e.logger.Info("Email notifications are disabled")
		return nil
	}

	msg := e.compose(subject, htmlBody)
	addr := fmt.Sprintf("%s:%d", e.cfg.SMTPHost, e.cfg.SMTPPort)
	auth := smtp.PlainAuth("", e.cfg.From, e.cfg.Password, e.cfg.SMTPHost)

	if err := e.send(addr, auth, e.cfg.From, []string{e.cfg.To}, msg); err != nil {
		e.logger.Error("Failed to send notification", zap.Error(err))
		return fmt.Errorf("sending notification mail: %w", err)
	}
	e.logger.Info("Notification sent", zap.String("subject", subject))
	return nil
}

func (e *Emailer) compose(subject, htmlBody string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", e.cfg.From)
	fmt.Fprintf(&b, "To: %s\r\n", e.cfg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", sanitizeHeader(subject))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	fmt.Fprintf(&b, "<h1>%s</h1>\n%s\n<p>Time: %s</p>\r\n",
		subject, htmlBody, e.now().Format("2006-01-02 15:04:05"))
	return []byte(b.String())
}

// sanitizeHeader strips CR/LF so body content can never smuggle extra
// headers through the subject line.
func sanitizeHeader(s string) string {
	s = strings.ReplaceAll(s, "\r", " ")
	return strings.ReplaceAll(s, "\n", " ")
}
