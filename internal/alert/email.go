// Package alert implements the notification channels (email, Slack webhook)
// and the risk-based dispatcher that fans a finding set out to them.
package alert

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/cloudops-labs/cis-auditor/internal/config"
	"github.com/cloudops-labs/cis-auditor/internal/models"
	"github.com/cloudops-labs/cis-auditor/internal/report"
)

const emailSubject = "AWS Security Alert"

// EmailSender delivers one consolidated alert email for a finding batch.
type EmailSender interface {
	SendEmail(ctx context.Context, findings []models.Finding) error
}

// smtpSendMail matches smtp.SendMail; swapped out in tests.
type smtpSendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPSender sends alert emails over SMTP with PLAIN auth, one message per
// call containing every finding in the batch.
type SMTPSender struct {
	cfg  config.EmailConfig
	send smtpSendMail
}

// NewSMTPSender returns an SMTPSender for the given transport settings.
func NewSMTPSender(cfg config.EmailConfig) *SMTPSender {
	return &SMTPSender{cfg: cfg, send: smtp.SendMail}
}

// SendEmail builds the plain-text alert body and submits it in a single
// SMTP transaction. The error is returned to the dispatcher, which decides
// whether to propagate or just log it.
func (s *SMTPSender) SendEmail(_ context.Context, findings []models.Finding) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.SMTPServer, s.cfg.SMTPPort)

	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.SMTPServer)
	}

	msg := buildEmailMessage(s.cfg.Sender, s.cfg.Recipient, findings)
	if err := s.send(addr, auth, s.cfg.Sender, []string{s.cfg.Recipient}, msg); err != nil {
		return fmt.Errorf("send email via %s: %w", addr, err)
	}
	return nil
}

// buildEmailMessage renders the RFC 5322 message: headers, then one block
// per finding with the canonical field ordering.
func buildEmailMessage(sender, recipient string, findings []models.Finding) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", sender)
	fmt.Fprintf(&b, "To: %s\r\n", recipient)
	fmt.Fprintf(&b, "Subject: %s\r\n", emailSubject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")

	b.WriteString("Security findings:\n\n")
	for _, f := range findings {
		b.WriteString(report.Format(f))
		b.WriteString("\n")
	}
	return []byte(b.String())
}
