package alert

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"

	"github.com/cloudops-labs/cis-auditor/internal/config"
	"github.com/cloudops-labs/cis-auditor/internal/models"
)

func testEmailConfig() config.EmailConfig {
	return config.EmailConfig{
		SMTPServer: "smtp.example.com",
		SMTPPort:   587,
		Username:   "auditor",
		Password:   "secret",
		Sender:     "auditor@example.com",
		Recipient:  "secops@example.com",
	}
}

func TestSendEmailTransaction(t *testing.T) {
	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte

	s := NewSMTPSender(testEmailConfig())
	s.send = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, msg
		return nil
	}

	findings := []models.Finding{
		{Resource: "open-bucket", Type: "S3 Bucket", Risk: models.RiskHigh,
			Issue: "Bucket is publicly accessible", CISRule: "CIS 2.1.5",
			Remediation: "Block public access"},
	}
	if err := s.SendEmail(context.Background(), findings); err != nil {
		t.Fatalf("SendEmail() error = %v", err)
	}

	if gotAddr != "smtp.example.com:587" {
		t.Errorf("addr = %q, want smtp.example.com:587", gotAddr)
	}
	if gotFrom != "auditor@example.com" {
		t.Errorf("from = %q", gotFrom)
	}
	if len(gotTo) != 1 || gotTo[0] != "secops@example.com" {
		t.Errorf("to = %v", gotTo)
	}

	msg := string(gotMsg)
	for _, want := range []string{
		"Subject: AWS Security Alert",
		"Security findings:",
		"Resource: open-bucket",
		"Risk: HIGH",
		"Issue: Bucket is publicly accessible",
		"CIS Rule: CIS 2.1.5",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q:\n%s", want, msg)
		}
	}
}

func TestSendEmailWrapsTransportError(t *testing.T) {
	s := NewSMTPSender(testEmailConfig())
	s.send = func(string, smtp.Auth, string, []string, []byte) error {
		return errors.New("connection refused")
	}

	err := s.SendEmail(context.Background(), []models.Finding{{Resource: "b", Risk: models.RiskLow}})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "smtp.example.com:587") {
		t.Errorf("error should name the SMTP endpoint, got %v", err)
	}
}
