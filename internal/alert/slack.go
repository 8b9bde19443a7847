package alert

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/cloudops-labs/cis-auditor/internal/models"
)

const slackTimeout = 10 * time.Second

// SlackSender posts one alert message per finding.
type SlackSender interface {
	SendSlackAlert(ctx context.Context, finding models.Finding) error
}

// WebhookSender delivers per-finding alerts to a Slack incoming webhook.
// An empty webhook URL turns the sender into a logged no-op so deployments
// without Slack configured keep working.
type WebhookSender struct {
	webhookURL string
	client     *http.Client
}

// NewWebhookSender returns a WebhookSender posting to the given webhook URL.
func NewWebhookSender(webhookURL string) *WebhookSender {
	return &WebhookSender{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: slackTimeout},
	}
}

type slackPayload struct {
	Text string `json:"text"`
}

// SendSlackAlert posts the finding to the webhook. Slack delivery problems
// (non-2xx responses) are logged but not returned, so one rejected message
// never blocks the rest of the batch. Transport-level failures are returned.
func (w *WebhookSender) SendSlackAlert(ctx context.Context, finding models.Finding) error {
	if w.webhookURL == "" {
		logrus.Warn("slack webhook URL not configured, skipping alert")
		return nil
	}

	payload := slackPayload{Text: formatSlackMessage(finding)}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal slack payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("post slack alert: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		logrus.WithFields(logrus.Fields{
			"status":   resp.StatusCode,
			"response": string(respBody),
			"resource": finding.Resource,
		}).Error("slack webhook rejected alert")
	}
	return nil
}

func formatSlackMessage(f models.Finding) string {
	return fmt.Sprintf(
		"🚨 *AWS Security Alert*\n*Resource:* %s\n*Type:* %s\n*Risk:* %s\n*Issue:* %s\n*CIS Rule:* %s\n*Remediation:* %s",
		f.Resource, f.Type, f.Risk, f.Issue, f.CISRule, f.Remediation,
	)
}
