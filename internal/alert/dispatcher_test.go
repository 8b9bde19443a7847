package alert

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/cloudops-labs/cis-auditor/internal/models"
)

// ── test doubles ──

type stubEmail struct {
	batches [][]models.Finding
	err     error
}

func (s *stubEmail) SendEmail(_ context.Context, findings []models.Finding) error {
	s.batches = append(s.batches, findings)
	return s.err
}

type stubSlack struct {
	alerts []models.Finding
	err    error
}

func (s *stubSlack) SendSlackAlert(_ context.Context, f models.Finding) error {
	s.alerts = append(s.alerts, f)
	return s.err
}

func finding(resource string, risk models.RiskLevel) models.Finding {
	return models.Finding{Resource: resource, Type: "S3 Bucket", Risk: risk, Issue: "test issue"}
}

func TestDispatchEmptyFindingsSendsNothing(t *testing.T) {
	email := &stubEmail{}
	slack := &stubSlack{}
	d := NewDispatcher(email, slack)

	if err := d.Dispatch(context.Background(), nil); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if len(email.batches) != 0 || len(slack.alerts) != 0 {
		t.Fatalf("expected no channel activity, got %d emails and %d slack alerts",
			len(email.batches), len(slack.alerts))
	}
}

func TestDispatchGroupsByRisk(t *testing.T) {
	email := &stubEmail{}
	slack := &stubSlack{}
	d := NewDispatcher(email, slack)

	findings := []models.Finding{
		finding("low-1", models.RiskLow),
		finding("high-1", models.RiskHigh),
		finding("medium-1", models.RiskMedium),
		finding("high-2", models.RiskHigh),
	}
	if err := d.Dispatch(context.Background(), findings); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}

	// One consolidated email per non-empty risk group, HIGH first.
	if len(email.batches) != 3 {
		t.Fatalf("expected 3 emails, got %d", len(email.batches))
	}
	if len(email.batches[0]) != 2 || email.batches[0][0].Risk != models.RiskHigh {
		t.Errorf("first email should carry the 2 HIGH findings, got %v", email.batches[0])
	}
	if len(email.batches[1]) != 1 || email.batches[1][0].Risk != models.RiskMedium {
		t.Errorf("second email should carry the MEDIUM finding, got %v", email.batches[1])
	}
	if len(email.batches[2]) != 1 || email.batches[2][0].Risk != models.RiskLow {
		t.Errorf("third email should carry the LOW finding, got %v", email.batches[2])
	}

	// HIGH and MEDIUM findings each get a Slack alert, LOW never does.
	if len(slack.alerts) != 3 {
		t.Fatalf("expected 3 slack alerts, got %d", len(slack.alerts))
	}
	for _, a := range slack.alerts {
		if a.Risk == models.RiskLow {
			t.Errorf("LOW finding %q must not reach slack", a.Resource)
		}
	}
}

func TestDispatchLowOnlySkipsSlack(t *testing.T) {
	email := &stubEmail{}
	slack := &stubSlack{}
	d := NewDispatcher(email, slack)

	findings := []models.Finding{finding("low-1", models.RiskLow), finding("low-2", models.RiskLow)}
	if err := d.Dispatch(context.Background(), findings); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if len(email.batches) != 1 || len(email.batches[0]) != 2 {
		t.Fatalf("expected one email with both LOW findings, got %v", email.batches)
	}
	if len(slack.alerts) != 0 {
		t.Fatalf("expected no slack alerts for LOW findings, got %d", len(slack.alerts))
	}
}

func TestDispatchChannelFailureDoesNotBlockOthers(t *testing.T) {
	email := &stubEmail{err: errors.New("smtp down")}
	slack := &stubSlack{}
	d := NewDispatcher(email, slack)

	findings := []models.Finding{finding("high-1", models.RiskHigh)}
	if err := d.Dispatch(context.Background(), findings); err != nil {
		t.Fatalf("Dispatch() should swallow channel errors by default, got %v", err)
	}
	if len(slack.alerts) != 1 {
		t.Fatalf("slack alert should still be sent after email failure, got %d", len(slack.alerts))
	}
}

func TestDispatchPropagateErrors(t *testing.T) {
	email := &stubEmail{err: errors.New("smtp down")}
	slack := &stubSlack{err: errors.New("webhook down")}
	d := NewDispatcher(email, slack)
	d.PropagateErrors = true

	err := d.Dispatch(context.Background(), []models.Finding{finding("high-1", models.RiskHigh)})
	if err == nil {
		t.Fatal("expected joined error with PropagateErrors set")
	}
	if !strings.Contains(err.Error(), "smtp down") || !strings.Contains(err.Error(), "webhook down") {
		t.Errorf("joined error should carry both channel failures, got %v", err)
	}
}

func TestDispatchNilChannelsAreSkipped(t *testing.T) {
	d := NewDispatcher(nil, nil)
	if err := d.Dispatch(context.Background(), []models.Finding{finding("high-1", models.RiskHigh)}); err != nil {
		t.Fatalf("Dispatch() with no channels should be a no-op, got %v", err)
	}
}
