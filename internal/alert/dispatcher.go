package alert

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/cloudops-labs/cis-auditor/internal/models"
)

// Dispatcher routes findings to the configured channels based on risk.
// Each non-empty risk group gets its own consolidated email. HIGH and
// MEDIUM findings additionally get one Slack alert each, LOW findings
// never reach Slack. An empty finding set sends nothing.
type Dispatcher struct {
	email EmailSender
	slack SlackSender

	// PropagateErrors makes Dispatch return the joined channel errors
	// instead of only logging them. Channels are always all attempted
	// regardless of this setting.
	PropagateErrors bool
}

// NewDispatcher builds a Dispatcher over the given channels. Either channel
// may be nil, in which case it is skipped.
func NewDispatcher(email EmailSender, slack SlackSender) *Dispatcher {
	return &Dispatcher{email: email, slack: slack}
}

// Dispatch fans the findings out to the channels per the risk policy.
// A failing channel never prevents the others from being attempted.
func (d *Dispatcher) Dispatch(ctx context.Context, findings []models.Finding) error {
	if len(findings) == 0 {
		return nil
	}

	groups := map[models.RiskLevel][]models.Finding{}
	for _, f := range findings {
		groups[f.Risk] = append(groups[f.Risk], f)
	}

	var errs []error
	for _, risk := range []models.RiskLevel{models.RiskHigh, models.RiskMedium, models.RiskLow} {
		group := groups[risk]
		if len(group) == 0 {
			continue
		}

		if d.email != nil {
			if err := d.email.SendEmail(ctx, group); err != nil {
				logrus.WithError(err).WithField("risk", risk).Error("email alert failed")
				errs = append(errs, err)
			}
		}

		if risk == models.RiskLow || d.slack == nil {
			continue
		}
		for _, f := range group {
			if err := d.slack.SendSlackAlert(ctx, f); err != nil {
				logrus.WithError(err).WithField("resource", f.Resource).Error("slack alert failed")
				errs = append(errs, err)
			}
		}
	}

	if d.PropagateErrors {
		return errors.Join(errs...)
	}
	return nil
}
