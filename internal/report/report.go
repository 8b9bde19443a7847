// Package report renders a finding set as a plain-text compliance report
// grouped by risk level. The same field ordering is used by the email
// channel so both surfaces stay consistent.
package report

import (
	"fmt"
	"strings"

	"github.com/cloudops-labs/cis-auditor/internal/models"
)

// EmptyReportMessage is returned verbatim when a scan produced no findings,
// so an empty report is never mistaken for a failed scan.
const EmptyReportMessage = "No security issues found. All checks passed."

var riskOrder = []models.RiskLevel{models.RiskHigh, models.RiskMedium, models.RiskLow}

// Generate renders findings under HIGH/MEDIUM/LOW headers in risk order.
// Only non-empty risk sections appear. An empty finding list renders the
// fixed success sentence instead of an empty report.
func Generate(findings []models.Finding) string {
	if len(findings) == 0 {
		return EmptyReportMessage
	}

	var b strings.Builder
	b.WriteString("AWS CIS Benchmark Report\n")
	b.WriteString("========================\n")

	for _, level := range riskOrder {
		section := filterByRisk(findings, level)
		if len(section) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n%s RISK (%d)\n", level, len(section))
		b.WriteString(strings.Repeat("-", len(level)+10) + "\n")
		for _, f := range section {
			b.WriteString(Format(f))
			b.WriteString("\n")
		}
	}
	return b.String()
}

// Format renders one finding with the canonical field ordering: Resource,
// Type, Risk, Issue, CIS Rule, Remediation.
func Format(f models.Finding) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Resource: %s\n", f.Resource)
	fmt.Fprintf(&b, "Type: %s\n", f.Type)
	fmt.Fprintf(&b, "Risk: %s\n", f.Risk)
	fmt.Fprintf(&b, "Issue: %s\n", f.Issue)
	fmt.Fprintf(&b, "CIS Rule: %s\n", orNA(f.CISRule))
	fmt.Fprintf(&b, "Remediation: %s\n", orNA(f.Remediation))
	return b.String()
}

// filterByRisk returns the findings carrying level, preserving input order.
func filterByRisk(findings []models.Finding, level models.RiskLevel) []models.Finding {
	var out []models.Finding
	for _, f := range findings {
		if f.Risk == level {
			out = append(out, f)
		}
	}
	return out
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
