// Package models defines the shared data types exchanged between the
// scanners, the alert dispatcher, and the HTTP/CLI surfaces.
//
// Finding is the atomic output unit of every scanner; its JSON field names
// are wire-visible and consumed by the report generator and all notification
// channels, so they must stay stable.
package models

import "time"

// RiskLevel classifies the severity of a finding. It drives notification
// routing (HIGH and MEDIUM fan out to Slack, LOW is email-only), not any
// numeric scoring.
type RiskLevel string

const (
	RiskHigh   RiskLevel = "HIGH"
	RiskMedium RiskLevel = "MEDIUM"
	RiskLow    RiskLevel = "LOW"
)

// Finding is a single detected deviation from a CIS benchmark rule for one
// cloud resource. A Finding is produced by exactly one scanner check and is
// immutable once constructed; it lives only for the duration of one scan
// request (aggregation, dispatch, response).
type Finding struct {
	// Resource identifies the offending cloud object. It may be composite,
	// e.g. "i-0abc - vol-0def" for an unencrypted volume attached to an
	// instance, or "alice - AKIA..." for an active access key.
	Resource string `json:"resource" yaml:"resource"`

	// Type is the human-readable resource family label, e.g. "S3 Bucket".
	Type string `json:"type" yaml:"type"`

	// Risk is copied from the matching catalog rule, or assigned directly
	// by the scanner for checks without a catalog entry.
	Risk RiskLevel `json:"risk" yaml:"risk"`

	// Issue is a short description of what is wrong.
	Issue string `json:"issue" yaml:"issue"`

	// CISRule and Remediation are copied from the catalog rule when one
	// applies; "N/A" otherwise.
	CISRule     string `json:"cis_rule" yaml:"cis_rule"`
	Remediation string `json:"remediation" yaml:"remediation"`
}

// ScanReport is the envelope returned by the scan endpoints and rendered by
// the CLI. Findings preserve evaluation order: resource enumeration order
// from AWS, then check order within a resource.
type ScanReport struct {
	ReportID    string    `json:"report_id" yaml:"report_id"`
	GeneratedAt time.Time `json:"generated_at" yaml:"generated_at"`

	// Family names the scanned resource family ("s3", "iam", "ec2",
	// "security-groups", or "all").
	Family string `json:"family" yaml:"family"`

	Findings []Finding `json:"findings" yaml:"findings"`
}

// CountByRisk returns how many findings in the report carry the given risk.
func (r *ScanReport) CountByRisk(level RiskLevel) int {
	n := 0
	for _, f := range r.Findings {
		if f.Risk == level {
			n++
		}
	}
	return n
}
