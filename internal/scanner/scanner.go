// Package scanner implements the four CIS benchmark resource scanners:
// S3 buckets, IAM identities, EC2 instances, and security groups.
//
// Each scanner evaluates an ordered list of independent checks against one
// resource family and emits zero or more findings per resource. Checks never
// short-circuit each other: an instance with both a public IP and an
// unencrypted volume yields two findings. A failure of a single per-resource
// lookup is logged and skipped; only a failure to enumerate the resource
// family at all aborts the scan, so an error result is never confused with
// "no findings".
package scanner

import (
	"context"
	"fmt"

	"github.com/cloudops-labs/cis-auditor/internal/models"
)

// Resource family names used for HTTP routing, CLI arguments, and logging.
const (
	FamilyS3             = "s3"
	FamilyIAM            = "iam"
	FamilyEC2            = "ec2"
	FamilySecurityGroups = "security-groups"
)

// Scanner audits one resource family and returns its findings in a stable
// order: resource enumeration order first, check order within a resource
// second. Scanning an unchanged account twice yields identical results.
type Scanner interface {
	// Family returns the resource family name this scanner covers.
	Family() string

	// Scan evaluates every check against every enumerated resource.
	// It returns an error only when the resource family itself cannot be
	// enumerated; per-resource lookup failures are logged and skipped.
	Scan(ctx context.Context) ([]models.Finding, error)
}

// Registry holds all scanners in a fixed, deterministic order.
type Registry struct {
	scanners []Scanner
	byFamily map[string]Scanner
}

// NewRegistry builds a registry over the given scanners, preserving order.
// Duplicate family names are a wiring mistake and panic at startup.
func NewRegistry(scanners ...Scanner) *Registry {
	r := &Registry{byFamily: make(map[string]Scanner, len(scanners))}
	for _, s := range scanners {
		if _, exists := r.byFamily[s.Family()]; exists {
			panic(fmt.Sprintf("duplicate scanner family: %q", s.Family()))
		}
		r.scanners = append(r.scanners, s)
		r.byFamily[s.Family()] = s
	}
	return r
}

// Scanner returns the scanner for the named family, or false when none is
// registered under that name.
func (r *Registry) Scanner(family string) (Scanner, bool) {
	s, ok := r.byFamily[family]
	return s, ok
}

// Families returns the registered family names in registration order.
func (r *Registry) Families() []string {
	names := make([]string, 0, len(r.scanners))
	for _, s := range r.scanners {
		names = append(names, s.Family())
	}
	return names
}

// ScanAll runs every registered scanner in registration order and
// concatenates the results, preserving each scanner's internal order.
// The first enumeration failure aborts the combined scan.
func (r *Registry) ScanAll(ctx context.Context) ([]models.Finding, error) {
	var findings []models.Finding
	for _, s := range r.scanners {
		fs, err := s.Scan(ctx)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", s.Family(), err)
		}
		findings = append(findings, fs...)
	}
	return findings, nil
}
