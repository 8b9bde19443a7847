// Package rules holds the static CIS benchmark rule catalog.
//
// The catalog is pure data: a closed mapping from rule key to the CIS clause
// citation, the remediation text, and the risk level. It is constructed once
// at startup and injected into every scanner; it has no write path and is
// safe for unsynchronized concurrent reads.
package rules

import (
	"fmt"

	"github.com/cloudops-labs/cis-auditor/internal/models"
)

// Rule keys for every check in the catalog. Scanners reference rules by
// these constants only; probing the catalog with untrusted input is a
// programming error.
const (
	SGSSHOpen   = "sg_ssh_open"
	SGHTTPOpen  = "sg_http_open"
	SGHTTPSOpen = "sg_https_open"
	SGRDPOpen   = "sg_rdp_open"
	SGOtherOpen = "sg_other_open"

	IAMPolicyOverlyPermissive = "iam_policy_overly_permissive"
	IAMUserWithoutMFA         = "iam_user_without_mfa"
	IAMRootAccessKey          = "iam_root_access_key"
	IAMPasswordPolicy         = "iam_password_policy"

	S3PublicAccess       = "s3_public_access"
	S3VersioningDisabled = "s3_versioning_disabled"
	S3LoggingDisabled    = "s3_logging_disabled"
	S3EncryptionDisabled = "s3_encryption_disabled"

	EC2PublicIP              = "ec2_public_ip"
	EC2UnencryptedVolumes    = "ec2_unencrypted_volumes"
	EC2PublicSnapshot        = "ec2_public_snapshot"
	EC2TerminationProtection = "ec2_termination_protection"
)

// Definition is one immutable catalog entry.
type Definition struct {
	// CISRule is the human-readable CIS clause citation.
	CISRule string

	// Remediation is the actionable fix text included in every finding.
	Remediation string

	// Risk is the severity assigned to findings for this rule.
	Risk models.RiskLevel
}

// Catalog maps rule keys to their definitions. Construct it with NewCatalog
// and treat it as read-only thereafter.
type Catalog map[string]Definition

// NewCatalog returns the full CIS rule catalog. The set of keys is fixed;
// adding a check means adding both the scanner logic and a catalog entry.
func NewCatalog() Catalog {
	return Catalog{
		// Security group rules
		SGSSHOpen: {
			CISRule:     "CIS AWS 4.1 – Ensure no security groups allow unrestricted SSH access",
			Remediation: "Restrict SSH access to trusted IP addresses only. Remove 0.0.0.0/0 from port 22.",
			Risk:        models.RiskHigh,
		},
		SGHTTPOpen: {
			CISRule:     "CIS AWS 4.1 – Ensure no security groups allow unrestricted HTTP access",
			Remediation: "Restrict HTTP access to trusted IP addresses only. Remove 0.0.0.0/0 from port 80.",
			Risk:        models.RiskMedium,
		},
		SGHTTPSOpen: {
			CISRule:     "CIS AWS 4.1 – Ensure no security groups allow unrestricted HTTPS access",
			Remediation: "Restrict HTTPS access to trusted IP addresses only. Remove 0.0.0.0/0 from port 443.",
			Risk:        models.RiskMedium,
		},
		SGRDPOpen: {
			CISRule:     "CIS AWS 4.1 – Ensure no security groups allow unrestricted RDP access",
			Remediation: "Restrict RDP access to trusted IP addresses only. Remove 0.0.0.0/0 from port 3389.",
			Risk:        models.RiskHigh,
		},
		SGOtherOpen: {
			CISRule:     "CIS AWS 4.1 – Ensure no security groups allow unrestricted access on non-standard ports",
			Remediation: "Review and restrict access to this port to trusted IP addresses only.",
			Risk:        models.RiskLow,
		},

		// IAM rules
		IAMPolicyOverlyPermissive: {
			CISRule:     "CIS AWS 1.5 – Ensure IAM policies are least privileged",
			Remediation: "Ensure IAM policies are scoped to only necessary permissions. Avoid using 'Action': '*' and 'Resource': '*' in policies.",
			Risk:        models.RiskHigh,
		},
		IAMUserWithoutMFA: {
			CISRule:     "CIS AWS 1.2 – Ensure multi-factor authentication (MFA) is enabled for all IAM users",
			Remediation: "Enable MFA for all IAM users that have a console password.",
			Risk:        models.RiskHigh,
		},
		IAMRootAccessKey: {
			CISRule:     "CIS AWS 1.4 – Ensure access keys are rotated every 90 days or less",
			Remediation: "Rotate access keys every 90 days or less.",
			Risk:        models.RiskHigh,
		},
		IAMPasswordPolicy: {
			CISRule:     "CIS AWS 1.7 – Ensure IAM password policy requires at least one uppercase letter",
			Remediation: "Update IAM password policy to require uppercase letters, numbers, and special characters.",
			Risk:        models.RiskMedium,
		},

		// S3 rules
		S3PublicAccess: {
			CISRule:     "CIS AWS 5.1 – Ensure S3 buckets are not publicly accessible",
			Remediation: "Review bucket ACLs and restrict access to trusted accounts only. Do not grant public read/write permissions.",
			Risk:        models.RiskHigh,
		},
		S3VersioningDisabled: {
			CISRule:     "CIS AWS 5.2 – Ensure S3 bucket versioning is enabled",
			Remediation: "Enable versioning on S3 buckets to protect against accidental deletion and maintain object history.",
			Risk:        models.RiskMedium,
		},
		S3LoggingDisabled: {
			CISRule:     "CIS AWS 5.3 – Ensure S3 bucket access logging is enabled",
			Remediation: "Enable access logging on S3 buckets to track access requests.",
			Risk:        models.RiskMedium,
		},
		S3EncryptionDisabled: {
			CISRule:     "CIS AWS 5.4 – Ensure S3 bucket encryption is enabled",
			Remediation: "Enable server-side encryption for S3 buckets to protect data at rest.",
			Risk:        models.RiskHigh,
		},

		// EC2 rules
		EC2PublicIP: {
			CISRule:     "CIS AWS 4.2 – Ensure no EC2 instances have public IPs",
			Remediation: "Review EC2 instances and remove public IPs if not required. Use private subnets and NAT gateways instead.",
			Risk:        models.RiskMedium,
		},
		EC2UnencryptedVolumes: {
			CISRule:     "CIS AWS 4.3 – Ensure all EC2 volumes are encrypted",
			Remediation: "Enable encryption for all EC2 volumes to protect data at rest.",
			Risk:        models.RiskHigh,
		},
		EC2PublicSnapshot: {
			CISRule:     "CIS AWS 4.4 – Ensure EC2 snapshots are not publicly accessible",
			Remediation: "Review and restrict access to EC2 snapshots to trusted accounts only.",
			Risk:        models.RiskHigh,
		},
		EC2TerminationProtection: {
			CISRule:     "CIS AWS 4.5 – Ensure EC2 instances have termination protection enabled",
			Remediation: "Enable termination protection for critical EC2 instances to prevent accidental termination.",
			Risk:        models.RiskMedium,
		},
	}
}

// MustGet returns the definition for key. It panics on an unknown key: the
// key set is closed, so a miss is a wiring mistake, never runtime input.
func (c Catalog) MustGet(key string) Definition {
	def, ok := c[key]
	if !ok {
		panic(fmt.Sprintf("unknown CIS rule key: %q", key))
	}
	return def
}

// PortRuleKey maps an inbound rule's starting port to the security group
// rule key that applies when the rule is open to 0.0.0.0/0. A nil port means
// the rule covers all ports and is bucketed with non-standard ports.
func PortRuleKey(port *int32) string {
	if port == nil {
		return SGOtherOpen
	}
	switch *port {
	case 22:
		return SGSSHOpen
	case 80:
		return SGHTTPOpen
	case 443:
		return SGHTTPSOpen
	case 3389:
		return SGRDPOpen
	default:
		return SGOtherOpen
	}
}
