package scanner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"

	"github.com/aws/aws-sdk-go-v2/aws"
	iamsvc "github.com/aws/aws-sdk-go-v2/service/iam"
	iamtypes "github.com/aws/aws-sdk-go-v2/service/iam/types"
	"github.com/sirupsen/logrus"

	"github.com/cloudops-labs/cis-auditor/internal/models"
	"github.com/cloudops-labs/cis-auditor/internal/rules"
)

const (
	iamUserResourceType    = "IAM User"
	iamKeyResourceType     = "IAM Access Key"
	iamPolicyResourceType  = "IAM Policy"
	passwordPolicyResource = "IAM Password Policy"
)

// IAMScanner audits every IAM user for missing MFA, active access keys, and
// overly permissive inline or attached policies, plus the account-level
// password policy.
type IAMScanner struct {
	client  iamAPIClient
	catalog rules.Catalog
}

// NewIAMScanner returns an IAMScanner using the given client and catalog.
func NewIAMScanner(client iamAPIClient, catalog rules.Catalog) *IAMScanner {
	return &IAMScanner{client: client, catalog: catalog}
}

func (s *IAMScanner) Family() string { return FamilyIAM }

// Scan pages through all IAM users and runs the per-user checks, then the
// account-level password policy check. A ListUsers failure is fatal; all
// other lookup failures are logged and skipped.
func (s *IAMScanner) Scan(ctx context.Context) ([]models.Finding, error) {
	var findings []models.Finding

	paginator := iamsvc.NewListUsersPaginator(s.client, &iamsvc.ListUsersInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list IAM users: %w", err)
		}
		for _, user := range page.Users {
			userName := aws.ToString(user.UserName)

			found, err := s.checkMFA(ctx, userName)
			if err != nil {
				logrus.WithError(err).WithField("user", userName).Warn("skipping MFA check")
			} else {
				findings = append(findings, found...)
			}

			found, err = s.checkAccessKeys(ctx, userName)
			if err != nil {
				logrus.WithError(err).WithField("user", userName).Warn("skipping access key check")
			} else {
				findings = append(findings, found...)
			}

			found, err = s.checkInlinePolicies(ctx, userName)
			if err != nil {
				logrus.WithError(err).WithField("user", userName).Warn("skipping inline policy check")
			} else {
				findings = append(findings, found...)
			}

			found, err = s.checkAttachedPolicies(ctx, userName)
			if err != nil {
				logrus.WithError(err).WithField("user", userName).Warn("skipping attached policy check")
			} else {
				findings = append(findings, found...)
			}
		}
	}

	findings = append(findings, s.checkPasswordPolicy(ctx)...)
	return findings, nil
}

// checkMFA flags the user when no MFA device is registered.
func (s *IAMScanner) checkMFA(ctx context.Context, userName string) ([]models.Finding, error) {
	out, err := s.client.ListMFADevices(ctx, &iamsvc.ListMFADevicesInput{UserName: aws.String(userName)})
	if err != nil {
		return nil, err
	}
	if len(out.MFADevices) > 0 {
		return nil, nil
	}
	def := s.catalog.MustGet(rules.IAMUserWithoutMFA)
	return []models.Finding{{
		Resource:    userName,
		Type:        iamUserResourceType,
		Risk:        def.Risk,
		Issue:       "User does not have MFA enabled",
		CISRule:     def.CISRule,
		Remediation: def.Remediation,
	}}, nil
}

// checkAccessKeys emits one finding per access key in Active status.
func (s *IAMScanner) checkAccessKeys(ctx context.Context, userName string) ([]models.Finding, error) {
	out, err := s.client.ListAccessKeys(ctx, &iamsvc.ListAccessKeysInput{UserName: aws.String(userName)})
	if err != nil {
		return nil, err
	}
	def := s.catalog.MustGet(rules.IAMRootAccessKey)
	var findings []models.Finding
	for _, key := range out.AccessKeyMetadata {
		if key.Status != iamtypes.StatusTypeActive {
			continue
		}
		findings = append(findings, models.Finding{
			Resource:    fmt.Sprintf("%s - %s", userName, aws.ToString(key.AccessKeyId)),
			Type:        iamKeyResourceType,
			Risk:        def.Risk,
			Issue:       "Active access key found",
			CISRule:     def.CISRule,
			Remediation: def.Remediation,
		})
	}
	return findings, nil
}

// checkInlinePolicies fetches every inline policy document for the user and
// flags each one containing an Allow-everything statement.
func (s *IAMScanner) checkInlinePolicies(ctx context.Context, userName string) ([]models.Finding, error) {
	out, err := s.client.ListUserPolicies(ctx, &iamsvc.ListUserPoliciesInput{UserName: aws.String(userName)})
	if err != nil {
		return nil, err
	}
	def := s.catalog.MustGet(rules.IAMPolicyOverlyPermissive)
	var findings []models.Finding
	for _, policyName := range out.PolicyNames {
		policy, err := s.client.GetUserPolicy(ctx, &iamsvc.GetUserPolicyInput{
			UserName:   aws.String(userName),
			PolicyName: aws.String(policyName),
		})
		if err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{
				"user":   userName,
				"policy": policyName,
			}).Warn("skipping inline policy document")
			continue
		}
		permissive, err := documentIsOverlyPermissive(aws.ToString(policy.PolicyDocument))
		if err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{
				"user":   userName,
				"policy": policyName,
			}).Warn("skipping unparseable inline policy document")
			continue
		}
		if !permissive {
			continue
		}
		findings = append(findings, models.Finding{
			Resource:    userName,
			Type:        iamUserResourceType,
			Risk:        def.Risk,
			Issue:       "Inline policy is overly permissive",
			CISRule:     def.CISRule,
			Remediation: def.Remediation,
		})
	}
	return findings, nil
}

// checkAttachedPolicies resolves each attached managed policy's default
// version document and applies the same overly-permissive predicate. The
// finding names the specific attached policy.
func (s *IAMScanner) checkAttachedPolicies(ctx context.Context, userName string) ([]models.Finding, error) {
	out, err := s.client.ListAttachedUserPolicies(ctx, &iamsvc.ListAttachedUserPoliciesInput{UserName: aws.String(userName)})
	if err != nil {
		return nil, err
	}
	def := s.catalog.MustGet(rules.IAMPolicyOverlyPermissive)
	var findings []models.Finding
	for _, attached := range out.AttachedPolicies {
		policyName := aws.ToString(attached.PolicyName)
		document, err := s.attachedPolicyDocument(ctx, aws.ToString(attached.PolicyArn))
		if err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{
				"user":   userName,
				"policy": policyName,
			}).Warn("skipping attached policy document")
			continue
		}
		permissive, err := documentIsOverlyPermissive(document)
		if err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{
				"user":   userName,
				"policy": policyName,
			}).Warn("skipping unparseable attached policy document")
			continue
		}
		if !permissive {
			continue
		}
		findings = append(findings, models.Finding{
			Resource:    userName,
			Type:        iamUserResourceType,
			Risk:        def.Risk,
			Issue:       fmt.Sprintf("Attached policy %s is overly permissive", policyName),
			CISRule:     def.CISRule,
			Remediation: def.Remediation,
		})
	}
	return findings, nil
}

// attachedPolicyDocument fetches the default-version document of a managed
// policy by ARN.
func (s *IAMScanner) attachedPolicyDocument(ctx context.Context, policyARN string) (string, error) {
	policy, err := s.client.GetPolicy(ctx, &iamsvc.GetPolicyInput{PolicyArn: aws.String(policyARN)})
	if err != nil {
		return "", err
	}
	if policy.Policy == nil {
		return "", errors.New("policy metadata missing in response")
	}
	version, err := s.client.GetPolicyVersion(ctx, &iamsvc.GetPolicyVersionInput{
		PolicyArn: aws.String(policyARN),
		VersionId: policy.Policy.DefaultVersionId,
	})
	if err != nil {
		return "", err
	}
	if version.PolicyVersion == nil {
		return "", errors.New("policy version missing in response")
	}
	return aws.ToString(version.PolicyVersion.Document), nil
}

// checkPasswordPolicy evaluates the account password policy. A policy that
// does not require uppercase characters is a finding; a completely absent
// policy (NoSuchEntity) is a finding with its own issue text. Any other
// lookup error is logged, never raised as a finding.
func (s *IAMScanner) checkPasswordPolicy(ctx context.Context) []models.Finding {
	def := s.catalog.MustGet(rules.IAMPasswordPolicy)

	out, err := s.client.GetAccountPasswordPolicy(ctx, &iamsvc.GetAccountPasswordPolicyInput{})
	if err != nil {
		var notFound *iamtypes.NoSuchEntityException
		if errors.As(err, &notFound) {
			return []models.Finding{{
				Resource:    passwordPolicyResource,
				Type:        iamPolicyResourceType,
				Risk:        def.Risk,
				Issue:       "No password policy found",
				CISRule:     def.CISRule,
				Remediation: def.Remediation,
			}}
		}
		logrus.WithError(err).Warn("skipping password policy check")
		return nil
	}
	if out.PasswordPolicy == nil || out.PasswordPolicy.RequireUppercaseCharacters {
		return nil
	}
	return []models.Finding{{
		Resource:    passwordPolicyResource,
		Type:        iamPolicyResourceType,
		Risk:        def.Risk,
		Issue:       "Password policy does not require uppercase letters",
		CISRule:     def.CISRule,
		Remediation: def.Remediation,
	}}
}

// policyDocument is the subset of an IAM policy document the scanner needs.
// Statement may be a single JSON object or a list; statementList normalizes
// both to a slice.
type policyDocument struct {
	Statement statementList `json:"Statement"`
}

type policyStatement struct {
	Effect   string      `json:"Effect"`
	Action   stringOrSet `json:"Action"`
	Resource stringOrSet `json:"Resource"`
}

type statementList []policyStatement

func (l *statementList) UnmarshalJSON(data []byte) error {
	var many []policyStatement
	if err := json.Unmarshal(data, &many); err == nil {
		*l = many
		return nil
	}
	var one policyStatement
	if err := json.Unmarshal(data, &one); err != nil {
		return err
	}
	*l = statementList{one}
	return nil
}

// stringOrSet accepts a JSON string or array of strings.
type stringOrSet []string

func (s *stringOrSet) UnmarshalJSON(data []byte) error {
	var many []string
	if err := json.Unmarshal(data, &many); err == nil {
		*s = many
		return nil
	}
	var one string
	if err := json.Unmarshal(data, &one); err != nil {
		return err
	}
	*s = stringOrSet{one}
	return nil
}

// isWildcard reports whether the value is exactly the "*" wildcard, in
// either scalar or single-element list form.
func (s stringOrSet) isWildcard() bool {
	return len(s) == 1 && s[0] == "*"
}

// documentIsOverlyPermissive decodes an IAM policy document (the SDK returns
// it URL-encoded) and reports whether any statement allows every action on
// every resource.
func documentIsOverlyPermissive(raw string) (bool, error) {
	decoded, err := url.QueryUnescape(raw)
	if err != nil {
		// Some callers pass already-decoded documents.
		decoded = raw
	}
	var doc policyDocument
	if err := json.Unmarshal([]byte(decoded), &doc); err != nil {
		return false, fmt.Errorf("decode policy document: %w", err)
	}
	for _, stmt := range doc.Statement {
		if stmt.Effect == "Allow" && stmt.Action.isWildcard() && stmt.Resource.isWildcard() {
			return true, nil
		}
	}
	return false, nil
}
