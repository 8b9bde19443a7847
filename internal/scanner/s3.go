package scanner

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	s3svc "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/sirupsen/logrus"

	"github.com/cloudops-labs/cis-auditor/internal/models"
	"github.com/cloudops-labs/cis-auditor/internal/rules"
)

const s3ResourceType = "S3 Bucket"

// allUsersGranteeURI marks the well-known "everyone" group in bucket ACLs.
const allUsersGranteeURI = "AllUsers"

// errEncryptionNotConfigured is the internal signal that GetBucketEncryption
// reported no SSE configuration at all (the API models this as an error, not
// an empty result).
var errEncryptionNotConfigured = errors.New("no server-side encryption configuration")

// S3Scanner audits every S3 bucket in the account for public ACL grants,
// disabled versioning, missing access logging, and missing default
// server-side encryption.
type S3Scanner struct {
	client  s3APIClient
	catalog rules.Catalog
}

// NewS3Scanner returns an S3Scanner using the given client and catalog.
func NewS3Scanner(client s3APIClient, catalog rules.Catalog) *S3Scanner {
	return &S3Scanner{client: client, catalog: catalog}
}

func (s *S3Scanner) Family() string { return FamilyS3 }

// Scan lists all buckets and runs the four bucket checks against each one.
// A ListBuckets failure is fatal; every per-bucket lookup failure is logged
// and that check is skipped for that bucket.
func (s *S3Scanner) Scan(ctx context.Context) ([]models.Finding, error) {
	out, err := s.client.ListBuckets(ctx, &s3svc.ListBucketsInput{})
	if err != nil {
		return nil, fmt.Errorf("list S3 buckets: %w", err)
	}

	var findings []models.Finding
	for _, bucket := range out.Buckets {
		name := aws.ToString(bucket.Name)

		found, err := s.checkPublicAccess(ctx, name)
		if err != nil {
			logrus.WithError(err).WithField("bucket", name).Warn("skipping bucket ACL check")
		} else {
			findings = append(findings, found...)
		}

		found, err = s.checkVersioning(ctx, name)
		if err != nil {
			logrus.WithError(err).WithField("bucket", name).Warn("skipping bucket versioning check")
		} else {
			findings = append(findings, found...)
		}

		found, err = s.checkLogging(ctx, name)
		if err != nil {
			logrus.WithError(err).WithField("bucket", name).Warn("skipping bucket logging check")
		} else {
			findings = append(findings, found...)
		}

		found, err = s.checkEncryption(ctx, name)
		if err != nil {
			logrus.WithError(err).WithField("bucket", name).Warn("skipping bucket encryption check")
		} else {
			findings = append(findings, found...)
		}
	}
	return findings, nil
}

// checkPublicAccess flags the bucket when any ACL grant resolves to the
// AllUsers well-known group.
func (s *S3Scanner) checkPublicAccess(ctx context.Context, name string) ([]models.Finding, error) {
	acl, err := s.client.GetBucketAcl(ctx, &s3svc.GetBucketAclInput{Bucket: aws.String(name)})
	if err != nil {
		return nil, err
	}
	for _, grant := range acl.Grants {
		if grant.Grantee == nil {
			continue
		}
		if strings.Contains(aws.ToString(grant.Grantee.URI), allUsersGranteeURI) {
			def := s.catalog.MustGet(rules.S3PublicAccess)
			return []models.Finding{{
				Resource:    name,
				Type:        s3ResourceType,
				Risk:        def.Risk,
				Issue:       "Bucket is publicly accessible",
				CISRule:     def.CISRule,
				Remediation: def.Remediation,
			}}, nil
		}
	}
	return nil, nil
}

// checkVersioning flags the bucket when versioning status is anything other
// than Enabled. A suspended or never-configured status both count.
func (s *S3Scanner) checkVersioning(ctx context.Context, name string) ([]models.Finding, error) {
	out, err := s.client.GetBucketVersioning(ctx, &s3svc.GetBucketVersioningInput{Bucket: aws.String(name)})
	if err != nil {
		return nil, err
	}
	if out.Status == "Enabled" {
		return nil, nil
	}
	def := s.catalog.MustGet(rules.S3VersioningDisabled)
	return []models.Finding{{
		Resource:    name,
		Type:        s3ResourceType,
		Risk:        def.Risk,
		Issue:       "Bucket versioning is not enabled",
		CISRule:     def.CISRule,
		Remediation: def.Remediation,
	}}, nil
}

// checkLogging flags the bucket when no access-logging target is configured.
func (s *S3Scanner) checkLogging(ctx context.Context, name string) ([]models.Finding, error) {
	out, err := s.client.GetBucketLogging(ctx, &s3svc.GetBucketLoggingInput{Bucket: aws.String(name)})
	if err != nil {
		return nil, err
	}
	if out.LoggingEnabled != nil {
		return nil, nil
	}
	def := s.catalog.MustGet(rules.S3LoggingDisabled)
	return []models.Finding{{
		Resource:    name,
		Type:        s3ResourceType,
		Risk:        def.Risk,
		Issue:       "Bucket access logging is not enabled",
		CISRule:     def.CISRule,
		Remediation: def.Remediation,
	}}, nil
}

// checkEncryption flags the bucket when no default server-side encryption
// configuration exists. S3 signals "no configuration" with a
// ServerSideEncryptionConfigurationNotFoundError instead of an empty result,
// so that specific error code is a finding, not a skipped check.
func (s *S3Scanner) checkEncryption(ctx context.Context, name string) ([]models.Finding, error) {
	out, err := s.client.GetBucketEncryption(ctx, &s3svc.GetBucketEncryptionInput{Bucket: aws.String(name)})
	switch {
	case err == nil && out.ServerSideEncryptionConfiguration != nil:
		return nil, nil
	case err != nil && !isEncryptionNotConfigured(err):
		return nil, err
	}
	def := s.catalog.MustGet(rules.S3EncryptionDisabled)
	return []models.Finding{{
		Resource:    name,
		Type:        s3ResourceType,
		Risk:        def.Risk,
		Issue:       "Bucket encryption is not enabled",
		CISRule:     def.CISRule,
		Remediation: def.Remediation,
	}}, nil
}

// isEncryptionNotConfigured reports whether err is the S3 error code meaning
// the bucket has no SSE configuration.
func isEncryptionNotConfigured(err error) bool {
	if errors.Is(err, errEncryptionNotConfigured) {
		return true
	}
	var apiErr smithy.APIError
	return errors.As(err, &apiErr) && apiErr.ErrorCode() == "ServerSideEncryptionConfigurationNotFoundError"
}
