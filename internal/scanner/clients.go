package scanner

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	ec2svc "github.com/aws/aws-sdk-go-v2/service/ec2"
	iamsvc "github.com/aws/aws-sdk-go-v2/service/iam"
	s3svc "github.com/aws/aws-sdk-go-v2/service/s3"
)

// s3APIClient is the narrow S3 interface used by the bucket scanner.
// It covers bucket listing plus the four per-bucket attribute lookups.
type s3APIClient interface {
	ListBuckets(ctx context.Context, params *s3svc.ListBucketsInput, optFns ...func(*s3svc.Options)) (*s3svc.ListBucketsOutput, error)
	GetBucketAcl(ctx context.Context, params *s3svc.GetBucketAclInput, optFns ...func(*s3svc.Options)) (*s3svc.GetBucketAclOutput, error)
	GetBucketVersioning(ctx context.Context, params *s3svc.GetBucketVersioningInput, optFns ...func(*s3svc.Options)) (*s3svc.GetBucketVersioningOutput, error)
	GetBucketLogging(ctx context.Context, params *s3svc.GetBucketLoggingInput, optFns ...func(*s3svc.Options)) (*s3svc.GetBucketLoggingOutput, error)
	GetBucketEncryption(ctx context.Context, params *s3svc.GetBucketEncryptionInput, optFns ...func(*s3svc.Options)) (*s3svc.GetBucketEncryptionOutput, error)
}

// iamAPIClient is the narrow IAM interface used by the identity scanner.
// It embeds ListUsersAPIClient so the SDK paginator can be used directly.
type iamAPIClient interface {
	iamsvc.ListUsersAPIClient
	ListMFADevices(ctx context.Context, params *iamsvc.ListMFADevicesInput, optFns ...func(*iamsvc.Options)) (*iamsvc.ListMFADevicesOutput, error)
	ListAccessKeys(ctx context.Context, params *iamsvc.ListAccessKeysInput, optFns ...func(*iamsvc.Options)) (*iamsvc.ListAccessKeysOutput, error)
	ListUserPolicies(ctx context.Context, params *iamsvc.ListUserPoliciesInput, optFns ...func(*iamsvc.Options)) (*iamsvc.ListUserPoliciesOutput, error)
	GetUserPolicy(ctx context.Context, params *iamsvc.GetUserPolicyInput, optFns ...func(*iamsvc.Options)) (*iamsvc.GetUserPolicyOutput, error)
	ListAttachedUserPolicies(ctx context.Context, params *iamsvc.ListAttachedUserPoliciesInput, optFns ...func(*iamsvc.Options)) (*iamsvc.ListAttachedUserPoliciesOutput, error)
	GetPolicy(ctx context.Context, params *iamsvc.GetPolicyInput, optFns ...func(*iamsvc.Options)) (*iamsvc.GetPolicyOutput, error)
	GetPolicyVersion(ctx context.Context, params *iamsvc.GetPolicyVersionInput, optFns ...func(*iamsvc.Options)) (*iamsvc.GetPolicyVersionOutput, error)
	GetAccountPasswordPolicy(ctx context.Context, params *iamsvc.GetAccountPasswordPolicyInput, optFns ...func(*iamsvc.Options)) (*iamsvc.GetAccountPasswordPolicyOutput, error)
}

// ec2APIClient is the narrow EC2 interface used by the compute scanner and
// the security group scanner.
type ec2APIClient interface {
	DescribeInstances(ctx context.Context, params *ec2svc.DescribeInstancesInput, optFns ...func(*ec2svc.Options)) (*ec2svc.DescribeInstancesOutput, error)
	DescribeInstanceAttribute(ctx context.Context, params *ec2svc.DescribeInstanceAttributeInput, optFns ...func(*ec2svc.Options)) (*ec2svc.DescribeInstanceAttributeOutput, error)
	DescribeVolumes(ctx context.Context, params *ec2svc.DescribeVolumesInput, optFns ...func(*ec2svc.Options)) (*ec2svc.DescribeVolumesOutput, error)
	DescribeSnapshots(ctx context.Context, params *ec2svc.DescribeSnapshotsInput, optFns ...func(*ec2svc.Options)) (*ec2svc.DescribeSnapshotsOutput, error)
	DescribeSnapshotAttribute(ctx context.Context, params *ec2svc.DescribeSnapshotAttributeInput, optFns ...func(*ec2svc.Options)) (*ec2svc.DescribeSnapshotAttributeOutput, error)
	DescribeSecurityGroups(ctx context.Context, params *ec2svc.DescribeSecurityGroupsInput, optFns ...func(*ec2svc.Options)) (*ec2svc.DescribeSecurityGroupsOutput, error)
}

// Clients bundles the AWS service clients used by all four scanners.
// Tests construct it directly with fake implementations.
type Clients struct {
	S3  s3APIClient
	IAM iamAPIClient
	EC2 ec2APIClient
}

// NewClients creates production AWS SDK clients from the given config.
func NewClients(cfg aws.Config) *Clients {
	return &Clients{
		S3:  s3svc.NewFromConfig(cfg),
		IAM: iamsvc.NewFromConfig(cfg),
		EC2: ec2svc.NewFromConfig(cfg),
	}
}
