package scanner

import (
	"context"

	ec2svc "github.com/aws/aws-sdk-go-v2/service/ec2"
	iamsvc "github.com/aws/aws-sdk-go-v2/service/iam"
	s3svc "github.com/aws/aws-sdk-go-v2/service/s3"
)

// ── test doubles ──────────────────────────────────────────────────────────────
//
// Each fake delegates to an optional function field; a nil field returns an
// empty successful response so tests only stub the calls they care about.

type fakeS3Client struct {
	listBuckets         func(*s3svc.ListBucketsInput) (*s3svc.ListBucketsOutput, error)
	getBucketAcl        func(*s3svc.GetBucketAclInput) (*s3svc.GetBucketAclOutput, error)
	getBucketVersioning func(*s3svc.GetBucketVersioningInput) (*s3svc.GetBucketVersioningOutput, error)
	getBucketLogging    func(*s3svc.GetBucketLoggingInput) (*s3svc.GetBucketLoggingOutput, error)
	getBucketEncryption func(*s3svc.GetBucketEncryptionInput) (*s3svc.GetBucketEncryptionOutput, error)
}

func (f *fakeS3Client) ListBuckets(_ context.Context, params *s3svc.ListBucketsInput, _ ...func(*s3svc.Options)) (*s3svc.ListBucketsOutput, error) {
	if f.listBuckets == nil {
		return &s3svc.ListBucketsOutput{}, nil
	}
	return f.listBuckets(params)
}

func (f *fakeS3Client) GetBucketAcl(_ context.Context, params *s3svc.GetBucketAclInput, _ ...func(*s3svc.Options)) (*s3svc.GetBucketAclOutput, error) {
	if f.getBucketAcl == nil {
		return &s3svc.GetBucketAclOutput{}, nil
	}
	return f.getBucketAcl(params)
}

func (f *fakeS3Client) GetBucketVersioning(_ context.Context, params *s3svc.GetBucketVersioningInput, _ ...func(*s3svc.Options)) (*s3svc.GetBucketVersioningOutput, error) {
	if f.getBucketVersioning == nil {
		return &s3svc.GetBucketVersioningOutput{Status: "Enabled"}, nil
	}
	return f.getBucketVersioning(params)
}

func (f *fakeS3Client) GetBucketLogging(_ context.Context, params *s3svc.GetBucketLoggingInput, _ ...func(*s3svc.Options)) (*s3svc.GetBucketLoggingOutput, error) {
	if f.getBucketLogging == nil {
		return &s3svc.GetBucketLoggingOutput{}, nil
	}
	return f.getBucketLogging(params)
}

func (f *fakeS3Client) GetBucketEncryption(_ context.Context, params *s3svc.GetBucketEncryptionInput, _ ...func(*s3svc.Options)) (*s3svc.GetBucketEncryptionOutput, error) {
	if f.getBucketEncryption == nil {
		return &s3svc.GetBucketEncryptionOutput{}, nil
	}
	return f.getBucketEncryption(params)
}

type fakeIAMClient struct {
	listUsers                func(*iamsvc.ListUsersInput) (*iamsvc.ListUsersOutput, error)
	listMFADevices           func(*iamsvc.ListMFADevicesInput) (*iamsvc.ListMFADevicesOutput, error)
	listAccessKeys           func(*iamsvc.ListAccessKeysInput) (*iamsvc.ListAccessKeysOutput, error)
	listUserPolicies         func(*iamsvc.ListUserPoliciesInput) (*iamsvc.ListUserPoliciesOutput, error)
	getUserPolicy            func(*iamsvc.GetUserPolicyInput) (*iamsvc.GetUserPolicyOutput, error)
	listAttachedUserPolicies func(*iamsvc.ListAttachedUserPoliciesInput) (*iamsvc.ListAttachedUserPoliciesOutput, error)
	getPolicy                func(*iamsvc.GetPolicyInput) (*iamsvc.GetPolicyOutput, error)
	getPolicyVersion         func(*iamsvc.GetPolicyVersionInput) (*iamsvc.GetPolicyVersionOutput, error)
	getAccountPasswordPolicy func(*iamsvc.GetAccountPasswordPolicyInput) (*iamsvc.GetAccountPasswordPolicyOutput, error)
}

func (f *fakeIAMClient) ListUsers(_ context.Context, params *iamsvc.ListUsersInput, _ ...func(*iamsvc.Options)) (*iamsvc.ListUsersOutput, error) {
	if f.listUsers == nil {
		return &iamsvc.ListUsersOutput{}, nil
	}
	return f.listUsers(params)
}

func (f *fakeIAMClient) ListMFADevices(_ context.Context, params *iamsvc.ListMFADevicesInput, _ ...func(*iamsvc.Options)) (*iamsvc.ListMFADevicesOutput, error) {
	if f.listMFADevices == nil {
		return &iamsvc.ListMFADevicesOutput{}, nil
	}
	return f.listMFADevices(params)
}

func (f *fakeIAMClient) ListAccessKeys(_ context.Context, params *iamsvc.ListAccessKeysInput, _ ...func(*iamsvc.Options)) (*iamsvc.ListAccessKeysOutput, error) {
	if f.listAccessKeys == nil {
		return &iamsvc.ListAccessKeysOutput{}, nil
	}
	return f.listAccessKeys(params)
}

func (f *fakeIAMClient) ListUserPolicies(_ context.Context, params *iamsvc.ListUserPoliciesInput, _ ...func(*iamsvc.Options)) (*iamsvc.ListUserPoliciesOutput, error) {
	if f.listUserPolicies == nil {
		return &iamsvc.ListUserPoliciesOutput{}, nil
	}
	return f.listUserPolicies(params)
}

func (f *fakeIAMClient) GetUserPolicy(_ context.Context, params *iamsvc.GetUserPolicyInput, _ ...func(*iamsvc.Options)) (*iamsvc.GetUserPolicyOutput, error) {
	if f.getUserPolicy == nil {
		return &iamsvc.GetUserPolicyOutput{}, nil
	}
	return f.getUserPolicy(params)
}

func (f *fakeIAMClient) ListAttachedUserPolicies(_ context.Context, params *iamsvc.ListAttachedUserPoliciesInput, _ ...func(*iamsvc.Options)) (*iamsvc.ListAttachedUserPoliciesOutput, error) {
	if f.listAttachedUserPolicies == nil {
		return &iamsvc.ListAttachedUserPoliciesOutput{}, nil
	}
	return f.listAttachedUserPolicies(params)
}

func (f *fakeIAMClient) GetPolicy(_ context.Context, params *iamsvc.GetPolicyInput, _ ...func(*iamsvc.Options)) (*iamsvc.GetPolicyOutput, error) {
	if f.getPolicy == nil {
		return &iamsvc.GetPolicyOutput{}, nil
	}
	return f.getPolicy(params)
}

func (f *fakeIAMClient) GetPolicyVersion(_ context.Context, params *iamsvc.GetPolicyVersionInput, _ ...func(*iamsvc.Options)) (*iamsvc.GetPolicyVersionOutput, error) {
	if f.getPolicyVersion == nil {
		return &iamsvc.GetPolicyVersionOutput{}, nil
	}
	return f.getPolicyVersion(params)
}

func (f *fakeIAMClient) GetAccountPasswordPolicy(_ context.Context, params *iamsvc.GetAccountPasswordPolicyInput, _ ...func(*iamsvc.Options)) (*iamsvc.GetAccountPasswordPolicyOutput, error) {
	if f.getAccountPasswordPolicy == nil {
		return &iamsvc.GetAccountPasswordPolicyOutput{}, nil
	}
	return f.getAccountPasswordPolicy(params)
}

type fakeEC2Client struct {
	describeInstances         func(*ec2svc.DescribeInstancesInput) (*ec2svc.DescribeInstancesOutput, error)
	describeInstanceAttribute func(*ec2svc.DescribeInstanceAttributeInput) (*ec2svc.DescribeInstanceAttributeOutput, error)
	describeVolumes           func(*ec2svc.DescribeVolumesInput) (*ec2svc.DescribeVolumesOutput, error)
	describeSnapshots         func(*ec2svc.DescribeSnapshotsInput) (*ec2svc.DescribeSnapshotsOutput, error)
	describeSnapshotAttribute func(*ec2svc.DescribeSnapshotAttributeInput) (*ec2svc.DescribeSnapshotAttributeOutput, error)
	describeSecurityGroups    func(*ec2svc.DescribeSecurityGroupsInput) (*ec2svc.DescribeSecurityGroupsOutput, error)
}

func (f *fakeEC2Client) DescribeInstances(_ context.Context, params *ec2svc.DescribeInstancesInput, _ ...func(*ec2svc.Options)) (*ec2svc.DescribeInstancesOutput, error) {
	if f.describeInstances == nil {
		return &ec2svc.DescribeInstancesOutput{}, nil
	}
	return f.describeInstances(params)
}

func (f *fakeEC2Client) DescribeInstanceAttribute(_ context.Context, params *ec2svc.DescribeInstanceAttributeInput, _ ...func(*ec2svc.Options)) (*ec2svc.DescribeInstanceAttributeOutput, error) {
	if f.describeInstanceAttribute == nil {
		return &ec2svc.DescribeInstanceAttributeOutput{}, nil
	}
	return f.describeInstanceAttribute(params)
}

func (f *fakeEC2Client) DescribeVolumes(_ context.Context, params *ec2svc.DescribeVolumesInput, _ ...func(*ec2svc.Options)) (*ec2svc.DescribeVolumesOutput, error) {
	if f.describeVolumes == nil {
		return &ec2svc.DescribeVolumesOutput{}, nil
	}
	return f.describeVolumes(params)
}

func (f *fakeEC2Client) DescribeSnapshots(_ context.Context, params *ec2svc.DescribeSnapshotsInput, _ ...func(*ec2svc.Options)) (*ec2svc.DescribeSnapshotsOutput, error) {
	if f.describeSnapshots == nil {
		return &ec2svc.DescribeSnapshotsOutput{}, nil
	}
	return f.describeSnapshots(params)
}

func (f *fakeEC2Client) DescribeSnapshotAttribute(_ context.Context, params *ec2svc.DescribeSnapshotAttributeInput, _ ...func(*ec2svc.Options)) (*ec2svc.DescribeSnapshotAttributeOutput, error) {
	if f.describeSnapshotAttribute == nil {
		return &ec2svc.DescribeSnapshotAttributeOutput{}, nil
	}
	return f.describeSnapshotAttribute(params)
}

func (f *fakeEC2Client) DescribeSecurityGroups(_ context.Context, params *ec2svc.DescribeSecurityGroupsInput, _ ...func(*ec2svc.Options)) (*ec2svc.DescribeSecurityGroupsOutput, error) {
	if f.describeSecurityGroups == nil {
		return &ec2svc.DescribeSecurityGroupsOutput{}, nil
	}
	return f.describeSecurityGroups(params)
}
