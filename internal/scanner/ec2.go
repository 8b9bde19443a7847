package scanner

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	ec2svc "github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/sirupsen/logrus"

	"github.com/cloudops-labs/cis-auditor/internal/models"
	"github.com/cloudops-labs/cis-auditor/internal/rules"
)

const (
	ec2InstanceResourceType = "EC2 Instance"
	ec2VolumeResourceType   = "EC2 Volume"
	ec2SnapshotResourceType = "EC2 Snapshot"
)

// EC2Scanner audits every EC2 instance for public IP associations, disabled
// termination protection, and unencrypted attached volumes, plus every
// self-owned snapshot for public create-volume permissions.
type EC2Scanner struct {
	client  ec2APIClient
	catalog rules.Catalog
}

// NewEC2Scanner returns an EC2Scanner using the given client and catalog.
func NewEC2Scanner(client ec2APIClient, catalog rules.Catalog) *EC2Scanner {
	return &EC2Scanner{client: client, catalog: catalog}
}

func (s *EC2Scanner) Family() string { return FamilyEC2 }

// Scan runs the instance checks for every instance in every reservation,
// then the account-wide public snapshot check. DescribeInstances and
// DescribeSnapshots failures are fatal; per-instance and per-snapshot
// attribute lookups are logged and skipped on error.
func (s *EC2Scanner) Scan(ctx context.Context) ([]models.Finding, error) {
	out, err := s.client.DescribeInstances(ctx, &ec2svc.DescribeInstancesInput{})
	if err != nil {
		return nil, fmt.Errorf("describe EC2 instances: %w", err)
	}

	var findings []models.Finding
	for _, reservation := range out.Reservations {
		for _, instance := range reservation.Instances {
			instanceID := aws.ToString(instance.InstanceId)

			findings = append(findings, s.checkPublicIP(instanceID, instance)...)

			found, err := s.checkTerminationProtection(ctx, instanceID)
			if err != nil {
				logrus.WithError(err).WithField("instance", instanceID).Warn("skipping termination protection check")
			} else {
				findings = append(findings, found...)
			}

			findings = append(findings, s.checkVolumeEncryption(ctx, instanceID, instance)...)
		}
	}

	snapshotFindings, err := s.scanSnapshots(ctx)
	if err != nil {
		return nil, err
	}
	findings = append(findings, snapshotFindings...)
	return findings, nil
}

// checkPublicIP emits one finding per network interface that has an
// associated public address.
func (s *EC2Scanner) checkPublicIP(instanceID string, instance ec2types.Instance) []models.Finding {
	def := s.catalog.MustGet(rules.EC2PublicIP)
	var findings []models.Finding
	for _, iface := range instance.NetworkInterfaces {
		if iface.Association == nil || aws.ToString(iface.Association.PublicIp) == "" {
			continue
		}
		findings = append(findings, models.Finding{
			Resource:    instanceID,
			Type:        ec2InstanceResourceType,
			Risk:        def.Risk,
			Issue:       "Instance has public IP",
			CISRule:     def.CISRule,
			Remediation: def.Remediation,
		})
	}
	return findings
}

// checkTerminationProtection flags the instance when the
// disableApiTermination attribute is false.
func (s *EC2Scanner) checkTerminationProtection(ctx context.Context, instanceID string) ([]models.Finding, error) {
	out, err := s.client.DescribeInstanceAttribute(ctx, &ec2svc.DescribeInstanceAttributeInput{
		InstanceId: aws.String(instanceID),
		Attribute:  ec2types.InstanceAttributeNameDisableApiTermination,
	})
	if err != nil {
		return nil, err
	}
	if out.DisableApiTermination != nil && aws.ToBool(out.DisableApiTermination.Value) {
		return nil, nil
	}
	def := s.catalog.MustGet(rules.EC2TerminationProtection)
	return []models.Finding{{
		Resource:    instanceID,
		Type:        ec2InstanceResourceType,
		Risk:        def.Risk,
		Issue:       "Instance termination protection is not enabled",
		CISRule:     def.CISRule,
		Remediation: def.Remediation,
	}}, nil
}

// checkVolumeEncryption inspects each EBS-backed block device and flags
// unencrypted volumes. The resource identifier is "<instanceId> - <volumeId>"
// so one instance can carry several volume findings. Volume lookup errors
// are logged per volume and do not stop the remaining devices.
func (s *EC2Scanner) checkVolumeEncryption(ctx context.Context, instanceID string, instance ec2types.Instance) []models.Finding {
	def := s.catalog.MustGet(rules.EC2UnencryptedVolumes)
	var findings []models.Finding
	for _, device := range instance.BlockDeviceMappings {
		if device.Ebs == nil {
			continue
		}
		volumeID := aws.ToString(device.Ebs.VolumeId)
		out, err := s.client.DescribeVolumes(ctx, &ec2svc.DescribeVolumesInput{
			VolumeIds: []string{volumeID},
		})
		if err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{
				"instance": instanceID,
				"volume":   volumeID,
			}).Warn("skipping volume encryption check")
			continue
		}
		if len(out.Volumes) == 0 || aws.ToBool(out.Volumes[0].Encrypted) {
			continue
		}
		findings = append(findings, models.Finding{
			Resource:    fmt.Sprintf("%s - %s", instanceID, volumeID),
			Type:        ec2VolumeResourceType,
			Risk:        def.Risk,
			Issue:       "Volume is not encrypted",
			CISRule:     def.CISRule,
			Remediation: def.Remediation,
		})
	}
	return findings
}

// scanSnapshots lists all self-owned snapshots and flags any whose
// create-volume permission grants the special "all" group. The listing
// itself is fatal on error; per-snapshot attribute lookups are not.
func (s *EC2Scanner) scanSnapshots(ctx context.Context) ([]models.Finding, error) {
	out, err := s.client.DescribeSnapshots(ctx, &ec2svc.DescribeSnapshotsInput{
		OwnerIds: []string{"self"},
	})
	if err != nil {
		return nil, fmt.Errorf("describe EC2 snapshots: %w", err)
	}

	def := s.catalog.MustGet(rules.EC2PublicSnapshot)
	var findings []models.Finding
	for _, snapshot := range out.Snapshots {
		snapshotID := aws.ToString(snapshot.SnapshotId)
		attrs, err := s.client.DescribeSnapshotAttribute(ctx, &ec2svc.DescribeSnapshotAttributeInput{
			SnapshotId: aws.String(snapshotID),
			Attribute:  ec2types.SnapshotAttributeNameCreateVolumePermission,
		})
		if err != nil {
			logrus.WithError(err).WithField("snapshot", snapshotID).Warn("skipping snapshot permission check")
			continue
		}
		for _, permission := range attrs.CreateVolumePermissions {
			if permission.Group != ec2types.PermissionGroupAll {
				continue
			}
			findings = append(findings, models.Finding{
				Resource:    snapshotID,
				Type:        ec2SnapshotResourceType,
				Risk:        def.Risk,
				Issue:       "Snapshot is publicly accessible",
				CISRule:     def.CISRule,
				Remediation: def.Remediation,
			})
			break
		}
	}
	return findings, nil
}
