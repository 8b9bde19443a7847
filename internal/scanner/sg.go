package scanner

import (
	"context"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	ec2svc "github.com/aws/aws-sdk-go-v2/service/ec2"

	"github.com/cloudops-labs/cis-auditor/internal/models"
	"github.com/cloudops-labs/cis-auditor/internal/rules"
)

const sgResourceType = "Security Group"

// openCIDR is the unrestricted IPv4 range that makes an inbound rule
// world-reachable.
const openCIDR = "0.0.0.0/0"

// SGScanner audits every security group's inbound rules for world-open CIDR
// ranges. The applicable CIS rule, and therefore the risk level, depends on
// the rule's starting port: SSH and RDP are HIGH, HTTP and HTTPS are MEDIUM,
// everything else (including "all ports") is LOW.
type SGScanner struct {
	client  ec2APIClient
	catalog rules.Catalog
}

// NewSGScanner returns an SGScanner using the given client and catalog.
func NewSGScanner(client ec2APIClient, catalog rules.Catalog) *SGScanner {
	return &SGScanner{client: client, catalog: catalog}
}

func (s *SGScanner) Family() string { return FamilySecurityGroups }

// Scan emits exactly one finding per (inbound rule, CIDR range) pair whose
// range is 0.0.0.0/0. A DescribeSecurityGroups failure is fatal.
func (s *SGScanner) Scan(ctx context.Context) ([]models.Finding, error) {
	out, err := s.client.DescribeSecurityGroups(ctx, &ec2svc.DescribeSecurityGroupsInput{})
	if err != nil {
		return nil, fmt.Errorf("describe security groups: %w", err)
	}

	var findings []models.Finding
	for _, sg := range out.SecurityGroups {
		groupID := aws.ToString(sg.GroupId)
		for _, permission := range sg.IpPermissions {
			for _, ipRange := range permission.IpRanges {
				if aws.ToString(ipRange.CidrIp) != openCIDR {
					continue
				}
				def := s.catalog.MustGet(rules.PortRuleKey(permission.FromPort))
				findings = append(findings, models.Finding{
					Resource:    groupID,
					Type:        sgResourceType,
					Risk:        def.Risk,
					Issue:       fmt.Sprintf("Open to the world on port %s", portLabel(permission.FromPort)),
					CISRule:     def.CISRule,
					Remediation: def.Remediation,
				})
			}
		}
	}
	return findings, nil
}

// portLabel renders the rule's starting port, or "ALL" when the rule has no
// specific port (all ports open).
func portLabel(port *int32) string {
	if port == nil {
		return "ALL"
	}
	return strconv.Itoa(int(*port))
}
