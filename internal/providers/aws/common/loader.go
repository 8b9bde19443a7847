// Package common loads AWS credentials and resolves the account identity
// the audit runs against. It is the single entry point for AWS credential
// management; everything else receives a ready aws.Config.
package common

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

// ProfileConfig is a resolved AWS profile: the loaded SDK configuration
// plus the account identity it authenticates as.
type ProfileConfig struct {
	// ProfileName is the name from ~/.aws/credentials or "default".
	ProfileName string

	// AccountID is the AWS account ID resolved via STS.
	AccountID string

	// Region is the home region for this profile.
	Region string

	// Config is the fully loaded AWS SDK v2 configuration. Construct
	// service clients from it.
	Config aws.Config
}

// STSClient is the subset of STS used to resolve the caller identity.
type STSClient interface {
	GetCallerIdentity(
		ctx context.Context,
		params *sts.GetCallerIdentityInput,
		optFns ...func(*sts.Options),
	) (*sts.GetCallerIdentityOutput, error)
}

// STSFactory creates the STS client used for identity resolution.
// Swap it in tests to avoid real AWS calls.
type STSFactory func(cfg aws.Config) STSClient

// Loader reads credentials from the standard AWS shared config files
// (~/.aws/config and ~/.aws/credentials) via the AWS SDK v2.
type Loader struct {
	newSTS STSFactory
}

// NewLoader returns a Loader backed by the real AWS SDK.
func NewLoader() *Loader {
	return &Loader{newSTS: func(cfg aws.Config) STSClient { return sts.NewFromConfig(cfg) }}
}

// NewLoaderWithFactory returns a Loader that uses f for its STS client.
func NewLoaderWithFactory(f STSFactory) *Loader {
	return &Loader{newSTS: f}
}

// LoadProfile loads the AWS SDK config for the named profile and resolves
// the account ID behind it. Pass an empty string for the default profile.
func (l *Loader) LoadProfile(ctx context.Context, profile string) (*ProfileConfig, error) {
	opts := []func(*awsconfig.LoadOptions) error{}
	if profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(profile))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS profile %q: %w", profileDisplayName(profile), err)
	}

	// Fall back to us-east-1 when the profile has no region configured so
	// that all SDK clients can be constructed successfully.
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}

	out, err := l.newSTS(cfg).GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return nil, fmt.Errorf("resolve account ID for profile %q: %w", profileDisplayName(profile), err)
	}
	if out.Account == nil {
		return nil, fmt.Errorf("STS GetCallerIdentity returned nil account")
	}

	return &ProfileConfig{
		ProfileName: profileDisplayName(profile),
		AccountID:   aws.ToString(out.Account),
		Region:      cfg.Region,
		Config:      cfg,
	}, nil
}

// profileDisplayName returns a human-readable profile identifier. An empty
// string (the default profile) is shown as "default".
func profileDisplayName(profile string) string {
	if profile == "" {
		return "default"
	}
	return profile
}

// DiscoverProfileNames reads ~/.aws/credentials and ~/.aws/config and
// returns the deduplicated list of all profile names found, used by the
// doctor command to report what is available.
func DiscoverProfileNames() ([]string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}

	// ~/.aws/credentials: section headers are the bare profile name.
	credProfiles, err := parseProfilesFromFile(filepath.Join(home, ".aws", "credentials"), false)
	if err != nil {
		return nil, err
	}

	// ~/.aws/config: non-default profiles are prefixed with "profile ".
	cfgProfiles, err := parseProfilesFromFile(filepath.Join(home, ".aws", "config"), true)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var all []string
	for _, name := range append(credProfiles, cfgProfiles...) {
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		all = append(all, name)
	}
	return all, nil
}

// parseProfilesFromFile scans path for INI section headers ([...]) and
// returns the profile name from each header. When stripProfilePrefix is
// true, the "profile " prefix used in ~/.aws/config is removed. A missing
// file yields nil without an error.
func parseProfilesFromFile(path string, stripProfilePrefix bool) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var profiles []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if !strings.HasPrefix(line, "[") || !strings.HasSuffix(line, "]") {
			continue
		}

		name := line[1 : len(line)-1]
		if stripProfilePrefix && name != "default" {
			name = strings.TrimPrefix(name, "profile ")
		}
		profiles = append(profiles, strings.TrimSpace(name))
	}

	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan %s: %w", path, err)
	}
	return profiles, nil
}
