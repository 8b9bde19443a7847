// Package config loads the application configuration.
//
// Two equally valid sources are supported: a config.yaml file (working
// directory or /etc/cis-auditor) and environment variables, one per key with
// the CISAUDIT_ prefix and dots replaced by underscores (e.g.
// CISAUDIT_SLACK_WEBHOOK overrides slack.webhook). Environment variables
// take precedence over the file.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment variable overrides.
const EnvPrefix = "CISAUDIT"

// Config is the top-level application configuration. It is loaded once at
// startup and treated as read-only afterwards; concurrent reads need no
// synchronization.
type Config struct {
	Auth   AuthConfig   `mapstructure:"auth"`
	Server ServerConfig `mapstructure:"server"`
	Email  EmailConfig  `mapstructure:"email"`
	Slack  SlackConfig  `mapstructure:"slack"`
	Jira   JiraConfig   `mapstructure:"jira"`
	Alerts AlertsConfig `mapstructure:"alerts"`
}

// AuthConfig holds the basic-auth credentials guarding the HTTP endpoints.
type AuthConfig struct {
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	// Listen is the address the HTTP server binds, e.g. ":8080".
	Listen string `mapstructure:"listen"`
}

// EmailConfig holds the SMTP transport settings for the email channel.
type EmailConfig struct {
	SMTPServer string `mapstructure:"smtp_server"`
	SMTPPort   int    `mapstructure:"smtp_port"`
	Username   string `mapstructure:"username"`
	Password   string `mapstructure:"password"`
	Sender     string `mapstructure:"sender"`
	Recipient  string `mapstructure:"recipient"`
}

// SlackConfig holds the incoming-webhook URL for the chat channel.
// An empty webhook disables Slack alerts with a logged warning.
type SlackConfig struct {
	Webhook string `mapstructure:"webhook"`
}

// JiraConfig holds the issue-tracker connection settings.
// Domain is the Atlassian site name, not a full URL.
type JiraConfig struct {
	Domain     string `mapstructure:"domain"`
	Email      string `mapstructure:"email"`
	APIToken   string `mapstructure:"api_token"`
	ProjectKey string `mapstructure:"project_key"`
}

// AlertsConfig controls dispatch behavior.
type AlertsConfig struct {
	// PropagateErrors, when true, makes channel delivery failures surface
	// as a request-level error after all channels have been attempted.
	// When false, failures are logged and swallowed.
	PropagateErrors bool `mapstructure:"propagate_errors"`
}

// Load reads configuration from config.yaml and the environment.
// A missing config file is not an error: every key can come from the
// environment instead.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/cis-auditor")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.listen", ":8080")
	v.SetDefault("email.smtp_port", 587)
	v.SetDefault("alerts.propagate_errors", false)

	// Keys that only arrive via environment variables are invisible to
	// Unmarshal unless registered; BindEnv makes every known key explicit.
	for _, key := range allKeys() {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind env for %q: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal configuration: %w", err)
	}
	return &cfg, nil
}

// allKeys lists every recognized configuration key.
func allKeys() []string {
	return []string{
		"auth.username", "auth.password",
		"server.listen",
		"email.smtp_server", "email.smtp_port", "email.username",
		"email.password", "email.sender", "email.recipient",
		"slack.webhook",
		"jira.domain", "jira.email", "jira.api_token", "jira.project_key",
		"alerts.propagate_errors",
	}
}

// ValidateForServe checks the keys the HTTP service cannot run without.
func (c *Config) ValidateForServe() error {
	if c.Auth.Username == "" || c.Auth.Password == "" {
		return errors.New("auth.username and auth.password must be set")
	}
	return nil
}

// ValidateForJira checks the keys the ticket batch job cannot run without.
func (c *Config) ValidateForJira() error {
	var missing []string
	if c.Jira.Domain == "" {
		missing = append(missing, "jira.domain")
	}
	if c.Jira.Email == "" {
		missing = append(missing, "jira.email")
	}
	if c.Jira.APIToken == "" {
		missing = append(missing, "jira.api_token")
	}
	if c.Jira.ProjectKey == "" {
		missing = append(missing, "jira.project_key")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing Jira configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}
