package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/cloudops-labs/cis-auditor/internal/config"
	"github.com/cloudops-labs/cis-auditor/internal/providers/aws/common"
)

// DoctorResult is the structured output of cisaudit doctor. It can be
// serialised to JSON via --format=json or rendered as a human-readable
// table (default).
type DoctorResult struct {
	AWS struct {
		Profile     string   `json:"profile,omitempty"`
		Credentials bool     `json:"credentials_ok"`
		AccountID   string   `json:"account_id,omitempty"`
		Profiles    []string `json:"profiles,omitempty"`
		Error       string   `json:"error,omitempty"`
	} `json:"aws"`

	Config struct {
		Loaded  bool     `json:"loaded"`
		ServeOK bool     `json:"serve_ok"`
		JiraOK  bool     `json:"jira_ok"`
		Errors  []string `json:"errors,omitempty"`
	} `json:"config"`

	OverallHealthy bool `json:"overall_healthy"`
}

// profileLoader is the subset of the AWS loader used by doctor, split out
// so tests can inject a fake.
type profileLoader interface {
	LoadProfile(ctx context.Context, profile string) (*common.ProfileConfig, error)
}

func newDoctorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "doctor",
		Short:         "Run environment diagnostics",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("format")
			profile, _ := cmd.Flags().GetString("profile")
			result, err := runDoctor(
				cmd.Context(),
				common.NewLoader(),
				cmd.OutOrStdout(),
				format,
				profile,
			)
			if err != nil {
				// Rendering failure, let Cobra/main handle it.
				return err
			}
			if !result.OverallHealthy {
				// Exit directly so no error text reaches main.go's
				// fmt.Fprintln(os.Stderr, err) path.
				os.Exit(1)
			}
			return nil
		},
	}
	cmd.Flags().String("format", "table", `Output format: "table" or "json"`)
	return cmd
}

// runDoctor collects all diagnostic results, renders them to w in the
// requested format, and returns the result. The returned error covers only
// rendering failures; callers must inspect result.OverallHealthy to learn
// whether the environment is usable.
func runDoctor(ctx context.Context, loader profileLoader, w io.Writer, format, profile string) (DoctorResult, error) {
	result := collectDoctorResult(ctx, loader, profile)

	switch format {
	case "json":
		if err := json.NewEncoder(w).Encode(result); err != nil {
			return result, fmt.Errorf("encode doctor result: %w", err)
		}
	default:
		renderDoctorTable(result, w)
	}

	return result, nil
}

// collectDoctorResult runs all environment checks and populates a
// DoctorResult. It performs no rendering.
func collectDoctorResult(ctx context.Context, loader profileLoader, profile string) DoctorResult {
	var result DoctorResult

	// AWS: credentials and STS identity. An empty profile string selects
	// the default credential chain.
	if profile != "" {
		result.AWS.Profile = profile
	}
	pc, err := loader.LoadProfile(ctx, profile)
	if err != nil {
		result.AWS.Error = err.Error()
	} else {
		result.AWS.Credentials = true
		result.AWS.AccountID = pc.AccountID
	}
	if names, discoverErr := common.DiscoverProfileNames(); discoverErr == nil {
		result.AWS.Profiles = names
	}

	// Config: load from file/env, then check each command's requirements.
	// A config usable for jira but not serve (or vice versa) is reported
	// per-surface rather than as a single pass/fail.
	cfg, err := config.Load()
	if err != nil {
		result.Config.Errors = []string{err.Error()}
	} else {
		result.Config.Loaded = true
		if serveErr := cfg.ValidateForServe(); serveErr != nil {
			result.Config.Errors = append(result.Config.Errors, serveErr.Error())
		} else {
			result.Config.ServeOK = true
		}
		if jiraErr := cfg.ValidateForJira(); jiraErr != nil {
			result.Config.Errors = append(result.Config.Errors, jiraErr.Error())
		} else {
			result.Config.JiraOK = true
		}
	}

	result.OverallHealthy = result.AWS.Credentials && result.Config.Loaded

	return result
}

// renderDoctorTable writes the human-readable diagnostic output to w.
func renderDoctorTable(result DoctorResult, w io.Writer) {
	fmt.Fprintln(w, "Environment Diagnostics")

	if result.AWS.Profile != "" {
		fmt.Fprintf(w, "\nAWS (profile: %s):\n", result.AWS.Profile)
	} else {
		fmt.Fprintln(w, "\nAWS:")
	}
	if !result.AWS.Credentials {
		doctorPrint(w, "Credentials", "FAIL", result.AWS.Error)
		doctorPrint(w, "STS Identity", "FAIL", "skipped")
	} else {
		doctorPrint(w, "Credentials", "OK", "")
		doctorPrint(w, "STS Identity", "OK", "Account: "+result.AWS.AccountID)
	}
	if len(result.AWS.Profiles) > 0 {
		doctorPrint(w, "Profiles", "OK", fmt.Sprintf("%d configured", len(result.AWS.Profiles)))
	}

	fmt.Fprintln(w, "\nConfig:")
	if !result.Config.Loaded {
		doctorPrint(w, "Loaded", "FAIL", firstOr(result.Config.Errors, "unknown error"))
		return
	}
	doctorPrint(w, "Loaded", "OK", "")
	doctorBool(w, "Serve credentials", result.Config.ServeOK)
	doctorBool(w, "Jira settings", result.Config.JiraOK)
	for _, e := range result.Config.Errors {
		fmt.Fprintf(w, "    - %s\n", e)
	}
}

// doctorPrint writes a single diagnostic check line to w. When detail is
// non-empty it is appended in parentheses.
func doctorPrint(w io.Writer, label, status, detail string) {
	if detail != "" {
		fmt.Fprintf(w, "  %s: %s (%s)\n", label, status, detail)
	} else {
		fmt.Fprintf(w, "  %s: %s\n", label, status)
	}
}

func doctorBool(w io.Writer, label string, ok bool) {
	status := "OK"
	if !ok {
		status = "MISSING"
	}
	doctorPrint(w, label, status, "")
}

func firstOr(items []string, fallback string) string {
	if len(items) > 0 {
		return items[0]
	}
	return fallback
}
