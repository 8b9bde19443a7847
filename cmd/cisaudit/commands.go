package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/cloudops-labs/cis-auditor/internal/alert"
	"github.com/cloudops-labs/cis-auditor/internal/config"
	"github.com/cloudops-labs/cis-auditor/internal/jira"
	"github.com/cloudops-labs/cis-auditor/internal/models"
	"github.com/cloudops-labs/cis-auditor/internal/output"
	"github.com/cloudops-labs/cis-auditor/internal/providers/aws/common"
	"github.com/cloudops-labs/cis-auditor/internal/report"
	"github.com/cloudops-labs/cis-auditor/internal/rules"
	"github.com/cloudops-labs/cis-auditor/internal/scanner"
	"github.com/cloudops-labs/cis-auditor/internal/server"
	"github.com/cloudops-labs/cis-auditor/internal/version"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "cisaudit",
		Short: "Audit an AWS account against the CIS Foundations Benchmark",
	}
	root.PersistentFlags().String("profile", "", "AWS profile name (default: uses environment / default profile)")
	root.AddCommand(newServeCmd())
	root.AddCommand(newScanCmd())
	root.AddCommand(newReportCmd())
	root.AddCommand(newJiraCmd())
	root.AddCommand(newDoctorCmd())
	root.AddCommand(newVersionCmd())
	return root
}

// newRegistry builds the scanner registry over one loaded AWS profile.
// All four scanners share one client set and one rule catalog.
func newRegistry(pc *common.ProfileConfig) *scanner.Registry {
	clients := scanner.NewClients(pc.Config)
	catalog := rules.NewCatalog()
	return scanner.NewRegistry(
		scanner.NewS3Scanner(clients.S3, catalog),
		scanner.NewIAMScanner(clients.IAM, catalog),
		scanner.NewEC2Scanner(clients.EC2, catalog),
		scanner.NewSGScanner(clients.EC2, catalog),
	)
}

// newDispatcher wires the alert channels from config. Channels without the
// minimum settings are left out entirely.
func newDispatcher(cfg config.Config) *alert.Dispatcher {
	var email alert.EmailSender
	if cfg.Email.SMTPServer != "" {
		email = alert.NewSMTPSender(cfg.Email)
	}
	var slack alert.SlackSender
	if cfg.Slack.Webhook != "" {
		slack = alert.NewWebhookSender(cfg.Slack.Webhook)
	}
	d := alert.NewDispatcher(email, slack)
	d.PropagateErrors = cfg.Alerts.PropagateErrors
	return d
}

func loadProfile(ctx context.Context, cmd *cobra.Command) (*common.ProfileConfig, error) {
	profile, _ := cmd.Flags().GetString("profile")
	pc, err := common.NewLoader().LoadProfile(ctx, profile)
	if err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{
		"profile": pc.ProfileName,
		"account": pc.AccountID,
		"region":  pc.Region,
	}).Info("loaded AWS profile")
	return pc, nil
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the audit HTTP service",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := cfg.ValidateForServe(); err != nil {
				return err
			}

			pc, err := loadProfile(cmd.Context(), cmd)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv := server.New(*cfg, newRegistry(pc), newDispatcher(*cfg))
			return srv.ListenAndServe(ctx)
		},
	}
}

func newScanCmd() *cobra.Command {
	var (
		format    string
		sendAlert bool
	)

	cmd := &cobra.Command{
		Use:   "scan <s3|iam|ec2|security-groups|all>",
		Short: "Scan one resource family (or all) and print the findings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			pc, err := loadProfile(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			registry := newRegistry(pc)

			family := args[0]
			var findings []models.Finding
			if family == "all" {
				findings, err = registry.ScanAll(cmd.Context())
			} else {
				sc, ok := registry.Scanner(family)
				if !ok {
					return fmt.Errorf("unknown resource family %q (choose from %v or \"all\")",
						family, registry.Families())
				}
				findings, err = sc.Scan(cmd.Context())
			}
			if err != nil {
				return fmt.Errorf("scan failed: %w", err)
			}

			if sendAlert {
				if err := newDispatcher(*cfg).Dispatch(cmd.Context(), findings); err != nil {
					return fmt.Errorf("alert dispatch failed: %w", err)
				}
			}

			rep := models.ScanReport{
				ReportID:    uuid.NewString(),
				GeneratedAt: time.Now().UTC(),
				Family:      family,
				Findings:    findings,
			}
			return printReport(cmd, rep, format)
		},
	}

	cmd.Flags().StringVar(&format, "format", "table", "Output format: table, json, or yaml")
	cmd.Flags().BoolVar(&sendAlert, "alert", false, "Dispatch findings to the configured alert channels")
	return cmd
}

func newReportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Scan every resource family and print the text report",
		RunE: func(cmd *cobra.Command, args []string) error {
			pc, err := loadProfile(cmd.Context(), cmd)
			if err != nil {
				return err
			}

			findings, err := newRegistry(pc).ScanAll(cmd.Context())
			if err != nil {
				return fmt.Errorf("scan failed: %w", err)
			}

			fmt.Fprint(cmd.OutOrStdout(), report.Generate(findings))
			return nil
		},
	}
}

func newJiraCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jira",
		Short: "Jira integration commands",
	}
	cmd.AddCommand(newJiraSyncCmd())
	return cmd
}

func newJiraSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Scan all families and file Jira tickets for HIGH and MEDIUM findings",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := cfg.ValidateForJira(); err != nil {
				return err
			}

			pc, err := loadProfile(cmd.Context(), cmd)
			if err != nil {
				return err
			}

			findings, err := newRegistry(pc).ScanAll(cmd.Context())
			if err != nil {
				return fmt.Errorf("scan failed: %w", err)
			}

			created := jira.NewClient(cfg.Jira).SyncFindings(cmd.Context(), findings)
			fmt.Fprintf(cmd.OutOrStdout(), "Created %d Jira ticket(s) from %d finding(s)\n",
				created, len(findings))
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprint(cmd.OutOrStdout(), version.Info())
		},
	}
}

// printReport renders rep to stdout in the requested format.
func printReport(cmd *cobra.Command, rep models.ScanReport, format string) error {
	w := cmd.OutOrStdout()
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	case "yaml":
		data, err := yaml.Marshal(rep)
		if err != nil {
			return fmt.Errorf("marshal report: %w", err)
		}
		_, err = w.Write(data)
		return err
	case "table":
		fmt.Fprintf(w, "Family: %-16s  Findings: %d\n\n", rep.Family, len(rep.Findings))
		output.RenderTable(w, rep.Findings, output.TableOptions{IncludeRule: true})
		return nil
	default:
		return fmt.Errorf("unknown output format %q (choose table, json, or yaml)", format)
	}
}
