// Package jira creates tracking tickets for audit findings through the
// Jira Cloud REST API.
package jira

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/cloudops-labs/cis-auditor/internal/config"
	"github.com/cloudops-labs/cis-auditor/internal/models"
	"github.com/cloudops-labs/cis-auditor/internal/report"
)

const requestTimeout = 10 * time.Second

// Client talks to one Jira Cloud site using basic auth with an API token.
type Client struct {
	baseURL    string
	email      string
	apiToken   string
	projectKey string
	httpClient *http.Client
}

// NewClient builds a Client for the configured Atlassian site. The domain
// is the site prefix, not a full URL.
func NewClient(cfg config.JiraConfig) *Client {
	return &Client{
		baseURL:    fmt.Sprintf("https://%s.atlassian.net", cfg.Domain),
		email:      cfg.Email,
		apiToken:   cfg.APIToken,
		projectKey: cfg.ProjectKey,
		httpClient: &http.Client{Timeout: requestTimeout},
	}
}

type issuePayload struct {
	Fields issueFields `json:"fields"`
}

type issueFields struct {
	Project   projectRef `json:"project"`
	Summary   string     `json:"summary"`
	Desc      string     `json:"description"`
	IssueType namedRef   `json:"issuetype"`
	Priority  namedRef   `json:"priority"`
}

type projectRef struct {
	Key string `json:"key"`
}

type namedRef struct {
	Name string `json:"name"`
}

type issueCreated struct {
	Key string `json:"key"`
}

// CreateTicket files one Jira issue for the finding and returns the issue
// key. HIGH findings get High priority, everything else Medium.
func (c *Client) CreateTicket(ctx context.Context, f models.Finding) (string, error) {
	priority := "Medium"
	if f.Risk == models.RiskHigh {
		priority = "High"
	}

	payload := issuePayload{Fields: issueFields{
		Project:   projectRef{Key: c.projectKey},
		Summary:   fmt.Sprintf("[%s] %s: %s", f.Risk, f.Resource, f.Issue),
		Desc:      report.Format(f),
		IssueType: namedRef{Name: "Task"},
		Priority:  namedRef{Name: priority},
	}}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal issue payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/rest/api/2/issue", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build issue request: %w", err)
	}
	req.SetBasicAuth(c.email, c.apiToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("create jira issue: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", fmt.Errorf("create jira issue: status %d: %s", resp.StatusCode, respBody)
	}

	var created issueCreated
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return "", fmt.Errorf("decode issue response: %w", err)
	}
	return created.Key, nil
}

// SyncFindings files one ticket per HIGH or MEDIUM finding. LOW findings
// are not worth a ticket. A failed create is logged and the sync moves on;
// the returned count is the number of tickets actually created.
func (c *Client) SyncFindings(ctx context.Context, findings []models.Finding) int {
	created := 0
	for _, f := range findings {
		if f.Risk == models.RiskLow {
			continue
		}
		key, err := c.CreateTicket(ctx, f)
		if err != nil {
			logrus.WithError(err).WithField("resource", f.Resource).Error("jira ticket creation failed")
			continue
		}
		logrus.WithFields(logrus.Fields{"key": key, "resource": f.Resource}).Info("created jira ticket")
		created++
	}
	return created
}
