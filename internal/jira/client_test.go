package jira

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cloudops-labs/cis-auditor/internal/config"
	"github.com/cloudops-labs/cis-auditor/internal/models"
)

// testClient points a Client at the httptest server instead of Atlassian.
func testClient(srv *httptest.Server) *Client {
	c := NewClient(config.JiraConfig{
		Domain:     "example",
		Email:      "auditor@example.com",
		APIToken:   "token-123",
		ProjectKey: "SEC",
	})
	c.baseURL = srv.URL
	return c
}

func highFinding() models.Finding {
	return models.Finding{
		Resource: "open-bucket", Type: "S3 Bucket", Risk: models.RiskHigh,
		Issue: "Bucket is publicly accessible", CISRule: "CIS 2.1.5",
		Remediation: "Block public access",
	}
}

func TestCreateTicket(t *testing.T) {
	var gotPath, gotUser, gotToken string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotUser, gotToken, _ = r.BasicAuth()
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `{"id":"10001","key":"SEC-42"}`)
	}))
	defer srv.Close()

	key, err := testClient(srv).CreateTicket(context.Background(), highFinding())
	if err != nil {
		t.Fatalf("CreateTicket() error = %v", err)
	}
	if key != "SEC-42" {
		t.Errorf("key = %q, want SEC-42", key)
	}
	if gotPath != "/rest/api/2/issue" {
		t.Errorf("path = %q", gotPath)
	}
	if gotUser != "auditor@example.com" || gotToken != "token-123" {
		t.Errorf("basic auth = %q / %q", gotUser, gotToken)
	}

	var payload struct {
		Fields struct {
			Project   struct{ Key string }  `json:"project"`
			Summary   string                `json:"summary"`
			Desc      string                `json:"description"`
			IssueType struct{ Name string } `json:"issuetype"`
			Priority  struct{ Name string } `json:"priority"`
		} `json:"fields"`
	}
	if err := json.Unmarshal(gotBody, &payload); err != nil {
		t.Fatalf("request body is not valid JSON: %v", err)
	}
	if payload.Fields.Project.Key != "SEC" {
		t.Errorf("project key = %q", payload.Fields.Project.Key)
	}
	if payload.Fields.IssueType.Name != "Task" {
		t.Errorf("issue type = %q", payload.Fields.IssueType.Name)
	}
	if payload.Fields.Priority.Name != "High" {
		t.Errorf("priority = %q, want High for a HIGH finding", payload.Fields.Priority.Name)
	}
	if !strings.Contains(payload.Fields.Summary, "open-bucket") {
		t.Errorf("summary should name the resource, got %q", payload.Fields.Summary)
	}
	if !strings.Contains(payload.Fields.Desc, "CIS Rule: CIS 2.1.5") {
		t.Errorf("description should carry the finding detail, got %q", payload.Fields.Desc)
	}
}

func TestCreateTicketMediumPriority(t *testing.T) {
	var priority string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Fields struct {
				Priority struct{ Name string } `json:"priority"`
			} `json:"fields"`
		}
		json.NewDecoder(r.Body).Decode(&payload)
		priority = payload.Fields.Priority.Name
		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `{"key":"SEC-43"}`)
	}))
	defer srv.Close()

	f := highFinding()
	f.Risk = models.RiskMedium
	if _, err := testClient(srv).CreateTicket(context.Background(), f); err != nil {
		t.Fatalf("CreateTicket() error = %v", err)
	}
	if priority != "Medium" {
		t.Errorf("priority = %q, want Medium", priority)
	}
}

func TestCreateTicketRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"errorMessages":["Field 'priority' is required"]}`)
	}))
	defer srv.Close()

	_, err := testClient(srv).CreateTicket(context.Background(), highFinding())
	if err == nil {
		t.Fatal("expected error for rejected issue")
	}
	if !strings.Contains(err.Error(), "status 400") {
		t.Errorf("error should carry the status code, got %v", err)
	}
}

func TestSyncFindingsSkipsLowAndContinuesOnFailure(t *testing.T) {
	var summaries []string
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		var payload struct {
			Fields struct {
				Summary string `json:"summary"`
			} `json:"fields"`
		}
		json.NewDecoder(r.Body).Decode(&payload)
		summaries = append(summaries, payload.Fields.Summary)
		if calls == 1 {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `{"key":"SEC-44"}`)
	}))
	defer srv.Close()

	findings := []models.Finding{
		{Resource: "rejected", Risk: models.RiskHigh, Issue: "issue"},
		{Resource: "quiet", Risk: models.RiskLow, Issue: "issue"},
		{Resource: "accepted", Risk: models.RiskMedium, Issue: "issue"},
	}
	created := testClient(srv).SyncFindings(context.Background(), findings)

	if calls != 2 {
		t.Fatalf("expected 2 create attempts (LOW skipped), got %d", calls)
	}
	if created != 1 {
		t.Errorf("created = %d, want 1", created)
	}
	for _, s := range summaries {
		if strings.Contains(s, "quiet") {
			t.Errorf("LOW finding must not be synced, got summary %q", s)
		}
	}
}
