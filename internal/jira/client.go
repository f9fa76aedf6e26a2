// Package jira wraps the Jira Cloud REST API v3. It is the only
// package that performs network I/O against the tracker.
package jira

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jirabridge/jirabridge/internal/adf"
	"github.com/jirabridge/jirabridge/internal/telemetry"
)

// MaxSearchResults caps every issue search. Pagination beyond the cap
// is deliberately not handled.
const MaxSearchResults = 100

// Client holds the tracker connection settings. It is established once
// at startup and shared read-only across calls.
type Client struct {
	baseURL    string
	email      string
	apiToken   string
	httpClient *http.Client
}

// NewClient creates a Jira client authenticated with basic auth
// (account email + API token).
func NewClient(baseURL, email, apiToken string) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		email:      email,
		apiToken:   apiToken,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// APIError describes a non-2xx Jira response.
type APIError struct {
	Operation  string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s HTTP %d: %s", e.Operation, e.StatusCode, e.Body)
}

func (c *Client) doAPI(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal body: %w", err)
		}
		bodyReader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(c.email, c.apiToken)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.httpClient.Do(req)
}

// apiError drains the response body into a typed error. metricOp is
// the stable operation label for telemetry; operation may carry
// call-specific context for the error message.
func apiError(metricOp, operation string, resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)
	telemetry.IncJiraAPIError(metricOp, resp.StatusCode)
	return &APIError{Operation: operation, StatusCode: resp.StatusCode, Body: string(body)}
}

// Project is a Jira project projected down to key and name.
type Project struct {
	Key  string `json:"key"`
	Name string `json:"name"`
}

// ListProjects fetches all projects visible to the credential.
func (c *Client) ListProjects(ctx context.Context) ([]Project, error) {
	resp, err := c.doAPI(ctx, http.MethodGet, "/rest/api/3/project", nil)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apiError("list_projects", "list projects", resp)
	}

	var projects []Project
	if err := json.NewDecoder(resp.Body).Decode(&projects); err != nil {
		return nil, fmt.Errorf("decode projects: %w", err)
	}
	return projects, nil
}

type searchRequest struct {
	JQL        string   `json:"jql"`
	MaxResults int      `json:"maxResults"`
	Fields     []string `json:"fields"`
}

type searchResponse struct {
	Issues []json.RawMessage `json:"issues"`
}

// SearchIssues runs a JQL search scoped to the given project. A
// caller-supplied filter clause, when present, is conjoined with the
// project restriction. Issue records are returned unmodified.
func (c *Client) SearchIssues(ctx context.Context, projectKey, extraJQL string) ([]json.RawMessage, error) {
	jql := fmt.Sprintf("project = %s", projectKey)
	if strings.TrimSpace(extraJQL) != "" {
		jql = fmt.Sprintf("%s AND (%s)", jql, extraJQL)
	}

	body := searchRequest{JQL: jql, MaxResults: MaxSearchResults, Fields: []string{"*all"}}
	resp, err := c.doAPI(ctx, http.MethodPost, "/rest/api/3/search/jql", body)
	if err != nil {
		return nil, fmt.Errorf("search issues: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apiError("search_issues", "search issues", resp)
	}

	var result searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	return result.Issues, nil
}

// CreateIssueInput is one issue of a bulk request. Optional fields left
// empty are omitted from the outgoing payload entirely; Jira rejects
// explicit nulls for several of them.
type CreateIssueInput struct {
	ProjectKey  string   `json:"projectKey"`
	Summary     string   `json:"summary"`
	IssueType   string   `json:"issueType"`
	Description string   `json:"description,omitempty"`
	Assignee    string   `json:"assignee,omitempty"`
	Priority    string   `json:"priority,omitempty"`
	Labels      []string `json:"labels,omitempty"`
	Components  []string `json:"components,omitempty"`
	Parent      string   `json:"parent,omitempty"`
}

// CreatedIssue is the identifying pair Jira assigns on creation.
type CreatedIssue struct {
	ID  string `json:"id"`
	Key string `json:"key"`
}

type keyRef struct {
	Key string `json:"key"`
}

type nameRef struct {
	Name string `json:"name"`
}

type idRef struct {
	ID string `json:"id"`
}

type issueFields struct {
	Project     keyRef        `json:"project"`
	Summary     string        `json:"summary"`
	IssueType   nameRef       `json:"issuetype"`
	Description *adf.Document `json:"description,omitempty"`
	Assignee    *idRef        `json:"assignee,omitempty"`
	Priority    *nameRef      `json:"priority,omitempty"`
	Labels      []string      `json:"labels,omitempty"`
	Components  []nameRef     `json:"components,omitempty"`
	Parent      *keyRef       `json:"parent,omitempty"`
}

type createIssueRequest struct {
	Fields issueFields `json:"fields"`
}

// CreateIssue maps the input onto the Jira creation payload and submits
// it. Markdown descriptions are converted to an ADF document; an absent
// description omits the field rather than sending an empty document.
func (c *Client) CreateIssue(ctx context.Context, in CreateIssueInput) (*CreatedIssue, error) {
	fields := issueFields{
		Project:   keyRef{Key: in.ProjectKey},
		Summary:   in.Summary,
		IssueType: nameRef{Name: in.IssueType},
		Labels:    in.Labels,
	}
	if in.Description != "" {
		fields.Description = adf.FromMarkdown(in.Description)
	}
	if in.Assignee != "" {
		fields.Assignee = &idRef{ID: in.Assignee}
	}
	if in.Priority != "" {
		fields.Priority = &nameRef{Name: in.Priority}
	}
	for _, component := range in.Components {
		fields.Components = append(fields.Components, nameRef{Name: component})
	}
	if in.Parent != "" {
		fields.Parent = &keyRef{Key: in.Parent}
	}

	resp, err := c.doAPI(ctx, http.MethodPost, "/rest/api/3/issue", createIssueRequest{Fields: fields})
	if err != nil {
		return nil, fmt.Errorf("create issue %q: %w", in.Summary, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return nil, apiError("create_issue", fmt.Sprintf("create issue %q", in.Summary), resp)
	}

	var created CreatedIssue
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return nil, fmt.Errorf("decode created issue: %w", err)
	}
	return &created, nil
}
