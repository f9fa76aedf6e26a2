// Package core implements the transport-independent logic of
// jirabridge: tool argument validation, bulk result shaping, and the
// error taxonomy reported back to callers.
package core

import (
	"fmt"
	"strings"

	"github.com/jirabridge/jirabridge/internal/jira"
)

const (
	MaxSummaryLen  = 255
	MaxIssueLabels = 20
	MaxLabelLen    = 255
)

// ValidationError is a caller-fault error raised before any network
// access. Field names the offending argument.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid parameters: %s %s", e.Field, e.Reason)
}

// ErrorCode implements CodedError.
func (e *ValidationError) ErrorCode() string { return "invalid_parameters" }

// ValidateProjectKey checks the projectKey argument of get_issues.
func ValidateProjectKey(projectKey string) error {
	if strings.TrimSpace(projectKey) == "" {
		return &ValidationError{Field: "projectKey", Reason: "is required"}
	}
	return nil
}

// ValidateIssueInput checks one issue of a bulk request. Required
// string fields must be present and non-empty; labels are bounded.
func ValidateIssueInput(in jira.CreateIssueInput) error {
	if strings.TrimSpace(in.ProjectKey) == "" {
		return &ValidationError{Field: "projectKey", Reason: "is required"}
	}
	if strings.TrimSpace(in.Summary) == "" {
		return &ValidationError{Field: "summary", Reason: "is required"}
	}
	if len(in.Summary) > MaxSummaryLen {
		return &ValidationError{Field: "summary", Reason: fmt.Sprintf("exceeds %d characters", MaxSummaryLen)}
	}
	if strings.TrimSpace(in.IssueType) == "" {
		return &ValidationError{Field: "issueType", Reason: "is required"}
	}
	if len(in.Labels) > MaxIssueLabels {
		return &ValidationError{Field: "labels", Reason: fmt.Sprintf("exceed %d items", MaxIssueLabels)}
	}
	for _, label := range in.Labels {
		if strings.TrimSpace(label) == "" {
			return &ValidationError{Field: "labels", Reason: "must not contain empty values"}
		}
		if len(label) > MaxLabelLen {
			return &ValidationError{Field: "labels", Reason: fmt.Sprintf("contain a label over %d characters", MaxLabelLen)}
		}
	}
	return nil
}

// ValidateBulkIssues checks the top-level issues argument. Per-issue
// field problems are not checked here: they are isolated to each
// issue's result slot during execution.
func ValidateBulkIssues(issues []jira.CreateIssueInput, maxIssues int) error {
	if len(issues) == 0 {
		return &ValidationError{Field: "issues", Reason: "must be a non-empty array"}
	}
	if len(issues) > maxIssues {
		return &ValidationError{Field: "issues", Reason: fmt.Sprintf("exceed %d items", maxIssues)}
	}
	return nil
}
