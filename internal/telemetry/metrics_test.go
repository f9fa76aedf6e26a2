package telemetry

import (
	"strings"
	"testing"
	"time"
)

func TestRenderPrometheusLabelOrderingStable(t *testing.T) {
	defaultRegistry = newRegistry()

	IncToolCall("get_projects", "ok")
	IncToolCall("create_issues_bulk", "fail")
	IncJiraAPIError("search_issues", 401)
	IncJiraAPIError("create_issue", 400)
	IncAuditWriteFailure()

	out := RenderPrometheus()

	bulkFail := strings.Index(out, `jirabridge_tool_calls_total{tool="create_issues_bulk",status="fail"} 1`)
	projectsOK := strings.Index(out, `jirabridge_tool_calls_total{tool="get_projects",status="ok"} 1`)
	if bulkFail < 0 || projectsOK < 0 {
		t.Fatalf("tool call metrics missing from output:\n%s", out)
	}
	if bulkFail >= projectsOK {
		t.Fatal("tool call labels are not rendered in stable lexical order")
	}

	if !strings.Contains(out, `jirabridge_jira_api_errors_total{operation="create_issue",status_code="400"} 1`) {
		t.Fatalf("jira api error metric missing from output:\n%s", out)
	}
	if !strings.Contains(out, `jirabridge_jira_api_errors_total{operation="search_issues",status_code="401"} 1`) {
		t.Fatalf("jira api error metric missing from output:\n%s", out)
	}

	if !strings.Contains(out, "jirabridge_audit_write_failures_total 1") {
		t.Fatalf("audit write failure metric missing from output:\n%s", out)
	}
}

func TestObserveToolDurationBuckets(t *testing.T) {
	defaultRegistry = newRegistry()

	ObserveToolDuration("get_issues", 50*time.Millisecond)
	ObserveToolDuration("get_issues", 3*time.Second)
	ObserveToolDuration("get_issues", 2*time.Minute)

	out := RenderPrometheus()

	for _, want := range []string{
		`jirabridge_tool_duration_seconds_bucket{tool="get_issues",le="0.1"} 1`,
		`jirabridge_tool_duration_seconds_bucket{tool="get_issues",le="5"} 1`,
		`jirabridge_tool_duration_seconds_bucket{tool="get_issues",le="+Inf"} 1`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in output:\n%s", want, out)
		}
	}
}
