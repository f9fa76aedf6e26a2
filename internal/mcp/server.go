// Package mcp binds the tool dispatcher to a line-oriented JSON-RPC
// 2.0 channel (MCP). Each request line yields exactly one response
// line; the server holds no mutable state across calls.
package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jirabridge/jirabridge/internal/audit"
	"github.com/jirabridge/jirabridge/internal/core"
	"github.com/jirabridge/jirabridge/internal/jira"
	"github.com/jirabridge/jirabridge/internal/telemetry"
)

type ctxKey string

const ctxKeyTraceID ctxKey = "trace_id"

const serverVersion = "0.1.0"

// Server dispatches tool calls against the Jira adapter. The adapter
// handle and configuration are read-only after construction.
type Server struct {
	jira    *jira.Client
	audit   *audit.Service
	logger  *slog.Logger
	bulkMax int

	in  io.Reader
	out io.Writer
	mu  sync.Mutex
}

// NewServer wires the dispatcher to its transport endpoints. For the
// normal process this is stdin/stdout; tests substitute buffers.
func NewServer(jiraClient *jira.Client, auditSvc *audit.Service, logger *slog.Logger, bulkMax int, in io.Reader, out io.Writer) *Server {
	return &Server{
		jira:    jiraClient,
		audit:   auditSvc,
		logger:  logger,
		bulkMax: bulkMax,
		in:      in,
		out:     out,
	}
}

type jsonRPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type jsonRPCResponse struct {
	JSONRPC string    `json:"jsonrpc"`
	ID      any       `json:"id"`
	Result  any       `json:"result,omitempty"`
	Error   *rpcError `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// toolResult is the MCP tool-call response envelope: a serialized text
// payload plus an error indicator.
type toolResult struct {
	Content []contentBlock `json:"content"`
	IsError bool           `json:"isError,omitempty"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func textResult(payload any) toolResult {
	data, err := json.Marshal(payload)
	if err != nil {
		return errorResult(fmt.Sprintf("marshal result: %s", err))
	}
	return toolResult{Content: []contentBlock{{Type: "text", Text: string(data)}}}
}

func errorResult(message string) toolResult {
	return toolResult{Content: []contentBlock{{Type: "text", Text: message}}, IsError: true}
}

// Serve reads requests line by line until the channel is closed.
func (s *Server) Serve(ctx context.Context) error {
	scanner := bufio.NewScanner(s.in)
	scanner.Buffer(make([]byte, 0, 1024*1024), 4*1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req jsonRPCRequest
		if err := json.Unmarshal(line, &req); err != nil {
			s.writeResponse(jsonRPCResponse{
				JSONRPC: "2.0",
				ID:      nil,
				Error:   &rpcError{Code: -32700, Message: "parse error"},
			})
			continue
		}

		// Notifications get no response.
		if req.ID == nil && strings.HasPrefix(req.Method, "notifications/") {
			continue
		}

		traceID := uuid.New().String()
		callCtx := context.WithValue(ctx, ctxKeyTraceID, traceID)
		s.writeResponse(s.dispatch(callCtx, req))
	}
	return scanner.Err()
}

func (s *Server) writeResponse(resp jsonRPCResponse) {
	data, err := json.Marshal(resp)
	if err != nil {
		s.logger.Error("marshal response failed", "err", err)
		return
	}
	data = append(data, '\n')
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.out.Write(data); err != nil {
		s.logger.Error("write response failed", "err", err)
	}
}

func (s *Server) dispatch(ctx context.Context, req jsonRPCRequest) jsonRPCResponse {
	base := jsonRPCResponse{JSONRPC: "2.0", ID: req.ID}

	switch req.Method {
	case "initialize":
		base.Result = map[string]any{
			"protocolVersion": "2024-11-05",
			"capabilities":    map[string]any{"tools": map[string]any{"listChanged": false}},
			"serverInfo":      map[string]any{"name": "jirabridge", "version": serverVersion},
		}
		return base

	case "tools/list":
		base.Result = map[string]any{"tools": ToolDefinitions()}
		return base

	case "tools/call":
		return s.handleToolCall(ctx, req, base)

	default:
		base.Error = &rpcError{Code: -32601, Message: fmt.Sprintf("method not found: %s", req.Method)}
		return base
	}
}

// ToolDefinitions is the static registry of tool names, descriptions,
// and input schemas, fixed at process start.
func ToolDefinitions() []map[string]any {
	issueProperties := map[string]any{
		"projectKey":  map[string]string{"type": "string", "description": "Project the issue belongs to"},
		"summary":     map[string]string{"type": "string"},
		"issueType":   map[string]string{"type": "string", "description": "Issue type name, e.g. Bug or Story"},
		"description": map[string]string{"type": "string", "description": "Markdown, converted to Atlassian Document Format"},
		"assignee":    map[string]string{"type": "string", "description": "Assignee account id"},
		"priority":    map[string]string{"type": "string", "description": "Priority name"},
		"labels":      map[string]any{"type": "array", "items": map[string]string{"type": "string"}},
		"components":  map[string]any{"type": "array", "items": map[string]string{"type": "string"}},
		"parent":      map[string]string{"type": "string", "description": "Parent issue key for subtasks"},
	}

	return []map[string]any{
		{
			"name":        "get_projects",
			"description": "List all Jira projects visible to the configured credential",
			"inputSchema": map[string]any{
				"type":       "object",
				"properties": map[string]any{},
			},
		},
		{
			"name":        "get_issues",
			"description": "Search issues in a project, optionally narrowed by an extra JQL clause",
			"inputSchema": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"projectKey": map[string]string{"type": "string"},
					"jql":        map[string]string{"type": "string", "description": "Extra filter clause, conjoined with the project restriction"},
				},
				"required": []string{"projectKey"},
			},
		},
		{
			"name":        "create_issues_bulk",
			"description": "Create multiple independent Jira issues in one call",
			"inputSchema": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"issues": map[string]any{
						"type": "array",
						"items": map[string]any{
							"type":       "object",
							"properties": issueProperties,
							"required":   []string{"projectKey", "summary", "issueType"},
						},
					},
				},
				"required": []string{"issues"},
			},
		},
	}
}

type toolCallParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

func (s *Server) handleToolCall(ctx context.Context, req jsonRPCRequest, base jsonRPCResponse) jsonRPCResponse {
	var params toolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		base.Error = &rpcError{Code: -32602, Message: "invalid params: " + err.Error()}
		return base
	}

	start := time.Now()
	defer func() { telemetry.ObserveToolDuration(params.Name, time.Since(start)) }()

	switch params.Name {
	case "get_projects":
		return s.toolGetProjects(ctx, base)
	case "get_issues":
		return s.toolGetIssues(ctx, params.Arguments, base)
	case "create_issues_bulk":
		return s.toolCreateIssuesBulk(ctx, params.Arguments, base)
	default:
		base.Error = &rpcError{Code: -32602, Message: fmt.Sprintf("unknown tool: %s", params.Name)}
		return base
	}
}

func (s *Server) toolGetProjects(ctx context.Context, base jsonRPCResponse) jsonRPCResponse {
	traceID, _ := ctx.Value(ctxKeyTraceID).(string)

	projects, err := s.jira.ListProjects(ctx)
	s.audit.Record(ctx, audit.RecordInput{TraceID: traceID, ToolName: "get_projects", Response: projects, Err: err})
	s.finishCall(traceID, "get_projects", err)
	if err != nil {
		mapped := core.MapError(err, 502)
		base.Result = errorResult(mapped.Code + ": " + mapped.Message)
		return base
	}

	base.Result = textResult(projects)
	return base
}

type getIssuesArgs struct {
	ProjectKey string `json:"projectKey"`
	JQL        string `json:"jql,omitempty"`
}

func (s *Server) toolGetIssues(ctx context.Context, raw json.RawMessage, base jsonRPCResponse) jsonRPCResponse {
	traceID, _ := ctx.Value(ctxKeyTraceID).(string)

	var args getIssuesArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		base.Result = errorResult("invalid parameters: " + err.Error())
		return base
	}
	if err := core.ValidateProjectKey(args.ProjectKey); err != nil {
		telemetry.IncToolCall("get_issues", "invalid")
		base.Result = errorResult(err.Error())
		return base
	}

	issues, err := s.jira.SearchIssues(ctx, args.ProjectKey, args.JQL)
	s.audit.Record(ctx, audit.RecordInput{TraceID: traceID, ToolName: "get_issues", Request: args, Response: issues, Err: err})
	s.finishCall(traceID, "get_issues", err)
	if err != nil {
		mapped := core.MapError(err, 502)
		base.Result = errorResult(mapped.Code + ": " + mapped.Message)
		return base
	}

	base.Result = textResult(issues)
	return base
}

type createIssuesBulkArgs struct {
	Issues []jira.CreateIssueInput `json:"issues"`
}

func (s *Server) toolCreateIssuesBulk(ctx context.Context, raw json.RawMessage, base jsonRPCResponse) jsonRPCResponse {
	traceID, _ := ctx.Value(ctxKeyTraceID).(string)

	var args createIssuesBulkArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		base.Result = errorResult("invalid parameters: " + err.Error())
		return base
	}
	if err := core.ValidateBulkIssues(args.Issues, s.bulkMax); err != nil {
		telemetry.IncToolCall("create_issues_bulk", "invalid")
		base.Result = errorResult(err.Error())
		return base
	}

	// Fan out one task per issue; each result lands in the slot
	// matching the issue's input position, so output order is input
	// order regardless of completion order.
	results := make([]core.IssueCreationResult, len(args.Issues))
	var wg sync.WaitGroup
	for i, in := range args.Issues {
		wg.Add(1)
		go func(i int, in jira.CreateIssueInput) {
			defer wg.Done()
			results[i] = s.createOne(ctx, in)
		}(i, in)
	}
	wg.Wait()

	resp := core.NewBulkResponse(results)
	var bulkErr error
	if resp.Failed > 0 {
		bulkErr = fmt.Errorf("%d of %d issues failed", resp.Failed, resp.Total)
	}
	s.audit.Record(ctx, audit.RecordInput{TraceID: traceID, ToolName: "create_issues_bulk", Request: args, Response: resp, Err: bulkErr})
	s.finishCall(traceID, "create_issues_bulk", bulkErr)

	base.Result = textResult(resp)
	return base
}

// createOne validates and submits a single issue. Failures stay in
// this issue's result slot and never abort the siblings.
func (s *Server) createOne(ctx context.Context, in jira.CreateIssueInput) core.IssueCreationResult {
	if err := core.ValidateIssueInput(in); err != nil {
		return core.IssueCreationResult{Summary: in.Summary, Error: err.Error()}
	}

	created, err := s.jira.CreateIssue(ctx, in)
	if err != nil {
		mapped := core.MapError(err, 502)
		return core.IssueCreationResult{Summary: in.Summary, Error: mapped.Code + ": " + mapped.Message}
	}
	return core.IssueCreationResult{Success: true, Key: created.Key, ID: created.ID, Summary: in.Summary}
}

func (s *Server) finishCall(traceID, toolName string, err error) {
	status := "ok"
	if err != nil {
		status = "fail"
	}
	telemetry.IncToolCall(toolName, status)
	s.logger.Info("tool call completed",
		"trace_id", traceID,
		"tool_name", toolName,
		"status", status,
	)
}
