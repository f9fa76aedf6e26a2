// Package audit records every tool invocation in Postgres when a
// DATABASE_URL is configured. A nil *Service is a no-op, so callers
// never branch on whether auditing is enabled.
package audit

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jirabridge/jirabridge/internal/db"
	"github.com/jirabridge/jirabridge/internal/telemetry"
)

// Service writes tool-call records. Audit failures are logged and
// swallowed; they must never fail the tool call itself.
type Service struct {
	db     *db.DB
	logger *slog.Logger
}

// NewService wires the audit layer to its database.
func NewService(database *db.DB, logger *slog.Logger) *Service {
	return &Service{db: database, logger: logger}
}

// RecordInput captures what is needed to log a tool call.
type RecordInput struct {
	TraceID  string
	ToolName string
	Request  any
	Response any
	Err      error
}

// Record persists one tool call.
func (a *Service) Record(ctx context.Context, in RecordInput) {
	if a == nil {
		return
	}

	status := "ok"
	errText := ""
	if in.Err != nil {
		status = "fail"
		errText = in.Err.Error()
	}

	tc := &db.ToolCall{
		CallID:    uuid.New().String(),
		TraceID:   in.TraceID,
		ToolName:  in.ToolName,
		Status:    status,
		Request:   marshalOrNull(in.Request),
		Response:  marshalOrNull(in.Response),
		Error:     errText,
		CreatedAt: time.Now().UTC(),
	}
	if err := a.db.InsertToolCall(ctx, tc); err != nil {
		telemetry.IncAuditWriteFailure()
		a.logger.Error("audit record failed", "tool_name", in.ToolName, "trace_id", in.TraceID, "err", err)
	}
}

func marshalOrNull(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil || len(b) == 0 {
		return []byte("null")
	}
	return b
}
