// Package db provides PostgreSQL persistence for the jirabridge audit
// trail. Auditing is optional; the rest of the system never touches
// the database.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// DB wraps the underlying *sql.DB and provides typed query methods.
type DB struct {
	conn *sql.DB
}

// New opens a PostgreSQL connection and verifies connectivity.
func New(databaseURL string) (*DB, error) {
	conn, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("db open: %w", err)
	}
	conn.SetMaxOpenConns(10)
	conn.SetMaxIdleConns(2)
	conn.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}
	if err := ApplyMigrations(ctx, conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("db migrate: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the database connection pool.
func (d *DB) Close() error {
	return d.conn.Close()
}

// ToolCall is one audited tool invocation. Request and Response hold
// the JSON exchanged with the caller.
type ToolCall struct {
	CallID    string    `json:"call_id"`
	TraceID   string    `json:"trace_id"`
	ToolName  string    `json:"tool_name"`
	Status    string    `json:"status"`
	Request   []byte    `json:"request"`
	Response  []byte    `json:"response"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// InsertToolCall records one tool invocation.
func (d *DB) InsertToolCall(ctx context.Context, tc *ToolCall) error {
	_, err := d.conn.ExecContext(ctx,
		`INSERT INTO tool_calls (call_id, trace_id, tool_name, status, request, response, error, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		tc.CallID, tc.TraceID, tc.ToolName, tc.Status, string(tc.Request), string(tc.Response), tc.Error, tc.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert tool_call: %w", err)
	}
	return nil
}

// ListToolCalls returns recent tool calls, most recent first.
func (d *DB) ListToolCalls(ctx context.Context, limit int) ([]*ToolCall, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := d.conn.QueryContext(ctx,
		`SELECT call_id, trace_id, tool_name, status, request, response, error, created_at
		 FROM tool_calls ORDER BY created_at DESC LIMIT $1`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list tool_calls: %w", err)
	}
	defer rows.Close()

	var calls []*ToolCall
	for rows.Next() {
		tc := &ToolCall{}
		if err := rows.Scan(&tc.CallID, &tc.TraceID, &tc.ToolName, &tc.Status, &tc.Request, &tc.Response, &tc.Error, &tc.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan tool_call: %w", err)
		}
		calls = append(calls, tc)
	}
	return calls, rows.Err()
}
