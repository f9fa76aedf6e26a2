package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jirabridge/jirabridge/internal/audit"
	"github.com/jirabridge/jirabridge/internal/config"
	"github.com/jirabridge/jirabridge/internal/db"
	"github.com/jirabridge/jirabridge/internal/jira"
	"github.com/jirabridge/jirabridge/internal/mcp"
	"github.com/jirabridge/jirabridge/internal/ops"
)

// Injected via -ldflags at build time.
var (
	version   = "dev"
	gitCommit = ""
	buildTime = ""
)

var rootCmd = &cobra.Command{
	Use:   "jirabridge",
	Short: "Jira tool-call server speaking JSON-RPC over stdio",
	Long: `jirabridge exposes a Jira Cloud workspace as a small set of tools
(get_projects, get_issues, create_issues_bulk) over a line-oriented
JSON-RPC transport on stdin/stdout.

Configuration is read from the environment (or a .env file):
  JIRA_BASE_URL, JIRA_EMAIL, JIRA_API_TOKEN   required
  DATABASE_URL                                 optional Postgres audit trail
  OPS_LISTEN                                   optional ops HTTP listener
  BULK_MAX_ISSUES                              optional bulk-create cap`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("jirabridge %s (commit %s, built %s)\n", version, gitCommit, buildTime)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.SilenceUsage = true
}

func serve() error {
	// stdout carries the JSON-RPC transport, so all logging goes to stderr.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("configuration invalid", "err", err)
		return err
	}

	var database *db.DB
	if cfg.DatabaseURL != "" {
		database, err = db.New(cfg.DatabaseURL)
		if err != nil {
			logger.Error("database connection failed", "err", err)
			return err
		}
		defer database.Close()
		logger.Info("audit trail enabled")
	}

	var auditSvc *audit.Service
	if database != nil {
		auditSvc = audit.NewService(database, logger)
	}

	jiraClient := jira.NewClient(cfg.JiraBaseURL, cfg.JiraEmail, cfg.JiraAPIToken)
	server := mcp.NewServer(jiraClient, auditSvc, logger, cfg.BulkMaxIssues, os.Stdin, os.Stdout)

	var opsServer *ops.Server
	if cfg.OpsListen != "" {
		opsServer = ops.NewServer(cfg.OpsListen, database, logger, ops.BuildInfo{
			Version:   version,
			GitCommit: gitCommit,
			BuildTime: buildTime,
		})
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 2)
	go func() { errCh <- server.Serve(ctx) }()
	if opsServer != nil {
		go func() { errCh <- opsServer.ListenAndServe() }()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("jirabridge started", "base_url", cfg.JiraBaseURL, "bulk_max_issues", cfg.BulkMaxIssues)

	select {
	case sig := <-sigCh:
		logger.Info("shutting down", "signal", sig.String())
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", "err", err)
			return err
		}
		// stdin closed cleanly; the client is done with us.
	}

	cancel()
	if opsServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer shutdownCancel()
		opsServer.Shutdown(shutdownCtx)
	}
	logger.Info("shutdown complete")
	return nil
}
