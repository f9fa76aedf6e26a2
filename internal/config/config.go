// Package config loads and validates jirabridge configuration from
// environment variables, with optional .env file support.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// DefaultBulkMaxIssues caps the number of issues accepted in one
// create_issues_bulk call.
const DefaultBulkMaxIssues = 50

// Config is built once at startup and passed to constructors; nothing
// else in the call path reads the environment.
type Config struct {
	// Jira connection. All three are mandatory.
	JiraBaseURL  string
	JiraEmail    string
	JiraAPIToken string

	// Optional Postgres audit trail. Empty disables auditing.
	DatabaseURL string

	// Optional ops HTTP listener (healthz/metrics). Empty disables it.
	OpsListen string

	BulkMaxIssues int
}

// LoadEnv loads a .env file from the current directory or any parent.
// Missing files are not an error; the environment wins either way.
func LoadEnv() error {
	dir, err := os.Getwd()
	if err != nil {
		return nil
	}

	for {
		envPath := filepath.Join(dir, ".env")
		if _, err := os.Stat(envPath); err == nil {
			return godotenv.Load(envPath)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return nil
}

// Load builds the configuration from the environment. It returns an
// error naming the first missing mandatory variable; the process must
// refuse to start in that case.
func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		OpsListen:     os.Getenv("OPS_LISTEN"),
		BulkMaxIssues: DefaultBulkMaxIssues,
	}

	for _, v := range []struct {
		key  string
		dest *string
	}{
		{"JIRA_BASE_URL", &cfg.JiraBaseURL},
		{"JIRA_EMAIL", &cfg.JiraEmail},
		{"JIRA_API_TOKEN", &cfg.JiraAPIToken},
	} {
		val := strings.TrimSpace(os.Getenv(v.key))
		if val == "" {
			return nil, fmt.Errorf("required env var %s is not set", v.key)
		}
		*v.dest = val
	}
	cfg.JiraBaseURL = strings.TrimSuffix(cfg.JiraBaseURL, "/")

	if raw := strings.TrimSpace(os.Getenv("BULK_MAX_ISSUES")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("invalid BULK_MAX_ISSUES %q", raw)
		}
		cfg.BulkMaxIssues = n
	}

	return cfg, nil
}
