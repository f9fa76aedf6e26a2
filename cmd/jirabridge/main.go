// Package main is the entry point for the jirabridge tool server.
package main

import (
	"os"

	"github.com/jirabridge/jirabridge/internal/config"
)

func main() {
	// Load environment variables from .env file
	_ = config.LoadEnv()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
