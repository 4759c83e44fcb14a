// Package main is the entry point for the boardclient CLI.
//
// The board client can be run either as a library (SDK) or as a standalone
// binary with YAML configuration. This CLI provides the standalone binary.
//
// Usage:
//
//	boardclient serve -c config.yaml    # Start the dashboard
//	boardclient validate -c config.yaml # Validate configuration
//	boardclient version                 # Show version info
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information, set at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCmd only displays help; functionality lives in subcommands.
var rootCmd = &cobra.Command{
	Use:   "boardclient",
	Short: "A dashboard client for replicated board servers",
	Long: `boardclient shows and edits the board of one of several interchangeable
board servers.

It lists the entries of the selected server, retries failed loads until
the server answers, and lets you add, edit and delete entries or crash and
recover the node from a web UI with live updates.

Quick start:
  1. Create a config file (boardclient.yaml)
  2. Run: boardclient serve -c boardclient.yaml
  3. Open http://localhost:8080 in your browser

Example config:
  port: 8080
  retry_delay: 1s
  servers:
    "0": 127.0.0.1:8000/nodes/0
    "1": 127.0.0.1:8000/nodes/1`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		// cobra has already printed the error
		os.Exit(1)
	}
}

func main() {
	Execute()
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the version, commit hash, and build date of this boardclient binary.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("boardclient %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", date)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
