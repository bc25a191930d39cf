// Package main is the entry point for the feedwatch CLI.
//
// Feedwatch can be run either as a library (SDK) or as a standalone binary
// with YAML configuration. This CLI provides the standalone binary approach.
//
// Usage:
//
//	feedwatch serve -c config.yaml    # Start the monitor
//	feedwatch validate -c config.yaml # Validate configuration
//	feedwatch version                 # Show version info
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information - set by GoReleaser at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCmd is the base command when called without subcommands.
// It just displays help - actual functionality is in subcommands.
var rootCmd = &cobra.Command{
	Use:   "feedwatch",
	Short: "A lightweight status-page feed monitor",
	Long: `Feedwatch is a lightweight monitor for status-page Atom/RSS feeds.

It polls each configured provider's feed at its own interval, detects new
and updated incidents, prints them to the console, and streams them to
browsers via Server-Sent Events.

Quick start:
  1. Create a config file (feedwatch.yaml)
  2. Run: feedwatch serve -c feedwatch.yaml
  3. Open http://localhost:8085 in your browser

Example config:
  port: 8085
  providers:
    - name: openai
      feed_url: https://status.openai.com/feed.atom
      product: OpenAI API
      poll_interval_seconds: 60`,
	// No Run/RunE means this just shows help when called without subcommands
}

// Execute runs the root command.
// This is the main entry point called from main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		// Cobra already prints the error, just exit with code 1
		os.Exit(1)
	}
}

func main() {
	Execute()
}

// versionCmd prints version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the version, commit hash, and build date of this feedwatch binary.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("feedwatch %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", date)
	},
}

func init() {
	// Register subcommands with root
	rootCmd.AddCommand(versionCmd)
}
