// Package cmd defines the CLI commands for the presscrawler executable.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "presscrawler",
		Short: "Ingests Korean government press releases into a canonical store",
		Long: `presscrawler pulls press releases from government publishers (MSIT,
KCC) over RSS feeds or HTML board listings, normalizes them into
canonical records, and reconciles them against the release store so
repeated runs are idempotent.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path (YAML)")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newCrawlCmd())

	return cmd
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "presscrawler: %v\n", err)
		os.Exit(1)
	}
}
