package main

import (
	"github.com/spf13/cobra"

	"pybreak/internal/version"
)

var (
	// logLevelFlag is the CLI --log-level flag value
	logLevelFlag string
)

var rootCmd = &cobra.Command{
	Use:   "pybreak",
	Short: "pybreak - breaking change detection for Python codebases",
	Long: `pybreak compares the structure of Python source between two git refs,
reports signature changes that break callers, and scans the codebase for
the call sites each change affects.`,
	Version: version.Version,
}

func init() {
	rootCmd.SetVersionTemplate("pybreak version {{.Version}}\n")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "info",
		"Log level: debug, info, warn, or error")
}
