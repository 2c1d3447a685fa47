package cmd

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/eb-examples/ebgov/pipeline/artifact"
)

var (
	logLevel string // Log verbosity level
	baseDir  string // Artifact base directory
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "ebgov",
	Short: "Governed forecast readiness adjustment and serving pipeline",
	Long: `ebgov decides, per forecast entity, whether the readiness adjustment layer
may change a baseline forecast, applies the adjustment strictly under that
permission, and selects the value served downstream.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Set up logging
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)
	},
}

// layout returns the artifact layout selected by --base-dir.
func layout() artifact.Layout {
	return artifact.NewLayout(baseDir)
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "info", "Log level (trace, debug, info, warn, error, fatal, panic)")
	rootCmd.PersistentFlags().StringVar(&baseDir, "base-dir", artifact.DefaultBaseDir, "Artifact base directory")

	rootCmd.AddCommand(governCmd)
	rootCmd.AddCommand(ralCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(stepsCmd)
	rootCmd.AddCommand(policyCmd)
	rootCmd.AddCommand(ledgerCmd)
}
