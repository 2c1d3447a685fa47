package cmd

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/eb-examples/ebgov/pipeline/steps"
)

var governCmd = &cobra.Command{
	Use:   "govern",
	Short: "Decide per forecast entity whether adjustment is permitted",
	Run: func(cmd *cobra.Command, args []string) {
		opts, err := buildOptions(cmd)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		if _, err := steps.Govern(cmd.Context(), layout(), opts); err != nil {
			logrus.Fatalf("Governance failed: %v", err)
		}
	},
}

var ralCmd = &cobra.Command{
	Use:   "ral",
	Short: "Apply the readiness adjustment where governance permits",
	Run: func(cmd *cobra.Command, args []string) {
		opts, err := buildOptions(cmd)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		if _, err := steps.Adjust(cmd.Context(), layout(), opts); err != nil {
			logrus.Fatalf("RAL failed: %v", err)
		}
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Select the served forecast per series and interval",
	Run: func(cmd *cobra.Command, args []string) {
		opts, err := buildOptions(cmd)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		if _, err := steps.Serve(cmd.Context(), layout(), opts); err != nil {
			logrus.Fatalf("Serving failed: %v", err)
		}
	},
}

func init() {
	addPolicyFlags(governCmd)
	addGovernFlags(governCmd)

	addPolicyFlags(ralCmd)
	addRALFlags(ralCmd)

	addPolicyFlags(serveCmd)
}
