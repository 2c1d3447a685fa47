package cmd

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/eb-examples/ebgov/pipeline/steps"
)

// runCmd executes govern, ral and serve in order, then lists the key outputs
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full pipeline (govern, ral, serve)",
	Run: func(cmd *cobra.Command, args []string) {
		opts, err := buildOptions(cmd)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		l := layout()
		logrus.Infof("Running pipeline against %s", l.Base)
		if err := steps.Run(cmd.Context(), l, opts); err != nil {
			logrus.Fatalf("Pipeline failed: %v", err)
		}
		printOutputs(cmd, steps.CheckOutputs(l))
		logrus.Info("Pipeline complete.")
	},
}

// stepsCmd prints the ordered steps without running them
var stepsCmd = &cobra.Command{
	Use:   "steps",
	Short: "List the pipeline steps in execution order",
	Run: func(cmd *cobra.Command, args []string) {
		for i, s := range steps.Ordered() {
			fmt.Fprintf(cmd.OutOrStdout(), "%d. ebgov %-7s %s\n", i+1, s.Name, s.Description)
		}
	},
}

func printOutputs(cmd *cobra.Command, status []steps.OutputStatus) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Key outputs:")
	for _, s := range status {
		mark := "OK"
		if !s.OK {
			mark = "MISSING"
		}
		fmt.Fprintf(out, "  %-7s %s\n", mark, s.Artifact.Path)
	}
}

func init() {
	addPolicyFlags(runCmd)
	addGovernFlags(runCmd)
	addRALFlags(runCmd)
}
