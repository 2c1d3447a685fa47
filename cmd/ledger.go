package cmd

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/eb-examples/ebgov/pipeline/ledger"
)

var (
	ledgerLimit int    // Number of runs to list
	ledgerRunID string // Run whose decisions to print
)

// ledgerCmd lists recorded governance runs, or the decisions of one run
var ledgerCmd = &cobra.Command{
	Use:   "ledger <path>",
	Short: "Inspect a governance audit ledger",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		lg, err := ledger.Open(args[0])
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		defer func() { _ = lg.Close() }()
		out := cmd.OutOrStdout()

		if ledgerRunID != "" {
			entries, err := lg.Entries(cmd.Context(), ledgerRunID)
			if err != nil {
				logrus.Fatalf("Failed to read run %s: %v", ledgerRunID, err)
			}
			for _, e := range entries {
				fmt.Fprintf(out, "%s\tallow_adjustment=%v\t%q\n", e.Scope, e.AllowAdjustment, e.Reasons)
			}
			return
		}

		runs, err := lg.Runs(cmd.Context(), ledgerLimit)
		if err != nil {
			logrus.Fatalf("Failed to list runs: %v", err)
		}
		for _, r := range runs {
			fmt.Fprintf(out, "%s\t%s\tpolicy=%s\thr_tau_min=%g\tpermitted=%d/%d\n",
				r.ID, r.RecordedAt.Format("2006-01-02T15:04:05Z07:00"), r.PolicyVersion, r.HRTauMin, r.PermittedCount, r.DecisionCount)
		}
	},
}

func init() {
	ledgerCmd.Flags().IntVar(&ledgerLimit, "limit", 20, "Number of runs to list")
	ledgerCmd.Flags().StringVar(&ledgerRunID, "run", "", "Print the decisions of this run")
}
