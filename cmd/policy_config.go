package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/eb-examples/ebgov/pipeline"
	"github.com/eb-examples/ebgov/pipeline/steps"
)

var (
	// Policy flags shared by every command that evaluates or reads governance
	policyPath    string  // YAML policy file; empty means the built-in default
	hrTauMin      float64 // Override for the HR@τ minimum
	allowFallback bool    // Turn fallback on in every decision
	ralMode       string  // Adjustment mode to run

	// Governance evaluation flags
	workers    int    // Parallel decision evaluation
	noFAS      bool   // Skip the optional FAS diagnostic
	ledgerPath string // Optional SQLite audit ledger
)

func addPolicyFlags(c *cobra.Command) {
	c.Flags().StringVar(&policyPath, "policy", "", "Path to a YAML governance policy (default: built-in v1 policy)")
	c.Flags().Float64Var(&hrTauMin, "hr-tau-min", pipeline.DefaultPolicy().HRTauMin, "Override the HR@τ minimum threshold")
	c.Flags().BoolVar(&allowFallback, "allow-fallback", false, "Mark fallback as allowed in every decision")
}

func addGovernFlags(c *cobra.Command) {
	c.Flags().IntVar(&workers, "workers", runtime.NumCPU(), "Parallel workers for decision evaluation")
	c.Flags().BoolVar(&noFAS, "no-fas", false, "Skip the optional FAS diagnostic")
	c.Flags().StringVar(&ledgerPath, "ledger", "", "Append each governance run to this SQLite ledger")
}

func addRALFlags(c *cobra.Command) {
	c.Flags().StringVar(&ralMode, "mode", pipeline.ModeIdentity, "Adjustment mode to run")
}

// resolvePolicy loads the configured policy and applies invocation overrides.
// The threshold override applies only when --hr-tau-min was given, so a
// threshold set in the policy file is not replaced by the flag default.
func resolvePolicy(cmd *cobra.Command) (pipeline.Policy, error) {
	p := pipeline.DefaultPolicy()
	if policyPath != "" {
		var err error
		if p, err = pipeline.LoadPolicy(policyPath); err != nil {
			return pipeline.Policy{}, err
		}
	}
	var minOverride *float64
	if cmd.Flags().Changed("hr-tau-min") {
		minOverride = &hrTauMin
	}
	p = p.WithOverrides(minOverride, allowFallback)
	if err := p.Validate(); err != nil {
		return pipeline.Policy{}, fmt.Errorf("invalid policy: %w", err)
	}
	return p, nil
}

// buildOptions assembles stage options from the command's flags.
func buildOptions(cmd *cobra.Command) (steps.Options, error) {
	p, err := resolvePolicy(cmd)
	if err != nil {
		return steps.Options{}, err
	}
	opts := steps.DefaultOptions()
	opts.Policy = p
	if cmd.Flags().Lookup("mode") != nil {
		opts.Mode = ralMode
	}
	if cmd.Flags().Lookup("workers") != nil {
		opts.Workers = workers
		opts.NoFAS = noFAS
		opts.LedgerPath = ledgerPath
	}
	return opts, nil
}
