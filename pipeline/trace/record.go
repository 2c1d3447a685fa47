// Package trace records what each pipeline stage decided so a run can be
// summarized after the fact. It stores plain data and has no dependency on the
// stage packages.
package trace

import "github.com/eb-examples/ebgov/pipeline"

// GovernanceRecord captures one governance decision.
type GovernanceRecord struct {
	Scope     string
	Permitted bool
	Outcome   string // terminal reason
}

// AdjustmentRecord captures the adjustment outcome of one forecast row.
type AdjustmentRecord struct {
	EntityID string
	Scope    string
	Applied  bool
	Mode     string
}

// ServingRecord captures which branch served one forecast row.
type ServingRecord struct {
	EntityID string
	Source   pipeline.ServedSource
}
