package trace

import "github.com/eb-examples/ebgov/pipeline"

// RunTrace collects stage records during a pipeline run.
type RunTrace struct {
	Governance  []GovernanceRecord
	Adjustments []AdjustmentRecord
	Serving     []ServingRecord
}

// NewRunTrace creates a RunTrace ready for recording.
func NewRunTrace() *RunTrace {
	return &RunTrace{
		Governance:  make([]GovernanceRecord, 0),
		Adjustments: make([]AdjustmentRecord, 0),
		Serving:     make([]ServingRecord, 0),
	}
}

// RecordDecisions appends one record per decision.
func (rt *RunTrace) RecordDecisions(decisions []pipeline.Decision) {
	for _, d := range decisions {
		outcome := ""
		if n := len(d.Reasons); n > 0 {
			outcome = d.Reasons[n-1]
		}
		rt.Governance = append(rt.Governance, GovernanceRecord{Scope: d.Scope, Permitted: d.AllowAdjustment, Outcome: outcome})
	}
}

// RecordAdjustments appends one record per adjusted row.
func (rt *RunTrace) RecordAdjustments(rows []pipeline.AdjustedRow) {
	for _, r := range rows {
		rt.Adjustments = append(rt.Adjustments, AdjustmentRecord{
			EntityID: r.Key.String(),
			Scope:    r.Key.Scope,
			Applied:  r.Applied,
			Mode:     r.Mode,
		})
	}
}

// RecordServed appends one record per served row.
func (rt *RunTrace) RecordServed(rows []pipeline.ServedRow) {
	for _, r := range rows {
		rt.Serving = append(rt.Serving, ServingRecord{EntityID: r.Key.String(), Source: r.Source})
	}
}
