package governance

import "github.com/eb-examples/ebgov/pipeline"

// PolicyDescriptor is published next to the decision table. It records the
// effective policy after invocation overrides and pins the table it governs
// by digest.
type PolicyDescriptor struct {
	pipeline.Policy
	DecisionTable       string `json:"decision_table"`
	DecisionTableSHA256 string `json:"decision_table_sha256"`
	DecisionCount       int    `json:"decision_count"`
	PermittedCount      int    `json:"permitted_count"`
}

// Describe builds the descriptor for decisions made under p.
func Describe(p pipeline.Policy, table, digest string, decisions []pipeline.Decision) PolicyDescriptor {
	permitted := 0
	for _, d := range decisions {
		if d.AllowAdjustment {
			permitted++
		}
	}
	return PolicyDescriptor{
		Policy:              p,
		DecisionTable:       table,
		DecisionTableSHA256: digest,
		DecisionCount:       len(decisions),
		PermittedCount:      permitted,
	}
}
