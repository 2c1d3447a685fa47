package trace

import "sort"

// RunSummary aggregates statistics from a RunTrace.
type RunSummary struct {
	TotalDecisions     int
	PermittedCount     int
	BlockedCount       int
	PermittedScopes    []string // sorted
	AdjustedRows       int
	AppliedRows        int
	ModeDistribution   map[string]int // RAL mode → rows
	ServedRows         int
	SourceDistribution map[string]int // served source → rows
}

// Summarize computes aggregate statistics from a RunTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(rt *RunTrace) *RunSummary {
	summary := &RunSummary{
		PermittedScopes:    make([]string, 0),
		ModeDistribution:   make(map[string]int),
		SourceDistribution: make(map[string]int),
	}
	if rt == nil {
		return summary
	}

	summary.TotalDecisions = len(rt.Governance)
	for _, g := range rt.Governance {
		if g.Permitted {
			summary.PermittedCount++
			summary.PermittedScopes = append(summary.PermittedScopes, g.Scope)
		} else {
			summary.BlockedCount++
		}
	}
	sort.Strings(summary.PermittedScopes)

	summary.AdjustedRows = len(rt.Adjustments)
	for _, a := range rt.Adjustments {
		summary.ModeDistribution[a.Mode]++
		if a.Applied {
			summary.AppliedRows++
		}
	}

	summary.ServedRows = len(rt.Serving)
	for _, s := range rt.Serving {
		summary.SourceDistribution[string(s.Source)]++
	}

	return summary
}
