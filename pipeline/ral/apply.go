package ral

import (
	"fmt"
	"slices"
	"strings"

	"github.com/eb-examples/ebgov/pipeline"
)

// TraceRow summarizes the adjustment outcome of one series.
type TraceRow struct {
	EntityID string
	Scope    string
	Applied  bool
	Mode     string
}

// Result holds the per-row output and the deduplicated trace.
type Result struct {
	Rows  []pipeline.AdjustedRow
	Trace []TraceRow
}

// Apply runs adj on every row whose scope governance permits. Unknown scopes
// are closed. Rows that are not permitted keep YPredAdjusted nil with mode
// "none", so serving can tell "not computed" from "computed and equal".
// A permitted scope whose decision does not list adj's mode is an error.
func Apply(rows []pipeline.ForecastRow, decisions pipeline.Decisions, adj Adjuster) (*Result, error) {
	if adj == nil {
		return nil, fmt.Errorf("ral: nil adjuster")
	}
	mode := adj.Name()
	for _, d := range decisions {
		if d.AllowAdjustment && !slices.Contains(d.AllowedModes, mode) {
			return nil, fmt.Errorf("ral: mode %q not in allowed modes %v for forecast_entity_id %s", mode, d.AllowedModes, d.Scope)
		}
	}

	res := &Result{Rows: make([]pipeline.AdjustedRow, 0, len(rows))}
	type traceKey struct {
		entity  string
		applied bool
		mode    string
	}
	seen := make(map[traceKey]bool)
	for _, row := range rows {
		out := pipeline.AdjustedRow{ForecastRow: row, Mode: pipeline.ModeNone}
		out.AllowAdjustment = decisions.Allows(row.Key.Scope)
		if out.AllowAdjustment {
			v := adj.Adjust(row)
			out.YPredAdjusted = &v
			out.Applied = true
			out.Mode = mode
		}
		res.Rows = append(res.Rows, out)

		k := traceKey{entity: row.Key.String(), applied: out.Applied, mode: out.Mode}
		if !seen[k] {
			seen[k] = true
			res.Trace = append(res.Trace, TraceRow{EntityID: k.entity, Scope: row.Key.Scope, Applied: out.Applied, Mode: out.Mode})
		}
	}
	slices.SortStableFunc(res.Trace, func(a, b TraceRow) int {
		if c := strings.Compare(a.Scope, b.Scope); c != 0 {
			return c
		}
		return strings.Compare(a.EntityID, b.EntityID)
	})
	return res, nil
}
