// Package serving picks the final value per series and interval and records
// where it came from.
package serving

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/eb-examples/ebgov/pipeline"
)

type rowKey struct {
	entity string
	at     int64
}

func keyOf(k pipeline.EntityKey, at time.Time) rowKey {
	return rowKey{entity: k.String(), at: at.UnixNano()}
}

// Select joins baseline to adjusted rows one-to-one on (entity key, interval)
// and serves the adjusted value iff governance permits the scope and the
// adjusted value is present (and was produced by an applied adjustment).
// Any other row serves the baseline. Duplicate keys on either side are a
// *pipeline.ValidationError.
func Select(baseline []pipeline.ForecastRow, adjusted []pipeline.AdjustedRow, decisions pipeline.Decisions) ([]pipeline.ServedRow, error) {
	seen := make(map[rowKey]bool, len(baseline))
	for _, b := range baseline {
		k := keyOf(b.Key, b.IntervalStart)
		if seen[k] {
			return nil, duplicate("baseline", b.Key, b.IntervalStart)
		}
		seen[k] = true
	}
	byKey := make(map[rowKey]pipeline.AdjustedRow, len(adjusted))
	for _, a := range adjusted {
		k := keyOf(a.Key, a.IntervalStart)
		if _, dup := byKey[k]; dup {
			return nil, duplicate("ral", a.Key, a.IntervalStart)
		}
		byKey[k] = a
	}

	out := make([]pipeline.ServedRow, 0, len(baseline))
	for _, b := range baseline {
		adj, matched := byKey[keyOf(b.Key, b.IntervalStart)]
		tr := pipeline.ServeTrace{
			YPredBaseline:   b.YPred,
			Mode:            pipeline.ModeNone,
			AllowAdjustment: decisions.Allows(b.Key.Scope),
		}
		if matched {
			tr.YPredAdjusted = adj.YPredAdjusted
			tr.Mode = adj.Mode
			tr.Applied = adj.Applied
		}

		served := pipeline.ServedRow{Key: b.Key, IntervalStart: b.IntervalStart, Trace: tr}
		if tr.AllowAdjustment && tr.Applied && tr.YPredAdjusted != nil {
			served.YServed = *tr.YPredAdjusted
			served.Source = pipeline.SourceRAL
		} else {
			served.YServed = b.YPred
			served.Source = pipeline.SourceBaseline
		}
		out = append(out, served)
	}

	slices.SortStableFunc(out, func(a, b pipeline.ServedRow) int {
		if c := strings.Compare(a.Key.String(), b.Key.String()); c != 0 {
			return c
		}
		return a.IntervalStart.Compare(b.IntervalStart)
	})
	return out, nil
}

// CountBySource tallies served rows per source.
func CountBySource(rows []pipeline.ServedRow) map[pipeline.ServedSource]int {
	counts := map[pipeline.ServedSource]int{pipeline.SourceBaseline: 0, pipeline.SourceRAL: 0}
	for _, r := range rows {
		counts[r.Source]++
	}
	return counts
}

func duplicate(side string, k pipeline.EntityKey, at time.Time) error {
	return &pipeline.ValidationError{
		Join:   "serving join (one_to_one)",
		Detail: fmt.Sprintf("duplicate %s row for entity_id %s at %s", side, k, at.Format(time.RFC3339)),
	}
}
