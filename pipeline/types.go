package pipeline

import (
	"time"
)

// ModeNone is the RAL mode recorded when no adjustment ran.
const ModeNone = "none"

// ServedSource records which branch produced a served value.
type ServedSource string

const (
	// SourceBaseline serves the baseline prediction unchanged.
	SourceBaseline ServedSource = "baseline"
	// SourceRAL serves the adjusted prediction.
	SourceRAL ServedSource = "ral"
)

// ForecastRow is one baseline prediction for a series at an interval.
type ForecastRow struct {
	Key           EntityKey
	IntervalStart time.Time
	YTrue         *float64 // nil when the interval has no realized demand
	YPred         float64
}

// ThresholdSnapshot records the threshold parameters a decision was made under.
type ThresholdSnapshot struct {
	Metric  string  `json:"metric"`
	Tau     float64 `json:"hr_tau"`
	Minimum float64 `json:"hr_tau_min"`
}

// DecisionContext carries the aggregated inputs next to a decision for review.
// Nil means the value was absent upstream.
type DecisionContext struct {
	HRTau    *float64
	CWSL     *float64
	NSL      *float64
	UD       *float64
	DQCClass *string
	FPCClass *string
	FASClass *string
}

// Decision is the binding governance record for one forecast entity scope.
// Decisions are created once per run and never modified afterwards.
type Decision struct {
	Scope             string
	AllowAdjustment   bool
	AllowFallback     bool
	AllowedModes      []string
	PolicyVersion     string
	ThresholdSnapshot ThresholdSnapshot
	Reasons           []string
	Context           DecisionContext
}

// Decisions indexes decisions by forecast entity scope.
type Decisions map[string]Decision

// IndexDecisions builds a Decisions map. A scope appearing twice is a
// *ValidationError (the governance table joins many-to-one).
func IndexDecisions(list []Decision) (Decisions, error) {
	idx := make(Decisions, len(list))
	for _, d := range list {
		if _, dup := idx[d.Scope]; dup {
			return nil, &ValidationError{
				Join:   "governance",
				Detail: "duplicate forecast_entity_id " + d.Scope + " (expected one decision per entity)",
			}
		}
		idx[d.Scope] = d
	}
	return idx, nil
}

// Allows reports whether adjustment is permitted for scope. Unknown scopes are
// closed.
func (d Decisions) Allows(scope string) bool {
	dec, ok := d[scope]
	return ok && dec.AllowAdjustment
}

// AdjustedRow is a forecast row after the permission-gated adjustment step.
type AdjustedRow struct {
	ForecastRow
	AllowAdjustment bool
	YPredAdjusted   *float64 // nil when the adjustment did not run
	Applied         bool
	Mode            string
}

// ServeTrace holds every input a served value was selected from.
type ServeTrace struct {
	YPredBaseline   float64
	YPredAdjusted   *float64
	Mode            string
	Applied         bool
	AllowAdjustment bool
}

// ServedRow is the final value exposed downstream for a series and interval.
type ServedRow struct {
	Key           EntityKey
	IntervalStart time.Time
	YServed       float64
	Source        ServedSource
	Trace         ServeTrace
}
