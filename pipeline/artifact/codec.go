package artifact

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/eb-examples/ebgov/pipeline"
	"github.com/eb-examples/ebgov/pipeline/ral"
	"github.com/eb-examples/ebgov/pipeline/serving"
)

// GovernanceColumns is the schema of the governance decision table.
var GovernanceColumns = []string{
	"forecast_entity_id",
	"allow_adjustment",
	"allow_fallback",
	"allowed_ral_modes",
	"policy_version",
	"threshold_snapshot",
	"hr_tau",
	"cwsl",
	"nsl",
	"ud",
	"dqc_class",
	"fpc_class",
	"fas_class",
	"reasons_json",
}

// RALColumns is the schema of the adjusted forecast table.
var RALColumns = []string{
	"entity_id",
	"forecast_entity_id",
	"interval_start",
	"y_true",
	"y_pred",
	"allow_adjustment",
	"y_pred_ral",
	"ral_applied",
	"ral_mode",
}

// TraceColumns is the schema of the adjustment trace.
var TraceColumns = []string{"entity_id", "forecast_entity_id", "ral_applied", "ral_mode"}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseTime accepts RFC 3339 timestamps, their space-separated form
// ("2024-03-01 06:00:00+00:00") and the zone-less layouts written by common
// dataframe tooling. Zone-less values are read as UTC.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// FormatTime writes t as RFC 3339 in UTC.
func FormatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// FormatFloat writes the shortest representation that round-trips.
func FormatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatOptFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return FormatFloat(*v)
}

func formatOptString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// parseOptFloat treats an empty or NaN cell as absent.
func parseOptFloat(s string) (*float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	if math.IsNaN(v) {
		return nil, nil
	}
	return &v, nil
}

func parseOptString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func cellError(table string, row int, column string, err error) error {
	return fmt.Errorf("%s row %d column %s: %w: %v", table, row+1, column, pipeline.ErrSchema, err)
}

// ReadForecast loads a baseline forecast table. entity_id must be a composite
// "{site}::{scope}" key; a key without the delimiter is a *MalformedKeyError.
func ReadForecast(a Artifact) ([]pipeline.ForecastRow, error) {
	t, err := ReadTable(a)
	if err != nil {
		return nil, err
	}
	return DecodeForecast(t)
}

// DecodeForecast converts a loaded baseline table into forecast rows.
func DecodeForecast(t *pipeline.Table) ([]pipeline.ForecastRow, error) {
	keyIdx, err := t.Require("entity_id")
	if err != nil {
		return nil, err
	}
	atIdx, err := t.Require("interval_start")
	if err != nil {
		return nil, err
	}
	predIdx, err := t.Require("y_pred")
	if err != nil {
		return nil, err
	}
	_, trueIdx, _ := t.Pick("y_true")

	rows := make([]pipeline.ForecastRow, 0, len(t.Rows))
	for i, raw := range t.Rows {
		key, err := pipeline.Decompose(pipeline.Cell(raw, keyIdx))
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", t.Name, i+1, err)
		}
		at, err := ParseTime(pipeline.Cell(raw, atIdx))
		if err != nil {
			return nil, cellError(t.Name, i, "interval_start", err)
		}
		pred, err := strconv.ParseFloat(strings.TrimSpace(pipeline.Cell(raw, predIdx)), 64)
		if err != nil {
			return nil, cellError(t.Name, i, "y_pred", err)
		}
		yTrue, err := parseOptFloat(pipeline.Cell(raw, trueIdx))
		if err != nil {
			return nil, cellError(t.Name, i, "y_true", err)
		}
		rows = append(rows, pipeline.ForecastRow{Key: key, IntervalStart: at, YTrue: yTrue, YPred: pred})
	}
	return rows, nil
}

// EncodeDecisions renders the governance table. Caller order is kept.
func EncodeDecisions(decisions []pipeline.Decision) ([]byte, error) {
	out := make([][]string, 0, len(decisions))
	for _, d := range decisions {
		modes, err := json.Marshal(nonNil(d.AllowedModes))
		if err != nil {
			return nil, err
		}
		snapshot, err := CanonicalJSON(d.ThresholdSnapshot)
		if err != nil {
			return nil, err
		}
		reasons, err := json.Marshal(nonNil(d.Reasons))
		if err != nil {
			return nil, err
		}
		out = append(out, []string{
			d.Scope,
			strconv.FormatBool(d.AllowAdjustment),
			strconv.FormatBool(d.AllowFallback),
			string(modes),
			d.PolicyVersion,
			string(snapshot),
			formatOptFloat(d.Context.HRTau),
			formatOptFloat(d.Context.CWSL),
			formatOptFloat(d.Context.NSL),
			formatOptFloat(d.Context.UD),
			formatOptString(d.Context.DQCClass),
			formatOptString(d.Context.FPCClass),
			formatOptString(d.Context.FASClass),
			string(reasons),
		})
	}
	return EncodeCSV(GovernanceColumns, out)
}

// ReadDecisions loads a governance table and indexes it by scope. A scope that
// appears twice is a *ValidationError.
func ReadDecisions(a Artifact) (pipeline.Decisions, []pipeline.Decision, error) {
	t, err := ReadTable(a)
	if err != nil {
		return nil, nil, err
	}
	list, err := DecodeDecisions(t)
	if err != nil {
		return nil, nil, err
	}
	idx, err := pipeline.IndexDecisions(list)
	if err != nil {
		return nil, nil, err
	}
	return idx, list, nil
}

// DecodeDecisions parses governance rows. Only forecast_entity_id and
// allow_adjustment are required; the remaining columns are read when present.
func DecodeDecisions(t *pipeline.Table) ([]pipeline.Decision, error) {
	scopeIdx, err := t.Require("forecast_entity_id")
	if err != nil {
		return nil, err
	}
	allowIdx, err := t.Require("allow_adjustment")
	if err != nil {
		return nil, err
	}
	_, fallbackIdx, _ := t.Pick("allow_fallback")
	_, modesIdx, _ := t.Pick("allowed_ral_modes")
	_, versionIdx, _ := t.Pick("policy_version")
	_, snapIdx, _ := t.Pick("threshold_snapshot")
	_, reasonsIdx, _ := t.Pick("reasons_json")
	metricIdx := map[string]int{}
	for _, c := range []string{"hr_tau", "cwsl", "nsl", "ud", "dqc_class", "fpc_class", "fas_class"} {
		_, idx, _ := t.Pick(c)
		metricIdx[c] = idx
	}

	out := make([]pipeline.Decision, 0, len(t.Rows))
	for i, raw := range t.Rows {
		d := pipeline.Decision{
			Scope:         pipeline.Cell(raw, scopeIdx),
			PolicyVersion: pipeline.Cell(raw, versionIdx),
		}
		if d.AllowAdjustment, err = parseBool(pipeline.Cell(raw, allowIdx)); err != nil {
			return nil, cellError(t.Name, i, "allow_adjustment", err)
		}
		if d.AllowFallback, err = parseBool(pipeline.Cell(raw, fallbackIdx)); err != nil {
			return nil, cellError(t.Name, i, "allow_fallback", err)
		}
		if err := decodeJSONCell(pipeline.Cell(raw, modesIdx), &d.AllowedModes); err != nil {
			return nil, cellError(t.Name, i, "allowed_ral_modes", err)
		}
		if err := decodeJSONCell(pipeline.Cell(raw, snapIdx), &d.ThresholdSnapshot); err != nil {
			return nil, cellError(t.Name, i, "threshold_snapshot", err)
		}
		if err := decodeJSONCell(pipeline.Cell(raw, reasonsIdx), &d.Reasons); err != nil {
			return nil, cellError(t.Name, i, "reasons_json", err)
		}
		for name, dst := range map[string]**float64{
			"hr_tau": &d.Context.HRTau,
			"cwsl":   &d.Context.CWSL,
			"nsl":    &d.Context.NSL,
			"ud":     &d.Context.UD,
		} {
			if *dst, err = parseOptFloat(pipeline.Cell(raw, metricIdx[name])); err != nil {
				return nil, cellError(t.Name, i, name, err)
			}
		}
		d.Context.DQCClass = parseOptString(pipeline.Cell(raw, metricIdx["dqc_class"]))
		d.Context.FPCClass = parseOptString(pipeline.Cell(raw, metricIdx["fpc_class"]))
		d.Context.FASClass = parseOptString(pipeline.Cell(raw, metricIdx["fas_class"]))
		out = append(out, d)
	}
	return out, nil
}

// EncodeAdjusted renders the RAL table: the baseline columns plus the
// governance flag and adjustment outcome. y_pred_ral is empty when the
// adjustment did not run.
func EncodeAdjusted(rows []pipeline.AdjustedRow) ([]byte, error) {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, []string{
			r.Key.String(),
			r.Key.Scope,
			FormatTime(r.IntervalStart),
			formatOptFloat(r.YTrue),
			FormatFloat(r.YPred),
			strconv.FormatBool(r.AllowAdjustment),
			formatOptFloat(r.YPredAdjusted),
			strconv.FormatBool(r.Applied),
			r.Mode,
		})
	}
	return EncodeCSV(RALColumns, out)
}

// ReadAdjusted loads the RAL table.
func ReadAdjusted(a Artifact) ([]pipeline.AdjustedRow, error) {
	t, err := ReadTable(a)
	if err != nil {
		return nil, err
	}
	return DecodeAdjusted(t)
}

// DecodeAdjusted parses RAL rows on top of the baseline columns.
func DecodeAdjusted(t *pipeline.Table) ([]pipeline.AdjustedRow, error) {
	base, err := DecodeForecast(t)
	if err != nil {
		return nil, err
	}
	adjIdx, err := t.Require("y_pred_ral")
	if err != nil {
		return nil, err
	}
	appliedIdx, err := t.Require("ral_applied")
	if err != nil {
		return nil, err
	}
	_, allowIdx, _ := t.Pick("allow_adjustment")
	_, modeIdx, _ := t.Pick("ral_mode")

	out := make([]pipeline.AdjustedRow, 0, len(base))
	for i, raw := range t.Rows {
		r := pipeline.AdjustedRow{ForecastRow: base[i], Mode: pipeline.Cell(raw, modeIdx)}
		if r.YPredAdjusted, err = parseOptFloat(pipeline.Cell(raw, adjIdx)); err != nil {
			return nil, cellError(t.Name, i, "y_pred_ral", err)
		}
		if r.Applied, err = parseBool(pipeline.Cell(raw, appliedIdx)); err != nil {
			return nil, cellError(t.Name, i, "ral_applied", err)
		}
		if r.AllowAdjustment, err = parseBool(pipeline.Cell(raw, allowIdx)); err != nil {
			return nil, cellError(t.Name, i, "allow_adjustment", err)
		}
		if r.Mode == "" {
			r.Mode = pipeline.ModeNone
		}
		out = append(out, r)
	}
	return out, nil
}

// EncodeTrace renders the adjustment trace.
func EncodeTrace(rows []ral.TraceRow) ([]byte, error) {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, []string{r.EntityID, r.Scope, strconv.FormatBool(r.Applied), r.Mode})
	}
	return EncodeCSV(TraceColumns, out)
}

// EncodeServed renders the served forecast table with its trace columns.
func EncodeServed(rows []pipeline.ServedRow) ([]byte, error) {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, []string{
			r.Key.String(),
			r.Key.Scope,
			FormatTime(r.IntervalStart),
			FormatFloat(r.YServed),
			string(r.Source),
			FormatFloat(r.Trace.YPredBaseline),
			formatOptFloat(r.Trace.YPredAdjusted),
			r.Trace.Mode,
			strconv.FormatBool(r.Trace.Applied),
			strconv.FormatBool(r.Trace.AllowAdjustment),
		})
	}
	return EncodeCSV(serving.ServedColumns, out)
}

// parseBool reads an empty cell as false.
func parseBool(s string) (bool, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return false, nil
	}
	return strconv.ParseBool(s)
}

func decodeJSONCell(s string, v any) error {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return json.Unmarshal([]byte(s), v)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
