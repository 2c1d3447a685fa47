// Package diagnostics resolves upstream diagnostic tables into fixed Go
// schemas and joins them into one context per forecast entity scope.
package diagnostics

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/eb-examples/ebgov/pipeline"
)

// Structural diagnostic kinds.
const (
	KindDQC = "dqc" // demand quantization compatibility (data quality)
	KindFPC = "fpc" // forecast primitive compatibility
	KindFAS = "fas" // forecastability assessment, recorded but not gating
)

// ScopeKeyCandidates are the accepted names of the entity-scope key column.
var ScopeKeyCandidates = []string{"forecast_entity_id", "FORECAST_ENTITY_ID", "entity_id", "id"}

// CompositeKeyColumn holds "site::forecast_entity" keys in metric tables.
const CompositeKeyColumn = "entity_id"

// ClassCandidates returns the classification column aliases for a kind, in
// priority order.
func ClassCandidates(kind string) []string {
	return []string{kind + "_class", "class", "status", kind}
}

// MetricSpec names a scalar metric and its accepted column aliases.
type MetricSpec struct {
	Name       string
	Candidates []string
}

// Metrics consumed by governance.
var (
	MetricCWSL  = MetricSpec{Name: "cwsl", Candidates: []string{"cwsl", "cwsl_mean"}}
	MetricHRTau = MetricSpec{Name: "hr_tau", Candidates: []string{"hr_tau"}}
	MetricNSL   = MetricSpec{Name: "nsl", Candidates: []string{"nsl"}}
	MetricUD    = MetricSpec{Name: "ud", Candidates: []string{"ud"}}
)

// StructuralRow is one structural diagnostic row. Label is nil when the
// classification cell (or column) is empty.
type StructuralRow struct {
	Scope string
	Label *string
}

// StructuralTable is a structural diagnostic keyed by entity scope.
type StructuralTable struct {
	Kind           string
	ClassColumn    string // "" when no alias matched
	Rows           map[string]StructuralRow
	FirstSeenOrder []string
}

// Lookup returns the row for scope and whether it exists.
func (s *StructuralTable) Lookup(scope string) (StructuralRow, bool) {
	if s == nil {
		return StructuralRow{}, false
	}
	r, ok := s.Rows[scope]
	return r, ok
}

// ResolveStructural resolves the key and classification columns of a
// structural diagnostic table. A scope appearing twice violates the
// many-to-one join into the context and is a *pipeline.ValidationError.
func ResolveStructural(t *pipeline.Table, kind string) (*StructuralTable, error) {
	keyIdx, err := t.Require(ScopeKeyCandidates...)
	if err != nil {
		return nil, err
	}
	classCol, classIdx, hasClass := t.Pick(ClassCandidates(kind)...)
	if !hasClass {
		logrus.Warnf("%s: no classification column among %v; every %s label is absent",
			t.Name, ClassCandidates(kind), strings.ToUpper(kind))
	}

	out := &StructuralTable{
		Kind:        kind,
		ClassColumn: classCol,
		Rows:        make(map[string]StructuralRow, len(t.Rows)),
	}
	for _, row := range t.Rows {
		scope := pipeline.Cell(row, keyIdx)
		if _, dup := out.Rows[scope]; dup {
			return nil, &pipeline.ValidationError{
				Join:   t.Name,
				Detail: fmt.Sprintf("duplicate forecast_entity_id %q (join is many-to-one)", scope),
			}
		}
		r := StructuralRow{Scope: scope}
		if hasClass {
			if v := pipeline.Cell(row, classIdx); v != "" {
				r.Label = &v
			}
		}
		out.Rows[scope] = r
		out.FirstSeenOrder = append(out.FirstSeenOrder, scope)
	}
	return out, nil
}

// MetricTable holds scalar metrics aggregated to entity scope.
type MetricTable struct {
	Name           string
	Values         map[string]map[string]*float64 // scope -> metric -> mean (nil when absent)
	FirstSeenOrder []string
}

// Value returns the metric for scope, nil when absent.
func (m *MetricTable) Value(scope, metric string) *float64 {
	if m == nil {
		return nil
	}
	return m.Values[scope][metric]
}

// ResolveMetrics resolves the key and metric columns of a scalar metric table
// and aggregates rows to entity scope by arithmetic mean. Tables keyed by
// forecast_entity_id are already at scope; tables keyed by entity_id hold
// composite keys and are decomposed (a malformed key is fatal).
func ResolveMetrics(t *pipeline.Table, specs ...MetricSpec) (*MetricTable, error) {
	keyIdx, composite, err := metricKey(t)
	if err != nil {
		return nil, err
	}
	colIdx := make([]int, len(specs))
	for i, spec := range specs {
		idx, err := t.Require(spec.Candidates...)
		if err != nil {
			return nil, err
		}
		colIdx[i] = idx
	}

	samples := make(map[string][][]float64)
	var order []string
	for n, row := range t.Rows {
		scope := pipeline.Cell(row, keyIdx)
		if composite {
			var err error
			if scope, err = pipeline.ScopeOf(scope); err != nil {
				return nil, fmt.Errorf("%s row %d: %w", t.Name, n+1, err)
			}
		}
		if _, seen := samples[scope]; !seen {
			samples[scope] = make([][]float64, len(specs))
			order = append(order, scope)
		}
		for i, spec := range specs {
			v, ok, err := parseMetric(pipeline.Cell(row, colIdx[i]))
			if err != nil {
				return nil, fmt.Errorf("%w: %s row %d column %s: %v", pipeline.ErrSchema, t.Name, n+1, spec.Name, err)
			}
			if ok {
				samples[scope][i] = append(samples[scope][i], v)
			}
		}
	}

	out := &MetricTable{
		Name:           t.Name,
		Values:         make(map[string]map[string]*float64, len(samples)),
		FirstSeenOrder: order,
	}
	for scope, perMetric := range samples {
		vals := make(map[string]*float64, len(specs))
		for i, spec := range specs {
			vals[spec.Name] = mean(perMetric[i])
		}
		out.Values[scope] = vals
	}
	return out, nil
}

func metricKey(t *pipeline.Table) (idx int, composite bool, err error) {
	if _, i, ok := t.Pick("forecast_entity_id", "FORECAST_ENTITY_ID"); ok {
		return i, false, nil
	}
	if _, i, ok := t.Pick(CompositeKeyColumn); ok {
		return i, true, nil
	}
	i, err := t.Require(ScopeKeyCandidates...)
	return i, false, err
}

// parseMetric reads a numeric cell. Empty and NaN cells are absent.
func parseMetric(cell string) (float64, bool, error) {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return 0, false, nil
	}
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return 0, false, fmt.Errorf("%q is not numeric", cell)
	}
	if math.IsNaN(v) {
		return 0, false, nil
	}
	return v, true, nil
}

// mean sums in ascending order so the result does not depend on row order.
func mean(vals []float64) *float64 {
	if len(vals) == 0 {
		return nil
	}
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	sum := 0.0
	for _, v := range sorted {
		sum += v
	}
	m := sum / float64(len(sorted))
	return &m
}
