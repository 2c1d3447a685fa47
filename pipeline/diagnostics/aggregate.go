package diagnostics

import (
	"slices"
	"strings"

	"github.com/eb-examples/ebgov/pipeline"
)

// Sources are the upstream tables joined into contexts. CWSL is the primary
// metrics table: its scopes define the output rows. FAS is optional.
type Sources struct {
	CWSL  *pipeline.Table
	HRTau *pipeline.Table
	NSLUD *pipeline.Table
	DQC   *pipeline.Table
	FPC   *pipeline.Table
	FAS   *pipeline.Table
}

// Observation is one structural diagnostic as seen from a context.
// Present is false when the diagnostic table has no row for the scope.
type Observation struct {
	Present bool
	Label   *string
}

// Context is the unified per-entity view handed to governance.
type Context struct {
	Scope string
	HRTau *float64
	CWSL  *float64
	NSL   *float64
	UD    *float64
	DQC   Observation
	FPC   Observation
	FAS   Observation
}

// Aggregate resolves every source and left-joins them from the primary
// metrics table. No primary scope is dropped: unmatched metrics stay nil and
// unmatched structural rows are marked not present. Output is sorted by scope.
func Aggregate(src Sources) ([]Context, error) {
	primary, err := ResolveMetrics(src.CWSL, MetricCWSL)
	if err != nil {
		return nil, err
	}
	hr, err := ResolveMetrics(src.HRTau, MetricHRTau)
	if err != nil {
		return nil, err
	}
	nslud, err := ResolveMetrics(src.NSLUD, MetricNSL, MetricUD)
	if err != nil {
		return nil, err
	}
	dqc, err := ResolveStructural(src.DQC, KindDQC)
	if err != nil {
		return nil, err
	}
	fpc, err := ResolveStructural(src.FPC, KindFPC)
	if err != nil {
		return nil, err
	}
	var fas *StructuralTable
	if src.FAS != nil {
		if fas, err = ResolveStructural(src.FAS, KindFAS); err != nil {
			return nil, err
		}
	}

	out := make([]Context, 0, len(primary.FirstSeenOrder))
	for _, scope := range primary.FirstSeenOrder {
		out = append(out, Context{
			Scope: scope,
			CWSL:  primary.Value(scope, MetricCWSL.Name),
			HRTau: hr.Value(scope, MetricHRTau.Name),
			NSL:   nslud.Value(scope, MetricNSL.Name),
			UD:    nslud.Value(scope, MetricUD.Name),
			DQC:   observe(dqc, scope),
			FPC:   observe(fpc, scope),
			FAS:   observe(fas, scope),
		})
	}
	SortContexts(out)
	return out, nil
}

// SortContexts orders contexts by scope, ascending, keeping ties in place.
func SortContexts(cs []Context) {
	slices.SortStableFunc(cs, func(a, b Context) int { return strings.Compare(a.Scope, b.Scope) })
}

func observe(t *StructuralTable, scope string) Observation {
	r, ok := t.Lookup(scope)
	if !ok {
		return Observation{}
	}
	return Observation{Present: true, Label: r.Label}
}
