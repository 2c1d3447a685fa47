package governance

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eb-examples/ebgov/pipeline"
	"github.com/eb-examples/ebgov/pipeline/diagnostics"
)

func present(label string) diagnostics.Observation {
	return diagnostics.Observation{Present: true, Label: &label}
}

func passing(scope string, hr float64) diagnostics.Context {
	return diagnostics.Context{Scope: scope, HRTau: &hr, DQC: present("OK"), FPC: present("COMPATIBLE")}
}

func TestDecide_ThresholdScenario(t *testing.T) {
	e := NewEngine(pipeline.DefaultPolicy())

	// GIVEN entity A at 0.75 and entity B at 0.65, both structurally fine
	a := e.Decide(passing("A", 0.75))
	b := e.Decide(passing("B", 0.65))

	// THEN A is permitted and B is not, with the comparison recorded
	assert.True(t, a.AllowAdjustment)
	assert.Equal(t, []string{"HR@τ=0.750000 vs threshold 0.700000", ReasonPermitted}, a.Reasons)

	assert.False(t, b.AllowAdjustment)
	assert.Equal(t, []string{"HR@τ=0.650000 vs threshold 0.700000", ReasonDenied}, b.Reasons)
}

func TestDecide_MissingDiagnosticRows_Closed(t *testing.T) {
	e := NewEngine(pipeline.DefaultPolicy())

	// GIVEN an entity with a passing metric but no DQC/FPC rows at all
	hr := 0.99
	d := e.Decide(diagnostics.Context{Scope: "ghost", HRTau: &hr})

	// THEN adjustment is closed and the missing rows are named
	assert.False(t, d.AllowAdjustment)
	assert.Equal(t, []string{
		"Missing DQC row for this forecast_entity_id.",
		"Missing FPC row for this forecast_entity_id.",
		"HR@τ=0.990000 vs threshold 0.700000",
		ReasonDenied,
	}, d.Reasons)
}

func TestDecide_OneMissingRow_NamesOnlyThatRow(t *testing.T) {
	e := NewEngine(pipeline.DefaultPolicy())
	c := passing("x", 0.9)
	c.FPC = diagnostics.Observation{}

	d := e.Decide(c)
	assert.False(t, d.AllowAdjustment)
	assert.Equal(t, "Missing FPC row for this forecast_entity_id.", d.Reasons[0])
	assert.NotContains(t, d.Reasons, "Missing DQC row for this forecast_entity_id.")
}

func TestDecide_AbsentLabelsDoNotBlock(t *testing.T) {
	e := NewEngine(pipeline.DefaultPolicy())
	hr := 0.8
	d := e.Decide(diagnostics.Context{
		Scope: "x", HRTau: &hr,
		DQC: diagnostics.Observation{Present: true},
		FPC: diagnostics.Observation{Present: true},
	})
	assert.True(t, d.AllowAdjustment)
	assert.Len(t, d.Reasons, 4)
}

func TestDecide_BlockedLabel(t *testing.T) {
	e := NewEngine(pipeline.DefaultPolicy())
	c := passing("x", 0.9)
	c.DQC = present("not_block_worthy")

	d := e.Decide(c)
	assert.False(t, d.AllowAdjustment)
	assert.Equal(t, "DQC not admissible: NOT_BLOCK_WORTHY", d.Reasons[0])
}

func TestDecide_MissingMetric(t *testing.T) {
	e := NewEngine(pipeline.DefaultPolicy())
	c := passing("x", 0)
	c.HRTau = nil

	d := e.Decide(c)
	assert.False(t, d.AllowAdjustment)
	assert.Equal(t, []string{MissingMetricReason, ReasonDenied}, d.Reasons)
}

func TestDecide_EmbedsPolicySnapshot(t *testing.T) {
	// GIVEN an overridden policy
	p := pipeline.DefaultPolicy().WithOverrides(float64Ptr(0.5), true)
	e := NewEngine(p)

	d := e.Decide(passing("x", 0.6))

	// THEN the decision is self-describing
	assert.True(t, d.AllowAdjustment)
	assert.True(t, d.AllowFallback)
	assert.Equal(t, "v1", d.PolicyVersion)
	assert.Equal(t, []string{pipeline.ModeIdentity}, d.AllowedModes)
	assert.Equal(t, pipeline.ThresholdSnapshot{Metric: "hr_tau", Tau: 2.0, Minimum: 0.5}, d.ThresholdSnapshot)
}

func TestDecide_DecisionsDoNotShareModeSlices(t *testing.T) {
	e := NewEngine(pipeline.DefaultPolicy())
	a := e.Decide(passing("a", 0.9))
	b := e.Decide(passing("b", 0.9))
	a.AllowedModes[0] = "mutated"
	assert.Equal(t, pipeline.ModeIdentity, b.AllowedModes[0])
	assert.Equal(t, pipeline.ModeIdentity, e.Policy().AllowedModes[0])
}

func TestDecideAll_ParallelMatchesSerialAndSorts(t *testing.T) {
	e := NewEngine(pipeline.DefaultPolicy())
	var ctxs []diagnostics.Context
	for i := 99; i >= 0; i-- {
		ctxs = append(ctxs, passing(fmt.Sprintf("e%03d", i), float64(i)/100))
	}

	serial, err := e.DecideAll(context.Background(), ctxs, 1)
	require.NoError(t, err)
	parallel, err := e.DecideAll(context.Background(), ctxs, 7)
	require.NoError(t, err)

	assert.Equal(t, serial, parallel)
	require.Len(t, parallel, 100)
	assert.Equal(t, "e000", parallel[0].Scope)
	assert.Equal(t, "e099", parallel[99].Scope)
	assert.True(t, parallel[70].AllowAdjustment)
	assert.False(t, parallel[69].AllowAdjustment)
}

func TestDecideAll_Empty(t *testing.T) {
	out, err := NewEngine(pipeline.DefaultPolicy()).DecideAll(context.Background(), nil, 4)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestDecideAll_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewEngine(pipeline.DefaultPolicy()).DecideAll(ctx, []diagnostics.Context{passing("a", 1)}, 2)
	assert.ErrorIs(t, err, context.Canceled)
}

// TestDecideAll_Determinism verifies byte-identical output for any arrival order.
func TestDecideAll_Determinism(t *testing.T) {
	e := NewEngine(pipeline.DefaultPolicy())
	base := []diagnostics.Context{
		passing("delta", 0.71), passing("alpha", 0.2), passing("charlie", 0.7),
		{Scope: "bravo"}, passing("echo", 0.95),
	}
	want, err := e.DecideAll(context.Background(), base, 1)
	require.NoError(t, err)
	wantBytes, err := json.Marshal(want)
	require.NoError(t, err)

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("shuffled input and worker count give identical bytes", prop.ForAll(
		func(seed int64, workers int) bool {
			shuffled := append([]diagnostics.Context(nil), base...)
			rand.New(rand.NewSource(seed)).Shuffle(len(shuffled), func(i, j int) {
				shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
			})
			got, err := e.DecideAll(context.Background(), shuffled, workers)
			if err != nil {
				return false
			}
			gotBytes, err := json.Marshal(got)
			return err == nil && string(gotBytes) == string(wantBytes)
		},
		gen.Int64(),
		gen.IntRange(1, 8),
	))

	properties.TestingRun(t)
}
