package diagnostics

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eb-examples/ebgov/pipeline"
)

func TestAggregate_JoinsAndSortsByScope(t *testing.T) {
	// GIVEN metrics for burger (2 sites), fries and shake, DQC/FPC for burger and fries only
	ctxs, err := Aggregate(goldenSources())
	require.NoError(t, err)

	// THEN one context per primary scope, sorted
	require.Len(t, ctxs, 3)
	assert.Equal(t, "burger", ctxs[0].Scope)
	assert.Equal(t, "fries", ctxs[1].Scope)
	assert.Equal(t, "shake", ctxs[2].Scope)

	burger := ctxs[0]
	assert.InDelta(t, 1.0, *burger.CWSL, 1e-12)
	assert.InDelta(t, 0.75, *burger.HRTau, 1e-12)
	assert.InDelta(t, 0.9, *burger.NSL, 1e-12)
	assert.InDelta(t, 1.2, *burger.UD, 1e-12)
	assert.True(t, burger.DQC.Present)
	assert.Equal(t, "PIECEWISE_OK", *burger.DQC.Label)
	assert.True(t, burger.FPC.Present, "row present with empty label")
	assert.Nil(t, burger.FPC.Label)
	assert.False(t, burger.FAS.Present, "no FAS table supplied")
}

func TestAggregate_UnmatchedRowsPreserved(t *testing.T) {
	ctxs, err := Aggregate(goldenSources())
	require.NoError(t, err)

	shake := ctxs[2]
	assert.Nil(t, shake.HRTau, "no hr_tau row for shake")
	assert.False(t, shake.DQC.Present)
	assert.False(t, shake.FPC.Present)
}

func TestAggregate_NoSilentDrop(t *testing.T) {
	// GIVEN a primary table with more scopes than any other source
	src := goldenSources()
	src.CWSL = table("cwsl_v1", "entity_id,cwsl",
		"s1::a,1", "s1::b,1", "s2::b,1", "s1::c,1", "s1::d,1", "s9::e,1",
	)

	ctxs, err := Aggregate(src)
	require.NoError(t, err)

	// THEN every distinct primary scope yields a context
	assert.Len(t, ctxs, 5)
}

func TestAggregate_WithFAS(t *testing.T) {
	src := goldenSources()
	src.FAS = table("fas_v1", "id,fas_class", "burger,FORECASTABLE")

	ctxs, err := Aggregate(src)
	require.NoError(t, err)
	assert.True(t, ctxs[0].FAS.Present)
	assert.Equal(t, "FORECASTABLE", *ctxs[0].FAS.Label)
	assert.False(t, ctxs[1].FAS.Present)
}

func TestAggregate_PropagatesSchemaError(t *testing.T) {
	src := goldenSources()
	src.FPC = table("fpc_v1", "sku,fpc_class", "burger,OK")

	_, err := Aggregate(src)
	assert.True(t, errors.Is(err, pipeline.ErrSchema))
}

func TestAggregate_RowOrderDoesNotChangeOutput(t *testing.T) {
	a, err := Aggregate(goldenSources())
	require.NoError(t, err)

	src := goldenSources()
	rows := src.CWSL.Rows
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
	b, err := Aggregate(src)
	require.NoError(t, err)

	assert.Equal(t, a, b)
}
