package diagnostics

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eb-examples/ebgov/pipeline"
)

func TestClassCandidates_PriorityOrder(t *testing.T) {
	assert.Equal(t, []string{"dqc_class", "class", "status", "dqc"}, ClassCandidates(KindDQC))
}

func TestResolveStructural_AliasPriority(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		row     string
		wantCol string
		want    string
	}{
		{"typed column wins", "forecast_entity_id,status,dqc_class", "a,STATUS,TYPED", "dqc_class", "TYPED"},
		{"class before status", "forecast_entity_id,status,class", "a,STATUS,CLASS", "class", "CLASS"},
		{"status before bare kind", "forecast_entity_id,dqc,status", "a,BARE,STATUS", "status", "STATUS"},
		{"bare kind last", "forecast_entity_id,dqc", "a,BARE", "dqc", "BARE"},
		{"alternate key alias", "FORECAST_ENTITY_ID,dqc_class", "a,OK", "dqc_class", "OK"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			st, err := ResolveStructural(table("dqc_v1", tc.header, tc.row), KindDQC)
			require.NoError(t, err)
			assert.Equal(t, tc.wantCol, st.ClassColumn)
			r, ok := st.Lookup("a")
			require.True(t, ok)
			require.NotNil(t, r.Label)
			assert.Equal(t, tc.want, *r.Label)
		})
	}
}

func TestResolveStructural_NoClassColumn_LabelsAbsent(t *testing.T) {
	st, err := ResolveStructural(table("fpc_v1", "forecast_entity_id,score", "a,1"), KindFPC)
	require.NoError(t, err)
	assert.Equal(t, "", st.ClassColumn)
	r, ok := st.Lookup("a")
	require.True(t, ok, "row is present even without a label")
	assert.Nil(t, r.Label)
}

func TestResolveStructural_NoKey_SchemaError(t *testing.T) {
	_, err := ResolveStructural(table("dqc_v1", "item,dqc_class", "a,OK"), KindDQC)
	var se *pipeline.SchemaError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, ScopeKeyCandidates, se.Missing)
	assert.Equal(t, []string{"item", "dqc_class"}, se.Present)
}

func TestResolveStructural_DuplicateScope_ValidationError(t *testing.T) {
	_, err := ResolveStructural(table("dqc_v1", "forecast_entity_id,dqc_class", "a,OK", "a,BLOCK"), KindDQC)
	require.Error(t, err)
	assert.True(t, errors.Is(err, pipeline.ErrValidation))
}

func TestResolveMetrics_CompositeKey_MeanAcrossSites(t *testing.T) {
	// GIVEN two sites for burger, one with an absent nsl
	mt, err := ResolveMetrics(table("nsl_ud_v1", "entity_id,nsl,ud",
		"s1::burger,0.9,1.0",
		"s2::burger,,2.0",
		"s1::fries,0.5,0.4",
	), MetricNSL, MetricUD)
	require.NoError(t, err)

	// THEN means skip absent values and roll up to scope
	assert.InDelta(t, 0.9, *mt.Value("burger", "nsl"), 1e-12)
	assert.InDelta(t, 1.5, *mt.Value("burger", "ud"), 1e-12)
	assert.Equal(t, []string{"burger", "fries"}, mt.FirstSeenOrder)
	assert.Nil(t, mt.Value("shake", "nsl"))
}

func TestResolveMetrics_AllAbsent_IsNil(t *testing.T) {
	mt, err := ResolveMetrics(table("hr_tau_v1", "entity_id,hr_tau", "s1::a,", "s2::a,NaN"), MetricHRTau)
	require.NoError(t, err)
	assert.Nil(t, mt.Value("a", "hr_tau"))
}

func TestResolveMetrics_ScopeKeyedTable(t *testing.T) {
	mt, err := ResolveMetrics(table("hr_tau_v1", "forecast_entity_id,entity_id,hr_tau", "a,ignored,0.4"), MetricHRTau)
	require.NoError(t, err)
	assert.Equal(t, 0.4, *mt.Value("a", "hr_tau"))
}

func TestResolveMetrics_AliasColumn(t *testing.T) {
	mt, err := ResolveMetrics(table("cwsl_v1", "entity_id,cwsl_mean", "s::a,2.5"), MetricCWSL)
	require.NoError(t, err)
	assert.Equal(t, 2.5, *mt.Value("a", "cwsl"))
}

func TestResolveMetrics_MissingMetricColumn_SchemaError(t *testing.T) {
	_, err := ResolveMetrics(table("hr_tau_v1", "entity_id,hit_rate", "s::a,0.4"), MetricHRTau)
	var se *pipeline.SchemaError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "hr_tau_v1", se.Table)
	assert.Equal(t, []string{"hr_tau"}, se.Missing)
}

func TestResolveMetrics_MalformedCompositeKey_Fatal(t *testing.T) {
	_, err := ResolveMetrics(table("hr_tau_v1", "entity_id,hr_tau", "s::a,0.4", "broken,0.5"), MetricHRTau)
	require.Error(t, err)
	assert.True(t, errors.Is(err, pipeline.ErrMalformedKey))
	assert.Contains(t, err.Error(), "row 2")
}

func TestResolveMetrics_NonNumericCell_SchemaError(t *testing.T) {
	_, err := ResolveMetrics(table("hr_tau_v1", "entity_id,hr_tau", "s::a,high"), MetricHRTau)
	require.Error(t, err)
	assert.True(t, errors.Is(err, pipeline.ErrSchema))
}

func TestMean_OrderIndependent(t *testing.T) {
	a := mean([]float64{0.1, 0.2, 0.3, 1e16, -1e16})
	b := mean([]float64{-1e16, 0.3, 1e16, 0.2, 0.1})
	assert.Equal(t, *a, *b)
}
