package artifact

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eb-examples/ebgov/pipeline"
	"github.com/eb-examples/ebgov/pipeline/governance"
	"github.com/eb-examples/ebgov/pipeline/serving"
)

func TestCanonicalJSON_SortsKeys(t *testing.T) {
	type doc struct {
		Zeta  int     `json:"zeta"`
		Alpha float64 `json:"alpha"`
	}

	data, err := CanonicalJSON(doc{Zeta: 1, Alpha: 0.5})

	require.NoError(t, err)
	assert.Equal(t, `{"alpha":0.5,"zeta":1}`, string(data))
}

func TestCanonicalJSON_MapOrderIndependent(t *testing.T) {
	a, err := CanonicalJSON(map[string]int{"b": 2, "a": 1, "c": 3})
	require.NoError(t, err)
	b, err := CanonicalJSON(map[string]int{"c": 3, "a": 1, "b": 2})
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestEncodeDocument_PolicyDescriptor(t *testing.T) {
	// GIVEN a descriptor for the default policy
	d := governance.Describe(pipeline.DefaultPolicy(), "governance_v1", Digest([]byte("table")), nil)

	// WHEN encoded
	data, err := EncodeDocument(SchemaPolicyDescriptor, d)

	// THEN it satisfies the contract and ends with a newline
	require.NoError(t, err)
	assert.Equal(t, byte('\n'), data[len(data)-1])
	assert.Contains(t, string(data), `"allowed_ral_modes_if_permitted":["identity"]`)
}

func TestEncodeDocument_RejectsBadDigest(t *testing.T) {
	// GIVEN a descriptor whose digest is not a SHA-256
	d := governance.Describe(pipeline.DefaultPolicy(), "governance_v1", "nope", nil)

	// WHEN encoded
	_, err := EncodeDocument(SchemaPolicyDescriptor, d)

	// THEN the schema rejects it before anything is written
	require.Error(t, err)
	assert.Contains(t, err.Error(), SchemaPolicyDescriptor)
}

func TestEncodeDocument_ServingManifest(t *testing.T) {
	inputs := map[string]serving.InputRef{
		"baseline": {Path: "panel_point_forecast_v1.csv", SHA256: Digest([]byte("b"))},
	}
	m := serving.NewManifest("base", inputs, map[string]int{"baseline": 3, "ral": 1})

	_, err := EncodeDocument(SchemaServingManifest, m)

	assert.NoError(t, err)
}

func TestValidateDocument_UnknownSchema(t *testing.T) {
	err := ValidateDocument("nope.schema.json", []byte(`{}`))

	assert.ErrorContains(t, err, "unknown document schema")
}

func TestReadDocument(t *testing.T) {
	l := NewLayout(t.TempDir())
	d := governance.Describe(pipeline.DefaultPolicy(), "governance_v1", Digest([]byte("t")), nil)
	data, err := EncodeDocument(SchemaPolicyDescriptor, d)
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(l.GovernanceDir(), 0o755))
	require.NoError(t, os.WriteFile(l.GovernancePolicy().Path, data, 0o644))

	var got governance.PolicyDescriptor
	require.NoError(t, ReadDocument(l.GovernancePolicy(), &got))

	assert.Equal(t, d.DecisionTableSHA256, got.DecisionTableSHA256)
	assert.Equal(t, "v1", got.Version)
}
