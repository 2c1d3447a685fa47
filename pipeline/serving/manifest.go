package serving

import (
	"sort"
	"strings"

	"github.com/google/uuid"
)

// DatasetID names the demo dataset.
const DatasetID = "eb_golden_v1"

// ServedColumns is the schema of the served forecast table.
var ServedColumns = []string{
	"entity_id",
	"forecast_entity_id",
	"interval_start",
	"y_served",
	"served_source",
	// trace columns
	"y_pred",
	"y_pred_ral",
	"ral_mode",
	"ral_applied",
	"allow_adjustment",
}

// InputRef records the provenance of one input artifact.
type InputRef struct {
	Path   string `json:"path"`
	SHA256 string `json:"sha256"`
}

// Manifest describes a served forecast artifact and the inputs behind it.
type Manifest struct {
	DatasetID      string              `json:"dataset_id"`
	ServedArtifact string              `json:"served_artifact"`
	RunID          string              `json:"run_id"`
	BaseDir        string              `json:"base_dir"`
	Inputs         map[string]InputRef `json:"inputs"`
	Schema         []string            `json:"schema"`
	SourceCounts   map[string]int      `json:"served_source_counts"`
	Notes          []string            `json:"notes"`
}

// runNamespace scopes run ids derived from input digests.
var runNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://eb-examples/ebgov/runs"))

// RunID derives a stable run id from the input digests: identical inputs give
// the same id.
func RunID(inputs map[string]InputRef) string {
	names := make([]string, 0, len(inputs))
	for n := range inputs {
		names = append(names, n)
	}
	sort.Strings(names)
	var b strings.Builder
	for _, n := range names {
		b.WriteString(n)
		b.WriteByte('=')
		b.WriteString(inputs[n].SHA256)
		b.WriteByte('\n')
	}
	return uuid.NewSHA1(runNamespace, []byte(b.String())).String()
}

// NewManifest assembles the manifest for a serving run.
func NewManifest(baseDir string, inputs map[string]InputRef, counts map[string]int) Manifest {
	return Manifest{
		DatasetID:      DatasetID,
		ServedArtifact: "served_forecast_v1",
		RunID:          RunID(inputs),
		BaseDir:        baseDir,
		Inputs:         inputs,
		Schema:         append([]string(nil), ServedColumns...),
		SourceCounts:   counts,
		Notes: []string{
			"y_served is the final value intended for downstream consumption.",
			"served_source indicates whether baseline or RAL provided y_served.",
			"Fallback is not implemented in this demo.",
		},
	}
}
