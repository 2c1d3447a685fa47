// Package testutil provides shared test infrastructure for the pipeline
// packages: the golden demo dataset and float assertion helpers.
package testutil

import (
	"encoding/json"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// GoldenExpectations represents the structure of testdata/golden/expected.json.
type GoldenExpectations struct {
	Decisions          []GoldenDecision `json:"decisions"`
	AppliedRows        int              `json:"applied_rows"`
	ServedSourceCounts map[string]int   `json:"served_source_counts"`
}

// GoldenDecision is the expected governance outcome of one scope.
type GoldenDecision struct {
	Scope           string   `json:"forecast_entity_id"`
	AllowAdjustment bool     `json:"allow_adjustment"`
	HRTau           float64  `json:"hr_tau"`
	CWSL            float64  `json:"cwsl"`
	Reasons         []string `json:"reasons"`
}

// goldenDir resolves testdata/golden relative to this source file:
// pipeline/internal/testutil/ → repo root testdata/.
func goldenDir(t *testing.T) string {
	t.Helper()
	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("Failed to get current file path")
	}
	return filepath.Join(filepath.Dir(thisFile), "..", "..", "..", "testdata", "golden")
}

// LoadGoldenExpectations loads the expected outcomes of the golden dataset.
func LoadGoldenExpectations(t *testing.T) *GoldenExpectations {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(goldenDir(t), "expected.json"))
	if err != nil {
		t.Fatalf("Failed to read golden expectations: %v", err)
	}
	var exp GoldenExpectations
	if err := json.Unmarshal(data, &exp); err != nil {
		t.Fatalf("Failed to parse golden expectations: %v", err)
	}
	return &exp
}

// CopyGoldenInputs copies the golden input artifacts into a fresh temporary
// directory and returns it, so tests can publish outputs next to them.
func CopyGoldenInputs(t *testing.T) string {
	t.Helper()
	src := filepath.Join(goldenDir(t), "eb_golden_v1")
	dst := t.TempDir()
	err := filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		return os.WriteFile(target, data, 0o644)
	})
	if err != nil {
		t.Fatalf("Failed to copy golden inputs: %v", err)
	}
	return dst
}

// AssertFloat64Equal compares two float64 values with relative tolerance.
func AssertFloat64Equal(t *testing.T, name string, want, got, relTol float64) {
	t.Helper()
	if want == 0 && got == 0 {
		return
	}
	diff := math.Abs(want - got)
	maxVal := math.Max(math.Abs(want), math.Abs(got))
	if diff/maxVal > relTol {
		t.Errorf("%s: got %v, want %v (diff=%v, relDiff=%v)", name, got, want, diff, diff/maxVal)
	}
}
