// Package artifact reads and publishes the file artifacts of the pipeline:
// CSV tables and canonical JSON documents under one base directory.
package artifact

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/eb-examples/ebgov/pipeline"
)

// DefaultBaseDir is the artifact directory of the demo dataset.
const DefaultBaseDir = "data/demo/eb_golden_v1"

// Artifact names one file, where it lives and which step produces it.
type Artifact struct {
	Name     string
	Path     string
	Producer string
}

// Exists reports whether the artifact file is present.
func (a Artifact) Exists() bool {
	_, err := os.Stat(a.Path)
	return err == nil
}

// Check returns a *pipeline.MissingArtifactError when the file is absent.
func (a Artifact) Check() error {
	if _, err := os.Stat(a.Path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return a.missing()
		}
		return err
	}
	return nil
}

func (a Artifact) missing() error {
	return &pipeline.MissingArtifactError{Artifact: a.Name, Path: a.Path, Producer: a.Producer}
}

// Layout maps artifacts to paths under a base directory.
type Layout struct {
	Base string
}

// NewLayout returns the layout rooted at base, or DefaultBaseDir when empty.
func NewLayout(base string) Layout {
	if base == "" {
		base = DefaultBaseDir
	}
	return Layout{Base: base}
}

func (l Layout) at(name, producer string, parts ...string) Artifact {
	return Artifact{Name: name, Path: filepath.Join(append([]string{l.Base}, parts...)...), Producer: producer}
}

// GovernanceDir is the directory holding the decision table and policy descriptor.
func (l Layout) GovernanceDir() string { return filepath.Join(l.Base, "governance") }

// Baseline is the upstream point forecast panel.
func (l Layout) Baseline() Artifact {
	return l.at("panel_point_forecast_v1", "baseline forecast step", "panel_point_forecast_v1.csv")
}

// CWSL is the CWSL diagnostic table.
func (l Layout) CWSL() Artifact {
	return l.at("cwsl_v1", "CWSL evaluation step", "diagnostics", "cwsl_v1.csv")
}

// HRTau is the HR@τ diagnostic table.
func (l Layout) HRTau() Artifact {
	return l.at("hr_tau_v1", "HR@τ evaluation step", "diagnostics", "hr_tau_v1.csv")
}

// NSLUD is the NSL/UD diagnostic table.
func (l Layout) NSLUD() Artifact {
	return l.at("nsl_ud_v1", "NSL/UD evaluation step", "diagnostics", "nsl_ud_v1.csv")
}

// FAS is the optional FAS diagnostic table.
func (l Layout) FAS() Artifact {
	return l.at("fas_v1", "FAS evaluation step", "diagnostics", "fas_v1.csv")
}

// DQC is the DQC structural diagnostic table.
func (l Layout) DQC() Artifact {
	return l.at("dqc_v1", "DQC evaluation step", "diagnostics", "dqc_v1.csv")
}

// FPC is the forecast-primitive (FPC) structural diagnostic table.
func (l Layout) FPC() Artifact {
	return l.at("fpc_v1", "FPC evaluation step", "diagnostics", "fpc_v1.csv")
}

// Governance is the published decision table.
func (l Layout) Governance() Artifact {
	return l.at("governance_v1", "ebgov govern", "governance", "governance_v1.csv")
}

// GovernancePolicy is the policy descriptor published next to the decision table.
func (l Layout) GovernancePolicy() Artifact {
	return l.at("governance_v1_policy", "ebgov govern", "governance", "governance_v1_policy.json")
}

// RAL is the adjusted forecast panel.
func (l Layout) RAL() Artifact {
	return l.at("panel_point_forecast_v1_ral", "ebgov ral", "ral", "panel_point_forecast_v1_ral.csv")
}

// RALTrace is the per-series adjustment trace.
func (l Layout) RALTrace() Artifact {
	return l.at("ral_trace_v1", "ebgov ral", "ral", "ral_trace_v1.csv")
}

// Served is the final served forecast.
func (l Layout) Served() Artifact {
	return l.at("served_forecast_v1", "ebgov serve", "serving", "served_forecast_v1.csv")
}

// ServedManifest describes the served forecast run.
func (l Layout) ServedManifest() Artifact {
	return l.at("served_forecast_v1_manifest", "ebgov serve", "serving", "served_forecast_v1_manifest.json")
}

// KeyOutputs lists the artifacts a full run is expected to leave behind.
func (l Layout) KeyOutputs() []Artifact {
	return []Artifact{
		l.Baseline(), l.CWSL(), l.HRTau(), l.NSLUD(), l.FAS(), l.DQC(), l.FPC(),
		l.Governance(), l.GovernancePolicy(),
		l.RAL(), l.RALTrace(),
		l.Served(), l.ServedManifest(),
	}
}
