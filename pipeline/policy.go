package pipeline

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"slices"

	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"
)

// ModeIdentity is the no-op adjustment shipped with the demo.
const ModeIdentity = "identity"

// ThresholdMetric is the scalar diagnostic the threshold is evaluated on.
const ThresholdMetric = "hr_tau"

// ValidRALModes is the set of recognized adjustment modes.
// Shared by Policy.Validate() and ral.NewAdjuster() to avoid duplication.
var ValidRALModes = map[string]bool{ModeIdentity: true}

// Policy is the conservative governance policy. It is passed by value into the
// decision engine; nothing in decision logic reads package-level configuration.
type Policy struct {
	Version              string   `yaml:"version" json:"version"`
	HRTau                float64  `yaml:"hr_tau" json:"hr_tau"`
	HRTauMin             float64  `yaml:"hr_tau_min" json:"hr_tau_min"`
	AllowFallbackDefault bool     `yaml:"allow_fallback_default" json:"allow_fallback_default"`
	AllowedModes         []string `yaml:"allowed_ral_modes_if_permitted" json:"allowed_ral_modes_if_permitted"`
}

// DefaultPolicy returns the demo policy: HR@τ (τ=2.0) must reach 0.70, no
// fallback, identity RAL only.
func DefaultPolicy() Policy {
	return Policy{
		Version:              "v1",
		HRTau:                2.0,
		HRTauMin:             0.70,
		AllowFallbackDefault: false,
		AllowedModes:         []string{ModeIdentity},
	}
}

// LoadPolicy reads a YAML policy file. Keys absent from the file keep their
// DefaultPolicy values; unknown keys (typos) are rejected.
func LoadPolicy(path string) (Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Policy{}, fmt.Errorf("reading policy config: %w", err)
	}
	p := DefaultPolicy()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	// An empty or comment-only file decodes to io.EOF: no overrides.
	if err := decoder.Decode(&p); err != nil && !errors.Is(err, io.EOF) {
		return Policy{}, fmt.Errorf("parsing policy config: %w", err)
	}
	return p, nil
}

// WithOverrides returns a copy of p with invocation-time overrides applied.
// A nil hrTauMin keeps the configured threshold; allowFallback can only turn
// fallback on.
func (p Policy) WithOverrides(hrTauMin *float64, allowFallback bool) Policy {
	out := p
	out.AllowedModes = slices.Clone(p.AllowedModes)
	if hrTauMin != nil {
		out.HRTauMin = *hrTauMin
	}
	out.AllowFallbackDefault = p.AllowFallbackDefault || allowFallback
	return out
}

// Modes returns a copy of the allowed adjustment modes.
func (p Policy) Modes() []string {
	return slices.Clone(p.AllowedModes)
}

// Snapshot returns the threshold parameters embedded in each decision.
func (p Policy) Snapshot() ThresholdSnapshot {
	return ThresholdSnapshot{Metric: ThresholdMetric, Tau: p.HRTau, Minimum: p.HRTauMin}
}

// MajorVersion parses the policy version leniently ("v1" is 1.0.0).
func (p Policy) MajorVersion() (uint64, error) {
	v, err := semver.NewVersion(p.Version)
	if err != nil {
		return 0, fmt.Errorf("policy version %q: %w", p.Version, err)
	}
	return v.Major(), nil
}

// Validate checks the version, threshold range and adjustment modes.
func (p Policy) Validate() error {
	if _, err := p.MajorVersion(); err != nil {
		return err
	}
	if math.IsNaN(p.HRTauMin) || math.IsInf(p.HRTauMin, 0) {
		return fmt.Errorf("hr_tau_min must be a finite number, got %f", p.HRTauMin)
	}
	if p.HRTauMin < 0 || p.HRTauMin > 1 {
		return fmt.Errorf("hr_tau_min must be in [0, 1], got %f", p.HRTauMin)
	}
	if math.IsNaN(p.HRTau) || math.IsInf(p.HRTau, 0) || p.HRTau < 0 {
		return fmt.Errorf("hr_tau must be a finite non-negative number, got %f", p.HRTau)
	}
	if len(p.AllowedModes) == 0 {
		return fmt.Errorf("allowed_ral_modes_if_permitted must list at least one mode")
	}
	seen := make(map[string]bool, len(p.AllowedModes))
	for _, m := range p.AllowedModes {
		if !ValidRALModes[m] {
			return fmt.Errorf("unknown RAL mode %q; valid modes: [%s]", m, ModeIdentity)
		}
		if seen[m] {
			return fmt.Errorf("duplicate RAL mode %q", m)
		}
		seen[m] = true
	}
	return nil
}
