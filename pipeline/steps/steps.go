// Package steps runs the pipeline stages against an artifact layout: each
// stage reads its inputs from disk, computes, and publishes its outputs
// atomically. Stages are fail-fast; a missing input names the step that
// should have produced it.
package steps

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/eb-examples/ebgov/pipeline"
	"github.com/eb-examples/ebgov/pipeline/artifact"
	"github.com/eb-examples/ebgov/pipeline/governance"
)

// Options carries the invocation-time settings shared by every stage.
type Options struct {
	Policy     pipeline.Policy
	Mode       string // RAL mode to run; "" means identity
	Workers    int    // decision evaluation parallelism; < 1 means 1
	NoFAS      bool   // skip the optional FAS diagnostic
	LedgerPath string // optional SQLite audit ledger
	Now        func() time.Time
}

// DefaultOptions returns options for the default policy.
func DefaultOptions() Options {
	return Options{Policy: pipeline.DefaultPolicy(), Mode: pipeline.ModeIdentity, Workers: 1}
}

func (o Options) mode() string {
	if o.Mode == "" {
		return pipeline.ModeIdentity
	}
	return o.Mode
}

func (o Options) now() time.Time {
	if o.Now == nil {
		return time.Now()
	}
	return o.Now()
}

// Step is one named pipeline stage.
type Step struct {
	Name        string
	Description string
	Run         func(ctx context.Context, l artifact.Layout, opts Options) error
}

// Ordered returns the stages in execution order.
func Ordered() []Step {
	return []Step{
		{
			Name:        "govern",
			Description: "decide per forecast entity whether adjustment is permitted",
			Run: func(ctx context.Context, l artifact.Layout, opts Options) error {
				_, err := Govern(ctx, l, opts)
				return err
			},
		},
		{
			Name:        "ral",
			Description: "apply the readiness adjustment where governance permits",
			Run: func(ctx context.Context, l artifact.Layout, opts Options) error {
				_, err := Adjust(ctx, l, opts)
				return err
			},
		},
		{
			Name:        "serve",
			Description: "select the served value per series and interval",
			Run: func(ctx context.Context, l artifact.Layout, opts Options) error {
				_, err := Serve(ctx, l, opts)
				return err
			},
		},
	}
}

// OutputStatus reports whether a key output exists after a run.
type OutputStatus struct {
	Artifact artifact.Artifact
	OK       bool
}

// CheckOutputs lists the key outputs of the layout with their presence.
func CheckOutputs(l artifact.Layout) []OutputStatus {
	outs := l.KeyOutputs()
	status := make([]OutputStatus, 0, len(outs))
	for _, a := range outs {
		status = append(status, OutputStatus{Artifact: a, OK: a.Exists()})
	}
	return status
}

// Run executes every stage in order and stops at the first failure.
func Run(ctx context.Context, l artifact.Layout, opts Options) error {
	for _, s := range Ordered() {
		if err := ctx.Err(); err != nil {
			return err
		}
		logrus.Infof("==> %s", s.Name)
		if err := s.Run(ctx, l, opts); err != nil {
			return fmt.Errorf("step %s: %w", s.Name, err)
		}
	}
	return nil
}

// checkGovernance warns when the governance artifacts on disk were produced
// under a different policy major version, or when the decision table no
// longer matches the digest its descriptor pinned. A missing descriptor is
// tolerated; the decision table itself is the binding input.
func checkGovernance(l artifact.Layout, p pipeline.Policy) {
	var desc governance.PolicyDescriptor
	if err := artifact.ReadDocument(l.GovernancePolicy(), &desc); err != nil {
		logrus.Debugf("governance descriptor unavailable: %v", err)
		return
	}
	active, err := p.MajorVersion()
	if err != nil {
		return
	}
	if recorded, err := desc.MajorVersion(); err != nil {
		logrus.Warnf("governance descriptor has unparseable policy version %q", desc.Version)
	} else if recorded != active {
		logrus.Warnf("governance artifact was produced under policy %s; active policy is %s", desc.Version, p.Version)
	}
	digest, err := artifact.FileDigest(l.Governance().Path)
	if err == nil && digest != desc.DecisionTableSHA256 {
		logrus.Warnf("governance table %s does not match the digest recorded in %s",
			l.Governance().Path, filepath.Base(l.GovernancePolicy().Path))
	}
}
