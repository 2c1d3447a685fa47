package steps

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/eb-examples/ebgov/pipeline"
	"github.com/eb-examples/ebgov/pipeline/artifact"
	"github.com/eb-examples/ebgov/pipeline/diagnostics"
	"github.com/eb-examples/ebgov/pipeline/governance"
	"github.com/eb-examples/ebgov/pipeline/ledger"
	"github.com/eb-examples/ebgov/pipeline/trace"
)

// GovernResult is what the governance stage published.
type GovernResult struct {
	Decisions  []pipeline.Decision
	Descriptor governance.PolicyDescriptor
	Summary    *trace.RunSummary
}

func loadSources(l artifact.Layout, noFAS bool) (diagnostics.Sources, error) {
	var (
		src diagnostics.Sources
		err error
	)
	required := []struct {
		a   artifact.Artifact
		dst **pipeline.Table
	}{
		{l.CWSL(), &src.CWSL},
		{l.HRTau(), &src.HRTau},
		{l.NSLUD(), &src.NSLUD},
		{l.DQC(), &src.DQC},
		{l.FPC(), &src.FPC},
	}
	for _, r := range required {
		if *r.dst, err = artifact.ReadTable(r.a); err != nil {
			return src, err
		}
	}
	if noFAS {
		return src, nil
	}
	if src.FAS, err = artifact.ReadOptionalTable(l.FAS()); err != nil {
		return src, err
	}
	if src.FAS == nil {
		logrus.Infof("FAS diagnostic %s not found; fas_class recorded as absent", l.FAS().Path)
	}
	return src, nil
}

// Govern aggregates the diagnostics, decides every forecast entity scope under
// opts.Policy, and publishes the decision table with its policy descriptor.
func Govern(ctx context.Context, l artifact.Layout, opts Options) (*GovernResult, error) {
	if err := opts.Policy.Validate(); err != nil {
		return nil, fmt.Errorf("invalid policy: %w", err)
	}
	src, err := loadSources(l, opts.NoFAS)
	if err != nil {
		return nil, err
	}
	contexts, err := diagnostics.Aggregate(src)
	if err != nil {
		return nil, err
	}
	decisions, err := governance.NewEngine(opts.Policy).DecideAll(ctx, contexts, opts.Workers)
	if err != nil {
		return nil, err
	}

	table, err := artifact.EncodeDecisions(decisions)
	if err != nil {
		return nil, err
	}
	digest := artifact.Digest(table)
	desc := governance.Describe(opts.Policy, l.Governance().Name, digest, decisions)
	doc, err := artifact.EncodeDocument(artifact.SchemaPolicyDescriptor, desc)
	if err != nil {
		return nil, err
	}

	// Record before publishing. Recording is idempotent per table digest.
	if opts.LedgerPath != "" {
		if err := record(ctx, opts, desc, decisions); err != nil {
			return nil, err
		}
	}

	var batch artifact.Batch
	batch.Add(l.Governance().Path, table)
	batch.Add(l.GovernancePolicy().Path, doc)
	if err := batch.Commit(); err != nil {
		return nil, err
	}

	rt := trace.NewRunTrace()
	rt.RecordDecisions(decisions)
	summary := trace.Summarize(rt)
	logrus.Infof("Governance OK: %d scopes, %d permitted, %d blocked", summary.TotalDecisions, summary.PermittedCount, summary.BlockedCount)
	logrus.Infof("- output: %s", l.Governance().Path)
	logrus.Infof("- policy: %s", l.GovernancePolicy().Path)
	return &GovernResult{Decisions: decisions, Descriptor: desc, Summary: summary}, nil
}

func record(ctx context.Context, opts Options, desc governance.PolicyDescriptor, decisions []pipeline.Decision) error {
	lg, err := ledger.Open(opts.LedgerPath)
	if err != nil {
		return err
	}
	defer func() { _ = lg.Close() }()
	run := ledger.Run{
		ID:                  ledger.RunID(desc.DecisionTableSHA256),
		PolicyVersion:       desc.Version,
		HRTauMin:            desc.HRTauMin,
		DecisionTableSHA256: desc.DecisionTableSHA256,
		DecisionCount:       desc.DecisionCount,
		PermittedCount:      desc.PermittedCount,
		RecordedAt:          opts.now(),
	}
	if err := lg.Record(ctx, run, decisions); err != nil {
		return err
	}
	logrus.Infof("- ledger: %s (run %s)", opts.LedgerPath, run.ID)
	return nil
}
