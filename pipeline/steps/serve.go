package steps

import (
	"context"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/eb-examples/ebgov/pipeline"
	"github.com/eb-examples/ebgov/pipeline/artifact"
	"github.com/eb-examples/ebgov/pipeline/serving"
	"github.com/eb-examples/ebgov/pipeline/trace"
)

// ServeResult is what the serving stage published.
type ServeResult struct {
	Rows     []pipeline.ServedRow
	Manifest serving.Manifest
	Summary  *trace.RunSummary
}

// Serve selects the served value for every baseline row and publishes the
// served table with its manifest.
func Serve(ctx context.Context, l artifact.Layout, opts Options) (*ServeResult, error) {
	baseline, err := artifact.ReadForecast(l.Baseline())
	if err != nil {
		return nil, err
	}
	decisions, _, err := artifact.ReadDecisions(l.Governance())
	if err != nil {
		return nil, err
	}
	adjusted, err := artifact.ReadAdjusted(l.RAL())
	if err != nil {
		return nil, err
	}
	checkGovernance(l, opts.Policy)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rows, err := serving.Select(baseline, adjusted, decisions)
	if err != nil {
		return nil, err
	}
	inputs := make(map[string]serving.InputRef, 3)
	for _, a := range []artifact.Artifact{l.Baseline(), l.Governance(), l.RAL()} {
		digest, err := artifact.FileDigest(a.Path)
		if err != nil {
			return nil, err
		}
		rel, err := filepath.Rel(l.Base, a.Path)
		if err != nil {
			rel = a.Path
		}
		inputs[a.Name] = serving.InputRef{Path: filepath.ToSlash(rel), SHA256: digest}
	}
	counts := make(map[string]int, 2)
	for src, n := range serving.CountBySource(rows) {
		counts[string(src)] = n
	}
	manifest := serving.NewManifest(l.Base, inputs, counts)

	table, err := artifact.EncodeServed(rows)
	if err != nil {
		return nil, err
	}
	doc, err := artifact.EncodeDocument(artifact.SchemaServingManifest, manifest)
	if err != nil {
		return nil, err
	}
	var batch artifact.Batch
	batch.Add(l.Served().Path, table)
	batch.Add(l.ServedManifest().Path, doc)
	if err := batch.Commit(); err != nil {
		return nil, err
	}

	rt := trace.NewRunTrace()
	rt.RecordServed(rows)
	summary := trace.Summarize(rt)
	logrus.Infof("Serving OK: %d rows (baseline=%d, ral=%d)", summary.ServedRows,
		summary.SourceDistribution[string(pipeline.SourceBaseline)], summary.SourceDistribution[string(pipeline.SourceRAL)])
	logrus.Infof("- output:   %s", l.Served().Path)
	logrus.Infof("- manifest: %s", l.ServedManifest().Path)
	logrus.Infof("- run id:   %s", manifest.RunID)
	return &ServeResult{Rows: rows, Manifest: manifest, Summary: summary}, nil
}
