package steps

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/eb-examples/ebgov/pipeline"
	"github.com/eb-examples/ebgov/pipeline/artifact"
	"github.com/eb-examples/ebgov/pipeline/ral"
	"github.com/eb-examples/ebgov/pipeline/trace"
)

// Adjust applies the configured adjuster to the baseline forecast wherever the
// published governance decisions permit, and publishes the RAL table and its
// trace.
func Adjust(ctx context.Context, l artifact.Layout, opts Options) (*ral.Result, error) {
	mode := opts.mode()
	if !pipeline.ValidRALModes[mode] {
		return nil, fmt.Errorf("unknown RAL mode %q", mode)
	}
	baseline, err := artifact.ReadForecast(l.Baseline())
	if err != nil {
		return nil, err
	}
	decisions, _, err := artifact.ReadDecisions(l.Governance())
	if err != nil {
		return nil, err
	}
	checkGovernance(l, opts.Policy)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res, err := ral.Apply(baseline, decisions, ral.NewAdjuster(mode))
	if err != nil {
		return nil, err
	}
	table, err := artifact.EncodeAdjusted(res.Rows)
	if err != nil {
		return nil, err
	}
	tr, err := artifact.EncodeTrace(res.Trace)
	if err != nil {
		return nil, err
	}
	var batch artifact.Batch
	batch.Add(l.RAL().Path, table)
	batch.Add(l.RALTrace().Path, tr)
	if err := batch.Commit(); err != nil {
		return nil, err
	}

	rt := trace.NewRunTrace()
	rt.RecordAdjustments(res.Rows)
	summary := trace.Summarize(rt)
	logrus.Infof("RAL OK: %d rows, %d adjusted (mode %s)", summary.AdjustedRows, summary.AppliedRows, mode)
	logrus.Infof("- output: %s", l.RAL().Path)
	logrus.Infof("- trace:  %s", l.RALTrace().Path)
	return res, nil
}
