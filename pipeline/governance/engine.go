package governance

import (
	"context"
	"slices"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/eb-examples/ebgov/pipeline"
	"github.com/eb-examples/ebgov/pipeline/diagnostics"
)

// Terminal reasons closing every reason trail.
const (
	ReasonPermitted = "Adjustment permitted (structural OK and HR threshold met)."
	ReasonDenied    = "Adjustment NOT permitted (conservative policy)."
)

// Engine evaluates the governance policy. It holds no state besides the
// policy value it was built with.
type Engine struct {
	policy pipeline.Policy
}

// NewEngine returns an engine bound to a copy of p.
func NewEngine(p pipeline.Policy) *Engine {
	return &Engine{policy: p.WithOverrides(nil, false)}
}

// Policy returns a copy of the engine's policy.
func (e *Engine) Policy() pipeline.Policy {
	return e.policy.WithOverrides(nil, false)
}

// Decide produces the decision for one context. It is total: every context
// yields a decision.
func (e *Engine) Decide(c diagnostics.Context) pipeline.Decision {
	var (
		structuralOK bool
		reasons      []string
	)
	if !c.DQC.Present || !c.FPC.Present {
		if !c.DQC.Present {
			reasons = append(reasons, "Missing DQC row for this forecast_entity_id.")
		}
		if !c.FPC.Present {
			reasons = append(reasons, "Missing FPC row for this forecast_entity_id.")
		}
	} else {
		adm := EvaluateAdmissibility(Classify(c.DQC.Label), Classify(c.FPC.Label))
		structuralOK = adm.OK
		reasons = append(reasons, adm.Reasons...)
	}

	thr := EvaluateThreshold(c.HRTau, e.policy.HRTauMin)
	reasons = append(reasons, thr.Reason)

	allow := structuralOK && thr.OK
	if allow {
		reasons = append(reasons, ReasonPermitted)
	} else {
		reasons = append(reasons, ReasonDenied)
	}

	logrus.Debugf("governance %s: allow_adjustment=%v structural_ok=%v threshold_ok=%v",
		c.Scope, allow, structuralOK, thr.OK)

	return pipeline.Decision{
		Scope:             c.Scope,
		AllowAdjustment:   allow,
		AllowFallback:     e.policy.AllowFallbackDefault,
		AllowedModes:      e.policy.Modes(),
		PolicyVersion:     e.policy.Version,
		ThresholdSnapshot: e.policy.Snapshot(),
		Reasons:           reasons,
		Context: pipeline.DecisionContext{
			HRTau:    c.HRTau,
			CWSL:     c.CWSL,
			NSL:      c.NSL,
			UD:       c.UD,
			DQCClass: c.DQC.Label,
			FPCClass: c.FPC.Label,
			FASClass: c.FAS.Label,
		},
	}
}

// DecideAll evaluates every context, sharding contiguous ranges across at
// most workers goroutines. Workers only read contexts and write their own
// result slots; the output is sorted by scope regardless of completion order.
// The only error is ctx cancellation.
func (e *Engine) DecideAll(ctx context.Context, contexts []diagnostics.Context, workers int) ([]pipeline.Decision, error) {
	out := make([]pipeline.Decision, len(contexts))
	if workers < 1 {
		workers = 1
	}
	shard := (len(contexts) + workers - 1) / workers

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for lo := 0; lo < len(contexts); lo += shard {
		hi := min(lo+shard, len(contexts))
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				out[i] = e.Decide(contexts[i])
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	slices.SortStableFunc(out, func(a, b pipeline.Decision) int { return strings.Compare(a.Scope, b.Scope) })
	return out, nil
}
