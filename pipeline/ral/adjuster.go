// Package ral applies the Readiness Adjustment Layer to baseline forecasts,
// strictly under governance permission.
package ral

import (
	"fmt"

	"github.com/eb-examples/ebgov/pipeline"
)

// Adjuster transforms one baseline prediction. Implementations must be
// deterministic; history, if needed, is supplied at construction.
type Adjuster interface {
	Name() string
	Adjust(row pipeline.ForecastRow) float64
}

// Identity returns the baseline prediction unchanged.
type Identity struct{}

// Name returns pipeline.ModeIdentity.
func (Identity) Name() string { return pipeline.ModeIdentity }

// Adjust returns row.YPred.
func (Identity) Adjust(row pipeline.ForecastRow) float64 { return row.YPred }

// NewAdjuster creates an adjuster by mode name.
// Valid names: keys of pipeline.ValidRALModes.
func NewAdjuster(mode string) Adjuster {
	switch mode {
	case pipeline.ModeIdentity:
		return Identity{}
	default:
		panic(fmt.Sprintf("unknown RAL mode %q; valid modes: [%s]", mode, pipeline.ModeIdentity))
	}
}
