// Package pipeline holds the shared data model of the governance-gated
// adjustment and serving pipeline for the eb_golden_v1 demand-forecast demo.
//
// # Reading Guide
//
// Start with these files:
//   - key.go: composite entity keys ("site::forecast_entity") and their codec
//   - types.go: forecast, decision, adjusted and served rows
//   - policy.go: the immutable governance policy and its YAML loader
//   - errors.go: the fatal error taxonomy
//
// # Architecture
//
// The pipeline package defines types only; each stage lives in a sub-package:
//   - pipeline/diagnostics/: alias resolution and the per-entity context join
//   - pipeline/governance/: admissibility, threshold and decision engine
//   - pipeline/ral/: permission-gated adjustment (Readiness Adjustment Layer)
//   - pipeline/serving/: served-value selection and manifest
//   - pipeline/artifact/: CSV tables, canonical JSON documents, atomic publish
//   - pipeline/ledger/: optional SQLite audit ledger of decisions
//   - pipeline/trace/: run summaries
//   - pipeline/steps/: the govern, ral and serve stages wired to artifacts
//
// Stages never re-derive permission: the Decision produced by governance is
// the only authorization artifact read by ral and serving.
package pipeline
