package pipeline

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the fatal taxonomy. Typed errors below unwrap to these.
var (
	ErrMissingArtifact = errors.New("missing artifact")
	ErrSchema          = errors.New("schema error")
	ErrMalformedKey    = errors.New("malformed key")
	ErrValidation      = errors.New("validation error")
)

// MissingArtifactError reports a required upstream table or document that does
// not exist, with the step expected to produce it.
type MissingArtifactError struct {
	Artifact string
	Path     string
	Producer string
}

func (e *MissingArtifactError) Error() string {
	return fmt.Sprintf("missing required input %s at %s (produced by: %s)", e.Artifact, e.Path, e.Producer)
}

func (e *MissingArtifactError) Unwrap() error { return ErrMissingArtifact }

// SchemaError reports a table that lacks a key or required column under any
// accepted alias.
type SchemaError struct {
	Table   string
	Missing []string
	Present []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s missing required columns (any of): [%s]; got: [%s]",
		e.Table, strings.Join(e.Missing, ", "), strings.Join(e.Present, ", "))
}

func (e *SchemaError) Unwrap() error { return ErrSchema }

// MalformedKeyError reports a composite key without the "::" delimiter.
type MalformedKeyError struct {
	Key string
}

func (e *MalformedKeyError) Error() string {
	return fmt.Sprintf("unexpected entity_id format: %q (expected 'site_id%sforecast_entity_id')", e.Key, KeyDelimiter)
}

func (e *MalformedKeyError) Unwrap() error { return ErrMalformedKey }

// ValidationError reports a cardinality violation on a join declared
// one-to-one or many-to-one.
type ValidationError struct {
	Join   string
	Detail string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Join, e.Detail)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }
