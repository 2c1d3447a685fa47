package artifact

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/gowebpki/jcs"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Embedded document contracts.
const (
	SchemaPolicyDescriptor = "policy_descriptor.schema.json"
	SchemaServingManifest  = "serving_manifest.schema.json"
)

//go:embed schemas/*.json
var schemaFS embed.FS

const schemaBaseURL = "https://ebgov.schemas.local/"

var (
	compileOnce sync.Once
	compiled    map[string]*jsonschema.Schema
	compileErr  error
)

func compileSchemas() {
	entries, err := schemaFS.ReadDir("schemas")
	if err != nil {
		compileErr = fmt.Errorf("listing embedded schemas: %w", err)
		return
	}
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	for _, e := range entries {
		data, err := schemaFS.ReadFile("schemas/" + e.Name())
		if err != nil {
			compileErr = fmt.Errorf("reading schema %s: %w", e.Name(), err)
			return
		}
		if err := c.AddResource(schemaBaseURL+e.Name(), bytes.NewReader(data)); err != nil {
			compileErr = fmt.Errorf("schema %s load failed: %w", e.Name(), err)
			return
		}
	}
	compiled = make(map[string]*jsonschema.Schema, len(entries))
	for _, e := range entries {
		s, err := c.Compile(schemaBaseURL + e.Name())
		if err != nil {
			compileErr = fmt.Errorf("schema %s compile failed: %w", e.Name(), err)
			return
		}
		compiled[e.Name()] = s
	}
}

// CanonicalJSON marshals v and rewrites it in RFC 8785 canonical form, so
// equal values always produce identical bytes.
func CanonicalJSON(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshaling document: %w", err)
	}
	out, err := jcs.Transform(raw)
	if err != nil {
		return nil, fmt.Errorf("canonicalizing document: %w", err)
	}
	return out, nil
}

// ValidateDocument checks JSON bytes against one of the embedded schemas.
func ValidateDocument(schema string, data []byte) error {
	compileOnce.Do(compileSchemas)
	if compileErr != nil {
		return compileErr
	}
	s, ok := compiled[schema]
	if !ok {
		return fmt.Errorf("unknown document schema %q", schema)
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("decoding document: %w", err)
	}
	if err := s.Validate(doc); err != nil {
		return fmt.Errorf("document violates %s: %w", schema, err)
	}
	return nil
}

// EncodeDocument renders v as canonical JSON and validates it against schema.
// A trailing newline is appended for readability on disk.
func EncodeDocument(schema string, v any) ([]byte, error) {
	data, err := CanonicalJSON(v)
	if err != nil {
		return nil, err
	}
	if err := ValidateDocument(schema, data); err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// ReadDocument decodes a JSON artifact into v.
func ReadDocument(a Artifact, v any) error {
	if err := a.Check(); err != nil {
		return err
	}
	data, err := os.ReadFile(a.Path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", a.Name, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parsing %s: %w", a.Name, err)
	}
	return nil
}
