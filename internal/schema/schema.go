// Package schema validates caller-supplied JSON Schemas.
//
// Extraction requests carry an arbitrary JSON Schema describing the shape of
// the data to pull out of the text. Before that schema is translated into a
// callable function it must itself be a structurally valid Draft 2020-12
// schema document.
package schema

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Validate checks that raw is a structurally valid JSON Schema
// (Draft 2020-12). It validates the schema document itself, not any instance
// data. The returned error carries the validator's message and is suitable
// for embedding in a client-facing response.
func Validate(raw json.RawMessage) error {
	if len(raw) == 0 {
		return fmt.Errorf("schema must not be empty")
	}

	// The document must at least be valid JSON before the compiler sees it.
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("schema is not valid JSON: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource("schema.json", bytes.NewReader(raw)); err != nil {
		return err
	}
	if _, err := compiler.Compile("schema.json"); err != nil {
		return err
	}
	return nil
}
