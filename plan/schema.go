package plan

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
	jsonschemago "github.com/swaggest/jsonschema-go"
	"gopkg.in/yaml.v3"
)

const schemaURL = "plan.schema.json"

// Schema returns the JSON schema of a Plan document.
func Schema() ([]byte, error) {
	r := jsonschemago.Reflector{}
	s, err := r.Reflect(Plan{})
	if err != nil {
		return nil, fmt.Errorf("reflecting plan schema: %w", err)
	}
	return json.MarshalIndent(s, "", "  ")
}

func compiled() (*jsonschema.Schema, error) {
	raw, err := Schema()
	if err != nil {
		return nil, err
	}
	c := jsonschema.NewCompiler()
	// The reflector keeps shared types under "definitions".
	c.Draft = jsonschema.Draft7
	if err := c.AddResource(schemaURL, bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("loading plan schema: %w", err)
	}
	return c.Compile(schemaURL)
}

// Validate checks a YAML or JSON plan document against the schema.
func Validate(data []byte) error {
	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidPlan, err)
	}
	// Round trip through json so numbers and maps have the types the validator expects.
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidPlan, err)
	}
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidPlan, err)
	}

	sch, err := compiled()
	if err != nil {
		return err
	}
	if err := sch.Validate(v); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidPlan, err)
	}
	return nil
}
