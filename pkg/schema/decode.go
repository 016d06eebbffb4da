package schema

import (
	"embed"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

//go:embed data/rules.schema.json
var embeddedSchemaFS embed.FS

// Decode parses a YAML rules document into a RuleSet.
//
// Structure is checked against the embedded JSON schema before typed
// decoding, so a malformed document fails the whole run with an
// AggregateError of StructureErrors rather than half-applying rules. Soft
// problems (missing rule names, conditions without paths) pass validation
// and are handled at apply time.
func Decode(data []byte) (*RuleSet, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse rules document: %w", err)
	}
	if err := validateStructure(raw); err != nil {
		return nil, err
	}

	var rs RuleSet
	if err := yaml.Unmarshal(data, &rs); err != nil {
		return nil, fmt.Errorf("decode rules document: %w", err)
	}
	return &rs, nil
}

// validateStructure round-trips the document through JSON and runs it
// against the embedded schema.
func validateStructure(doc any) error {
	if _, ok := doc.(map[string]any); !ok {
		return &AggregateError{Errors: []error{
			&StructureError{Reason: "rules document must be a mapping with a 'rules' key"},
		}}
	}

	jsonDoc, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("serialize rules document for validation: %w", err)
	}
	schemaBytes, err := embeddedSchemaFS.ReadFile("data/rules.schema.json")
	if err != nil {
		return fmt.Errorf("load embedded rules schema: %w", err)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schemaBytes),
		gojsonschema.NewBytesLoader(jsonDoc),
	)
	if err != nil {
		return fmt.Errorf("rules schema validation: %w", err)
	}
	if result.Valid() {
		return nil
	}

	errs := make([]error, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		errs = append(errs, &StructureError{
			Field:  desc.Field(),
			Reason: desc.Description(),
		})
	}
	return &AggregateError{Errors: errs}
}
