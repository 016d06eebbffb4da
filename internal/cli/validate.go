package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/aretw0/reshape/pkg/schema"
)

// ExecuteValidate checks a rules file: structural validation against the
// embedded schema, then typed decoding. Every structural problem is
// listed, not just the first.
func ExecuteValidate(rulesPath string) error {
	renderer := NewStderrRenderer()

	data, err := os.ReadFile(rulesPath)
	if err != nil {
		return fmt.Errorf("reading rules file: %w", err)
	}

	rules, err := schema.Decode(data)
	if err != nil {
		var agg *schema.AggregateError
		if errors.As(err, &agg) {
			for _, issue := range agg.Errors {
				renderer.Errorf("%v", issue)
			}
			return fmt.Errorf("%s has %d structural problems", rulesPath, len(agg.Errors))
		}
		return fmt.Errorf("rules file %s: %w", rulesPath, err)
	}

	total := 0
	for _, top := range rules.Rules {
		total += len(top.Rules)
	}
	renderer.Successf("%s is valid (%d content types, %d rules)", rulesPath, len(rules.Rules), total)
	return nil
}
