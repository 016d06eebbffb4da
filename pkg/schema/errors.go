package schema

import "fmt"

// StructureError represents a single structural violation in a rules
// document, as reported by JSON-schema validation.
type StructureError struct {
	Field  string // JSON-pointer-ish location, e.g. "rules.0.actions"
	Reason string
}

func (e *StructureError) Error() string {
	if e.Field == "" || e.Field == "(root)" {
		return e.Reason
	}
	return fmt.Sprintf("field %q: %s", e.Field, e.Reason)
}

// AggregateError bundles every structural violation found in one pass, so
// rule authors see the full list instead of fixing one at a time.
type AggregateError struct {
	Errors []error
}

func (e *AggregateError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	msg := fmt.Sprintf("%d validation errors:\n", len(e.Errors))
	for i, err := range e.Errors {
		msg += fmt.Sprintf("  %d. %s\n", i+1, err.Error())
	}
	return msg
}

// StructureErrors returns the individual violations if err is an
// AggregateError, nil otherwise.
func StructureErrors(err error) []error {
	if aggr, ok := err.(*AggregateError); ok {
		return aggr.Errors
	}
	return nil
}
