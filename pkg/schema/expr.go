package schema

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// Expr is an {expression, default_value} block. HasDefault distinguishes an
// absent default from an explicit null one: with a default, a failed
// evaluation falls back to it; without one, the assignment is skipped.
type Expr struct {
	Expression   string `mapstructure:"expression"`
	DefaultValue any    `mapstructure:"default_value"`
	HasDefault   bool   `mapstructure:"-"`
}

// AsExpr reports whether a raw value is an expression block and decodes it
// if so. Any mapping carrying an "expression" key counts; plain literals
// (including other mappings) do not.
func AsExpr(value any) (*Expr, bool) {
	m, ok := value.(map[string]any)
	if !ok {
		return nil, false
	}
	if _, ok := m["expression"]; !ok {
		return nil, false
	}
	var e Expr
	if err := mapstructure.Decode(m, &e); err != nil {
		return nil, false
	}
	_, e.HasDefault = m["default_value"]
	return &e, true
}

// SequenceSpec configures one sequence action entry. ID switches the
// counter from rule-isolated to shared mode. Format, when set, has its
// literal {counter} marker replaced with the counter value.
type SequenceSpec struct {
	ID     string `mapstructure:"id"`
	Start  int    `mapstructure:"start"`
	Step   int    `mapstructure:"step"`
	Format string `mapstructure:"format"`
}

// AsSequenceSpec decodes a raw sequence entry value, applying the start=0,
// step=1 defaults. Sequence entries must be mappings.
func AsSequenceSpec(value any) (*SequenceSpec, error) {
	m, ok := value.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("sequence spec must be a mapping, got %T", value)
	}
	spec := &SequenceSpec{Step: 1}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           spec,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(m); err != nil {
		return nil, fmt.Errorf("invalid sequence spec: %w", err)
	}
	return spec, nil
}
