package reshape

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/reshape/internal/engine"
	"github.com/aretw0/reshape/internal/logging"
	"github.com/aretw0/reshape/pkg/events"
	"github.com/aretw0/reshape/pkg/schema"
)

// Converter is the high-level entry point for the library. It binds a
// decoded rule set to an evaluation engine and converts one tree per call.
type Converter struct {
	rules     *schema.RuleSet
	engine    *engine.Engine
	overrides map[string]int
	hooks     events.Hooks
	logger    *slog.Logger
}

// Option defines a functional option for configuring the Converter.
type Option func(*Converter)

// WithLogger sets a custom structured logger. The default discards
// everything.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Converter) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithHooks registers observability hooks for item progress and per-rule
// diagnostics.
func WithHooks(hooks events.Hooks) Option {
	return func(c *Converter) {
		c.hooks = hooks
	}
}

// WithSequenceOverrides sets the initial values for sequence counters,
// keyed by sequence id (or by path for counters without an id). An
// override replaces the counter's declared start when the counter is
// first used in a conversion.
func WithSequenceOverrides(overrides map[string]int) Option {
	return func(c *Converter) {
		c.overrides = overrides
	}
}

// New builds a Converter for the given rule set.
func New(rules *schema.RuleSet, opts ...Option) (*Converter, error) {
	if rules == nil {
		return nil, fmt.Errorf("rules are required")
	}

	c := &Converter{rules: rules}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logging.NewNop()
	}

	c.engine = engine.New(
		engine.WithLogger(c.logger),
		engine.WithHooks(c.hooks),
	)
	return c, nil
}

// NewFromBytes decodes a YAML rules document and builds a Converter from
// it. Structural problems in the document are returned as a
// schema.AggregateError.
func NewFromBytes(doc []byte, opts ...Option) (*Converter, error) {
	rules, err := schema.Decode(doc)
	if err != nil {
		return nil, err
	}
	return New(rules, opts...)
}

// Convert applies the rule set to one tree and returns the transformed
// copy. The input is never mutated. Every call owns fresh sequence
// counter state, so converting the same tree twice yields the same
// output.
func (c *Converter) Convert(ctx context.Context, tree map[string]any) (map[string]any, error) {
	return c.engine.ConvertTree(ctx, tree, c.rules, engine.NewCounters(c.overrides))
}

// ConvertAll converts each tree independently, in order. Counter state is
// seeded per tree; sequences never leak across trees. The first error
// aborts the batch.
func (c *Converter) ConvertAll(ctx context.Context, trees []map[string]any) ([]map[string]any, error) {
	out := make([]map[string]any, 0, len(trees))
	for i, t := range trees {
		converted, err := c.Convert(ctx, t)
		if err != nil {
			return nil, fmt.Errorf("tree %d: %w", i, err)
		}
		out = append(out, converted)
	}
	return out, nil
}

// Rules returns the rule set this Converter was built with.
func (c *Converter) Rules() *schema.RuleSet {
	return c.rules
}
