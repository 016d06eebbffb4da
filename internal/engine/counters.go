package engine

import (
	"fmt"

	"github.com/aretw0/reshape/pkg/schema"
)

// counterKey identifies one running sequence. Shared counters key on the
// user-supplied id and cross rule boundaries; isolated counters key on the
// (rule name, path) pair and never interfere with each other.
type counterKey struct {
	shared bool
	id     string
	rule   string
	path   string
}

// Counters tracks every sequence counter for one tree conversion. A counter,
// once created, persists for the lifetime of the Counters instance and
// advances by its step on every use; it is never reset mid-conversion.
//
// Conversions are strictly sequential, so Counters needs no locking, but an
// instance must never be shared between independent conversions: each call
// that converts a tree owns a fresh one.
type Counters struct {
	values    map[counterKey]int
	overrides map[string]int
}

// NewCounters returns empty counter state. overrides maps an override key
// (a sequence id, or a path for isolated counters) to the initial value to
// use instead of the spec's start; an override is consulted only when its
// counter is first created and can never rewind an existing one.
func NewCounters(overrides map[string]int) *Counters {
	return &Counters{
		values:    make(map[counterKey]int),
		overrides: overrides,
	}
}

// Next returns the current value for the counter addressed by spec within
// ruleName/path and advances it by the spec's step. Isolated mode (no id)
// requires a named rule; an unnamed rule would collide with every other
// unnamed rule writing the same path.
func (c *Counters) Next(ruleName, path string, spec *schema.SequenceSpec) (int, error) {
	var key counterKey
	var overrideKey string
	if spec.ID != "" {
		key = counterKey{shared: true, id: spec.ID}
		overrideKey = spec.ID
	} else {
		if ruleName == "" {
			return 0, fmt.Errorf("sequence at %q needs an 'id' or a named rule", path)
		}
		key = counterKey{rule: ruleName, path: path}
		overrideKey = path
	}

	if _, exists := c.values[key]; !exists {
		initial := spec.Start
		if override, ok := c.overrides[overrideKey]; ok {
			initial = override
		}
		c.values[key] = initial
	}

	current := c.values[key]
	c.values[key] = current + spec.Step
	return current, nil
}
