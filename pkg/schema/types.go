package schema

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// RuleSet is an ordered list of top-level rules, each selecting a content
// type and carrying the nested rules that edit matching records.
type RuleSet struct {
	Rules []Rule
}

// Rule is a top-level rule. Content names the content type whose groups it
// matches ("item" matches the "items", "items2", ... group keys). Context
// definitions are evaluated per record, in declaration order.
type Rule struct {
	Content string
	Context []ContextDef
	Rules   []NestedRule
}

// ContextDef is one context variable definition. Value is either a literal
// or an {expression, default_value} mapping; the engine decides at
// resolution time via AsExpr.
type ContextDef struct {
	Name  string
	Value any
}

// NestedRule is one transformation step. Name is optional but required for
// isolated sequence counters and for other rules to depend on this one.
type NestedRule struct {
	Name       string
	DependsOn  []string
	Conditions []Condition
	Actions    Actions
}

// Condition is a single predicate over a record field. All present checks
// are ANDed. Value, Min and Max stay loosely typed because placeholder
// substitution may rewrite them per record before evaluation.
type Condition struct {
	Path       string
	Exists     *bool
	Value      any
	HasValue   bool
	RegexMatch *string
	Min        any
	Max        any
}

// Actions is the action block of a nested rule. Slices are nil when the
// corresponding action is absent. Entry order within each action mirrors
// the document and is preserved because paths may overlap.
type Actions struct {
	Skip     bool
	Delete   []any
	Rename   []PathPair
	Set      []PathValue
	Append   []PathValue
	Prepend  []PathValue
	Sequence []PathValue
}

// PathPair is one rename entry, old path to new path.
type PathPair struct {
	Old string
	New string
}

// PathValue is one path-keyed action entry with its raw value.
type PathValue struct {
	Path  string
	Value any
}

// UnmarshalYAML decodes the top-level rules document.
func (rs *RuleSet) UnmarshalYAML(node *yaml.Node) error {
	var doc struct {
		Rules []Rule `yaml:"rules"`
	}
	if err := node.Decode(&doc); err != nil {
		return err
	}
	rs.Rules = doc.Rules
	return nil
}

// UnmarshalYAML decodes a top-level rule, keeping context definition order.
func (r *Rule) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: rule must be a mapping", node.Line)
	}
	for i := 0; i < len(node.Content)-1; i += 2 {
		key, val := node.Content[i], node.Content[i+1]
		switch key.Value {
		case "content":
			if err := val.Decode(&r.Content); err != nil {
				return err
			}
		case "context":
			defs, err := decodeOrderedMapping(val, "context")
			if err != nil {
				return err
			}
			for _, d := range defs {
				r.Context = append(r.Context, ContextDef{Name: d.Path, Value: d.Value})
			}
		case "rules":
			if err := val.Decode(&r.Rules); err != nil {
				return err
			}
		}
	}
	return nil
}

// UnmarshalYAML decodes a nested rule. depends_on accepts a single name or
// a sequence of names.
func (nr *NestedRule) UnmarshalYAML(node *yaml.Node) error {
	var raw struct {
		Name       string      `yaml:"name"`
		DependsOn  yaml.Node   `yaml:"depends_on"`
		Conditions []Condition `yaml:"conditions"`
		Actions    Actions     `yaml:"actions"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}
	nr.Name = raw.Name
	nr.Conditions = raw.Conditions
	nr.Actions = raw.Actions

	switch raw.DependsOn.Kind {
	case 0:
		// absent
	case yaml.ScalarNode:
		var single string
		if err := raw.DependsOn.Decode(&single); err != nil {
			return err
		}
		if single != "" {
			nr.DependsOn = []string{single}
		}
	case yaml.SequenceNode:
		if err := raw.DependsOn.Decode(&nr.DependsOn); err != nil {
			return err
		}
	default:
		return fmt.Errorf("line %d: depends_on must be a name or a sequence of names", raw.DependsOn.Line)
	}
	return nil
}

// UnmarshalYAML decodes a condition, tracking which optional checks were
// actually present.
func (c *Condition) UnmarshalYAML(node *yaml.Node) error {
	var raw map[string]any
	if err := node.Decode(&raw); err != nil {
		return err
	}
	if path, ok := raw["path"].(string); ok {
		c.Path = path
	}
	if v, ok := raw["exists"]; ok {
		b, ok := v.(bool)
		if !ok {
			return fmt.Errorf("line %d: exists must be a boolean", node.Line)
		}
		c.Exists = &b
	}
	if v, ok := raw["value"]; ok {
		c.Value = v
		c.HasValue = true
	}
	if v, ok := raw["regex_match"]; ok {
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("line %d: regex_match must be a string", node.Line)
		}
		c.RegexMatch = &s
	}
	if v, ok := raw["min"]; ok {
		c.Min = v
	}
	if v, ok := raw["max"]; ok {
		c.Max = v
	}
	return nil
}

// UnmarshalYAML decodes an action block, preserving entry order inside each
// action mapping.
func (a *Actions) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: actions must be a mapping", node.Line)
	}
	for i := 0; i < len(node.Content)-1; i += 2 {
		key, val := node.Content[i], node.Content[i+1]
		var err error
		switch key.Value {
		case "skip":
			err = val.Decode(&a.Skip)
		case "delete":
			err = val.Decode(&a.Delete)
		case "rename":
			a.Rename, err = decodeRenamePairs(val)
		case "set":
			a.Set, err = decodeOrderedMapping(val, "set")
		case "append":
			a.Append, err = decodeOrderedMapping(val, "append")
		case "prepend":
			a.Prepend, err = decodeOrderedMapping(val, "prepend")
		case "sequence":
			a.Sequence, err = decodeOrderedMapping(val, "sequence")
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func decodeOrderedMapping(node *yaml.Node, action string) ([]PathValue, error) {
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: %s must be a mapping", node.Line, action)
	}
	entries := make([]PathValue, 0, len(node.Content)/2)
	for i := 0; i < len(node.Content)-1; i += 2 {
		var value any
		if err := node.Content[i+1].Decode(&value); err != nil {
			return nil, err
		}
		entries = append(entries, PathValue{Path: node.Content[i].Value, Value: value})
	}
	return entries, nil
}

func decodeRenamePairs(node *yaml.Node) ([]PathPair, error) {
	entries, err := decodeOrderedMapping(node, "rename")
	if err != nil {
		return nil, err
	}
	pairs := make([]PathPair, 0, len(entries))
	for _, e := range entries {
		to, ok := e.Value.(string)
		if !ok {
			return nil, fmt.Errorf("rename target for %q must be a path string, got %T", e.Path, e.Value)
		}
		pairs = append(pairs, PathPair{Old: e.Path, New: to})
	}
	return pairs, nil
}
