// Package reshape converts hierarchical YAML record trees with declarative
// rule sets.
//
// A rules document declares, per content type, a list of rules. Each rule
// can gate on conditions (existence, equality, regex, numeric ranges),
// depend on earlier rules having applied, and mutate the record through
// delete, rename, set, append, prepend, and sequence actions. Set values
// may be literals, "{placeholder}" strings resolved against per-record
// context variables, or small arithmetic/string expressions evaluated in a
// closed sandbox.
//
// The root package is a thin facade:
//
//	rules, err := schema.Decode(doc)
//	conv, err := reshape.New(rules)
//	out, err := conv.Convert(ctx, tree)
//
// pkg/schema decodes and validates rules documents, pkg/tree holds the
// dotted-path and placeholder primitives, and pkg/events defines the
// observability hooks. File discovery, format handling, and the command
// line live under internal/.
package reshape
