// Package tree provides dotted-path access and placeholder substitution over
// generic nested mappings, as produced by yaml.v3 unmarshaling into `any`.
//
// A tree is a map[string]any whose values are scalars, []any sequences, or
// further map[string]any mappings. The package never panics on malformed
// paths: a lookup that walks off the tree reports absence, a delete of a
// missing path is a no-op, and a set creates whatever intermediate mappings
// it needs.
//
// Basic usage:
//
//	record := map[string]any{"display": map[string]any{"name": "Sword"}}
//
//	v, ok := tree.Get(record, "display.name") // "Sword", true
//	tree.Set(record, "display.lore", []any{"Sharp."})
//	tree.Delete(record, "display.name")
//
// Substitute resolves {var} placeholders against a variable set, recursing
// into sequences and mappings. A substituted string is re-parsed as YAML so
// that "{count}" can come back as an int rather than a string.
package tree
