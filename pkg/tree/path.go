package tree

import "strings"

// Get resolves a dotted path against a nested mapping.
// It returns the value and true when every segment resolves, or nil and
// false when any segment is missing or a non-mapping is indexed. Absence is
// distinct from a field legitimately holding nil: Get(m, p) on a present
// nil field returns (nil, true).
func Get(data map[string]any, path string) (any, bool) {
	var current any = data
	for _, part := range strings.Split(path, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// Set assigns a value at a dotted path, creating intermediate mappings as
// needed. An intermediate segment holding a non-mapping value is replaced by
// a fresh empty mapping; the previous value (and any siblings under it) is
// discarded. That is intentional, if surprising: rule files rely on being
// able to re-root a subtree by assigning through it.
func Set(data map[string]any, path string, value any) {
	parts := strings.Split(path, ".")
	current := data
	for i, part := range parts {
		if i == len(parts)-1 {
			current[part] = value
			return
		}
		next, ok := current[part].(map[string]any)
		if !ok {
			next = make(map[string]any)
			current[part] = next
		}
		current = next
	}
}

// Delete removes the value at a dotted path. It is a no-op when any segment
// along the way is absent or not a mapping.
func Delete(data map[string]any, path string) {
	parts := strings.Split(path, ".")
	current := data
	for i, part := range parts {
		if i == len(parts)-1 {
			delete(current, part)
			return
		}
		next, ok := current[part].(map[string]any)
		if !ok {
			return
		}
		current = next
	}
}
