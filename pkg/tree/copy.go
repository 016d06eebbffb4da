package tree

// DeepCopy returns a structural copy of a generic value: mappings and
// sequences are cloned recursively, scalars are shared (they are immutable).
// Conversions mutate records in place, so each record is copied before any
// rule touches it.
func DeepCopy(value any) any {
	switch v := value.(type) {
	case map[string]any:
		result := make(map[string]any, len(v))
		for key, item := range v {
			result[key] = DeepCopy(item)
		}
		return result
	case []any:
		result := make([]any, len(v))
		for i, item := range v {
			result[i] = DeepCopy(item)
		}
		return result
	default:
		return value
	}
}

// DeepCopyMap is DeepCopy specialized for the common record shape.
func DeepCopyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	return DeepCopy(m).(map[string]any)
}
