package tree

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Substitute replaces {name} tokens in value with the stringified variable
// bound to name, recursing into sequences and mappings. Strings containing
// no known token are returned as-is (same value, not a copy), so non-string
// leaves and untouched strings flow through identically.
//
// When at least one token was replaced the resulting string is re-parsed as
// a YAML document, so "{damage}" substituted with 7 yields the int 7 and
// "[{a}, {b}]" yields a sequence. If the re-parse fails the substituted
// string is kept verbatim. Mapping keys are substituted textually only;
// they stay strings.
func Substitute(value any, vars map[string]any) any {
	switch v := value.(type) {
	case string:
		out, changed := replaceTokens(v, vars)
		if !changed {
			return v
		}
		var parsed any
		if err := yaml.Unmarshal([]byte(out), &parsed); err != nil {
			return out
		}
		return parsed
	case []any:
		result := make([]any, len(v))
		for i, item := range v {
			result[i] = Substitute(item, vars)
		}
		return result
	case map[string]any:
		result := make(map[string]any, len(v))
		for key, item := range v {
			newKey, _ := replaceTokens(key, vars)
			result[newKey] = Substitute(item, vars)
		}
		return result
	default:
		return value
	}
}

// replaceTokens expands {name} tokens in a single left-to-right pass.
// Replacement text is never rescanned, so a variable whose value itself
// contains braces cannot trigger further expansion.
func replaceTokens(s string, vars map[string]any) (string, bool) {
	var b strings.Builder
	changed := false
	rest := s
	for {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			break
		}
		close := strings.IndexByte(rest[open:], '}')
		if close < 0 {
			break
		}
		close += open
		name := rest[open+1 : close]
		bound, ok := vars[name]
		if !ok {
			b.WriteString(rest[:open+1])
			rest = rest[open+1:]
			continue
		}
		b.WriteString(rest[:open])
		b.WriteString(Stringify(bound))
		rest = rest[close+1:]
		changed = true
	}
	if !changed {
		return s, false
	}
	b.WriteString(rest)
	return b.String(), true
}

// Stringify renders a scalar the way placeholder expansion expects:
// integers and floats without exponent noise, everything else via fmt.
func Stringify(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case nil:
		return "null"
	default:
		return fmt.Sprintf("%v", v)
	}
}
