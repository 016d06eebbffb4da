package cli

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseSequenceStarts parses "key:value" override tokens from the command
// line into a counter override map. Malformed tokens are reported and
// skipped rather than aborting the run; the key may itself contain colons,
// only the last one separates the value.
func ParseSequenceStarts(tokens []string) (map[string]int, []error) {
	overrides := make(map[string]int)
	var problems []error
	for _, token := range tokens {
		idx := strings.LastIndex(token, ":")
		if idx < 0 {
			problems = append(problems, fmt.Errorf("invalid override %q, expected key:value", token))
			continue
		}
		key, valueStr := token[:idx], token[idx+1:]
		value, err := strconv.Atoi(valueStr)
		if err != nil {
			problems = append(problems, fmt.Errorf("invalid start value %q for %q, must be an integer", valueStr, key))
			continue
		}
		overrides[key] = value
	}
	return overrides, problems
}
