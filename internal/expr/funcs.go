package expr

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aretw0/reshape/pkg/tree"
)

// BaseFuncs returns the full whitelist of pure functions available to rule
// expressions. The registry is rebuilt per environment so callers can extend
// a copy without leaking additions into other evaluations.
func BaseFuncs() map[string]Func {
	return map[string]Func{
		"upper": func(args []any) (any, error) {
			s, err := oneString(args)
			if err != nil {
				return nil, err
			}
			return strings.ToUpper(s), nil
		},
		"lower": func(args []any) (any, error) {
			s, err := oneString(args)
			if err != nil {
				return nil, err
			}
			return strings.ToLower(s), nil
		},
		"replace": func(args []any) (any, error) {
			if len(args) != 3 {
				return nil, fmt.Errorf("expected 3 arguments, got %d", len(args))
			}
			s := tree.Stringify(args[0])
			old, okOld := args[1].(string)
			new_, okNew := args[2].(string)
			if !okOld || !okNew {
				return nil, fmt.Errorf("old and new must be strings")
			}
			return strings.ReplaceAll(s, old, new_), nil
		},
		"split": func(args []any) (any, error) {
			if len(args) != 2 {
				return nil, fmt.Errorf("expected 2 arguments, got %d", len(args))
			}
			s := tree.Stringify(args[0])
			sep, ok := args[1].(string)
			if !ok {
				return nil, fmt.Errorf("separator must be a string")
			}
			parts := strings.Split(s, sep)
			result := make([]any, len(parts))
			for i, p := range parts {
				result[i] = p
			}
			return result, nil
		},
		"str": func(args []any) (any, error) {
			if len(args) != 1 {
				return nil, fmt.Errorf("expected 1 argument, got %d", len(args))
			}
			return tree.Stringify(args[0]), nil
		},
		"int": func(args []any) (any, error) {
			if len(args) != 1 {
				return nil, fmt.Errorf("expected 1 argument, got %d", len(args))
			}
			switch v := args[0].(type) {
			case int:
				return v, nil
			case int64:
				return int(v), nil
			case float64:
				return int(v), nil
			case bool:
				if v {
					return 1, nil
				}
				return 0, nil
			case string:
				i, err := strconv.Atoi(strings.TrimSpace(v))
				if err != nil {
					return nil, fmt.Errorf("cannot convert %q to int", v)
				}
				return i, nil
			}
			return nil, fmt.Errorf("cannot convert %T to int", args[0])
		},
		"float": func(args []any) (any, error) {
			if len(args) != 1 {
				return nil, fmt.Errorf("expected 1 argument, got %d", len(args))
			}
			switch v := args[0].(type) {
			case int:
				return float64(v), nil
			case int64:
				return float64(v), nil
			case float64:
				return v, nil
			case string:
				f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
				if err != nil {
					return nil, fmt.Errorf("cannot convert %q to float", v)
				}
				return f, nil
			}
			return nil, fmt.Errorf("cannot convert %T to float", args[0])
		},
		"len": func(args []any) (any, error) {
			if len(args) != 1 {
				return nil, fmt.Errorf("expected 1 argument, got %d", len(args))
			}
			switch v := args[0].(type) {
			case string:
				return len([]rune(v)), nil
			case []any:
				return len(v), nil
			case map[string]any:
				return len(v), nil
			}
			return nil, fmt.Errorf("value of type %T has no length", args[0])
		},
		"get": func(args []any) (any, error) {
			if len(args) != 2 {
				return nil, fmt.Errorf("expected 2 arguments, got %d", len(args))
			}
			data, ok := args[0].(map[string]any)
			if !ok {
				return nil, fmt.Errorf("first argument must be a mapping, got %T", args[0])
			}
			path, ok := args[1].(string)
			if !ok {
				return nil, fmt.Errorf("second argument must be a path string, got %T", args[1])
			}
			// Absence maps to null so expressions can provide fallbacks.
			v, found := tree.Get(data, path)
			if !found {
				return nil, nil
			}
			return v, nil
		},
	}
}

func oneString(args []any) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("expected 1 argument, got %d", len(args))
	}
	return tree.Stringify(args[0]), nil
}
