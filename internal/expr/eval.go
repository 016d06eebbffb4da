package expr

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
)

// Func is a callable registered in the sandbox. Anything not in Env.Funcs
// simply does not exist as far as expressions are concerned.
type Func func(args []any) (any, error)

// Env is the symbol table an expression is evaluated against.
type Env struct {
	// Vars holds top-level symbols: resolved context variables, the
	// current record as "data", and the accumulated context mapping as
	// "context" where the caller exposes it.
	Vars map[string]any

	// Funcs is the closed function registry.
	Funcs map[string]Func

	// Lookup, when set, resolves identifiers found in neither Vars nor
	// Funcs. The engine uses it to fall back to top-level record fields,
	// so "damage * 2" works against a record with a damage field.
	Lookup func(name string) (any, bool)
}

// Eval parses and evaluates a single expression against env.
func Eval(src string, env *Env) (any, error) {
	node, err := Parse(src)
	if err != nil {
		return nil, fmt.Errorf("parse %q: %w", src, err)
	}
	v, err := evalNode(node, env)
	if err != nil {
		return nil, fmt.Errorf("eval %q: %w", src, err)
	}
	return v, nil
}

func evalNode(node Node, env *Env) (any, error) {
	switch n := node.(type) {
	case literalNode:
		return n.Value, nil
	case identNode:
		if v, ok := env.Vars[n.Name]; ok {
			return v, nil
		}
		if env.Lookup != nil {
			if v, ok := env.Lookup(n.Name); ok {
				return v, nil
			}
		}
		return nil, fmt.Errorf("undefined name %q", n.Name)
	case unaryNode:
		return evalUnary(n, env)
	case binaryNode:
		return evalBinary(n, env)
	case indexNode:
		return evalIndex(n, env)
	case callNode:
		return evalCall(n, env)
	default:
		return nil, fmt.Errorf("unsupported node %T", node)
	}
}

func evalUnary(n unaryNode, env *Env) (any, error) {
	operand, err := evalNode(n.Operand, env)
	if err != nil {
		return nil, err
	}
	switch n.Op {
	case "not":
		return !Truthy(operand), nil
	case "-":
		switch v := operand.(type) {
		case int:
			return -v, nil
		case int64:
			return -v, nil
		case float64:
			return -v, nil
		}
		return nil, fmt.Errorf("cannot negate %T", operand)
	}
	return nil, fmt.Errorf("unknown unary operator %q", n.Op)
}

func evalBinary(n binaryNode, env *Env) (any, error) {
	// and/or short-circuit and yield the deciding operand.
	if n.Op == "and" || n.Op == "or" {
		left, err := evalNode(n.Left, env)
		if err != nil {
			return nil, err
		}
		if n.Op == "and" && !Truthy(left) {
			return left, nil
		}
		if n.Op == "or" && Truthy(left) {
			return left, nil
		}
		return evalNode(n.Right, env)
	}

	left, err := evalNode(n.Left, env)
	if err != nil {
		return nil, err
	}
	right, err := evalNode(n.Right, env)
	if err != nil {
		return nil, err
	}

	switch n.Op {
	case "==":
		return looseEqual(left, right), nil
	case "!=":
		return !looseEqual(left, right), nil
	case "<", "<=", ">", ">=":
		return compareOrdered(n.Op, left, right)
	case "+":
		if ls, ok := left.(string); ok {
			rs, ok := right.(string)
			if !ok {
				return nil, fmt.Errorf("cannot concatenate string and %T", right)
			}
			return ls + rs, nil
		}
		return arith(n.Op, left, right)
	case "-", "*", "%":
		return arith(n.Op, left, right)
	case "/":
		lf, lok := toFloat(left)
		rf, rok := toFloat(right)
		if !lok || !rok {
			return nil, fmt.Errorf("cannot divide %T by %T", left, right)
		}
		if rf == 0 {
			return nil, fmt.Errorf("division by zero")
		}
		return lf / rf, nil
	}
	return nil, fmt.Errorf("unknown operator %q", n.Op)
}

func evalIndex(n indexNode, env *Env) (any, error) {
	target, err := evalNode(n.Target, env)
	if err != nil {
		return nil, err
	}
	index, err := evalNode(n.Index, env)
	if err != nil {
		return nil, err
	}
	switch t := target.(type) {
	case map[string]any:
		key, ok := index.(string)
		if !ok {
			return nil, fmt.Errorf("mapping index must be a string, got %T", index)
		}
		v, ok := t[key]
		if !ok {
			return nil, fmt.Errorf("key %q not found", key)
		}
		return v, nil
	case []any:
		i, ok := toInt(index)
		if !ok {
			return nil, fmt.Errorf("sequence index must be an integer, got %T", index)
		}
		if i < 0 {
			i += len(t)
		}
		if i < 0 || i >= len(t) {
			return nil, fmt.Errorf("sequence index %d out of range (len %d)", i, len(t))
		}
		return t[i], nil
	case string:
		i, ok := toInt(index)
		if !ok {
			return nil, fmt.Errorf("string index must be an integer, got %T", index)
		}
		runes := []rune(t)
		if i < 0 {
			i += len(runes)
		}
		if i < 0 || i >= len(runes) {
			return nil, fmt.Errorf("string index %d out of range (len %d)", i, len(runes))
		}
		return string(runes[i]), nil
	}
	return nil, fmt.Errorf("cannot index %T", target)
}

func evalCall(n callNode, env *Env) (any, error) {
	fn, ok := env.Funcs[n.Name]
	if !ok {
		return nil, fmt.Errorf("unknown function %q", n.Name)
	}
	args := make([]any, len(n.Args))
	for i, argNode := range n.Args {
		v, err := evalNode(argNode, env)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	v, err := fn(args)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", n.Name, err)
	}
	return v, nil
}

// Truthy reports the boolean weight of a value: nil, false, zero numbers,
// and empty strings/sequences/mappings are false, everything else true.
func Truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case int:
		return t != 0
	case int64:
		return t != 0
	case float64:
		return t != 0
	case string:
		return t != ""
	case []any:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	}
	return true
}

// LooseEqual compares two values with numeric normalization, so an int 5
// read from YAML equals a float 5.0 computed by an expression.
func LooseEqual(a, b any) bool { return looseEqual(a, b) }

// AsNumber reports a value's numeric reading. Booleans do not count.
func AsNumber(v any) (float64, bool) { return toFloat(v) }

func looseEqual(a, b any) bool {
	if af, ok := toFloat(a); ok {
		if bf, ok := toFloat(b); ok {
			return af == bf
		}
		return false
	}
	return reflect.DeepEqual(a, b)
}

func compareOrdered(op string, a, b any) (any, error) {
	if as, ok := a.(string); ok {
		bs, ok := b.(string)
		if !ok {
			return nil, fmt.Errorf("cannot compare string with %T", b)
		}
		return applyOrder(op, compareStrings(as, bs)), nil
	}
	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	if !aok || !bok {
		return nil, fmt.Errorf("cannot compare %T with %T", a, b)
	}
	switch {
	case af < bf:
		return applyOrder(op, -1), nil
	case af > bf:
		return applyOrder(op, 1), nil
	default:
		return applyOrder(op, 0), nil
	}
}

func compareStrings(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func applyOrder(op string, cmp int) bool {
	switch op {
	case "<":
		return cmp < 0
	case "<=":
		return cmp <= 0
	case ">":
		return cmp > 0
	default:
		return cmp >= 0
	}
}

// arith applies +, -, * or % keeping int results when both operands are
// integers, matching how YAML numbers round-trip through records.
func arith(op string, a, b any) (any, error) {
	ai, aIsInt := toInt(a)
	bi, bIsInt := toInt(b)
	if aIsInt && bIsInt {
		switch op {
		case "+":
			return ai + bi, nil
		case "-":
			return ai - bi, nil
		case "*":
			return ai * bi, nil
		case "%":
			if bi == 0 {
				return nil, fmt.Errorf("modulo by zero")
			}
			return ai % bi, nil
		}
	}
	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	if !aok || !bok {
		return nil, fmt.Errorf("cannot apply %q to %T and %T", op, a, b)
	}
	switch op {
	case "+":
		return af + bf, nil
	case "-":
		return af - bf, nil
	case "*":
		return af * bf, nil
	case "%":
		if bf == 0 {
			return nil, fmt.Errorf("modulo by zero")
		}
		return math.Mod(af, bf), nil
	}
	return nil, fmt.Errorf("unknown arithmetic operator %q", op)
}

func toInt(v any) (int, bool) {
	switch t := v.(type) {
	case int:
		return t, true
	case int64:
		return int(t), true
	}
	return 0, false
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case float64:
		return t, true
	case float32:
		return float64(t), true
	}
	return 0, false
}

func parseNumber(text string) any {
	if i, err := strconv.Atoi(text); err == nil {
		return i
	}
	f, _ := strconv.ParseFloat(text, 64)
	return f
}
