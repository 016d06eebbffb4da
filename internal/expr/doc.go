// Package expr implements the restricted expression language used by rule
// files for computed context variables and set-action values.
//
// The language is deliberately small: literals, identifiers, index access,
// unary/binary operators, and calls into a closed function registry. There
// is no assignment, no attribute access, no loops, and no way to reach a
// symbol that was not explicitly placed in the environment. Evaluation is a
// straight walk of the parsed tree; nothing is compiled or cached.
//
//	env := &expr.Env{
//	    Vars:  map[string]any{"content_id": "sword", "data": record},
//	    Funcs: expr.BaseFuncs(),
//	}
//	v, err := expr.Eval("upper(content_id) + '_ITEM'", env)
package expr
