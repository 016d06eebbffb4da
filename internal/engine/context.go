package engine

import (
	"context"

	"github.com/aretw0/reshape/internal/expr"
	"github.com/aretw0/reshape/pkg/schema"
)

// resolveContext builds the per-record variable set: the base bindings
// (content_id, content_type) extended by the rule's context definitions in
// declaration order. Later definitions see every earlier one, both as a
// top-level symbol and through the "context" mapping, so forward references
// work. The record bound to "data" is the record as of the start of its
// processing; actions have not run yet.
//
// A failed expression uses its default value when one was declared and is
// otherwise dropped from the context entirely.
func (e *Engine) resolveContext(ctx context.Context, contentID string, topRule schema.Rule, record map[string]any) map[string]any {
	vars := map[string]any{
		"content_id":   contentID,
		"content_type": topRule.Content,
	}

	for _, def := range topRule.Context {
		exprBlock, isExpr := schema.AsExpr(def.Value)
		if !isExpr {
			vars[def.Name] = def.Value
			continue
		}

		value, err := expr.Eval(exprBlock.Expression, e.exprEnv(vars, record))
		if err != nil {
			e.logger.Error("context variable expression failed",
				"content_id", contentID, "var", def.Name, "err", err)
			if !exprBlock.HasDefault {
				e.emitDiagnostic(ctx, "error", contentID, "", "context", def.Name, err.Error())
				continue
			}
			e.logger.Warn("using default value for context variable",
				"content_id", contentID, "var", def.Name, "default", exprBlock.DefaultValue)
			value = exprBlock.DefaultValue
		} else {
			e.logger.Debug("context variable resolved",
				"content_id", contentID, "var", def.Name, "value", value)
		}
		vars[def.Name] = value
	}

	return vars
}

// exprEnv assembles the sandbox symbol table: the accumulated variables as
// top-level symbols, the same mapping reachable as "context", the record as
// "data", the closed function registry, and a fallback that resolves
// leftover identifiers against top-level record fields.
func (e *Engine) exprEnv(vars map[string]any, record map[string]any) *expr.Env {
	symbols := make(map[string]any, len(vars)+2)
	for k, v := range vars {
		symbols[k] = v
	}
	symbols["context"] = vars
	symbols["data"] = record

	return &expr.Env{
		Vars:  symbols,
		Funcs: expr.BaseFuncs(),
		Lookup: func(name string) (any, bool) {
			v, ok := record[name]
			return v, ok
		},
	}
}
