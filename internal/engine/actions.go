package engine

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/aretw0/reshape/internal/expr"
	"github.com/aretw0/reshape/pkg/schema"
	"github.com/aretw0/reshape/pkg/tree"
)

// applyActions executes one rule's action block against the record, in the
// fixed order delete, rename, set, append, prepend, sequence. Every path
// and value goes through placeholder substitution first. Failures inside a
// single entry degrade to a diagnostic plus a skip of that entry; they
// never abort the rule, the record, or the conversion.
func (e *Engine) applyActions(ctx context.Context, record map[string]any, actions schema.Actions, vars map[string]any, counters *Counters, contentID, ruleName string) {
	log := e.logger.With("content_id", contentID, "rule", displayName(ruleName))

	for _, rawPath := range actions.Delete {
		path, ok := tree.Substitute(rawPath, vars).(string)
		if !ok {
			e.emitDiagnostic(ctx, "warn", contentID, ruleName, "delete", "",
				fmt.Sprintf("delete entry %v is not a path string", rawPath))
			continue
		}
		tree.Delete(record, path)
		log.Debug("deleted field", "path", path)
	}

	for _, pair := range actions.Rename {
		oldPath := tree.Stringify(tree.Substitute(pair.Old, vars))
		newPath := tree.Stringify(tree.Substitute(pair.New, vars))
		value, present := tree.Get(record, oldPath)
		if !present {
			log.Debug("rename source missing, skipped", "from", oldPath, "to", newPath)
			e.emitDiagnostic(ctx, "warn", contentID, ruleName, "rename", oldPath, "source path missing")
			continue
		}
		tree.Set(record, newPath, value)
		tree.Delete(record, oldPath)
		log.Debug("renamed field", "from", oldPath, "to", newPath)
	}

	for _, entry := range actions.Set {
		path := tree.Stringify(tree.Substitute(entry.Path, vars))
		value := tree.Substitute(entry.Value, vars)

		if exprBlock, isExpr := schema.AsExpr(value); isExpr {
			evaluated, err := expr.Eval(exprBlock.Expression, e.exprEnv(vars, record))
			if err != nil {
				log.Error("set expression failed", "path", path, "err", err)
				if !exprBlock.HasDefault {
					e.emitDiagnostic(ctx, "error", contentID, ruleName, "set", path, err.Error())
					continue
				}
				log.Warn("using default value", "path", path, "default", exprBlock.DefaultValue)
				evaluated = exprBlock.DefaultValue
			}
			value = evaluated
		}

		tree.Set(record, path, value)
		log.Debug("set field", "path", path)
	}

	for _, entry := range actions.Append {
		e.applyListInsert(ctx, record, entry, vars, contentID, ruleName, "append")
	}
	for _, entry := range actions.Prepend {
		e.applyListInsert(ctx, record, entry, vars, contentID, ruleName, "prepend")
	}

	for _, entry := range actions.Sequence {
		path := tree.Stringify(tree.Substitute(entry.Path, vars))
		spec, err := schema.AsSequenceSpec(tree.Substitute(entry.Value, vars))
		if err != nil {
			log.Error("invalid sequence spec", "path", path, "err", err)
			e.emitDiagnostic(ctx, "error", contentID, ruleName, "sequence", path, err.Error())
			continue
		}

		current, err := counters.Next(ruleName, path, spec)
		if err != nil {
			log.Error("sequence counter rejected", "path", path, "err", err)
			e.emitDiagnostic(ctx, "error", contentID, ruleName, "sequence", path, err.Error())
			continue
		}

		if spec.Format != "" {
			formatted := strings.ReplaceAll(spec.Format, "{counter}", strconv.Itoa(current))
			tree.Set(record, path, formatted)
			log.Debug("sequence field formatted", "path", path, "value", formatted)
		} else {
			tree.Set(record, path, current)
			log.Debug("sequence field set", "path", path, "value", current, "step", spec.Step)
		}
	}
}

// applyListInsert handles append and prepend. An absent target becomes an
// empty sequence first; a present non-sequence target skips the entry with
// a warning. Values that are not already sequences are wrapped, and the
// relative order of added elements is preserved on both ends.
func (e *Engine) applyListInsert(ctx context.Context, record map[string]any, entry schema.PathValue, vars map[string]any, contentID, ruleName, action string) {
	path := tree.Stringify(tree.Substitute(entry.Path, vars))
	value := tree.Substitute(entry.Value, vars)

	current, present := tree.Get(record, path)
	var list []any
	if !present {
		e.logger.Debug("list target absent, created", "path", path, "action", action)
	} else if existing, ok := current.([]any); ok {
		list = existing
	} else {
		e.logger.Warn("target is not a sequence, skipped",
			"content_id", contentID, "rule", displayName(ruleName), "action", action, "path", path)
		e.emitDiagnostic(ctx, "warn", contentID, ruleName, action, path,
			fmt.Sprintf("existing value is %T, not a sequence", current))
		return
	}

	elements, ok := value.([]any)
	if !ok {
		elements = []any{value}
	}

	if action == "append" {
		list = append(list, elements...)
	} else {
		list = append(append([]any{}, elements...), list...)
	}
	tree.Set(record, path, list)
}

func displayName(ruleName string) string {
	if ruleName == "" {
		return "unnamed rule"
	}
	return ruleName
}
