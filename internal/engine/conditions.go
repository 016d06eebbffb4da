package engine

import (
	"context"
	"regexp"

	"github.com/aretw0/reshape/internal/expr"
	"github.com/aretw0/reshape/pkg/schema"
	"github.com/aretw0/reshape/pkg/tree"
)

// evaluateCondition applies one condition to the record. Placeholders in the
// condition's own fields are substituted first, so conditions can compare
// against context variables. All present checks must pass.
func (e *Engine) evaluateCondition(ctx context.Context, record map[string]any, cond schema.Condition, contentID, ruleName string, vars map[string]any) bool {
	if cond.Path == "" {
		e.logger.Warn("condition has no 'path' field", "rule", ruleName)
		e.emitDiagnostic(ctx, "warn", contentID, ruleName, "condition", "", "condition has no 'path' field")
		return false
	}
	path := tree.Stringify(tree.Substitute(cond.Path, vars))

	value, present := tree.Get(record, path)
	e.logger.Debug("evaluating condition", "rule", ruleName, "path", path, "value", value, "present", present)

	if cond.Exists != nil {
		if *cond.Exists && !present {
			return false
		}
		if !*cond.Exists && present {
			return false
		}
	}

	// An absent field cannot satisfy a value, pattern, or range check, even
	// without an explicit exists clause.
	if !present && (cond.HasValue || cond.RegexMatch != nil || cond.Min != nil || cond.Max != nil) {
		return false
	}

	if cond.HasValue {
		want := tree.Substitute(cond.Value, vars)
		if !expr.LooseEqual(value, want) {
			return false
		}
	}

	if cond.RegexMatch != nil {
		str, ok := value.(string)
		if !ok {
			return false
		}
		pattern := tree.Stringify(tree.Substitute(*cond.RegexMatch, vars))
		// Anchored at the start only, never implicitly at the end.
		re, err := regexp.Compile(`\A(?:` + pattern + `)`)
		if err != nil {
			e.logger.Error("invalid regex in condition", "rule", ruleName, "pattern", pattern, "err", err)
			e.emitDiagnostic(ctx, "error", contentID, ruleName, "condition", path, "invalid regex: "+err.Error())
			return false
		}
		if !re.MatchString(str) {
			return false
		}
	}

	if cond.Min != nil || cond.Max != nil {
		num, ok := expr.AsNumber(value)
		if !ok {
			return false
		}
		if cond.Min != nil {
			min, ok := expr.AsNumber(tree.Substitute(cond.Min, vars))
			if !ok || num < min {
				return false
			}
		}
		if cond.Max != nil {
			max, ok := expr.AsNumber(tree.Substitute(cond.Max, vars))
			if !ok || num > max {
				return false
			}
		}
	}

	return true
}
