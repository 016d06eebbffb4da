// Package engine implements the rule evaluation core: context resolution,
// condition gating, action application, and the per-record rule driver. It
// operates on parsed trees and rule sets only; loading, saving, and anything
// that looks like I/O belongs to the caller.
package engine

import (
	"context"
	"io"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/aretw0/reshape/pkg/events"
	"github.com/aretw0/reshape/pkg/schema"
	"github.com/aretw0/reshape/pkg/tree"
)

// Engine drives rule sets over record trees. It is stateless across calls;
// all mutable conversion state (the output tree, sequence counters) is per
// ConvertTree invocation.
type Engine struct {
	logger *slog.Logger
	hooks  events.Hooks
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the structured logger. The default discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithHooks registers observability callbacks.
func WithHooks(hooks events.Hooks) Option {
	return func(e *Engine) { e.hooks = hooks }
}

// New creates an engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ConvertTree applies the rule set to every record of every matching content
// group and returns the transformed tree. Input records are never mutated;
// each is deep-copied before its rules run. Groups that no top-level rule
// matches are omitted from the output.
//
// counters carries the sequence state for this conversion and must not be
// reused across conversions.
func (e *Engine) ConvertTree(ctx context.Context, input map[string]any, rules *schema.RuleSet, counters *Counters) (map[string]any, error) {
	output := make(map[string]any)
	total := countItems(input, rules)
	index := 0

	for _, topRule := range rules.Rules {
		if topRule.Content == "" {
			e.logger.Warn("top-level rule has no 'content' field, skipping")
			continue
		}

		for _, contentKey := range matchingGroupKeys(input, topRule.Content) {
			group, ok := input[contentKey].(map[string]any)
			if !ok || len(group) == 0 {
				output[contentKey] = map[string]any{}
				continue
			}

			outGroup, ok := output[contentKey].(map[string]any)
			if !ok {
				outGroup = make(map[string]any, len(group))
				output[contentKey] = outGroup
			}

			for _, contentID := range sortedKeys(group) {
				if err := ctx.Err(); err != nil {
					return nil, err
				}
				index++
				e.emitItemStart(ctx, &events.ItemEvent{
					ContentKey:  contentKey,
					ContentID:   contentID,
					ContentType: topRule.Content,
					Index:       index,
					Total:       total,
				})
				outGroup[contentID] = e.convertRecord(ctx, contentID, topRule, group[contentID], counters)
			}
		}
	}
	return output, nil
}

// convertRecord runs one record through a top-level rule's nested rules.
func (e *Engine) convertRecord(ctx context.Context, contentID string, topRule schema.Rule, raw any, counters *Counters) any {
	record, ok := raw.(map[string]any)
	if !ok {
		e.logger.Warn("record is not a mapping, copied verbatim",
			"content_id", contentID, "type", topRule.Content)
		return tree.DeepCopy(raw)
	}

	log := e.logger.With("content_id", contentID, "content_type", topRule.Content)
	log.Debug("processing record")

	converted := tree.DeepCopyMap(record)
	executed := make(map[string]bool)

	vars := e.resolveContext(ctx, contentID, topRule, converted)
	log.Debug("resolved context", "vars", vars)

	for _, rule := range topRule.Rules {
		name := rule.Name
		logName := name
		if logName == "" {
			logName = "unnamed rule"
		}

		if missing := missingDeps(rule.DependsOn, executed); len(missing) > 0 {
			log.Debug("rule skipped, dependencies not met", "rule", logName, "missing", missing)
			e.emitRuleSkipped(ctx, contentID, logName, "dependencies not met: "+strings.Join(missing, ", "))
			continue
		}

		if rule.Actions.Skip {
			log.Debug("rule skipped, skip flag set", "rule", logName)
			e.emitRuleSkipped(ctx, contentID, logName, "skip flag set")
			continue
		}

		if !e.conditionsMet(ctx, converted, rule, contentID, logName, vars) {
			log.Debug("rule skipped, conditions not met", "rule", logName)
			e.emitRuleSkipped(ctx, contentID, logName, "conditions not met")
			continue
		}

		log.Debug("applying rule", "rule", logName)
		e.applyActions(ctx, converted, rule.Actions, vars, counters, contentID, name)
		if name != "" {
			executed[name] = true
		}
	}

	return converted
}

func (e *Engine) conditionsMet(ctx context.Context, record map[string]any, rule schema.NestedRule, contentID, ruleName string, vars map[string]any) bool {
	for _, cond := range rule.Conditions {
		if !e.evaluateCondition(ctx, record, cond, contentID, ruleName, vars) {
			return false
		}
	}
	return true
}

func missingDeps(deps []string, executed map[string]bool) []string {
	var missing []string
	for _, dep := range deps {
		if !executed[dep] {
			missing = append(missing, dep)
		}
	}
	return missing
}

// matchingGroupKeys returns the input's group keys matching the content
// type, e.g. content "item" matches "items", "items2", "items10". Keys are
// sorted so counter advancement is deterministic across runs.
func matchingGroupKeys(input map[string]any, content string) []string {
	base := content
	if !strings.HasSuffix(base, "s") {
		base += "s"
	}
	pattern := regexp.MustCompile("^" + regexp.QuoteMeta(base) + `\d*$`)

	var keys []string
	for key := range input {
		if pattern.MatchString(key) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func countItems(input map[string]any, rules *schema.RuleSet) int {
	total := 0
	for _, topRule := range rules.Rules {
		if topRule.Content == "" {
			continue
		}
		for _, key := range matchingGroupKeys(input, topRule.Content) {
			if group, ok := input[key].(map[string]any); ok {
				total += len(group)
			}
		}
	}
	return total
}

func (e *Engine) emitItemStart(ctx context.Context, ev *events.ItemEvent) {
	if e.hooks.OnItemStart == nil {
		return
	}
	ev.EventBase = events.EventBase{Timestamp: time.Now(), Type: events.EventItemStart}
	e.hooks.OnItemStart(ctx, ev)
}

func (e *Engine) emitRuleSkipped(ctx context.Context, contentID, rule, reason string) {
	if e.hooks.OnRuleSkipped == nil {
		return
	}
	e.hooks.OnRuleSkipped(ctx, &events.RuleEvent{
		EventBase: events.EventBase{Timestamp: time.Now(), Type: events.EventRuleSkipped},
		ContentID: contentID,
		Rule:      rule,
		Reason:    reason,
	})
}

func (e *Engine) emitDiagnostic(ctx context.Context, severity events.Severity, contentID, rule, action, path, message string) {
	if e.hooks.OnDiagnostic == nil {
		return
	}
	e.hooks.OnDiagnostic(ctx, &events.DiagnosticEvent{
		EventBase: events.EventBase{Timestamp: time.Now(), Type: events.EventDiagnostic},
		ContentID: contentID,
		Rule:      rule,
		Action:    action,
		Path:      path,
		Severity:  severity,
		Message:   message,
	})
}
