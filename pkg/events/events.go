// Package events defines the observability hooks emitted during a
// conversion: per-item progress for UIs and per-rule/per-action diagnostics
// for log rendering. The engine never prints; hosts decide what any of this
// looks like.
package events

import (
	"context"
	"time"
)

// EventType categorizes an event.
type EventType string

const (
	EventItemStart   EventType = "item_start"
	EventRuleSkipped EventType = "rule_skipped"
	EventDiagnostic  EventType = "diagnostic"
)

// Severity ranks a diagnostic.
type Severity string

const (
	SeverityWarn  Severity = "warn"
	SeverityError Severity = "error"
)

// EventBase carries the fields common to every event.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
}

// ItemEvent reports that a record started processing. Index and Total cover
// the records the current rule set will visit in this tree, so hosts can
// render progress.
type ItemEvent struct {
	EventBase
	ContentKey  string `json:"content_key"`
	ContentID   string `json:"content_id"`
	ContentType string `json:"content_type"`
	Index       int    `json:"index"`
	Total       int    `json:"total"`
}

// RuleEvent reports that a nested rule was skipped and why: unmet
// dependencies, a skip flag, or a failed condition.
type RuleEvent struct {
	EventBase
	ContentID string `json:"content_id"`
	Rule      string `json:"rule"`
	Reason    string `json:"reason"`
}

// DiagnosticEvent reports a recoverable per-action problem: a failed
// expression, a missing rename source, an append/prepend type mismatch, or
// an unnamed rule using an isolated sequence.
type DiagnosticEvent struct {
	EventBase
	ContentID string   `json:"content_id"`
	Rule      string   `json:"rule"`
	Action    string   `json:"action"`
	Path      string   `json:"path,omitempty"`
	Severity  Severity `json:"severity"`
	Message   string   `json:"message"`
}

// Hooks holds the observability callbacks. Any nil callback is ignored.
// Callbacks run synchronously on the conversion goroutine; keep them cheap.
type Hooks struct {
	OnItemStart   func(context.Context, *ItemEvent)
	OnRuleSkipped func(context.Context, *RuleEvent)
	OnDiagnostic  func(context.Context, *DiagnosticEvent)
}
