package engine

import (
	"context"
	"testing"

	"github.com/aretw0/reshape/pkg/events"
	"github.com/aretw0/reshape/pkg/schema"
	"github.com/aretw0/reshape/pkg/tree"
	"github.com/google/go-cmp/cmp"
)

func applyTestActions(t *testing.T, record map[string]any, actions schema.Actions, vars map[string]any) *Counters {
	t.Helper()
	if vars == nil {
		vars = map[string]any{}
	}
	counters := NewCounters(nil)
	New().applyActions(context.Background(), record, actions, vars, counters, "test-id", "test-rule")
	return counters
}

func TestApplyDelete(t *testing.T) {
	record := map[string]any{
		"keep":   1,
		"legacy": map[string]any{"flag": true, "other": 2},
	}
	applyTestActions(t, record, schema.Actions{
		Delete: []any{"legacy.flag", "not.there"},
	}, nil)

	want := map[string]any{"keep": 1, "legacy": map[string]any{"other": 2}}
	if diff := cmp.Diff(want, record); diff != "" {
		t.Errorf("record mismatch (-want +got):\n%s", diff)
	}
}

func TestApplyRename(t *testing.T) {
	t.Run("moves value", func(t *testing.T) {
		record := map[string]any{"old": "v"}
		applyTestActions(t, record, schema.Actions{
			Rename: []schema.PathPair{{Old: "old", New: "nested.new"}},
		}, nil)

		want := map[string]any{"nested": map[string]any{"new": "v"}}
		if diff := cmp.Diff(want, record); diff != "" {
			t.Errorf("record mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("absent source leaves record untouched", func(t *testing.T) {
		record := map[string]any{"a": 1}
		want := tree.DeepCopyMap(record)
		applyTestActions(t, record, schema.Actions{
			Rename: []schema.PathPair{{Old: "missing", New: "b"}},
		}, nil)

		if diff := cmp.Diff(want, record); diff != "" {
			t.Errorf("record changed by skipped rename (-want +got):\n%s", diff)
		}
	})
}

func TestApplySet(t *testing.T) {
	t.Run("literal and placeholder", func(t *testing.T) {
		record := map[string]any{}
		applyTestActions(t, record, schema.Actions{
			Set: []schema.PathValue{
				{Path: "plain", Value: 1},
				{Path: "named", Value: "{content_id}_model"},
			},
		}, map[string]any{"content_id": "sword"})

		want := map[string]any{"plain": 1, "named": "sword_model"}
		if diff := cmp.Diff(want, record); diff != "" {
			t.Errorf("record mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("expression sees earlier mutations in same rule", func(t *testing.T) {
		record := map[string]any{"damage": 5}
		applyTestActions(t, record, schema.Actions{
			Set: []schema.PathValue{
				{Path: "damage", Value: 6},
				{Path: "double", Value: map[string]any{"expression": "data['damage'] * 2"}},
			},
		}, nil)

		if record["double"] != 12 {
			t.Errorf("double = %v, want 12 (computed from mutated record)", record["double"])
		}
	})

	t.Run("failed expression skips path", func(t *testing.T) {
		record := map[string]any{"damage": 5}
		applyTestActions(t, record, schema.Actions{
			Set: []schema.PathValue{
				{Path: "damage", Value: map[string]any{"expression": "boom("}},
			},
		}, nil)

		if record["damage"] != 5 {
			t.Errorf("damage = %v, want untouched 5", record["damage"])
		}
	})

	t.Run("failed expression with default", func(t *testing.T) {
		record := map[string]any{}
		applyTestActions(t, record, schema.Actions{
			Set: []schema.PathValue{
				{Path: "v", Value: map[string]any{"expression": "boom(", "default_value": 9}},
			},
		}, nil)

		if record["v"] != 9 {
			t.Errorf("v = %v, want default 9", record["v"])
		}
	})
}

func TestApplyAppendPrepend(t *testing.T) {
	t.Run("append creates then extends", func(t *testing.T) {
		record := map[string]any{}
		applyTestActions(t, record, schema.Actions{
			Append: []schema.PathValue{{Path: "tags", Value: "rare"}},
		}, nil)
		applyTestActions(t, record, schema.Actions{
			Append: []schema.PathValue{{Path: "tags", Value: []any{"epic", "new"}}},
		}, nil)

		want := map[string]any{"tags": []any{"rare", "epic", "new"}}
		if diff := cmp.Diff(want, record); diff != "" {
			t.Errorf("record mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("prepend preserves added order", func(t *testing.T) {
		record := map[string]any{"tags": []any{"old"}}
		applyTestActions(t, record, schema.Actions{
			Prepend: []schema.PathValue{{Path: "tags", Value: []any{"a", "b"}}},
		}, nil)

		want := map[string]any{"tags": []any{"a", "b", "old"}}
		if diff := cmp.Diff(want, record); diff != "" {
			t.Errorf("record mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("non-sequence target is skipped", func(t *testing.T) {
		record := map[string]any{"tags": "not-a-list"}
		var diag *events.DiagnosticEvent
		counters := NewCounters(nil)
		e := New(WithHooks(events.Hooks{
			OnDiagnostic: func(_ context.Context, ev *events.DiagnosticEvent) { diag = ev },
		}))
		e.applyActions(context.Background(), record, schema.Actions{
			Append: []schema.PathValue{{Path: "tags", Value: "x"}},
		}, map[string]any{}, counters, "id", "rule")

		if record["tags"] != "not-a-list" {
			t.Errorf("tags = %v, want untouched", record["tags"])
		}
		if diag == nil || diag.Severity != events.SeverityWarn {
			t.Errorf("expected a warn diagnostic, got %+v", diag)
		}
	})
}

func TestApplySequence(t *testing.T) {
	t.Run("raw counter value", func(t *testing.T) {
		record := map[string]any{}
		applyTestActions(t, record, schema.Actions{
			Sequence: []schema.PathValue{
				{Path: "model.id", Value: map[string]any{"start": 3, "step": 2}},
			},
		}, nil)

		if got, _ := tree.Get(record, "model.id"); got != 3 {
			t.Errorf("model.id = %v, want 3", got)
		}
	})

	t.Run("format replaces counter marker", func(t *testing.T) {
		record := map[string]any{}
		applyTestActions(t, record, schema.Actions{
			Sequence: []schema.PathValue{
				{Path: "model.name", Value: map[string]any{
					"start": 7, "format": "item_{content_id}_{counter}",
				}},
			},
		}, map[string]any{"content_id": "sword"})

		if got, _ := tree.Get(record, "model.name"); got != "item_sword_7" {
			t.Errorf("model.name = %v, want item_sword_7", got)
		}
	})

	t.Run("unnamed rule without id emits error and skips", func(t *testing.T) {
		record := map[string]any{}
		var diag *events.DiagnosticEvent
		e := New(WithHooks(events.Hooks{
			OnDiagnostic: func(_ context.Context, ev *events.DiagnosticEvent) { diag = ev },
		}))
		e.applyActions(context.Background(), record, schema.Actions{
			Sequence: []schema.PathValue{{Path: "n", Value: map[string]any{}}},
		}, map[string]any{}, NewCounters(nil), "id", "")

		if _, present := tree.Get(record, "n"); present {
			t.Error("sequence should not write for unnamed rule in isolated mode")
		}
		if diag == nil || diag.Severity != events.SeverityError {
			t.Errorf("expected an error diagnostic, got %+v", diag)
		}
	})
}

func TestApplyOrderDeleteBeforeSet(t *testing.T) {
	// delete runs before set even when declared after it, so a rule can
	// clear a subtree and repopulate it in one action block.
	record := map[string]any{"slot": map[string]any{"a": 1}}
	applyTestActions(t, record, schema.Actions{
		Set:    []schema.PathValue{{Path: "slot.b", Value: 2}},
		Delete: []any{"slot"},
	}, nil)

	want := map[string]any{"slot": map[string]any{"b": 2}}
	if diff := cmp.Diff(want, record); diff != "" {
		t.Errorf("record mismatch (-want +got):\n%s", diff)
	}
}
