package engine

import (
	"context"
	"testing"

	"github.com/aretw0/reshape/pkg/events"
	"github.com/aretw0/reshape/pkg/schema"
	"github.com/aretw0/reshape/pkg/tree"
	"github.com/google/go-cmp/cmp"
)

func mustDecode(t *testing.T, doc string) *schema.RuleSet {
	t.Helper()
	rs, err := schema.Decode([]byte(doc))
	if err != nil {
		t.Fatalf("decode rules: %v", err)
	}
	return rs
}

func convert(t *testing.T, input map[string]any, doc string) map[string]any {
	t.Helper()
	out, err := New().ConvertTree(context.Background(), input, mustDecode(t, doc), NewCounters(nil))
	if err != nil {
		t.Fatalf("ConvertTree failed: %v", err)
	}
	return out
}

func TestConvertTreeIdentityWithNoNestedRules(t *testing.T) {
	input := map[string]any{
		"items": map[string]any{
			"sword": map[string]any{
				"damage": 5,
				"display": map[string]any{
					"name": "Sword",
					"lore": []any{"Sharp.", "Pointy."},
				},
			},
		},
	}
	snapshot := tree.DeepCopyMap(input)

	out := convert(t, input, "rules:\n  - content: item\n")

	if diff := cmp.Diff(snapshot, out); diff != "" {
		t.Errorf("output differs from input (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(snapshot, input); diff != "" {
		t.Errorf("input mutated (-want +got):\n%s", diff)
	}

	// The output is a copy, not the same tree.
	tree.Set(out, "items.sword.damage", 99)
	if got, _ := tree.Get(input, "items.sword.damage"); got != 5 {
		t.Error("mutating output leaked into input")
	}
}

func TestConvertTreeDamageScenario(t *testing.T) {
	input := map[string]any{
		"items": map[string]any{"sword": map[string]any{"damage": 5}},
	}
	out := convert(t, input, `
rules:
  - content: item
    rules:
      - name: boost
        conditions:
          - path: damage
            min: 3
        actions:
          set:
            damage:
              expression: "damage * 2"
`)

	want := map[string]any{
		"items": map[string]any{"sword": map[string]any{"damage": 10}},
	}
	if diff := cmp.Diff(want, out); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestConvertTreeGroupKeyMatching(t *testing.T) {
	input := map[string]any{
		"items":     map[string]any{"a": map[string]any{}},
		"items2":    map[string]any{"b": map[string]any{}},
		"items10":   map[string]any{"c": map[string]any{}},
		"itemstuff": map[string]any{"d": map[string]any{}},
		"blocks":    map[string]any{"e": map[string]any{}},
	}
	out := convert(t, input, `
rules:
  - content: item
    rules:
      - name: mark
        actions:
          set:
            seen: true
`)

	for _, key := range []string{"items", "items2", "items10"} {
		if _, ok := out[key]; !ok {
			t.Errorf("group %q missing from output", key)
		}
	}
	// Non-matching groups are not carried over.
	if _, ok := out["itemstuff"]; ok {
		t.Error("itemstuff should not match ^items\\d*$")
	}
	if _, ok := out["blocks"]; ok {
		t.Error("blocks should not match an item rule")
	}
}

func TestConvertTreePluralContentName(t *testing.T) {
	// A content type already ending in "s" is not double-pluralized.
	input := map[string]any{"glass": map[string]any{"pane": map[string]any{}}}
	out := convert(t, input, `
rules:
  - content: glass
    rules:
      - name: mark
        actions:
          set: {seen: true}
`)
	if got, _ := tree.Get(out, "glass.pane.seen"); got != true {
		t.Errorf("glass.pane.seen = %v, want true", got)
	}
}

func TestConvertTreeEmptyGroupPreserved(t *testing.T) {
	input := map[string]any{"items": map[string]any{}}
	out := convert(t, input, "rules:\n  - content: item\n")

	got, ok := out["items"]
	if !ok {
		t.Fatal("empty matching group should appear in output")
	}
	if diff := cmp.Diff(map[string]any{}, got); diff != "" {
		t.Errorf("group mismatch (-want +got):\n%s", diff)
	}
}

func TestConvertTreeDependencyGating(t *testing.T) {
	doc := `
rules:
  - content: item
    rules:
      - name: first
        conditions:
          - path: enable_first
            value: true
        actions:
          set: {a: 1}
      - name: second
        depends_on: first
        actions:
          set: {b: 2}
      - depends_on: [first, second]
        actions:
          set: {c: 3}
`
	t.Run("chain runs when root applies", func(t *testing.T) {
		input := map[string]any{
			"items": map[string]any{"x": map[string]any{"enable_first": true}},
		}
		out := convert(t, input, doc)
		record := out["items"].(map[string]any)["x"].(map[string]any)
		for _, k := range []string{"a", "b", "c"} {
			if _, ok := record[k]; !ok {
				t.Errorf("field %q missing, dependency chain broken", k)
			}
		}
	})

	t.Run("chain gated when root is skipped", func(t *testing.T) {
		input := map[string]any{
			"items": map[string]any{"x": map[string]any{"enable_first": false}},
		}
		out := convert(t, input, doc)
		record := out["items"].(map[string]any)["x"].(map[string]any)
		for _, k := range []string{"a", "b", "c"} {
			if _, ok := record[k]; ok {
				t.Errorf("field %q present, dependency gating failed", k)
			}
		}
	})
}

func TestConvertTreeUnnamedRuleNeverSatisfiesDependencies(t *testing.T) {
	input := map[string]any{"items": map[string]any{"x": map[string]any{}}}
	out := convert(t, input, `
rules:
  - content: item
    rules:
      - actions:
          set: {a: 1}
      - depends_on: a
        actions:
          set: {b: 2}
`)
	record := out["items"].(map[string]any)["x"].(map[string]any)
	if _, ok := record["a"]; !ok {
		t.Error("unnamed rule should still run")
	}
	if _, ok := record["b"]; ok {
		t.Error("dependency on a name no rule registered should gate")
	}
}

func TestConvertTreeSkipFlag(t *testing.T) {
	var skipped []string
	e := New(WithHooks(events.Hooks{
		OnRuleSkipped: func(_ context.Context, ev *events.RuleEvent) {
			skipped = append(skipped, ev.Rule+": "+ev.Reason)
		},
	}))
	input := map[string]any{"items": map[string]any{"x": map[string]any{}}}
	out, err := e.ConvertTree(context.Background(), input, mustDecode(t, `
rules:
  - content: item
    rules:
      - name: disabled
        actions:
          skip: true
          set: {a: 1}
      - name: enabled
        actions:
          set: {b: 2}
`), NewCounters(nil))
	if err != nil {
		t.Fatalf("ConvertTree failed: %v", err)
	}

	record := out["items"].(map[string]any)["x"].(map[string]any)
	if _, ok := record["a"]; ok {
		t.Error("skipped rule applied its actions")
	}
	if record["b"] != 2 {
		t.Error("later rule should still run after a skipped one")
	}
	if len(skipped) != 1 || skipped[0] != "disabled: skip flag set" {
		t.Errorf("skipped events = %v", skipped)
	}
}

func TestConvertTreeSharedSequenceAcrossRecords(t *testing.T) {
	input := map[string]any{
		"items": map[string]any{
			"a": map[string]any{},
			"b": map[string]any{},
			"c": map[string]any{},
		},
	}
	counters := NewCounters(map[string]int{"custom-model-data": 50000})
	out, err := New().ConvertTree(context.Background(), input, mustDecode(t, `
rules:
  - content: item
    rules:
      - name: cmd
        actions:
          sequence:
            model_data:
              id: custom-model-data
              start: 1
`), counters)
	if err != nil {
		t.Fatalf("ConvertTree failed: %v", err)
	}

	// Records are visited in sorted id order, so the override seeds "a"
	// and the counter advances from there.
	group := out["items"].(map[string]any)
	want := map[string]int{"a": 50000, "b": 50001, "c": 50002}
	for id, wantValue := range want {
		record := group[id].(map[string]any)
		if record["model_data"] != wantValue {
			t.Errorf("record %s model_data = %v, want %d", id, record["model_data"], wantValue)
		}
	}
}

func TestConvertTreeContextInConditionsAndActions(t *testing.T) {
	input := map[string]any{
		"blocks": map[string]any{
			"stone": map[string]any{"material": "rock"},
		},
	}
	out := convert(t, input, `
rules:
  - content: block
    context:
      model_path:
        expression: "'block/' + content_id"
    rules:
      - name: model
        conditions:
          - path: material
            value: rock
        actions:
          set:
            model: "{model_path}"
            label:
              expression: "upper(content_id)"
`)

	record := out["blocks"].(map[string]any)["stone"].(map[string]any)
	if record["model"] != "block/stone" {
		t.Errorf("model = %v, want block/stone", record["model"])
	}
	if record["label"] != "STONE" {
		t.Errorf("label = %v, want STONE", record["label"])
	}
}

func TestConvertTreeTopRuleWithoutContent(t *testing.T) {
	input := map[string]any{"items": map[string]any{"x": map[string]any{"v": 1}}}
	out := convert(t, input, `
rules:
  - context:
      a: 1
  - content: item
`)
	// The contentless rule is warned about and skipped; the second rule
	// still processes the tree.
	if got, _ := tree.Get(out, "items.x.v"); got != 1 {
		t.Errorf("items.x.v = %v, want 1", got)
	}
}

func TestConvertTreeNonMappingRecord(t *testing.T) {
	input := map[string]any{"items": map[string]any{"weird": "just a string"}}
	out := convert(t, input, `
rules:
  - content: item
    rules:
      - name: r
        actions:
          set: {a: 1}
`)
	if got, _ := tree.Get(out, "items.weird"); got != "just a string" {
		t.Errorf("non-mapping record should be copied verbatim, got %v", got)
	}
}

func TestConvertTreeItemStartEvents(t *testing.T) {
	var seen []events.ItemEvent
	e := New(WithHooks(events.Hooks{
		OnItemStart: func(_ context.Context, ev *events.ItemEvent) { seen = append(seen, *ev) },
	}))
	input := map[string]any{
		"items": map[string]any{
			"a": map[string]any{},
			"b": map[string]any{},
		},
	}
	if _, err := e.ConvertTree(context.Background(), input, mustDecode(t, "rules:\n  - content: item\n"), NewCounters(nil)); err != nil {
		t.Fatalf("ConvertTree failed: %v", err)
	}

	if len(seen) != 2 {
		t.Fatalf("got %d item events, want 2", len(seen))
	}
	if seen[0].Index != 1 || seen[0].Total != 2 || seen[1].Index != 2 {
		t.Errorf("progress indices wrong: %+v", seen)
	}
	if seen[0].ContentID != "a" || seen[1].ContentID != "b" {
		t.Errorf("content ids wrong: %+v", seen)
	}
}

func TestConvertTreeCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	input := map[string]any{"items": map[string]any{"a": map[string]any{}}}
	_, err := New().ConvertTree(ctx, input, mustDecode(t, "rules:\n  - content: item\n"), NewCounters(nil))
	if err == nil {
		t.Error("cancelled context should abort the conversion")
	}
}
