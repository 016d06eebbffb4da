package engine

import (
	"context"
	"testing"

	"github.com/aretw0/reshape/pkg/schema"
)

func boolPtr(b bool) *bool { return &b }

func strPtr(s string) *string { return &s }

func TestEvaluateCondition(t *testing.T) {
	record := map[string]any{
		"id":     "minecraft:stone_sword",
		"damage": 5,
		"weight": 2.5,
		"rarity": nil,
		"display": map[string]any{
			"name": "Sword",
		},
	}
	vars := map[string]any{
		"content_id": "sword",
		"min_damage": 3,
	}

	tests := []struct {
		name string
		cond schema.Condition
		want bool
	}{
		{"exists true on present field", schema.Condition{Path: "damage", Exists: boolPtr(true)}, true},
		{"exists true on absent field", schema.Condition{Path: "missing", Exists: boolPtr(true)}, false},
		{"exists false on absent field", schema.Condition{Path: "missing", Exists: boolPtr(false)}, true},
		{"exists false on present field", schema.Condition{Path: "damage", Exists: boolPtr(false)}, false},
		{"exists false on present null field", schema.Condition{Path: "rarity", Exists: boolPtr(false)}, false},
		{"value equality", schema.Condition{Path: "damage", Value: 5, HasValue: true}, true},
		{"value equality across numeric types", schema.Condition{Path: "damage", Value: 5.0, HasValue: true}, true},
		{"value mismatch", schema.Condition{Path: "damage", Value: 6, HasValue: true}, false},
		{"value check on absent field", schema.Condition{Path: "missing", Value: 5, HasValue: true}, false},
		{"regex prefix match", schema.Condition{Path: "id", RegexMatch: strPtr("minecraft:")}, true},
		{"regex is not full match", schema.Condition{Path: "id", RegexMatch: strPtr("minecraft:stone")}, true},
		{"regex not at start", schema.Condition{Path: "id", RegexMatch: strPtr("stone")}, false},
		{"regex on non-string", schema.Condition{Path: "damage", RegexMatch: strPtr(`\d`)}, false},
		{"regex on absent field", schema.Condition{Path: "missing", RegexMatch: strPtr(".*")}, false},
		{"min inclusive", schema.Condition{Path: "damage", Min: 5}, true},
		{"min exceeded", schema.Condition{Path: "damage", Min: 6}, false},
		{"max inclusive", schema.Condition{Path: "damage", Max: 5}, true},
		{"max exceeded", schema.Condition{Path: "damage", Max: 4}, false},
		{"min and max band", schema.Condition{Path: "weight", Min: 1, Max: 3}, true},
		{"range on non-numeric", schema.Condition{Path: "id", Min: 0}, false},
		{"range on absent field", schema.Condition{Path: "missing", Min: 0}, false},
		{"placeholder in min", schema.Condition{Path: "damage", Min: "{min_damage}"}, true},
		{"placeholder in value", schema.Condition{Path: "display.name", Value: "Sword", HasValue: true}, true},
		{"no path", schema.Condition{}, false},
		{"bare path on present field", schema.Condition{Path: "damage"}, true},
	}

	e := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.evaluateCondition(context.Background(), record, tt.cond, "sword", "test-rule", vars)
			if got != tt.want {
				t.Errorf("evaluateCondition(%+v) = %v, want %v", tt.cond, got, tt.want)
			}
		})
	}
}

func TestEvaluateConditionPlaceholderPath(t *testing.T) {
	record := map[string]any{"stats": map[string]any{"damage": 9}}
	vars := map[string]any{"field": "damage"}

	cond := schema.Condition{Path: "stats.{field}", Min: 9}
	if !New().evaluateCondition(context.Background(), record, cond, "id", "r", vars) {
		t.Error("placeholder path should resolve before lookup")
	}
}
