package sensor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchHostEvent(t *testing.T) {
	tests := []struct {
		name     string
		criteria map[string]any
		actual   map[string]any
		logic    Logic
		want     bool
	}{
		{"empty criteria AND is vacuous", map[string]any{}, map[string]any{"x": 1}, LogicAnd, true},
		{"empty criteria AND empty actual", nil, nil, LogicAnd, true},
		{"empty criteria OR empty actual", nil, nil, LogicOr, true},
		{"empty criteria OR", nil, map[string]any{"x": 1}, LogicOr, false},
		{"missing key AND", map[string]any{"a": 1}, map[string]any{}, LogicAnd, false},
		{"missing key OR", map[string]any{"a": 1}, map[string]any{"b": 1}, LogicOr, false},
		{"all match", map[string]any{"action": "install", "type": "theme"}, map[string]any{"action": "install", "type": "theme", "extra": true}, LogicAnd, true},
		{"one mismatch AND", map[string]any{"action": "install", "type": "theme"}, map[string]any{"action": "install", "type": "plugin"}, LogicAnd, false},
		{"one match OR", map[string]any{"action": "delete", "type": "theme"}, map[string]any{"action": "install", "type": "theme"}, LogicOr, true},
		{"numeric text", map[string]any{"network_wide": 1}, map[string]any{"network_wide": "1"}, LogicAnd, true},
		{"nil only matches nil", map[string]any{"a": nil}, map[string]any{"a": ""}, LogicAnd, false},
		{"lowercase logic", map[string]any{"a": 1, "b": 2}, map[string]any{"b": 2}, Logic("or"), true},
		{"unknown logic is AND", map[string]any{"a": 1, "b": 2}, map[string]any{"b": 2}, Logic("XOR"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MatchHostEvent(tt.criteria, tt.actual, tt.logic))
		})
	}
}
