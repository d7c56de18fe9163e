package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sheetchart/pkg/contracts/domain"
)

func TestEvaluateFormula(t *testing.T) {
	tests := []struct {
		name    string
		formula string
		row     domain.RawRow
		mapping domain.Mapping
		want    float64
		ok      bool
	}{
		{
			name:    "simple addition",
			formula: "{a} + {b}",
			row:     domain.RawRow{"a": 2.0, "b": 3.0},
			want:    5,
			ok:      true,
		},
		{
			name:    "missing reference fails closed",
			formula: "{missing}",
			row:     domain.RawRow{"a": 1.0},
			ok:      false,
		},
		{
			name:    "injection attempt is rejected by whitelist",
			formula: "{a}; DROP TABLE",
			row:     domain.RawRow{"a": 1.0},
			ok:      false,
		},
		{
			name:    "case insensitive reference",
			formula: "{SALES} * 2",
			row:     domain.RawRow{"sales": 10.0},
			want:    20,
			ok:      true,
		},
		{
			name:    "precedence and parentheses",
			formula: "({a} + {b}) * {c} - 1",
			row:     domain.RawRow{"a": 1.0, "b": 2.0, "c": 4.0},
			want:    11,
			ok:      true,
		},
		{
			name:    "division",
			formula: "{clicks} / {impressions}",
			row:     domain.RawRow{"clicks": 30.0, "impressions": 1000.0},
			want:    0.03,
			ok:      true,
		},
		{
			name:    "division by zero is not a number",
			formula: "{a} / {b}",
			row:     domain.RawRow{"a": 1.0, "b": 0.0},
			ok:      false,
		},
		{
			name:    "numeric string values parse",
			formula: "{spend} + {fees}",
			row:     domain.RawRow{"spend": "$1,200", "fees": "300"},
			want:    1500,
			ok:      true,
		},
		{
			name:    "non numeric reference fails the whole formula",
			formula: "{a} + {b}",
			row:     domain.RawRow{"a": 2.0, "b": "n/a"},
			ok:      false,
		},
		{
			name:    "negative values survive substitution",
			formula: "{delta} * 3",
			row:     domain.RawRow{"delta": -2.5},
			want:    -7.5,
			ok:      true,
		},
		{
			name:    "empty formula",
			formula: "  ",
			row:     domain.RawRow{"a": 1.0},
			ok:      false,
		},
		{
			name:    "unbalanced parentheses",
			formula: "({a} + 1",
			row:     domain.RawRow{"a": 1.0},
			ok:      false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := EvaluateFormula(tt.formula, tt.row, tt.mapping)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.InDelta(t, tt.want, got, 1e-9)
			}
		})
	}
}

// References may name a mapped field's column, label or field key; the value
// still comes from the field's actual column in the row.
func TestEvaluateFormula_MappingResolution(t *testing.T) {
	row := domain.RawRow{"Total Ad Spend": 500.0, "Attributed Revenue": 2000.0}
	mapping := domain.Mapping{
		domain.FieldSpend: {
			Field:  domain.FieldSpend,
			Column: "Total Ad Spend",
			Label:  "Spend",
		},
		domain.FieldAttributableSales: {
			Field:  domain.FieldAttributableSales,
			Column: "Attributed Revenue",
			Label:  "Sales",
		},
	}

	got, ok := EvaluateFormula("{Sales} / {spend}", row, mapping)
	require.True(t, ok)
	assert.InDelta(t, 4.0, got, 1e-9)

	// Field key lookup.
	got, ok = EvaluateFormula("{attributableSales} - {Spend}", row, mapping)
	require.True(t, ok)
	assert.InDelta(t, 1500.0, got, 1e-9)
}

func TestEvalExpression(t *testing.T) {
	tests := []struct {
		input string
		want  float64
		ok    bool
	}{
		{input: "1 + 2 * 3", want: 7, ok: true},
		{input: "(1 + 2) * 3", want: 9, ok: true},
		{input: "10 / 4", want: 2.5, ok: true},
		{input: "-3 + 5", want: 2, ok: true},
		{input: "2 * -3", want: -6, ok: true},
		{input: "1.5 + 0.5", want: 2, ok: true},
		{input: "", ok: false},
		{input: "1 +", ok: false},
		{input: "()", ok: false},
		{input: "1 2", ok: false},
		{input: "1..2", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := evalExpression(tt.input)
			assert.Equal(t, tt.ok, ok, "input %q", tt.input)
			if tt.ok {
				assert.InDelta(t, tt.want, got, 1e-9)
			}
		})
	}
}
