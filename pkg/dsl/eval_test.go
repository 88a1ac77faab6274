package dsl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordFilter_Match(t *testing.T) {
	record := map[string]any{
		"departement":               "Commercial",
		"poste":                     "Cadre Commercial",
		"age":                       41.0,
		"revenu_mensuel":            5993.0,
		"genre":                     "F",
		"distance_domicile_travail": nil,
	}

	tests := []struct {
		name string
		expr string
		want bool
	}{
		{"empty matches all", "", true},
		{"category equality", `record.departement == "Commercial"`, true},
		{"numeric comparison", `record.age >= 30 && record.revenu_mensuel < 5000`, false},
		{"int literal against double", `record.age > 40`, true},
		{"contains", `record.poste.contains("Cadre")`, true},
		{"in list", `record.genre in ["F", "M"]`, true},
		{"missing value", `record.distance_domicile_travail == null`, true},
		{"has", `has(record.niveau_education)`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := NewRecordFilter(tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.expr, f.Expr())

			got, err := f.Match(record)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewRecordFilter_Invalid(t *testing.T) {
	for _, expr := range []string{
		`record.age >=`,
		`"not a predicate"`,
		`unknown_var == 1`,
	} {
		_, err := NewRecordFilter(expr)
		assert.Error(t, err, expr)
	}
}

func TestRecordFilter_MissingField(t *testing.T) {
	f, err := NewRecordFilter(`record.niveau_education > 2`)
	require.NoError(t, err)
	_, err = f.Match(map[string]any{"age": 30.0})
	assert.Error(t, err)
}
