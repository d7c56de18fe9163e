package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sheetchart/pkg/contracts/domain"
)

func TestSuggestMapping(t *testing.T) {
	columns := []domain.ColumnDescriptor{
		{Name: "Date", Type: domain.ColumnTypeDate},
		{Name: "Campaign Name", Type: domain.ColumnTypeText},
		{Name: "Impressions", Type: domain.ColumnTypeNumber},
		{Name: "Clicks", Type: domain.ColumnTypeNumber},
		{Name: "Click-Through Rate", Type: domain.ColumnTypePercentage},
		{Name: "Spend", Type: domain.ColumnTypeCurrency},
		{Name: "Attributable Sales", Type: domain.ColumnTypeCurrency},
	}

	mapping := SuggestMapping(columns)

	assert.Equal(t, "Date", mapping.Column(domain.FieldDate))
	assert.Equal(t, "Attributable Sales", mapping.Column(domain.FieldAttributableSales))
	assert.Equal(t, "Click-Through Rate", mapping.Column(domain.FieldCTR))
	assert.Equal(t, "Impressions", mapping.Column(domain.FieldImpressions))
	assert.Equal(t, "Clicks", mapping.Column(domain.FieldClicks))
	assert.Equal(t, "Spend", mapping.Column(domain.FieldSpend))

	require.Contains(t, mapping, domain.FieldCTR)
	assert.True(t, mapping[domain.FieldCTR].IsPercentage)
}

// The clicks field must not grab rate or click-through columns.
func TestSuggestMapping_ClicksExcludesRateColumns(t *testing.T) {
	columns := []domain.ColumnDescriptor{
		{Name: "Click Rate", Type: domain.ColumnTypePercentage},
		{Name: "Clickthrough", Type: domain.ColumnTypePercentage},
		{Name: "Total Clicks", Type: domain.ColumnTypeNumber},
	}

	mapping := SuggestMapping(columns)
	assert.Equal(t, "Total Clicks", mapping.Column(domain.FieldClicks))
}

// A column detected as date matches the date field even when its name
// carries no date keyword.
func TestSuggestMapping_DateMatchesByType(t *testing.T) {
	columns := []domain.ColumnDescriptor{
		{Name: "Reporting Window", Type: domain.ColumnTypeDate},
		{Name: "Revenue", Type: domain.ColumnTypeCurrency},
	}

	mapping := SuggestMapping(columns)
	assert.Equal(t, "Reporting Window", mapping.Column(domain.FieldDate))
	assert.Equal(t, "Revenue", mapping.Column(domain.FieldAttributableSales))
}

// First match wins: column order breaks ties deterministically.
func TestSuggestMapping_FirstMatchWins(t *testing.T) {
	columns := []domain.ColumnDescriptor{
		{Name: "Ad Spend", Type: domain.ColumnTypeCurrency},
		{Name: "Total Cost", Type: domain.ColumnTypeCurrency},
	}

	for i := 0; i < 5; i++ {
		mapping := SuggestMapping(columns)
		assert.Equal(t, "Ad Spend", mapping.Column(domain.FieldSpend))
	}
}

func TestSuggestMapping_UnmatchedFieldsOmitted(t *testing.T) {
	columns := []domain.ColumnDescriptor{
		{Name: "Notes", Type: domain.ColumnTypeText},
	}

	mapping := SuggestMapping(columns)
	assert.Empty(t, mapping)
}

func TestNeedsMapping(t *testing.T) {
	tests := []struct {
		name    string
		mapping domain.Mapping
		want    bool
	}{
		{
			name:    "empty mapping",
			mapping: domain.Mapping{},
			want:    true,
		},
		{
			name: "date only",
			mapping: domain.Mapping{
				domain.FieldDate: {Field: domain.FieldDate, Column: "Date"},
			},
			want: true,
		},
		{
			name: "date plus impressions",
			mapping: domain.Mapping{
				domain.FieldDate:        {Field: domain.FieldDate, Column: "Date"},
				domain.FieldImpressions: {Field: domain.FieldImpressions, Column: "Impr"},
			},
			want: false,
		},
		{
			name: "metrics without date",
			mapping: domain.Mapping{
				domain.FieldCTR: {Field: domain.FieldCTR, Column: "CTR"},
			},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NeedsMapping(tt.mapping))
		})
	}
}
