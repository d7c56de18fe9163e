package domain

import (
	"time"
)

// ColumnType is the semantic type inferred for a column from a value sample.
type ColumnType string

const (
	ColumnTypeDate       ColumnType = "date"
	ColumnTypeNumber     ColumnType = "number"
	ColumnTypePercentage ColumnType = "percentage"
	ColumnTypeCurrency   ColumnType = "currency"
	ColumnTypeText       ColumnType = "text"
)

// RawRow maps a column name to the raw cell value decoded from the source
// file. Values are float64, string, bool or nil for empty cells. Rows are
// never mutated after decoding.
type RawRow map[string]interface{}

// Dataset is the full set of rows decoded from one uploaded file, plus the
// column order taken from the header row.
type Dataset struct {
	ID         string    `json:"id"`
	SourceName string    `json:"source_name"`
	Columns    []string  `json:"columns"`
	Rows       []RawRow  `json:"rows"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// ColumnDescriptor describes one column of a dataset with its inferred type.
// Descriptors are produced once per dataset and never mutated.
type ColumnDescriptor struct {
	Name string     `json:"name"`
	Type ColumnType `json:"type"`
}

// Business field keys recognized by the auto-mapper.
const (
	FieldDate              = "date"
	FieldAttributableSales = "attributableSales"
	FieldCTR               = "ctr"
	FieldImpressions       = "impressions"
	FieldClicks            = "clicks"
	FieldSpend             = "spend"
)

// FormulaDerived is the sentinel column value marking a mapping entry whose
// values come from a formula instead of a source column.
const FormulaDerived = "formula-derived"

// MappingEntry associates one business field with either a source column or
// a formula, plus display attributes owned by the UI layer.
type MappingEntry struct {
	Field        string `json:"field" validate:"required"`
	Column       string `json:"column"`
	Formula      string `json:"formula,omitempty"`
	Label        string `json:"label,omitempty"`
	Color        string `json:"color,omitempty"`
	IsPercentage bool   `json:"is_percentage,omitempty"`
}

// IsFormula reports whether the entry derives its values from a formula.
func (e MappingEntry) IsFormula() bool {
	return e.Column == FormulaDerived && e.Formula != ""
}

// Mapping is the caller-owned association of business fields to columns.
// The engine reads it as a snapshot per call and never mutates it.
type Mapping map[string]MappingEntry

// Column returns the source column mapped to field, or "" when the field is
// unmapped or formula-derived.
func (m Mapping) Column(field string) string {
	entry, ok := m[field]
	if !ok || entry.IsFormula() {
		return ""
	}
	return entry.Column
}

// AggregationType selects the reduction applied to a metric's values within
// one period bucket.
type AggregationType string

const (
	AggregationSum     AggregationType = "sum"
	AggregationAverage AggregationType = "average"
	AggregationCount   AggregationType = "count"
	AggregationMin     AggregationType = "min"
	AggregationMax     AggregationType = "max"
)

// Granularity is the calendar bucket size used for aggregation.
type Granularity string

const (
	GranularityDay     Granularity = "day"
	GranularityMonth   Granularity = "month"
	GranularityQuarter Granularity = "quarter"
)

// MetricDescriptor is one requested chart series: a field plus the
// reduction to apply per period.
type MetricDescriptor struct {
	Field        string          `json:"field" validate:"required"`
	Aggregation  AggregationType `json:"aggregation" validate:"required,oneof=sum average count min max"`
	Label        string          `json:"label,omitempty"`
	Color        string          `json:"color,omitempty"`
	IsPercentage bool            `json:"is_percentage,omitempty"`
}

// PeriodRow is one aggregated time bucket. Values holds one reduced number
// per requested metric field. Rows are freshly computed on every
// aggregation call and returned in ascending order of Date.
type PeriodRow struct {
	PeriodKey string             `json:"period_key"`
	Label     string             `json:"label"`
	Date      time.Time          `json:"date"`
	RowCount  int                `json:"row_count"`
	Values    map[string]float64 `json:"values"`
}
