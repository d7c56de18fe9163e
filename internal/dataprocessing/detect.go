package dataprocessing

import (
	"regexp"
	"strings"
	"time"

	"sheetchart/pkg/contracts/domain"
)

const (
	// sampleSize caps how many non-empty values are inspected per column.
	sampleSize = 20
	// typeThreshold is the match ratio a category must reach over the
	// sampled values before it wins the column.
	typeThreshold = 0.6

	// Spreadsheet day serials in this range cover roughly 1982-2036,
	// the plausible window for report dates.
	serialDateMin = 30000
	serialDateMax = 50000
)

// Textual date shapes recognized during detection: ISO, slash-separated,
// dash-separated and "Mon D, YYYY".
var datePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^\d{4}-\d{2}-\d{2}(?:[T ]\d{2}:\d{2}(?::\d{2})?)?`),
	regexp.MustCompile(`^\d{1,2}/\d{1,2}/\d{2,4}$`),
	regexp.MustCompile(`^\d{1,2}-\d{1,2}-\d{4}$`),
	regexp.MustCompile(`^[A-Za-z]{3,9} \d{1,2},? \d{4}$`),
}

var currencyGlyphs = []string{"$", "€", "£", "¥"}

// valueCategory is the per-value classification used by the detector.
type valueCategory int

const (
	categoryNone valueCategory = iota
	categoryPercentage
	categoryCurrency
	categoryDate
	categoryNumber
)

// DetectColumnTypes infers a semantic type for every column of the dataset,
// sampling up to 20 non-empty values per column.
func DetectColumnTypes(ds *domain.Dataset) []domain.ColumnDescriptor {
	descriptors := make([]domain.ColumnDescriptor, 0, len(ds.Columns))
	for _, name := range ds.Columns {
		sample := sampleColumn(ds.Rows, name, sampleSize)
		descriptors = append(descriptors, domain.ColumnDescriptor{
			Name: name,
			Type: DetectColumnType(sample),
		})
	}
	return descriptors
}

// DetectColumnType classifies a column from its sampled non-empty values.
// Each value lands in exactly one category; the column takes the first
// category whose ratio reaches the threshold, checked in the fixed order
// date, percentage, currency, number. Anything else is text.
func DetectColumnType(sample []interface{}) domain.ColumnType {
	if len(sample) == 0 {
		return domain.ColumnTypeText
	}

	counts := map[valueCategory]int{}
	for _, v := range sample {
		counts[classifyValue(v)]++
	}

	total := float64(len(sample))
	ordered := []struct {
		category valueCategory
		colType  domain.ColumnType
	}{
		{categoryDate, domain.ColumnTypeDate},
		{categoryPercentage, domain.ColumnTypePercentage},
		{categoryCurrency, domain.ColumnTypeCurrency},
		{categoryNumber, domain.ColumnTypeNumber},
	}
	for _, c := range ordered {
		if float64(counts[c.category])/total >= typeThreshold {
			return c.colType
		}
	}
	return domain.ColumnTypeText
}

// classifyValue assigns a single raw value to exactly one category, in
// priority order percentage, currency, date, number.
func classifyValue(value interface{}) valueCategory {
	if s, ok := value.(string); ok {
		trimmed := strings.TrimSpace(s)
		if strings.Contains(trimmed, "%") {
			return categoryPercentage
		}
		if hasCurrencyGlyph(trimmed) {
			return categoryCurrency
		}
		if isTextualDate(trimmed) {
			return categoryDate
		}
		if _, ok := ParseNumeric(trimmed); ok {
			return categoryNumber
		}
		return categoryNone
	}

	if _, ok := value.(time.Time); ok {
		return categoryDate
	}

	if n, ok := ParseNumeric(value); ok {
		if n >= 0 && n <= 1 {
			return categoryPercentage
		}
		if n >= serialDateMin && n <= serialDateMax {
			return categoryDate
		}
		return categoryNumber
	}

	return categoryNone
}

func hasCurrencyGlyph(s string) bool {
	for _, glyph := range currencyGlyphs {
		if strings.HasPrefix(s, glyph) || strings.HasSuffix(s, glyph) {
			return true
		}
	}
	return false
}

func isTextualDate(s string) bool {
	for _, re := range datePatterns {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

// sampleColumn collects up to limit non-empty values for one column.
func sampleColumn(rows []domain.RawRow, column string, limit int) []interface{} {
	sample := make([]interface{}, 0, limit)
	for _, row := range rows {
		if len(sample) >= limit {
			break
		}
		v, ok := row[column]
		if !ok || v == nil {
			continue
		}
		if s, isString := v.(string); isString && strings.TrimSpace(s) == "" {
			continue
		}
		sample = append(sample, v)
	}
	return sample
}
