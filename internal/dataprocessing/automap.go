package dataprocessing

import (
	"strings"

	"sheetchart/pkg/contracts/domain"
)

// fieldRule holds the keyword patterns that match a business field against a
// column name. Rules are evaluated in this order and columns are scanned in
// their original order, so the first match always wins.
type fieldRule struct {
	field    string
	patterns []string
	exclude  []string
	// wantType additionally matches a column by its detected type.
	wantType domain.ColumnType
}

var fieldRules = []fieldRule{
	{
		field:    domain.FieldDate,
		patterns: []string{"date", "time", "day", "period", "timestamp"},
		wantType: domain.ColumnTypeDate,
	},
	{
		field:    domain.FieldAttributableSales,
		patterns: []string{"attributable sales", "sales", "revenue", "total sales", "attributed sales"},
	},
	{
		field:    domain.FieldCTR,
		patterns: []string{"ctr", "click through", "clickthrough", "click-through", "click rate"},
	},
	{
		field:    domain.FieldImpressions,
		patterns: []string{"impression", "impr", "views", "reach"},
	},
	{
		field:    domain.FieldClicks,
		patterns: []string{"click", "clk"},
		exclude:  []string{"rate", "through"},
	},
	{
		field:    domain.FieldSpend,
		patterns: []string{"spend", "cost", "budget", "ad spend"},
	},
}

// SuggestMapping proposes a business-field mapping from detected column
// descriptors. The result is a suggestion only: the caller must let the user
// confirm or override every entry before aggregation runs.
func SuggestMapping(columns []domain.ColumnDescriptor) domain.Mapping {
	mapping := make(domain.Mapping, len(fieldRules))
	for _, rule := range fieldRules {
		column, ok := firstMatch(rule, columns)
		if !ok {
			continue
		}
		mapping[rule.field] = domain.MappingEntry{
			Field:        rule.field,
			Column:       column,
			Label:        column,
			IsPercentage: rule.field == domain.FieldCTR,
		}
	}
	return mapping
}

// firstMatch scans columns in original order and returns the first one whose
// lowercased name contains any of the rule's patterns (or whose detected
// type matches wantType), skipping names containing an excluded token.
func firstMatch(rule fieldRule, columns []domain.ColumnDescriptor) (string, bool) {
	for _, col := range columns {
		name := strings.ToLower(col.Name)
		if containsAny(name, rule.exclude) {
			continue
		}
		if containsAny(name, rule.patterns) {
			return col.Name, true
		}
		if rule.wantType != "" && col.Type == rule.wantType {
			return col.Name, true
		}
	}
	return "", false
}

func containsAny(name string, tokens []string) bool {
	for _, token := range tokens {
		if strings.Contains(name, token) {
			return true
		}
	}
	return false
}

// NeedsMapping reports whether the suggested mapping is too incomplete to
// aggregate with: no date column resolved, or none of the primary metric
// fields (attributable sales, CTR, impressions) resolved.
func NeedsMapping(mapping domain.Mapping) bool {
	if mapping.Column(domain.FieldDate) == "" {
		return true
	}
	for _, field := range []string{domain.FieldAttributableSales, domain.FieldCTR, domain.FieldImpressions} {
		if mapping.Column(field) != "" {
			return false
		}
	}
	return true
}
