package dataprocessing

import (
	"fmt"
	"sort"
	"time"

	"sheetchart/pkg/contracts/domain"
)

// periodBucket collects the rows falling into one calendar interval.
type periodBucket struct {
	key   string
	label string
	start time.Time
	rows  []domain.RawRow
}

// Aggregate groups rows into calendar buckets for the requested granularity
// and reduces every requested metric per bucket. Rows whose date value does
// not parse contribute to no period. The result is freshly computed on every
// call and sorted ascending by bucket start date. An unknown granularity is
// a caller contract violation and returns an error.
func Aggregate(rows []domain.RawRow, mapping domain.Mapping, granularity domain.Granularity, metrics []domain.MetricDescriptor) ([]domain.PeriodRow, error) {
	switch granularity {
	case domain.GranularityDay, domain.GranularityMonth, domain.GranularityQuarter:
	default:
		return nil, fmt.Errorf("unknown granularity %q", granularity)
	}

	dateColumn := mapping.Column(domain.FieldDate)
	if len(rows) == 0 || dateColumn == "" {
		return []domain.PeriodRow{}, nil
	}

	// Group rows by period key, preserving the first-seen bucket start.
	buckets := make(map[string]*periodBucket)
	order := make([]*periodBucket, 0)
	for _, row := range rows {
		date, ok := ParseDate(row[dateColumn])
		if !ok {
			continue
		}
		key, label, start := periodFor(date, granularity)
		bucket, exists := buckets[key]
		if !exists {
			bucket = &periodBucket{key: key, label: label, start: start}
			buckets[key] = bucket
			order = append(order, bucket)
		}
		bucket.rows = append(bucket.rows, row)
	}

	// Sort by bucket start date, not by string key, to avoid lexicographic
	// date-ordering bugs.
	sort.SliceStable(order, func(i, j int) bool {
		return order[i].start.Before(order[j].start)
	})

	result := make([]domain.PeriodRow, 0, len(order))
	for _, bucket := range order {
		period := domain.PeriodRow{
			PeriodKey: bucket.key,
			Label:     bucket.label,
			Date:      bucket.start,
			RowCount:  len(bucket.rows),
			Values:    make(map[string]float64, len(metrics)),
		}
		for _, metric := range metrics {
			values := metricValues(bucket.rows, mapping, metric.Field)
			period.Values[metric.Field] = reduce(values, metric.Aggregation)
		}
		result = append(result, period)
	}
	return result, nil
}

// periodFor floors a date to its bucket start and derives the period key and
// human-readable label.
func periodFor(date time.Time, granularity domain.Granularity) (key, label string, start time.Time) {
	switch granularity {
	case domain.GranularityMonth:
		start = time.Date(date.Year(), date.Month(), 1, 0, 0, 0, 0, date.Location())
		return start.Format("2006-01"), start.Format("Jan 2006"), start
	case domain.GranularityQuarter:
		quarter := (int(date.Month())-1)/3 + 1
		startMonth := time.Month((quarter-1)*3 + 1)
		start = time.Date(date.Year(), startMonth, 1, 0, 0, 0, 0, date.Location())
		key = fmt.Sprintf("%d-Q%d", date.Year(), quarter)
		return key, fmt.Sprintf("%d Q%d", date.Year(), quarter), start
	default: // day
		start = time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
		return start.Format("2006-01-02"), start.Format("Jan 2, 2006"), start
	}
}

// metricValues extracts the valid numeric values for one metric field from a
// bucket's rows. A formula-derived field is evaluated per row; otherwise the
// field resolves through the mapping, falling back to the field name itself
// as the column name when unmapped.
func metricValues(rows []domain.RawRow, mapping domain.Mapping, field string) []float64 {
	entry, mapped := mapping[field]
	values := make([]float64, 0, len(rows))

	if mapped && entry.IsFormula() {
		for _, row := range rows {
			if v, ok := EvaluateFormula(entry.Formula, row, mapping); ok {
				values = append(values, v)
			}
		}
		return values
	}

	column := field
	if mapped && entry.Column != "" {
		column = entry.Column
	}
	for _, row := range rows {
		if v, ok := ParseNumeric(row[column]); ok {
			values = append(values, v)
		}
	}
	return values
}

// reduce applies one aggregation over a value set. An empty set reduces to 0
// for every aggregation type.
func reduce(values []float64, aggregation domain.AggregationType) float64 {
	if len(values) == 0 {
		return 0
	}
	switch aggregation {
	case domain.AggregationAverage:
		return sum(values) / float64(len(values))
	case domain.AggregationCount:
		return float64(len(values))
	case domain.AggregationMin:
		min := values[0]
		for _, v := range values[1:] {
			if v < min {
				min = v
			}
		}
		return min
	case domain.AggregationMax:
		max := values[0]
		for _, v := range values[1:] {
			if v > max {
				max = v
			}
		}
		return max
	default:
		return sum(values)
	}
}

func sum(values []float64) float64 {
	total := 0.0
	for _, v := range values {
		total += v
	}
	return total
}

// TotalForMetric re-reduces the already-aggregated per-period values of one
// metric using the same reduction rule, for grand-total summaries.
func TotalForMetric(periods []domain.PeriodRow, metric domain.MetricDescriptor) float64 {
	values := make([]float64, 0, len(periods))
	for _, period := range periods {
		if v, ok := period.Values[metric.Field]; ok {
			values = append(values, v)
		}
	}
	return reduce(values, metric.Aggregation)
}

// RangeForMetric returns the min and max per-period values of one metric,
// for chart axis scaling. An empty result yields (0, 0).
func RangeForMetric(periods []domain.PeriodRow, field string) (min, max float64) {
	first := true
	for _, period := range periods {
		v, ok := period.Values[field]
		if !ok {
			continue
		}
		if first {
			min, max = v, v
			first = false
			continue
		}
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return min, max
}
