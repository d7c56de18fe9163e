// Package dataprocessing is the normalization and aggregation engine behind
// chart generation. It turns a decoded rectangular table into chartable
// time series in four steps:
//
//  1. Column type detection: each column is classified as date, number,
//     percentage, currency or text from a sample of its values.
//  2. Field auto-mapping: column names and types are matched against
//     heuristic keyword lists to suggest a business-field mapping, which the
//     caller confirms or overrides.
//  3. Parsing: raw cell values are converted to calendar dates (including
//     spreadsheet day serials) and floats, tolerating the textual encodings
//     found in exported reports.
//  4. Period aggregation: rows are grouped into day, month or quarter
//     buckets and each requested metric is reduced per bucket, optionally
//     evaluating a user-defined arithmetic formula per row.
//
// Every operation is a pure function over immutable inputs: no shared state,
// no I/O, bounded time proportional to rows times metrics. Per-value
// problems (an unparsable date, a bad formula reference) degrade to dropped
// values or zeros rather than errors, so callers always get something to
// chart.
package dataprocessing
