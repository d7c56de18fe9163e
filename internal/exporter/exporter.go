// Package exporter writes aggregated period rows to CSV and JSON files for
// chart-rendering collaborators and offline use.
package exporter

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"sheetchart/pkg/contracts/domain"
)

// Writer persists aggregation results under a base directory.
type Writer struct {
	baseDir string
	logger  *slog.Logger
}

// NewWriter creates an export writer. A nil logger falls back to
// slog.Default().
func NewWriter(baseDir string, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{baseDir: baseDir, logger: logger}
}

// WriteCSV writes one row per period: key, label, bucket start, row count,
// then one column per requested metric.
func (w *Writer) WriteCSV(ctx context.Context, name string, periods []domain.PeriodRow, metrics []domain.MetricDescriptor) (string, error) {
	path := filepath.Join(w.baseDir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create export file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{"PeriodKey", "Label", "Date", "RowCount"}
	for _, metric := range metrics {
		header = append(header, metricHeader(metric))
	}
	if err := writer.Write(header); err != nil {
		return "", fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, period := range periods {
		row := []string{
			period.PeriodKey,
			period.Label,
			period.Date.Format("2006-01-02"),
			strconv.Itoa(period.RowCount),
		}
		for _, metric := range metrics {
			row = append(row, strconv.FormatFloat(period.Values[metric.Field], 'f', -1, 64))
		}
		if err := writer.Write(row); err != nil {
			return "", fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	w.logger.InfoContext(ctx, "periods exported to CSV",
		slog.String("path", path),
		slog.Int("periods", len(periods)))

	return path, nil
}

// WriteJSON writes the periods with metadata, the format consumed by chart
// collaborators.
func (w *Writer) WriteJSON(ctx context.Context, name string, periods []domain.PeriodRow, totals map[string]float64) (string, error) {
	path := filepath.Join(w.baseDir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}

	payload := map[string]interface{}{
		"periods":      periods,
		"totals":       totals,
		"count":        len(periods),
		"generated_at": time.Now().UTC().Format(time.RFC3339),
		"format":       "period_series_v1",
	}

	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create export file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(payload); err != nil {
		return "", fmt.Errorf("failed to encode periods to JSON: %w", err)
	}

	w.logger.InfoContext(ctx, "periods exported to JSON",
		slog.String("path", path),
		slog.Int("periods", len(periods)))

	return path, nil
}

func metricHeader(metric domain.MetricDescriptor) string {
	if metric.Label != "" {
		return metric.Label
	}
	return metric.Field
}
