package infrastructure

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.28.0"
)

const (
	ServiceName    = "sheetchart"
	ServiceVersion = "1.0.0"
	MeterName      = "sheetchart"
)

// Metrics holds the application meters and the Prometheus scrape handler.
type Metrics struct {
	MeterProvider *sdkmetric.MeterProvider
	Meter         metric.Meter
	Handler       http.Handler

	DatasetsIngested    metric.Int64Counter
	RowsIngested        metric.Int64Counter
	AggregationsRun     metric.Int64Counter
	AggregationDuration metric.Float64Histogram
}

// InitializeMetrics sets up an OpenTelemetry meter provider backed by a
// Prometheus exporter and registers the application instruments.
func InitializeMetrics(logger *slog.Logger) (*Metrics, error) {
	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(ServiceName),
		semconv.ServiceVersion(ServiceVersion),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	exporter, err := otelprom.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)
	otel.SetMeterProvider(provider)

	meter := provider.Meter(MeterName)
	m := &Metrics{
		MeterProvider: provider,
		Meter:         meter,
		Handler:       promhttp.Handler(),
	}

	if m.DatasetsIngested, err = meter.Int64Counter("sheetchart_datasets_ingested_total",
		metric.WithDescription("Datasets successfully decoded from uploaded files")); err != nil {
		return nil, err
	}
	if m.RowsIngested, err = meter.Int64Counter("sheetchart_rows_ingested_total",
		metric.WithDescription("Raw rows decoded across all datasets")); err != nil {
		return nil, err
	}
	if m.AggregationsRun, err = meter.Int64Counter("sheetchart_aggregations_total",
		metric.WithDescription("Aggregation calls served")); err != nil {
		return nil, err
	}
	if m.AggregationDuration, err = meter.Float64Histogram("sheetchart_aggregation_duration_seconds",
		metric.WithDescription("Wall time per aggregation call")); err != nil {
		return nil, err
	}

	logger.Info("metrics initialized",
		slog.String("service", ServiceName),
		slog.String("exporter", "prometheus"))

	return m, nil
}

// RecordIngest counts one decoded dataset and its rows.
func (m *Metrics) RecordIngest(ctx context.Context, rows int, source string) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("source", source))
	m.DatasetsIngested.Add(ctx, 1, attrs)
	m.RowsIngested.Add(ctx, int64(rows), attrs)
}

// RecordAggregation counts one aggregation call.
func (m *Metrics) RecordAggregation(ctx context.Context, granularity string, seconds float64) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("granularity", granularity))
	m.AggregationsRun.Add(ctx, 1, attrs)
	m.AggregationDuration.Record(ctx, seconds, attrs)
}

// Shutdown flushes the meter provider.
func (m *Metrics) Shutdown(ctx context.Context) error {
	if m == nil || m.MeterProvider == nil {
		return nil
	}
	return m.MeterProvider.Shutdown(ctx)
}
