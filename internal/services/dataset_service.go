package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"sheetchart/internal/config"
	"sheetchart/internal/dataprocessing"
	"sheetchart/internal/infrastructure"
	"sheetchart/internal/ingest"
	"sheetchart/pkg/contracts/domain"
)

// ErrDatasetNotFound is returned when a dataset ID is unknown or evicted.
var ErrDatasetNotFound = errors.New("dataset not found")

// DatasetSummary is what callers get back after an upload: everything the
// UI needs to render the mapping confirmation step.
type DatasetSummary struct {
	ID               string                    `json:"id"`
	SourceName       string                    `json:"source_name"`
	RowCount         int                       `json:"row_count"`
	Columns          []domain.ColumnDescriptor `json:"columns"`
	SuggestedMapping domain.Mapping            `json:"suggested_mapping"`
	NeedsMapping     bool                      `json:"needs_mapping"`
}

// MetricRange is the min/max of a metric's per-period values, for chart
// axis scaling.
type MetricRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// AggregationResult bundles the aggregated periods with per-metric
// summaries for chart-rendering collaborators.
type AggregationResult struct {
	Granularity domain.Granularity     `json:"granularity"`
	Periods     []domain.PeriodRow     `json:"periods"`
	Totals      map[string]float64     `json:"totals"`
	Ranges      map[string]MetricRange `json:"ranges"`
}

// datasetState is one registered dataset plus its derived descriptors. The
// descriptors are computed once at ingest and never mutated; a re-upload
// replaces the whole state.
type datasetState struct {
	dataset    *domain.Dataset
	columns    []domain.ColumnDescriptor
	suggestion domain.Mapping
}

// DatasetService owns the in-memory dataset registry and orchestrates the
// engine: decode, detect, suggest, aggregate. The engine itself is pure;
// all shared state lives here behind a lock.
type DatasetService struct {
	mu          sync.RWMutex
	datasets    map[string]*datasetState
	order       []string
	maxDatasets int

	decoder *ingest.Decoder
	logger  *slog.Logger
	metrics *infrastructure.Metrics
}

// NewDatasetService creates a dataset service. A nil logger falls back to
// slog.Default(); metrics may be nil in tools that do not expose them.
func NewDatasetService(cfg *config.Config, logger *slog.Logger, metrics *infrastructure.Metrics) *DatasetService {
	if logger == nil {
		logger = slog.Default()
	}
	maxDatasets := cfg.Limits.MaxDatasets
	if maxDatasets <= 0 {
		maxDatasets = 100
	}
	return &DatasetService{
		datasets:    make(map[string]*datasetState),
		maxDatasets: maxDatasets,
		decoder:     ingest.NewDecoder(logger),
		logger:      logger.With(slog.String("component", "dataset_service")),
		metrics:     metrics,
	}
}

// Ingest decodes an uploaded file, infers column types, proposes a mapping
// and registers the dataset under a fresh ID. The oldest dataset is evicted
// once the registry is full.
func (s *DatasetService) Ingest(ctx context.Context, r io.Reader, filename string) (*DatasetSummary, error) {
	dataset, err := s.decoder.Decode(r, filename)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", filename, err)
	}
	dataset.ID = uuid.New().String()
	dataset.UploadedAt = time.Now().UTC()

	columns := dataprocessing.DetectColumnTypes(dataset)
	suggestion := dataprocessing.SuggestMapping(columns)

	s.mu.Lock()
	s.datasets[dataset.ID] = &datasetState{
		dataset:    dataset,
		columns:    columns,
		suggestion: suggestion,
	}
	s.order = append(s.order, dataset.ID)
	for len(s.order) > s.maxDatasets {
		evicted := s.order[0]
		s.order = s.order[1:]
		delete(s.datasets, evicted)
	}
	s.mu.Unlock()

	s.metrics.RecordIngest(ctx, len(dataset.Rows), "upload")
	s.logger.InfoContext(ctx, "dataset ingested",
		slog.String("dataset_id", dataset.ID),
		slog.String("source", dataset.SourceName),
		slog.Int("rows", len(dataset.Rows)),
		slog.Int("columns", len(dataset.Columns)))

	return &DatasetSummary{
		ID:               dataset.ID,
		SourceName:       dataset.SourceName,
		RowCount:         len(dataset.Rows),
		Columns:          columns,
		SuggestedMapping: suggestion,
		NeedsMapping:     dataprocessing.NeedsMapping(suggestion),
	}, nil
}

// Columns returns the column descriptors detected at ingest.
func (s *DatasetService) Columns(ctx context.Context, id string) ([]domain.ColumnDescriptor, error) {
	state, err := s.state(id)
	if err != nil {
		return nil, err
	}
	return state.columns, nil
}

// MappingSuggestion returns the auto-mapper's proposal and whether the
// dataset still needs manual mapping.
func (s *DatasetService) MappingSuggestion(ctx context.Context, id string) (domain.Mapping, bool, error) {
	state, err := s.state(id)
	if err != nil {
		return nil, false, err
	}
	return state.suggestion, dataprocessing.NeedsMapping(state.suggestion), nil
}

// Aggregate runs the period aggregator over a registered dataset with the
// caller-confirmed mapping, and derives the grand totals and axis ranges
// per metric. Results are freshly computed on every call.
func (s *DatasetService) Aggregate(ctx context.Context, id string, mapping domain.Mapping, granularity domain.Granularity, metrics []domain.MetricDescriptor) (*AggregationResult, error) {
	state, err := s.state(id)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	periods, err := dataprocessing.Aggregate(state.dataset.Rows, mapping, granularity, metrics)
	if err != nil {
		return nil, fmt.Errorf("aggregate dataset %s: %w", id, err)
	}

	result := &AggregationResult{
		Granularity: granularity,
		Periods:     periods,
		Totals:      make(map[string]float64, len(metrics)),
		Ranges:      make(map[string]MetricRange, len(metrics)),
	}
	for _, metric := range metrics {
		result.Totals[metric.Field] = dataprocessing.TotalForMetric(periods, metric)
		min, max := dataprocessing.RangeForMetric(periods, metric.Field)
		result.Ranges[metric.Field] = MetricRange{Min: min, Max: max}
	}

	s.metrics.RecordAggregation(ctx, string(granularity), time.Since(start).Seconds())
	s.logger.InfoContext(ctx, "aggregation served",
		slog.String("dataset_id", id),
		slog.String("granularity", string(granularity)),
		slog.Int("periods", len(periods)),
		slog.Int("metrics", len(metrics)))

	return result, nil
}

// Dataset returns the raw registered dataset.
func (s *DatasetService) Dataset(ctx context.Context, id string) (*domain.Dataset, error) {
	state, err := s.state(id)
	if err != nil {
		return nil, err
	}
	return state.dataset, nil
}

func (s *DatasetService) state(id string) (*datasetState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.datasets[id]
	if !ok {
		return nil, ErrDatasetNotFound
	}
	return state, nil
}
