package http

import (
	"context"
	"io"

	"sheetchart/internal/services"
	"sheetchart/pkg/contracts/domain"
)

// DatasetServiceInterface is the service contract the dataset handler
// depends on, kept narrow so tests can substitute a stub.
type DatasetServiceInterface interface {
	Ingest(ctx context.Context, r io.Reader, filename string) (*services.DatasetSummary, error)
	Columns(ctx context.Context, id string) ([]domain.ColumnDescriptor, error)
	MappingSuggestion(ctx context.Context, id string) (domain.Mapping, bool, error)
	Aggregate(ctx context.Context, id string, mapping domain.Mapping, granularity domain.Granularity, metrics []domain.MetricDescriptor) (*services.AggregationResult, error)
}
