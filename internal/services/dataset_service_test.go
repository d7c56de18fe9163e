package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sheetchart/internal/config"
	"sheetchart/pkg/contracts/domain"
)

const sampleCSV = `Date,Impressions,Clicks,Spend,Attributable Sales
2024-01-01,1000,30,$25.00,$120.00
2024-01-15,2000,50,$40.00,$200.00
2024-02-01,1500,45,$30.00,$150.00
`

func testConfig() *config.Config {
	return &config.Config{
		Limits: config.LimitsConfig{MaxDatasets: 3, MaxUploadBytes: 1 << 20},
	}
}

func ingestSample(t *testing.T, svc *DatasetService) *DatasetSummary {
	t.Helper()
	summary, err := svc.Ingest(context.Background(), strings.NewReader(sampleCSV), "report.csv")
	require.NoError(t, err)
	return summary
}

func TestDatasetService_Ingest(t *testing.T) {
	svc := NewDatasetService(testConfig(), nil, nil)
	summary := ingestSample(t, svc)

	assert.NotEmpty(t, summary.ID)
	assert.Equal(t, "report.csv", summary.SourceName)
	assert.Equal(t, 3, summary.RowCount)
	require.Len(t, summary.Columns, 5)
	assert.Equal(t, domain.ColumnTypeDate, summary.Columns[0].Type)

	assert.Equal(t, "Date", summary.SuggestedMapping.Column(domain.FieldDate))
	assert.Equal(t, "Spend", summary.SuggestedMapping.Column(domain.FieldSpend))
	assert.False(t, summary.NeedsMapping)
}

func TestDatasetService_IngestRejectsBadFile(t *testing.T) {
	svc := NewDatasetService(testConfig(), nil, nil)

	_, err := svc.Ingest(context.Background(), strings.NewReader(""), "empty.csv")
	assert.Error(t, err)
}

func TestDatasetService_Columns(t *testing.T) {
	svc := NewDatasetService(testConfig(), nil, nil)
	summary := ingestSample(t, svc)

	columns, err := svc.Columns(context.Background(), summary.ID)
	require.NoError(t, err)
	assert.Equal(t, summary.Columns, columns)

	_, err = svc.Columns(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrDatasetNotFound)
}

func TestDatasetService_Aggregate(t *testing.T) {
	svc := NewDatasetService(testConfig(), nil, nil)
	summary := ingestSample(t, svc)

	metrics := []domain.MetricDescriptor{
		{Field: domain.FieldSpend, Aggregation: domain.AggregationSum},
	}
	result, err := svc.Aggregate(context.Background(), summary.ID, summary.SuggestedMapping, domain.GranularityMonth, metrics)
	require.NoError(t, err)

	require.Len(t, result.Periods, 2)
	assert.InDelta(t, 65.0, result.Periods[0].Values[domain.FieldSpend], 1e-9)
	assert.InDelta(t, 30.0, result.Periods[1].Values[domain.FieldSpend], 1e-9)
	assert.InDelta(t, 95.0, result.Totals[domain.FieldSpend], 1e-9)
	assert.Equal(t, MetricRange{Min: 30, Max: 65}, result.Ranges[domain.FieldSpend])
}

func TestDatasetService_AggregateUnknownDataset(t *testing.T) {
	svc := NewDatasetService(testConfig(), nil, nil)

	_, err := svc.Aggregate(context.Background(), "missing", domain.Mapping{}, domain.GranularityDay, nil)
	assert.ErrorIs(t, err, ErrDatasetNotFound)
}

func TestDatasetService_EvictsOldest(t *testing.T) {
	svc := NewDatasetService(testConfig(), nil, nil)

	first := ingestSample(t, svc)
	for i := 0; i < 3; i++ {
		ingestSample(t, svc)
	}

	_, err := svc.Columns(context.Background(), first.ID)
	assert.ErrorIs(t, err, ErrDatasetNotFound)
}
