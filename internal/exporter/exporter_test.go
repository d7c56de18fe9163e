package exporter

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sheetchart/pkg/contracts/domain"
)

func samplePeriods() []domain.PeriodRow {
	return []domain.PeriodRow{
		{
			PeriodKey: "2024-01",
			Label:     "Jan 2024",
			Date:      time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			RowCount:  2,
			Values:    map[string]float64{"spend": 65, "clicks": 80},
		},
		{
			PeriodKey: "2024-02",
			Label:     "Feb 2024",
			Date:      time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
			RowCount:  1,
			Values:    map[string]float64{"spend": 30, "clicks": 45},
		},
	}
}

func TestWriteCSV(t *testing.T) {
	writer := NewWriter(t.TempDir(), nil)
	metrics := []domain.MetricDescriptor{
		{Field: "spend", Aggregation: domain.AggregationSum, Label: "Spend"},
		{Field: "clicks", Aggregation: domain.AggregationSum},
	}

	path, err := writer.WriteCSV(context.Background(), "monthly.csv", samplePeriods(), metrics)
	require.NoError(t, err)

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, []string{"PeriodKey", "Label", "Date", "RowCount", "Spend", "clicks"}, records[0])
	assert.Equal(t, []string{"2024-01", "Jan 2024", "2024-01-01", "2", "65", "80"}, records[1])
}

func TestWriteJSON(t *testing.T) {
	writer := NewWriter(t.TempDir(), nil)

	path, err := writer.WriteJSON(context.Background(), "monthly.json", samplePeriods(), map[string]float64{"spend": 95})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &payload))
	assert.Equal(t, float64(2), payload["count"])
	assert.Equal(t, "period_series_v1", payload["format"])
	assert.Contains(t, payload, "periods")
	assert.Contains(t, payload, "totals")
}

func TestWriteCSV_NestedName(t *testing.T) {
	writer := NewWriter(t.TempDir(), nil)

	path, err := writer.WriteCSV(context.Background(), "exports/2024/monthly.csv", samplePeriods(), nil)
	require.NoError(t, err)
	assert.FileExists(t, path)
}
