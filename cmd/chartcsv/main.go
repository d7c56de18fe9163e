// chartcsv aggregates a tabular report file (or a directory of them) into
// time-bucketed series and writes the result as CSV or JSON.
//
// Usage:
//
//	chartcsv -in report.xlsx -granularity month -metrics spend:sum,clicks:sum
//	chartcsv -in downloads/ -out data/exports/monthly.csv
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"sheetchart/internal/config"
	"sheetchart/internal/dataprocessing"
	"sheetchart/internal/exporter"
	"sheetchart/internal/infrastructure"
	"sheetchart/internal/ingest"
	"sheetchart/pkg/contracts/domain"
)

func main() {
	in := flag.String("in", "", "input file (.xlsx, .csv, .tsv) or directory of such files")
	out := flag.String("out", "", "output path (defaults to <exports_dir>/periods.<format>)")
	granularityFlag := flag.String("granularity", "month", "bucket size: day | month | quarter")
	metricsFlag := flag.String("metrics", "", "metrics as field:aggregation pairs, e.g. spend:sum,clicks:sum (defaults to every auto-mapped metric summed)")
	dateColumn := flag.String("date-column", "", "override the auto-detected date column")
	format := flag.String("format", "csv", "output format: csv | json")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Warn("failed to load config, using defaults", slog.String("error", err.Error()))
		cfg = &config.Config{
			Logging: config.LoggingConfig{Level: "info", Format: "json", Output: "console"},
			Paths:   config.PathsConfig{ExportsDir: "data/exports"},
		}
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("failed to initialize logger, using default", slog.String("error", err.Error()))
		logger = slog.Default()
	}

	if *in == "" {
		logger.Error("missing required -in flag")
		flag.Usage()
		os.Exit(2)
	}

	ctx := context.Background()
	if err := run(ctx, logger, cfg, options{
		in:          *in,
		out:         *out,
		granularity: domain.Granularity(*granularityFlag),
		metricsSpec: *metricsFlag,
		dateColumn:  *dateColumn,
		format:      *format,
	}); err != nil {
		logger.Error("aggregation failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

type options struct {
	in          string
	out         string
	granularity domain.Granularity
	metricsSpec string
	dateColumn  string
	format      string
}

func run(ctx context.Context, logger *slog.Logger, cfg *config.Config, opts options) error {
	decoder := ingest.NewDecoder(logger)

	dataset, err := loadInput(ctx, decoder, opts.in)
	if err != nil {
		return err
	}
	logger.Info("input decoded",
		slog.String("source", dataset.SourceName),
		slog.Int("rows", len(dataset.Rows)),
		slog.Int("columns", len(dataset.Columns)))

	columns := dataprocessing.DetectColumnTypes(dataset)
	mapping := dataprocessing.SuggestMapping(columns)
	if opts.dateColumn != "" {
		mapping[domain.FieldDate] = domain.MappingEntry{
			Field:  domain.FieldDate,
			Column: opts.dateColumn,
			Label:  opts.dateColumn,
		}
	}
	if mapping.Column(domain.FieldDate) == "" {
		return fmt.Errorf("no date column detected; use -date-column to name one")
	}

	metrics, err := resolveMetrics(opts.metricsSpec, mapping)
	if err != nil {
		return err
	}
	if len(metrics) == 0 {
		return fmt.Errorf("no metrics resolved; use -metrics to name some")
	}

	periods, err := dataprocessing.Aggregate(dataset.Rows, mapping, opts.granularity, metrics)
	if err != nil {
		return err
	}
	logger.Info("aggregation complete",
		slog.String("granularity", string(opts.granularity)),
		slog.Int("periods", len(periods)))

	totals := make(map[string]float64, len(metrics))
	for _, metric := range metrics {
		totals[metric.Field] = dataprocessing.TotalForMetric(periods, metric)
	}

	outPath := opts.out
	writer := exporter.NewWriter(cfg.Paths.ExportsDir, logger)
	if outPath == "" {
		outPath = "periods." + opts.format
	} else {
		// An explicit output path is taken as-is, not under the exports dir.
		writer = exporter.NewWriter(filepath.Dir(outPath), logger)
		outPath = filepath.Base(outPath)
	}

	switch opts.format {
	case "json":
		_, err = writer.WriteJSON(ctx, outPath, periods, totals)
	case "csv":
		_, err = writer.WriteCSV(ctx, outPath, periods, metrics)
	default:
		return fmt.Errorf("unknown output format %q", opts.format)
	}
	return err
}

// loadInput decodes one file, or every supported file in a directory
// concurrently, merging their rows into a single dataset. Column order is
// taken from the first file alphabetically.
func loadInput(ctx context.Context, decoder *ingest.Decoder, path string) (*domain.Dataset, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read input %s: %w", path, err)
	}
	if !info.IsDir() {
		return decodeOne(decoder, path)
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("cannot list input directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".xlsx", ".xlsm", ".csv", ".tsv", ".txt":
			files = append(files, filepath.Join(path, entry.Name()))
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no supported files in %s", path)
	}
	sort.Strings(files)

	var mu sync.Mutex
	datasets := make(map[string]*domain.Dataset, len(files))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, file := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			ds, err := decodeOne(decoder, file)
			if err != nil {
				return err
			}
			mu.Lock()
			datasets[file] = ds
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := &domain.Dataset{
		SourceName: filepath.Base(path),
		Columns:    datasets[files[0]].Columns,
	}
	for _, file := range files {
		merged.Rows = append(merged.Rows, datasets[file].Rows...)
	}
	return merged, nil
}

func decodeOne(decoder *ingest.Decoder, path string) (*domain.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open %s: %w", path, err)
	}
	defer f.Close()
	return decoder.Decode(f, path)
}

// resolveMetrics parses the -metrics flag ("field:aggregation,..."), or
// defaults to summing every auto-mapped metric field.
func resolveMetrics(spec string, mapping domain.Mapping) ([]domain.MetricDescriptor, error) {
	if spec == "" {
		var metrics []domain.MetricDescriptor
		for _, field := range []string{
			domain.FieldAttributableSales,
			domain.FieldCTR,
			domain.FieldImpressions,
			domain.FieldClicks,
			domain.FieldSpend,
		} {
			if mapping.Column(field) == "" {
				continue
			}
			aggregation := domain.AggregationSum
			if field == domain.FieldCTR {
				aggregation = domain.AggregationAverage
			}
			metrics = append(metrics, domain.MetricDescriptor{Field: field, Aggregation: aggregation})
		}
		return metrics, nil
	}

	var metrics []domain.MetricDescriptor
	for _, pair := range strings.Split(spec, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		field, aggregation, found := strings.Cut(pair, ":")
		if !found {
			aggregation = string(domain.AggregationSum)
		}
		switch domain.AggregationType(aggregation) {
		case domain.AggregationSum, domain.AggregationAverage, domain.AggregationCount,
			domain.AggregationMin, domain.AggregationMax:
		default:
			return nil, fmt.Errorf("unknown aggregation %q in -metrics", aggregation)
		}
		metrics = append(metrics, domain.MetricDescriptor{
			Field:       strings.TrimSpace(field),
			Aggregation: domain.AggregationType(aggregation),
		})
	}
	return metrics, nil
}
