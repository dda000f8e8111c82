package chart

import (
	"context"
	"errors"
	"log/slog"

	"github.com/couchcryptid/station-bubble-chart/internal/domain"
	"github.com/couchcryptid/station-bubble-chart/internal/observability"
)

// TableSource fetches a delimited table as one map per row, keyed by header.
type TableSource interface {
	FetchTable(ctx context.Context, path string) ([]map[string]string, error)
}

// Load fetches and parses the dataset at path. Any failure is returned as a
// *domain.LoadError; unparseable numeric cells are logged and counted but do
// not fail the load.
func Load(ctx context.Context, src TableSource, path string, logger *slog.Logger, metrics *observability.Metrics) (domain.Dataset, error) {
	rows, err := src.FetchTable(ctx, path)
	if err != nil {
		metrics.Loads.WithLabelValues("error").Inc()
		var le *domain.LoadError
		if errors.As(err, &le) {
			return domain.Dataset{}, err
		}
		return domain.Dataset{}, &domain.LoadError{Path: path, Err: err}
	}

	ds, warnings := domain.NewDataset(rows)
	for _, w := range warnings {
		logger.Debug("field coercion", "line", w.Line, "column", w.Column, "raw", w.Raw)
	}
	metrics.Loads.WithLabelValues("success").Inc()
	metrics.CoercionWarnings.Add(float64(len(warnings)))
	metrics.DatasetRows.Set(float64(ds.Len()))

	logger.Info("dataset loaded",
		"path", path,
		"rows", ds.Len(),
		"stations", len(ds.Stations()),
		"coercion_warnings", len(warnings),
	)
	return ds, nil
}
