// Package source provides the table sources a chart loads its dataset from:
// local CSV files, CSV over HTTP, and a SQLite table.
package source

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/couchcryptid/station-bubble-chart/internal/domain"
)

// Every cell is read as text; numeric coercion happens in the domain so that
// one bad cell never rejects a whole column.
func readOptions() []dataframe.LoadOption {
	return []dataframe.LoadOption{
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues([]string{}),
	}
}

// ReadTable parses a CSV document with a header row into one map per row.
// A header with no data rows is an empty table, not an error.
func ReadTable(r io.Reader) ([]map[string]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	df := dataframe.ReadCSV(bytes.NewReader(data), readOptions()...)
	if df.Err != nil {
		if headerOnly(data) {
			return []map[string]string{}, nil
		}
		return nil, fmt.Errorf("parse csv: %w", df.Err)
	}
	return rowsOf(df.Records()), nil
}

// headerOnly reports whether data is a well-formed CSV holding just a header.
// gota rejects such tables as empty DataFrames.
func headerOnly(data []byte) bool {
	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	return err == nil && len(records) == 1
}

func rowsOf(records [][]string) []map[string]string {
	if len(records) == 0 {
		return nil
	}
	header := records[0]
	rows := make([]map[string]string, 0, len(records)-1)
	for _, rec := range records[1:] {
		row := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(rec) {
				row[col] = rec[i]
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// WriteTable writes ds as CSV in domain.Columns order. Missing readings are
// written as empty cells, so ReadTable followed by domain.NewDataset
// reproduces ds.
func WriteTable(w io.Writer, ds domain.Dataset) error {
	if ds.Len() == 0 {
		return writeHeader(w)
	}
	records := make([][]string, 0, ds.Len()+1)
	records = append(records, domain.Columns)
	for _, o := range ds.Observations() {
		records = append(records, o.Record())
	}
	df := dataframe.LoadRecords(records, readOptions()...)
	if df.Err != nil {
		return fmt.Errorf("build table: %w", df.Err)
	}
	if err := df.WriteCSV(w); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

// writeHeader writes the column header alone; gota cannot build a frame
// without rows.
func writeHeader(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(domain.Columns); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

// File reads CSV tables from the local filesystem.
type File struct{}

// FetchTable opens path and parses it with ReadTable.
func (File) FetchTable(ctx context.Context, path string) ([]map[string]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, &domain.LoadError{Path: path, Err: err}
	}
	defer f.Close()

	rows, err := ReadTable(f)
	if err != nil {
		return nil, &domain.LoadError{Path: path, Err: err}
	}
	return rows, nil
}
