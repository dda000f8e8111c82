package source

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/station-bubble-chart/internal/domain"
)

const sampleCSV = `station,state,date,ELEVATION,TMIN,TMAX,TAVG,AWND,WSF5,PRCP
GUAM INTL AP,GU,20230115,77.4,75,86,80,5,20,0.1
GUAM INTL AP,GU,20230620,77.4,78,88,,7.2,25,
DENVER INTL AP,CO,20230115,1655,12,40,30,9,T,0
`

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestReadTable(t *testing.T) {
	rows, err := ReadTable(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "GUAM INTL AP", rows[0]["station"])
	assert.Equal(t, "80", rows[0]["TAVG"])
	assert.Equal(t, "", rows[1]["TAVG"], "empty cells stay empty")
	assert.Equal(t, "T", rows[2]["WSF5"], "cells are never type-coerced")

	ds, warnings := domain.NewDataset(rows)
	assert.Equal(t, 3, ds.Len())
	require.Len(t, warnings, 1)
	assert.Equal(t, domain.FieldCoercionWarning{Line: 3, Column: "WSF5", Raw: "T"}, warnings[0])
}

func TestReadTable_Empty(t *testing.T) {
	_, err := ReadTable(strings.NewReader(""))
	assert.Error(t, err)
}

func TestReadTable_HeaderOnly(t *testing.T) {
	header := strings.Join(domain.Columns, ",") + "\n"
	rows, err := ReadTable(strings.NewReader(header))
	require.NoError(t, err, "a header without rows is a valid empty table")
	assert.Empty(t, rows)
}

func TestFile_FetchTable_HeaderOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	require.NoError(t, os.WriteFile(path, []byte("station,state,date,ELEVATION,TAVG\n"), 0o600))

	rows, err := File{}.FetchTable(context.Background(), path)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestWriteTable_EmptyDataset(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTable(&buf, domain.Dataset{}))
	assert.Equal(t, strings.Join(domain.Columns, ",")+"\n", buf.String())

	rows, err := ReadTable(&buf)
	require.NoError(t, err)
	ds, warnings := domain.NewDataset(rows)
	assert.Equal(t, 0, ds.Len())
	assert.Empty(t, warnings)
}

func TestWriteTable_RoundTrip(t *testing.T) {
	rows, err := ReadTable(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	original, _ := domain.NewDataset(rows)

	var buf bytes.Buffer
	require.NoError(t, WriteTable(&buf, original))

	reread, err := ReadTable(&buf)
	require.NoError(t, err)
	reloaded, _ := domain.NewDataset(reread)

	if diff := cmp.Diff(original.Observations(), reloaded.Observations()); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 6, reloaded.Observations()[1].Month)
}

func TestFile_FetchTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stations.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0o600))

	rows, err := File{}.FetchTable(context.Background(), path)
	require.NoError(t, err)
	assert.Len(t, rows, 3)

	_, err = File{}.FetchTable(context.Background(), filepath.Join(t.TempDir(), "missing.csv"))
	var le *domain.LoadError
	require.ErrorAs(t, err, &le)
	assert.Contains(t, le.Path, "missing.csv")
}

func TestHTTP_FetchTable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/data/stations.csv":
			w.Header().Set("Content-Type", "text/csv")
			_, _ = io.WriteString(w, sampleCSV)
		default:
			http.Error(w, "not found", http.StatusNotFound)
		}
	}))
	defer srv.Close()

	src := NewHTTP(srv.URL+"/data", 5*time.Second, testLogger())

	t.Run("relative path", func(t *testing.T) {
		rows, err := src.FetchTable(context.Background(), "stations.csv")
		require.NoError(t, err)
		assert.Len(t, rows, 3)
	})

	t.Run("absolute url", func(t *testing.T) {
		rows, err := src.FetchTable(context.Background(), srv.URL+"/data/stations.csv")
		require.NoError(t, err)
		assert.Len(t, rows, 3)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := src.FetchTable(context.Background(), "missing.csv")
		var le *domain.LoadError
		require.ErrorAs(t, err, &le)
		assert.Contains(t, err.Error(), "status 404")
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := src.FetchTable(ctx, "stations.csv")
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestHTTP_CircuitOpensAfterRepeatedFailures(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	src := NewHTTP(srv.URL, 5*time.Second, testLogger())
	for range 6 {
		_, err := src.FetchTable(context.Background(), "stations.csv")
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrCircuitOpen)
	}

	_, err := src.FetchTable(context.Background(), "stations.csv")
	var le *domain.LoadError
	require.ErrorAs(t, err, &le)
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, int64(6), hits.Load(), "open circuit must not reach the server")
}

func TestSQLite_StoreAndFetch(t *testing.T) {
	db, err := OpenSQLite(":memory:", "observations")
	require.NoError(t, err)
	defer db.Close()
	ctx := context.Background()

	rows, err := ReadTable(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	original, _ := domain.NewDataset(rows)

	require.NoError(t, db.Store(ctx, original))
	require.NoError(t, db.Store(ctx, original), "store replaces rather than appends")

	fetched, err := db.FetchTable(ctx, "")
	require.NoError(t, err)
	reloaded, _ := domain.NewDataset(fetched)

	if diff := cmp.Diff(original.Observations(), reloaded.Observations()); diff != "" {
		t.Errorf("sqlite round trip mismatch (-want +got):\n%s", diff)
	}
	require.NoError(t, db.Ping(ctx))
}

func TestSQLite_InvalidTable(t *testing.T) {
	_, err := OpenSQLite(":memory:", "obs; DROP TABLE x")
	require.Error(t, err)

	db, err := OpenSQLite(":memory:", "observations")
	require.NoError(t, err)
	defer db.Close()

	_, err = db.FetchTable(context.Background(), "bad name")
	var le *domain.LoadError
	assert.ErrorAs(t, err, &le)

	_, err = db.FetchTable(context.Background(), "nonexistent")
	assert.ErrorAs(t, err, &le)
}
