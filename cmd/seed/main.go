// Command seed imports a station observation CSV into the SQLite table that
// chartd reads when DATA_SOURCE=sqlite. Existing rows are replaced.
//
// Usage:
//
//	go run ./cmd/seed -csv data/stations.csv -db data/stations.db
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/station-bubble-chart/internal/domain"
	"github.com/couchcryptid/station-bubble-chart/internal/source"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	csvPath := flag.String("csv", "", "path to the station observation CSV")
	dbPath := flag.String("db", "data/stations.db", "SQLite database file")
	table := flag.String("table", "observations", "destination table")
	flag.Parse()

	if *csvPath == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -csv")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rows, err := source.File{}.FetchTable(ctx, *csvPath)
	if err != nil {
		return err
	}
	ds, warnings := domain.NewDataset(rows)
	for _, w := range warnings {
		log.Printf("warning: %s", w)
	}

	db, err := source.OpenSQLite(*dbPath, *table)
	if err != nil {
		return fmt.Errorf("open %s: %w", *dbPath, err)
	}
	defer db.Close()

	if err := db.Store(ctx, ds); err != nil {
		return fmt.Errorf("store: %w", err)
	}

	log.Printf("seeded %d rows (%d stations) into %s:%s", ds.Len(), len(ds.Stations()), *dbPath, *table)
	return nil
}
