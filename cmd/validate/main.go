// Command validate checks a station observation CSV before it is served:
// it reports non-numeric cells, rows that can never match a month filter,
// duplicate marker keys and per-station row counts, then verifies that the
// table survives a write/read round trip unchanged.
//
// Usage:
//
//	go run ./cmd/validate -csv data/stations.csv
package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/google/go-cmp/cmp"

	"github.com/couchcryptid/station-bubble-chart/internal/domain"
	"github.com/couchcryptid/station-bubble-chart/internal/source"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	csvPath := flag.String("csv", "", "path to the station observation CSV")
	strict := flag.Bool("strict", false, "treat coercion warnings as failures")
	flag.Parse()

	if *csvPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*csvPath, *strict); code != 0 {
		os.Exit(code)
	}
}

func run(path string, strict bool) int {
	fmt.Println("=== Station Observation Validation ===")
	fmt.Println()

	rows, err := source.File{}.FetchTable(context.Background(), path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		return 1
	}
	ds, warnings := domain.NewDataset(rows)

	phases := []*phase{
		validateCells(warnings, strict),
		validateRows(ds),
		validateKeys(ds),
		validateRoundTrip(ds),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Records: %d rows, %d stations, %d coercion warnings\n",
		ds.Len(), len(ds.Stations()), len(warnings))
	printStationCounts(ds)

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── Phases ──

func validateCells(warnings []domain.FieldCoercionWarning, strict bool) *phase {
	p := &phase{name: "Numeric cells"}
	for _, w := range warnings {
		if strict {
			p.errorf("%s", w)
		} else {
			fmt.Printf("  warning: %s\n", w)
		}
	}
	return p
}

func validateRows(ds domain.Dataset) *phase {
	p := &phase{name: "Station, state and date present"}
	for i, o := range ds.Observations() {
		line := i + 2 // header is line 1
		if o.Station == "" {
			p.errorf("line %d: empty station", line)
		}
		if o.State == "" {
			p.errorf("line %d: empty state", line)
		}
		if o.Month == 0 {
			p.errorf("line %d: date %q has no month", line, o.Date)
		}
	}
	return p
}

func validateKeys(ds domain.Dataset) *phase {
	p := &phase{name: "Unique marker keys"}
	first := make(map[string]int)
	for i, o := range ds.Observations() {
		line := i + 2
		if prev, ok := first[o.Key()]; ok {
			p.errorf("line %d: key %q already used on line %d", line, o.Key(), prev)
			continue
		}
		first[o.Key()] = line
	}
	return p
}

func validateRoundTrip(ds domain.Dataset) *phase {
	p := &phase{name: "CSV round trip"}

	var buf bytes.Buffer
	if err := source.WriteTable(&buf, ds); err != nil {
		p.errorf("write: %v", err)
		return p
	}
	rows, err := source.ReadTable(&buf)
	if err != nil {
		p.errorf("read: %v", err)
		return p
	}
	back, warnings := domain.NewDataset(rows)
	if len(warnings) > 0 {
		p.errorf("%d coercion warnings after round trip", len(warnings))
	}
	if diff := cmp.Diff(ds.Observations(), back.Observations()); diff != "" {
		p.errorf("observations changed (-before +after):\n%s", diff)
	}
	return p
}

// ── Reporting ──

func printStationCounts(ds domain.Dataset) {
	counts := make(map[string]int)
	for _, o := range ds.Observations() {
		counts[o.Station]++
	}
	stations := ds.Stations()
	sort.SliceStable(stations, func(i, j int) bool { return counts[stations[i]] > counts[stations[j]] })

	fmt.Println("\nRows per station:")
	for _, s := range stations {
		fmt.Printf("  %-40s %6d  states=%v\n", s, counts[s], ds.States(s))
	}
}
