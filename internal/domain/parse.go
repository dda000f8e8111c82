package domain

import (
	"math"
	"strconv"
	"strings"
)

// Column names written by [Observation.Row] and recognized by [ParseRow].
const (
	ColumnID        = "id"
	ColumnStation   = "station"
	ColumnState     = "state"
	ColumnDate      = "date"
	ColumnElevation = "ELEVATION"
)

// Columns is the canonical header order for exported tables.
var Columns = []string{
	ColumnID, ColumnStation, ColumnState, ColumnDate, ColumnElevation,
	string(TMin), string(TMax), string(TAvg), string(Prcp),
	string(AWnd), string(WSF5), string(Snow), string(SnWd),
}

// ParseRow converts one table row into an Observation. It never fails: cells
// that are not numbers become missing readings and are reported as warnings.
// line is the 1-based data row number used in warnings.
func ParseRow(line int, row map[string]string) (Observation, []FieldCoercionWarning) {
	cells := normalizeKeys(row)

	obs := Observation{
		ID:      strings.TrimSpace(cells[ColumnID]),
		Station: strings.TrimSpace(cells[ColumnStation]),
		State:   strings.TrimSpace(cells[ColumnState]),
		Date:    strings.TrimSpace(cells[ColumnDate]),
	}
	obs.Month = deriveMonth(obs.Date)

	var warnings []FieldCoercionWarning
	read := func(column string) Reading {
		raw := cells[strings.ToLower(column)]
		r, ok := parseReading(raw)
		if !ok {
			warnings = append(warnings, FieldCoercionWarning{Line: line, Column: column, Raw: raw})
		}
		return r
	}

	obs.Elevation = read(ColumnElevation)
	for _, v := range Variables {
		setters[v](&obs, read(string(v)))
	}

	return obs, warnings
}

// Row is the inverse of ParseRow: it renders every column as text, leaving
// missing readings empty.
func (o Observation) Row() map[string]string {
	row := map[string]string{
		ColumnID:        o.ID,
		ColumnStation:   o.Station,
		ColumnState:     o.State,
		ColumnDate:      o.Date,
		ColumnElevation: o.Elevation.String(),
	}
	for _, v := range Variables {
		row[string(v)] = o.Reading(v).String()
	}
	return row
}

// Record returns the row in [Columns] order.
func (o Observation) Record() []string {
	row := o.Row()
	rec := make([]string, len(Columns))
	for i, c := range Columns {
		rec[i] = row[c]
	}
	return rec
}

func normalizeKeys(row map[string]string) map[string]string {
	out := make(map[string]string, len(row))
	for k, v := range row {
		out[strings.ToLower(strings.TrimSpace(k))] = v
	}
	return out
}

// parseReading parses a numeric cell. Empty cells are missing without
// complaint; anything else that is not a finite number is missing and not ok.
func parseReading(s string) (Reading, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Reading{}, true
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return Reading{}, false
	}
	return Measured(v), true
}

// deriveMonth reads the month from characters 5-6 of a YYYYMMDD date.
// Returns 0 when the date is too short or those characters are not a month.
func deriveMonth(date string) int {
	if len(date) < 6 {
		return 0
	}
	m, err := strconv.Atoi(date[4:6])
	if err != nil || m < 1 || m > 12 {
		return 0
	}
	return m
}
