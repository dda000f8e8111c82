// Package domain models daily weather-station observations as they are
// plotted on the bubble chart.
//
// # Data Source
//
// Observations come from a delimited table (NOAA GHCN-Daily style export) with
// one row per station per day. The header carries at least:
//
//	station, state, date, ELEVATION, TMIN, TMAX, TAVG, PRCP, AWND, WSF5, SNOW, SNWD
//
// Header names are matched case-insensitively. An optional "id" column, when
// present, overrides the derived marker key.
//
// # Data Conventions
//
// Date format:
//
//	YYYYMMDD, e.g. "20230115". The month is taken from characters 5-6
//	(1-indexed), so "20230115" belongs to month 1. Dates that are too short or
//	whose month characters are not digits get month 0, which only matches the
//	"All" month filter.
//
// Measurement units (as exported by NOAA with standard units):
//
//	TMIN, TMAX, TAVG  degrees Fahrenheit
//	PRCP, SNOW, SNWD  inches
//	AWND, WSF5        miles per hour
//	ELEVATION         meters
//
// Missing values:
//
//	Empty cells are missing. Cells that do not parse as a finite number are
//	missing too and produce a [FieldCoercionWarning]. Missing readings scale as
//	0 but render as empty text in tooltips and exports.
//
// # Marker Identity
//
// Every observation has a stable key used by keyed reconciliation: the explicit
// id when the row has one, otherwise station followed by date. See
// [Observation.Key].
package domain
