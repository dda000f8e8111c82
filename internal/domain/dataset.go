package domain

// Dataset is the immutable, ordered set of observations loaded at startup.
// The zero value is an empty dataset.
type Dataset struct {
	observations []Observation
	stations     []string
	states       map[string][]string
}

// NewDataset parses rows in order. Coercion warnings are returned alongside
// the dataset; they never abort the load.
func NewDataset(rows []map[string]string) (Dataset, []FieldCoercionWarning) {
	obs := make([]Observation, 0, len(rows))
	var warnings []FieldCoercionWarning
	for i, row := range rows {
		o, w := ParseRow(i+1, row)
		obs = append(obs, o)
		warnings = append(warnings, w...)
	}
	return DatasetOf(obs), warnings
}

// DatasetOf builds a dataset from already-parsed observations. The slice is
// copied so later writes by the caller do not leak in.
func DatasetOf(obs []Observation) Dataset {
	ds := Dataset{
		observations: append([]Observation(nil), obs...),
		states:       make(map[string][]string),
	}

	seenStation := make(map[string]bool)
	seenState := make(map[string]map[string]bool)
	for _, o := range ds.observations {
		if !seenStation[o.Station] {
			seenStation[o.Station] = true
			ds.stations = append(ds.stations, o.Station)
			seenState[o.Station] = make(map[string]bool)
		}
		if !seenState[o.Station][o.State] {
			seenState[o.Station][o.State] = true
			ds.states[o.Station] = append(ds.states[o.Station], o.State)
		}
	}
	return ds
}

// Len returns the number of observations.
func (d Dataset) Len() int { return len(d.observations) }

// Observations returns a copy of the rows in load order.
func (d Dataset) Observations() []Observation {
	return append([]Observation(nil), d.observations...)
}

// Stations returns the unique station names in first-seen order.
func (d Dataset) Stations() []string {
	return append([]string(nil), d.stations...)
}

// States returns the unique states reported by station, in first-seen order.
func (d Dataset) States(station string) []string {
	return append([]string(nil), d.states[station]...)
}

// HasState reports whether station has at least one row in state.
func (d Dataset) HasState(station, state string) bool {
	for _, s := range d.states[station] {
		if s == state {
			return true
		}
	}
	return false
}
