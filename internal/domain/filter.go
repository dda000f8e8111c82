package domain

// Filter returns the observations matching sel's station, state and month, in
// dataset order. An empty result is not an error.
func Filter(ds Dataset, sel Selection) []Observation {
	out := make([]Observation, 0)
	for _, o := range ds.observations {
		if matches(o, sel) {
			out = append(out, o)
		}
	}
	return out
}

func matches(o Observation, sel Selection) bool {
	if sel.Station != "" && sel.Station != All && o.Station != sel.Station {
		return false
	}
	if sel.State != "" && sel.State != All && o.State != sel.State {
		return false
	}
	if sel.Month != AllMonths && o.Month != sel.Month {
		return false
	}
	return true
}
