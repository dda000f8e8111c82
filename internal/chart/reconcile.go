package chart

import "github.com/couchcryptid/station-bubble-chart/internal/domain"

// Diff is the keyed comparison of the previously rendered keys with a new
// filtered set. The three sets are disjoint.
type Diff struct {
	Entered []domain.Observation
	Updated []domain.Observation
	Exited  []string
	// Keys is the new rendered key order.
	Keys []string
}

// Reconcile matches next against previous by Observation.Key. Entered and
// Updated follow next's order, Exited follows previous. When next repeats a
// key only its first occurrence is kept.
func Reconcile(previous []string, next []domain.Observation) Diff {
	prev := make(map[string]bool, len(previous))
	for _, k := range previous {
		prev[k] = true
	}

	d := Diff{Keys: make([]string, 0, len(next))}
	kept := make(map[string]bool, len(next))
	for _, o := range next {
		k := o.Key()
		if kept[k] {
			continue
		}
		kept[k] = true
		d.Keys = append(d.Keys, k)
		if prev[k] {
			d.Updated = append(d.Updated, o)
		} else {
			d.Entered = append(d.Entered, o)
		}
	}

	for _, k := range previous {
		if !kept[k] {
			d.Exited = append(d.Exited, k)
		}
	}
	return d
}
