package domain

import (
	"encoding/json"
	"strconv"
)

// Reading is a numeric cell that may be missing.
type Reading struct {
	Value   float64
	Present bool
}

// Measured returns a present reading.
func Measured(v float64) Reading {
	return Reading{Value: v, Present: true}
}

// Float returns the value used for scaling: 0 when missing.
func (r Reading) Float() float64 {
	if !r.Present {
		return 0
	}
	return r.Value
}

// String returns the display text: empty when missing.
func (r Reading) String() string {
	if !r.Present {
		return ""
	}
	return strconv.FormatFloat(r.Value, 'f', -1, 64)
}

func (r Reading) MarshalJSON() ([]byte, error) {
	if !r.Present {
		return []byte("null"), nil
	}
	return json.Marshal(r.Value)
}

func (r *Reading) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*r = Reading{}
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*r = Measured(v)
	return nil
}

// Observation is one station/date row of the dataset.
type Observation struct {
	ID        string  `json:"id,omitempty"`
	Station   string  `json:"station"`
	State     string  `json:"state"`
	Date      string  `json:"date"`
	Month     int     `json:"month"`
	Elevation Reading `json:"elevation"`

	TMin Reading `json:"TMIN"`
	TMax Reading `json:"TMAX"`
	TAvg Reading `json:"TAVG"`
	Prcp Reading `json:"PRCP"`
	AWnd Reading `json:"AWND"`
	WSF5 Reading `json:"WSF5"`
	Snow Reading `json:"SNOW"`
	SnWd Reading `json:"SNWD"`
}

// Key is the stable marker identity: the explicit id if set, else station+date.
func (o Observation) Key() string {
	if o.ID != "" {
		return o.ID
	}
	return o.Station + o.Date
}

// Reading returns the measurement for v. Unknown variables read as missing.
func (o Observation) Reading(v Variable) Reading {
	get, ok := accessors[v]
	if !ok {
		return Reading{}
	}
	return get(o)
}

// Value returns the scaling value for v.
func (o Observation) Value(v Variable) float64 {
	return o.Reading(v).Float()
}
