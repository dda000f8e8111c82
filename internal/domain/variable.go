package domain

import (
	"fmt"
	"strings"
)

// Variable names one of the eight plottable measurement columns.
type Variable string

const (
	TMin Variable = "TMIN"
	TMax Variable = "TMAX"
	TAvg Variable = "TAVG"
	Prcp Variable = "PRCP"
	AWnd Variable = "AWND"
	WSF5 Variable = "WSF5"
	Snow Variable = "SNOW"
	SnWd Variable = "SNWD"
)

// Variables lists the measurement columns in display order.
var Variables = []Variable{TMin, TMax, TAvg, Prcp, AWnd, WSF5, Snow, SnWd}

// accessors maps each variable to the Observation field that holds it.
var accessors = map[Variable]func(Observation) Reading{
	TMin: func(o Observation) Reading { return o.TMin },
	TMax: func(o Observation) Reading { return o.TMax },
	TAvg: func(o Observation) Reading { return o.TAvg },
	Prcp: func(o Observation) Reading { return o.Prcp },
	AWnd: func(o Observation) Reading { return o.AWnd },
	WSF5: func(o Observation) Reading { return o.WSF5 },
	Snow: func(o Observation) Reading { return o.Snow },
	SnWd: func(o Observation) Reading { return o.SnWd },
}

// setters is the write side of accessors, used while parsing rows.
var setters = map[Variable]func(*Observation, Reading){
	TMin: func(o *Observation, r Reading) { o.TMin = r },
	TMax: func(o *Observation, r Reading) { o.TMax = r },
	TAvg: func(o *Observation, r Reading) { o.TAvg = r },
	Prcp: func(o *Observation, r Reading) { o.Prcp = r },
	AWnd: func(o *Observation, r Reading) { o.AWnd = r },
	WSF5: func(o *Observation, r Reading) { o.WSF5 = r },
	Snow: func(o *Observation, r Reading) { o.Snow = r },
	SnWd: func(o *Observation, r Reading) { o.SnWd = r },
}

// Valid reports whether v is one of the eight measurement columns.
func (v Variable) Valid() bool {
	_, ok := accessors[v]
	return ok
}

func (v Variable) String() string { return string(v) }

// ParseVariable accepts a variable name in any case.
func ParseVariable(s string) (Variable, error) {
	v := Variable(strings.ToUpper(strings.TrimSpace(s)))
	if !v.Valid() {
		return "", fmt.Errorf("%w: unknown variable %q", ErrInvalidSelection, s)
	}
	return v, nil
}
