package domain

import (
	"fmt"
	"strings"
)

// Tooltip is the hover detail shown for a marker.
type Tooltip struct {
	Title string   `json:"title"`
	Lines []string `json:"lines"`
}

func (t Tooltip) String() string {
	return strings.Join(append([]string{t.Title}, t.Lines...), "\n")
}

// TooltipFor builds the hover detail for o. Temperature falls back to the
// TMIN/TMAX midpoint when TAVG is missing or zero.
func TooltipFor(o Observation) Tooltip {
	return Tooltip{
		Title: o.Station,
		Lines: []string{
			"State: " + o.State,
			"Temp: " + temperatureText(o) + "°F",
			"Wind Speed: " + o.AWnd.String() + " mph",
			"Elevation: " + o.Elevation.String() + "m",
		},
	}
}

func temperatureText(o Observation) string {
	if o.TAvg.Present && o.TAvg.Value != 0 {
		return o.TAvg.String()
	}
	if !o.TMin.Present && !o.TMax.Present {
		return ""
	}
	return fmt.Sprintf("%.2f", (o.TMin.Float()+o.TMax.Float())/2)
}
