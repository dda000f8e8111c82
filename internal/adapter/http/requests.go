package http

import (
	"strings"

	"github.com/couchcryptid/station-bubble-chart/internal/domain"
)

// selectionRequest is a partial selection; omitted fields keep their value.
type selectionRequest struct {
	X       *string `json:"x" validate:"omitempty,oneof=TMIN TMAX TAVG PRCP AWND WSF5 SNOW SNWD"`
	Y       *string `json:"y" validate:"omitempty,oneof=TMIN TMAX TAVG PRCP AWND WSF5 SNOW SNWD"`
	Size    *string `json:"size" validate:"omitempty,oneof=TMIN TMAX TAVG PRCP AWND WSF5 SNOW SNWD"`
	Station *string `json:"station" validate:"omitempty,min=1,max=128"`
	State   *string `json:"state" validate:"omitempty,min=1,max=64"`
	Month   *string `json:"month" validate:"omitempty,oneof=All 1 2 3 4 5 6 7 8 9 10 11 12"`
}

func (r *selectionRequest) normalize() {
	for _, p := range []*string{r.X, r.Y, r.Size} {
		if p != nil {
			*p = strings.ToUpper(strings.TrimSpace(*p))
		}
	}
	if r.Month != nil && strings.EqualFold(strings.TrimSpace(*r.Month), domain.All) {
		*r.Month = domain.All
	}
}

func (r selectionRequest) change() (domain.SelectionChange, error) {
	var c domain.SelectionChange
	vars := []struct {
		raw *string
		dst **domain.Variable
	}{{r.X, &c.X}, {r.Y, &c.Y}, {r.Size, &c.Size}}
	for _, v := range vars {
		if v.raw == nil {
			continue
		}
		parsed, err := domain.ParseVariable(*v.raw)
		if err != nil {
			return c, err
		}
		*v.dst = &parsed
	}
	if r.Month != nil {
		m, err := domain.ParseMonth(*r.Month)
		if err != nil {
			return c, err
		}
		c.Month = &m
	}
	c.Station = r.Station
	c.State = r.State
	return c, nil
}

type zoomRequest struct {
	K  float64 `json:"k" validate:"required,gt=0"`
	TX float64 `json:"tx"`
	TY float64 `json:"ty"`
}
