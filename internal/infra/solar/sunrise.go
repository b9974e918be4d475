package solar

import (
	"time"

	"github.com/nathan-osman/go-sunrise"

	"github.com/yanqian/gaptime-companion/internal/domain/suntimes"
)

// Calculator computes sun times with the NOAA algorithm from go-sunrise.
type Calculator struct{}

// NewCalculator returns the default ephemeris.
func NewCalculator() *Calculator {
	return &Calculator{}
}

// Compute returns sunrise and sunset in UTC for the calendar date of date.
func (Calculator) Compute(date time.Time, lat, lon float64) (suntimes.Times, error) {
	rise, set := sunrise.SunriseSunset(lat, lon, date.Year(), date.Month(), date.Day())
	if rise.IsZero() || set.IsZero() {
		return suntimes.Times{}, suntimes.ErrNoSunEvent
	}
	return suntimes.Times{Sunrise: rise, Sunset: set}, nil
}

var _ suntimes.Calculator = (*Calculator)(nil)
