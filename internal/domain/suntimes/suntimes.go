package suntimes

import (
	"errors"
	"strings"
	"time"
)

// ErrNoSunEvent is returned when the sun does not rise or set on the requested
// date at the requested latitude.
var ErrNoSunEvent = errors.New("no sunrise or sunset on this date")

// Times holds the sunrise and sunset of one calendar date.
type Times struct {
	Sunrise time.Time `json:"sunrise"`
	Sunset  time.Time `json:"sunset"`
}

// IsZero reports whether nothing has been computed yet.
func (t Times) IsZero() bool {
	return t.Sunrise.IsZero() && t.Sunset.IsZero()
}

// Calculator is the solar ephemeris. Implementations must be pure.
type Calculator interface {
	Compute(date time.Time, lat, lon float64) (Times, error)
}

// Preference selects which solar event opens the invert window.
type Preference string

const (
	PreferenceOff     Preference = ""
	PreferenceSunrise Preference = "sunrise"
	PreferenceSunset  Preference = "sunset"
)

// ParsePreference maps the configuration page value onto a Preference.
// Unknown values fall back to PreferenceOff.
func ParsePreference(v string) Preference {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case string(PreferenceSunrise):
		return PreferenceSunrise
	case string(PreferenceSunset):
		return PreferenceSunset
	default:
		return PreferenceOff
	}
}

// ClockTime is an hour/minute pair in the watch's local time.
type ClockTime struct {
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

// Clock extracts the local hour and minute of t.
func Clock(t time.Time) ClockTime {
	return ClockTime{Hour: t.Hour(), Minute: t.Minute()}
}

// Window is the time-of-day range during which the watchface is inverted.
type Window struct {
	Start ClockTime `json:"start"`
	End   ClockTime `json:"end"`
}

// InvertWindow picks the window endpoints. Start and end always come from
// different solar events: [sunrise, sunset) for PreferenceSunrise and
// [sunset, sunrise) otherwise.
func InvertWindow(t Times, pref Preference) Window {
	if pref == PreferenceSunrise {
		return Window{Start: Clock(t.Sunrise), End: Clock(t.Sunset)}
	}
	return Window{Start: Clock(t.Sunset), End: Clock(t.Sunrise)}
}
