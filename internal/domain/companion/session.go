package companion

import (
	"github.com/yanqian/gaptime-companion/internal/domain/suntimes"
	"github.com/yanqian/gaptime-companion/pkg/metrics"
)

// Session is the per-process state. It is only read and written by the
// dispatch loop.
type Session struct {
	SunTimes   suntimes.Times
	Preference suntimes.Preference
}

// Snapshot is a copy of the session for callers outside the loop.
type Snapshot struct {
	SunTimes   *suntimes.Times        `json:"sunTimes,omitempty"`
	Preference suntimes.Preference    `json:"invertPreference"`
	Window     *suntimes.Window       `json:"invertWindow,omitempty"`
	Deliveries metrics.DeliveryCounts `json:"deliveries"`
}

func (s *Session) snapshot() Snapshot {
	snap := Snapshot{Preference: s.Preference}
	if !s.SunTimes.IsZero() {
		times := s.SunTimes
		window := suntimes.InvertWindow(times, s.Preference)
		snap.SunTimes = &times
		snap.Window = &window
	}
	return snap
}
