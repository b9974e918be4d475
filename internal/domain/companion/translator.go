package companion

import (
	"time"

	"github.com/yanqian/gaptime-companion/internal/domain/appmessage"
	"github.com/yanqian/gaptime-companion/internal/domain/location"
	"github.com/yanqian/gaptime-companion/internal/domain/suntimes"
	apperrors "github.com/yanqian/gaptime-companion/pkg/errors"
)

// Translator turns a position into today's sun times in the watch timezone.
type Translator struct {
	calc suntimes.Calculator
	loc  *time.Location
	now  func() time.Time
}

// NewTranslator builds a Translator. A nil location means the host's local zone.
func NewTranslator(calc suntimes.Calculator, loc *time.Location) *Translator {
	if loc == nil {
		loc = time.Local
	}
	return &Translator{calc: calc, loc: loc, now: time.Now}
}

// Translate computes sunrise and sunset for the current date. "Today" is
// re-read on every call.
func (t *Translator) Translate(pos location.Position) (suntimes.Times, error) {
	today := t.now().In(t.loc)
	times, err := t.calc.Compute(today, pos.Latitude, pos.Longitude)
	if err != nil {
		return suntimes.Times{}, apperrors.Wrap(apperrors.CodeSolar, "sun times unavailable", err)
	}
	return suntimes.Times{
		Sunrise: times.Sunrise.In(t.loc),
		Sunset:  times.Sunset.In(t.loc),
	}, nil
}

// SunTimesPayload builds the update message carrying all four window fields.
func SunTimesPayload(times suntimes.Times, pref suntimes.Preference) appmessage.Payload {
	w := suntimes.InvertWindow(times, pref)
	return appmessage.Payload{
		appmessage.KeyUpdateSunTimes:  1,
		appmessage.KeyInvertStartHour: w.Start.Hour,
		appmessage.KeyInvertStartMin:  w.Start.Minute,
		appmessage.KeyInvertEndHour:   w.End.Hour,
		appmessage.KeyInvertEndMin:    w.End.Minute,
	}
}
