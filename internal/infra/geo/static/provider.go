package static

import (
	"context"
	"time"

	"github.com/yanqian/gaptime-companion/internal/domain/location"
	"github.com/yanqian/gaptime-companion/pkg/util"
)

// Provider always reports the configured coordinates.
type Provider struct {
	lat, lon float64
	now      func() time.Time
}

// NewProvider returns a provider pinned to lat/lon.
func NewProvider(lat, lon float64) *Provider {
	return &Provider{lat: lat, lon: lon, now: util.NowUTC}
}

func (p *Provider) CurrentPosition(ctx context.Context, _ location.Options) (location.Position, error) {
	if err := ctx.Err(); err != nil {
		return location.Position{}, err
	}
	return location.Position{Latitude: p.lat, Longitude: p.lon, Timestamp: p.now()}, nil
}

var _ location.Provider = (*Provider)(nil)
