package location

import (
	"context"
	"log/slog"
	"time"
)

// Store keeps the last fix so a fresh enough one can be reused.
type Store interface {
	Load(ctx context.Context) (Position, bool, error)
	Save(ctx context.Context, pos Position, ttl time.Duration) error
}

// CachedProvider serves a stored fix when it is younger than Options.MaximumAge
// and otherwise delegates to the wrapped provider.
type CachedProvider struct {
	next   Provider
	store  Store
	logger *slog.Logger
	now    func() time.Time
}

// NewCachedProvider decorates next with a maximum-age cache.
func NewCachedProvider(next Provider, store Store, logger *slog.Logger) *CachedProvider {
	return &CachedProvider{
		next:   next,
		store:  store,
		logger: logger.With("component", "location.cache"),
		now:    time.Now,
	}
}

func (p *CachedProvider) CurrentPosition(ctx context.Context, opts Options) (Position, error) {
	if opts.MaximumAge > 0 {
		cached, ok, err := p.store.Load(ctx)
		if err != nil {
			p.logger.Warn("cached position lookup failed", "error", err)
		} else if ok && p.now().Sub(cached.Timestamp) <= opts.MaximumAge {
			p.logger.Debug("using cached position", "age_ms", p.now().Sub(cached.Timestamp).Milliseconds())
			return cached, nil
		}
	}

	pos, err := p.next.CurrentPosition(ctx, opts)
	if err != nil {
		return Position{}, err
	}
	if pos.Timestamp.IsZero() {
		pos.Timestamp = p.now()
	}
	if opts.MaximumAge > 0 {
		if err := p.store.Save(ctx, pos, opts.MaximumAge); err != nil {
			p.logger.Warn("caching position failed", "error", err)
		}
	}
	return pos, nil
}

var _ Provider = (*CachedProvider)(nil)
