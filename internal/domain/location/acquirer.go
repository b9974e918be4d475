package location

import (
	"context"
	"log/slog"
)

// Acquirer requests one position per call. It never retries; the caller
// decides when to ask again.
type Acquirer struct {
	provider Provider
	opts     Options
	logger   *slog.Logger
}

// NewAcquirer binds a provider to fixed request options.
func NewAcquirer(provider Provider, opts Options, logger *slog.Logger) *Acquirer {
	return &Acquirer{
		provider: provider,
		opts:     opts,
		logger:   logger.With("component", "location.acquirer"),
	}
}

// Acquire fetches the current position. Failures are always returned as *Error.
func (a *Acquirer) Acquire(ctx context.Context) (Position, error) {
	if a.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.opts.Timeout)
		defer cancel()
	}
	pos, err := a.provider.CurrentPosition(ctx, a.opts)
	if err != nil {
		return Position{}, AsError(err)
	}
	a.logger.Debug("position acquired", "lat", pos.Latitude, "lon", pos.Longitude, "accuracy", pos.Accuracy)
	return pos, nil
}
