package location

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Position is one geographic fix.
type Position struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Accuracy  float64   `json:"accuracy"`
	Timestamp time.Time `json:"timestamp"`
}

// Options mirror the host geolocation request options.
type Options struct {
	MaximumAge         time.Duration
	Timeout            time.Duration
	EnableHighAccuracy bool
}

// DefaultOptions accepts a ten second old fix, waits at most ten seconds and
// prefers the low-power provider.
func DefaultOptions() Options {
	return Options{
		MaximumAge:         10 * time.Second,
		Timeout:            10 * time.Second,
		EnableHighAccuracy: false,
	}
}

// ErrorCode follows the host geolocation error codes.
type ErrorCode int

const (
	PermissionDenied    ErrorCode = 1
	PositionUnavailable ErrorCode = 2
	Timeout             ErrorCode = 3
)

func (c ErrorCode) String() string {
	switch c {
	case PermissionDenied:
		return "permission denied"
	case PositionUnavailable:
		return "position unavailable"
	case Timeout:
		return "timeout"
	default:
		return fmt.Sprintf("code %d", int(c))
	}
}

// Error is a failed position request.
type Error struct {
	Code    ErrorCode
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("location error (%d): %s", int(e.Code), e.Message)
}

// AsError classifies any provider failure into an *Error. Deadline expiry is a
// Timeout, everything that is not already an *Error is PositionUnavailable.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var locErr *Error
	if errors.As(err, &locErr) {
		return locErr
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Code: Timeout, Message: "position request timed out"}
	}
	return &Error{Code: PositionUnavailable, Message: err.Error()}
}

// Provider is the host geolocation API.
type Provider interface {
	CurrentPosition(ctx context.Context, opts Options) (Position, error)
}
