// Package location models the device geolocation capability as an external
// collaborator. The service never acquires positions itself; callers that do
// (kiosk-style clients, tooling) go through Source so that timeout, denial
// and unavailability surface as the distinct domain errors.
package location

import (
	"context"
	"errors"
	"time"

	"attendance.service/internal/core"
	"attendance.service/internal/core/model"
)

// Source is an opaque asynchronous position provider. Acquire blocks until a
// sample is available, the context is done, or the provider fails.
type Source interface {
	Acquire(ctx context.Context) (model.LocationSample, error)
}

// Options bound an acquisition. MaxAge of zero means a cached position is
// never acceptable and every acquisition must be fresh.
type Options struct {
	Timeout time.Duration
	MaxAge  time.Duration
}

// Denied and unavailable are provider-side failures a Source implementation
// reports; AcquireWithTimeout folds them into the domain taxonomy.
var (
	Denied      = errors.New("location: permission denied")
	Unavailable = errors.New("location: position unavailable")
)

// AcquireWithTimeout runs one bounded acquisition against the source. A
// deadline expiry becomes ErrLocationTimeout; provider failures become
// ErrLocationDenied or ErrLocationUnavailable. A stale cached sample (older
// than MaxAge) is treated as unavailable rather than silently accepted.
func AcquireWithTimeout(ctx context.Context, src Source, opts Options) (model.LocationSample, error) {
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	sample, err := src.Acquire(ctx)
	if err != nil {
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			return model.LocationSample{}, core.ErrLocationTimeout
		case errors.Is(err, Denied):
			return model.LocationSample{}, core.ErrLocationDenied
		default:
			return model.LocationSample{}, core.ErrLocationUnavailable
		}
	}

	// MaxAge of zero delegates freshness to the provider, which must not
	// serve a cached position at all.
	if opts.MaxAge > 0 && !sample.CapturedAt.IsZero() {
		if age := time.Since(sample.CapturedAt); age > opts.MaxAge {
			return model.LocationSample{}, core.ErrLocationUnavailable
		}
	}

	return sample, nil
}
