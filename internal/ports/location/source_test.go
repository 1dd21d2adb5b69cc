package location

import (
	"context"
	"errors"
	"testing"
	"time"

	"attendance.service/internal/core"
	"attendance.service/internal/core/model"
)

type stubSource struct {
	sample model.LocationSample
	err    error
	block  bool
}

func (s *stubSource) Acquire(ctx context.Context) (model.LocationSample, error) {
	if s.block {
		<-ctx.Done()
		return model.LocationSample{}, ctx.Err()
	}
	return s.sample, s.err
}

func TestAcquireWithTimeoutSuccess(t *testing.T) {
	want := model.LocationSample{
		Coordinate:     model.Coordinate{Latitude: 8.479898, Longitude: 4.541840},
		AccuracyMeters: 8,
		CapturedAt:     time.Now(),
	}
	src := &stubSource{sample: want}

	got, err := AcquireWithTimeout(context.Background(), src, Options{Timeout: time.Second})
	if err != nil {
		t.Fatalf("AcquireWithTimeout: %v", err)
	}
	if got.Latitude != want.Latitude || got.Longitude != want.Longitude {
		t.Fatalf("unexpected sample: %+v", got)
	}
}

func TestAcquireTimeout(t *testing.T) {
	src := &stubSource{block: true}

	_, err := AcquireWithTimeout(context.Background(), src, Options{Timeout: 10 * time.Millisecond})
	if !errors.Is(err, core.ErrLocationTimeout) {
		t.Fatalf("expected ErrLocationTimeout, got %v", err)
	}
}

func TestAcquireDenied(t *testing.T) {
	src := &stubSource{err: Denied}

	_, err := AcquireWithTimeout(context.Background(), src, Options{Timeout: time.Second})
	if !errors.Is(err, core.ErrLocationDenied) {
		t.Fatalf("expected ErrLocationDenied, got %v", err)
	}
}

func TestAcquireUnavailable(t *testing.T) {
	src := &stubSource{err: errors.New("no satellites")}

	_, err := AcquireWithTimeout(context.Background(), src, Options{Timeout: time.Second})
	if !errors.Is(err, core.ErrLocationUnavailable) {
		t.Fatalf("expected ErrLocationUnavailable, got %v", err)
	}
}

func TestAcquireRejectsStaleCachedPosition(t *testing.T) {
	src := &stubSource{sample: model.LocationSample{
		Coordinate: model.Coordinate{Latitude: 8.479898, Longitude: 4.541840},
		CapturedAt: time.Now().Add(-time.Hour),
	}}

	_, err := AcquireWithTimeout(context.Background(), src, Options{Timeout: time.Second, MaxAge: time.Minute})
	if !errors.Is(err, core.ErrLocationUnavailable) {
		t.Fatalf("expected stale sample to be unavailable, got %v", err)
	}
}
