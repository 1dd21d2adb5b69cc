package core

import (
	"context"
	"fmt"
	"time"

	"attendance.service/internal/core/geo"
	"attendance.service/internal/core/model"
	"attendance.service/internal/ports/repository"
)

const dateLayout = "2006-01-02"

// AttendanceService owns the per-user, per-day state machine:
// absent -> pending -> signed_in -> signed_out. It creates staged submissions
// and (in optimistic mode) authoritative rows; it never decides them. "Today"
// is always the service clock in UTC, never a client-reported date.
type AttendanceService struct {
	repo       repository.Repository
	hub        geo.HubLocation
	optimistic bool
	now        func() time.Time
}

// Option configures an AttendanceService.
type Option func(*AttendanceService)

// WithClock overrides the service clock, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *AttendanceService) { s.now = now }
}

// NewAttendanceService wires the state machine up with its repository and the
// hub geofence. When optimistic is true a sign-in flips the authoritative row
// to signed_in immediately instead of waiting for admin approval.
func NewAttendanceService(repo repository.Repository, hub geo.HubLocation, optimistic bool, opts ...Option) *AttendanceService {
	s := &AttendanceService{
		repo:       repo,
		hub:        hub,
		optimistic: optimistic,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SubmitSignIn stages a sign-in for the current day. Weekday and geofence
// gates run before any state is read; duplicate sign-ins for the day are
// rejected whether they are authoritative or still awaiting a decision.
func (s *AttendanceService) SubmitSignIn(ctx context.Context, userID string, sample model.LocationSample) (*model.PendingSignIn, error) {
	if err := validateSample(userID, sample); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	date := now.Format(dateLayout)

	if !isWeekday(now) {
		return nil, ErrWeekend
	}

	eval := geo.Evaluate(sample.Coordinate, s.hub)
	if !eval.InRange {
		return nil, &OutOfRangeError{DistanceMeters: eval.DistanceMeters, RadiusMeters: s.hub.RadiusMeters}
	}
	sample.DistanceToHub = eval.DistanceMeters

	rec, err := s.repo.GetRecordByDate(ctx, userID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to query attendance record: %w", err)
	}
	if rec != nil {
		// A completed day is rejected, never overwritten.
		return nil, ErrAlreadySignedIn
	}

	open, err := s.repo.FindUndecidedPending(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending submissions: %w", err)
	}
	if open != nil {
		return nil, ErrAlreadySignedIn
	}

	p := &model.PendingSignIn{
		UserID:         userID,
		SignInTime:     now,
		SignInLocation: &sample,
		Status:         model.StatusPending,
		NotifyStatus:   model.StatusNotifyPending,
		CreatedAt:      now,
	}
	id, err := s.repo.CreatePending(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("failed to create pending sign-in: %w", err)
	}
	p.ID = id

	if s.optimistic {
		if _, err := s.repo.UpsertRecord(ctx, recordFromPending(p)); err != nil {
			return nil, fmt.Errorf("failed to write optimistic record: %w", err)
		}
	}

	return p, nil
}

// SubmitSignOut stages a sign-out for the current day. A sign-out is allowed
// against an approved sign-in or against one still awaiting a decision, since
// approval is asynchronous; it is rejected when no sign-in exists or a
// sign-out was already recorded.
func (s *AttendanceService) SubmitSignOut(ctx context.Context, userID string, sample model.LocationSample) (*model.PendingSignIn, error) {
	if err := validateSample(userID, sample); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	date := now.Format(dateLayout)

	eval := geo.Evaluate(sample.Coordinate, s.hub)
	if !eval.InRange {
		return nil, &OutOfRangeError{DistanceMeters: eval.DistanceMeters, RadiusMeters: s.hub.RadiusMeters}
	}
	sample.DistanceToHub = eval.DistanceMeters

	rec, err := s.repo.GetRecordByDate(ctx, userID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to query attendance record: %w", err)
	}
	if rec != nil && rec.SignOutTime != nil {
		return nil, ErrAlreadySignedOut
	}

	open, err := s.repo.FindUndecidedPending(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending submissions: %w", err)
	}

	if open != nil && open.SignInTime.UTC().Format(dateLayout) == date {
		if open.SignOutTime != nil {
			return nil, ErrAlreadySignedOut
		}
		if err := s.repo.StageSignOut(ctx, open.ID, now, &sample); err != nil {
			return nil, fmt.Errorf("failed to stage sign-out: %w", err)
		}
		open.SignOutTime = &now
		open.SignOutLocation = &sample
		return open, nil
	}

	if rec != nil && rec.Status == model.StatusSignedIn {
		// Sign-in already approved; stage a fresh submission carrying the
		// recorded sign-in alongside the new sign-out.
		p := &model.PendingSignIn{
			UserID:          userID,
			SignInTime:      rec.SignInTime,
			SignOutTime:     &now,
			SignInLocation:  rec.SignInLocation,
			SignOutLocation: &sample,
			Status:          model.StatusPending,
			NotifyStatus:    model.StatusNotifyPending,
			CreatedAt:       now,
		}
		id, err := s.repo.CreatePending(ctx, p)
		if err != nil {
			return nil, fmt.Errorf("failed to create pending sign-out: %w", err)
		}
		p.ID = id
		return p, nil
	}

	return nil, ErrNotSignedIn
}

// TodayStatus reports the composite state of the user's current day.
func (s *AttendanceService) TodayStatus(ctx context.Context, userID string) (*model.TodayStatus, error) {
	if userID == "" {
		return nil, &ValidationError{Field: "userId", Reason: "must not be empty"}
	}

	date := s.now().UTC().Format(dateLayout)

	rec, err := s.repo.GetRecordByDate(ctx, userID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to query attendance record: %w", err)
	}
	open, err := s.repo.FindUndecidedPending(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending submissions: %w", err)
	}

	status := model.StatusAbsent
	if rec != nil {
		status = rec.Status
	}
	return &model.TodayStatus{Status: status, Record: rec, Pending: open}, nil
}

// History returns the user's attendance records, newest date first. Limit
// defaults to 30 when unset.
func (s *AttendanceService) History(ctx context.Context, userID, startDate, endDate string, limit int) ([]model.AttendanceRecord, error) {
	if userID == "" {
		return nil, &ValidationError{Field: "userId", Reason: "must not be empty"}
	}
	for field, date := range map[string]string{"startDate": startDate, "endDate": endDate} {
		if date == "" {
			continue
		}
		if _, err := time.Parse(dateLayout, date); err != nil {
			return nil, &ValidationError{Field: field, Reason: "must be YYYY-MM-DD"}
		}
	}
	if limit <= 0 {
		limit = 30
	}

	records, err := s.repo.ListRecords(ctx, userID, startDate, endDate, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance records: %w", err)
	}
	return records, nil
}

func validateSample(userID string, sample model.LocationSample) error {
	if userID == "" {
		return &ValidationError{Field: "userId", Reason: "must not be empty"}
	}
	if sample.Latitude < -90 || sample.Latitude > 90 {
		return &ValidationError{Field: "latitude", Reason: "must be within [-90, 90]"}
	}
	if sample.Longitude < -180 || sample.Longitude > 180 {
		return &ValidationError{Field: "longitude", Reason: "must be within [-180, 180]"}
	}
	if sample.AccuracyMeters < 0 {
		return &ValidationError{Field: "accuracyMeters", Reason: "must not be negative"}
	}
	return nil
}

func isWeekday(t time.Time) bool {
	wd := t.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// recordFromPending builds the authoritative row a staged submission maps to.
func recordFromPending(p *model.PendingSignIn) *model.AttendanceRecord {
	rec := &model.AttendanceRecord{
		UserID:          p.UserID,
		PendingID:       p.ID,
		Date:            p.SignInTime.UTC().Format(dateLayout),
		SignInTime:      p.SignInTime,
		SignOutTime:     p.SignOutTime,
		SignInLocation:  p.SignInLocation,
		SignOutLocation: p.SignOutLocation,
		Status:          model.StatusSignedIn,
		SyncStatus:      model.StatusSyncPending,
	}
	if p.SignOutTime != nil {
		rec.Status = model.StatusSignedOut
		rec.TotalHours = p.SignOutTime.Sub(p.SignInTime).Hours()
	}
	return rec
}
