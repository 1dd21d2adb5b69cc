package core

import (
	"context"
	"fmt"
	"time"

	"attendance.service/internal/core/model"
)

// fakeRepo is an in-memory stand-in for the PostgreSQL repository. It mirrors
// the conditional-update semantics of DecidePending so the double-processing
// guard can be exercised without a database.
type fakeRepo struct {
	records  map[string]*model.AttendanceRecord // keyed userID|date
	pending  map[int64]*model.PendingSignIn
	profiles map[string]*model.Profile
	nextID   int64
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		records:  make(map[string]*model.AttendanceRecord),
		pending:  make(map[int64]*model.PendingSignIn),
		profiles: make(map[string]*model.Profile),
	}
}

func recordKey(userID, date string) string { return userID + "|" + date }

func (f *fakeRepo) GetRecordByDate(_ context.Context, userID, date string) (*model.AttendanceRecord, error) {
	rec, ok := f.records[recordKey(userID, date)]
	if !ok {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

func (f *fakeRepo) GetRecord(_ context.Context, id int64) (*model.AttendanceRecord, error) {
	for _, rec := range f.records {
		if rec.ID == id {
			cp := *rec
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeRepo) ListRecords(_ context.Context, userID, startDate, endDate string, limit int) ([]model.AttendanceRecord, error) {
	var out []model.AttendanceRecord
	for _, rec := range f.records {
		if rec.UserID != userID {
			continue
		}
		if startDate != "" && rec.Date < startDate {
			continue
		}
		if endDate != "" && rec.Date > endDate {
			continue
		}
		out = append(out, *rec)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeRepo) UpsertRecord(_ context.Context, rec *model.AttendanceRecord) (*model.AttendanceRecord, error) {
	key := recordKey(rec.UserID, rec.Date)
	existing, ok := f.records[key]
	if !ok {
		f.nextID++
		cp := *rec
		cp.ID = f.nextID
		f.records[key] = &cp
		out := cp
		return &out, nil
	}
	existing.PendingID = rec.PendingID
	existing.SignOutTime = rec.SignOutTime
	existing.SignOutLocation = rec.SignOutLocation
	existing.Status = rec.Status
	existing.TotalHours = rec.TotalHours
	existing.SyncStatus = rec.SyncStatus
	cp := *existing
	return &cp, nil
}

func (f *fakeRepo) DeleteRecord(_ context.Context, id int64) error {
	for key, rec := range f.records {
		if rec.ID == id {
			delete(f.records, key)
			return nil
		}
	}
	return nil
}

func (f *fakeRepo) UpdateSyncStatus(_ context.Context, id int64, status model.SyncStatus, retryCount int) error {
	for _, rec := range f.records {
		if rec.ID == id {
			rec.SyncStatus = status
			rec.SyncRetryCount = retryCount
			return nil
		}
	}
	return fmt.Errorf("record %d not found", id)
}

func (f *fakeRepo) CreatePending(_ context.Context, p *model.PendingSignIn) (int64, error) {
	f.nextID++
	cp := *p
	cp.ID = f.nextID
	f.pending[cp.ID] = &cp
	return cp.ID, nil
}

func (f *fakeRepo) GetPending(_ context.Context, id int64) (*model.PendingSignIn, error) {
	p, ok := f.pending[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (f *fakeRepo) FindUndecidedPending(_ context.Context, userID string) (*model.PendingSignIn, error) {
	var latest *model.PendingSignIn
	for _, p := range f.pending {
		if p.UserID != userID || p.Status != model.StatusPending {
			continue
		}
		if latest == nil || p.CreatedAt.After(latest.CreatedAt) {
			latest = p
		}
	}
	if latest == nil {
		return nil, nil
	}
	cp := *latest
	return &cp, nil
}

func (f *fakeRepo) StageSignOut(_ context.Context, id int64, signOut time.Time, loc *model.LocationSample) error {
	p, ok := f.pending[id]
	if !ok {
		return fmt.Errorf("pending %d not found", id)
	}
	p.SignOutTime = &signOut
	p.SignOutLocation = loc
	return nil
}

func (f *fakeRepo) ListPending(_ context.Context) ([]model.PendingSignIn, error) {
	var out []model.PendingSignIn
	for _, p := range f.pending {
		if p.Status == model.StatusPending {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeRepo) DecidePending(_ context.Context, id int64, status model.PendingStatus, deciderID, reason string, decidedAt time.Time) (*model.PendingSignIn, error) {
	p, ok := f.pending[id]
	if !ok || p.Status != model.StatusPending {
		return nil, nil
	}
	p.Status = status
	p.ApprovedBy = deciderID
	p.ApprovedAt = &decidedAt
	p.RejectionReason = reason
	cp := *p
	return &cp, nil
}

func (f *fakeRepo) UpdateNotifyStatus(_ context.Context, id int64, status model.NotifyStatus, retryCount int) error {
	p, ok := f.pending[id]
	if !ok {
		return fmt.Errorf("pending %d not found", id)
	}
	p.NotifyStatus = status
	p.NotifyRetryCount = retryCount
	return nil
}

func (f *fakeRepo) GetProfile(_ context.Context, userID string) (*model.Profile, error) {
	p, ok := f.profiles[userID]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (f *fakeRepo) Stats(_ context.Context, today string) (model.DashboardStats, error) {
	stats := model.DashboardStats{TotalUsers: len(f.profiles)}
	for _, rec := range f.records {
		stats.TotalAttendance++
		if rec.Date == today {
			stats.TodayAttendance++
		}
	}
	for _, p := range f.pending {
		if p.Status == model.StatusPending {
			stats.PendingSignIns++
		}
	}
	return stats, nil
}

// fakeProducer records published events instead of talking to SQS.
type fakeProducer struct {
	ledger    []interface{}
	decisions []interface{}
	fail      bool
}

func (f *fakeProducer) PublishLedger(_ context.Context, body interface{}) error {
	if f.fail {
		return fmt.Errorf("queue unavailable")
	}
	f.ledger = append(f.ledger, body)
	return nil
}

func (f *fakeProducer) PublishDecision(_ context.Context, body interface{}) error {
	if f.fail {
		return fmt.Errorf("queue unavailable")
	}
	f.decisions = append(f.decisions, body)
	return nil
}
