package repository

import (
	"context"
	"time"

	"attendance.service/internal/core/model"
)

// Repository contract for attendance persistence. Lookups that find nothing
// return (nil, nil); DecidePending returns (nil, nil) when the row was
// already decided, which the workflow treats as a double-processing conflict.
type Repository interface {
	GetRecordByDate(ctx context.Context, userID, date string) (*model.AttendanceRecord, error)
	GetRecord(ctx context.Context, id int64) (*model.AttendanceRecord, error)
	ListRecords(ctx context.Context, userID, startDate, endDate string, limit int) ([]model.AttendanceRecord, error)
	UpsertRecord(ctx context.Context, rec *model.AttendanceRecord) (*model.AttendanceRecord, error)
	DeleteRecord(ctx context.Context, id int64) error
	UpdateSyncStatus(ctx context.Context, id int64, status model.SyncStatus, retryCount int) error

	CreatePending(ctx context.Context, p *model.PendingSignIn) (int64, error)
	GetPending(ctx context.Context, id int64) (*model.PendingSignIn, error)
	FindUndecidedPending(ctx context.Context, userID string) (*model.PendingSignIn, error)
	StageSignOut(ctx context.Context, id int64, signOut time.Time, loc *model.LocationSample) error
	ListPending(ctx context.Context) ([]model.PendingSignIn, error)
	DecidePending(ctx context.Context, id int64, status model.PendingStatus, deciderID, reason string, decidedAt time.Time) (*model.PendingSignIn, error)
	UpdateNotifyStatus(ctx context.Context, id int64, status model.NotifyStatus, retryCount int) error

	GetProfile(ctx context.Context, userID string) (*model.Profile, error)
	Stats(ctx context.Context, today string) (model.DashboardStats, error)
}
