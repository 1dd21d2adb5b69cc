package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"attendance.service/internal/core/model"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// AttendanceRepository is the concrete implementation for a PostgreSQL database.
type AttendanceRepository struct {
	DB *sql.DB
}

// NewAttendanceRepository create new instance
func NewAttendanceRepository(db *sql.DB) Repository {
	return &AttendanceRepository{DB: db}
}

// GetRecordByDate fetches the authoritative record for one (user, date).
func (r *AttendanceRepository) GetRecordByDate(ctx context.Context, userID, date string) (*model.AttendanceRecord, error) {
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("app.user_id", userID))

	query := `SELECT id, user_id, pending_id, date, sign_in_time, sign_out_time, sign_in_location, sign_out_location,
                     status, total_hours, sync_status, sync_retry_count
              FROM attendance_records
              WHERE user_id = $1 AND date = $2`

	rec, err := scanRecord(r.DB.QueryRowContext(ctx, query, userID, date))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return rec, err
}

// GetRecord fetches an attendance record by its ID.
func (r *AttendanceRepository) GetRecord(ctx context.Context, id int64) (*model.AttendanceRecord, error) {
	query := `SELECT id, user_id, pending_id, date, sign_in_time, sign_out_time, sign_in_location, sign_out_location,
                     status, total_hours, sync_status, sync_retry_count
              FROM attendance_records
              WHERE id = $1`

	rec, err := scanRecord(r.DB.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return rec, err
}

// ListRecords returns a user's history, newest date first. Empty start/end
// dates leave that bound open.
func (r *AttendanceRepository) ListRecords(ctx context.Context, userID, startDate, endDate string, limit int) ([]model.AttendanceRecord, error) {
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("app.user_id", userID))

	query := `SELECT id, user_id, pending_id, date, sign_in_time, sign_out_time, sign_in_location, sign_out_location,
                     status, total_hours, sync_status, sync_retry_count
              FROM attendance_records
              WHERE user_id = $1`
	args := []interface{}{userID}

	if startDate != "" {
		args = append(args, startDate)
		query += fmt.Sprintf(" AND date >= $%d", len(args))
	}
	if endDate != "" {
		args = append(args, endDate)
		query += fmt.Sprintf(" AND date <= $%d", len(args))
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY date DESC LIMIT $%d", len(args))

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []model.AttendanceRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

// UpsertRecord writes the authoritative row for (user_id, date), creating it
// on first sign-in of the day and folding in sign-out data afterwards.
func (r *AttendanceRepository) UpsertRecord(ctx context.Context, rec *model.AttendanceRecord) (*model.AttendanceRecord, error) {
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("app.user_id", rec.UserID))

	signInLoc, err := marshalLocation(rec.SignInLocation)
	if err != nil {
		return nil, err
	}
	signOutLoc, err := marshalLocation(rec.SignOutLocation)
	if err != nil {
		return nil, err
	}

	query := `INSERT INTO attendance_records
                (user_id, pending_id, date, sign_in_time, sign_out_time, sign_in_location, sign_out_location,
                 status, total_hours, sync_status, sync_retry_count)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, 0)
              ON CONFLICT (user_id, date) DO UPDATE SET
                pending_id        = EXCLUDED.pending_id,
                sign_out_time     = EXCLUDED.sign_out_time,
                sign_out_location = EXCLUDED.sign_out_location,
                status            = EXCLUDED.status,
                total_hours       = EXCLUDED.total_hours,
                sync_status       = EXCLUDED.sync_status
              RETURNING id, user_id, pending_id, date, sign_in_time, sign_out_time, sign_in_location, sign_out_location,
                        status, total_hours, sync_status, sync_retry_count`

	return scanRecord(r.DB.QueryRowContext(ctx, query,
		rec.UserID, rec.PendingID, rec.Date, rec.SignInTime, rec.SignOutTime, signInLoc, signOutLoc,
		rec.Status, rec.TotalHours, rec.SyncStatus))
}

// DeleteRecord removes an authoritative row, used to roll back a provisional
// record after its submission was rejected.
func (r *AttendanceRepository) DeleteRecord(ctx context.Context, id int64) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM attendance_records WHERE id = $1`, id)
	return err
}

// UpdateSyncStatus updates the HR-export status and retry count for a record.
func (r *AttendanceRepository) UpdateSyncStatus(ctx context.Context, id int64, status model.SyncStatus, retryCount int) error {
	query := `UPDATE attendance_records SET sync_status = $1, sync_retry_count = $2 WHERE id = $3`
	_, err := r.DB.ExecContext(ctx, query, status, retryCount, id)
	return err
}

// CreatePending stages a new submission.
func (r *AttendanceRepository) CreatePending(ctx context.Context, p *model.PendingSignIn) (int64, error) {
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("app.user_id", p.UserID))

	signInLoc, err := marshalLocation(p.SignInLocation)
	if err != nil {
		return 0, err
	}
	signOutLoc, err := marshalLocation(p.SignOutLocation)
	if err != nil {
		return 0, err
	}

	var id int64
	query := `INSERT INTO pending_sign_ins
                (user_id, sign_in_time, sign_out_time, sign_in_location, sign_out_location,
                 status, notify_status, notify_retry_count, created_at)
              VALUES ($1, $2, $3, $4, $5, $6, $7, 0, $8) RETURNING id`

	err = r.DB.QueryRowContext(ctx, query,
		p.UserID, p.SignInTime, p.SignOutTime, signInLoc, signOutLoc,
		p.Status, p.NotifyStatus, p.CreatedAt).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

// GetPending fetches one staged submission by ID.
func (r *AttendanceRepository) GetPending(ctx context.Context, id int64) (*model.PendingSignIn, error) {
	p, err := scanPending(r.DB.QueryRowContext(ctx, pendingColumns+` WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return p, err
}

// FindUndecidedPending returns the user's newest submission still awaiting a
// decision, or nil when there is none.
func (r *AttendanceRepository) FindUndecidedPending(ctx context.Context, userID string) (*model.PendingSignIn, error) {
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("app.user_id", userID))

	query := pendingColumns + `
              WHERE user_id = $1 AND status = $2
              ORDER BY created_at DESC
              LIMIT 1`

	p, err := scanPending(r.DB.QueryRowContext(ctx, query, userID, model.StatusPending))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return p, err
}

// StageSignOut adds sign-out data to an open submission.
func (r *AttendanceRepository) StageSignOut(ctx context.Context, id int64, signOut time.Time, loc *model.LocationSample) error {
	signOutLoc, err := marshalLocation(loc)
	if err != nil {
		return err
	}

	query := `UPDATE pending_sign_ins SET sign_out_time = $1, sign_out_location = $2 WHERE id = $3`
	_, err = r.DB.ExecContext(ctx, query, signOut, signOutLoc, id)
	return err
}

// ListPending returns all undecided submissions, newest first.
func (r *AttendanceRepository) ListPending(ctx context.Context) ([]model.PendingSignIn, error) {
	query := pendingColumns + `
              WHERE status = $1
              ORDER BY created_at DESC`

	rows, err := r.DB.QueryContext(ctx, query, model.StatusPending)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pending []model.PendingSignIn
	for rows.Next() {
		p, err := scanPending(rows)
		if err != nil {
			return nil, err
		}
		pending = append(pending, *p)
	}
	return pending, rows.Err()
}

// DecidePending moves a submission to a terminal status. The WHERE clause on
// the current status makes the read-modify-write atomic: if two admins race,
// exactly one update matches and the loser sees (nil, nil).
func (r *AttendanceRepository) DecidePending(ctx context.Context, id int64, status model.PendingStatus, deciderID, reason string, decidedAt time.Time) (*model.PendingSignIn, error) {
	trace.SpanFromContext(ctx).SetAttributes(attribute.Int64("app.pending_id", id))

	query := `UPDATE pending_sign_ins
              SET status = $1, approved_by = $2, approved_at = $3, rejection_reason = $4
              WHERE id = $5 AND status = $6
              RETURNING id, user_id, sign_in_time, sign_out_time, sign_in_location, sign_out_location,
                        status, approved_by, approved_at, rejection_reason, notify_status, notify_retry_count, created_at`

	p, err := scanPending(r.DB.QueryRowContext(ctx, query, status, deciderID, decidedAt, reason, id, model.StatusPending))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return p, err
}

// UpdateNotifyStatus updates the decision-email status and retry count.
func (r *AttendanceRepository) UpdateNotifyStatus(ctx context.Context, id int64, status model.NotifyStatus, retryCount int) error {
	query := `UPDATE pending_sign_ins SET notify_status = $1, notify_retry_count = $2 WHERE id = $3`
	_, err := r.DB.ExecContext(ctx, query, status, retryCount, id)
	return err
}

// GetProfile resolves the role and contact slice of the identity store.
func (r *AttendanceRepository) GetProfile(ctx context.Context, userID string) (*model.Profile, error) {
	query := `SELECT id, name, email, role FROM profiles WHERE id = $1`

	p := &model.Profile{}
	err := r.DB.QueryRowContext(ctx, query, userID).Scan(&p.ID, &p.Name, &p.Email, &p.Role)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Stats gathers the admin dashboard aggregates in one round trip.
func (r *AttendanceRepository) Stats(ctx context.Context, today string) (model.DashboardStats, error) {
	query := `SELECT
                (SELECT COUNT(*) FROM profiles),
                (SELECT COUNT(*) FROM attendance_records),
                (SELECT COUNT(*) FROM pending_sign_ins WHERE status = $1),
                (SELECT COUNT(*) FROM attendance_records WHERE date = $2)`

	var stats model.DashboardStats
	err := r.DB.QueryRowContext(ctx, query, model.StatusPending, today).Scan(
		&stats.TotalUsers, &stats.TotalAttendance, &stats.PendingSignIns, &stats.TodayAttendance,
	)
	return stats, err
}

const pendingColumns = `SELECT id, user_id, sign_in_time, sign_out_time, sign_in_location, sign_out_location,
                               status, approved_by, approved_at, rejection_reason, notify_status, notify_retry_count, created_at
                        FROM pending_sign_ins`

// rowScanner lets record/pending scanning work for both QueryRow and Query rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row rowScanner) (*model.AttendanceRecord, error) {
	rec := &model.AttendanceRecord{}
	var signInLoc, signOutLoc []byte
	var signOutTime sql.NullTime

	err := row.Scan(&rec.ID, &rec.UserID, &rec.PendingID, &rec.Date, &rec.SignInTime, &signOutTime,
		&signInLoc, &signOutLoc, &rec.Status, &rec.TotalHours, &rec.SyncStatus, &rec.SyncRetryCount)
	if err != nil {
		return nil, err
	}

	if signOutTime.Valid {
		t := signOutTime.Time
		rec.SignOutTime = &t
	}
	if rec.SignInLocation, err = unmarshalLocation(signInLoc); err != nil {
		return nil, err
	}
	if rec.SignOutLocation, err = unmarshalLocation(signOutLoc); err != nil {
		return nil, err
	}
	return rec, nil
}

func scanPending(row rowScanner) (*model.PendingSignIn, error) {
	p := &model.PendingSignIn{}
	var signInLoc, signOutLoc []byte
	var signOutTime, approvedAt sql.NullTime
	var approvedBy, reason sql.NullString

	err := row.Scan(&p.ID, &p.UserID, &p.SignInTime, &signOutTime, &signInLoc, &signOutLoc,
		&p.Status, &approvedBy, &approvedAt, &reason, &p.NotifyStatus, &p.NotifyRetryCount, &p.CreatedAt)
	if err != nil {
		return nil, err
	}

	if signOutTime.Valid {
		t := signOutTime.Time
		p.SignOutTime = &t
	}
	if approvedAt.Valid {
		t := approvedAt.Time
		p.ApprovedAt = &t
	}
	p.ApprovedBy = approvedBy.String
	p.RejectionReason = reason.String
	if p.SignInLocation, err = unmarshalLocation(signInLoc); err != nil {
		return nil, err
	}
	if p.SignOutLocation, err = unmarshalLocation(signOutLoc); err != nil {
		return nil, err
	}
	return p, nil
}

func marshalLocation(loc *model.LocationSample) ([]byte, error) {
	if loc == nil {
		return nil, nil
	}
	return json.Marshal(loc)
}

func unmarshalLocation(raw []byte) (*model.LocationSample, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	loc := &model.LocationSample{}
	if err := json.Unmarshal(raw, loc); err != nil {
		return nil, err
	}
	return loc, nil
}
