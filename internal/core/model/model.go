package model

import (
	"time"
)

// AttendanceStatus is the state of the authoritative record for one day.
type AttendanceStatus string

const (
	StatusAbsent    AttendanceStatus = "absent"
	StatusSignedIn  AttendanceStatus = "signed_in"
	StatusSignedOut AttendanceStatus = "signed_out"
)

// PendingStatus is the lifecycle state of a staged submission. A row leaves
// "pending" exactly once and is never revisited.
type PendingStatus string

const (
	StatusPending  PendingStatus = "pending"
	StatusApproved PendingStatus = "approved"
	StatusRejected PendingStatus = "rejected"
)

// SyncStatus tracks export of an approved record to the HR system.
type SyncStatus string

const (
	StatusSyncPending   SyncStatus = "PENDING"
	StatusSyncCompleted SyncStatus = "COMPLETED"
	StatusSyncFailed    SyncStatus = "FAILED"
)

// NotifyStatus tracks the decision email for a processed submission.
type NotifyStatus string

const (
	StatusNotifyPending   NotifyStatus = "PENDING"
	StatusNotifyCompleted NotifyStatus = "COMPLETED"
	StatusNotifyFailed    NotifyStatus = "FAILED"
)

// Role of an authenticated caller, resolved by the identity collaborator.
type Role string

const (
	RoleIntern Role = "intern"
	RoleStaff  Role = "staff"
	RoleAdmin  Role = "admin"
)

// Coordinate is an immutable WGS84 point.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// LocationSample is a device position captured at the moment of a sign-in or
// sign-out attempt. DistanceToHub is stamped by the geofence at submission
// time; a sample is never persisted outside an attendance action.
type LocationSample struct {
	Coordinate
	AccuracyMeters float64   `json:"accuracyMeters"`
	CapturedAt     time.Time `json:"capturedAt"`
	DistanceToHub  int       `json:"distanceToHub,omitempty"`
}

// AttendanceRecord is the authoritative row for one (userID, date).
// SignOutTime set implies SignInTime set and SignOutTime after it.
// PendingID names the submission that last wrote this row; a rejected
// submission uses it to tell its own provisional row from an approved one.
type AttendanceRecord struct {
	ID              int64            `json:"id"`
	UserID          string           `json:"userId"`
	PendingID       int64            `json:"pendingId,omitempty"`
	Date            string           `json:"date"` // YYYY-MM-DD, service clock, UTC
	SignInTime      time.Time        `json:"signInTime"`
	SignOutTime     *time.Time       `json:"signOutTime,omitempty"`
	SignInLocation  *LocationSample  `json:"signInLocation,omitempty"`
	SignOutLocation *LocationSample  `json:"signOutLocation,omitempty"`
	Status          AttendanceStatus `json:"status"`
	TotalHours      float64          `json:"totalHours,omitempty"`
	SyncStatus      SyncStatus       `json:"syncStatus"`
	SyncRetryCount  int              `json:"syncRetryCount"`
}

// PendingSignIn is a staged submission awaiting an admin decision.
type PendingSignIn struct {
	ID               int64           `json:"id"`
	UserID           string          `json:"userId"`
	SignInTime       time.Time       `json:"signInTime"`
	SignOutTime      *time.Time      `json:"signOutTime,omitempty"`
	SignInLocation   *LocationSample `json:"signInLocation,omitempty"`
	SignOutLocation  *LocationSample `json:"signOutLocation,omitempty"`
	Status           PendingStatus   `json:"status"`
	ApprovedBy       string          `json:"approvedBy,omitempty"`
	ApprovedAt       *time.Time      `json:"approvedAt,omitempty"`
	RejectionReason  string          `json:"rejectionReason,omitempty"`
	NotifyStatus     NotifyStatus    `json:"notifyStatus"`
	NotifyRetryCount int             `json:"notifyRetryCount"`
	CreatedAt        time.Time       `json:"createdAt"`
}

// Open reports whether the submission still has a sign-out slot to fill,
// i.e. it is undecided and no sign-out has been staged yet.
func (p *PendingSignIn) Open() bool {
	return p.Status == StatusPending && p.SignOutTime == nil
}

// Profile is the slice of the identity store this service reads: role for
// authorization, name and email for decision notifications.
type Profile struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// TodayStatus is the composite view for a user's current day.
type TodayStatus struct {
	Status  AttendanceStatus  `json:"status"`
	Record  *AttendanceRecord `json:"record,omitempty"`
	Pending *PendingSignIn    `json:"pending,omitempty"`
}

// DashboardStats are the admin landing-page aggregates.
type DashboardStats struct {
	TotalUsers      int `json:"totalUsers"`
	TotalAttendance int `json:"totalAttendance"`
	PendingSignIns  int `json:"pendingSignIns"`
	TodayAttendance int `json:"todayAttendance"`
}
