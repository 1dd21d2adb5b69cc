package messaging

import "time"

// RecordApprovedEvent is the JSON payload sent via SQS for the ledger queue.
// The ledger worker exports the approved record to the HR system.
type RecordApprovedEvent struct {
	RecordID    int64      `json:"recordId"`
	UserID      string     `json:"userId"`
	Date        string     `json:"date"`
	SignInTime  time.Time  `json:"signInTime"`
	SignOutTime *time.Time `json:"signOutTime,omitempty"`
	TotalHours  float64    `json:"totalHours"`
}

// DecisionEvent is the JSON payload sent via SQS for the notify queue. The
// notify worker emails the submitter with the decision.
type DecisionEvent struct {
	PendingID       int64     `json:"pendingId"`
	UserID          string    `json:"userId"`
	Status          string    `json:"status"`
	RejectionReason string    `json:"rejectionReason,omitempty"`
	DecidedAt       time.Time `json:"decidedAt"`
}
