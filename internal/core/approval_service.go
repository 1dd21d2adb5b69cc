package core

import (
	"context"
	"fmt"
	"time"

	"attendance.service/internal/core/model"
	"attendance.service/internal/ports/messaging"
	"attendance.service/internal/ports/repository"
	"github.com/rs/zerolog/log"
)

// ApprovalService exclusively owns the terminal transition of a staged
// submission. Approving folds the submission into the authoritative record;
// rejecting discards it. Both are role-gated before any state is touched.
type ApprovalService struct {
	repo     repository.Repository
	producer messaging.EventProducer
	now      func() time.Time
}

// ApprovalOption configures an ApprovalService.
type ApprovalOption func(*ApprovalService)

// WithApprovalClock overrides the decision clock, mainly for tests.
func WithApprovalClock(now func() time.Time) ApprovalOption {
	return func(s *ApprovalService) { s.now = now }
}

// NewApprovalService wires the workflow up with the repository and the event
// producer used for post-decision fan-out.
func NewApprovalService(repo repository.Repository, producer messaging.EventProducer, opts ...ApprovalOption) *ApprovalService {
	s := &ApprovalService{
		repo:     repo,
		producer: producer,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListPending returns all undecided submissions, newest first.
func (s *ApprovalService) ListPending(ctx context.Context, callerRole model.Role) ([]model.PendingSignIn, error) {
	if err := requireRole(callerRole, model.RoleAdmin); err != nil {
		return nil, err
	}

	pending, err := s.repo.ListPending(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending submissions: %w", err)
	}
	return pending, nil
}

// Approve moves a staged submission into the authoritative record for the
// date of its sign-in. The status check and update run as one conditional
// write, so of two racing admins exactly one wins; the loser gets
// ErrAlreadyProcessed.
func (s *ApprovalService) Approve(ctx context.Context, pendingID int64, approverID string, callerRole model.Role) (*model.AttendanceRecord, error) {
	if err := requireRole(callerRole, model.RoleAdmin); err != nil {
		return nil, err
	}

	decided, err := s.repo.DecidePending(ctx, pendingID, model.StatusApproved, approverID, "", s.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to approve submission: %w", err)
	}
	if decided == nil {
		return nil, s.classifyMiss(ctx, pendingID)
	}

	rec, err := s.repo.UpsertRecord(ctx, recordFromPending(decided))
	if err != nil {
		return nil, fmt.Errorf("failed to write attendance record: %w", err)
	}

	// The decision is committed; fan-out failures are retried by redelivery
	// on the worker side, not by undoing the approval.
	ledgerEvent := messaging.RecordApprovedEvent{
		RecordID:    rec.ID,
		UserID:      rec.UserID,
		Date:        rec.Date,
		SignInTime:  rec.SignInTime,
		SignOutTime: rec.SignOutTime,
		TotalHours:  rec.TotalHours,
	}
	if err := s.producer.PublishLedger(ctx, ledgerEvent); err != nil {
		log.Ctx(ctx).Warn().Err(err).Int64("record_id", rec.ID).Msg("Failed to publish ledger event")
	}
	s.publishDecision(ctx, decided)

	return rec, nil
}

// Reject marks a staged submission rejected with an optional reason. It never
// creates an attendance record, and it rolls back the provisional record an
// optimistic sign-in wrote, so the user can submit again for the day.
func (s *ApprovalService) Reject(ctx context.Context, pendingID int64, approverID string, callerRole model.Role, reason string) error {
	if err := requireRole(callerRole, model.RoleAdmin); err != nil {
		return err
	}

	decided, err := s.repo.DecidePending(ctx, pendingID, model.StatusRejected, approverID, reason, s.now().UTC())
	if err != nil {
		return fmt.Errorf("failed to reject submission: %w", err)
	}
	if decided == nil {
		return s.classifyMiss(ctx, pendingID)
	}

	if err := s.rollbackProvisionalRecord(ctx, decided); err != nil {
		return err
	}

	s.publishDecision(ctx, decided)
	return nil
}

// rollbackProvisionalRecord deletes the authoritative row for the rejected
// submission's date when that row was written by the submission itself
// (optimistic mode). A row written by an earlier approval carries a different
// pending id and is left alone.
func (s *ApprovalService) rollbackProvisionalRecord(ctx context.Context, decided *model.PendingSignIn) error {
	date := decided.SignInTime.UTC().Format(dateLayout)
	rec, err := s.repo.GetRecordByDate(ctx, decided.UserID, date)
	if err != nil {
		return fmt.Errorf("failed to query record for rejected submission: %w", err)
	}
	if rec == nil || rec.PendingID != decided.ID {
		return nil
	}
	if err := s.repo.DeleteRecord(ctx, rec.ID); err != nil {
		return fmt.Errorf("failed to roll back provisional record: %w", err)
	}
	return nil
}

// Stats returns the admin dashboard aggregates.
func (s *ApprovalService) Stats(ctx context.Context, callerRole model.Role) (model.DashboardStats, error) {
	if err := requireRole(callerRole, model.RoleAdmin); err != nil {
		return model.DashboardStats{}, err
	}

	stats, err := s.repo.Stats(ctx, s.now().UTC().Format(dateLayout))
	if err != nil {
		return model.DashboardStats{}, fmt.Errorf("failed to gather stats: %w", err)
	}
	return stats, nil
}

// classifyMiss distinguishes an unknown id from a double decision after a
// conditional update matched no rows.
func (s *ApprovalService) classifyMiss(ctx context.Context, pendingID int64) error {
	existing, err := s.repo.GetPending(ctx, pendingID)
	if err != nil {
		return fmt.Errorf("failed to look up submission: %w", err)
	}
	if existing == nil {
		return ErrNotFound
	}
	return ErrAlreadyProcessed
}

func (s *ApprovalService) publishDecision(ctx context.Context, p *model.PendingSignIn) {
	event := messaging.DecisionEvent{
		PendingID:       p.ID,
		UserID:          p.UserID,
		Status:          string(p.Status),
		RejectionReason: p.RejectionReason,
		DecidedAt:       s.now().UTC(),
	}
	if err := s.producer.PublishDecision(ctx, event); err != nil {
		log.Ctx(ctx).Warn().Err(err).Int64("pending_id", p.ID).Msg("Failed to publish decision event")
	}
}

// requireRole is the single capability check at the workflow boundary.
func requireRole(have, want model.Role) error {
	if have != want {
		return ErrForbidden
	}
	return nil
}
