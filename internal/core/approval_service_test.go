package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"attendance.service/internal/core/model"
)

func newApproval(repo *fakeRepo, producer *fakeProducer, at time.Time) *ApprovalService {
	return NewApprovalService(repo, producer, WithApprovalClock(func() time.Time { return at }))
}

func stagePending(t *testing.T, repo *fakeRepo, userID string, signIn time.Time, signOut *time.Time) int64 {
	t.Helper()
	sample := atHub()
	id, err := repo.CreatePending(context.Background(), &model.PendingSignIn{
		UserID:          userID,
		SignInTime:      signIn,
		SignOutTime:     signOut,
		SignInLocation:  &sample,
		SignOutLocation: nil,
		Status:          model.StatusPending,
		NotifyStatus:    model.StatusNotifyPending,
		CreatedAt:       signIn,
	})
	if err != nil {
		t.Fatalf("CreatePending: %v", err)
	}
	return id
}

func TestApproveRequiresAdmin(t *testing.T) {
	repo := newFakeRepo()
	id := stagePending(t, repo, "intern-1", monday0830, nil)
	svc := newApproval(repo, &fakeProducer{}, monday0830)

	if _, err := svc.Approve(context.Background(), id, "intern-2", model.RoleIntern); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	// Check-then-act: the submission must be untouched.
	p, _ := repo.GetPending(context.Background(), id)
	if p.Status != model.StatusPending {
		t.Fatalf("expected submission untouched after forbidden call, got %s", p.Status)
	}
}

func TestApproveWritesAuthoritativeRecord(t *testing.T) {
	repo := newFakeRepo()
	producer := &fakeProducer{}
	id := stagePending(t, repo, "intern-1", monday0830, nil)
	decidedAt := monday0830.Add(30 * time.Minute)
	svc := newApproval(repo, producer, decidedAt)

	rec, err := svc.Approve(context.Background(), id, "admin-1", model.RoleAdmin)
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if rec.Status != model.StatusSignedIn {
		t.Fatalf("expected signed_in, got %s", rec.Status)
	}
	if !rec.SignInTime.Equal(monday0830) || rec.Date != "2026-01-05" {
		t.Fatalf("unexpected record: %+v", rec)
	}

	p, _ := repo.GetPending(context.Background(), id)
	if p.Status != model.StatusApproved || p.ApprovedBy != "admin-1" || p.ApprovedAt == nil {
		t.Fatalf("audit fields not stamped: %+v", p)
	}

	if len(producer.ledger) != 1 || len(producer.decisions) != 1 {
		t.Fatalf("expected one ledger and one decision event, got %d/%d",
			len(producer.ledger), len(producer.decisions))
	}
}

func TestApproveTwice(t *testing.T) {
	repo := newFakeRepo()
	id := stagePending(t, repo, "intern-1", monday0830, nil)
	svc := newApproval(repo, &fakeProducer{}, monday0830)

	if _, err := svc.Approve(context.Background(), id, "admin-1", model.RoleAdmin); err != nil {
		t.Fatalf("first Approve: %v", err)
	}
	_, err := svc.Approve(context.Background(), id, "admin-2", model.RoleAdmin)
	if !errors.Is(err, ErrAlreadyProcessed) {
		t.Fatalf("expected ErrAlreadyProcessed, got %v", err)
	}

	// The record must reflect exactly one approval.
	rec, _ := repo.GetRecordByDate(context.Background(), "intern-1", "2026-01-05")
	if rec == nil || rec.Status != model.StatusSignedIn {
		t.Fatalf("unexpected record after double approval: %+v", rec)
	}
	p, _ := repo.GetPending(context.Background(), id)
	if p.ApprovedBy != "admin-1" {
		t.Fatalf("second approval overwrote audit fields: %+v", p)
	}
}

func TestApproveUnknownID(t *testing.T) {
	svc := newApproval(newFakeRepo(), &fakeProducer{}, monday0830)
	if _, err := svc.Approve(context.Background(), 42, "admin-1", model.RoleAdmin); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRejectNeverCreatesRecord(t *testing.T) {
	repo := newFakeRepo()
	producer := &fakeProducer{}
	id := stagePending(t, repo, "intern-1", monday0830, nil)
	svc := newApproval(repo, producer, monday0830)

	if err := svc.Reject(context.Background(), id, "admin-1", model.RoleAdmin, "signed in from the car park"); err != nil {
		t.Fatalf("Reject: %v", err)
	}

	rec, _ := repo.GetRecordByDate(context.Background(), "intern-1", "2026-01-05")
	if rec != nil {
		t.Fatalf("reject must not create an attendance record, got %+v", rec)
	}
	p, _ := repo.GetPending(context.Background(), id)
	if p.Status != model.StatusRejected || p.RejectionReason != "signed in from the car park" {
		t.Fatalf("unexpected submission state: %+v", p)
	}
	if err := svc.Reject(context.Background(), id, "admin-2", model.RoleAdmin, ""); !errors.Is(err, ErrAlreadyProcessed) {
		t.Fatalf("expected ErrAlreadyProcessed on second reject, got %v", err)
	}
	if len(producer.ledger) != 0 {
		t.Fatalf("reject must not publish ledger events")
	}
}

// An optimistic sign-in writes a provisional record up front; rejecting the
// submission must take that record back so the day opens up again.
func TestRejectOptimisticSignInRollsBackRecord(t *testing.T) {
	repo := newFakeRepo()
	svc := newService(repo, monday0830, true)

	p, err := svc.SubmitSignIn(context.Background(), "intern-1", atHub())
	if err != nil {
		t.Fatalf("SubmitSignIn: %v", err)
	}
	if rec, _ := repo.GetRecordByDate(context.Background(), "intern-1", "2026-01-05"); rec == nil {
		t.Fatalf("optimistic sign-in did not write a provisional record")
	}

	approvals := newApproval(repo, &fakeProducer{}, monday0830.Add(time.Hour))
	if err := approvals.Reject(context.Background(), p.ID, "admin-1", model.RoleAdmin, "not at the hub"); err != nil {
		t.Fatalf("Reject: %v", err)
	}

	if rec, _ := repo.GetRecordByDate(context.Background(), "intern-1", "2026-01-05"); rec != nil {
		t.Fatalf("rejected optimistic submission left authoritative record: status=%s", rec.Status)
	}

	// The day is open again for a corrected submission.
	if _, err := svc.SubmitSignIn(context.Background(), "intern-1", atHub()); err != nil {
		t.Fatalf("expected sign-in to succeed after reject, got %v", err)
	}
}

// Rejecting a staged sign-out must not touch the record an earlier approval
// wrote for the same day.
func TestRejectSignOutKeepsApprovedRecord(t *testing.T) {
	repo := newFakeRepo()
	approvals := newApproval(repo, &fakeProducer{}, monday0830.Add(time.Hour))

	signIn := newService(repo, monday0830, false)
	p, err := signIn.SubmitSignIn(context.Background(), "intern-1", atHub())
	if err != nil {
		t.Fatalf("SubmitSignIn: %v", err)
	}
	if _, err := approvals.Approve(context.Background(), p.ID, "admin-1", model.RoleAdmin); err != nil {
		t.Fatalf("Approve sign-in: %v", err)
	}

	evening := time.Date(2026, 1, 5, 17, 15, 0, 0, time.UTC)
	signOut := newService(repo, evening, false)
	p2, err := signOut.SubmitSignOut(context.Background(), "intern-1", atHub())
	if err != nil {
		t.Fatalf("SubmitSignOut: %v", err)
	}
	if err := approvals.Reject(context.Background(), p2.ID, "admin-1", model.RoleAdmin, "left early without notice"); err != nil {
		t.Fatalf("Reject sign-out: %v", err)
	}

	rec, _ := repo.GetRecordByDate(context.Background(), "intern-1", "2026-01-05")
	if rec == nil || rec.Status != model.StatusSignedIn {
		t.Fatalf("approved sign-in record must survive a rejected sign-out, got %+v", rec)
	}
}

func TestListPendingRequiresAdmin(t *testing.T) {
	repo := newFakeRepo()
	stagePending(t, repo, "intern-1", monday0830, nil)
	svc := newApproval(repo, &fakeProducer{}, monday0830)

	if _, err := svc.ListPending(context.Background(), model.RoleStaff); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	pending, err := svc.ListPending(context.Background(), model.RoleAdmin)
	if err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected one pending submission, got %d", len(pending))
	}
}

func TestStatsRequiresAdmin(t *testing.T) {
	svc := newApproval(newFakeRepo(), &fakeProducer{}, monday0830)
	if _, err := svc.Stats(context.Background(), model.RoleIntern); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

// Full day: sign-in at 08:30 approved, sign-out at 17:15 approved.
func TestSignInThroughSignOutApprovalFlow(t *testing.T) {
	repo := newFakeRepo()
	producer := &fakeProducer{}

	signIn := newService(repo, monday0830, false)
	p, err := signIn.SubmitSignIn(context.Background(), "intern-1", atHub())
	if err != nil {
		t.Fatalf("SubmitSignIn: %v", err)
	}

	approvals := newApproval(repo, producer, monday0830.Add(time.Hour))
	rec, err := approvals.Approve(context.Background(), p.ID, "admin-1", model.RoleAdmin)
	if err != nil {
		t.Fatalf("Approve sign-in: %v", err)
	}
	if rec.Status != model.StatusSignedIn || !rec.SignInTime.Equal(monday0830) {
		t.Fatalf("unexpected record after sign-in approval: %+v", rec)
	}

	evening := time.Date(2026, 1, 5, 17, 15, 0, 0, time.UTC)
	signOut := newService(repo, evening, false)
	p2, err := signOut.SubmitSignOut(context.Background(), "intern-1", atHub())
	if err != nil {
		t.Fatalf("SubmitSignOut: %v", err)
	}

	rec, err = approvals.Approve(context.Background(), p2.ID, "admin-1", model.RoleAdmin)
	if err != nil {
		t.Fatalf("Approve sign-out: %v", err)
	}
	if rec.Status != model.StatusSignedOut {
		t.Fatalf("expected signed_out, got %s", rec.Status)
	}
	if rec.SignOutTime == nil || !rec.SignOutTime.Equal(evening) {
		t.Fatalf("unexpected sign-out time: %v", rec.SignOutTime)
	}
	if want := evening.Sub(monday0830).Hours(); rec.TotalHours != want {
		t.Fatalf("expected %.2f total hours, got %.2f", want, rec.TotalHours)
	}
}
