package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"attendance.service/internal/core"
	"attendance.service/internal/core/model"
	"attendance.service/internal/ports/messaging"
	"attendance.service/internal/ports/repository"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/rs/zerolog/log"
)

// NotifyProcessor emails submitters about approval decisions.
type NotifyProcessor struct {
	emailService core.EmailService
	repo         repository.Repository
}

// NewProcessor sets up a new processor for decision notifications. It needs
// an email service to send mail and a repository to resolve addresses and
// update the job status.
func NewProcessor(emailService core.EmailService, repo repository.Repository) *NotifyProcessor {
	return &NotifyProcessor{
		emailService: emailService,
		repo:         repo,
	}
}

// Process handles a single message from the notify queue. It tries to send
// the decision email and tells the worker to retry if something goes wrong.
func (p *NotifyProcessor) Process(ctx context.Context, msg types.Message) (bool, int32, error) {
	var event messaging.DecisionEvent
	if err := json.Unmarshal([]byte(*msg.Body), &event); err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("Failed to unmarshal decision event")
		return false, 0, err // Do not retry on malformed message
	}

	pending, err := p.repo.GetPending(ctx, event.PendingID)
	if err != nil {
		// If we can't get the row, retry after a short delay.
		return true, 10, fmt.Errorf("failed to get submission from db: %w", err)
	}
	if pending == nil {
		return false, 0, fmt.Errorf("pending submission %d no longer exists", event.PendingID)
	}

	if pending.NotifyStatus == model.StatusNotifyCompleted {
		log.Ctx(ctx).Info().Int64("pending_id", event.PendingID).Msg("Decision email already sent. Skipping.")
		return false, 0, nil
	}

	profile, err := p.repo.GetProfile(ctx, event.UserID)
	if err != nil {
		return true, 10, fmt.Errorf("failed to resolve submitter profile: %w", err)
	}
	if profile == nil || profile.Email == "" {
		// Nobody to notify; mark done rather than loop forever.
		return false, 0, p.repo.UpdateNotifyStatus(ctx, event.PendingID, model.StatusNotifyCompleted, 0)
	}

	err = p.emailService.SendDecisionNotice(ctx, profile.Email, profile.Name, pending.Status, pending.RejectionReason)
	if err != nil {
		newCount := pending.NotifyRetryCount + 1
		p.repo.UpdateNotifyStatus(ctx, event.PendingID, model.StatusNotifyPending, newCount)

		delay := calculateBackoff(newCount)
		return true, delay, err
	}

	err = p.repo.UpdateNotifyStatus(ctx, event.PendingID, model.StatusNotifyCompleted, 0)
	return false, 0, err
}

// calculateBackoff determines how long to wait before retrying a failed job.
// It increases the delay exponentially with each retry to avoid overwhelming
// a struggling service.
func calculateBackoff(retryCount int) int32 {
	backoff := int32(math.Pow(2, float64(retryCount)) * 10)
	if backoff > 3600 { // Cap at 1 hour
		return 3600
	}
	return backoff
}
