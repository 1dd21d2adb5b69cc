package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"attendance.service/internal/core/model"
	"attendance.service/internal/ports/messaging"
	"attendance.service/internal/ports/repository"
	"attendance.service/internal/worker/hrapi"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
)

// LedgerProcessor handles jobs from the ledger queue, which involves exporting
// approved attendance to the HR system. It uses a circuit breaker to avoid
// hammering the HR API if it's having issues.
type LedgerProcessor struct {
	Repo  repository.Repository
	hrAPI hrapi.Client
	cb    *gobreaker.CircuitBreaker
}

// NewProcessor creates a new processor for the ledger queue. It sets up a
// circuit breaker to protect the HR API from being overwhelmed.
func NewProcessor(r repository.Repository, hrAPI hrapi.Client) *LedgerProcessor {
	settings := gobreaker.Settings{
		Name:        "HR-API",
		MaxRequests: 5,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			// Trip if failure rate exceeds 50% after at least 10 requests
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 10 && failureRatio >= 0.5
		},
	}

	return &LedgerProcessor{
		Repo:  r,
		hrAPI: hrAPI,
		cb:    gobreaker.NewCircuitBreaker(settings),
	}
}

// Process handles a single message from the ledger queue. It calls the HR API
// through the circuit breaker and retries with exponential backoff.
func (p *LedgerProcessor) Process(ctx context.Context, msg types.Message) (bool, int32, error) {
	var event messaging.RecordApprovedEvent
	if err := json.Unmarshal([]byte(*msg.Body), &event); err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("Failed to unmarshal ledger event")
		return false, 0, err // Do not retry on malformed message
	}

	record, err := p.Repo.GetRecord(ctx, event.RecordID)
	if err != nil {
		return true, 10, fmt.Errorf("failed to get record from db: %w", err)
	}
	if record == nil {
		return false, 0, fmt.Errorf("attendance record %d no longer exists", event.RecordID)
	}

	if record.SyncStatus == model.StatusSyncCompleted {
		return false, 0, nil
	}

	_, err = p.cb.Execute(func() (interface{}, error) {
		return nil, p.hrAPI.RecordAttendance(ctx, event)
	})

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) {
			log.Ctx(ctx).Warn().Msg("Circuit breaker is OPEN; skipping HR API call")
		}
		newCount := record.SyncRetryCount + 1
		p.Repo.UpdateSyncStatus(ctx, event.RecordID, model.StatusSyncPending, newCount)

		delay := calculateBackoff(newCount)
		return true, delay, err
	}

	err = p.Repo.UpdateSyncStatus(ctx, event.RecordID, model.StatusSyncCompleted, 0)
	return false, 0, err
}

// calculateBackoff determines how long to wait before retrying a failed job.
// It increases the delay exponentially with each retry.
func calculateBackoff(retryCount int) int32 {
	backoff := int32(math.Pow(2, float64(retryCount)) * 10)
	if backoff > 3600 {
		return 3600 // max at 1 hour
	}
	return backoff
}
