package repository

import (
	"context"
	"time"

	"github.com/dhanasekaranr/screensync/internal/domain/entity"
)

// OutboxRepository is the typed surface over the outbox_messages table. Every
// mutation is a single-row atomic write, so one message can never block
// another.
type OutboxRepository interface {
	// Append inserts a new pending message. It must be called with a context
	// carrying the same transaction as the business write it mirrors.
	Append(ctx context.Context, msg *entity.OutboxMessage) error
	AppendBatch(ctx context.Context, msgs []*entity.OutboxMessage) error

	// GetPendingMessages returns up to batchSize pending messages ordered by
	// created_at ascending.
	GetPendingMessages(ctx context.Context, batchSize int) ([]entity.OutboxMessage, error)

	// GetRetryableMessages returns failed messages with retries left whose
	// retry delay has elapsed since the last attempt.
	GetRetryableMessages(ctx context.Context, batchSize, maxRetryCount int, retryDelay time.Duration) ([]entity.OutboxMessage, error)

	// ClaimMessage atomically transitions pending|failed -> processing. It
	// returns false when another worker already owns the message.
	ClaimMessage(ctx context.Context, id int64) (bool, error)

	MarkProcessed(ctx context.Context, id int64) error

	// MarkFailed increments retry_count and records the error text.
	MarkFailed(ctx context.Context, id int64, errMsg string) error

	// MarkFailedPermanent records the error and jumps retry_count to
	// maxRetryCount so the message is terminal immediately.
	MarkFailedPermanent(ctx context.Context, id int64, errMsg string, maxRetryCount int) error

	// ReclaimStale returns processing messages older than the staleness
	// threshold to pending, recovering claims orphaned by a crash.
	ReclaimStale(ctx context.Context, olderThan time.Duration) (int64, error)
}
