package persistence

import (
	"context"
	"time"

	"github.com/dhanasekaranr/screensync/internal/domain/entity"
	"github.com/dhanasekaranr/screensync/internal/domain/repository"
	"gorm.io/gorm"
)

type OutboxRepository struct {
	db *DB
}

var _ repository.OutboxRepository = (*OutboxRepository)(nil)

func NewOutboxRepository(db *DB) *OutboxRepository {
	return &OutboxRepository{db: db}
}

func (r *OutboxRepository) Append(ctx context.Context, msg *entity.OutboxMessage) error {
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	if msg.Status == "" {
		msg.Status = entity.OutboxStatusPending
	}
	return r.db.Write(ctx).Create(msg).Error
}

func (r *OutboxRepository) AppendBatch(ctx context.Context, msgs []*entity.OutboxMessage) error {
	if len(msgs) == 0 {
		return nil
	}
	now := time.Now().UTC()
	for _, msg := range msgs {
		if msg.CreatedAt.IsZero() {
			msg.CreatedAt = now
		}
		if msg.Status == "" {
			msg.Status = entity.OutboxStatusPending
		}
	}
	return r.db.Write(ctx).Create(&msgs).Error
}

func (r *OutboxRepository) GetPendingMessages(ctx context.Context, batchSize int) ([]entity.OutboxMessage, error) {
	if batchSize <= 0 {
		batchSize = 10
	}
	var msgs []entity.OutboxMessage
	err := r.db.Write(ctx).
		Where("status = ?", entity.OutboxStatusPending).
		Order("created_at ASC").
		Limit(batchSize).
		Find(&msgs).Error
	if err != nil {
		return nil, err
	}
	return msgs, nil
}

func (r *OutboxRepository) GetRetryableMessages(ctx context.Context, batchSize, maxRetryCount int, retryDelay time.Duration) ([]entity.OutboxMessage, error) {
	if batchSize <= 0 {
		batchSize = 10
	}
	cutoff := time.Now().UTC().Add(-retryDelay)
	var msgs []entity.OutboxMessage
	err := r.db.Write(ctx).
		Where("status = ? AND retry_count < ?", entity.OutboxStatusFailed, maxRetryCount).
		Where("COALESCE(last_attempt_at, created_at) <= ?", cutoff).
		Order("created_at ASC").
		Limit(batchSize).
		Find(&msgs).Error
	if err != nil {
		return nil, err
	}
	return msgs, nil
}

// ClaimMessage is the cross-instance safety primitive: a conditional
// single-row transition that succeeds for exactly one caller.
func (r *OutboxRepository) ClaimMessage(ctx context.Context, id int64) (bool, error) {
	res := r.db.Write(ctx).
		Model(&entity.OutboxMessage{}).
		Where("id = ? AND status IN ?", id, []entity.OutboxStatus{entity.OutboxStatusPending, entity.OutboxStatusFailed}).
		Updates(map[string]any{
			"status":          entity.OutboxStatusProcessing,
			"last_attempt_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *OutboxRepository) MarkProcessed(ctx context.Context, id int64) error {
	return r.db.Write(ctx).
		Model(&entity.OutboxMessage{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":       entity.OutboxStatusCompleted,
			"processed_at": time.Now().UTC(),
		}).Error
}

func (r *OutboxRepository) MarkFailed(ctx context.Context, id int64, errMsg string) error {
	return r.db.Write(ctx).
		Model(&entity.OutboxMessage{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":          entity.OutboxStatusFailed,
			"retry_count":     gorm.Expr("retry_count + 1"),
			"error_message":   errMsg,
			"last_attempt_at": time.Now().UTC(),
		}).Error
}

// MarkFailedPermanent pins retry_count at the retry ceiling so the message is
// terminal without burning the remaining attempts.
func (r *OutboxRepository) MarkFailedPermanent(ctx context.Context, id int64, errMsg string, maxRetryCount int) error {
	return r.db.Write(ctx).
		Model(&entity.OutboxMessage{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":          entity.OutboxStatusFailed,
			"retry_count":     maxRetryCount,
			"error_message":   errMsg,
			"last_attempt_at": time.Now().UTC(),
		}).Error
}

// ReclaimStale returns processing messages older than the staleness threshold
// to pending. Claims orphaned by a crashed worker become claimable again.
func (r *OutboxRepository) ReclaimStale(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-olderThan)
	res := r.db.Write(ctx).
		Model(&entity.OutboxMessage{}).
		Where("status = ? AND COALESCE(last_attempt_at, created_at) < ?", entity.OutboxStatusProcessing, cutoff).
		Update("status", entity.OutboxStatusPending)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
