package entity

import (
	"time"

	"gorm.io/datatypes"
)

type Operation string

const (
	OperationInsert Operation = "insert"
	OperationUpdate Operation = "update"
	OperationDelete Operation = "delete"
)

type OutboxStatus string

const (
	OutboxStatusPending    OutboxStatus = "pending"
	OutboxStatusProcessing OutboxStatus = "processing"
	OutboxStatusCompleted  OutboxStatus = "completed"
	OutboxStatusFailed     OutboxStatus = "failed"
)

// OutboxMessage is a durable replication intent, appended in the same
// transaction as the business write it mirrors. Only status, retry_count,
// error_message, last_attempt_at and processed_at mutate after creation.
type OutboxMessage struct {
	ID            int64          `gorm:"primaryKey;autoIncrement"`
	EntityType    string         `gorm:"not null;index:idx_outbox_entity,priority:1"`
	EntityID      int64          `gorm:"not null;index:idx_outbox_entity,priority:2"`
	Operation     Operation      `gorm:"not null"`
	Payload       datatypes.JSON `gorm:"type:jsonb;not null"`
	Status        OutboxStatus   `gorm:"not null;default:pending;index:idx_outbox_status,priority:1"`
	RetryCount    int            `gorm:"not null;default:0"`
	ErrorMessage  string         `gorm:""`
	SourceDB      string         `gorm:"not null;default:primary"`
	TargetDB      string         `gorm:"not null;default:secondary"`
	CorrelationID string         `gorm:""`
	CreatedAt     time.Time      `gorm:"not null;index:idx_outbox_status,priority:2"`
	LastAttemptAt *time.Time     `gorm:""`
	ProcessedAt   *time.Time     `gorm:""`
}

func (OutboxMessage) TableName() string {
	return "outbox_messages"
}

// Terminal reports whether no further automatic processing will occur.
func (m OutboxMessage) Terminal(maxRetryCount int) bool {
	switch m.Status {
	case OutboxStatusCompleted:
		return true
	case OutboxStatusFailed:
		return m.RetryCount >= maxRetryCount
	default:
		return false
	}
}

// RetryEligible reports whether a failed message may be re-claimed: it must
// still have retries left and the retry delay must have elapsed since the
// last attempt.
func (m OutboxMessage) RetryEligible(maxRetryCount int, retryDelay time.Duration, now time.Time) bool {
	if m.Status != OutboxStatusFailed || m.RetryCount >= maxRetryCount {
		return false
	}
	since := m.CreatedAt
	if m.LastAttemptAt != nil {
		since = *m.LastAttemptAt
	}
	return !now.Before(since.Add(retryDelay))
}
