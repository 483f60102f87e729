package entity

import (
	"time"

	"gorm.io/datatypes"
)

// AuditLog records replication lifecycle events consumed from the
// notification stream, for operator inspection.
type AuditLog struct {
	ID            int64          `gorm:"primaryKey;autoIncrement"`
	Subject       string         `gorm:"not null"`
	Payload       datatypes.JSON `gorm:"type:jsonb;not null"`
	CorrelationID string         `gorm:""`
	CreatedAt     time.Time      `gorm:"not null"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}
