package persistence

import (
	"context"
	"time"

	"github.com/dhanasekaranr/screensync/internal/domain/entity"
	"gorm.io/datatypes"
)

type AuditLogRepository struct {
	db *DB
}

func NewAuditLogRepository(db *DB) *AuditLogRepository {
	return &AuditLogRepository{db: db}
}

func (r *AuditLogRepository) Create(ctx context.Context, subject, correlationID string, payload []byte) error {
	log := entity.AuditLog{
		Subject:       subject,
		Payload:       datatypes.JSON(payload),
		CorrelationID: correlationID,
		CreatedAt:     time.Now().UTC(),
	}
	return r.db.Write(ctx).Create(&log).Error
}
