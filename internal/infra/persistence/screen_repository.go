package persistence

import (
	"context"
	"errors"

	"github.com/dhanasekaranr/screensync/internal/domain/entity"
	"github.com/dhanasekaranr/screensync/internal/domain/repository"
	"github.com/dhanasekaranr/screensync/internal/infra/pagination"
	"github.com/dhanasekaranr/screensync/internal/outbox"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ScreenRepository persists screen definitions on the primary and appends a
// replication intent in the same transaction as every mutation.
type ScreenRepository struct {
	db        *DB
	publisher *outbox.Publisher
}

var _ repository.ScreenRepository = (*ScreenRepository)(nil)

func NewScreenRepository(db *DB, publisher *outbox.Publisher) *ScreenRepository {
	return &ScreenRepository{db: db, publisher: publisher}
}

func (r *ScreenRepository) Create(ctx context.Context, screen entity.ScreenDefinition) (entity.ScreenDefinition, error) {
	var created entity.ScreenDefinition
	err := r.db.WithTx(ctx, func(txCtx context.Context) error {
		saved, err := r.createWithIntent(txCtx, screen)
		if err != nil {
			return err
		}
		created = saved
		return nil
	})
	if err != nil {
		return entity.ScreenDefinition{}, err
	}
	return created, nil
}

func (r *ScreenRepository) CreateIdempotent(ctx context.Context, screen entity.ScreenDefinition, key, requestHash string) (entity.ScreenDefinition, bool, error) {
	var (
		created      entity.ScreenDefinition
		alreadyExist bool
	)
	err := r.db.WithTx(ctx, func(txCtx context.Context) error {
		var existing entity.IdempotencyKey
		if err := r.db.Write(txCtx).First(&existing, "key = ?", key).Error; err == nil {
			if existing.RequestHash != requestHash {
				return repository.ErrIdempotencyKeyConflict
			}
			fetched, err := r.GetByID(txCtx, existing.ScreenID)
			if err != nil {
				return err
			}
			created = fetched
			alreadyExist = true
			return nil
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		saved, err := r.createWithIntent(txCtx, screen)
		if err != nil {
			return err
		}
		created = saved

		keyRow := entity.IdempotencyKey{
			Key:         key,
			RequestHash: requestHash,
			ScreenID:    created.ID,
		}
		if err := r.db.Write(txCtx).Create(&keyRow).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				var existing entity.IdempotencyKey
				if err := r.db.Write(txCtx).First(&existing, "key = ?", key).Error; err != nil {
					return err
				}
				if existing.RequestHash != requestHash {
					return repository.ErrIdempotencyKeyConflict
				}
				fetched, err := r.GetByID(txCtx, existing.ScreenID)
				if err != nil {
					return err
				}
				created = fetched
				alreadyExist = true
				return nil
			}
			return err
		}
		return nil
	})
	if err != nil {
		return entity.ScreenDefinition{}, false, err
	}
	return created, alreadyExist, nil
}

// createWithIntent writes the row and its outbox intent inside the caller's
// transaction: both persist or neither does.
func (r *ScreenRepository) createWithIntent(ctx context.Context, screen entity.ScreenDefinition) (entity.ScreenDefinition, error) {
	screen.IsActive = true
	if err := r.db.Write(ctx).Create(&screen).Error; err != nil {
		return entity.ScreenDefinition{}, err
	}
	err := r.publisher.Publish(ctx, outbox.Intent{
		EntityType:    outbox.EntityTypeScreenDefinition,
		EntityID:      screen.ID,
		Operation:     entity.OperationInsert,
		Payload:       screen,
		CorrelationID: uuid.NewString(),
	})
	if err != nil {
		return entity.ScreenDefinition{}, err
	}
	return screen, nil
}

func (r *ScreenRepository) GetByID(ctx context.Context, id int64) (entity.ScreenDefinition, error) {
	var screen entity.ScreenDefinition
	if err := r.db.Read(ctx).First(&screen, "id = ?", id).Error; err != nil {
		return entity.ScreenDefinition{}, err
	}
	return screen, nil
}

func (r *ScreenRepository) Update(ctx context.Context, id int64, screen entity.ScreenDefinition) (entity.ScreenDefinition, error) {
	var updated entity.ScreenDefinition
	err := r.db.WithTx(ctx, func(txCtx context.Context) error {
		if err := r.db.Write(txCtx).
			Model(&entity.ScreenDefinition{}).
			Where("id = ?", id).
			Updates(map[string]any{
				"name":          screen.Name,
				"route":         screen.Route,
				"layout":        screen.Layout,
				"display_order": screen.DisplayOrder,
			}).Error; err != nil {
			return err
		}
		var fetched entity.ScreenDefinition
		if err := r.db.Write(txCtx).First(&fetched, "id = ?", id).Error; err != nil {
			return err
		}
		updated = fetched
		return r.publisher.Publish(txCtx, outbox.Intent{
			EntityType:    outbox.EntityTypeScreenDefinition,
			EntityID:      updated.ID,
			Operation:     entity.OperationUpdate,
			Payload:       updated,
			CorrelationID: uuid.NewString(),
		})
	})
	if err != nil {
		return entity.ScreenDefinition{}, err
	}
	return updated, nil
}

func (r *ScreenRepository) DeleteByID(ctx context.Context, id int64) error {
	return r.db.WithTx(ctx, func(txCtx context.Context) error {
		var screen entity.ScreenDefinition
		if err := r.db.Write(txCtx).First(&screen, "id = ?", id).Error; err != nil {
			return err
		}
		if err := r.db.Write(txCtx).
			Model(&entity.ScreenDefinition{}).
			Where("id = ?", id).
			Update("is_active", false).Error; err != nil {
			return err
		}
		screen.IsActive = false
		return r.publisher.Publish(txCtx, outbox.Intent{
			EntityType:    outbox.EntityTypeScreenDefinition,
			EntityID:      screen.ID,
			Operation:     entity.OperationDelete,
			Payload:       screen,
			CorrelationID: uuid.NewString(),
		})
	})
}

func (r *ScreenRepository) ListCursor(ctx context.Context, limit int, cursor string) ([]entity.ScreenDefinition, error) {
	var screens []entity.ScreenDefinition
	if limit <= 0 {
		limit = 50
	}

	query := r.db.Read(ctx).
		Where("is_active").
		Limit(limit).
		Order("created_at DESC").
		Order("id DESC")

	if cursor != "" {
		cursorTime, cursorID, err := pagination.Decode(cursor)
		if err != nil {
			if errors.Is(err, pagination.ErrInvalidCursor) {
				return nil, repository.ErrInvalidCursor
			}
			return nil, err
		}
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursorTime, cursorTime, cursorID)
	}

	if err := query.Find(&screens).Error; err != nil {
		return nil, err
	}
	return screens, nil
}
