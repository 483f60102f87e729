package persistence

import (
	"context"

	"github.com/dhanasekaranr/screensync/internal/domain/entity"
	"github.com/dhanasekaranr/screensync/internal/domain/repository"
	"github.com/dhanasekaranr/screensync/internal/outbox"
	"github.com/google/uuid"
)

type MenuItemRepository struct {
	db        *DB
	publisher *outbox.Publisher
}

var _ repository.MenuItemRepository = (*MenuItemRepository)(nil)

func NewMenuItemRepository(db *DB, publisher *outbox.Publisher) *MenuItemRepository {
	return &MenuItemRepository{db: db, publisher: publisher}
}

func (r *MenuItemRepository) Create(ctx context.Context, item entity.MenuItem) (entity.MenuItem, error) {
	var created entity.MenuItem
	err := r.db.WithTx(ctx, func(txCtx context.Context) error {
		item.IsActive = true
		if err := r.db.Write(txCtx).Create(&item).Error; err != nil {
			return err
		}
		created = item
		return r.publisher.Publish(txCtx, outbox.Intent{
			EntityType:    outbox.EntityTypeMenuItem,
			EntityID:      created.ID,
			Operation:     entity.OperationInsert,
			Payload:       created,
			CorrelationID: uuid.NewString(),
		})
	})
	if err != nil {
		return entity.MenuItem{}, err
	}
	return created, nil
}

func (r *MenuItemRepository) GetByID(ctx context.Context, id int64) (entity.MenuItem, error) {
	var item entity.MenuItem
	if err := r.db.Read(ctx).First(&item, "id = ?", id).Error; err != nil {
		return entity.MenuItem{}, err
	}
	return item, nil
}

func (r *MenuItemRepository) Update(ctx context.Context, id int64, item entity.MenuItem) (entity.MenuItem, error) {
	var updated entity.MenuItem
	err := r.db.WithTx(ctx, func(txCtx context.Context) error {
		if err := r.db.Write(txCtx).
			Model(&entity.MenuItem{}).
			Where("id = ?", id).
			Updates(map[string]any{
				"screen_id": item.ScreenID,
				"label":     item.Label,
				"icon":      item.Icon,
				"position":  item.Position,
			}).Error; err != nil {
			return err
		}
		var fetched entity.MenuItem
		if err := r.db.Write(txCtx).First(&fetched, "id = ?", id).Error; err != nil {
			return err
		}
		updated = fetched
		return r.publisher.Publish(txCtx, outbox.Intent{
			EntityType:    outbox.EntityTypeMenuItem,
			EntityID:      updated.ID,
			Operation:     entity.OperationUpdate,
			Payload:       updated,
			CorrelationID: uuid.NewString(),
		})
	})
	if err != nil {
		return entity.MenuItem{}, err
	}
	return updated, nil
}

func (r *MenuItemRepository) DeleteByID(ctx context.Context, id int64) error {
	return r.db.WithTx(ctx, func(txCtx context.Context) error {
		var item entity.MenuItem
		if err := r.db.Write(txCtx).First(&item, "id = ?", id).Error; err != nil {
			return err
		}
		if err := r.db.Write(txCtx).
			Model(&entity.MenuItem{}).
			Where("id = ?", id).
			Update("is_active", false).Error; err != nil {
			return err
		}
		item.IsActive = false
		return r.publisher.Publish(txCtx, outbox.Intent{
			EntityType:    outbox.EntityTypeMenuItem,
			EntityID:      item.ID,
			Operation:     entity.OperationDelete,
			Payload:       item,
			CorrelationID: uuid.NewString(),
		})
	})
}

func (r *MenuItemRepository) ListByScreen(ctx context.Context, screenID int64) ([]entity.MenuItem, error) {
	var items []entity.MenuItem
	err := r.db.Read(ctx).
		Where("screen_id = ? AND is_active", screenID).
		Order("position ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
