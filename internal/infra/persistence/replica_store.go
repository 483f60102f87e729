package persistence

import (
	"context"
	"errors"

	"github.com/dhanasekaranr/screensync/internal/domain/entity"
	"github.com/dhanasekaranr/screensync/internal/outbox"
	"gorm.io/gorm"
)

// ScreenReplicaStore applies screen snapshots against the router-resolved
// target database.
type ScreenReplicaStore struct {
	router *Router
}

var _ outbox.ScreenReplicaStore = (*ScreenReplicaStore)(nil)

func NewScreenReplicaStore(router *Router) *ScreenReplicaStore {
	return &ScreenReplicaStore{router: router}
}

func (s *ScreenReplicaStore) Get(ctx context.Context, target string, id int64) (entity.ScreenDefinition, bool, error) {
	var screen entity.ScreenDefinition
	err := s.router.Resolve(target).WithContext(ctx).First(&screen, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return entity.ScreenDefinition{}, false, nil
	}
	if err != nil {
		return entity.ScreenDefinition{}, false, err
	}
	return screen, true, nil
}

func (s *ScreenReplicaStore) Insert(ctx context.Context, target string, screen entity.ScreenDefinition) error {
	return s.router.Resolve(target).WithContext(ctx).Create(&screen).Error
}

func (s *ScreenReplicaStore) Update(ctx context.Context, target string, screen entity.ScreenDefinition) error {
	return s.router.Resolve(target).WithContext(ctx).
		Model(&entity.ScreenDefinition{}).
		Where("id = ?", screen.ID).
		Updates(map[string]any{
			"name":          screen.Name,
			"route":         screen.Route,
			"layout":        screen.Layout,
			"display_order": screen.DisplayOrder,
			"is_active":     screen.IsActive,
			"updated_at":    screen.UpdatedAt,
		}).Error
}

func (s *ScreenReplicaStore) Deactivate(ctx context.Context, target string, id int64) (bool, error) {
	res := s.router.Resolve(target).WithContext(ctx).
		Model(&entity.ScreenDefinition{}).
		Where("id = ? AND is_active", id).
		Update("is_active", false)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// MenuItemReplicaStore is the menu item counterpart of ScreenReplicaStore.
type MenuItemReplicaStore struct {
	router *Router
}

var _ outbox.MenuItemReplicaStore = (*MenuItemReplicaStore)(nil)

func NewMenuItemReplicaStore(router *Router) *MenuItemReplicaStore {
	return &MenuItemReplicaStore{router: router}
}

func (s *MenuItemReplicaStore) Get(ctx context.Context, target string, id int64) (entity.MenuItem, bool, error) {
	var item entity.MenuItem
	err := s.router.Resolve(target).WithContext(ctx).First(&item, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return entity.MenuItem{}, false, nil
	}
	if err != nil {
		return entity.MenuItem{}, false, err
	}
	return item, true, nil
}

func (s *MenuItemReplicaStore) Insert(ctx context.Context, target string, item entity.MenuItem) error {
	return s.router.Resolve(target).WithContext(ctx).Create(&item).Error
}

func (s *MenuItemReplicaStore) Update(ctx context.Context, target string, item entity.MenuItem) error {
	return s.router.Resolve(target).WithContext(ctx).
		Model(&entity.MenuItem{}).
		Where("id = ?", item.ID).
		Updates(map[string]any{
			"screen_id":  item.ScreenID,
			"label":      item.Label,
			"icon":       item.Icon,
			"position":   item.Position,
			"is_active":  item.IsActive,
			"updated_at": item.UpdatedAt,
		}).Error
}

func (s *MenuItemReplicaStore) Deactivate(ctx context.Context, target string, id int64) (bool, error) {
	res := s.router.Resolve(target).WithContext(ctx).
		Model(&entity.MenuItem{}).
		Where("id = ? AND is_active", id).
		Update("is_active", false)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
