package usecase

import (
	"context"

	"github.com/dhanasekaranr/screensync/internal/domain/entity"
	"github.com/dhanasekaranr/screensync/internal/domain/repository"
	"github.com/dhanasekaranr/screensync/internal/domain/service"
	"github.com/sirupsen/logrus"
)

type MenuItem struct {
	repo repository.MenuItemRepository
	log  *logrus.Logger
}

var _ service.MenuItemService = (*MenuItem)(nil)

func NewMenuItem(repo repository.MenuItemRepository, log *logrus.Logger) *MenuItem {
	return &MenuItem{repo: repo, log: log}
}

func (m *MenuItem) Create(ctx context.Context, item entity.MenuItem) (entity.MenuItem, error) {
	created, err := m.repo.Create(ctx, item)
	if err != nil {
		m.log.WithError(err).Error("create menu item failed")
		return entity.MenuItem{}, err
	}
	return created, nil
}

func (m *MenuItem) GetByID(ctx context.Context, id int64) (entity.MenuItem, error) {
	item, err := m.repo.GetByID(ctx, id)
	if err != nil {
		m.log.WithError(err).Error("get menu item failed")
		return entity.MenuItem{}, err
	}
	return item, nil
}

func (m *MenuItem) Update(ctx context.Context, id int64, item entity.MenuItem) (entity.MenuItem, error) {
	updated, err := m.repo.Update(ctx, id, item)
	if err != nil {
		m.log.WithError(err).Error("update menu item failed")
		return entity.MenuItem{}, err
	}
	return updated, nil
}

func (m *MenuItem) DeleteByID(ctx context.Context, id int64) error {
	if err := m.repo.DeleteByID(ctx, id); err != nil {
		m.log.WithError(err).Error("delete menu item failed")
		return err
	}
	return nil
}

func (m *MenuItem) ListByScreen(ctx context.Context, screenID int64) ([]entity.MenuItem, error) {
	items, err := m.repo.ListByScreen(ctx, screenID)
	if err != nil {
		m.log.WithError(err).Error("list menu items failed")
		return nil, err
	}
	return items, nil
}
