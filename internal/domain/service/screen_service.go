package service

import (
	"context"

	"github.com/dhanasekaranr/screensync/internal/domain/entity"
)

type ScreenService interface {
	Create(ctx context.Context, screen entity.ScreenDefinition, idempotencyKey, requestHash string) (entity.ScreenDefinition, bool, error)
	GetByID(ctx context.Context, id int64) (entity.ScreenDefinition, error)
	Update(ctx context.Context, id int64, screen entity.ScreenDefinition) (entity.ScreenDefinition, error)
	DeleteByID(ctx context.Context, id int64) error
	List(ctx context.Context, limit int, cursor string) ([]entity.ScreenDefinition, string, error)
}

type MenuItemService interface {
	Create(ctx context.Context, item entity.MenuItem) (entity.MenuItem, error)
	GetByID(ctx context.Context, id int64) (entity.MenuItem, error)
	Update(ctx context.Context, id int64, item entity.MenuItem) (entity.MenuItem, error)
	DeleteByID(ctx context.Context, id int64) error
	ListByScreen(ctx context.Context, screenID int64) ([]entity.MenuItem, error)
}
