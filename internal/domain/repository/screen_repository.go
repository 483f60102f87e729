package repository

import (
	"context"

	"github.com/dhanasekaranr/screensync/internal/domain/entity"
)

type ScreenRepository interface {
	Create(ctx context.Context, screen entity.ScreenDefinition) (entity.ScreenDefinition, error)
	CreateIdempotent(ctx context.Context, screen entity.ScreenDefinition, key, requestHash string) (entity.ScreenDefinition, bool, error)
	GetByID(ctx context.Context, id int64) (entity.ScreenDefinition, error)
	Update(ctx context.Context, id int64, screen entity.ScreenDefinition) (entity.ScreenDefinition, error)
	DeleteByID(ctx context.Context, id int64) error
	ListCursor(ctx context.Context, limit int, cursor string) ([]entity.ScreenDefinition, error)
}

type MenuItemRepository interface {
	Create(ctx context.Context, item entity.MenuItem) (entity.MenuItem, error)
	GetByID(ctx context.Context, id int64) (entity.MenuItem, error)
	Update(ctx context.Context, id int64, item entity.MenuItem) (entity.MenuItem, error)
	DeleteByID(ctx context.Context, id int64) error
	ListByScreen(ctx context.Context, screenID int64) ([]entity.MenuItem, error)
}
