package outbox

import (
	"context"
	"encoding/json"

	"github.com/dhanasekaranr/screensync/internal/domain/entity"
)

// EntityTypeMenuItem is the dispatch tag carried by menu item messages.
const EntityTypeMenuItem = "MenuItem"

type MenuItemReplicaStore interface {
	Get(ctx context.Context, target string, id int64) (entity.MenuItem, bool, error)
	Insert(ctx context.Context, target string, item entity.MenuItem) error
	Update(ctx context.Context, target string, item entity.MenuItem) error
	Deactivate(ctx context.Context, target string, id int64) (bool, error)
}

type MenuItemHandler struct {
	store MenuItemReplicaStore
}

func NewMenuItemHandler(store MenuItemReplicaStore) *MenuItemHandler {
	return &MenuItemHandler{store: store}
}

var _ EntityHandler = (*MenuItemHandler)(nil)

func (h *MenuItemHandler) decode(payload []byte) (entity.MenuItem, error) {
	var item entity.MenuItem
	if err := json.Unmarshal(payload, &item); err != nil {
		return entity.MenuItem{}, permanentf("menu item payload: %v", err)
	}
	if item.ID == 0 {
		return entity.MenuItem{}, permanentf("menu item payload: missing id")
	}
	return item, nil
}

func (h *MenuItemHandler) Insert(ctx context.Context, target string, payload []byte) error {
	item, err := h.decode(payload)
	if err != nil {
		return err
	}
	_, found, err := h.store.Get(ctx, target, item.ID)
	if err != nil {
		return err
	}
	if found {
		return nil
	}
	return h.store.Insert(ctx, target, item)
}

func (h *MenuItemHandler) Update(ctx context.Context, target string, payload []byte) error {
	item, err := h.decode(payload)
	if err != nil {
		return err
	}
	_, found, err := h.store.Get(ctx, target, item.ID)
	if err != nil {
		return err
	}
	if !found {
		return h.store.Insert(ctx, target, item)
	}
	return h.store.Update(ctx, target, item)
}

func (h *MenuItemHandler) Delete(ctx context.Context, target string, payload []byte) error {
	item, err := h.decode(payload)
	if err != nil {
		return err
	}
	_, err = h.store.Deactivate(ctx, target, item.ID)
	return err
}
