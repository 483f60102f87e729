package outbox

import (
	"context"
	"encoding/json"

	"github.com/dhanasekaranr/screensync/internal/domain/entity"
)

// EntityTypeScreenDefinition is the dispatch tag carried by screen messages.
const EntityTypeScreenDefinition = "ScreenDefinition"

// ScreenReplicaStore is the slice of the target store a screen handler needs.
type ScreenReplicaStore interface {
	Get(ctx context.Context, target string, id int64) (entity.ScreenDefinition, bool, error)
	Insert(ctx context.Context, target string, screen entity.ScreenDefinition) error
	Update(ctx context.Context, target string, screen entity.ScreenDefinition) error
	// Deactivate soft-deletes by flipping is_active. It reports whether a row
	// was touched; absence is not an error.
	Deactivate(ctx context.Context, target string, id int64) (bool, error)
}

type ScreenHandler struct {
	store ScreenReplicaStore
}

func NewScreenHandler(store ScreenReplicaStore) *ScreenHandler {
	return &ScreenHandler{store: store}
}

var _ EntityHandler = (*ScreenHandler)(nil)

func (h *ScreenHandler) decode(payload []byte) (entity.ScreenDefinition, error) {
	var screen entity.ScreenDefinition
	if err := json.Unmarshal(payload, &screen); err != nil {
		return entity.ScreenDefinition{}, permanentf("screen payload: %v", err)
	}
	if screen.ID == 0 {
		return entity.ScreenDefinition{}, permanentf("screen payload: missing id")
	}
	return screen, nil
}

// Insert creates the row unless it already exists; a second delivery of the
// same message is a no-op.
func (h *ScreenHandler) Insert(ctx context.Context, target string, payload []byte) error {
	screen, err := h.decode(payload)
	if err != nil {
		return err
	}
	_, found, err := h.store.Get(ctx, target, screen.ID)
	if err != nil {
		return err
	}
	if found {
		return nil
	}
	return h.store.Insert(ctx, target, screen)
}

// Update overwrites the row from the snapshot, creating it when the target
// row is missing. That recovers from a lost or out-of-order insert message.
func (h *ScreenHandler) Update(ctx context.Context, target string, payload []byte) error {
	screen, err := h.decode(payload)
	if err != nil {
		return err
	}
	_, found, err := h.store.Get(ctx, target, screen.ID)
	if err != nil {
		return err
	}
	if !found {
		return h.store.Insert(ctx, target, screen)
	}
	return h.store.Update(ctx, target, screen)
}

// Delete deactivates the row; an absent or already-inactive row completes as
// a no-op.
func (h *ScreenHandler) Delete(ctx context.Context, target string, payload []byte) error {
	screen, err := h.decode(payload)
	if err != nil {
		return err
	}
	_, err = h.store.Deactivate(ctx, target, screen.ID)
	return err
}
