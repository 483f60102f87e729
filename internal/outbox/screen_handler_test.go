package outbox_test

import (
	"context"
	"testing"

	"github.com/dhanasekaranr/screensync/internal/domain/entity"
	"github.com/dhanasekaranr/screensync/internal/outbox"
)

type fakeScreenStore struct {
	rows    map[int64]entity.ScreenDefinition
	inserts int
	updates int
}

func newFakeScreenStore() *fakeScreenStore {
	return &fakeScreenStore{rows: make(map[int64]entity.ScreenDefinition)}
}

func (s *fakeScreenStore) Get(ctx context.Context, target string, id int64) (entity.ScreenDefinition, bool, error) {
	row, ok := s.rows[id]
	return row, ok, nil
}

func (s *fakeScreenStore) Insert(ctx context.Context, target string, screen entity.ScreenDefinition) error {
	s.inserts++
	s.rows[screen.ID] = screen
	return nil
}

func (s *fakeScreenStore) Update(ctx context.Context, target string, screen entity.ScreenDefinition) error {
	s.updates++
	s.rows[screen.ID] = screen
	return nil
}

func (s *fakeScreenStore) Deactivate(ctx context.Context, target string, id int64) (bool, error) {
	row, ok := s.rows[id]
	if !ok || !row.IsActive {
		return false, nil
	}
	row.IsActive = false
	s.rows[id] = row
	return true, nil
}

const screenPayload = `{"ID":5,"Name":"dashboard","Route":"/dashboard","IsActive":true}`

func TestScreenHandlerInsertIsIdempotent(t *testing.T) {
	store := newFakeScreenStore()
	h := outbox.NewScreenHandler(store)

	for i := 0; i < 3; i++ {
		if err := h.Insert(context.Background(), "secondary", []byte(screenPayload)); err != nil {
			t.Fatalf("insert %d failed: %v", i, err)
		}
	}

	if store.inserts != 1 {
		t.Fatalf("expected one physical insert, got %d", store.inserts)
	}
	if len(store.rows) != 1 {
		t.Fatalf("expected one row, got %d", len(store.rows))
	}
}

func TestScreenHandlerUpdateInsertsMissingRow(t *testing.T) {
	store := newFakeScreenStore()
	h := outbox.NewScreenHandler(store)

	if err := h.Update(context.Background(), "secondary", []byte(screenPayload)); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if store.inserts != 1 || store.updates != 0 {
		t.Fatalf("expected upsert via insert, got inserts=%d updates=%d", store.inserts, store.updates)
	}

	// Once the row exists, updates go through the update path.
	if err := h.Update(context.Background(), "secondary", []byte(screenPayload)); err != nil {
		t.Fatalf("second update failed: %v", err)
	}
	if store.updates != 1 {
		t.Fatalf("expected one update, got %d", store.updates)
	}
}

func TestScreenHandlerDeleteAbsentRowIsNoOp(t *testing.T) {
	store := newFakeScreenStore()
	h := outbox.NewScreenHandler(store)

	if err := h.Delete(context.Background(), "secondary", []byte(screenPayload)); err != nil {
		t.Fatalf("delete of absent row must not fail: %v", err)
	}
}

func TestScreenHandlerDeleteDeactivates(t *testing.T) {
	store := newFakeScreenStore()
	store.rows[5] = entity.ScreenDefinition{ID: 5, Name: "dashboard", IsActive: true}
	h := outbox.NewScreenHandler(store)

	if err := h.Delete(context.Background(), "secondary", []byte(screenPayload)); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if store.rows[5].IsActive {
		t.Fatal("expected row deactivated")
	}

	// Second delivery finds it already inactive.
	if err := h.Delete(context.Background(), "secondary", []byte(screenPayload)); err != nil {
		t.Fatalf("repeated delete must not fail: %v", err)
	}
}

func TestScreenHandlerRejectsBadPayloadPermanently(t *testing.T) {
	h := outbox.NewScreenHandler(newFakeScreenStore())

	cases := map[string]string{
		"malformed":  `{"ID":`,
		"missing id": `{"Name":"dashboard"}`,
	}
	for name, payload := range cases {
		err := h.Insert(context.Background(), "secondary", []byte(payload))
		if !outbox.IsPermanent(err) {
			t.Fatalf("%s: expected permanent error, got %v", name, err)
		}
	}
}
