package outbox_test

import (
	"context"
	"testing"

	"github.com/dhanasekaranr/screensync/internal/domain/entity"
	"github.com/dhanasekaranr/screensync/internal/outbox"
)

type fakeMenuItemStore struct {
	rows    map[int64]entity.MenuItem
	inserts int
}

func newFakeMenuItemStore() *fakeMenuItemStore {
	return &fakeMenuItemStore{rows: make(map[int64]entity.MenuItem)}
}

func (s *fakeMenuItemStore) Get(ctx context.Context, target string, id int64) (entity.MenuItem, bool, error) {
	row, ok := s.rows[id]
	return row, ok, nil
}

func (s *fakeMenuItemStore) Insert(ctx context.Context, target string, item entity.MenuItem) error {
	s.inserts++
	s.rows[item.ID] = item
	return nil
}

func (s *fakeMenuItemStore) Update(ctx context.Context, target string, item entity.MenuItem) error {
	s.rows[item.ID] = item
	return nil
}

func (s *fakeMenuItemStore) Deactivate(ctx context.Context, target string, id int64) (bool, error) {
	row, ok := s.rows[id]
	if !ok || !row.IsActive {
		return false, nil
	}
	row.IsActive = false
	s.rows[id] = row
	return true, nil
}

func TestMenuItemHandlerInsertIsIdempotent(t *testing.T) {
	store := newFakeMenuItemStore()
	h := outbox.NewMenuItemHandler(store)

	payload := []byte(`{"ID":3,"ScreenID":5,"Label":"Settings","IsActive":true}`)
	for i := 0; i < 2; i++ {
		if err := h.Insert(context.Background(), "secondary", payload); err != nil {
			t.Fatalf("insert %d failed: %v", i, err)
		}
	}
	if store.inserts != 1 {
		t.Fatalf("expected one physical insert, got %d", store.inserts)
	}
}

func TestMenuItemHandlerDeleteAbsentRowIsNoOp(t *testing.T) {
	h := outbox.NewMenuItemHandler(newFakeMenuItemStore())

	if err := h.Delete(context.Background(), "secondary", []byte(`{"ID":3}`)); err != nil {
		t.Fatalf("delete of absent row must not fail: %v", err)
	}
}

func TestMenuItemHandlerRejectsBadPayloadPermanently(t *testing.T) {
	h := outbox.NewMenuItemHandler(newFakeMenuItemStore())

	if err := h.Update(context.Background(), "secondary", []byte(`not json`)); !outbox.IsPermanent(err) {
		t.Fatalf("expected permanent error, got %v", err)
	}
}
