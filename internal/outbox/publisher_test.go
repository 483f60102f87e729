package outbox_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/dhanasekaranr/screensync/internal/domain/entity"
	"github.com/dhanasekaranr/screensync/internal/outbox"
)

func TestPublisherAppendsPendingSnapshot(t *testing.T) {
	repo := newFakeOutboxRepo()
	pub := outbox.NewPublisher(repo)

	screen := entity.ScreenDefinition{ID: 11, Name: "dashboard", Route: "/dashboard", IsActive: true}
	err := pub.Publish(context.Background(), outbox.Intent{
		EntityType:    outbox.EntityTypeScreenDefinition,
		EntityID:      screen.ID,
		Operation:     entity.OperationInsert,
		Payload:       screen,
		CorrelationID: "req-1",
	})
	if err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	pending, _ := repo.GetPendingMessages(context.Background(), 10)
	if len(pending) != 1 {
		t.Fatalf("expected one pending message, got %d", len(pending))
	}
	msg := pending[0]
	if msg.Status != entity.OutboxStatusPending {
		t.Fatalf("expected pending status, got %s", msg.Status)
	}
	if msg.TargetDB != "secondary" || msg.SourceDB != "primary" {
		t.Fatalf("unexpected routing %s -> %s", msg.SourceDB, msg.TargetDB)
	}
	if msg.CorrelationID != "req-1" {
		t.Fatalf("expected correlation id carried, got %q", msg.CorrelationID)
	}

	var decoded entity.ScreenDefinition
	if err := json.Unmarshal(msg.Payload, &decoded); err != nil {
		t.Fatalf("payload not valid JSON: %v", err)
	}
	if decoded.ID != screen.ID || decoded.Name != screen.Name {
		t.Fatalf("payload snapshot mismatch: %+v", decoded)
	}
}

func TestPublisherRejectsInvalidIntents(t *testing.T) {
	pub := outbox.NewPublisher(newFakeOutboxRepo())

	cases := map[string]outbox.Intent{
		"missing entity type": {EntityID: 1, Operation: entity.OperationInsert},
		"missing entity id":   {EntityType: outbox.EntityTypeScreenDefinition, Operation: entity.OperationInsert},
		"unknown operation":   {EntityType: outbox.EntityTypeScreenDefinition, EntityID: 1, Operation: "upsert"},
	}
	for name, intent := range cases {
		if err := pub.Publish(context.Background(), intent); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
}

func TestPublisherBatch(t *testing.T) {
	repo := newFakeOutboxRepo()
	pub := outbox.NewPublisher(repo)

	intents := []outbox.Intent{
		{EntityType: outbox.EntityTypeScreenDefinition, EntityID: 1, Operation: entity.OperationInsert, Payload: entity.ScreenDefinition{ID: 1}},
		{EntityType: outbox.EntityTypeMenuItem, EntityID: 2, Operation: entity.OperationDelete, Payload: entity.MenuItem{ID: 2}},
	}
	if err := pub.PublishBatch(context.Background(), intents); err != nil {
		t.Fatalf("publish batch failed: %v", err)
	}

	pending, _ := repo.GetPendingMessages(context.Background(), 10)
	if len(pending) != 2 {
		t.Fatalf("expected two pending messages, got %d", len(pending))
	}

	// An invalid member fails the whole batch; nothing extra is appended.
	bad := append(intents, outbox.Intent{Operation: entity.OperationInsert})
	if err := pub.PublishBatch(context.Background(), bad); err == nil {
		t.Fatal("expected batch validation error")
	}
	pending, _ = repo.GetPendingMessages(context.Background(), 10)
	if len(pending) != 2 {
		t.Fatalf("expected batch rejected atomically, got %d pending", len(pending))
	}
}
