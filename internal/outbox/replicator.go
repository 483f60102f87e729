package outbox

import (
	"context"
	"fmt"

	"github.com/dhanasekaranr/screensync/internal/domain/entity"
	"github.com/sirupsen/logrus"
)

// EntityHandler applies one replication operation for a single entity type
// against the target store. Every method must be idempotent: applying the
// same message once or many times produces the same end state.
type EntityHandler interface {
	Insert(ctx context.Context, target string, payload []byte) error
	Update(ctx context.Context, target string, payload []byte) error
	Delete(ctx context.Context, target string, payload []byte) error
}

// Replicator dispatches outbox messages to the handler registered for their
// entity type. New entity types are added by registering a handler, not by
// editing a switch.
type Replicator struct {
	handlers map[string]EntityHandler
	log      *logrus.Logger
}

func NewReplicator(log *logrus.Logger) *Replicator {
	return &Replicator{
		handlers: make(map[string]EntityHandler),
		log:      log,
	}
}

func (r *Replicator) Register(entityType string, handler EntityHandler) {
	r.handlers[entityType] = handler
}

// Replicate applies one message. Unknown entity types and operations are
// permanent failures: no retry makes them applicable.
func (r *Replicator) Replicate(ctx context.Context, msg entity.OutboxMessage) error {
	handler, ok := r.handlers[msg.EntityType]
	if !ok {
		return permanentf("no handler registered for entity type %q", msg.EntityType)
	}

	var err error
	switch msg.Operation {
	case entity.OperationInsert:
		err = handler.Insert(ctx, msg.TargetDB, msg.Payload)
	case entity.OperationUpdate:
		err = handler.Update(ctx, msg.TargetDB, msg.Payload)
	case entity.OperationDelete:
		err = handler.Delete(ctx, msg.TargetDB, msg.Payload)
	default:
		return permanentf("unknown operation %q", msg.Operation)
	}
	if err != nil {
		return fmt.Errorf("replicate %s/%d %s: %w", msg.EntityType, msg.EntityID, msg.Operation, err)
	}

	r.log.WithFields(logrus.Fields{
		"entity_type": msg.EntityType,
		"entity_id":   msg.EntityID,
		"operation":   msg.Operation,
		"target_db":   msg.TargetDB,
	}).Debug("replicator: applied")
	return nil
}
