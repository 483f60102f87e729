package outbox

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/dhanasekaranr/screensync/internal/domain/entity"
	"github.com/dhanasekaranr/screensync/internal/domain/repository"
	"gorm.io/datatypes"
)

// Intent describes one replication action before it is persisted. Payload is
// marshaled to JSON and stored as the snapshot of the entity at commit time.
type Intent struct {
	EntityType    string
	EntityID      int64
	Operation     entity.Operation
	Payload       any
	TargetDB      string
	CorrelationID string
}

func (i Intent) validate() error {
	if i.EntityType == "" {
		return errors.New("outbox: entity type is required")
	}
	if i.EntityID == 0 {
		return errors.New("outbox: entity id is required")
	}
	switch i.Operation {
	case entity.OperationInsert, entity.OperationUpdate, entity.OperationDelete:
	default:
		return errors.New("outbox: unknown operation")
	}
	return nil
}

// Publisher appends replication intents to the message store. It never opens
// a transaction of its own: callers must invoke it with a context carrying
// the same unit of work as the business write, so either both the entity row
// and the intent persist, or neither does.
type Publisher struct {
	repo repository.OutboxRepository
}

func NewPublisher(repo repository.OutboxRepository) *Publisher {
	return &Publisher{repo: repo}
}

func (p *Publisher) Publish(ctx context.Context, intent Intent) error {
	msg, err := p.build(intent)
	if err != nil {
		return err
	}
	return p.repo.Append(ctx, msg)
}

func (p *Publisher) PublishBatch(ctx context.Context, intents []Intent) error {
	if len(intents) == 0 {
		return nil
	}
	msgs := make([]*entity.OutboxMessage, 0, len(intents))
	for _, intent := range intents {
		msg, err := p.build(intent)
		if err != nil {
			return err
		}
		msgs = append(msgs, msg)
	}
	return p.repo.AppendBatch(ctx, msgs)
}

func (p *Publisher) build(intent Intent) (*entity.OutboxMessage, error) {
	if err := intent.validate(); err != nil {
		return nil, err
	}
	data, err := json.Marshal(intent.Payload)
	if err != nil {
		return nil, err
	}
	target := intent.TargetDB
	if target == "" {
		target = "secondary"
	}
	return &entity.OutboxMessage{
		EntityType:    intent.EntityType,
		EntityID:      intent.EntityID,
		Operation:     intent.Operation,
		Payload:       datatypes.JSON(data),
		Status:        entity.OutboxStatusPending,
		SourceDB:      "primary",
		TargetDB:      target,
		CorrelationID: intent.CorrelationID,
	}, nil
}
