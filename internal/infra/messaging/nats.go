package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dhanasekaranr/screensync/internal/config"
	"github.com/dhanasekaranr/screensync/internal/domain/entity"
	"github.com/dhanasekaranr/screensync/internal/outbox"
	"github.com/nats-io/nats.go"
)

// NATSClient publishes replication lifecycle events to JetStream. NewNATS
// returns (nil, nil) when no URL is configured; a nil client is a valid
// no-op notifier slot for the processor.
type NATSClient struct {
	conn *nats.Conn
	js   nats.JetStreamContext
	cfg  config.NATS
}

var _ outbox.Notifier = (*NATSClient)(nil)

func NewNATS(ctx context.Context, cfg config.NATS) (*NATSClient, error) {
	if cfg.URL == "" {
		return nil, nil
	}
	if cfg.Stream == "" || cfg.AppliedSubject == "" {
		return nil, errors.New("nats: stream and applied_subject are required")
	}

	conn, err := nats.Connect(cfg.URL, nats.Name("screensync"))
	if err != nil {
		return nil, err
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, err
	}

	if err := ensureStream(ctx, js, cfg); err != nil {
		conn.Close()
		return nil, err
	}

	return &NATSClient{conn: conn, js: js, cfg: cfg}, nil
}

func (c *NATSClient) Close() {
	if c == nil || c.conn == nil {
		return
	}
	c.conn.Close()
}

func (c *NATSClient) JetStream() nats.JetStreamContext {
	if c == nil {
		return nil
	}
	return c.js
}

// ReplicationEvent is the wire shape of a replication outcome notification.
type ReplicationEvent struct {
	MessageID     int64            `json:"message_id"`
	EntityType    string           `json:"entity_type"`
	EntityID      int64            `json:"entity_id"`
	Operation     entity.Operation `json:"operation"`
	TargetDB      string           `json:"target_db"`
	CorrelationID string           `json:"correlation_id,omitempty"`
	Error         string           `json:"error,omitempty"`
	OccurredAt    time.Time        `json:"occurred_at"`
}

func (c *NATSClient) ReplicationApplied(ctx context.Context, msg entity.OutboxMessage) error {
	return c.publishEvent(ctx, c.cfg.AppliedSubject, msg, "")
}

func (c *NATSClient) ReplicationFailed(ctx context.Context, msg entity.OutboxMessage, errMsg string) error {
	if c.cfg.FailedSubject == "" {
		return nil
	}
	return c.publishEvent(ctx, c.cfg.FailedSubject, msg, errMsg)
}

func (c *NATSClient) publishEvent(ctx context.Context, subject string, msg entity.OutboxMessage, errMsg string) error {
	if c == nil {
		return nil
	}
	event := ReplicationEvent{
		MessageID:     msg.ID,
		EntityType:    msg.EntityType,
		EntityID:      msg.EntityID,
		Operation:     msg.Operation,
		TargetDB:      msg.TargetDB,
		CorrelationID: msg.CorrelationID,
		Error:         errMsg,
		OccurredAt:    time.Now().UTC(),
	}
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	// Message id makes redelivered publishes deduplicate inside the stream.
	return c.Publish(ctx, subject, data, fmt.Sprintf("outbox-%d-%d", msg.ID, msg.RetryCount))
}

func (c *NATSClient) Publish(ctx context.Context, subject string, payload []byte, msgID string) error {
	if c == nil {
		return nil
	}
	if c.js == nil {
		return errors.New("nats: jetstream not initialized")
	}
	msg := nats.NewMsg(subject)
	msg.Data = payload
	if msgID != "" {
		msg.Header.Set(nats.MsgIdHdr, msgID)
	}
	_, err := c.js.PublishMsg(msg, nats.Context(ctx))
	return err
}

func ensureStream(ctx context.Context, js nats.JetStreamContext, cfg config.NATS) error {
	subjects := []string{cfg.AppliedSubject}
	if cfg.FailedSubject != "" {
		subjects = append(subjects, cfg.FailedSubject)
	}
	if cfg.DLQSubject != "" {
		subjects = append(subjects, cfg.DLQSubject)
	}

	info, err := js.StreamInfo(cfg.Stream, nats.Context(ctx))
	if err == nil {
		if !sameSubjects(info.Config.Subjects, subjects) {
			info.Config.Subjects = subjects
			_, err = js.UpdateStream(&info.Config, nats.Context(ctx))
		}
		return err
	}

	if errors.Is(err, nats.ErrStreamNotFound) {
		_, err = js.AddStream(&nats.StreamConfig{
			Name:      cfg.Stream,
			Subjects:  subjects,
			Storage:   nats.FileStorage,
			Retention: nats.LimitsPolicy,
		}, nats.Context(ctx))
		return err
	}
	return err
}

func sameSubjects(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[string]int, len(a))
	for _, s := range a {
		seen[s]++
	}
	for _, s := range b {
		if seen[s] == 0 {
			return false
		}
		seen[s]--
	}
	for _, v := range seen {
		if v != 0 {
			return false
		}
	}
	return true
}
