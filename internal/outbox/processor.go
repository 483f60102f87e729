package outbox

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"github.com/dhanasekaranr/screensync/internal/domain/entity"
	"github.com/dhanasekaranr/screensync/internal/domain/repository"
	"github.com/sirupsen/logrus"
)

// Applier is the replication side of the processor; *Replicator satisfies it.
type Applier interface {
	Replicate(ctx context.Context, msg entity.OutboxMessage) error
}

// Notifier publishes replication outcomes to the event stream. A nil Notifier
// disables notifications.
type Notifier interface {
	ReplicationApplied(ctx context.Context, msg entity.OutboxMessage) error
	ReplicationFailed(ctx context.Context, msg entity.OutboxMessage, errMsg string) error
}

type ProcessorConfig struct {
	PollInterval      time.Duration
	BatchSize         int
	MaxRetryCount     int
	RetryDelay        time.Duration
	StaleClaimTimeout time.Duration
	// Workers bounds intra-batch parallelism. Messages are partitioned by
	// entity key so two messages for the same row never race.
	Workers int
}

func (c ProcessorConfig) withDefaults() ProcessorConfig {
	if c.PollInterval <= 0 {
		c.PollInterval = 5 * time.Second
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 10
	}
	if c.MaxRetryCount <= 0 {
		c.MaxRetryCount = 3
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = 5 * time.Minute
	}
	if c.StaleClaimTimeout <= 0 {
		c.StaleClaimTimeout = 5 * time.Minute
	}
	if c.Workers <= 0 {
		c.Workers = 1
	}
	return c
}

// Processor drains the outbox: it polls for pending and retryable messages,
// claims them one by one, applies each through the replicator and records the
// outcome. A single Run loop drives it; ticks never overlap.
type Processor struct {
	repo     repository.OutboxRepository
	applier  Applier
	notifier Notifier
	log      *logrus.Logger
	cfg      ProcessorConfig
}

func NewProcessor(repo repository.OutboxRepository, applier Applier, notifier Notifier, log *logrus.Logger, cfg ProcessorConfig) *Processor {
	return &Processor{
		repo:     repo,
		applier:  applier,
		notifier: notifier,
		log:      log,
		cfg:      cfg.withDefaults(),
	}
}

// Run loops until ctx is cancelled. The sleep between ticks is interruptible,
// so shutdown never waits out a full interval.
func (p *Processor) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := p.Tick(ctx); err != nil {
			p.log.WithError(err).Warn("outbox: tick failed")
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Tick runs one full poll/claim/apply cycle.
func (p *Processor) Tick(ctx context.Context) error {
	reclaimed, err := p.repo.ReclaimStale(ctx, p.cfg.StaleClaimTimeout)
	if err != nil {
		return err
	}
	if reclaimed > 0 {
		p.log.WithField("count", reclaimed).Info("outbox: reclaimed stale claims")
	}

	batch, err := p.fetch(ctx)
	if err != nil {
		return err
	}
	if len(batch) == 0 {
		return nil
	}

	p.apply(ctx, batch)
	return nil
}

func (p *Processor) fetch(ctx context.Context) ([]entity.OutboxMessage, error) {
	batch, err := p.repo.GetPendingMessages(ctx, p.cfg.BatchSize)
	if err != nil {
		return nil, err
	}
	if remaining := p.cfg.BatchSize - len(batch); remaining > 0 {
		retryable, err := p.repo.GetRetryableMessages(ctx, remaining, p.cfg.MaxRetryCount, p.cfg.RetryDelay)
		if err != nil {
			return nil, err
		}
		batch = append(batch, retryable...)
	}
	return batch, nil
}

// apply partitions the batch by entity key across the worker pool. All
// messages for one entity hash to the same worker, which preserves per-entity
// ordering under parallelism.
func (p *Processor) apply(ctx context.Context, batch []entity.OutboxMessage) {
	workers := p.cfg.Workers
	if workers > len(batch) {
		workers = len(batch)
	}

	buckets := make([][]entity.OutboxMessage, workers)
	for _, msg := range batch {
		idx := partition(msg.EntityType, msg.EntityID, workers)
		buckets[idx] = append(buckets[idx], msg)
	}

	var wg sync.WaitGroup
	for _, bucket := range buckets {
		if len(bucket) == 0 {
			continue
		}
		wg.Add(1)
		go func(msgs []entity.OutboxMessage) {
			defer wg.Done()
			for _, msg := range msgs {
				if ctx.Err() != nil {
					return
				}
				p.processOne(ctx, msg)
			}
		}(bucket)
	}
	wg.Wait()
}

// processOne contains every per-message failure: nothing it hits may abort
// the batch or the loop.
func (p *Processor) processOne(ctx context.Context, msg entity.OutboxMessage) {
	entry := p.log.WithFields(logrus.Fields{
		"message_id":  msg.ID,
		"entity_type": msg.EntityType,
		"entity_id":   msg.EntityID,
		"operation":   msg.Operation,
	})

	claimed, err := p.repo.ClaimMessage(ctx, msg.ID)
	if err != nil {
		entry.WithError(err).Warn("outbox: claim failed")
		return
	}
	if !claimed {
		// Another processor instance owns it. Not an error.
		entry.Debug("outbox: claim lost, skipping")
		return
	}

	if err := p.applier.Replicate(ctx, msg); err != nil {
		p.recordFailure(ctx, entry, msg, err)
		return
	}

	if err := p.repo.MarkProcessed(ctx, msg.ID); err != nil {
		entry.WithError(err).Warn("outbox: mark processed failed")
		return
	}
	entry.Info("outbox: replicated")

	if p.notifier != nil {
		if err := p.notifier.ReplicationApplied(ctx, msg); err != nil {
			entry.WithError(err).Warn("outbox: applied notification failed")
		}
	}
}

func (p *Processor) recordFailure(ctx context.Context, entry *logrus.Entry, msg entity.OutboxMessage, cause error) {
	entry = entry.WithError(cause)
	if IsPermanent(cause) {
		if err := p.repo.MarkFailedPermanent(ctx, msg.ID, cause.Error(), p.cfg.MaxRetryCount); err != nil {
			entry.WithError(err).Warn("outbox: mark failed permanent failed")
			return
		}
		entry.Error("outbox: permanent failure, message is terminal")
	} else {
		if err := p.repo.MarkFailed(ctx, msg.ID, cause.Error()); err != nil {
			entry.WithError(err).Warn("outbox: mark failed failed")
			return
		}
		entry.Warn("outbox: transient failure, will retry")
	}

	if p.notifier != nil {
		if err := p.notifier.ReplicationFailed(ctx, msg, cause.Error()); err != nil {
			entry.WithError(err).Warn("outbox: failed notification failed")
		}
	}
}

// partition maps an entity key onto a worker index. Stable for a given key,
// so per-entity ordering survives parallel application.
func partition(entityType string, entityID int64, workers int) int {
	if workers <= 1 {
		return 0
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(entityType))
	var buf [8]byte
	for i := 0; i < 8; i++ {
		buf[i] = byte(entityID >> (8 * i))
	}
	_, _ = h.Write(buf[:])
	return int(h.Sum32() % uint32(workers))
}
