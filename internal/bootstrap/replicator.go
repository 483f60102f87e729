package bootstrap

import (
	"context"
	"errors"

	"github.com/dhanasekaranr/screensync/internal/config"
	"github.com/dhanasekaranr/screensync/internal/infra/messaging"
	"github.com/dhanasekaranr/screensync/internal/infra/persistence"
	"github.com/dhanasekaranr/screensync/internal/outbox"
)

// RunReplicator wires and drives the outbox processor until ctx is cancelled.
// Only a primary database that cannot be reached at startup is fatal; every
// per-message failure stays inside the processor loop.
func RunReplicator(ctx context.Context, cfg config.Config) error {
	log, err := BuildLogger(cfg)
	if err != nil {
		return err
	}

	if !cfg.Outbox.Enabled {
		log.Info("replicator: outbox disabled, nothing to do")
		return nil
	}

	conn, err := persistence.New(ctx, dbConfig(cfg))
	if err != nil {
		return err
	}
	defer conn.Close()

	pingCtx := ctx
	if cfg.Database.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, cfg.Database.ConnectTimeout)
		defer cancel()
	}
	if err := conn.Ping(pingCtx); err != nil {
		return err
	}

	router := persistence.NewRouter(conn.Primary(), conn.Secondary(), log)

	replicator := outbox.NewReplicator(log)
	replicator.Register(outbox.EntityTypeScreenDefinition, outbox.NewScreenHandler(persistence.NewScreenReplicaStore(router)))
	replicator.Register(outbox.EntityTypeMenuItem, outbox.NewMenuItemHandler(persistence.NewMenuItemReplicaStore(router)))

	var notifier outbox.Notifier
	natsClient, err := messaging.NewNATS(ctx, cfg.NATS)
	if err != nil {
		// Notifications are best-effort; the replicator runs without them.
		log.WithError(err).Warn("replicator: nats unavailable, notifications disabled")
	} else if natsClient != nil {
		defer natsClient.Close()
		notifier = natsClient
	}

	processor := outbox.NewProcessor(
		persistence.NewOutboxRepository(conn),
		replicator,
		notifier,
		log,
		outbox.ProcessorConfig{
			PollInterval:      cfg.Outbox.PollInterval,
			BatchSize:         cfg.Outbox.BatchSize,
			MaxRetryCount:     cfg.Outbox.MaxRetryCount,
			RetryDelay:        cfg.Outbox.RetryDelay,
			StaleClaimTimeout: cfg.Outbox.StaleClaimTimeout,
			Workers:           cfg.Outbox.Workers,
		},
	)

	log.Infof("replicator: started (batch=%d, interval=%s, workers=%d)",
		cfg.Outbox.BatchSize, cfg.Outbox.PollInterval, cfg.Outbox.Workers)

	if err := processor.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
