package bootstrap

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dhanasekaranr/screensync/internal/config"
	"github.com/dhanasekaranr/screensync/internal/infra/persistence"
	"github.com/dhanasekaranr/screensync/internal/outbox"
	"github.com/dhanasekaranr/screensync/internal/transport/http/handlers"
	"github.com/dhanasekaranr/screensync/internal/transport/http/middleware"
	"github.com/dhanasekaranr/screensync/internal/usecase"
	"github.com/gin-gonic/gin"
)

func dbConfig(cfg config.Config) persistence.Config {
	return persistence.Config{
		PrimaryDSN:        cfg.Database.PrimaryDSN,
		ReadDSN:           cfg.Database.ReadDSN,
		SecondaryDSN:      cfg.Database.SecondaryDSN,
		MaxConns:          cfg.Database.MaxConns,
		MinConns:          cfg.Database.MinConns,
		MaxConnLifetime:   cfg.Database.MaxConnLifetime,
		MaxConnIdleTime:   cfg.Database.MaxConnIdleTime,
		HealthCheckPeriod: cfg.Database.HealthCheckPeriod,
	}
}

func Run(ctx context.Context, cfg config.Config) error {
	start := time.Now()
	log, err := BuildLogger(cfg)
	if err != nil {
		return err
	}

	conn, err := persistence.New(ctx, dbConfig(cfg))
	if err != nil {
		return err
	}
	log.Infof("bootstrap: db init in %s", time.Since(start))
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
	log.Infof("bootstrap: db ping in %s", time.Since(start))

	router := persistence.NewRouter(conn.Primary(), conn.Secondary(), log)
	publisher := outbox.NewPublisher(persistence.NewOutboxRepository(conn))

	screenRepo := persistence.NewScreenRepository(conn, publisher)
	menuRepo := persistence.NewMenuItemRepository(conn, publisher)
	screenUC := usecase.NewScreen(screenRepo, log)
	menuUC := usecase.NewMenuItem(menuRepo, log)
	replicaReader := persistence.NewScreenReplicaStore(router)

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(middleware.RequestID(), middleware.RoutingHint(), middleware.Logger(log), gin.Recovery())
	allowBypassIdemKey := cfg.Env != "prod"
	handler := handlers.NewHandler(screenUC, menuUC, replicaReader, conn)
	routerBuilder := handlers.NewRouter(handler)
	routerBuilder.RegisterRoutes(engine, middleware.IdempotencyRequired(allowBypassIdemKey))

	srv := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("bootstrap: server listening on %s", cfg.Server.Address)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		log.WithError(err).Error("server error")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("server shutdown error")
	}

	return nil
}
