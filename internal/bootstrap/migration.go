package bootstrap

import (
	"context"
	"errors"

	"github.com/dhanasekaranr/screensync/internal/config"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

const migrationsDir = "migrations"

// Migrate runs goose against the primary and, when configured, repeats the
// command on the secondary so both sides carry the same schema.
func Migrate(ctx context.Context, cfg config.Config, cmd string, version int64) error {
	if cfg.Database.PrimaryDSN == "" {
		return errors.New("db: PrimaryDSN is required")
	}

	dsns := []string{cfg.Database.PrimaryDSN}
	if cfg.Database.SecondaryDSN != "" {
		dsns = append(dsns, cfg.Database.SecondaryDSN)
	}

	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	for _, dsn := range dsns {
		if err := migrateOne(ctx, dsn, cmd, version); err != nil {
			return err
		}
	}
	return nil
}

func migrateOne(ctx context.Context, dsn, cmd string, version int64) error {
	pgxCfg, err := pgx.ParseConfig(dsn)
	if err != nil {
		return err
	}
	pgxCfg.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	db := stdlib.OpenDB(*pgxCfg)
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return err
	}

	actions := map[string]func() error{
		"up":      func() error { return goose.Up(db, migrationsDir) },
		"down":    func() error { return goose.Down(db, migrationsDir) },
		"status":  func() error { return goose.Status(db, migrationsDir) },
		"version": func() error { return goose.Version(db, migrationsDir) },
		"redo":    func() error { return goose.Redo(db, migrationsDir) },
		"reset":   func() error { return goose.Reset(db, migrationsDir) },
		"up-to":   func() error { return goose.UpTo(db, migrationsDir, version) },
		"down-to": func() error { return goose.DownTo(db, migrationsDir, version) },
	}
	action, ok := actions[cmd]
	if !ok {
		return errors.New("unknown migrate command")
	}
	return action()
}
