package persistence

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/dhanasekaranr/screensync/internal/domain/repository"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/plugin/dbresolver"
)

type Config struct {
	PrimaryDSN        string
	ReadDSN           string
	SecondaryDSN      string
	MaxConns          int32
	MinConns          int32
	MaxConnLifetime   time.Duration
	MaxConnIdleTime   time.Duration
	HealthCheckPeriod time.Duration
}

// DB holds the primary store (write master plus optional read replicas via
// dbresolver) and, when configured, the secondary replication target.
type DB struct {
	primary   *gorm.DB
	secondary *gorm.DB
}

var _ repository.Store = (*DB)(nil)

type txKey struct{}

func New(ctx context.Context, cfg Config) (*DB, error) {
	if cfg.PrimaryDSN == "" {
		return nil, errors.New("db: PrimaryDSN is required")
	}

	primary, err := openPrimary(cfg)
	if err != nil {
		return nil, err
	}

	db := &DB{primary: primary}
	if cfg.SecondaryDSN != "" {
		secondary, err := open(cfg.SecondaryDSN, cfg)
		if err != nil {
			return nil, err
		}
		db.secondary = secondary
	}
	return db, nil
}

func openPrimary(cfg Config) (*gorm.DB, error) {
	writeDSN := normalizeDSN(cfg.PrimaryDSN)
	writeDialector := postgres.New(postgres.Config{
		DSN:                  writeDSN,
		PreferSimpleProtocol: true,
	})
	gdb, err := gorm.Open(writeDialector, &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}

	readDSNs := splitDSNs(cfg.ReadDSN)
	for i := range readDSNs {
		readDSNs[i] = normalizeDSN(readDSNs[i])
	}
	if len(readDSNs) > 0 && !sameDSNs(readDSNs, writeDSN) {
		replicas := make([]gorm.Dialector, 0, len(readDSNs))
		for _, dsn := range readDSNs {
			replicas = append(replicas, postgres.New(postgres.Config{
				DSN:                  dsn,
				PreferSimpleProtocol: true,
			}))
		}

		resolverCfg := dbresolver.Config{
			Sources:  []gorm.Dialector{writeDialector},
			Replicas: replicas,
			Policy:   dbresolver.RandomPolicy{},
		}
		if err := gdb.Use(dbresolver.Register(resolverCfg).
			SetMaxOpenConns(int(cfg.MaxConns)).
			SetMaxIdleConns(int(cfg.MinConns)).
			SetConnMaxLifetime(cfg.MaxConnLifetime).
			SetConnMaxIdleTime(cfg.MaxConnIdleTime),
		); err != nil {
			return nil, err
		}
	}

	if err := applyPool(gdb, cfg); err != nil {
		return nil, err
	}
	return gdb, nil
}

func open(dsn string, cfg Config) (*gorm.DB, error) {
	gdb, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  normalizeDSN(dsn),
		PreferSimpleProtocol: true,
	}), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}
	if err := applyPool(gdb, cfg); err != nil {
		return nil, err
	}
	return gdb, nil
}

func applyPool(gdb *gorm.DB, cfg Config) error {
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	if cfg.MaxConns > 0 {
		sqlDB.SetMaxOpenConns(int(cfg.MaxConns))
	}
	if cfg.MinConns > 0 {
		sqlDB.SetMaxIdleConns(int(cfg.MinConns))
	}
	if cfg.MaxConnLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.MaxConnLifetime)
	}
	if cfg.MaxConnIdleTime > 0 {
		sqlDB.SetConnMaxIdleTime(cfg.MaxConnIdleTime)
	}
	return nil
}

func (db *DB) Close() {
	if db == nil {
		return
	}
	for _, conn := range []*gorm.DB{db.primary, db.secondary} {
		if conn == nil {
			continue
		}
		if sqlDB, err := conn.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
}

func (db *DB) Ping(ctx context.Context) error {
	if db == nil || db.primary == nil {
		return errors.New("db: primary connection is not initialized")
	}
	sqlDB, err := db.primary.DB()
	if err != nil {
		return err
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return err
	}
	if db.secondary != nil {
		secDB, err := db.secondary.DB()
		if err != nil {
			return err
		}
		return secDB.PingContext(ctx)
	}
	return nil
}

// Primary returns the primary write handle, never nil after New succeeds.
func (db *DB) Primary() *gorm.DB {
	if db == nil {
		return nil
	}
	return db.primary
}

// Secondary returns the replication target handle, nil when unconfigured.
func (db *DB) Secondary() *gorm.DB {
	if db == nil {
		return nil
	}
	return db.secondary
}

// Write returns the primary handle, joining the ambient transaction when the
// context carries one.
func (db *DB) Write(ctx context.Context) *gorm.DB {
	if db == nil || db.primary == nil {
		return nil
	}
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok && tx != nil {
		return tx.WithContext(ctx)
	}
	return db.primary.WithContext(ctx)
}

// Read routes to a primary read replica unless the context carries a
// transaction, in which case reads stay on the transaction connection.
func (db *DB) Read(ctx context.Context) *gorm.DB {
	if db == nil || db.primary == nil {
		return nil
	}
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok && tx != nil {
		return tx.WithContext(ctx)
	}
	return db.primary.WithContext(ctx).Clauses(dbresolver.Read)
}

// WithTx runs fn inside one primary transaction. The transaction handle rides
// the derived context, so every Write/Read call inside fn joins the same unit
// of work. The outbox publisher relies on this to make the business row and
// its replication intent atomic.
func (db *DB) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if db == nil || db.primary == nil {
		return errors.New("db: primary connection is not initialized")
	}
	return db.primary.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txCtx := context.WithValue(ctx, txKey{}, tx)
		return fn(txCtx)
	})
}

func splitDSNs(input string) []string {
	if input == "" {
		return nil
	}
	parts := strings.Split(input, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func sameDSNs(readDSNs []string, writeDSN string) bool {
	if len(readDSNs) == 0 {
		return true
	}
	for _, dsn := range readDSNs {
		if dsn != writeDSN {
			return false
		}
	}
	return true
}

func normalizeDSN(dsn string) string {
	parsed, err := url.Parse(dsn)
	if err != nil || parsed.Scheme == "" {
		return dsn
	}
	q := parsed.Query()
	if q.Get("statement_cache_capacity") == "" {
		q.Set("statement_cache_capacity", "0")
	}
	if q.Get("default_query_exec_mode") == "" {
		q.Set("default_query_exec_mode", "simple_protocol")
	}
	parsed.RawQuery = q.Encode()
	return parsed.String()
}
