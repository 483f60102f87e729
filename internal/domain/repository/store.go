package repository

import "context"

// Store is the unit-of-work surface of the primary database. WithTx runs fn
// inside a transaction attached to the derived context; repository calls made
// with that context join the same transaction.
type Store interface {
	Ping(ctx context.Context) error
	Close()
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}
