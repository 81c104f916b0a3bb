package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/geoflow/geoflow/internal/db"
)

// pgxUnitOfWork runs each unit against a transaction-scoped store, so the
// authorization read, the mutation, and its audit append commit together.
type pgxUnitOfWork struct {
	conn *db.Connection
}

// NewUnitOfWork builds the transactional unit-of-work over the pool.
func NewUnitOfWork(conn *db.Connection) UnitOfWork {
	return &pgxUnitOfWork{conn: conn}
}

func (u *pgxUnitOfWork) Run(ctx context.Context, fn func(ctx context.Context, store *Store) error) error {
	return u.conn.WithTx(ctx, func(tx pgx.Tx) error {
		return fn(ctx, NewStore(tx))
	})
}
