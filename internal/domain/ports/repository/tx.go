package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

// Tx is an opaque transaction handle threaded through repository calls.
// Its concrete type is infra-defined (pgx.Tx for Postgres). Repositories
// MUST gracefully accept a nil handle and fall back to the pool.
type Tx interface{}

// NoTX marks the non-transactional path at call sites.
var NoTX Tx

// TransactionManager executes a function within a database transaction,
// passing the transaction handle via tx.
//
// Keeping the handle opaque means use-case interfaces stay clean while
// implementations can still take row locks (SELECT ... FOR UPDATE) when a
// real transaction is present. Every lifecycle mutation in this service runs
// inside one WithTx scope so check-then-act guards hold under concurrency.
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}
