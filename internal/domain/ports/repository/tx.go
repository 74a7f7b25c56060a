package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

type Tx interface{}

// NoTX is passed where a repository call should run outside a transaction.
var NoTX Tx

// TransactionManager executes a function within a database transaction,
// handing the transaction handle to repositories via the `tx` argument.
// Keeping the handle opaque (`Tx`) stops transaction types from leaking into
// use-case signatures; the concrete type is infra-defined (pgx.Tx for
// Postgres). Repositories must accept a nil handle and fall back to the pool.
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}
