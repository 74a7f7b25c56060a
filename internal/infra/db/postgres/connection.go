package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
)

// NewPgxPool connects to Postgres with a bounded pool size.
func NewPgxPool(ctx context.Context, dsn string, maxConns int32) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return pgxpool.ConnectConfig(ctx, cfg)
}

// InitSchema creates the ledger table when it does not exist yet. The durable
// store's retention policy is assumed external.
func InitSchema(ctx context.Context, pool *pgxpool.Pool) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS payment_ledger (
    ticket_id          UUID PRIMARY KEY,
    gateway_payment_id TEXT UNIQUE,
    status             TEXT NOT NULL,
    status_detail      TEXT NOT NULL DEFAULT '',
    amount             NUMERIC(12,2) NOT NULL,
    method             TEXT NOT NULL,
    payer_email        TEXT NOT NULL,
    fulfilled          BOOLEAN NOT NULL DEFAULT FALSE,
    reconcile_failed   BOOLEAN NOT NULL DEFAULT FALSE,
    created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at         TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_payment_ledger_status ON payment_ledger(status);`

	_, err := pool.Exec(ctx, ddl)
	return err
}
