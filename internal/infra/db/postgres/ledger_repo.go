package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"ticket-payment-service/internal/domain"
	"ticket-payment-service/internal/domain/model"
	"ticket-payment-service/internal/domain/ports/repository"
)

var _ repository.LedgerRepository = (*ledgerRepo)(nil)

type ledgerRepo struct{ pool *pgxpool.Pool }

func NewLedgerRepo(pool *pgxpool.Pool) *ledgerRepo {
	return &ledgerRepo{pool: pool}
}

const ledgerColumns = `ticket_id, gateway_payment_id, status, status_detail, amount, method, payer_email, fulfilled, reconcile_failed, created_at, updated_at`

func (r *ledgerRepo) Create(ctx context.Context, tx repository.Tx, e *model.LedgerEntry) error {
	const q = `
INSERT INTO payment_ledger (ticket_id, gateway_payment_id, status, status_detail, amount, method, payer_email, fulfilled, reconcile_failed, created_at, updated_at)
VALUES ($1, NULLIF($2,''), $3, $4, $5, $6, $7, $8, $9, $10, $11)
ON CONFLICT (ticket_id) DO NOTHING;`

	tag, err := execSQL(ctx, r.pool, tx, q,
		e.TicketID, e.GatewayPaymentID, e.Status, e.StatusDetail, e.Amount,
		e.Method, e.PayerEmail, e.Fulfilled, e.ReconcileFailed, e.CreatedAt, e.UpdatedAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAlreadyExists
	}
	return nil
}

func (r *ledgerRepo) AttachGatewayID(ctx context.Context, tx repository.Tx, ticketID, gatewayPaymentID string) error {
	if gatewayPaymentID == "" {
		return domain.ErrInvalidArgument
	}
	// Idempotent on the same ID; a different ID leaves the row untouched.
	const q = `
UPDATE payment_ledger
   SET gateway_payment_id = $2, updated_at = NOW()
 WHERE ticket_id = $1
   AND (gateway_payment_id IS NULL OR gateway_payment_id = $2);`

	tag, err := execSQL(ctx, r.pool, tx, q, ticketID, gatewayPaymentID)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	if tag.RowsAffected() >= 1 {
		return nil
	}

	// Zero rows: either the ticket is unknown or another gateway ID is
	// already attached.
	if _, err := r.FindByTicketID(ctx, tx, ticketID); err != nil {
		return err
	}
	return domain.ErrConflict
}

func (r *ledgerRepo) FindByTicketID(ctx context.Context, tx repository.Tx, ticketID string) (*model.LedgerEntry, error) {
	q := `SELECT ` + ledgerColumns + ` FROM payment_ledger WHERE ticket_id=$1`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	row, err := pickRow(ctx, r.pool, tx, q+";", ticketID)
	if err != nil {
		return nil, err
	}
	return scanEntry(row)
}

func (r *ledgerRepo) FindByGatewayID(ctx context.Context, tx repository.Tx, gatewayPaymentID string) (*model.LedgerEntry, error) {
	q := `SELECT ` + ledgerColumns + ` FROM payment_ledger WHERE gateway_payment_id=$1`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	row, err := pickRow(ctx, r.pool, tx, q+";", gatewayPaymentID)
	if err != nil {
		return nil, err
	}
	return scanEntry(row)
}

// ApplyStatus is a compare-and-set on the current status. fulfilled is only
// ever raised, never lowered, and moves in the same statement as the status.
func (r *ledgerRepo) ApplyStatus(ctx context.Context, tx repository.Tx, ticketID string, from, to model.PaymentStatus, detail string, fulfill bool) (bool, error) {
	const q = `
UPDATE payment_ledger
   SET status = $3,
       status_detail = $4,
       fulfilled = (fulfilled OR $5),
       updated_at = NOW()
 WHERE ticket_id = $1
   AND status = $2;`

	tag, err := execSQL(ctx, r.pool, tx, q, ticketID, from, to, detail, fulfill)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return false, err
		}
		return false, domain.ErrOperationFailed
	}
	return tag.RowsAffected() >= 1, nil
}

func (r *ledgerRepo) MarkReconcileFailed(ctx context.Context, tx repository.Tx, ticketID string, failed bool) error {
	const q = `UPDATE payment_ledger SET reconcile_failed=$2, updated_at=NOW() WHERE ticket_id=$1;`
	_, err := execSQL(ctx, r.pool, tx, q, ticketID, failed)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *ledgerRepo) ListStalePending(ctx context.Context, tx repository.Tx, olderThan time.Time, limit int) ([]*model.LedgerEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	const q = `
SELECT ` + ledgerColumns + `
  FROM payment_ledger
 WHERE gateway_payment_id IS NOT NULL
   AND (reconcile_failed OR (status IN ('pending','in_process') AND updated_at < $1))
 ORDER BY updated_at ASC
 LIMIT $2;`

	rows, err := queryRows(ctx, r.pool, tx, q, olderThan, limit)
	if err != nil {
		switch err {
		case domain.ErrInvalidArgument, domain.ErrInvalidExecContext:
			return nil, err
		default:
			return nil, domain.ErrOperationFailed
		}
	}
	defer rows.Close()

	var out []*model.LedgerEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func scanEntry(row pgx.Row) (*model.LedgerEntry, error) {
	e := &model.LedgerEntry{}
	var gatewayID *string
	err := row.Scan(&e.TicketID, &gatewayID, &e.Status, &e.StatusDetail, &e.Amount,
		&e.Method, &e.PayerEmail, &e.Fulfilled, &e.ReconcileFailed, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	if gatewayID != nil {
		e.GatewayPaymentID = *gatewayID
	}
	return e, nil
}
