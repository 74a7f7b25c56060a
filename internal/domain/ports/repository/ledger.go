package repository

import (
	"context"
	"time"

	"ticket-payment-service/internal/domain/model"
)

// LedgerRepository is the durable payment ledger, keyed by ticket ID with a
// unique secondary index on the gateway payment ID.
type LedgerRepository interface {
	// Create inserts a fresh entry. Returns domain.ErrAlreadyExists when the
	// ticket ID is already present (duplicate submission guard).
	Create(ctx context.Context, tx Tx, e *model.LedgerEntry) error

	// AttachGatewayID records the gateway's payment ID after a successful
	// submission. Re-attaching the same ID is a no-op; attaching a different
	// one fails with domain.ErrConflict, a gateway ID is immutable once set.
	AttachGatewayID(ctx context.Context, tx Tx, ticketID, gatewayPaymentID string) error

	FindByTicketID(ctx context.Context, tx Tx, ticketID string) (*model.LedgerEntry, error)
	FindByGatewayID(ctx context.Context, tx Tx, gatewayPaymentID string) (*model.LedgerEntry, error)

	// ApplyStatus moves the entry to newStatus with a compare-and-set on the
	// current status. transitioned is false when the entry already carries
	// newStatus; this no-op path is what makes notification redelivery
	// idempotent. fulfill additionally flips the fulfilled flag in the same
	// statement so status and fulfillment can never be observed apart.
	ApplyStatus(ctx context.Context, tx Tx, ticketID string, from, to model.PaymentStatus, detail string, fulfill bool) (transitioned bool, err error)

	// MarkReconcileFailed records that reconciliation gave up on this entry
	// and it needs manual or sweeper-driven follow-up.
	MarkReconcileFailed(ctx context.Context, tx Tx, ticketID string, failed bool) error

	// ListStalePending returns entries still pending or in_process, holding a
	// gateway ID, that were last touched before the cutoff, plus entries
	// marked reconcile_failed. Input for the reconciliation sweeper.
	ListStalePending(ctx context.Context, tx Tx, olderThan time.Time, limit int) ([]*model.LedgerEntry, error)
}
