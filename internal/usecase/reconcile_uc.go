// File: internal/usecase/reconcile_uc.go
package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"ticket-payment-service/internal/domain"
	"ticket-payment-service/internal/domain/model"
	"ticket-payment-service/internal/domain/ports/adapter"
	"ticket-payment-service/internal/domain/ports/repository"
	"ticket-payment-service/internal/infra/metrics"
)

// Compile-time check
var _ ReconcileUseCase = (*reconcileUC)(nil)

type ReconcileUseCase interface {
	// OnNotification reconciles an out-of-band gateway notification against
	// the ledger. It only returns an error for genuinely malformed events;
	// unknown payments, invalid transitions and exhausted gateway fetches
	// are logged, marked where applicable, and acknowledged.
	OnNotification(ctx context.Context, ev model.NotificationEvent) error

	// Apply moves a ledger entry to a new status inside one transaction,
	// delivering the ticket exactly once when the entry first turns
	// approved. Same-status is a silent no-op.
	Apply(ctx context.Context, ticketID string, to model.PaymentStatus, detail string) error

	// ReconcileEntry re-checks a single ledger entry against the gateway.
	// Used by the sweeper for stale or previously failed entries.
	ReconcileEntry(ctx context.Context, e *model.LedgerEntry) error
}

type reconcileUC struct {
	ledger           repository.LedgerRepository
	tm               repository.TransactionManager
	gateway          adapter.PaymentGateway
	mailer           adapter.TicketMailer
	locker           adapter.Locker // optional
	maxFetchAttempts int
	log              *zerolog.Logger
}

func NewReconcileUseCase(
	ledger repository.LedgerRepository,
	tm repository.TransactionManager,
	gateway adapter.PaymentGateway,
	mailer adapter.TicketMailer,
	locker adapter.Locker,
	maxFetchAttempts int,
	logger *zerolog.Logger,
) *reconcileUC {
	if maxFetchAttempts <= 0 {
		maxFetchAttempts = 4
	}
	return &reconcileUC{
		ledger:           ledger,
		tm:               tm,
		gateway:          gateway,
		mailer:           mailer,
		locker:           locker,
		maxFetchAttempts: maxFetchAttempts,
		log:              logger,
	}
}

const lockTTL = 30 * time.Second

func (u *reconcileUC) OnNotification(ctx context.Context, ev model.NotificationEvent) error {
	if ev.Kind != model.NotificationKindPayment {
		return nil
	}
	if ev.GatewayPaymentID == "" {
		return domain.ErrInvalidArgument
	}

	entry, err := u.ledger.FindByGatewayID(ctx, repository.NoTX, ev.GatewayPaymentID)
	if errors.Is(err, domain.ErrNotFound) {
		// The gateway may notify about payments this instance never issued.
		u.log.Warn().Str("gateway_payment_id", ev.GatewayPaymentID).Msg("notification for unknown payment, ignoring")
		metrics.IncReconciliation("unknown_payment")
		return nil
	}
	if err != nil {
		return err
	}

	return u.ReconcileEntry(ctx, entry)
}

func (u *reconcileUC) ReconcileEntry(ctx context.Context, e *model.LedgerEntry) error {
	if u.locker != nil {
		token, err := u.locker.TryLock(ctx, "reconcile:"+e.GatewayPaymentID, lockTTL)
		if err != nil {
			// Another instance holds the lock; its reconciliation covers
			// this notification too.
			u.log.Debug().Str("gateway_payment_id", e.GatewayPaymentID).Msg("reconciliation already in flight")
			return nil
		}
		defer u.locker.Unlock(ctx, "reconcile:"+e.GatewayPaymentID, token)
	}

	raw, err := u.fetchWithBackoff(ctx, e.GatewayPaymentID)
	if err != nil {
		u.log.Error().Err(err).
			Str("ticket_id", e.TicketID).
			Str("gateway_payment_id", e.GatewayPaymentID).
			Msg("gateway status fetch exhausted, marking for follow-up")
		metrics.IncReconciliation("fetch_failed")
		if markErr := u.ledger.MarkReconcileFailed(ctx, repository.NoTX, e.TicketID, true); markErr != nil {
			u.log.Error().Err(markErr).Str("ticket_id", e.TicketID).Msg("failed to mark reconcile failure")
		}
		return nil // ack; the sweeper picks this up later
	}

	if raw.ID == "" || raw.Status == "" {
		u.log.Error().Str("gateway_payment_id", e.GatewayPaymentID).Msg("malformed gateway status response")
		metrics.IncReconciliation("malformed")
		return nil
	}

	status, known := mapGatewayStatus(raw.Status)
	detail := raw.StatusDetail
	if !known {
		detail = raw.Status
	}

	if err := u.Apply(ctx, e.TicketID, status, detail); err != nil {
		if errors.Is(err, domain.ErrInvalidTransition) {
			u.log.Warn().
				Str("ticket_id", e.TicketID).
				Str("from", string(e.Status)).
				Str("to", string(status)).
				Msg("rejected status regression from stale notification")
			metrics.IncReconciliation("invalid_transition")
			return nil
		}
		return err
	}

	if e.ReconcileFailed {
		if err := u.ledger.MarkReconcileFailed(ctx, repository.NoTX, e.TicketID, false); err != nil {
			u.log.Error().Err(err).Str("ticket_id", e.TicketID).Msg("failed to clear reconcile failure marker")
		}
	}
	metrics.IncReconciliation("applied")
	return nil
}

func (u *reconcileUC) Apply(ctx context.Context, ticketID string, to model.PaymentStatus, detail string) error {
	return u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		entry, err := u.ledger.FindByTicketID(ctx, tx, ticketID)
		if err != nil {
			return err
		}
		if entry.Status == to {
			// Redelivered notification; nothing to do.
			return nil
		}
		if !model.CanTransition(entry.Status, to) {
			return domain.ErrInvalidTransition
		}

		fulfill := to == model.PaymentStatusApproved && !entry.Fulfilled
		transitioned, err := u.ledger.ApplyStatus(ctx, tx, ticketID, entry.Status, to, detail, fulfill)
		if err != nil {
			return err
		}
		if !transitioned {
			return domain.ErrConflict
		}

		// Delivery happens inside the transaction: a mail failure rolls the
		// status back so a redelivered notification retries the whole step.
		if fulfill {
			if err := u.mailer.Deliver(ctx, ticketID, entry.PayerEmail); err != nil {
				return err
			}
			metrics.IncTicketDelivered()
			u.log.Info().Str("ticket_id", ticketID).Msg("ticket delivered")
		}

		u.log.Info().
			Str("ticket_id", ticketID).
			Str("from", string(entry.Status)).
			Str("to", string(to)).
			Msg("ledger status transition")
		metrics.IncPayment(string(to))
		return nil
	})
}

func (u *reconcileUC) fetchWithBackoff(ctx context.Context, gatewayPaymentID string) (*adapter.RawPayment, error) {
	var lastErr error
	delay := 500 * time.Millisecond
	for attempt := 0; attempt < u.maxFetchAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}
		raw, err := u.gateway.FetchStatus(ctx, gatewayPaymentID)
		if err == nil {
			return raw, nil
		}
		lastErr = err
		if !domain.IsTransient(err) {
			return nil, err
		}
	}
	return nil, lastErr
}
