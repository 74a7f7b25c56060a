package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"ticket-payment-service/internal/domain/ports/repository"
	"ticket-payment-service/internal/usecase"
)

// ReconcileSweeper periodically scans for stale pending payments and entries
// whose reconciliation previously gave up, and re-checks them against the
// gateway. This covers lost notifications and crashes mid-reconcile.
type ReconcileSweeper struct {
	uc         usecase.ReconcileUseCase
	ledger     repository.LedgerRepository
	interval   time.Duration // how often to scan
	staleAfter time.Duration // how old a pending payment must be to re-check
	log        *zerolog.Logger
}

func NewReconcileSweeper(uc usecase.ReconcileUseCase, ledger repository.LedgerRepository, interval, staleAfter time.Duration, logger *zerolog.Logger) *ReconcileSweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	if staleAfter <= 0 {
		staleAfter = 10 * time.Minute
	}
	return &ReconcileSweeper{uc: uc, ledger: ledger, interval: interval, staleAfter: staleAfter, log: logger}
}

func (w *ReconcileSweeper) Start(ctx context.Context) {
	t := time.NewTicker(w.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			w.tick(ctx)
		}
	}
}

func (w *ReconcileSweeper) tick(ctx context.Context) {
	cutoff := time.Now().Add(-w.staleAfter)
	stale, err := w.ledger.ListStalePending(ctx, repository.NoTX, cutoff, 200)
	if err != nil {
		w.log.Error().Err(err).Msg("sweeper: list stale entries")
		return
	}
	for _, e := range stale {
		if e.GatewayPaymentID == "" {
			continue
		}
		if err := w.uc.ReconcileEntry(ctx, e); err != nil {
			w.log.Error().Err(err).Str("ticket_id", e.TicketID).Msg("sweeper: reconcile failed")
			continue
		}
		w.log.Debug().Str("ticket_id", e.TicketID).Msg("sweeper: re-checked entry")
	}
}
