// File: internal/usecase/checkout_uc.go
package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"ticket-payment-service/internal/domain"
	"ticket-payment-service/internal/domain/model"
	"ticket-payment-service/internal/domain/ports/adapter"
	"ticket-payment-service/internal/domain/ports/repository"
	"ticket-payment-service/internal/infra/metrics"
)

// Compile-time check
var _ CheckoutUseCase = (*checkoutUC)(nil)

type CheckoutUseCase interface {
	// Submit normalizes the raw form, creates the ledger entry, submits the
	// payment to the gateway and returns the normalized result.
	Submit(ctx context.Context, selectedMethod string, form *PaymentForm) (*model.PaymentResult, error)

	// Status returns the authoritative status for a gateway payment this
	// service issued. Unknown payments fail with domain.ErrNotFound.
	Status(ctx context.Context, gatewayPaymentID string) (model.PaymentStatus, string, error)
}

type checkoutUC struct {
	ledger      repository.LedgerRepository
	gateway     adapter.PaymentGateway
	encoder     adapter.CodeEncoder
	reconciler  ReconcileUseCase
	description string
	maxRetries  int
	log         *zerolog.Logger
}

func NewCheckoutUseCase(
	ledger repository.LedgerRepository,
	gateway adapter.PaymentGateway,
	encoder adapter.CodeEncoder,
	reconciler ReconcileUseCase,
	description string,
	maxRetries int,
	logger *zerolog.Logger,
) *checkoutUC {
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &checkoutUC{
		ledger:      ledger,
		gateway:     gateway,
		encoder:     encoder,
		reconciler:  reconciler,
		description: description,
		maxRetries:  maxRetries,
		log:         logger,
	}
}

func (u *checkoutUC) Submit(ctx context.Context, selectedMethod string, form *PaymentForm) (*model.PaymentResult, error) {
	req, err := NormalizeRequest(selectedMethod, form, u.description)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	entry := &model.LedgerEntry{
		TicketID:   req.TicketID,
		Status:     model.PaymentStatusPending,
		Amount:     req.Amount,
		Method:     req.Method,
		PayerEmail: req.Payer.Email,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := u.ledger.Create(ctx, repository.NoTX, entry); err != nil {
		return nil, err
	}

	raw, err := u.submitWithRetry(ctx, req)
	if err != nil {
		// The entry stays pending with no gateway ID; a client retry issues
		// a new ticket, and nothing was charged.
		metrics.IncPayment("submit_failed")
		return nil, err
	}

	result, err := InterpretResult(raw, req.TicketID, req.Method, u.encoder, u.log)
	if err != nil {
		return nil, err
	}

	if err := u.ledger.AttachGatewayID(ctx, repository.NoTX, req.TicketID, result.GatewayPaymentID); err != nil {
		return nil, err
	}

	// Card payments usually resolve synchronously; record any non-pending
	// outcome now so a later notification for the same status is a no-op.
	if result.Status != model.PaymentStatusPending {
		if err := u.reconciler.Apply(ctx, req.TicketID, result.Status, result.StatusDetail); err != nil && !errors.Is(err, domain.ErrInvalidTransition) {
			return nil, err
		}
	} else {
		metrics.IncPayment(string(model.PaymentStatusPending))
	}

	u.log.Info().
		Str("ticket_id", req.TicketID).
		Str("gateway_payment_id", result.GatewayPaymentID).
		Str("status", string(result.Status)).
		Str("method", string(req.Method)).
		Msg("payment submitted")
	return result, nil
}

func (u *checkoutUC) Status(ctx context.Context, gatewayPaymentID string) (model.PaymentStatus, string, error) {
	entry, err := u.ledger.FindByGatewayID(ctx, repository.NoTX, gatewayPaymentID)
	if err != nil {
		return "", "", err
	}

	raw, err := u.gateway.FetchStatus(ctx, gatewayPaymentID)
	if err != nil {
		// Serve the last reconciled state when the gateway is unreachable.
		u.log.Warn().Err(err).Str("gateway_payment_id", gatewayPaymentID).Msg("status fetch failed, serving ledger copy")
		return entry.Status, entry.StatusDetail, nil
	}
	if raw.ID == "" || raw.Status == "" {
		return "", "", domain.ErrGatewayMalformed
	}

	status, known := mapGatewayStatus(raw.Status)
	detail := raw.StatusDetail
	if !known {
		detail = raw.Status
	}
	return status, detail, nil
}

func (u *checkoutUC) submitWithRetry(ctx context.Context, req *model.PaymentRequest) (*adapter.RawPayment, error) {
	var lastErr error
	delay := 250 * time.Millisecond
	for attempt := 0; attempt < u.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}
		raw, err := u.gateway.Submit(ctx, req)
		if err == nil {
			return raw, nil
		}
		lastErr = err
		if !domain.IsTransient(err) {
			return nil, err
		}
		u.log.Warn().Err(err).Str("ticket_id", req.TicketID).Int("attempt", attempt+1).Msg("transient gateway error, retrying submission")
	}
	return nil, lastErr
}
