package adapter

import (
	"context"

	"ticket-payment-service/internal/domain/model"
)

// RawPayment is the gateway's duck-typed payment representation with every
// field optional. The interpreter decides what is recognizable; the client
// only parses.
type RawPayment struct {
	ID           string
	Status       string
	StatusDetail string
	TransferCode string // instant-transfer code, empty when not (yet) issued
}

// PaymentGateway is the external payment processor. Submit and FetchStatus
// may fail with domain.ErrGatewayTransient (retryable), domain.ErrGatewayRejected
// (permanent refusal) or domain.ErrGatewayMalformed.
type PaymentGateway interface {
	Submit(ctx context.Context, req *model.PaymentRequest) (*RawPayment, error)
	FetchStatus(ctx context.Context, gatewayPaymentID string) (*RawPayment, error)
}
