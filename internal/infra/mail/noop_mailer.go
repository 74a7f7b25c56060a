package mail

import (
	"context"

	"github.com/rs/zerolog"

	"ticket-payment-service/internal/domain/ports/adapter"
)

var _ adapter.TicketMailer = (*NoopMailer)(nil)

// NoopMailer logs instead of sending. Used in dev mode and when mail is
// disabled in config.
type NoopMailer struct {
	log *zerolog.Logger
}

func NewNoopMailer(logger *zerolog.Logger) *NoopMailer {
	return &NoopMailer{log: logger}
}

func (m *NoopMailer) Deliver(ctx context.Context, ticketID, payerEmail string) error {
	m.log.Info().
		Str("ticket_id", ticketID).
		Str("payer_email", payerEmail).
		Msg("mail disabled, skipping ticket delivery")
	return nil
}
