package adapter

import "context"

// TicketMailer delivers the purchased ticket to the payer. Fire-and-forget
// from the core's perspective, but the caller guarantees at most one call
// per ticket.
type TicketMailer interface {
	Deliver(ctx context.Context, ticketID, payerEmail string) error
}
