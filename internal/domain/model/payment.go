package model

import "time"

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"    // submitted; awaiting gateway outcome
	PaymentStatusApproved  PaymentStatus = "approved"   // money captured; ticket may be issued
	PaymentStatusRejected  PaymentStatus = "rejected"   // gateway refused the charge
	PaymentStatusInProcess PaymentStatus = "in_process" // under gateway review
	PaymentStatusRefunded  PaymentStatus = "refunded"   // returned after approval
	PaymentStatusCancelled PaymentStatus = "cancelled"  // expired or cancelled before capture
)

// transitions is the only legal movement between ledger statuses. Anything
// absent here is treated as a replayed or out-of-order notification and
// must not be applied.
var transitions = map[PaymentStatus][]PaymentStatus{
	PaymentStatusPending:   {PaymentStatusApproved, PaymentStatusRejected, PaymentStatusCancelled, PaymentStatusRefunded, PaymentStatusInProcess},
	PaymentStatusInProcess: {PaymentStatusApproved, PaymentStatusRejected, PaymentStatusCancelled},
	PaymentStatusApproved:  {PaymentStatusRefunded},
}

// CanTransition reports whether a ledger entry may move from one status to
// another. Same-status is not a transition; callers treat it as a no-op.
func CanTransition(from, to PaymentStatus) bool {
	for _, t := range transitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

type MethodKind string

const (
	MethodCreditCard MethodKind = "credit_card"
	MethodPix        MethodKind = "pix"
)

// Payer identifies who bought the ticket. Email is mandatory; the names are
// backfilled with placeholders when the form omits them.
type Payer struct {
	Email     string
	FirstName string
	LastName  string
}

// PaymentRequest is the validated, method-specific submission built from raw
// client input. TicketID is generated once, before the gateway is called,
// and survives retries of the same logical request.
type PaymentRequest struct {
	TicketID    string // UUID, ours
	Amount      float64
	Description string
	Method      MethodKind
	MethodID    string // gateway payment_method_id; forced to "pix" for instant transfers
	Payer       Payer

	// Card-only fields.
	CardToken    string
	Installments int
}

// PaymentResult is the normalized shape returned to the caller regardless of
// gateway vocabulary or payment method.
type PaymentResult struct {
	GatewayPaymentID string
	Status           PaymentStatus
	StatusDetail     string
	TicketID         string

	// Set only for instant-transfer payments whose code is already
	// available. Image is nil when encoding failed; that never fails the
	// payment itself.
	TransferCode      string
	TransferCodeImage []byte
}

// LedgerEntry is the durable record of one purchase attempt. It is the unit
// of reconciliation and of mutual exclusion: status and fulfilled only move
// under a per-entry transaction.
type LedgerEntry struct {
	TicketID         string // UUID, primary key
	GatewayPaymentID string // empty until the gateway accepts the submission
	Status           PaymentStatus
	StatusDetail     string
	Amount           float64
	Method           MethodKind
	PayerEmail       string
	Fulfilled        bool
	ReconcileFailed  bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
