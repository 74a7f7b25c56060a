package usecase

import (
	"github.com/rs/zerolog"

	"ticket-payment-service/internal/domain"
	"ticket-payment-service/internal/domain/model"
	"ticket-payment-service/internal/domain/ports/adapter"
)

// mapGatewayStatus translates the gateway's status vocabulary to ours. ok is
// false for strings we have never seen; the gateway's vocabulary can grow and
// an unknown status must degrade, not fail.
func mapGatewayStatus(s string) (model.PaymentStatus, bool) {
	switch s {
	case "pending":
		return model.PaymentStatusPending, true
	case "approved", "authorized":
		return model.PaymentStatusApproved, true
	case "rejected":
		return model.PaymentStatusRejected, true
	case "in_process", "in_mediation":
		return model.PaymentStatusInProcess, true
	case "refunded", "charged_back":
		return model.PaymentStatusRefunded, true
	case "cancelled":
		return model.PaymentStatusCancelled, true
	}
	return model.PaymentStatusInProcess, false
}

// InterpretResult normalizes a raw gateway response into a PaymentResult.
// For instant transfers the transfer code is optional; the gateway may not
// have issued one yet and the caller polls later. Encoder failures are
// logged and leave the image nil without failing the interpretation.
func InterpretResult(raw *adapter.RawPayment, ticketID string, method model.MethodKind, enc adapter.CodeEncoder, log *zerolog.Logger) (*model.PaymentResult, error) {
	if raw == nil || raw.ID == "" || raw.Status == "" {
		return nil, domain.ErrGatewayMalformed
	}

	status, known := mapGatewayStatus(raw.Status)
	detail := raw.StatusDetail
	if !known {
		detail = raw.Status
		log.Warn().Str("gateway_status", raw.Status).Msg("unrecognized gateway status, degrading to in_process")
	}

	res := &model.PaymentResult{
		GatewayPaymentID: raw.ID,
		Status:           status,
		StatusDetail:     detail,
		TicketID:         ticketID,
	}

	if method == model.MethodPix && raw.TransferCode != "" {
		res.TransferCode = raw.TransferCode
		img, err := enc.Encode(raw.TransferCode)
		if err != nil {
			log.Warn().Err(err).Str("ticket_id", ticketID).Msg("transfer code encoding failed")
		} else {
			res.TransferCodeImage = img
		}
	}

	return res, nil
}
