package usecase

import (
	"bytes"
	"encoding/json"
	"net/mail"
	"strconv"

	"github.com/google/uuid"

	"ticket-payment-service/internal/domain"
	"ticket-payment-service/internal/domain/model"
)

const (
	placeholderFirstName = "Guest"
	placeholderLastName  = "Ticket Holder"
)

// Amount tolerates both JSON numbers and numeric strings; checkout forms send
// either depending on the card SDK in use.
type Amount struct {
	raw string
}

func (a *Amount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 1 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		a.raw = s
		return nil
	}
	a.raw = string(b)
	return nil
}

func (a Amount) Float() (float64, error) {
	return strconv.ParseFloat(a.raw, 64)
}

// PaymentForm is the raw, untrusted client form. Field names follow the
// gateway checkout SDK's wire format.
type PaymentForm struct {
	Amount          Amount `json:"transaction_amount"`
	PaymentMethodID string `json:"payment_method_id"`
	Token           string `json:"token"`
	Installments    int    `json:"installments"`
	Payer           struct {
		Email     string `json:"email"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	} `json:"payer"`
}

// NormalizeRequest validates the raw form into a method-specific
// PaymentRequest. A fresh ticket ID is generated per call; no other side
// effects. Failures are *domain.ValidationError naming the offending field.
func NormalizeRequest(selectedMethod string, form *PaymentForm, description string) (*model.PaymentRequest, error) {
	amount, err := form.Amount.Float()
	if err != nil || amount <= 0 {
		return nil, &domain.ValidationError{Field: "amount", Reason: "must be a positive number"}
	}

	if form.Payer.Email == "" {
		return nil, &domain.ValidationError{Field: "payer.email", Reason: "required"}
	}
	if _, err := mail.ParseAddress(form.Payer.Email); err != nil {
		return nil, &domain.ValidationError{Field: "payer.email", Reason: "not a valid address"}
	}

	req := &model.PaymentRequest{
		TicketID:    uuid.NewString(),
		Amount:      amount,
		Description: description,
		Payer: model.Payer{
			Email:     form.Payer.Email,
			FirstName: form.Payer.FirstName,
			LastName:  form.Payer.LastName,
		},
	}
	if req.Payer.FirstName == "" {
		req.Payer.FirstName = placeholderFirstName
	}
	if req.Payer.LastName == "" {
		req.Payer.LastName = placeholderLastName
	}

	switch selectedMethod {
	case string(model.MethodCreditCard):
		if form.Token == "" {
			return nil, &domain.ValidationError{Field: "token", Reason: "required for card payments"}
		}
		req.Method = model.MethodCreditCard
		req.MethodID = form.PaymentMethodID
		req.CardToken = form.Token
		req.Installments = form.Installments
		if req.Installments < 1 {
			req.Installments = 1
		}
	case string(model.MethodPix):
		// The client's payment_method_id is ignored on this path; the
		// gateway's canonical instant-transfer method is always used.
		req.Method = model.MethodPix
		req.MethodID = "pix"
	default:
		return nil, &domain.ValidationError{Field: "selectedPaymentMethod", Reason: "unknown payment method"}
	}

	return req, nil
}
