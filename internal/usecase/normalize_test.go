//go:build !integration

package usecase_test

import (
	"errors"
	"testing"

	"ticket-payment-service/internal/domain"
	"ticket-payment-service/internal/domain/model"
	"ticket-payment-service/internal/usecase"
)

func TestNormalizeRequest(t *testing.T) {
	t.Run("should build a card request with defaulted installments", func(t *testing.T) {
		form := decodeForm(t, `{
			"transaction_amount": "50",
			"token": "card-token-1",
			"payment_method_id": "visa",
			"payer": {"email": "a@b.com"}
		}`)

		req, err := usecase.NormalizeRequest("credit_card", form, "Event ticket")
		if err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		if req.Method != model.MethodCreditCard {
			t.Errorf("expected method credit_card, got %s", req.Method)
		}
		if req.Installments < 1 {
			t.Errorf("expected installments >= 1, got %d", req.Installments)
		}
		if req.Amount != 50 {
			t.Errorf("expected amount 50, got %v", req.Amount)
		}
		if req.TicketID == "" {
			t.Error("expected a generated ticket ID")
		}
		if req.Payer.FirstName == "" || req.Payer.LastName == "" {
			t.Error("expected placeholder payer names")
		}
	})

	t.Run("should keep explicit installments", func(t *testing.T) {
		form := decodeForm(t, `{
			"transaction_amount": 120.5,
			"token": "tok",
			"installments": 3,
			"payer": {"email": "a@b.com", "first_name": "Ana", "last_name": "Lima"}
		}`)

		req, err := usecase.NormalizeRequest("credit_card", form, "desc")
		if err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		if req.Installments != 3 {
			t.Errorf("expected 3 installments, got %d", req.Installments)
		}
		if req.Payer.FirstName != "Ana" {
			t.Errorf("expected provided first name to survive, got %q", req.Payer.FirstName)
		}
	})

	t.Run("should fail with field payer.email when email is missing", func(t *testing.T) {
		form := decodeForm(t, `{"transaction_amount": "50", "token": "tok", "payer": {}}`)

		_, err := usecase.NormalizeRequest("credit_card", form, "desc")
		var ve *domain.ValidationError
		if !errors.As(err, &ve) {
			t.Fatalf("expected a ValidationError, got %v", err)
		}
		if ve.Field != "payer.email" {
			t.Errorf("expected field payer.email, got %q", ve.Field)
		}
	})

	t.Run("should fail with field token for card payments without a token", func(t *testing.T) {
		form := decodeForm(t, `{"transaction_amount": "50", "payer": {"email": "a@b.com"}}`)

		_, err := usecase.NormalizeRequest("credit_card", form, "desc")
		var ve *domain.ValidationError
		if !errors.As(err, &ve) {
			t.Fatalf("expected a ValidationError, got %v", err)
		}
		if ve.Field != "token" {
			t.Errorf("expected field token, got %q", ve.Field)
		}
	})

	t.Run("should fail with field amount on non-numeric or non-positive amounts", func(t *testing.T) {
		for _, raw := range []string{`"abc"`, `"0"`, `-5`, `null`} {
			form := decodeForm(t, `{"transaction_amount": `+raw+`, "payer": {"email": "a@b.com"}}`)
			_, err := usecase.NormalizeRequest("pix", form, "desc")
			var ve *domain.ValidationError
			if !errors.As(err, &ve) || ve.Field != "amount" {
				t.Errorf("amount=%s: expected ValidationError on amount, got %v", raw, err)
			}
		}
	})

	t.Run("should force the canonical pix method over the client value", func(t *testing.T) {
		form := decodeForm(t, `{
			"transaction_amount": "50",
			"payment_method_id": "definitely_not_pix",
			"payer": {"email": "a@b.com"}
		}`)

		req, err := usecase.NormalizeRequest("pix", form, "desc")
		if err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		if req.MethodID != "pix" {
			t.Errorf("expected method id pix, got %q", req.MethodID)
		}
	})

	t.Run("should reject unknown method selectors", func(t *testing.T) {
		form := decodeForm(t, `{"transaction_amount": "50", "payer": {"email": "a@b.com"}}`)

		_, err := usecase.NormalizeRequest("wire_transfer", form, "desc")
		var ve *domain.ValidationError
		if !errors.As(err, &ve) {
			t.Fatalf("expected a ValidationError, got %v", err)
		}
		if ve.Field != "selectedPaymentMethod" {
			t.Errorf("expected field selectedPaymentMethod, got %q", ve.Field)
		}
	})

	t.Run("should generate a fresh ticket ID per call", func(t *testing.T) {
		form := decodeForm(t, `{"transaction_amount": "50", "payer": {"email": "a@b.com"}}`)

		first, err := usecase.NormalizeRequest("pix", form, "desc")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		second, err := usecase.NormalizeRequest("pix", form, "desc")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if first.TicketID == second.TicketID {
			t.Error("expected distinct ticket IDs per normalization")
		}
	})
}
