package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"ticket-payment-service/internal/domain"
	"ticket-payment-service/internal/domain/model"
	"ticket-payment-service/internal/domain/ports/adapter"
)

var _ adapter.PaymentGateway = (*MercadoPagoGateway)(nil)

// MercadoPagoGateway implements adapter.PaymentGateway using direct HTTP
// calls against the MercadoPago payments API.
type MercadoPagoGateway struct {
	accessToken string
	baseURL     string
	client      *http.Client
}

func NewMercadoPagoGateway(accessToken, baseURL string, timeout time.Duration) *MercadoPagoGateway {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &MercadoPagoGateway{
		accessToken: accessToken,
		baseURL:     baseURL,
		client:      &http.Client{Timeout: timeout},
	}
}

// mpPayment mirrors the subset of the gateway's payment object we care
// about. Every field is optional on the wire; presence is decided by the
// interpreter, not here.
type mpPayment struct {
	ID                 json.Number `json:"id"`
	Status             string      `json:"status"`
	StatusDetail       string      `json:"status_detail"`
	PointOfInteraction struct {
		TransactionData struct {
			QRCode string `json:"qr_code"`
		} `json:"transaction_data"`
	} `json:"point_of_interaction"`
	Message string `json:"message"`
}

func (p *mpPayment) toRaw() *adapter.RawPayment {
	return &adapter.RawPayment{
		ID:           p.ID.String(),
		Status:       p.Status,
		StatusDetail: p.StatusDetail,
		TransferCode: p.PointOfInteraction.TransactionData.QRCode,
	}
}

// Submit creates the payment. The ticket ID doubles as the idempotency key
// so retrying a transient failure cannot charge twice.
func (g *MercadoPagoGateway) Submit(ctx context.Context, pr *model.PaymentRequest) (*adapter.RawPayment, error) {
	body := map[string]interface{}{
		"transaction_amount": pr.Amount,
		"description":        pr.Description,
		"payment_method_id":  pr.MethodID,
		"payer": map[string]string{
			"email":      pr.Payer.Email,
			"first_name": pr.Payer.FirstName,
			"last_name":  pr.Payer.LastName,
		},
		"metadata": map[string]string{
			"ticket_id": pr.TicketID,
		},
	}
	switch pr.Method {
	case model.MethodCreditCard:
		body["token"] = pr.CardToken
		body["installments"] = pr.Installments
	case model.MethodPix:
		body["payment_type_id"] = "bank_transfer"
	}

	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal payment request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/v1/payments", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.accessToken)
	req.Header.Set("X-Idempotency-Key", pr.TicketID)

	return g.do(req)
}

func (g *MercadoPagoGateway) FetchStatus(ctx context.Context, gatewayPaymentID string) (*adapter.RawPayment, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/v1/payments/"+gatewayPaymentID, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.accessToken)

	return g.do(req)
}

func (g *MercadoPagoGateway) do(req *http.Request) (*adapter.RawPayment, error) {
	resp, err := g.client.Do(req)
	if err != nil {
		// Network failures and timeouts are retryable.
		return nil, fmt.Errorf("send request: %v: %w", err, domain.ErrGatewayTransient)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %v: %w", err, domain.ErrGatewayTransient)
	}

	switch {
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("gateway returned %d: %w", resp.StatusCode, domain.ErrGatewayTransient)
	case resp.StatusCode == http.StatusNotFound:
		return nil, domain.ErrNotFound
	case resp.StatusCode >= 400:
		var p mpPayment
		_ = json.Unmarshal(raw, &p)
		return nil, fmt.Errorf("gateway returned %d (%s): %w", resp.StatusCode, p.Message, domain.ErrGatewayRejected)
	}

	var p mpPayment
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("unmarshal response: %v: %w", err, domain.ErrGatewayMalformed)
	}
	return p.toRaw(), nil
}
