package web

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"ticket-payment-service/internal/domain"
	"ticket-payment-service/internal/domain/model"
	"ticket-payment-service/internal/infra/logging"
	"ticket-payment-service/internal/usecase"
)

type processPaymentRequest struct {
	SelectedPaymentMethod string               `json:"selectedPaymentMethod"`
	FormData              *usecase.PaymentForm `json:"formData"`
}

type processPaymentResponse struct {
	Status        string `json:"status"`
	Message       string `json:"message"`
	PaymentID     string `json:"payment_id"`
	PaymentStatus string `json:"payment_status"`
	StatusDetail  string `json:"status_detail"`
	TicketID      string `json:"ticket_id"`
	PixQRCode     string `json:"pix_qr_code"`
	PixQRCodeB64  string `json:"pix_qr_code_base64"`
}

type errorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": "ticket payment service is up",
	})
}

func (s *Server) handleProcessPayment(w http.ResponseWriter, r *http.Request) {
	log := logging.With(r.Context(), s.log)

	var req processPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.FormData == nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Status:  "error",
			Message: "invalid request body",
			Error:   "malformed JSON payload",
		})
		return
	}

	result, err := s.checkout.Submit(r.Context(), req.SelectedPaymentMethod, req.FormData)
	if err != nil {
		var ve *domain.ValidationError
		switch {
		case errors.As(err, &ve):
			writeJSON(w, http.StatusBadRequest, errorResponse{
				Status:  "error",
				Message: "payment validation failed",
				Error:   ve.Error(),
			})
		case errors.Is(err, domain.ErrGatewayRejected):
			writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
				Status:  "error",
				Message: "payment rejected by the gateway",
				Error:   err.Error(),
			})
		case errors.Is(err, domain.ErrGatewayTransient), errors.Is(err, domain.ErrGatewayMalformed):
			log.Error().Err(err).Msg("gateway failure during payment submission")
			writeJSON(w, http.StatusBadGateway, errorResponse{
				Status:  "error",
				Message: "payment gateway unavailable",
				Error:   err.Error(),
			})
		default:
			log.Error().Err(err).Msg("internal failure during payment submission")
			writeJSON(w, http.StatusInternalServerError, errorResponse{
				Status:  "error",
				Message: "failed to process payment",
				Error:   err.Error(),
			})
		}
		return
	}

	resp := processPaymentResponse{
		Status:        "success",
		Message:       "payment processed",
		PaymentID:     result.GatewayPaymentID,
		PaymentStatus: string(result.Status),
		StatusDetail:  result.StatusDetail,
		TicketID:      result.TicketID,
		PixQRCode:     result.TransferCode,
	}
	if len(result.TransferCodeImage) > 0 {
		resp.PixQRCodeB64 = "data:image/png;base64," + base64.StdEncoding.EncodeToString(result.TransferCodeImage)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePaymentStatus(w http.ResponseWriter, r *http.Request) {
	paymentID := chi.URLParam(r, "payment_id")

	status, detail, err := s.checkout.Status(r.Context(), paymentID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorResponse{
				Status:  "error",
				Message: "payment not found",
				Error:   "unknown payment id",
			})
			return
		}
		logging.With(r.Context(), s.log).Error().Err(err).Str("gateway_payment_id", paymentID).Msg("status query failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Status:  "error",
			Message: "failed to check payment status",
			Error:   err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":                "success",
		"payment_status":        string(status),
		"payment_status_detail": detail,
	})
}

// notificationID tolerates both JSON encodings the gateway uses for data.id,
// a bare number and a quoted string.
type notificationID string

func (n *notificationID) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "null" {
		s = ""
	}
	*n = notificationID(s)
	return nil
}

type webhookRequest struct {
	Type string `json:"type"`
	Data struct {
		ID notificationID `json:"id"`
	} `json:"data"`
}

// handleWebhook acks as soon as the event parses; reconciliation itself runs
// on the worker pool so sender-side retry timers never see backoff delays.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	log := logging.With(r.Context(), s.log)

	var req webhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Status:  "error",
			Message: "invalid notification payload",
			Error:   "malformed JSON payload",
		})
		return
	}

	ev := model.NotificationEvent{
		Kind:             model.NotificationKindOther,
		GatewayPaymentID: string(req.Data.ID),
	}
	if req.Type == "payment" {
		ev.Kind = model.NotificationKindPayment
		if ev.GatewayPaymentID == "" {
			writeJSON(w, http.StatusBadRequest, errorResponse{
				Status:  "error",
				Message: "invalid notification payload",
				Error:   "payment notification without data.id",
			})
			return
		}
	}

	task := func(ctx context.Context) error {
		return s.reconcile.OnNotification(ctx, ev)
	}
	if err := s.pool.Submit(task); err != nil {
		// Queue saturated; do the work on the request goroutine rather than
		// dropping the notification.
		log.Warn().Err(err).Msg("worker queue full, reconciling inline")
		if err := s.reconcile.OnNotification(r.Context(), ev); err != nil {
			log.Error().Err(err).Msg("inline reconciliation failed")
		}
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
