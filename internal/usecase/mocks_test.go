//go:build !integration

// File: internal/usecase/mocks_test.go
package usecase_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"ticket-payment-service/internal/domain"
	"ticket-payment-service/internal/domain/model"
	"ticket-payment-service/internal/domain/ports/adapter"
	"ticket-payment-service/internal/domain/ports/repository"
	"ticket-payment-service/internal/usecase"
)

func newTestLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

/// decodeForm builds a PaymentForm the same way the handler does: from JSON.
func decodeForm(t *testing.T, raw string) *usecase.PaymentForm {
	t.Helper()
	var f usecase.PaymentForm
	if err := json.Unmarshal([]byte(raw), &f); err != nil {
		t.Fatalf("decode form: %v", err)
	}
	return &f
}

// MockLedgerRepo is a small in-memory ledger used by unit tests.
type MockLedgerRepo struct {
	mu      sync.Mutex
	byID    map[string]*model.LedgerEntry
	byGW    map[string]string // gateway id -> ticket id
	saveErr error             // simulate Create failures
}

func NewMockLedgerRepo() *MockLedgerRepo {
	return &MockLedgerRepo{
		byID: make(map[string]*model.LedgerEntry),
		byGW: make(map[string]string),
	}
}

func (m *MockLedgerRepo) Create(ctx context.Context, tx repository.Tx, e *model.LedgerEntry) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[e.TicketID]; ok {
		return domain.ErrAlreadyExists
	}
	cp := *e
	m.byID[e.TicketID] = &cp
	if e.GatewayPaymentID != "" {
		m.byGW[e.GatewayPaymentID] = e.TicketID
	}
	return nil
}

func (m *MockLedgerRepo) AttachGatewayID(ctx context.Context, tx repository.Tx, ticketID, gatewayPaymentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.byID[ticketID]
	if !ok {
		return domain.ErrNotFound
	}
	if e.GatewayPaymentID != "" && e.GatewayPaymentID != gatewayPaymentID {
		return domain.ErrConflict
	}
	e.GatewayPaymentID = gatewayPaymentID
	m.byGW[gatewayPaymentID] = ticketID
	return nil
}

func (m *MockLedgerRepo) FindByTicketID(ctx context.Context, tx repository.Tx, ticketID string) (*model.LedgerEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.byID[ticketID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (m *MockLedgerRepo) FindByGatewayID(ctx context.Context, tx repository.Tx, gatewayPaymentID string) (*model.LedgerEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byGW[gatewayPaymentID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *m.byID[id]
	return &cp, nil
}

func (m *MockLedgerRepo) ApplyStatus(ctx context.Context, tx repository.Tx, ticketID string, from, to model.PaymentStatus, detail string, fulfill bool) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.byID[ticketID]
	if !ok || e.Status != from {
		return false, nil
	}
	e.Status = to
	e.StatusDetail = detail
	if fulfill {
		e.Fulfilled = true
	}
	e.UpdatedAt = time.Now()
	return true, nil
}

func (m *MockLedgerRepo) MarkReconcileFailed(ctx context.Context, tx repository.Tx, ticketID string, failed bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.byID[ticketID]
	if !ok {
		return domain.ErrNotFound
	}
	e.ReconcileFailed = failed
	return nil
}

func (m *MockLedgerRepo) ListStalePending(ctx context.Context, tx repository.Tx, olderThan time.Time, limit int) ([]*model.LedgerEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.LedgerEntry
	for _, e := range m.byID {
		if e.GatewayPaymentID == "" {
			continue
		}
		stale := (e.Status == model.PaymentStatusPending || e.Status == model.PaymentStatusInProcess) && e.UpdatedAt.Before(olderThan)
		if e.ReconcileFailed || stale {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
}

// get returns the live entry for assertions.
func (m *MockLedgerRepo) get(ticketID string) *model.LedgerEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.byID[ticketID]
}

// MockTxManager runs the callback without a real transaction.
type MockTxManager struct {
	WithTxFunc func(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error
}

func NewMockTxManager() *MockTxManager { return &MockTxManager{} }

func (m *MockTxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	if m.WithTxFunc != nil {
		return m.WithTxFunc(ctx, txOpt, fn)
	}
	return fn(ctx, nil)
}

// MockPaymentGateway simulates the external payment processor.
type MockPaymentGateway struct {
	mu              sync.Mutex
	SubmitFunc      func(ctx context.Context, req *model.PaymentRequest) (*adapter.RawPayment, error)
	FetchStatusFunc func(ctx context.Context, gatewayPaymentID string) (*adapter.RawPayment, error)
	submitCalls     int
	fetchCalls      int
}

func (m *MockPaymentGateway) Submit(ctx context.Context, req *model.PaymentRequest) (*adapter.RawPayment, error) {
	m.mu.Lock()
	m.submitCalls++
	m.mu.Unlock()
	if m.SubmitFunc != nil {
		return m.SubmitFunc(ctx, req)
	}
	return &adapter.RawPayment{ID: "gw-1", Status: "pending"}, nil
}

func (m *MockPaymentGateway) FetchStatus(ctx context.Context, gatewayPaymentID string) (*adapter.RawPayment, error) {
	m.mu.Lock()
	m.fetchCalls++
	m.mu.Unlock()
	if m.FetchStatusFunc != nil {
		return m.FetchStatusFunc(ctx, gatewayPaymentID)
	}
	return &adapter.RawPayment{ID: gatewayPaymentID, Status: "pending"}, nil
}

func (m *MockPaymentGateway) SubmitCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.submitCalls
}

func (m *MockPaymentGateway) FetchCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fetchCalls
}

// MockCodeEncoder renders a fixed image, or fails when told to.
type MockCodeEncoder struct {
	EncodeFunc func(text string) ([]byte, error)
}

func (m *MockCodeEncoder) Encode(text string) ([]byte, error) {
	if m.EncodeFunc != nil {
		return m.EncodeFunc(text)
	}
	return []byte("png-bytes"), nil
}

// MockMailer counts deliveries.
type MockMailer struct {
	mu         sync.Mutex
	DeliverErr error
	deliveries []string // ticket IDs
}

func (m *MockMailer) Deliver(ctx context.Context, ticketID, payerEmail string) error {
	if m.DeliverErr != nil {
		return m.DeliverErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deliveries = append(m.deliveries, ticketID)
	return nil
}

func (m *MockMailer) Deliveries() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.deliveries...)
}
