package usecase_test

import (
	"context"
	"io"
	"sync"

	"github.com/rs/zerolog"

	"razorpay-relay/internal/domain/model"
	"razorpay-relay/internal/domain/ports/adapter"
)

// =============================
// Gateway
// =============================

type MockOrderGateway struct {
	NameVal string

	CreateOrderFunc func(ctx context.Context, req model.ProviderOrderRequest) (model.ProviderOrder, error)

	mu    sync.Mutex
	calls []model.ProviderOrderRequest
}

var _ adapter.OrderGateway = (*MockOrderGateway)(nil)

func (m *MockOrderGateway) Name() string {
	if m.NameVal == "" {
		return "mockpay"
	}
	return m.NameVal
}

func (m *MockOrderGateway) CreateOrder(ctx context.Context, req model.ProviderOrderRequest) (model.ProviderOrder, error) {
	m.mu.Lock()
	m.calls = append(m.calls, req)
	m.mu.Unlock()
	if m.CreateOrderFunc != nil {
		return m.CreateOrderFunc(ctx, req)
	}
	return model.ProviderOrder{"id": "order_mock", "amount": req.Amount, "currency": req.Currency}, nil
}

func (m *MockOrderGateway) Calls() []model.ProviderOrderRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.ProviderOrderRequest(nil), m.calls...)
}

// =============================
// Verifier
// =============================

type MockVerifier struct {
	Valid bool
	calls int
}

func (m *MockVerifier) Verify(orderID, paymentID, signature string) bool {
	m.calls++
	return m.Valid
}

func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}
