package payment

import (
	"context"
	"fmt"
	"sync"
	"time"

	"razorpay-relay/internal/domain/model"
	"razorpay-relay/internal/domain/ports/adapter"
)

var _ adapter.OrderGateway = (*NoopOrderGateway)(nil)

// NoopOrderGateway is a simple in-memory gateway for dev runs and tests.
// It answers with an order shaped like the provider's.
type NoopOrderGateway struct {
	mu  sync.Mutex
	seq int64
	now func() time.Time
}

func NewNoopOrderGateway() *NoopOrderGateway {
	return &NoopOrderGateway{now: time.Now}
}

func (g *NoopOrderGateway) Name() string { return "noop" }

func (g *NoopOrderGateway) next() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	return fmt.Sprintf("order_noop%d", g.seq)
}

func (g *NoopOrderGateway) CreateOrder(ctx context.Context, req model.ProviderOrderRequest) (model.ProviderOrder, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	order := model.ProviderOrder{
		"id":          g.next(),
		"entity":      "order",
		"amount":      req.Amount,
		"amount_paid": int64(0),
		"amount_due":  req.Amount,
		"currency":    req.Currency,
		"status":      "created",
		"attempts":    0,
		"notes":       req.Notes,
		"created_at":  g.now().Unix(),
	}
	if req.Receipt != "" {
		order["receipt"] = req.Receipt
	}
	return order, nil
}
