// File: internal/infra/adapters/payment/razorpay_gateway.go
package payment

import (
	"context"
	"errors"

	razorpay "github.com/razorpay/razorpay-go"

	"razorpay-relay/internal/domain"
	"razorpay-relay/internal/domain/model"
	"razorpay-relay/internal/domain/ports/adapter"
)

var _ adapter.OrderGateway = (*RazorpayGateway)(nil)

// orderCreator is the slice of the SDK's order resource we depend on.
type orderCreator interface {
	Create(data map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
}

// RazorpayGateway implements adapter.OrderGateway on top of the official SDK.
type RazorpayGateway struct {
	orders orderCreator
}

// NewRazorpayGateway never fails: the SDK accepts empty credentials and only
// rejects them when the first request reaches the provider.
func NewRazorpayGateway(keyID, keySecret string) *RazorpayGateway {
	client := razorpay.NewClient(keyID, keySecret)
	return &RazorpayGateway{orders: client.Order}
}

func (g *RazorpayGateway) Name() string { return "razorpay" }

// CreateOrder calls the SDK's Order.Create. The SDK call is not context-aware;
// it is raced against ctx so callers stop waiting once their request is gone.
func (g *RazorpayGateway) CreateOrder(ctx context.Context, req model.ProviderOrderRequest) (model.ProviderOrder, error) {
	type result struct {
		order map[string]interface{}
		err   error
	}
	done := make(chan result, 1)
	go func() {
		order, err := g.orders.Create(req.Payload(), nil)
		done <- result{order: order, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, domain.NewUpstreamError(g.Name(), ctx.Err())
	case r := <-done:
		if r.err != nil {
			return nil, domain.NewUpstreamError(g.Name(), r.err)
		}
		if r.order == nil {
			return nil, domain.NewUpstreamError(g.Name(), errors.New("empty order response"))
		}
		return model.ProviderOrder(r.order), nil
	}
}
