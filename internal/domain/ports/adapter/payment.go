package adapter

import (
	"context"

	"razorpay-relay/internal/domain/model"
)

// OrderGateway is the hex port for the payment provider's order API.
type OrderGateway interface {
	Name() string

	// CreateOrder registers an order with the provider and returns the provider's
	// order record unmodified. Failures are returned as *domain.UpstreamError.
	CreateOrder(ctx context.Context, req model.ProviderOrderRequest) (model.ProviderOrder, error)
}
