// File: internal/usecase/payment_uc.go
package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"razorpay-relay/internal/domain"
	"razorpay-relay/internal/domain/model"
	"razorpay-relay/internal/domain/ports/adapter"
	"razorpay-relay/internal/infra/logging"
	"razorpay-relay/internal/infra/metrics"
)

// Compile-time check
var _ PaymentUseCase = (*paymentUC)(nil)

const MsgPaymentVerified = "Payment verified successfully"

type PaymentUseCase interface {
	// CreateOrder validates the request, converts the amount to minor units and
	// relays the order to the provider. The provider's order is returned as-is.
	CreateOrder(ctx context.Context, req model.OrderRequest) (model.ProviderOrder, error)
	// VerifyPayment checks the checkout signature. A mismatch is reported as
	// domain.ErrSignatureMismatch.
	VerifyPayment(ctx context.Context, req model.VerificationRequest) (model.VerificationResult, error)
	// GatewayReady reports whether a provider client was constructed.
	GatewayReady() bool
}

// Verifier is satisfied by *security.SignatureVerifier.
type Verifier interface {
	Verify(orderID, paymentID, signature string) bool
}

type paymentUC struct {
	gateway  adapter.OrderGateway
	verifier Verifier
	log      *zerolog.Logger
}

func NewPaymentUseCase(gateway adapter.OrderGateway, verifier Verifier, logger *zerolog.Logger) *paymentUC {
	return &paymentUC{gateway: gateway, verifier: verifier, log: logger}
}

func (u *paymentUC) GatewayReady() bool { return u.gateway != nil }

func (u *paymentUC) CreateOrder(ctx context.Context, req model.OrderRequest) (model.ProviderOrder, error) {
	ctx = logging.WithReceipt(ctx, req.OrderID)
	log := logging.With(ctx, u.log)
	defer logging.TraceDuration(log, "PaymentUC.CreateOrder")()

	preq, err := req.ToProviderRequest()
	if err != nil {
		metrics.IncOrder("invalid")
		log.Warn().Err(err).Msg("order request rejected")
		return nil, err
	}
	if u.gateway == nil {
		metrics.IncOrder("failed")
		return nil, domain.NewUpstreamError("none", errors.New("payment gateway not configured"))
	}

	log.Info().RawJSON("options", mustJSON(preq.Payload())).Msg("creating provider order")

	start := time.Now()
	order, err := u.gateway.CreateOrder(ctx, preq)
	if err != nil {
		metrics.ObserveOrder("failed", time.Since(start))
		log.Error().Err(err).Str("provider", u.gateway.Name()).Msg("provider order creation failed")
		if !errors.Is(err, domain.ErrUpstream) {
			err = domain.NewUpstreamError(u.gateway.Name(), err)
		}
		return nil, err
	}
	metrics.ObserveOrder("created", time.Since(start))
	metrics.AddOrderAmount(preq.Currency, preq.Amount)

	log.Info().RawJSON("order", mustJSON(order)).Msg("provider order created")
	return order, nil
}

func (u *paymentUC) VerifyPayment(ctx context.Context, req model.VerificationRequest) (model.VerificationResult, error) {
	log := logging.With(ctx, u.log)

	if err := req.Validate(); err != nil {
		metrics.IncVerify("fail", "missing_params")
		log.Warn().Err(err).Msg("verification request rejected")
		return model.VerificationResult{Valid: false, Message: err.Error()}, err
	}

	if !u.verifier.Verify(req.OrderID, req.PaymentID, req.Signature) {
		metrics.IncVerify("fail", "invalid_signature")
		log.Warn().
			Str("razorpay_order_id", req.OrderID).
			Str("razorpay_payment_id", req.PaymentID).
			Msg("payment signature mismatch")
		return model.VerificationResult{Valid: false, Message: "Invalid signature"}, domain.ErrSignatureMismatch
	}

	metrics.IncVerify("ok", "")
	log.Info().
		Str("razorpay_order_id", req.OrderID).
		Str("razorpay_payment_id", req.PaymentID).
		Msg("payment verified")
	return model.VerificationResult{Valid: true, Message: MsgPaymentVerified}, nil
}

func mustJSON(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		return []byte("null")
	}
	return b
}
