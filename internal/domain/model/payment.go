package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"razorpay-relay/internal/domain"
)

const (
	DefaultCurrency = "INR"

	// Provider-side limits for order notes.
	MaxNotes       = 15
	MaxNoteKeyLen  = 256
	MaxNoteValLen  = 256
	minorUnitScale = 100

	// Bounds checked before any decimal arithmetic.
	maxAmountLiteralLen = 32
	maxAmountExponent   = 20
	maxAmountIntDigits  = 17
)

var hundred = decimal.NewFromInt(minorUnitScale)

// OrderRequest is the inbound body of an order creation call.
// Amount is in major currency units; it accepts JSON numbers and numeric strings.
// It is kept raw so that falsy values (null, false, "", 0, "0") all read as missing.
type OrderRequest struct {
	Amount   json.RawMessage `json:"amount,omitempty"`
	OrderID  string          `json:"orderId,omitempty"`
	Currency string          `json:"currency,omitempty"`
	Notes    map[string]any  `json:"notes,omitempty"`
}

// ProviderOrderRequest is what gets sent to the payment provider.
type ProviderOrderRequest struct {
	Amount   int64          // minor units (paise for INR)
	Currency string
	Receipt  string
	Notes    map[string]any // never nil
}

// Payload renders the request in the provider SDK's map form.
func (r ProviderOrderRequest) Payload() map[string]interface{} {
	p := map[string]interface{}{
		"amount":   r.Amount,
		"currency": r.Currency,
		"notes":    r.Notes,
	}
	if r.Receipt != "" {
		p["receipt"] = r.Receipt
	}
	return p
}

// ProviderOrder is the provider's order record. It is relayed to the caller as-is.
type ProviderOrder map[string]any

// ToProviderRequest validates the request and converts it to the provider's shape.
func (r OrderRequest) ToProviderRequest() (ProviderOrderRequest, error) {
	amount, err := ParseAmount(r.Amount)
	if err != nil {
		return ProviderOrderRequest{}, err
	}
	minor, err := MinorUnits(amount)
	if err != nil {
		return ProviderOrderRequest{}, err
	}

	currency := strings.TrimSpace(r.Currency)
	if currency == "" {
		currency = DefaultCurrency
	}

	notes, err := normalizeNotes(r.Notes)
	if err != nil {
		return ProviderOrderRequest{}, err
	}

	return ProviderOrderRequest{
		Amount:   minor,
		Currency: currency,
		Receipt:  r.OrderID,
		Notes:    notes,
	}, nil
}

// ParseAmount reads a raw JSON amount. Absent, falsy and non-positive values
// are reported as "Amount is required".
func ParseAmount(raw json.RawMessage) (decimal.Decimal, error) {
	raw = bytes.TrimSpace(raw)
	switch string(raw) {
	case "", "null", "false", `""`:
		return decimal.Zero, errAmountRequired()
	}

	lit := string(raw)
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return decimal.Zero, errAmountNotNumber()
		}
		lit = strings.TrimSpace(s)
		if lit == "" {
			return decimal.Zero, errAmountRequired()
		}
	}
	if len(lit) > maxAmountLiteralLen {
		return decimal.Zero, errAmountNotNumber()
	}

	d, err := decimal.NewFromString(lit)
	if err != nil {
		return decimal.Zero, errAmountNotNumber()
	}
	if !d.IsPositive() {
		return decimal.Zero, errAmountRequired()
	}
	if err := checkMagnitude(d); err != nil {
		return decimal.Zero, err
	}
	return d, nil
}

// checkMagnitude keeps exponent and coefficient small enough that rescaling stays cheap.
func checkMagnitude(d decimal.Decimal) error {
	exp := int(d.Exponent())
	switch {
	case exp > maxAmountExponent:
		return domain.NewValidationError("amount", "Amount is too large")
	case exp < -maxAmountExponent:
		return domain.NewValidationError("amount", "Amount has too many decimal places")
	case d.NumDigits()+exp > maxAmountIntDigits:
		return domain.NewValidationError("amount", "Amount is too large")
	}
	return nil
}

func errAmountRequired() error {
	return domain.NewValidationError("amount", "Amount is required")
}

func errAmountNotNumber() error {
	return domain.NewValidationError("amount", "Amount must be a number")
}

// MinorUnits converts a major-unit amount to the provider's integer minor units
// (amount * 100, rounded half away from zero).
func MinorUnits(amount decimal.Decimal) (int64, error) {
	if err := checkMagnitude(amount); err != nil {
		return 0, err
	}
	minor := amount.Mul(hundred).Round(0)
	if !minor.Equal(decimal.NewFromInt(minor.IntPart())) {
		return 0, domain.NewValidationError("amount", "Amount is too large")
	}
	if minor.IntPart() < 1 {
		return 0, domain.NewValidationError("amount", "Amount must be at least one minor unit")
	}
	return minor.IntPart(), nil
}

func normalizeNotes(notes map[string]any) (map[string]any, error) {
	if notes == nil {
		return map[string]any{}, nil
	}
	if len(notes) > MaxNotes {
		return nil, domain.NewValidationError("notes", fmt.Sprintf("Notes can have at most %d entries", MaxNotes))
	}
	for k, v := range notes {
		if len(k) > MaxNoteKeyLen {
			return nil, domain.NewValidationError("notes", fmt.Sprintf("Note key exceeds %d characters", MaxNoteKeyLen))
		}
		switch val := v.(type) {
		case nil, bool, float64, string:
			if len(fmt.Sprint(val)) > MaxNoteValLen {
				return nil, domain.NewValidationError("notes", fmt.Sprintf("Note %q exceeds %d characters", k, MaxNoteValLen))
			}
		default:
			return nil, domain.NewValidationError("notes", fmt.Sprintf("Note %q must be a scalar value", k))
		}
	}
	return notes, nil
}

// VerificationRequest is the body the client posts after checkout completes.
type VerificationRequest struct {
	OrderID   string `json:"razorpay_order_id"`
	PaymentID string `json:"razorpay_payment_id"`
	Signature string `json:"razorpay_signature"`
}

func (r VerificationRequest) Validate() error {
	for _, f := range [...]struct{ name, val string }{
		{"razorpay_order_id", r.OrderID},
		{"razorpay_payment_id", r.PaymentID},
		{"razorpay_signature", r.Signature},
	} {
		if f.val == "" {
			return domain.NewValidationError(f.name, "Missing required parameters")
		}
	}
	return nil
}

type VerificationResult struct {
	Valid   bool
	Message string
}
