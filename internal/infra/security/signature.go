// File: internal/infra/security/signature.go
package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// SignatureVerifier checks checkout signatures issued by the payment provider.
// The provider signs "<order_id>|<payment_id>" with HMAC-SHA256 under the
// merchant key secret and sends the lowercase hex digest.
type SignatureVerifier struct {
	secret []byte
}

// NewSignatureVerifier accepts an empty secret; signatures then simply fail to match
// anything the provider produced.
func NewSignatureVerifier(secret string) *SignatureVerifier {
	return &SignatureVerifier{secret: []byte(secret)}
}

// Sign returns the hex HMAC-SHA256 of "<orderID>|<paymentID>".
func (v *SignatureVerifier) Sign(orderID, paymentID string) string {
	mac := hmac.New(sha256.New, v.secret)
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether signature is exactly the expected digest.
// The comparison is constant-time.
func (v *SignatureVerifier) Verify(orderID, paymentID, signature string) bool {
	return hmac.Equal([]byte(v.Sign(orderID, paymentID)), []byte(signature))
}
