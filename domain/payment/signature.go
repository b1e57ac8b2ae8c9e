package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
)

// SignatureVerifier checks razorpay checkout signatures:
// hex(HMAC-SHA256(secret, gatewayOrderID + "|" + gatewayPaymentID)).
type SignatureVerifier struct {
	secret []byte
}

func NewSignatureVerifier(secret string) (*SignatureVerifier, error) {
	if secret == "" {
		return nil, errors.New("payment signature verifier: secret is required")
	}
	return &SignatureVerifier{secret: []byte(secret)}, nil
}

// Sign computes the expected signature.
func (v *SignatureVerifier) Sign(gatewayOrderID, gatewayPaymentID string) string {
	mac := hmac.New(sha256.New, v.secret)
	mac.Write([]byte(gatewayOrderID + "|" + gatewayPaymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify compares in constant time.
func (v *SignatureVerifier) Verify(gatewayOrderID, gatewayPaymentID, signature string) error {
	expected := v.Sign(gatewayOrderID, gatewayPaymentID)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return NewSignatureInvalidError()
	}
	return nil
}
