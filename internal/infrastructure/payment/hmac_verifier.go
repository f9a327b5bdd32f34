// Package payment verifies online payment gateway callbacks.
package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	appledger "github.com/mtax/backend/internal/application/ledger"
)

var _ appledger.SignatureVerifier = (*HMACVerifier)(nil)

// HMACVerifier checks HMAC-SHA256 signatures the gateway attaches to
// payment callbacks and webhook deliveries. Signatures are lowercase hex.
type HMACVerifier struct {
	keySecret     []byte
	webhookSecret []byte
}

// NewHMACVerifier returns a verifier. keySecret signs "order_id|payment_id";
// webhookSecret signs raw webhook bodies and may be empty when webhooks are
// not used.
func NewHMACVerifier(keySecret, webhookSecret string) *HMACVerifier {
	return &HMACVerifier{
		keySecret:     []byte(keySecret),
		webhookSecret: []byte(webhookSecret),
	}
}

// SignPayment computes the callback signature for an order and payment
func (v *HMACVerifier) SignPayment(orderID, paymentID string) string {
	return sign(v.keySecret, []byte(orderID+"|"+paymentID))
}

// VerifyPaymentSignature reports whether signature matches the callback.
// An unconfigured key secret rejects everything.
func (v *HMACVerifier) VerifyPaymentSignature(orderID, paymentID, signature string) bool {
	if len(v.keySecret) == 0 {
		return false
	}
	return equalHex(v.SignPayment(orderID, paymentID), signature)
}

// WebhookEnabled reports whether a webhook secret is configured
func (v *HMACVerifier) WebhookEnabled() bool {
	return len(v.webhookSecret) > 0
}

// SignWebhook computes the signature of a raw webhook body
func (v *HMACVerifier) SignWebhook(body []byte) string {
	return sign(v.webhookSecret, body)
}

// VerifyWebhookSignature checks the signature over the exact bytes received
func (v *HMACVerifier) VerifyWebhookSignature(body []byte, signature string) bool {
	if !v.WebhookEnabled() {
		return false
	}
	return equalHex(v.SignWebhook(body), signature)
}

func sign(secret, message []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(message)
	return hex.EncodeToString(mac.Sum(nil))
}

func equalHex(expected, got string) bool {
	got = strings.ToLower(strings.TrimSpace(got))
	return hmac.Equal([]byte(expected), []byte(got))
}
