// Package payment talks to the external payment processor and verifies
// its callbacks.  Order creation goes over the processor's REST API;
// callback authenticity is established by recomputing an HMAC over the
// order and payment ids with the shared key secret.
package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// SignPayload computes the hex-encoded HMAC-SHA256 of "orderID|paymentID"
// under the shared secret.  This is the exact payload the processor
// signs when it calls back after a completed payment.
func SignPayload(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature reports whether the callback-supplied signature
// matches the expected HMAC for the order/payment pair.  The comparison
// is constant time so the check leaks nothing about the expected value.
func VerifySignature(secret, orderID, paymentID, signature string) bool {
	expected := SignPayload(secret, orderID, paymentID)
	return hmac.Equal([]byte(expected), []byte(signature))
}
