package webhooks

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Sign computes the lowercase hex HMAC-SHA256 of body keyed by secret.
// The bytes passed here must be exactly the bytes placed on the wire.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether signature matches Sign(secret, body). Receivers must
// pass the raw request body bytes, before any JSON parsing, since
// re-serialization may change byte layout. Comparison is constant-time.
func Verify(secret, signature string, body []byte) bool {
	expected := Sign(secret, body)
	return hmac.Equal([]byte(expected), []byte(signature))
}
