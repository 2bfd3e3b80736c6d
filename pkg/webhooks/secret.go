package webhooks

import (
	"crypto/rand"
	"math/big"
)

const secretAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// DefaultSecretLength is used by GenerateSecret when no length is given.
const DefaultSecretLength = 32

// GenerateSecret returns a random alphanumeric string suitable for use as a
// shared signing secret. Each character is drawn independently and uniformly
// from a-z, A-Z, 0-9. Lengths <= 0 fall back to DefaultSecretLength.
//
// Panics only if the system's secure random source is unavailable.
func GenerateSecret(length int) string {
	if length <= 0 {
		length = DefaultSecretLength
	}

	alphabetSize := big.NewInt(int64(len(secretAlphabet)))
	out := make([]byte, length)
	for i := range out {
		n, err := rand.Int(rand.Reader, alphabetSize)
		if err != nil {
			panic("webhooks: secure random source unavailable: " + err.Error())
		}
		out[i] = secretAlphabet[n.Int64()]
	}
	return string(out)
}
