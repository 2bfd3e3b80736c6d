package webhooks

import (
	"strings"
	"testing"
)

func TestSign(t *testing.T) {
	signature := Sign("this-is-a-secret", []byte(`{"hello":"world"}`))

	if len(signature) != 64 {
		t.Errorf("Expected 64 hex characters for SHA-256, got %d", len(signature))
	}
	if signature != strings.ToLower(signature) {
		t.Error("Expected lowercase hex encoding")
	}

	// Deterministic for the same secret and bytes.
	if Sign("this-is-a-secret", []byte(`{"hello":"world"}`)) != signature {
		t.Error("Expected signing to be deterministic")
	}
}

func TestVerify(t *testing.T) {
	secret := "this-is-a-secret"
	body := []byte(`{"id":"abc","type":"did_something"}`)
	signature := Sign(secret, body)

	flipped := append([]byte(nil), body...)
	flipped[len(flipped)-1] ^= 1

	tests := []struct {
		name      string
		secret    string
		signature string
		body      []byte
		want      bool
	}{
		{"valid", secret, signature, body, true},
		{"wrong secret", "other-secret", signature, body, false},
		{"tampered body", secret, signature, []byte(`{"id":"abc","type":"did_nothing"}`), false},
		{"single byte flipped", secret, signature, flipped, false},
		{"empty signature", secret, "", body, false},
		{"garbage signature", secret, "not-hex-at-all", body, false},
		{"truncated signature", secret, signature[:32], body, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Verify(tt.secret, tt.signature, tt.body); got != tt.want {
				t.Errorf("Verify() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSignVerify_EmptyBody(t *testing.T) {
	signature := Sign("s", nil)
	if !Verify("s", signature, nil) {
		t.Error("Expected empty body to round-trip")
	}
	if !Verify("s", signature, []byte{}) {
		t.Error("Expected nil and empty body to sign identically")
	}
}
