package webhook

import (
	"crypto/hmac"
	"testing"
)

func TestGenerateSecret(t *testing.T) {
	a, err := GenerateSecret()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := GenerateSecret()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(a) != 64 {
		t.Errorf("secret length = %d, want 64 hex chars", len(a))
	}
	if a == b {
		t.Error("two generated secrets should not match")
	}
}

func TestSignPayload(t *testing.T) {
	payload := []byte(`{"event":"video.completed"}`)
	secret := "test-secret"

	sig1 := SignPayload(payload, secret)
	sig2 := SignPayload(payload, secret)
	if !hmac.Equal([]byte(sig1), []byte(sig2)) {
		t.Error("signature should be deterministic for same payload and secret")
	}

	if SignPayload(payload, "other-secret") == sig1 {
		t.Error("different secrets must produce different signatures")
	}
	if SignPayload([]byte(`{"event":"video.failed"}`), secret) == sig1 {
		t.Error("different payloads must produce different signatures")
	}
}
