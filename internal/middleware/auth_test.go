package middleware

import (
	"testing"

	"github.com/Lumio-Labs/video-insights-api/internal/models"
)

func TestHashAPIKey(t *testing.T) {
	key := "via_test_key_12345"

	hash1 := HashAPIKey(key)
	hash2 := HashAPIKey(key)

	if hash1 != hash2 {
		t.Errorf("same key produced different hashes: %s != %s", hash1, hash2)
	}

	if len(hash1) != 64 {
		t.Errorf("expected 64-char hex hash, got %d chars", len(hash1))
	}

	other := HashAPIKey("via_different_key")
	if hash1 == other {
		t.Error("different keys produced the same hash")
	}
}

func TestIsOwnerAPIKey(t *testing.T) {
	tests := []struct {
		name       string
		apiKey     *models.APIKey
		ownerID    string
		ownerPfx   string
		wantResult bool
	}{
		{
			name:       "nil key",
			apiKey:     nil,
			ownerID:    "owner-id",
			wantResult: false,
		},
		{
			name:       "matches owner ID",
			apiKey:     &models.APIKey{ID: "owner-id"},
			ownerID:    "owner-id",
			wantResult: true,
		},
		{
			name:       "matches owner prefix",
			apiKey:     &models.APIKey{ID: "other-id", KeyPrefix: "via_owner"},
			ownerPfx:   "via_owner",
			wantResult: true,
		},
		{
			name:       "no match",
			apiKey:     &models.APIKey{ID: "other-id", KeyPrefix: "via_user1"},
			ownerID:    "owner-id",
			ownerPfx:   "via_owner",
			wantResult: false,
		},
		{
			name:       "nothing configured",
			apiKey:     &models.APIKey{ID: "any-id"},
			wantResult: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsOwnerAPIKey(tt.apiKey, tt.ownerID, tt.ownerPfx)
			if got != tt.wantResult {
				t.Errorf("IsOwnerAPIKey() = %v, want %v", got, tt.wantResult)
			}
		})
	}
}

func TestRateLimiterAllow(t *testing.T) {
	rl := NewRateLimiter()

	// A key with limit 3 should allow 3 requests and reject the 4th.
	for i := 0; i < 3; i++ {
		result := rl.allow("key-1", 3)
		if !result.allowed {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}

	result := rl.allow("key-1", 3)
	if result.allowed {
		t.Error("4th request should be rejected")
	}
	if result.remaining != 0 {
		t.Errorf("remaining = %v, want 0", result.remaining)
	}

	// A different key has its own bucket.
	other := rl.allow("key-2", 3)
	if !other.allowed {
		t.Error("different key should not share a bucket")
	}
}

func TestJWTRoundTrip(t *testing.T) {
	secret := "test-secret"
	user := &models.User{ID: "user-123", Email: "test@example.com"}

	token, err := GenerateJWT(user, secret)
	if err != nil {
		t.Fatalf("GenerateJWT() error: %v", err)
	}

	claims, err := ParseJWT(token, secret)
	if err != nil {
		t.Fatalf("ParseJWT() error: %v", err)
	}

	if claims.UserID != user.ID {
		t.Errorf("UserID = %s, want %s", claims.UserID, user.ID)
	}
	if claims.Email != user.Email {
		t.Errorf("Email = %s, want %s", claims.Email, user.Email)
	}

	if _, err := ParseJWT(token, "wrong-secret"); err == nil {
		t.Error("expected error parsing with wrong secret")
	}

	if _, err := ParseJWT("not-a-token", secret); err == nil {
		t.Error("expected error parsing garbage token")
	}
}
