package auth

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	identity := Identity{
		UserID:   primitive.NewObjectID(),
		Username: "ada",
		Email:    "ada@x.com",
	}

	raw, err := SignAccessToken(identity, "access-secret", time.Minute)
	if err != nil {
		t.Fatalf("SignAccessToken returned error: %v", err)
	}
	if raw == "" {
		t.Fatal("expected non-empty access token")
	}

	parsed, err := ParseAccessToken(raw, "access-secret")
	if err != nil {
		t.Fatalf("ParseAccessToken returned error: %v", err)
	}
	if parsed.UserID != identity.UserID {
		t.Fatalf("expected userId %s, got %s", identity.UserID.Hex(), parsed.UserID.Hex())
	}
	if parsed.Username != "ada" || parsed.Email != "ada@x.com" {
		t.Fatalf("expected identity claims to survive round trip, got %+v", parsed)
	}
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	userID := primitive.NewObjectID()

	raw, err := SignRefreshToken(userID, "refresh-secret", time.Hour)
	if err != nil {
		t.Fatalf("SignRefreshToken returned error: %v", err)
	}

	parsed, err := ParseRefreshToken(raw, "refresh-secret")
	if err != nil {
		t.Fatalf("ParseRefreshToken returned error: %v", err)
	}
	if parsed != userID {
		t.Fatalf("expected userId %s, got %s", userID.Hex(), parsed.Hex())
	}
}

func TestEachIssuedRefreshTokenIsDistinct(t *testing.T) {
	userID := primitive.NewObjectID()

	first, err := SignRefreshToken(userID, "refresh-secret", time.Hour)
	if err != nil {
		t.Fatalf("SignRefreshToken returned error: %v", err)
	}
	second, err := SignRefreshToken(userID, "refresh-secret", time.Hour)
	if err != nil {
		t.Fatalf("SignRefreshToken returned error: %v", err)
	}

	// Both tokens are minted within the same second, so without a per-token
	// id they would be byte-identical and rotation could not invalidate the
	// first one.
	if first == second {
		t.Fatal("expected back-to-back refresh tokens for one account to differ")
	}
}

func TestEachIssuedAccessTokenIsDistinct(t *testing.T) {
	identity := Identity{UserID: primitive.NewObjectID(), Username: "ada", Email: "ada@x.com"}

	first, err := SignAccessToken(identity, "access-secret", time.Minute)
	if err != nil {
		t.Fatalf("SignAccessToken returned error: %v", err)
	}
	second, err := SignAccessToken(identity, "access-secret", time.Minute)
	if err != nil {
		t.Fatalf("SignAccessToken returned error: %v", err)
	}

	if first == second {
		t.Fatal("expected back-to-back access tokens for one account to differ")
	}
}

func TestParseRejectsWrongSecret(t *testing.T) {
	raw, err := SignRefreshToken(primitive.NewObjectID(), "refresh-secret", time.Hour)
	if err != nil {
		t.Fatalf("SignRefreshToken returned error: %v", err)
	}

	if _, err := ParseRefreshToken(raw, "other-secret"); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken for wrong secret, got %v", err)
	}
}

func TestAccessTokenNotValidAsRefreshToken(t *testing.T) {
	identity := Identity{UserID: primitive.NewObjectID(), Username: "ada", Email: "ada@x.com"}

	raw, err := SignAccessToken(identity, "access-secret", time.Minute)
	if err != nil {
		t.Fatalf("SignAccessToken returned error: %v", err)
	}

	if _, err := ParseRefreshToken(raw, "refresh-secret"); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken when verifying with the refresh secret, got %v", err)
	}
}

func TestParseRejectsExpiredToken(t *testing.T) {
	raw, err := SignRefreshToken(primitive.NewObjectID(), "refresh-secret", -time.Minute)
	if err != nil {
		t.Fatalf("SignRefreshToken returned error: %v", err)
	}

	if _, err := ParseRefreshToken(raw, "refresh-secret"); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestParseRejectsEmptyAndGarbageTokens(t *testing.T) {
	for _, raw := range []string{"", "   ", "not-a-jwt", "a.b.c"} {
		if _, err := ParseAccessToken(raw, "access-secret"); err != ErrInvalidToken {
			t.Fatalf("expected ErrInvalidToken for %q, got %v", raw, err)
		}
	}
}
