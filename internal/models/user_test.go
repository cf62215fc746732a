package models

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestUserJSONNeverExposesCredentials(t *testing.T) {
	user := User{
		ID:           primitive.NewObjectID(),
		Username:     "ada",
		Email:        "ada@x.com",
		FullName:     "Ada Lovelace",
		Avatar:       "http://localhost:9000/media/avatars/a.png",
		PasswordHash: "$2a$10$secret-hash",
		RefreshToken: "some.refresh.token",
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	body, err := json.Marshal(user)
	if err != nil {
		t.Fatalf("json marshal failed: %v", err)
	}

	jsonBody := string(body)
	if strings.Contains(jsonBody, "secret-hash") || strings.Contains(jsonBody, "passwordHash") {
		t.Fatalf("password hash leaked into json: %s", jsonBody)
	}
	if strings.Contains(jsonBody, "some.refresh.token") || strings.Contains(jsonBody, "refreshToken") {
		t.Fatalf("refresh token leaked into json: %s", jsonBody)
	}
	if !strings.Contains(jsonBody, "\"username\":\"ada\"") {
		t.Fatalf("expected username in json, got %s", jsonBody)
	}
}
