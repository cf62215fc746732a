package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"videotube/internal/auth"
	"videotube/internal/config"
)

func testContext(req *http.Request) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	return c, w
}

func TestRefreshTokenFromRequestPrefersCookie(t *testing.T) {
	body := bytes.NewBufferString(`{"refreshToken":"from-body"}`)
	req := httptest.NewRequest("POST", "/users/refresh-token", body)
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(&http.Cookie{Name: "refreshToken", Value: "from-cookie"})

	c, _ := testContext(req)

	if got := refreshTokenFromRequest(c); got != "from-cookie" {
		t.Fatalf("expected cookie to take precedence, got %q", got)
	}
}

func TestRefreshTokenFromRequestFallsBackToBody(t *testing.T) {
	body := bytes.NewBufferString(`{"refreshToken":"from-body"}`)
	req := httptest.NewRequest("POST", "/users/refresh-token", body)
	req.Header.Set("Content-Type", "application/json")

	c, _ := testContext(req)

	if got := refreshTokenFromRequest(c); got != "from-body" {
		t.Fatalf("expected body fallback, got %q", got)
	}
}

func TestRefreshTokenFromRequestEmpty(t *testing.T) {
	req := httptest.NewRequest("POST", "/users/refresh-token", nil)

	c, _ := testContext(req)

	if got := refreshTokenFromRequest(c); got != "" {
		t.Fatalf("expected empty token, got %q", got)
	}
}

func TestRotatedRefreshTokenIsRejected(t *testing.T) {
	userID := primitive.NewObjectID()

	first, err := auth.SignRefreshToken(userID, "refresh-secret", time.Hour)
	if err != nil {
		t.Fatalf("SignRefreshToken returned error: %v", err)
	}
	second, err := auth.SignRefreshToken(userID, "refresh-secret", time.Hour)
	if err != nil {
		t.Fatalf("SignRefreshToken returned error: %v", err)
	}
	if first == second {
		t.Fatal("expected rotation to mint a different refresh token")
	}

	// The account now stores the second token; redeeming it succeeds once,
	// replaying the first must fail even though its signature still verifies.
	if !storedRefreshTokenMatches(second, second) {
		t.Fatal("expected the currently stored token to be redeemable")
	}
	if storedRefreshTokenMatches(second, first) {
		t.Fatal("expected the rotated-out refresh token to be rejected")
	}
}

func TestRefreshAfterLogoutIsRejected(t *testing.T) {
	token, err := auth.SignRefreshToken(primitive.NewObjectID(), "refresh-secret", time.Hour)
	if err != nil {
		t.Fatalf("SignRefreshToken returned error: %v", err)
	}

	// Logout unsets the stored token; the cookie the client still holds must
	// no longer be redeemable.
	if storedRefreshTokenMatches("", token) {
		t.Fatal("expected refresh to be rejected after logout cleared the stored token")
	}
	if storedRefreshTokenMatches("", "") {
		t.Fatal("expected an empty presented token to be rejected")
	}
}

func TestRegisterInsertStatusMapsDuplicateKeyToConflict(t *testing.T) {
	dup := mongo.WriteException{WriteErrors: mongo.WriteErrors{{Code: 11000}}}
	status, message := registerInsertStatus(dup)
	if status != http.StatusConflict {
		t.Fatalf("expected 409 for a duplicate key error, got %d", status)
	}
	if message != "user with email or username already exists" {
		t.Fatalf("unexpected conflict message %q", message)
	}

	status, message = registerInsertStatus(errors.New("connection reset"))
	if status != http.StatusInternalServerError || message != "db error" {
		t.Fatalf("expected 500/db error for other failures, got %d %q", status, message)
	}
}

func TestSetAuthCookiesAreHTTPOnly(t *testing.T) {
	cfg := config.Config{
		AccessTokenTTL:  30 * time.Minute,
		RefreshTokenTTL: 10 * 24 * time.Hour,
		CookieSecure:    true,
	}

	req := httptest.NewRequest("POST", "/users/login", nil)
	c, w := testContext(req)

	setAuthCookies(c, "access-value", "refresh-value", cfg)

	res := w.Result()
	cookies := res.Cookies()
	if len(cookies) != 2 {
		t.Fatalf("expected 2 cookies, got %d", len(cookies))
	}

	byName := map[string]*http.Cookie{}
	for _, cookie := range cookies {
		byName[cookie.Name] = cookie
	}

	access, ok := byName["accessToken"]
	if !ok || access.Value != "access-value" {
		t.Fatalf("expected accessToken cookie, got %+v", byName)
	}
	refresh, ok := byName["refreshToken"]
	if !ok || refresh.Value != "refresh-value" {
		t.Fatalf("expected refreshToken cookie, got %+v", byName)
	}

	for _, cookie := range cookies {
		if !cookie.HttpOnly {
			t.Fatalf("expected %s cookie to be httpOnly", cookie.Name)
		}
		if !cookie.Secure {
			t.Fatalf("expected %s cookie to be secure", cookie.Name)
		}
	}
}

func TestClearAuthCookiesExpireBoth(t *testing.T) {
	req := httptest.NewRequest("POST", "/users/logout", nil)
	c, w := testContext(req)

	clearAuthCookies(c, config.Config{})

	cookies := w.Result().Cookies()
	if len(cookies) != 2 {
		t.Fatalf("expected 2 cookies, got %d", len(cookies))
	}
	for _, cookie := range cookies {
		if cookie.Value != "" {
			t.Fatalf("expected %s cookie value to be cleared, got %q", cookie.Name, cookie.Value)
		}
		if cookie.MaxAge >= 0 {
			t.Fatalf("expected %s cookie to be expired, got MaxAge=%d", cookie.Name, cookie.MaxAge)
		}
	}
}

func TestRespondOKEnvelope(t *testing.T) {
	req := httptest.NewRequest("GET", "/healthcheck", nil)
	c, w := testContext(req)

	respondOK(c, http.StatusOK, gin.H{"status": "ok"}, "service healthy")

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var envelope struct {
		StatusCode int               `json:"statusCode"`
		Data       map[string]string `json:"data"`
		Message    string            `json:"message"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("invalid envelope json: %v", err)
	}
	if envelope.StatusCode != http.StatusOK {
		t.Fatalf("expected statusCode 200 in body, got %d", envelope.StatusCode)
	}
	if envelope.Data["status"] != "ok" {
		t.Fatalf("expected data.status=ok, got %+v", envelope.Data)
	}
	if envelope.Message != "service healthy" {
		t.Fatalf("unexpected message %q", envelope.Message)
	}
}

func TestRespondErrorEnvelope(t *testing.T) {
	req := httptest.NewRequest("GET", "/videos", nil)
	c, w := testContext(req)

	respondError(c, http.StatusBadRequest, "GET /videos", "invalid pagination params")

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}

	var envelope struct {
		StatusCode int    `json:"statusCode"`
		Message    string `json:"message"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("invalid envelope json: %v", err)
	}
	if envelope.StatusCode != http.StatusBadRequest || envelope.Message != "invalid pagination params" {
		t.Fatalf("unexpected envelope %+v", envelope)
	}
}

func TestLowerCamel(t *testing.T) {
	if got := lowerCamel("FullName"); got != "fullName" {
		t.Fatalf("expected fullName, got %s", got)
	}
	if got := lowerCamel(""); got != "" {
		t.Fatalf("expected empty string, got %s", got)
	}
}
