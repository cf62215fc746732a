package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"videotube/internal/auth"
)

const testAccessSecret = "test-access-secret"

func authTestRouter(handler gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/protected", Auth(testAccessSecret), handler)
	return r
}

func signTestToken(t *testing.T, ttl time.Duration) (primitive.ObjectID, string) {
	t.Helper()
	userID := primitive.NewObjectID()
	raw, err := auth.SignAccessToken(auth.Identity{
		UserID:   userID,
		Username: "ada",
		Email:    "ada@x.com",
	}, testAccessSecret, ttl)
	if err != nil {
		t.Fatalf("SignAccessToken returned error: %v", err)
	}
	return userID, raw
}

func TestAuthRejectsMissingToken(t *testing.T) {
	r := authTestRouter(func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/protected", nil))

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", w.Code)
	}
}

func TestAuthRejectsMalformedHeader(t *testing.T) {
	r := authTestRouter(func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Token abc")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for non-bearer header, got %d", w.Code)
	}
}

func TestAuthRejectsExpiredToken(t *testing.T) {
	r := authTestRouter(func(c *gin.Context) { c.Status(http.StatusOK) })

	_, raw := signTestToken(t, -time.Minute)
	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+raw)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for expired token, got %d", w.Code)
	}
}

func TestAuthInjectsIdentityFromBearerHeader(t *testing.T) {
	wantID, raw := signTestToken(t, time.Minute)

	var gotID primitive.ObjectID
	var gotUsername string
	r := authTestRouter(func(c *gin.Context) {
		gotID = c.MustGet("userId").(primitive.ObjectID)
		gotUsername = c.MustGet("username").(string)
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+raw)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if gotID != wantID {
		t.Fatalf("expected userId %s in context, got %s", wantID.Hex(), gotID.Hex())
	}
	if gotUsername != "ada" {
		t.Fatalf("expected username ada in context, got %s", gotUsername)
	}
}

func TestAuthAcceptsAccessTokenCookie(t *testing.T) {
	wantID, raw := signTestToken(t, time.Minute)

	var gotID primitive.ObjectID
	r := authTestRouter(func(c *gin.Context) {
		gotID = c.MustGet("userId").(primitive.ObjectID)
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest("GET", "/protected", nil)
	req.AddCookie(&http.Cookie{Name: "accessToken", Value: raw})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if gotID != wantID {
		t.Fatalf("expected userId %s in context, got %s", wantID.Hex(), gotID.Hex())
	}
}

func TestOptionalAuthLetsAnonymousThrough(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/public", OptionalAuth(testAccessSecret), func(c *gin.Context) {
		if _, ok := c.Get("userId"); ok {
			t.Error("expected no identity for anonymous request")
		}
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/public", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for anonymous request, got %d", w.Code)
	}
}

func TestOptionalAuthIgnoresInvalidToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/public", OptionalAuth(testAccessSecret), func(c *gin.Context) {
		if _, ok := c.Get("userId"); ok {
			t.Error("expected no identity for invalid token")
		}
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest("GET", "/public", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 despite invalid token, got %d", w.Code)
	}
}
