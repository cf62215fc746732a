package middleware

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"videotube/internal/auth"
)

// Auth verifies the access token from the accessToken cookie or the
// Authorization header and injects the account identity into the context.
// It never attempts a silent refresh; clients redeem refresh tokens through
// the explicit refresh endpoint.
func Auth(accessSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := tokenFromRequest(c)
		if raw == "" {
			log.Println("[AUTH] [ERROR] missing access token")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"statusCode": http.StatusUnauthorized, "message": "unauthorized"})
			return
		}

		identity, err := auth.ParseAccessToken(raw, accessSecret)
		if err != nil {
			log.Println("[AUTH] [ERROR] access token validation failed")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"statusCode": http.StatusUnauthorized, "message": "unauthorized"})
			return
		}

		setIdentity(c, identity)
		c.Next()
	}
}

// OptionalAuth attaches the identity when a valid access token is present and
// lets the request through anonymously otherwise. Used on public reads that
// personalize their response for logged-in viewers.
func OptionalAuth(accessSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if raw := tokenFromRequest(c); raw != "" {
			if identity, err := auth.ParseAccessToken(raw, accessSecret); err == nil {
				setIdentity(c, identity)
			}
		}
		c.Next()
	}
}

func tokenFromRequest(c *gin.Context) string {
	if cookie, err := c.Cookie("accessToken"); err == nil && strings.TrimSpace(cookie) != "" {
		return strings.TrimSpace(cookie)
	}

	raw := strings.TrimSpace(c.GetHeader("Authorization"))
	if raw == "" {
		return ""
	}

	parts := strings.Split(raw, " ")
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func setIdentity(c *gin.Context, identity auth.Identity) {
	c.Set("userId", identity.UserID)
	c.Set("username", identity.Username)
	c.Set("email", identity.Email)
}
