package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"
)

// Healthcheck reports liveness, including whether the database answers a ping.
func Healthcheck(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /healthcheck"

		if err := ensureDBConnection(c.Request.Context(), db); err != nil {
			respondError(c, http.StatusServiceUnavailable, route, "database unavailable")
			return
		}

		respondOK(c, http.StatusOK, gin.H{"status": "ok"}, "service healthy")
	}
}
