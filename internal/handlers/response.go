package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Every endpoint answers with the same envelope: statusCode + data + message
// on success, statusCode + message on failure. Internal error details never
// reach the message field.

func respondOK(c *gin.Context, status int, data interface{}, message string) {
	c.JSON(status, gin.H{
		"statusCode": status,
		"data":       data,
		"message":    message,
	})
}

func respondError(c *gin.Context, status int, route, message string) {
	log.Printf("[%s] returning error %d: %s", route, status, message)
	c.AbortWithStatusJSON(status, gin.H{
		"statusCode": status,
		"message":    message,
	})
}

func respondValidationError(c *gin.Context, err error) {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		details := make([]string, 0, len(validationErrors))
		for _, fieldError := range validationErrors {
			field := lowerCamel(fieldError.Field())
			switch fieldError.Tag() {
			case "required":
				details = append(details, fmt.Sprintf("%s is required", field))
			default:
				details = append(details, fmt.Sprintf("%s is invalid", field))
			}
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"statusCode": http.StatusBadRequest,
			"message":    "validation failed",
			"errors":     details,
		})
		return
	}

	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
		"statusCode": http.StatusBadRequest,
		"message":    "invalid body",
	})
}

func lowerCamel(field string) string {
	if field == "" {
		return field
	}
	return strings.ToLower(field[:1]) + field[1:]
}

func handlePanic(c *gin.Context, route string) {
	if r := recover(); r != nil {
		log.Printf("[%s] panic recovered: %v", route, r)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"statusCode": http.StatusInternalServerError,
			"message":    "internal server error",
		})
	}
}

func ensureDBConnection(ctx context.Context, db *mongo.Database) error {
	checkCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	return db.Client().Ping(checkCtx, readpref.Primary())
}

// currentUserID pulls the account id the auth middleware stored on the
// context. Handlers behind the auth gate treat a missing value as 401.
func currentUserID(c *gin.Context) (primitive.ObjectID, bool) {
	value, ok := c.Get("userId")
	if !ok {
		return primitive.NilObjectID, false
	}
	userID, ok := value.(primitive.ObjectID)
	return userID, ok
}

func pathObjectID(c *gin.Context, param string) (primitive.ObjectID, error) {
	return primitive.ObjectIDFromHex(strings.TrimSpace(c.Param(param)))
}
