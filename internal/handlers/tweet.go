package handlers

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"videotube/internal/models"
)

type tweetRequest struct {
	Content string `json:"content" binding:"required"`
}

func CreateTweet(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /tweets"
		defer handlePanic(c, route)

		userID, ok := currentUserID(c)
		if !ok {
			respondError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		var req tweetRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		now := time.Now()
		tweet := models.Tweet{
			Content:   strings.TrimSpace(req.Content),
			Owner:     userID,
			CreatedAt: now,
			UpdatedAt: now,
		}

		res, err := db.Collection("tweets").InsertOne(ctx, tweet)
		if err != nil {
			log.Println("[TWEET] [ERROR] insert failed:", err)
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		tweet.ID, _ = res.InsertedID.(primitive.ObjectID)
		respondOK(c, http.StatusCreated, gin.H{"tweet": tweet}, "tweet created")
	}
}

// GetUserTweets lists a user's tweets with like counts.
func GetUserTweets(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /tweets/user/:userId"
		defer handlePanic(c, route)

		ownerID, err := pathObjectID(c, "userId")
		if err != nil {
			respondError(c, http.StatusBadRequest, route, "invalid user id")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		pipeline := mongo.Pipeline{
			{{Key: "$match", Value: bson.M{"owner": ownerID}}},
			{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: -1}}}},
			{{Key: "$lookup", Value: bson.M{
				"from":         "likes",
				"localField":   "_id",
				"foreignField": "tweet",
				"as":           "likes",
			}}},
			{{Key: "$addFields", Value: bson.M{"likesCount": bson.M{"$size": "$likes"}}}},
			{{Key: "$project", Value: bson.M{"content": 1, "likesCount": 1, "createdAt": 1}}},
		}

		cursor, err := db.Collection("tweets").Aggregate(ctx, pipeline)
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		tweets := make([]bson.M, 0)
		if err := cursor.All(ctx, &tweets); err != nil {
			respondError(c, http.StatusInternalServerError, route, "decode error")
			return
		}

		respondOK(c, http.StatusOK, gin.H{"tweets": tweets}, "user tweets fetched successfully")
	}
}

func UpdateTweet(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PATCH /tweets/:tweetId"
		defer handlePanic(c, route)

		userID, ok := currentUserID(c)
		if !ok {
			respondError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		tweetID, err := pathObjectID(c, "tweetId")
		if err != nil {
			respondError(c, http.StatusBadRequest, route, "invalid tweet id")
			return
		}

		var req tweetRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var tweet models.Tweet
		if err := db.Collection("tweets").FindOne(ctx, bson.M{"_id": tweetID}).Decode(&tweet); err != nil {
			respondError(c, http.StatusNotFound, route, "tweet not found")
			return
		}
		if tweet.Owner != userID {
			respondError(c, http.StatusForbidden, route, "you are not authorized to update this tweet")
			return
		}

		tweet.Content = strings.TrimSpace(req.Content)
		tweet.UpdatedAt = time.Now()

		_, err = db.Collection("tweets").UpdateByID(ctx, tweetID, bson.M{
			"$set": bson.M{
				"content":   tweet.Content,
				"updatedAt": tweet.UpdatedAt,
			},
		})
		if err != nil {
			log.Println("[TWEET] [ERROR] update failed:", err)
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		respondOK(c, http.StatusOK, gin.H{"tweet": tweet}, "tweet updated successfully")
	}
}

func DeleteTweet(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /tweets/:tweetId"
		defer handlePanic(c, route)

		userID, ok := currentUserID(c)
		if !ok {
			respondError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		tweetID, err := pathObjectID(c, "tweetId")
		if err != nil {
			respondError(c, http.StatusBadRequest, route, "invalid tweet id")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var tweet models.Tweet
		if err := db.Collection("tweets").FindOne(ctx, bson.M{"_id": tweetID}).Decode(&tweet); err != nil {
			respondError(c, http.StatusNotFound, route, "tweet not found")
			return
		}
		if tweet.Owner != userID {
			respondError(c, http.StatusForbidden, route, "you are not authorized to delete this tweet")
			return
		}

		if _, err := db.Collection("tweets").DeleteOne(ctx, bson.M{"_id": tweetID}); err != nil {
			log.Println("[TWEET] [ERROR] delete failed:", err)
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		respondOK(c, http.StatusOK, gin.H{}, "tweet deleted successfully")
	}
}
