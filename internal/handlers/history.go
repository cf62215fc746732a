package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"videotube/internal/models"
)

// recordWatchHistory appends a history entry for an authenticated view.
// Failures are logged and swallowed; history is best effort and never blocks
// serving the video.
func recordWatchHistory(ctx context.Context, db *mongo.Database, viewerID, videoID primitive.ObjectID) {
	entry := models.WatchHistoryEntry{
		Video:     videoID,
		Owner:     viewerID,
		WatchedAt: time.Now(),
	}
	if _, err := db.Collection("watch_history").InsertOne(ctx, entry); err != nil {
		log.Println("[HISTORY] [ERROR] watch history insert failed:", err)
	}
}

// GetWatchHistory lists the caller's watch history, newest first, with the
// watched videos and their owners joined in.
func GetWatchHistory(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /users/history"
		defer handlePanic(c, route)

		userID, ok := currentUserID(c)
		if !ok {
			respondError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		page, limit, err := parsePaginationParams(c.Query("page"), c.Query("limit"))
		if err != nil {
			respondError(c, http.StatusBadRequest, route, "invalid pagination params")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		videoPipeline := []bson.M{
			{"$lookup": bson.M{
				"from":         "users",
				"localField":   "owner",
				"foreignField": "_id",
				"as":           "owner",
				"pipeline": []bson.M{
					{"$project": bson.M{"_id": 1, "username": 1, "fullName": 1, "avatar": 1}},
				},
			}},
			{"$addFields": bson.M{"owner": bson.M{"$first": "$owner"}}},
			{"$project": bson.M{
				"title":     1,
				"thumbnail": 1,
				"duration":  1,
				"views":     1,
				"owner":     1,
			}},
		}

		pipeline := mongo.Pipeline{
			{{Key: "$match", Value: bson.M{"owner": userID}}},
			{{Key: "$sort", Value: bson.D{{Key: "watchedAt", Value: -1}}}},
			{{Key: "$skip", Value: (page - 1) * limit}},
			{{Key: "$limit", Value: limit}},
			{{Key: "$lookup", Value: bson.M{
				"from":         "videos",
				"localField":   "video",
				"foreignField": "_id",
				"as":           "video",
				"pipeline":     videoPipeline,
			}}},
			{{Key: "$addFields", Value: bson.M{"video": bson.M{"$first": "$video"}}}},
		}

		cursor, err := db.Collection("watch_history").Aggregate(ctx, pipeline)
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		history := make([]bson.M, 0)
		if err := cursor.All(ctx, &history); err != nil {
			respondError(c, http.StatusInternalServerError, route, "decode error")
			return
		}

		respondOK(c, http.StatusOK, gin.H{"history": history}, "watch history fetched successfully")
	}
}
