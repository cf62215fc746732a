package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"videotube/internal/models"
)

// toggleLike flips a like for one target kind. The target field name doubles
// as the bson key on the like document.
func toggleLike(db *mongo.Database, route, param, targetField, targetCollection string) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer handlePanic(c, route)

		userID, ok := currentUserID(c)
		if !ok {
			respondError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		targetID, err := pathObjectID(c, param)
		if err != nil {
			respondError(c, http.StatusBadRequest, route, "invalid "+targetField+" id")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		if err := db.Collection(targetCollection).FindOne(ctx, bson.M{"_id": targetID}).Err(); err != nil {
			respondError(c, http.StatusNotFound, route, targetField+" not found")
			return
		}

		filter := bson.M{"likedBy": userID, targetField: targetID}

		var existing models.Like
		err = db.Collection("likes").FindOne(ctx, filter).Decode(&existing)
		if err == nil {
			if _, err := db.Collection("likes").DeleteOne(ctx, bson.M{"_id": existing.ID}); err != nil {
				log.Println("[LIKE] [ERROR] unlike failed:", err)
				respondError(c, http.StatusInternalServerError, route, "db error")
				return
			}
			respondOK(c, http.StatusOK, gin.H{"liked": false}, targetField+" unliked")
			return
		}
		if err != mongo.ErrNoDocuments {
			log.Println("[LIKE] [ERROR] like lookup failed:", err)
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		like := models.Like{
			LikedBy:   userID,
			CreatedAt: time.Now(),
		}
		switch targetField {
		case "video":
			like.Video = &targetID
		case "comment":
			like.Comment = &targetID
		case "tweet":
			like.Tweet = &targetID
		}

		if _, err := db.Collection("likes").InsertOne(ctx, like); err != nil {
			log.Println("[LIKE] [ERROR] like insert failed:", err)
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		respondOK(c, http.StatusCreated, gin.H{"liked": true}, targetField+" liked")
	}
}

func ToggleVideoLike(db *mongo.Database) gin.HandlerFunc {
	return toggleLike(db, "POST /likes/toggle/v/:videoId", "videoId", "video", "videos")
}

func ToggleCommentLike(db *mongo.Database) gin.HandlerFunc {
	return toggleLike(db, "POST /likes/toggle/c/:commentId", "commentId", "comment", "comments")
}

func ToggleTweetLike(db *mongo.Database) gin.HandlerFunc {
	return toggleLike(db, "POST /likes/toggle/t/:tweetId", "tweetId", "tweet", "tweets")
}

// GetLikedVideos lists the videos the caller has liked.
func GetLikedVideos(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /likes/videos"
		defer handlePanic(c, route)

		userID, ok := currentUserID(c)
		if !ok {
			respondError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		pipeline := mongo.Pipeline{
			{{Key: "$match", Value: bson.M{
				"likedBy": userID,
				"video":   bson.M{"$exists": true},
			}}},
			{{Key: "$lookup", Value: bson.M{
				"from":         "videos",
				"localField":   "video",
				"foreignField": "_id",
				"as":           "video",
				"pipeline": []bson.M{
					{"$project": bson.M{
						"title":       1,
						"description": 1,
						"videoFile":   1,
						"thumbnail":   1,
						"duration":    1,
					}},
				},
			}}},
			{{Key: "$addFields", Value: bson.M{"video": bson.M{"$first": "$video"}}}},
			{{Key: "$project", Value: bson.M{"likedBy": 1, "video": 1}}},
		}

		cursor, err := db.Collection("likes").Aggregate(ctx, pipeline)
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		likedVideos := make([]bson.M, 0)
		if err := cursor.All(ctx, &likedVideos); err != nil {
			respondError(c, http.StatusInternalServerError, route, "decode error")
			return
		}

		respondOK(c, http.StatusOK, likedVideos, "liked videos fetched successfully")
	}
}
