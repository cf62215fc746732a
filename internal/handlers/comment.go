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

type commentRequest struct {
	Content string `json:"content" binding:"required"`
}

// GetVideoComments lists a video's comments newest first with the comment
// owner and like count joined in.
func GetVideoComments(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /comments/:videoId"
		defer handlePanic(c, route)

		videoID, err := pathObjectID(c, "videoId")
		if err != nil {
			respondError(c, http.StatusBadRequest, route, "invalid video id")
			return
		}

		page, limit, err := parsePaginationParams(c.Query("page"), c.Query("limit"))
		if err != nil {
			respondError(c, http.StatusBadRequest, route, "invalid pagination params")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		pipeline := mongo.Pipeline{
			{{Key: "$match", Value: bson.M{"video": videoID}}},
			{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: -1}}}},
			{{Key: "$skip", Value: (page - 1) * limit}},
			{{Key: "$limit", Value: limit}},
			{{Key: "$lookup", Value: bson.M{
				"from":         "users",
				"localField":   "owner",
				"foreignField": "_id",
				"as":           "owner",
				"pipeline": []bson.M{
					{"$project": bson.M{"_id": 1, "username": 1, "avatar": 1}},
				},
			}}},
			{{Key: "$addFields", Value: bson.M{"owner": bson.M{"$first": "$owner"}}}},
			{{Key: "$lookup", Value: bson.M{
				"from":         "likes",
				"localField":   "_id",
				"foreignField": "comment",
				"as":           "likes",
			}}},
			{{Key: "$addFields", Value: bson.M{"likesCount": bson.M{"$size": "$likes"}}}},
			{{Key: "$project", Value: bson.M{"likes": 0}}},
		}

		cursor, err := db.Collection("comments").Aggregate(ctx, pipeline)
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		comments := make([]bson.M, 0)
		if err := cursor.All(ctx, &comments); err != nil {
			respondError(c, http.StatusInternalServerError, route, "decode error")
			return
		}

		respondOK(c, http.StatusOK, gin.H{
			"comments": comments,
			"pagination": gin.H{
				"page":  page,
				"limit": limit,
			},
		}, "comments fetched successfully")
	}
}

func AddComment(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /comments/:videoId"
		defer handlePanic(c, route)

		userID, ok := currentUserID(c)
		if !ok {
			respondError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		videoID, err := pathObjectID(c, "videoId")
		if err != nil {
			respondError(c, http.StatusBadRequest, route, "invalid video id")
			return
		}

		var req commentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		if err := db.Collection("videos").FindOne(ctx, bson.M{"_id": videoID}).Err(); err != nil {
			respondError(c, http.StatusNotFound, route, "video not found")
			return
		}

		now := time.Now()
		comment := models.Comment{
			Content:   strings.TrimSpace(req.Content),
			Video:     videoID,
			Owner:     userID,
			CreatedAt: now,
			UpdatedAt: now,
		}

		res, err := db.Collection("comments").InsertOne(ctx, comment)
		if err != nil {
			log.Println("[COMMENT] [ERROR] insert failed:", err)
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		comment.ID, _ = res.InsertedID.(primitive.ObjectID)
		respondOK(c, http.StatusCreated, gin.H{"comment": comment}, "comment added successfully")
	}
}

func UpdateComment(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PATCH /comments/c/:commentId"
		defer handlePanic(c, route)

		userID, ok := currentUserID(c)
		if !ok {
			respondError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		commentID, err := pathObjectID(c, "commentId")
		if err != nil {
			respondError(c, http.StatusBadRequest, route, "invalid comment id")
			return
		}

		var req commentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var comment models.Comment
		if err := db.Collection("comments").FindOne(ctx, bson.M{"_id": commentID}).Decode(&comment); err != nil {
			respondError(c, http.StatusNotFound, route, "comment not found")
			return
		}
		if comment.Owner != userID {
			respondError(c, http.StatusForbidden, route, "you are not authorized to update this comment")
			return
		}

		comment.Content = strings.TrimSpace(req.Content)
		comment.UpdatedAt = time.Now()

		_, err = db.Collection("comments").UpdateByID(ctx, commentID, bson.M{
			"$set": bson.M{
				"content":   comment.Content,
				"updatedAt": comment.UpdatedAt,
			},
		})
		if err != nil {
			log.Println("[COMMENT] [ERROR] update failed:", err)
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		respondOK(c, http.StatusOK, gin.H{"comment": comment}, "comment updated successfully")
	}
}

func DeleteComment(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /comments/c/:commentId"
		defer handlePanic(c, route)

		userID, ok := currentUserID(c)
		if !ok {
			respondError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		commentID, err := pathObjectID(c, "commentId")
		if err != nil {
			respondError(c, http.StatusBadRequest, route, "invalid comment id")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var comment models.Comment
		if err := db.Collection("comments").FindOne(ctx, bson.M{"_id": commentID}).Decode(&comment); err != nil {
			respondError(c, http.StatusNotFound, route, "comment not found")
			return
		}
		if comment.Owner != userID {
			respondError(c, http.StatusForbidden, route, "you are not authorized to delete this comment")
			return
		}

		if _, err := db.Collection("comments").DeleteOne(ctx, bson.M{"_id": commentID}); err != nil {
			log.Println("[COMMENT] [ERROR] delete failed:", err)
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		respondOK(c, http.StatusOK, gin.H{}, "comment deleted successfully")
	}
}
