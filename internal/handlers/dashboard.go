package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// GetChannelStats aggregates the caller's channel totals: views, videos,
// likes and subscribers.
func GetChannelStats(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /dashboard/stats"
		defer handlePanic(c, route)

		userID, ok := currentUserID(c)
		if !ok {
			respondError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		pipeline := mongo.Pipeline{
			{{Key: "$match", Value: bson.M{"owner": userID}}},
			{{Key: "$lookup", Value: bson.M{
				"from":         "likes",
				"localField":   "_id",
				"foreignField": "video",
				"as":           "likes",
			}}},
			{{Key: "$addFields", Value: bson.M{"likes": bson.M{"$size": "$likes"}}}},
			{{Key: "$group", Value: bson.M{
				"_id":         nil,
				"totalViews":  bson.M{"$sum": "$views"},
				"totalVideos": bson.M{"$sum": 1},
				"totalLikes":  bson.M{"$sum": "$likes"},
			}}},
			{{Key: "$project", Value: bson.M{"_id": 0}}},
		}

		cursor, err := db.Collection("videos").Aggregate(ctx, pipeline)
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		results := make([]bson.M, 0, 1)
		if err := cursor.All(ctx, &results); err != nil {
			respondError(c, http.StatusInternalServerError, route, "decode error")
			return
		}

		stats := bson.M{
			"totalViews":  0,
			"totalVideos": 0,
			"totalLikes":  0,
		}
		if len(results) > 0 {
			stats = results[0]
		}

		// Subscribers are counted directly; a channel with zero videos still
		// has a subscriber count.
		subscribers, err := db.Collection("subscriptions").CountDocuments(ctx, bson.M{"channel": userID})
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		stats["totalSubscribers"] = subscribers

		respondOK(c, http.StatusOK, stats, "channel stats fetched successfully")
	}
}

// GetChannelVideos lists every video uploaded by the caller's channel,
// including unpublished ones.
func GetChannelVideos(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /dashboard/videos"
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

		sortBy, sortOrder, ok := validateSortParams(c.Query("sortBy"), c.Query("sortType"))
		if !ok {
			respondError(c, http.StatusBadRequest, route, "invalid sort params")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		match := bson.M{"owner": userID}

		total, err := db.Collection("videos").CountDocuments(ctx, match)
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		pipeline := mongo.Pipeline{
			{{Key: "$match", Value: match}},
			{{Key: "$sort", Value: bson.D{{Key: sortBy, Value: sortOrder}}}},
			{{Key: "$skip", Value: (page - 1) * limit}},
			{{Key: "$limit", Value: limit}},
			{{Key: "$lookup", Value: bson.M{
				"from":         "likes",
				"localField":   "_id",
				"foreignField": "video",
				"as":           "likes",
			}}},
			{{Key: "$addFields", Value: bson.M{"likesCount": bson.M{"$size": "$likes"}}}},
			{{Key: "$project", Value: bson.M{"likes": 0}}},
		}

		cursor, err := db.Collection("videos").Aggregate(ctx, pipeline)
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		videos := make([]bson.M, 0)
		if err := cursor.All(ctx, &videos); err != nil {
			respondError(c, http.StatusInternalServerError, route, "decode error")
			return
		}

		respondOK(c, http.StatusOK, gin.H{
			"videos": videos,
			"pagination": gin.H{
				"page":  page,
				"limit": limit,
				"total": total,
			},
		}, "channel videos fetched successfully")
	}
}
