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

// ToggleSubscription subscribes the caller to a channel, or unsubscribes if
// already subscribed.
func ToggleSubscription(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /subscriptions/c/:channelId"
		defer handlePanic(c, route)

		userID, ok := currentUserID(c)
		if !ok {
			respondError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		channelID, err := pathObjectID(c, "channelId")
		if err != nil {
			respondError(c, http.StatusBadRequest, route, "invalid channel id")
			return
		}

		if channelID == userID {
			respondError(c, http.StatusBadRequest, route, "cannot subscribe to your own channel")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		if err := db.Collection("users").FindOne(ctx, bson.M{"_id": channelID}).Err(); err != nil {
			respondError(c, http.StatusNotFound, route, "channel not found")
			return
		}

		filter := bson.M{"subscriber": userID, "channel": channelID}

		var existing models.Subscription
		err = db.Collection("subscriptions").FindOne(ctx, filter).Decode(&existing)
		if err == nil {
			if _, err := db.Collection("subscriptions").DeleteOne(ctx, bson.M{"_id": existing.ID}); err != nil {
				log.Println("[SUBSCRIPTION] [ERROR] unsubscribe failed:", err)
				respondError(c, http.StatusInternalServerError, route, "db error")
				return
			}
			respondOK(c, http.StatusOK, gin.H{"subscribed": false}, "unsubscribed successfully")
			return
		}
		if err != mongo.ErrNoDocuments {
			log.Println("[SUBSCRIPTION] [ERROR] subscription lookup failed:", err)
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		subscription := models.Subscription{
			Subscriber: userID,
			Channel:    channelID,
			CreatedAt:  time.Now(),
		}

		if _, err := db.Collection("subscriptions").InsertOne(ctx, subscription); err != nil {
			log.Println("[SUBSCRIPTION] [ERROR] subscribe failed:", err)
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		respondOK(c, http.StatusOK, gin.H{"subscribed": true}, "subscribed successfully")
	}
}

// GetChannelSubscribers lists the users subscribed to a channel.
func GetChannelSubscribers(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /subscriptions/c/:channelId"
		defer handlePanic(c, route)

		channelID, err := pathObjectID(c, "channelId")
		if err != nil {
			respondError(c, http.StatusBadRequest, route, "invalid channel id")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		pipeline := mongo.Pipeline{
			{{Key: "$match", Value: bson.M{"channel": channelID}}},
			{{Key: "$lookup", Value: bson.M{
				"from":         "users",
				"localField":   "subscriber",
				"foreignField": "_id",
				"as":           "subscriber",
				"pipeline": []bson.M{
					{"$project": bson.M{"_id": 1, "username": 1, "avatar": 1}},
				},
			}}},
			{{Key: "$addFields", Value: bson.M{"subscriber": bson.M{"$first": "$subscriber"}}}},
			{{Key: "$project", Value: bson.M{"subscriber": 1}}},
		}

		cursor, err := db.Collection("subscriptions").Aggregate(ctx, pipeline)
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		subscribers := make([]bson.M, 0)
		if err := cursor.All(ctx, &subscribers); err != nil {
			respondError(c, http.StatusInternalServerError, route, "decode error")
			return
		}

		respondOK(c, http.StatusOK, gin.H{"subscribers": subscribers}, "subscribers fetched successfully")
	}
}

// GetSubscribedChannels lists the channels a user subscribes to.
func GetSubscribedChannels(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /subscriptions/u/:subscriberId"
		defer handlePanic(c, route)

		subscriberID, err := pathObjectID(c, "subscriberId")
		if err != nil {
			respondError(c, http.StatusBadRequest, route, "invalid subscriber id")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		pipeline := mongo.Pipeline{
			{{Key: "$match", Value: bson.M{"subscriber": subscriberID}}},
			{{Key: "$lookup", Value: bson.M{
				"from":         "users",
				"localField":   "channel",
				"foreignField": "_id",
				"as":           "channel",
				"pipeline": []bson.M{
					{"$project": bson.M{"_id": 1, "username": 1, "avatar": 1}},
				},
			}}},
			{{Key: "$addFields", Value: bson.M{"channel": bson.M{"$first": "$channel"}}}},
			{{Key: "$project", Value: bson.M{"channel": 1}}},
		}

		cursor, err := db.Collection("subscriptions").Aggregate(ctx, pipeline)
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		channels := make([]bson.M, 0)
		if err := cursor.All(ctx, &channels); err != nil {
			respondError(c, http.StatusInternalServerError, route, "decode error")
			return
		}

		respondOK(c, http.StatusOK, gin.H{"subscribedChannels": channels}, "subscribed channels fetched successfully")
	}
}
