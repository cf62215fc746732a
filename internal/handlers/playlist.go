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

type createPlaylistRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description" binding:"required"`
}

type updatePlaylistRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// playlistVideosLookup joins the playlist's videos, each with its owner.
func playlistVideosLookup() []bson.D {
	return []bson.D{
		{{Key: "$lookup", Value: bson.M{
			"from":         "videos",
			"localField":   "videos",
			"foreignField": "_id",
			"as":           "videos",
			"pipeline": []bson.M{
				{"$lookup": bson.M{
					"from":         "users",
					"localField":   "owner",
					"foreignField": "_id",
					"as":           "owner",
					"pipeline": []bson.M{
						{"$project": bson.M{"fullName": 1, "username": 1, "avatar": 1}},
					},
				}},
				{"$addFields": bson.M{"owner": bson.M{"$first": "$owner"}}},
			},
		}}},
	}
}

func CreatePlaylist(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /playlist"
		defer handlePanic(c, route)

		userID, ok := currentUserID(c)
		if !ok {
			respondError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		var req createPlaylistRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		now := time.Now()
		playlist := models.Playlist{
			Name:        strings.TrimSpace(req.Name),
			Description: strings.TrimSpace(req.Description),
			Videos:      []primitive.ObjectID{},
			Owner:       userID,
			CreatedAt:   now,
			UpdatedAt:   now,
		}

		res, err := db.Collection("playlists").InsertOne(ctx, playlist)
		if err != nil {
			log.Println("[PLAYLIST] [ERROR] insert failed:", err)
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		playlist.ID, _ = res.InsertedID.(primitive.ObjectID)
		respondOK(c, http.StatusCreated, playlist, "playlist created successfully")
	}
}

func GetUserPlaylists(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /playlist/user/:userId"
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
		}
		pipeline = append(pipeline, playlistVideosLookup()...)

		cursor, err := db.Collection("playlists").Aggregate(ctx, pipeline)
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		playlists := make([]bson.M, 0)
		if err := cursor.All(ctx, &playlists); err != nil {
			respondError(c, http.StatusInternalServerError, route, "decode error")
			return
		}

		respondOK(c, http.StatusOK, playlists, "user playlists fetched successfully")
	}
}

func GetPlaylistByID(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /playlist/:playlistId"
		defer handlePanic(c, route)

		playlistID, err := pathObjectID(c, "playlistId")
		if err != nil {
			respondError(c, http.StatusBadRequest, route, "invalid playlist id")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		pipeline := mongo.Pipeline{
			{{Key: "$match", Value: bson.M{"_id": playlistID}}},
		}
		pipeline = append(pipeline, playlistVideosLookup()...)

		cursor, err := db.Collection("playlists").Aggregate(ctx, pipeline)
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		playlists := make([]bson.M, 0, 1)
		if err := cursor.All(ctx, &playlists); err != nil {
			respondError(c, http.StatusInternalServerError, route, "decode error")
			return
		}
		if len(playlists) == 0 {
			respondError(c, http.StatusNotFound, route, "playlist not found")
			return
		}

		respondOK(c, http.StatusOK, playlists[0], "playlist fetched successfully")
	}
}

// AddVideoToPlaylist appends a video to a playlist. The caller must own both
// the playlist and the video; duplicates are rejected.
func AddVideoToPlaylist(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PATCH /playlist/add/:videoId/:playlistId"
		defer handlePanic(c, route)

		userID, ok := currentUserID(c)
		if !ok {
			respondError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		playlistID, err := pathObjectID(c, "playlistId")
		if err != nil {
			respondError(c, http.StatusBadRequest, route, "invalid playlist id")
			return
		}
		videoID, err := pathObjectID(c, "videoId")
		if err != nil {
			respondError(c, http.StatusBadRequest, route, "invalid video id")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var playlist models.Playlist
		if err := db.Collection("playlists").FindOne(ctx, bson.M{"_id": playlistID}).Decode(&playlist); err != nil {
			respondError(c, http.StatusNotFound, route, "playlist not found")
			return
		}
		if playlist.Owner != userID {
			respondError(c, http.StatusForbidden, route, "you are not authorized to modify this playlist")
			return
		}

		var video models.Video
		if err := db.Collection("videos").FindOne(ctx, bson.M{"_id": videoID}).Decode(&video); err != nil {
			respondError(c, http.StatusNotFound, route, "video not found")
			return
		}
		if video.Owner != userID {
			respondError(c, http.StatusForbidden, route, "you are not authorized to add this video to a playlist")
			return
		}

		for _, existing := range playlist.Videos {
			if existing == videoID {
				respondError(c, http.StatusBadRequest, route, "video already in playlist")
				return
			}
		}

		_, err = db.Collection("playlists").UpdateByID(ctx, playlistID, bson.M{
			"$addToSet": bson.M{"videos": videoID},
			"$set":      bson.M{"updatedAt": time.Now()},
		})
		if err != nil {
			log.Println("[PLAYLIST] [ERROR] add video failed:", err)
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		respondOK(c, http.StatusOK, gin.H{}, "video added to playlist successfully")
	}
}

// RemoveVideoFromPlaylist removes a video from a playlist owned by the caller.
func RemoveVideoFromPlaylist(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PATCH /playlist/remove/:videoId/:playlistId"
		defer handlePanic(c, route)

		userID, ok := currentUserID(c)
		if !ok {
			respondError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		playlistID, err := pathObjectID(c, "playlistId")
		if err != nil {
			respondError(c, http.StatusBadRequest, route, "invalid playlist id")
			return
		}
		videoID, err := pathObjectID(c, "videoId")
		if err != nil {
			respondError(c, http.StatusBadRequest, route, "invalid video id")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var playlist models.Playlist
		if err := db.Collection("playlists").FindOne(ctx, bson.M{"_id": playlistID}).Decode(&playlist); err != nil {
			respondError(c, http.StatusNotFound, route, "playlist not found")
			return
		}
		if playlist.Owner != userID {
			respondError(c, http.StatusForbidden, route, "you are not authorized to modify this playlist")
			return
		}

		found := false
		for _, existing := range playlist.Videos {
			if existing == videoID {
				found = true
				break
			}
		}
		if !found {
			respondError(c, http.StatusBadRequest, route, "video not in playlist")
			return
		}

		_, err = db.Collection("playlists").UpdateByID(ctx, playlistID, bson.M{
			"$pull": bson.M{"videos": videoID},
			"$set":  bson.M{"updatedAt": time.Now()},
		})
		if err != nil {
			log.Println("[PLAYLIST] [ERROR] remove video failed:", err)
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		respondOK(c, http.StatusOK, gin.H{}, "video removed from playlist successfully")
	}
}

func UpdatePlaylist(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PATCH /playlist/:playlistId"
		defer handlePanic(c, route)

		userID, ok := currentUserID(c)
		if !ok {
			respondError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		playlistID, err := pathObjectID(c, "playlistId")
		if err != nil {
			respondError(c, http.StatusBadRequest, route, "invalid playlist id")
			return
		}

		var req updatePlaylistRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, route, "invalid body")
			return
		}

		name := strings.TrimSpace(req.Name)
		description := strings.TrimSpace(req.Description)
		if name == "" && description == "" {
			respondError(c, http.StatusBadRequest, route, "name or description is required")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var playlist models.Playlist
		if err := db.Collection("playlists").FindOne(ctx, bson.M{"_id": playlistID}).Decode(&playlist); err != nil {
			respondError(c, http.StatusNotFound, route, "playlist not found")
			return
		}
		if playlist.Owner != userID {
			respondError(c, http.StatusForbidden, route, "you are not authorized to update this playlist")
			return
		}

		update := bson.M{"updatedAt": time.Now()}
		if name != "" {
			playlist.Name = name
			update["name"] = name
		}
		if description != "" {
			playlist.Description = description
			update["description"] = description
		}

		if _, err := db.Collection("playlists").UpdateByID(ctx, playlistID, bson.M{"$set": update}); err != nil {
			log.Println("[PLAYLIST] [ERROR] update failed:", err)
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		respondOK(c, http.StatusOK, playlist, "playlist updated successfully")
	}
}

func DeletePlaylist(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /playlist/:playlistId"
		defer handlePanic(c, route)

		userID, ok := currentUserID(c)
		if !ok {
			respondError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		playlistID, err := pathObjectID(c, "playlistId")
		if err != nil {
			respondError(c, http.StatusBadRequest, route, "invalid playlist id")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var playlist models.Playlist
		if err := db.Collection("playlists").FindOne(ctx, bson.M{"_id": playlistID}).Decode(&playlist); err != nil {
			respondError(c, http.StatusNotFound, route, "playlist not found")
			return
		}
		if playlist.Owner != userID {
			respondError(c, http.StatusForbidden, route, "you are not authorized to delete this playlist")
			return
		}

		if _, err := db.Collection("playlists").DeleteOne(ctx, bson.M{"_id": playlistID}); err != nil {
			log.Println("[PLAYLIST] [ERROR] delete failed:", err)
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		respondOK(c, http.StatusOK, gin.H{}, "playlist deleted successfully")
	}
}
