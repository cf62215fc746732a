package handlers

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"videotube/internal/models"
	"videotube/internal/storage"
)

type updateVideoRequest struct {
	Title       string `form:"title" json:"title"`
	Description string `form:"description" json:"description"`
}

var videoSortFields = map[string]bool{
	"createdAt": true,
	"duration":  true,
	"views":     true,
	"title":     true,
}

func validateSortParams(sortBy, sortType string) (string, int, bool) {
	if sortBy == "" {
		sortBy = "createdAt"
	}
	if !videoSortFields[sortBy] {
		return "", 0, false
	}

	order := -1
	switch sortType {
	case "", "desc":
	case "asc":
		order = 1
	default:
		return "", 0, false
	}

	return sortBy, order, true
}

// videoOwnerLookup joins the owner user document, projected down to the
// public channel fields.
func videoOwnerLookup() []bson.D {
	return []bson.D{
		{{Key: "$lookup", Value: bson.M{
			"from":         "users",
			"localField":   "owner",
			"foreignField": "_id",
			"as":           "owner",
			"pipeline": []bson.M{
				{"$project": bson.M{"_id": 1, "username": 1, "fullName": 1, "avatar": 1}},
			},
		}}},
		{{Key: "$addFields", Value: bson.M{
			"owner": bson.M{"$first": "$owner"},
		}}},
	}
}

// GetAllVideos lists published videos filtered by a search keyword and/or an
// owner, sorted and paginated, each with its owner joined in.
func GetAllVideos(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /videos"
		defer handlePanic(c, route)

		query := strings.TrimSpace(c.Query("query"))
		userIDStr := strings.TrimSpace(c.Query("userId"))
		if query == "" && userIDStr == "" {
			respondError(c, http.StatusBadRequest, route, "search keyword or userId is required")
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

		match := bson.M{"isPublished": true}
		if query != "" {
			match["$or"] = []bson.M{
				{"title": bson.M{"$regex": query, "$options": "i"}},
				{"description": bson.M{"$regex": query, "$options": "i"}},
			}
		}
		if userIDStr != "" {
			ownerID, err := primitive.ObjectIDFromHex(userIDStr)
			if err != nil {
				respondError(c, http.StatusBadRequest, route, "invalid userId")
				return
			}
			match["owner"] = ownerID
		}

		if err := ensureDBConnection(c.Request.Context(), db); err != nil {
			respondError(c, http.StatusServiceUnavailable, route, "database unavailable")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

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
		}
		pipeline = append(pipeline, videoOwnerLookup()...)

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

		log.Printf("[VIDEO] [INFO] listing returned %d videos", len(videos))
		respondOK(c, http.StatusOK, gin.H{
			"videos": videos,
			"pagination": gin.H{
				"page":  page,
				"limit": limit,
				"total": total,
			},
		}, "videos fetched successfully")
	}
}

// PublishVideo uploads the video file and thumbnail to object storage and
// creates the video document for the authenticated owner.
func PublishVideo(db *mongo.Database, media *storage.MediaStorage) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /videos"
		defer handlePanic(c, route)

		userID, ok := currentUserID(c)
		if !ok {
			respondError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		title := strings.TrimSpace(c.PostForm("title"))
		description := strings.TrimSpace(c.PostForm("description"))
		if title == "" {
			respondError(c, http.StatusBadRequest, route, "title is required")
			return
		}
		if description == "" {
			respondError(c, http.StatusBadRequest, route, "description is required")
			return
		}

		duration := 0.0
		if durationStr := strings.TrimSpace(c.PostForm("duration")); durationStr != "" {
			parsed, err := strconv.ParseFloat(durationStr, 64)
			if err != nil || parsed < 0 {
				respondError(c, http.StatusBadRequest, route, "invalid duration")
				return
			}
			duration = parsed
		}

		videoFile, err := c.FormFile("video")
		if err != nil {
			respondError(c, http.StatusBadRequest, route, "video file is required")
			return
		}
		thumbnailFile, err := c.FormFile("thumbnail")
		if err != nil {
			respondError(c, http.StatusBadRequest, route, "thumbnail file is required")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 60*time.Second)
		defer cancel()

		videoURL, err := media.Upload(ctx, "videos", videoFile)
		if err != nil {
			log.Println("[VIDEO] [ERROR] video upload failed:", err)
			respondError(c, http.StatusInternalServerError, route, "video upload failed")
			return
		}

		thumbnailURL, err := media.Upload(ctx, "thumbnails", thumbnailFile)
		if err != nil {
			log.Println("[VIDEO] [ERROR] thumbnail upload failed:", err)
			respondError(c, http.StatusInternalServerError, route, "thumbnail upload failed")
			return
		}

		now := time.Now()
		video := models.Video{
			VideoFile:   videoURL,
			Thumbnail:   thumbnailURL,
			Title:       title,
			Description: description,
			Duration:    duration,
			IsPublished: true,
			Owner:       userID,
			CreatedAt:   now,
			UpdatedAt:   now,
		}

		res, err := db.Collection("videos").InsertOne(ctx, video)
		if err != nil {
			log.Println("[VIDEO] [ERROR] insert failed:", err)
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		video.ID, _ = res.InsertedID.(primitive.ObjectID)
		log.Println("[VIDEO] [INFO] video published:", video.ID.Hex())
		respondOK(c, http.StatusCreated, video, "video uploaded successfully")
	}
}

// GetVideoByID increments the view counter and returns the video with its
// owner, the owner's subscriber count, whether the current viewer subscribes
// to the owner, and the like count. Authenticated views are appended to the
// viewer's watch history.
func GetVideoByID(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /videos/:videoId"
		defer handlePanic(c, route)

		videoID, err := pathObjectID(c, "videoId")
		if err != nil {
			respondError(c, http.StatusBadRequest, route, "invalid video id")
			return
		}

		viewerID, hasViewer := currentUserID(c)

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		res, err := db.Collection("videos").UpdateByID(ctx, videoID, bson.M{"$inc": bson.M{"views": 1}})
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if res.MatchedCount == 0 {
			respondError(c, http.StatusNotFound, route, "video not found")
			return
		}

		ownerPipeline := []bson.M{
			{"$lookup": bson.M{
				"from":         "subscriptions",
				"localField":   "_id",
				"foreignField": "channel",
				"as":           "subscribers",
			}},
			{"$addFields": bson.M{
				"subscribersCount": bson.M{"$size": "$subscribers"},
				"isSubscribed": bson.M{
					"$cond": bson.M{
						"if":   bson.M{"$in": []interface{}{viewerID, "$subscribers.subscriber"}},
						"then": true,
						"else": false,
					},
				},
			}},
			{"$project": bson.M{
				"_id":              1,
				"username":         1,
				"fullName":         1,
				"avatar":           1,
				"subscribersCount": 1,
				"isSubscribed":     1,
			}},
		}

		pipeline := mongo.Pipeline{
			{{Key: "$match", Value: bson.M{"_id": videoID}}},
			{{Key: "$lookup", Value: bson.M{
				"from":         "users",
				"localField":   "owner",
				"foreignField": "_id",
				"as":           "owner",
				"pipeline":     ownerPipeline,
			}}},
			{{Key: "$lookup", Value: bson.M{
				"from":         "likes",
				"localField":   "_id",
				"foreignField": "video",
				"as":           "likes",
			}}},
			{{Key: "$addFields", Value: bson.M{
				"owner":      bson.M{"$first": "$owner"},
				"likesCount": bson.M{"$size": "$likes"},
			}}},
			{{Key: "$project", Value: bson.M{"likes": 0}}},
		}

		cursor, err := db.Collection("videos").Aggregate(ctx, pipeline)
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		videos := make([]bson.M, 0, 1)
		if err := cursor.All(ctx, &videos); err != nil {
			respondError(c, http.StatusInternalServerError, route, "decode error")
			return
		}
		if len(videos) == 0 {
			respondError(c, http.StatusNotFound, route, "video not found")
			return
		}

		if hasViewer {
			recordWatchHistory(ctx, db, viewerID, videoID)
		}

		respondOK(c, http.StatusOK, videos[0], "video fetched successfully")
	}
}

// UpdateVideo changes title, description and optionally the thumbnail of a
// video owned by the caller.
func UpdateVideo(db *mongo.Database, media *storage.MediaStorage) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PATCH /videos/:videoId"
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

		var req updateVideoRequest
		if err := c.ShouldBind(&req); err != nil {
			respondError(c, http.StatusBadRequest, route, "invalid body")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
		defer cancel()

		var video models.Video
		if err := db.Collection("videos").FindOne(ctx, bson.M{"_id": videoID}).Decode(&video); err != nil {
			respondError(c, http.StatusNotFound, route, "video not found")
			return
		}
		if video.Owner != userID {
			respondError(c, http.StatusForbidden, route, "you are not authorized to update this video")
			return
		}

		update := bson.M{"updatedAt": time.Now()}
		if title := strings.TrimSpace(req.Title); title != "" {
			update["title"] = title
		}
		if description := strings.TrimSpace(req.Description); description != "" {
			update["description"] = description
		}

		if thumbnailFile, err := c.FormFile("thumbnail"); err == nil {
			thumbnailURL, err := media.Upload(ctx, "thumbnails", thumbnailFile)
			if err != nil {
				log.Println("[VIDEO] [ERROR] thumbnail upload failed:", err)
				respondError(c, http.StatusInternalServerError, route, "thumbnail upload failed")
				return
			}
			if err := media.Remove(ctx, video.Thumbnail); err != nil {
				log.Println("[VIDEO] [ERROR] old thumbnail removal failed:", err)
			}
			update["thumbnail"] = thumbnailURL
		}

		if _, err := db.Collection("videos").UpdateByID(ctx, videoID, bson.M{"$set": update}); err != nil {
			log.Println("[VIDEO] [ERROR] update failed:", err)
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		respondOK(c, http.StatusOK, gin.H{}, "video updated successfully")
	}
}

// DeleteVideo removes a video owned by the caller together with its stored
// media objects.
func DeleteVideo(db *mongo.Database, media *storage.MediaStorage) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /videos/:videoId"
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

		ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
		defer cancel()

		var video models.Video
		if err := db.Collection("videos").FindOne(ctx, bson.M{"_id": videoID}).Decode(&video); err != nil {
			respondError(c, http.StatusNotFound, route, "video not found")
			return
		}
		if video.Owner != userID {
			respondError(c, http.StatusForbidden, route, "you are not authorized to delete this video")
			return
		}

		if _, err := db.Collection("videos").DeleteOne(ctx, bson.M{"_id": videoID}); err != nil {
			log.Println("[VIDEO] [ERROR] delete failed:", err)
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		if err := media.Remove(ctx, video.VideoFile); err != nil {
			log.Println("[VIDEO] [ERROR] video file removal failed:", err)
		}
		if err := media.Remove(ctx, video.Thumbnail); err != nil {
			log.Println("[VIDEO] [ERROR] thumbnail removal failed:", err)
		}

		log.Println("[VIDEO] [INFO] video deleted:", videoID.Hex())
		respondOK(c, http.StatusOK, gin.H{}, "video deleted successfully")
	}
}

// TogglePublishStatus flips isPublished on a video owned by the caller.
func TogglePublishStatus(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PATCH /videos/toggle/publish/:videoId"
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

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var video models.Video
		if err := db.Collection("videos").FindOne(ctx, bson.M{"_id": videoID}).Decode(&video); err != nil {
			respondError(c, http.StatusNotFound, route, "video not found")
			return
		}
		if video.Owner != userID {
			respondError(c, http.StatusForbidden, route, "you are not authorized to update this video")
			return
		}

		video.IsPublished = !video.IsPublished
		video.UpdatedAt = time.Now()

		_, err = db.Collection("videos").UpdateByID(ctx, videoID, bson.M{
			"$set": bson.M{
				"isPublished": video.IsPublished,
				"updatedAt":   video.UpdatedAt,
			},
		})
		if err != nil {
			log.Println("[VIDEO] [ERROR] publish toggle failed:", err)
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		respondOK(c, http.StatusOK, gin.H{"video": video}, "video publish status updated successfully")
	}
}
