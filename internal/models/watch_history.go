package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WatchHistoryEntry is appended whenever an authenticated user opens a video.
type WatchHistoryEntry struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Video     primitive.ObjectID `bson:"video" json:"video"`
	Owner     primitive.ObjectID `bson:"owner" json:"owner"`
	WatchedAt time.Time          `bson:"watchedAt" json:"watchedAt"`
}
