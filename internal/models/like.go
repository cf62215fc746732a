package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Like records a user liking exactly one of a video, a comment or a tweet.
// The unused target fields stay nil and are omitted from the document.
type Like struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Video     *primitive.ObjectID `bson:"video,omitempty" json:"video,omitempty"`
	Comment   *primitive.ObjectID `bson:"comment,omitempty" json:"comment,omitempty"`
	Tweet     *primitive.ObjectID `bson:"tweet,omitempty" json:"tweet,omitempty"`
	LikedBy   primitive.ObjectID  `bson:"likedBy" json:"likedBy"`
	CreatedAt time.Time           `bson:"createdAt" json:"createdAt"`
}
