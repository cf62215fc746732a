package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Subscription links a subscriber to the channel (user) they follow.
type Subscription struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Subscriber primitive.ObjectID `bson:"subscriber" json:"subscriber"`
	Channel    primitive.ObjectID `bson:"channel" json:"channel"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
}
