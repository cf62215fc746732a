package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is the account document. PasswordHash and RefreshToken are never
// serialized to JSON; RefreshToken holds the single currently valid refresh
// token and is overwritten on every login/refresh and unset on logout.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Username     string             `bson:"username" json:"username"`
	Email        string             `bson:"email" json:"email"`
	FullName     string             `bson:"fullName" json:"fullName"`
	Avatar       string             `bson:"avatar" json:"avatar"`
	CoverImage   string             `bson:"coverImage,omitempty" json:"coverImage,omitempty"`
	PasswordHash string             `bson:"passwordHash" json:"-"`
	RefreshToken string             `bson:"refreshToken,omitempty" json:"-"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}
