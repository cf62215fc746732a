package database

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func EnsureUserIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	indexes := db.Collection("users").Indexes()

	userIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetName("username_unique").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName("email_unique").SetUnique(true),
		},
	}

	log.Println("EnsureUserIndexes: creating username_unique and email_unique indexes")
	_, err := indexes.CreateMany(ctx, userIndexes)
	if err != nil {
		log.Println("EnsureUserIndexes: index error:", err)
		return err
	}
	return nil
}

func EnsureVideoIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	indexes := db.Collection("videos").Indexes()

	ownerIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "owner", Value: 1}},
		Options: options.Index().SetName("owner_index"),
	}

	log.Println("EnsureVideoIndexes: creating owner_index index")
	_, err := indexes.CreateOne(ctx, ownerIndex)
	if err != nil {
		log.Println("EnsureVideoIndexes: owner index error:", err)
		return err
	}
	return nil
}

func EnsureCommentIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	indexes := db.Collection("comments").Indexes()

	videoIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "video", Value: 1}},
		Options: options.Index().SetName("video_index"),
	}

	log.Println("EnsureCommentIndexes: creating video_index index")
	_, err := indexes.CreateOne(ctx, videoIndex)
	if err != nil {
		log.Println("EnsureCommentIndexes: video index error:", err)
		return err
	}
	return nil
}

func EnsureLikeIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	indexes := db.Collection("likes").Indexes()

	likedByIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "likedBy", Value: 1}},
		Options: options.Index().SetName("likedBy_index"),
	}

	log.Println("EnsureLikeIndexes: creating likedBy_index index")
	_, err := indexes.CreateOne(ctx, likedByIndex)
	if err != nil {
		log.Println("EnsureLikeIndexes: likedBy index error:", err)
		return err
	}
	return nil
}

func EnsureSubscriptionIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	indexes := db.Collection("subscriptions").Indexes()

	pairIndex := mongo.IndexModel{
		Keys: bson.D{
			{Key: "subscriber", Value: 1},
			{Key: "channel", Value: 1},
		},
		Options: options.Index().SetName("subscriber_channel_unique").SetUnique(true),
	}

	log.Println("EnsureSubscriptionIndexes: creating subscriber_channel_unique index")
	_, err := indexes.CreateOne(ctx, pairIndex)
	if err != nil {
		log.Println("EnsureSubscriptionIndexes: pair index error:", err)
		return err
	}
	return nil
}
