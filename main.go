package main

import (
	"log"
	"os"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"videotube/internal/config"
	"videotube/internal/database"
	"videotube/internal/handlers"
	"videotube/internal/middleware"
	"videotube/internal/storage"
)

func main() {
	cfg := config.Load()

	client, err := database.Connect(cfg.MongoURI)
	if err != nil {
		log.Fatal(err)
	}

	db := client.Database(cfg.DBName)

	log.Println("MongoDB connected to:", db.Name())

	if err := database.EnsureUserIndexes(db); err != nil {
		log.Printf("user index warning: %v", err)
	}
	if err := database.EnsureVideoIndexes(db); err != nil {
		log.Printf("video index warning: %v", err)
	}
	if err := database.EnsureCommentIndexes(db); err != nil {
		log.Printf("comment index warning: %v", err)
	}
	if err := database.EnsureLikeIndexes(db); err != nil {
		log.Printf("like index warning: %v", err)
	}
	if err := database.EnsureSubscriptionIndexes(db); err != nil {
		log.Printf("subscription index warning: %v", err)
	}

	media, err := storage.NewMediaStorage(cfg.Media)
	if err != nil {
		log.Fatal(err)
	}

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.CORSOrigin},
		AllowMethods:     []string{"GET", "POST", "PATCH", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	api := r.Group("/api/v1")

	api.GET("/healthcheck", handlers.Healthcheck(db))

	users := api.Group("/users")
	{
		users.POST("/register", handlers.Register(db, media, cfg))
		users.POST("/login", handlers.Login(db, cfg))
		users.POST("/refresh-token", handlers.RefreshToken(db, cfg))
		users.POST("/logout", middleware.Auth(cfg.AccessTokenSecret), handlers.Logout(db, cfg))
		users.GET("/current-user", middleware.Auth(cfg.AccessTokenSecret), handlers.GetCurrentUser(db))
		users.POST("/change-password", middleware.Auth(cfg.AccessTokenSecret), handlers.ChangePassword(db))
		users.GET("/history", middleware.Auth(cfg.AccessTokenSecret), handlers.GetWatchHistory(db))
	}

	videos := api.Group("/videos")
	{
		videos.GET("", handlers.GetAllVideos(db))
		videos.POST("", middleware.Auth(cfg.AccessTokenSecret), handlers.PublishVideo(db, media))
		videos.GET("/:videoId", middleware.OptionalAuth(cfg.AccessTokenSecret), handlers.GetVideoByID(db))
		videos.PATCH("/:videoId", middleware.Auth(cfg.AccessTokenSecret), handlers.UpdateVideo(db, media))
		videos.DELETE("/:videoId", middleware.Auth(cfg.AccessTokenSecret), handlers.DeleteVideo(db, media))
		videos.PATCH("/toggle/publish/:videoId", middleware.Auth(cfg.AccessTokenSecret), handlers.TogglePublishStatus(db))
	}

	comments := api.Group("/comments")
	{
		comments.GET("/:videoId", handlers.GetVideoComments(db))
		comments.POST("/:videoId", middleware.Auth(cfg.AccessTokenSecret), handlers.AddComment(db))
		comments.PATCH("/c/:commentId", middleware.Auth(cfg.AccessTokenSecret), handlers.UpdateComment(db))
		comments.DELETE("/c/:commentId", middleware.Auth(cfg.AccessTokenSecret), handlers.DeleteComment(db))
	}

	likes := api.Group("/likes")
	likes.Use(middleware.Auth(cfg.AccessTokenSecret))
	{
		likes.POST("/toggle/v/:videoId", handlers.ToggleVideoLike(db))
		likes.POST("/toggle/c/:commentId", handlers.ToggleCommentLike(db))
		likes.POST("/toggle/t/:tweetId", handlers.ToggleTweetLike(db))
		likes.GET("/videos", handlers.GetLikedVideos(db))
	}

	tweets := api.Group("/tweets")
	{
		tweets.POST("", middleware.Auth(cfg.AccessTokenSecret), handlers.CreateTweet(db))
		tweets.GET("/user/:userId", handlers.GetUserTweets(db))
		tweets.PATCH("/:tweetId", middleware.Auth(cfg.AccessTokenSecret), handlers.UpdateTweet(db))
		tweets.DELETE("/:tweetId", middleware.Auth(cfg.AccessTokenSecret), handlers.DeleteTweet(db))
	}

	subscriptions := api.Group("/subscriptions")
	subscriptions.Use(middleware.Auth(cfg.AccessTokenSecret))
	{
		subscriptions.GET("/c/:channelId", handlers.GetChannelSubscribers(db))
		subscriptions.POST("/c/:channelId", handlers.ToggleSubscription(db))
		subscriptions.GET("/u/:subscriberId", handlers.GetSubscribedChannels(db))
	}

	playlist := api.Group("/playlist")
	playlist.Use(middleware.Auth(cfg.AccessTokenSecret))
	{
		playlist.POST("", handlers.CreatePlaylist(db))
		playlist.GET("/user/:userId", handlers.GetUserPlaylists(db))
		playlist.GET("/:playlistId", handlers.GetPlaylistByID(db))
		playlist.PATCH("/:playlistId", handlers.UpdatePlaylist(db))
		playlist.DELETE("/:playlistId", handlers.DeletePlaylist(db))
		playlist.PATCH("/add/:videoId/:playlistId", handlers.AddVideoToPlaylist(db))
		playlist.PATCH("/remove/:videoId/:playlistId", handlers.RemoveVideoFromPlaylist(db))
	}

	dashboard := api.Group("/dashboard")
	dashboard.Use(middleware.Auth(cfg.AccessTokenSecret))
	{
		dashboard.GET("/stats", handlers.GetChannelStats(db))
		dashboard.GET("/videos", handlers.GetChannelVideos(db))
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	r.Run(":" + port)
}
