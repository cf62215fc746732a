package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	MongoURI           string
	DBName             string
	CORSOrigin         string
	AccessTokenSecret  string
	RefreshTokenSecret string
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
	CookieSecure       bool
	Media              MediaConfig
}

// MediaConfig points at the object storage bucket that holds uploaded
// avatars, cover images, videos and thumbnails.
type MediaConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	PublicURL string
}

// Load reads the environment (optionally seeded from a .env file) into an
// explicit Config that main wires into every component at startup.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Println(".env not loaded:", err)
	}
	return Config{
		MongoURI:           getEnvOrDefault("MONGO_URI", "mongodb://localhost:27017"),
		DBName:             getEnvOrDefault("DB_NAME", "videotube"),
		CORSOrigin:         getEnvOrDefault("CORS_ORIGIN", "*"),
		AccessTokenSecret:  requireEnv("ACCESS_TOKEN_SECRET"),
		RefreshTokenSecret: requireEnv("REFRESH_TOKEN_SECRET"),
		AccessTokenTTL:     getDurationEnv("ACCESS_TOKEN_TTL", 30, time.Minute),
		RefreshTokenTTL:    getDurationEnv("REFRESH_TOKEN_TTL", 10, 24*time.Hour),
		CookieSecure:       getBoolEnv("COOKIE_SECURE", false),
		Media: MediaConfig{
			Endpoint:  getEnvOrDefault("MEDIA_ENDPOINT", "localhost:9000"),
			AccessKey: getEnvOrDefault("MEDIA_ACCESS_KEY", ""),
			SecretKey: getEnvOrDefault("MEDIA_SECRET_KEY", ""),
			Bucket:    getEnvOrDefault("MEDIA_BUCKET", "videotube-media"),
			UseSSL:    getBoolEnv("MEDIA_USE_SSL", false),
			PublicURL: getEnvOrDefault("MEDIA_PUBLIC_URL", ""),
		},
	}
}

func requireEnv(key string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		log.Fatalf("ENV %s is required", key)
	}
	return value
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue int, unit time.Duration) time.Duration {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			return time.Duration(parsed) * unit
		}
	}
	return time.Duration(defaultValue) * unit
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
