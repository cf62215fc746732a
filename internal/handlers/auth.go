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
	"golang.org/x/crypto/bcrypt"

	"videotube/internal/auth"
	"videotube/internal/config"
	"videotube/internal/models"
	"videotube/internal/storage"
)

type LoginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required"`
}

// Register creates an account from a multipart form: fullName, email,
// username, password plus a required avatar file and an optional coverImage.
func Register(db *mongo.Database, media *storage.MediaStorage, cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /users/register"
		defer handlePanic(c, route)

		fullName := strings.TrimSpace(c.PostForm("fullName"))
		email := strings.ToLower(strings.TrimSpace(c.PostForm("email")))
		username := strings.ToLower(strings.TrimSpace(c.PostForm("username")))
		password := c.PostForm("password")

		if fullName == "" || email == "" || username == "" || strings.TrimSpace(password) == "" {
			respondError(c, http.StatusBadRequest, route, "fullName, email, username and password are required")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		count, err := db.Collection("users").CountDocuments(ctx, bson.M{
			"$or": []bson.M{{"username": username}, {"email": email}},
		})
		if err != nil {
			log.Println("[AUTH] [ERROR] register lookup failed:", err)
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if count > 0 {
			log.Println("[AUTH] [ERROR] register username or email exists:", username)
			respondError(c, http.StatusConflict, route, "user with email or username already exists")
			return
		}

		avatarFile, err := c.FormFile("avatar")
		if err != nil {
			respondError(c, http.StatusBadRequest, route, "avatar file is required")
			return
		}

		avatarURL, err := media.Upload(ctx, "avatars", avatarFile)
		if err != nil {
			log.Println("[AUTH] [ERROR] avatar upload failed:", err)
			respondError(c, http.StatusInternalServerError, route, "avatar upload failed")
			return
		}

		coverURL := ""
		if coverFile, err := c.FormFile("coverImage"); err == nil {
			coverURL, err = media.Upload(ctx, "covers", coverFile)
			if err != nil {
				log.Println("[AUTH] [ERROR] cover image upload failed:", err)
				respondError(c, http.StatusInternalServerError, route, "cover image upload failed")
				return
			}
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			log.Println("[AUTH] [ERROR] register password hash failed:", err)
			respondError(c, http.StatusInternalServerError, route, "password hash failed")
			return
		}

		now := time.Now()
		user := models.User{
			Username:     username,
			Email:        email,
			FullName:     fullName,
			Avatar:       avatarURL,
			CoverImage:   coverURL,
			PasswordHash: string(hash),
			CreatedAt:    now,
			UpdatedAt:    now,
		}

		res, err := db.Collection("users").InsertOne(ctx, user)
		if err != nil {
			log.Println("[AUTH] [ERROR] register insert failed:", err)
			status, message := registerInsertStatus(err)
			respondError(c, status, route, message)
			return
		}

		user.ID, _ = res.InsertedID.(primitive.ObjectID)
		log.Println("[AUTH] [INFO] user registered:", username)
		respondOK(c, http.StatusCreated, user, "user registered successfully")
	}
}

// Login verifies credentials (username or email plus password), issues a
// fresh token pair and delivers it through both the response body and
// httpOnly cookies.
func Login(db *mongo.Database, cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /users/login"
		defer handlePanic(c, route)

		var req LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, route, "invalid body")
			return
		}

		username := strings.ToLower(strings.TrimSpace(req.Username))
		email := strings.ToLower(strings.TrimSpace(req.Email))
		if username == "" && email == "" {
			respondError(c, http.StatusBadRequest, route, "username or email is required")
			return
		}
		if strings.TrimSpace(req.Password) == "" {
			respondError(c, http.StatusBadRequest, route, "password is required")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var user models.User
		err := db.Collection("users").FindOne(ctx, bson.M{
			"$or": []bson.M{{"username": username}, {"email": email}},
		}).Decode(&user)
		if err == mongo.ErrNoDocuments {
			respondError(c, http.StatusNotFound, route, "user not registered")
			return
		}
		if err != nil {
			log.Println("[AUTH] [ERROR] login user lookup failed:", err)
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
			log.Println("[AUTH] [ERROR] login invalid credentials for user")
			respondError(c, http.StatusUnauthorized, route, "invalid credentials")
			return
		}

		accessToken, refreshToken, err := issueTokenPair(ctx, db, user, cfg)
		if err != nil {
			log.Println("[AUTH] [ERROR] login token issuance failed:", err)
			respondError(c, http.StatusInternalServerError, route, "token generation failed")
			return
		}

		setAuthCookies(c, accessToken, refreshToken, cfg)

		log.Println("[AUTH] [INFO] user login succeeded:", user.Username)
		respondOK(c, http.StatusOK, gin.H{
			"user":         user,
			"accessToken":  accessToken,
			"refreshToken": refreshToken,
		}, "user logged in successfully")
	}
}

// RefreshToken redeems a refresh token (cookie first, body fallback) for a
// new token pair, rotating the stored refresh token. Every failure mode
// answers 401 so the response does not reveal which check rejected the token.
func RefreshToken(db *mongo.Database, cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /users/refresh-token"
		defer handlePanic(c, route)

		presented := refreshTokenFromRequest(c)
		if presented == "" {
			respondError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		userID, err := auth.ParseRefreshToken(presented, cfg.RefreshTokenSecret)
		if err != nil {
			log.Println("[AUTH] [ERROR] refresh token validation failed")
			respondError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var user models.User
		if err := db.Collection("users").FindOne(ctx, bson.M{"_id": userID}).Decode(&user); err != nil {
			log.Println("[AUTH] [ERROR] refresh user lookup failed")
			respondError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		if !storedRefreshTokenMatches(user.RefreshToken, presented) {
			log.Println("[AUTH] [ERROR] stale refresh token presented for user:", user.Username)
			respondError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		accessToken, refreshToken, err := issueTokenPair(ctx, db, user, cfg)
		if err != nil {
			log.Println("[AUTH] [ERROR] refresh token issuance failed:", err)
			respondError(c, http.StatusInternalServerError, route, "token generation failed")
			return
		}

		setAuthCookies(c, accessToken, refreshToken, cfg)

		respondOK(c, http.StatusOK, gin.H{
			"accessToken":  accessToken,
			"refreshToken": refreshToken,
		}, "access token refreshed")
	}
}

// Logout clears the stored refresh token and both cookies. Calling it twice
// is safe; the second unset simply finds the field already empty.
func Logout(db *mongo.Database, cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /users/logout"
		defer handlePanic(c, route)

		userID, ok := currentUserID(c)
		if !ok {
			respondError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		_, err := db.Collection("users").UpdateByID(ctx, userID, bson.M{
			"$unset": bson.M{"refreshToken": 1},
		})
		if err != nil {
			log.Println("[AUTH] [ERROR] logout failed:", err)
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		clearAuthCookies(c, cfg)
		log.Println("[AUTH] [INFO] user logged out")
		respondOK(c, http.StatusOK, gin.H{}, "user logged out successfully")
	}
}

func GetCurrentUser(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /users/current-user"

		userID, ok := currentUserID(c)
		if !ok {
			respondError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var user models.User
		if err := db.Collection("users").FindOne(ctx, bson.M{"_id": userID}).Decode(&user); err != nil {
			respondError(c, http.StatusNotFound, route, "user not found")
			return
		}

		respondOK(c, http.StatusOK, user, "current user fetched successfully")
	}
}

func ChangePassword(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /users/change-password"
		defer handlePanic(c, route)

		userID, ok := currentUserID(c)
		if !ok {
			respondError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		var req ChangePasswordRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var user models.User
		if err := db.Collection("users").FindOne(ctx, bson.M{"_id": userID}).Decode(&user); err != nil {
			respondError(c, http.StatusNotFound, route, "user not found")
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.OldPassword)); err != nil {
			respondError(c, http.StatusUnauthorized, route, "invalid credentials")
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
		if err != nil {
			log.Println("[AUTH] [ERROR] change password hash failed:", err)
			respondError(c, http.StatusInternalServerError, route, "password hash failed")
			return
		}

		_, err = db.Collection("users").UpdateByID(ctx, userID, bson.M{
			"$set": bson.M{
				"passwordHash": string(hash),
				"updatedAt":    time.Now(),
			},
		})
		if err != nil {
			log.Println("[AUTH] [ERROR] change password update failed:", err)
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		respondOK(c, http.StatusOK, gin.H{}, "password changed successfully")
	}
}

// issueTokenPair signs a new access/refresh pair and persists the refresh
// token on the user document in a single atomic update, replacing any prior
// value. Tokens are only handed out once the refresh token is durably
// recorded; an unrecorded refresh token could never be redeemed.
func issueTokenPair(ctx context.Context, db *mongo.Database, user models.User, cfg config.Config) (string, string, error) {
	identity := auth.Identity{
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
	}

	accessToken, err := auth.SignAccessToken(identity, cfg.AccessTokenSecret, cfg.AccessTokenTTL)
	if err != nil {
		return "", "", err
	}

	refreshToken, err := auth.SignRefreshToken(user.ID, cfg.RefreshTokenSecret, cfg.RefreshTokenTTL)
	if err != nil {
		return "", "", err
	}

	_, err = db.Collection("users").UpdateByID(ctx, user.ID, bson.M{
		"$set": bson.M{
			"refreshToken": refreshToken,
			"updatedAt":    time.Now(),
		},
	})
	if err != nil {
		return "", "", err
	}

	return accessToken, refreshToken, nil
}

// registerInsertStatus maps an insert failure to the response status. A
// concurrent registration can slip past the pre-check and land on the unique
// username/email index instead; that is still a conflict, not a server error.
func registerInsertStatus(err error) (int, string) {
	if mongo.IsDuplicateKeyError(err) {
		return http.StatusConflict, "user with email or username already exists"
	}
	return http.StatusInternalServerError, "db error"
}

// storedRefreshTokenMatches decides whether a cryptographically valid
// refresh token may be redeemed: it must byte-equal the one currently
// recorded on the account. An empty stored value means logout cleared it;
// any other mismatch is a token rotated out by a later login or refresh.
func storedRefreshTokenMatches(stored, presented string) bool {
	return stored != "" && stored == presented
}

// refreshTokenFromRequest reads the refresh token from the cookie first,
// falling back to the request body.
func refreshTokenFromRequest(c *gin.Context) string {
	if cookie, err := c.Cookie("refreshToken"); err == nil && strings.TrimSpace(cookie) != "" {
		return strings.TrimSpace(cookie)
	}

	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return ""
	}
	return strings.TrimSpace(req.RefreshToken)
}

func setAuthCookies(c *gin.Context, accessToken, refreshToken string, cfg config.Config) {
	c.SetCookie("accessToken", accessToken, int(cfg.AccessTokenTTL.Seconds()), "/", "", cfg.CookieSecure, true)
	c.SetCookie("refreshToken", refreshToken, int(cfg.RefreshTokenTTL.Seconds()), "/", "", cfg.CookieSecure, true)
}

func clearAuthCookies(c *gin.Context, cfg config.Config) {
	c.SetCookie("accessToken", "", -1, "/", "", cfg.CookieSecure, true)
	c.SetCookie("refreshToken", "", -1, "/", "", cfg.CookieSecure, true)
}
