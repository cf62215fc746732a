package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrInvalidToken covers every verification failure: bad signature, wrong
// signing method, expired token, malformed or missing claims. Callers map it
// to a single 401 so the response does not reveal which check failed.
var ErrInvalidToken = errors.New("invalid token")

// Identity is the minimal account identity embedded in an access token.
type Identity struct {
	UserID   primitive.ObjectID
	Username string
	Email    string
}

// SignAccessToken mints the short-lived access token. Access and refresh
// tokens use distinct secrets so compromise of one does not compromise the
// other.
func SignAccessToken(identity Identity, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"jti":      uuid.NewString(),
		"userId":   identity.UserID.Hex(),
		"username": identity.Username,
		"email":    identity.Email,
		"iat":      now.Unix(),
		"exp":      now.Add(ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// SignRefreshToken mints the long-lived refresh token. It carries only the
// account id; everything else is reloaded from the store on redemption. The
// jti keeps every issued token distinct, otherwise two tokens minted in the
// same second would be byte-identical and rotation would not invalidate the
// old one.
func SignRefreshToken(userID primitive.ObjectID, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"jti":    uuid.NewString(),
		"userId": userID.Hex(),
		"iat":    now.Unix(),
		"exp":    now.Add(ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseAccessToken verifies signature and expiry, then decodes the embedded
// identity.
func ParseAccessToken(raw, secret string) (Identity, error) {
	claims, err := parseClaims(raw, secret)
	if err != nil {
		return Identity{}, err
	}

	userID, err := userIDClaim(claims)
	if err != nil {
		return Identity{}, err
	}

	username, _ := claims["username"].(string)
	email, _ := claims["email"].(string)

	return Identity{UserID: userID, Username: username, Email: email}, nil
}

// ParseRefreshToken verifies signature and expiry of a refresh token and
// returns the account id it was issued for.
func ParseRefreshToken(raw, secret string) (primitive.ObjectID, error) {
	claims, err := parseClaims(raw, secret)
	if err != nil {
		return primitive.NilObjectID, err
	}
	return userIDClaim(claims)
}

func parseClaims(raw, secret string) (jwt.MapClaims, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, ErrInvalidToken
	}

	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func userIDClaim(claims jwt.MapClaims) (primitive.ObjectID, error) {
	value, ok := claims["userId"].(string)
	if !ok || strings.TrimSpace(value) == "" {
		return primitive.NilObjectID, ErrInvalidToken
	}

	userID, err := primitive.ObjectIDFromHex(value)
	if err != nil {
		return primitive.NilObjectID, ErrInvalidToken
	}
	return userID, nil
}
