package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/v2/bson"

	"vidtube/internal/httputil"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const (
	// UserIDKey is the context key for the authenticated user's ID
	UserIDKey contextKey = "user_id"

	// AccessTokenCookie carries the access token for browser clients.
	AccessTokenCookie = "access_token"
)

var (
	errMissingToken  = errors.New("Unauthorized request")
	errExpiredToken  = errors.New("Access token has expired")
	errInvalidToken  = errors.New("Invalid access token")
	errInvalidClaims = errors.New("Invalid token claims")
)

// AuthMiddleware creates a middleware that validates JWT tokens
// Checks Authorization header first (for mobile), then falls back to cookie (for web)
func AuthMiddleware(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := authenticate(r, jwtSecret)
			if err != nil {
				httputil.WriteUnauthorized(w, err.Error())
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuthMiddleware attaches the user when a valid token is present and
// lets anonymous requests through otherwise.
func OptionalAuthMiddleware(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := authenticate(r, jwtSecret)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			ctx := context.WithValue(r.Context(), UserIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func authenticate(r *http.Request, jwtSecret string) (bson.ObjectID, error) {
	tokenString := bearerToken(r)

	// Fall back to cookie (web browsers)
	if tokenString == "" {
		cookie, err := r.Cookie(AccessTokenCookie)
		if err == nil && cookie.Value != "" {
			tokenString = cookie.Value
		}
	}
	if tokenString == "" {
		return bson.NilObjectID, errMissingToken
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(jwtSecret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return bson.NilObjectID, errExpiredToken
		}
		return bson.NilObjectID, errInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return bson.NilObjectID, errInvalidToken
	}

	raw, ok := claims["user_id"].(string)
	if !ok {
		return bson.NilObjectID, errInvalidClaims
	}
	userID, err := bson.ObjectIDFromHex(raw)
	if err != nil {
		return bson.NilObjectID, errInvalidClaims
	}
	return userID, nil
}

// bearerToken reads "Authorization: Bearer <token>".
func bearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// GetUserIDFromContext extracts the user ID from the request context
// Returns the user ID and true if found, or the zero id and false if not found
func GetUserIDFromContext(ctx context.Context) (bson.ObjectID, bool) {
	userID, ok := ctx.Value(UserIDKey).(bson.ObjectID)
	return userID, ok
}

// WithUserID stores a user id the way the auth middleware does.
func WithUserID(ctx context.Context, userID bson.ObjectID) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}
