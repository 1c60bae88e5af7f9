package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"project-tracker/backend/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
)

const (
	UserIDKey       = "user_id"
	SessionTokenKey = "session_token"
)

var errNoSessionToken = errors.New("no session token")

// SessionResolver maps a session token to the user it was issued for. A token
// that is unknown or expired resolves to session.ErrInvalidSession; any other
// error is a store failure.
type SessionResolver interface {
	ResolveSession(ctx context.Context, token string) (uuid.UUID, error)
}

type SessionConfig struct {
	CookieName string
}

// ExtractSessionToken reads the session cookie first and falls back to an
// Authorization: Bearer header.
func ExtractSessionToken(c *gin.Context, cookieName string) (string, error) {
	if cookieName != "" {
		if cookie, err := c.Cookie(cookieName); err == nil && cookie != "" {
			return cookie, nil
		}
	}

	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", errNoSessionToken
	}
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", errNoSessionToken
	}

	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	if token == "" {
		return "", errNoSessionToken
	}
	return token, nil
}

// RequireSession rejects requests without a live session and stores the
// resolved user ID under UserIDKey.
func RequireSession(resolver SessionResolver, config SessionConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := ExtractSessionToken(c, config.CookieName)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthenticated",
				"message": "Please log in to continue",
			})
			return
		}

		userID, err := resolver.ResolveSession(c.Request.Context(), token)
		if errors.Is(err, session.ErrInvalidSession) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthenticated",
				"message": "Session is invalid or has expired",
			})
			return
		}
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error":   "storage_error",
				"message": "An unexpected error occurred. Please try again later.",
			})
			return
		}

		c.Set(UserIDKey, userID)
		c.Set(SessionTokenKey, token)

		c.Next()
	}
}

// CurrentUserID returns the identity set by RequireSession.
func CurrentUserID(c *gin.Context) (uuid.UUID, bool) {
	value, exists := c.Get(UserIDKey)
	if !exists {
		return uuid.Nil, false
	}
	userID, ok := value.(uuid.UUID)
	if !ok || userID == uuid.Nil {
		return uuid.Nil, false
	}
	return userID, true
}

func CurrentSessionToken(c *gin.Context) string {
	return c.GetString(SessionTokenKey)
}
