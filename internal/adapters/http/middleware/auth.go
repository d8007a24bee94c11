// Package middleware - bearer token authentication.
package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	// AuthUserIDKey stores the authenticated user ID in the gin context.
	AuthUserIDKey = "auth_user_id"
	// AuthUsernameKey stores the authenticated username.
	AuthUsernameKey = "auth_username"
)

// AuthConfig configures the auth middleware.
type AuthConfig struct {
	// Secret is the HMAC key the identity provider signs tokens with.
	Secret []byte
	// SkipPaths are exempt from authentication.
	SkipPaths []string
}

// Claims is the token payload. Subject carries the user ID.
type Claims struct {
	jwt.RegisteredClaims
	Username string `json:"username,omitempty"`
}

// Auth validates the Bearer token and stores the caller's identity in the
// context. Tokens are HS256; expiry is enforced by the parser.
func Auth(config *AuthConfig) gin.HandlerFunc {
	skipMap := make(map[string]bool)
	for _, path := range config.SkipPaths {
		skipMap[path] = true
	}

	return func(c *gin.Context) {
		if skipMap[c.Request.URL.Path] {
			c.Next()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortWithUnauthorized(c, "authorization header is required")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			abortWithUnauthorized(c, "invalid authorization header format")
			return
		}

		claims, err := ParseToken(parts[1], config.Secret)
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				abortWithUnauthorized(c, "token has expired")
				return
			}
			abortWithUnauthorized(c, "invalid token")
			return
		}

		userID, err := uuid.Parse(claims.Subject)
		if err != nil {
			abortWithUnauthorized(c, "invalid token subject")
			return
		}

		c.Set(AuthUserIDKey, userID)
		c.Set(AuthUsernameKey, claims.Username)

		c.Next()
	}
}

// ParseToken verifies signature and expiry and returns the claims.
func ParseToken(tokenString string, secret []byte) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}

	return claims, nil
}

// IssueToken signs a token for the given user. The API itself never issues
// tokens in production; this backs local development and tests.
func IssueToken(secret []byte, userID uuid.UUID, username string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Username: username,
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func abortWithUnauthorized(c *gin.Context, detail string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": detail})
}

// GetAuthUserID returns the authenticated user's ID, or uuid.Nil.
func GetAuthUserID(c *gin.Context) uuid.UUID {
	if id, exists := c.Get(AuthUserIDKey); exists {
		if userID, ok := id.(uuid.UUID); ok {
			return userID
		}
	}
	return uuid.Nil
}

// GetAuthUsername returns the authenticated username, or "".
func GetAuthUsername(c *gin.Context) string {
	if username, exists := c.Get(AuthUsernameKey); exists {
		if s, ok := username.(string); ok {
			return s
		}
	}
	return ""
}
