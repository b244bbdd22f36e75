package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/richxcame/creator-reviews/pkg/common"
)

const (
	// UserIDKey is the gin context key holding the authenticated user ID
	UserIDKey = "user_id"
	// UserRoleKey is the gin context key holding the authenticated user's role
	UserRoleKey = "user_role"
)

// Claims is the JWT payload issued by the auth service
type Claims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// AuthMiddleware validates the bearer token and stores the user identity in context
func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			common.ErrorResponse(c, http.StatusUnauthorized, "missing bearer token")
			c.Abort()
			return
		}

		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

		claims := &Claims{}
		token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			common.ErrorResponse(c, http.StatusUnauthorized, "invalid token")
			c.Abort()
			return
		}

		userID := claims.UserID
		if userID == "" {
			userID = claims.Subject
		}
		if _, err := uuid.Parse(userID); err != nil {
			common.ErrorResponse(c, http.StatusUnauthorized, "invalid token subject")
			c.Abort()
			return
		}

		c.Set(UserIDKey, userID)
		c.Set(UserRoleKey, claims.Role)
		c.Next()
	}
}

// GetUserID extracts the authenticated user ID from gin context
func GetUserID(c *gin.Context) (uuid.UUID, error) {
	value, exists := c.Get(UserIDKey)
	if !exists {
		return uuid.Nil, errors.New("user not authenticated")
	}

	idStr, ok := value.(string)
	if !ok {
		return uuid.Nil, errors.New("invalid user id in context")
	}

	return uuid.Parse(idStr)
}
