package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/MihaiVoinica/AdminBloc/internal/auth"
	"github.com/MihaiVoinica/AdminBloc/internal/models"
)

const (
	// ContextKeyUserID holds the key for user ID in Gin context.
	ContextKeyUserID = "userID"
	// ContextKeyUserEmail holds the key for the user's email in Gin context.
	ContextKeyUserEmail = "userEmail"
	// ContextKeyUserRole holds the key for the user's role in Gin context.
	ContextKeyUserRole = "userRole"
)

// AuthMiddleware creates a Gin middleware for JWT authentication.
func AuthMiddleware(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header format must be Bearer {token}"})
			return
		}

		claims, err := auth.ValidateJWT(parts[1], jwtSecret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": fmt.Sprintf("Invalid or expired token: %v", err)})
			return
		}

		c.Set(ContextKeyUserID, claims.UserID) // Hex representation
		c.Set(ContextKeyUserEmail, claims.Email)
		c.Set(ContextKeyUserRole, string(claims.Role))

		c.Next()
	}
}

// RequireRoles creates a Gin middleware that only lets the listed
// roles through. Assumes AuthMiddleware runs first.
func RequireRoles(roles ...models.Role) gin.HandlerFunc {
	allowed := make(map[models.Role]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		role := models.Role(c.GetString(ContextKeyUserRole))
		if _, ok := allowed[role]; !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Insufficient privileges"})
			return
		}
		c.Next()
	}
}

// RequesterFrom extracts the authenticated user's ID and role from
// the Gin context.
func RequesterFrom(c *gin.Context) (primitive.ObjectID, models.Role, error) {
	id, err := primitive.ObjectIDFromHex(c.GetString(ContextKeyUserID))
	if err != nil {
		return primitive.NilObjectID, "", fmt.Errorf("invalid user ID in context: %w", err)
	}
	return id, models.Role(c.GetString(ContextKeyUserRole)), nil
}
