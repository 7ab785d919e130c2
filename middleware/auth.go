package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"budget-tracker/utils"
)

// AuthMiddleware verifies the Bearer session token and stores the user
// identity in the request context. A missing credential is 401, an invalid
// or expired one 403. Websocket clients cannot set headers, so a "token"
// query parameter is accepted as a fallback.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := ""
		if header := c.GetHeader("Authorization"); strings.HasPrefix(header, "Bearer ") {
			token = strings.TrimPrefix(header, "Bearer ")
		}
		if token == "" {
			token = c.Query("token")
		}
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			c.Abort()
			return
		}

		claims, err := utils.ParseToken(token)
		if err != nil {
			c.JSON(http.StatusForbidden, gin.H{"error": "Invalid token"})
			c.Abort()
			return
		}

		c.Set("user_id", claims.ID)
		c.Set("username", claims.Username)
		c.Next()
	}
}

// GetUserID returns the authenticated user's id, or "" outside a protected
// route.
func GetUserID(c *gin.Context) string {
	id, _ := c.Get("user_id")
	s, _ := id.(string)
	return s
}

// GetUsername returns the authenticated username, or "".
func GetUsername(c *gin.Context) string {
	name, _ := c.Get("username")
	s, _ := name.(string)
	return s
}
