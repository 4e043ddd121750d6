package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

// AdminAuthMiddleware guards back-office routes with HTTP basic auth.
// passwordHash is a bcrypt hash; an empty hash rejects every request.
func AdminAuthMiddleware(username, passwordHash string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, password, ok := c.Request.BasicAuth()
		if !ok {
			c.Header("WWW-Authenticate", `Basic realm="admin"`)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Admin credentials required"})
			c.Abort()
			return
		}

		userOK := subtle.ConstantTimeCompare([]byte(user), []byte(username)) == 1
		passOK := passwordHash != "" &&
			bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(password)) == nil
		if !userOK || !passOK {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid admin credentials"})
			c.Abort()
			return
		}

		c.Set("user_role", "admin")
		c.Next()
	}
}
