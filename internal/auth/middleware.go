package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// TokenRequired rejects requests that do not carry a token accepted
// by v. The token is read from "Authorization: Bearer <token>" or,
// failing that, from the X-Diag-Token header.
func TokenRequired(v Validator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := v.Validate(requestToken(c)); err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}

func requestToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return c.GetHeader("X-Diag-Token")
}
