package authtest

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// BearerMiddleware rejects requests without a valid, unrevoked bearer token
// with 401, the way the clinic back-end does.
func BearerMiddleware(issuer *Issuer, revoked func(string) bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"statusCode": 401, "error": "Authorization header is missing"})
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"statusCode": 401, "error": "Invalid token format"})
			return
		}

		tokenString := parts[1]
		claims, err := issuer.Validate(tokenString)
		if err != nil || (revoked != nil && revoked(tokenString)) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"statusCode": 401, "error": "Invalid or expired token"})
			return
		}

		sub, _ := claims.GetSubject()
		c.Set("subject", sub)
		c.Set("token", tokenString)
		c.Next()
	}
}
