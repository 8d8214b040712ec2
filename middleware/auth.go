package middleware

import (
	"net/http"
	"strings"

	"kredit-api/session"

	"github.com/gin-gonic/gin"
)

const actorKey = "actor"

// TokenVerifier resolves a bearer token to the caller's claims.
type TokenVerifier interface {
	VerifyToken(token string) (*session.Claims, bool)
}

// AuthRequired validates the bearer token and injects the claims into context
func AuthRequired(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization header required (Bearer <token>)"})
			return
		}
		tokenStr := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		claims, ok := verifier.VerifyToken(tokenStr)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}
		c.Set(actorKey, claims)
		c.Next()
	}
}

// GetActor extracts the verified caller from context. It is nil outside
// routes guarded by AuthRequired.
func GetActor(c *gin.Context) *session.Claims {
	val, ok := c.Get(actorKey)
	if !ok {
		return nil
	}
	claims, _ := val.(*session.Claims)
	return claims
}
