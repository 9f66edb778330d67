package middleware

import (
	"context"
	"strings"

	"photosocial/services"

	"github.com/gin-gonic/gin"
)

const (
	UserIDKey = "user_id"
	ClaimsKey = "claims"
)

type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*services.Claims, error)
}

// AuthMiddleware accepts "Authorization: Bearer <token>" and stores the
// caller id under UserIDKey.
func AuthMiddleware(tokens TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.Error(services.AuthenticationError("Unauthorized. No token"))
			c.Abort()
			return
		}

		claims, err := tokens.Verify(c.Request.Context(), strings.TrimSpace(strings.TrimPrefix(header, "Bearer ")))
		if err != nil {
			c.Error(err)
			c.Abort()
			return
		}
		c.Set(UserIDKey, claims.UserID)
		c.Set(ClaimsKey, claims)
		c.Next()
	}
}

// CallerID returns the id stored by AuthMiddleware.
func CallerID(c *gin.Context) string {
	return c.GetString(UserIDKey)
}

func CallerClaims(c *gin.Context) *services.Claims {
	v, ok := c.Get(ClaimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*services.Claims)
	return claims
}
