package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/CAR235/ConnexaLabPDF/internal/service/auth"
)

// OptionalAuth resolves a Bearer token when one is present and stores
// the user id on the context. Requests without a token proceed as
// anonymous; an invalid token is treated the same rather than rejected,
// since every endpoint supports anonymous use.
func OptionalAuth(service auth.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if token, ok := strings.CutPrefix(header, "Bearer "); ok {
			if userID, err := service.VerifyToken(token); err == nil {
				c.Set("userID", userID)
			}
		}
		c.Next()
	}
}
