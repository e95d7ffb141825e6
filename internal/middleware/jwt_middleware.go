package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/trovehq/trove_api/internal/utils"
)

// Context keys under which the JWT middleware stores the authenticated
// moderator. Handlers read them via c.GetInt / c.GetString.
const (
	CtxModeratorID    = "moderator_id"
	CtxModeratorEmail = "moderator_email"
)

type JWTMiddleware struct{}

func NewJWTMiddleware() *JWTMiddleware {
	return &JWTMiddleware{}
}

// bearerToken extracts the token from an "Authorization: Bearer <token>" header.
func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || scheme != "Bearer" || token == "" {
		return "", false
	}
	return token, true
}

// Handle rejects requests without a valid moderator token and exposes the
// token's identity to downstream handlers.
func (m *JWTMiddleware) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			utils.Error(c, 401, "UNAUTHORIZED", "Missing or malformed authorization header")
			c.Abort()
			return
		}

		claims, err := utils.ValidateJWT(token)
		if err != nil {
			utils.Error(c, 401, "INVALID_TOKEN", "Invalid or expired token")
			c.Abort()
			return
		}

		c.Set(CtxModeratorID, claims.UserID)
		c.Set(CtxModeratorEmail, claims.Email)
		c.Next()
	}
}
