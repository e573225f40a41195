package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"user-admin/internal/core/auth"
	resp "user-admin/internal/transport/http/response"
)

// KeyAdmin holds the authenticated username on the gin context.
const KeyAdmin = "admin"

// RequireSession accepts the session cookie or an Authorization bearer token.
func RequireSession(j *auth.JWTer, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tok, _ := c.Cookie(cookieName)
		if tok == "" {
			if ah := c.GetHeader("Authorization"); strings.HasPrefix(ah, "Bearer ") {
				tok = strings.TrimPrefix(ah, "Bearer ")
			}
		}
		if tok == "" {
			resp.Abort(c, resp.CodeUnauthorized, "login required")
			return
		}
		claims, err := j.Parse(tok)
		if err != nil {
			resp.Abort(c, resp.CodeUnauthorized, "session expired or invalid")
			return
		}
		c.Set(KeyAdmin, claims.Subject)
		c.Next()
	}
}
