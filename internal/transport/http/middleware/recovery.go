package middleware

import (
	"github.com/gin-gonic/gin"

	resp "user-admin/internal/transport/http/response"
)

// RecoveryResponse is the body written after a recovered panic. Logging and
// the stack trace are left to the zap recovery middleware that calls it.
func RecoveryResponse(c *gin.Context, _ any) {
	resp.Abort(c, resp.CodeServerError, "internal error")
}
