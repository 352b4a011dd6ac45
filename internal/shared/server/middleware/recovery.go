package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"cvgen-backend/internal/shared/server/respond"
	"cvgen-backend/internal/shared/telemetry"
)

// Recovery turns a panic into a 500 error envelope. The panic value is
// appended to the message only when exposeDetails is set.
func Recovery(exposeDetails bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			telemetry.Error("panic", map[string]any{
				"request_id": RequestIDFromContext(c),
				"error":      fmt.Sprint(rec),
				"stack":      string(debug.Stack()),
				"path":       c.Request.URL.Path,
				"method":     c.Request.Method,
			})
			if c.Writer.Written() {
				c.Abort()
				return
			}
			message := "Erreur serveur"
			if exposeDetails {
				message = fmt.Sprintf("Erreur serveur : %v", rec)
			}
			respond.Error(c, http.StatusInternalServerError, "internal_error", message, nil)
		}()
		c.Next()
	}
}
