package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/abdulhamidalthaljy/CareConnect/pkg/httputil"
)

// ErrorHandler answers errors a handler pushed with c.Error but did not
// render itself.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		httputil.RespondWithError(c, c.Errors.Last().Err)
	}
}
