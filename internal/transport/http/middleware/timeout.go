package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"user-directory/internal/transport/http/response"
)

// Timeout 给每个请求挂一个截止时间，DB 往返继承该 context
func Timeout(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
		if ctx.Err() == context.DeadlineExceeded && !c.Writer.Written() {
			response.AbortError(c, http.StatusGatewayTimeout, "timeout")
		}
	}
}
