package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"user-directory/internal/transport/http/handler"
	mdw "user-directory/internal/transport/http/middleware"
)

// NewAPIEngine 公开服务的路由：限流/并发/超时等防护 + CORS + /api/users
func NewAPIEngine(l *zap.Logger, h *handler.UserHandler, allowOrigins []string) *gin.Engine {
	r := gin.New()

	r.Use(
		mdw.RequestID(),
		mdw.RateLimit(200, 400),
		mdw.ConcurrencyLimit(300),
		mdw.MaxBodyBytes(1<<20),
		mdw.Timeout(10*time.Second),
		ginzap.RecoveryWithZap(l, true),
		mdw.Metrics(),
		mdw.AccessLog(l),
		corsMiddleware(allowOrigins),
	)

	// 冒烟端点：根路径问候 + 健康检查
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, "hello world") })
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": 1}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	Mount(api, h)

	return r
}

func corsMiddleware(allowOrigins []string) gin.HandlerFunc {
	if len(allowOrigins) == 0 {
		return cors.Default()
	}
	cfg := cors.DefaultConfig()
	cfg.AllowOrigins = allowOrigins
	return cors.New(cfg)
}
