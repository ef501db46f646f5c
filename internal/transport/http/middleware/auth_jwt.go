package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"user-directory/internal/core/auth"
	"user-directory/internal/transport/http/response"
)

// AuthJWT 校验 Bearer token，把 userId/role 写进 context；
// requireRole 非空时还要求角色匹配。管理端专用，公开接口不挂。
func AuthJWT(j *auth.JWTer, requireRole string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ah := c.GetHeader("Authorization")
		if !strings.HasPrefix(ah, "Bearer ") {
			response.AbortError(c, http.StatusUnauthorized, "missing token")
			return
		}
		claims, err := j.Parse(strings.TrimPrefix(ah, "Bearer "))
		if err != nil {
			response.AbortError(c, http.StatusUnauthorized, "invalid token")
			return
		}
		if requireRole != "" && claims.Role != requireRole {
			response.AbortError(c, http.StatusForbidden, "forbidden")
			return
		}
		c.Set("userId", claims.UID)
		c.Set("role", claims.Role)
		c.Next()
	}
}
