package response

import "github.com/gin-gonic/gin"

// 公开接口的响应体约定：
//   成功  {"message": ..., "data": ...} / {"data": ...} / {"message": ...}
//   失败  {"error": "<human readable>"}，状态码按错误类别走真实 HTTP 语义

func OK(c *gin.Context, msg string, data any) {
	c.JSON(200, gin.H{"message": msg, "data": data})
}

func Created(c *gin.Context, msg string, data any) {
	c.JSON(201, gin.H{"message": msg, "data": data})
}

func Data(c *gin.Context, data any) {
	c.JSON(200, gin.H{"data": data})
}

func Message(c *gin.Context, msg string) {
	c.JSON(200, gin.H{"message": msg})
}

func Error(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"error": msg})
}

func AbortError(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}
