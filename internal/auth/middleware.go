package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	// AdminIDKey 管理员 ID 上下文键
	AdminIDKey = "admin_id"
	// AdminRoleKey 管理员角色上下文键
	AdminRoleKey = "admin_role"
)

// AdminAuthMiddleware 后台管理员认证中间件
func AdminAuthMiddleware(jwtService *JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "缺少认证令牌",
			})
			c.Abort()
			return
		}

		token := ExtractTokenFromBearer(authHeader)
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "无效的令牌格式",
			})
			c.Abort()
			return
		}

		claims, err := jwtService.ValidateToken(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "令牌验证失败: " + err.Error(),
			})
			c.Abort()
			return
		}

		c.Set(AdminIDKey, claims.AdminID)
		c.Set(AdminRoleKey, claims.Role)

		c.Next()
	}
}

// ExtractTokenFromBearer 从 Bearer 头中提取令牌
func ExtractTokenFromBearer(authHeader string) string {
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// AdminIDFromContext 读取当前请求的管理员 ID
func AdminIDFromContext(c *gin.Context) int64 {
	if v, ok := c.Get(AdminIDKey); ok {
		if id, ok := v.(int64); ok {
			return id
		}
	}
	return 0
}
