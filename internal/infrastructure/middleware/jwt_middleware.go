package middleware

import (
	"net/http"
	"strings"

	"support_chat_server/pkg/errorx"
	"support_chat_server/pkg/util/jwt"

	"github.com/gin-gonic/gin"
)

// ContextStaffIdKey 认证通过后写入 gin.Context 的客服 ID 键名
const ContextStaffIdKey = "staffId"

// StaffAuth 客服认证中间件
// 验证 Access Token 并将客服 ID 存入上下文
// 终端用户路径不经过此中间件，其身份为自报的 identity（弱信任）
func StaffAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. 从 Header 获取 Token
		// WebSocket 握手无法携带自定义 Header，允许 token 查询参数兜底
		tokenString := ""
		authHeader := c.GetHeader("Authorization")
		if authHeader != "" {
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
					"code": errorx.CodeUnauthorized,
					"msg":  "认证信息格式错误",
				})
				return
			}
			tokenString = parts[1]
		} else {
			tokenString = c.Query("token")
		}
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code": errorx.CodeUnauthorized,
				"msg":  "请先登录",
			})
			return
		}

		// 2. 校验 Token
		claims, err := jwt.ParseToken(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code": errorx.CodeUnauthorized,
				"msg":  "登录已过期，请重新登录",
			})
			return
		}

		// 3. 客服 ID 写入上下文，Handler 层通过 GetStaffId 读取
		c.Set(ContextStaffIdKey, claims.StaffId)
		c.Next()
	}
}

// GetStaffId 从上下文读取认证中间件写入的客服 ID
// 返回 0 表示当前请求未经过客服认证
func GetStaffId(c *gin.Context) uint {
	value, exists := c.Get(ContextStaffIdKey)
	if !exists {
		return 0
	}
	staffId, ok := value.(uint)
	if !ok {
		return 0
	}
	return staffId
}
