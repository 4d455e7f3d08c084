// Package router 提供 HTTP 路由注册
// 本文件定义 WebSocket 相关的路由
package router

import (
	"github.com/gin-gonic/gin"

	"support_chat_server/internal/infrastructure/middleware"
)

// RegisterWebSocketRoutes 注册 WebSocket 路由
func (rt *Router) RegisterWebSocketRoutes(r *gin.Engine) {
	// 终端用户实时通道
	// 请求示例: ws://host:port/ws?identity=alice
	r.GET("/ws", rt.handlers.Ws.UserWs)
	// 客服实时通道，握手前校验 JWT
	r.GET("/admin/ws", middleware.StaffAuth(), rt.handlers.Ws.StaffWs)
}
