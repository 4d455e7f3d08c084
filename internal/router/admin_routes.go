// Package router 提供 HTTP 路由注册
// 本文件定义客服侧路由，除登录外全部经过 JWT 认证中间件
package router

import (
	"github.com/gin-gonic/gin"

	"support_chat_server/internal/infrastructure/middleware"
)

// RegisterAdminRoutes 注册客服侧路由
func (rt *Router) RegisterAdminRoutes(rg *gin.RouterGroup) {
	adminGroup := rg.Group("/admin")
	{
		// POST /api/admin/login - 客服登录
		adminGroup.POST("/login", rt.handlers.Auth.StaffLogin)

		authed := adminGroup.Group("", middleware.StaffAuth())
		{
			// GET /api/admin/conversations - 会话列表（可按状态过滤）
			authed.GET("/conversations", rt.handlers.Admin.ListConversations)
			// GET /api/admin/conversations/:id/messages - 会话内消息记录
			authed.GET("/conversations/:id/messages", rt.handlers.Admin.GetMessageList)
			// POST /api/admin/conversations/:id/messages - 客服发消息
			authed.POST("/conversations/:id/messages", rt.handlers.Admin.SendMessage)
			// PATCH /api/admin/conversations/:id/messages/read - 客服标记已读
			authed.PATCH("/conversations/:id/messages/read", rt.handlers.Admin.MarkRead)
			// PATCH /api/admin/conversations/:id/status - 会话状态变更
			authed.PATCH("/conversations/:id/status", rt.handlers.Admin.SetStatus)
			// GET /api/admin/stats - 工作台统计
			authed.GET("/stats", rt.handlers.Admin.Stats)
		}
	}
}
