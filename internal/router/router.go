// Package router 提供 HTTP 路由注册
// 本文件是路由注册的入口，聚合所有子模块的路由
package router

import (
	"github.com/gin-gonic/gin"

	"support_chat_server/internal/handler"
)

// Router 路由注册器
// 通过依赖注入持有 Handler 聚合，各子模块的注册方法分文件维护
type Router struct {
	handlers *handler.Handlers
}

func NewRouter(handlers *handler.Handlers) *Router {
	return &Router{handlers: handlers}
}

// RegisterRoutes 注册所有路由
// 在 https_server.Init() 中调用
func (rt *Router) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api")
	rt.RegisterConversationRoutes(api) // 用户侧会话与消息路由
	rt.RegisterAdminRoutes(api)        // 客服侧路由（JWT）
	rt.RegisterWebSocketRoutes(r)      // WebSocket 路由
}
