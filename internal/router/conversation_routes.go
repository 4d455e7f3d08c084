// Package router 提供 HTTP 路由注册
// 本文件定义终端用户侧的会话与消息路由
package router

import (
	"github.com/gin-gonic/gin"
)

// RegisterConversationRoutes 注册用户侧路由
// 未认证流量，身份由请求中的 identity 标识名承载
func (rt *Router) RegisterConversationRoutes(rg *gin.RouterGroup) {
	conversationGroup := rg.Group("/conversations")
	{
		// GET /api/conversations - 查询某身份名下的会话列表
		conversationGroup.GET("", rt.handlers.Conversation.ListConversations)
		// POST /api/conversations - 创建会话（含首条消息）
		conversationGroup.POST("", rt.handlers.Conversation.CreateConversation)
		// GET /api/conversations/unread - 查询某身份的未读总数
		conversationGroup.GET("/unread", rt.handlers.Conversation.UnreadCount)
		// GET /api/conversations/:id/messages - 查询会话内消息记录
		conversationGroup.GET("/:id/messages", rt.handlers.Message.GetMessageList)
		// POST /api/conversations/:id/messages - 用户发消息
		conversationGroup.POST("/:id/messages", rt.handlers.Message.SendMessage)
		// PATCH /api/conversations/:id/messages/read - 用户标记已读
		conversationGroup.PATCH("/:id/messages/read", rt.handlers.Message.MarkRead)
	}
}
