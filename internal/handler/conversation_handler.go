// Package handler 提供 HTTP 请求处理器
// 本文件处理终端用户侧的会话接口
package handler

import (
	"github.com/gin-gonic/gin"

	"support_chat_server/internal/dto/request"
	"support_chat_server/internal/service"
)

// ConversationHandler 会话请求处理器（用户侧）
type ConversationHandler struct {
	conversationService service.ConversationService
}

func NewConversationHandler(conversationService service.ConversationService) *ConversationHandler {
	return &ConversationHandler{conversationService: conversationService}
}

// CreateConversation 创建会话
// POST /api/conversations
func (h *ConversationHandler) CreateConversation(c *gin.Context) {
	var req request.CreateConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	conversation, message, err := h.conversationService.CreateConversation(c.ClientIP(), req)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleCreated(c, gin.H{
		"conversation": conversation,
		"message":      message,
	})
}

// ListConversations 查询某身份名下的会话列表
// GET /api/conversations?identity=&page=&limit=
func (h *ConversationHandler) ListConversations(c *gin.Context) {
	var req request.ListConversationsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	rsp, err := h.conversationService.ListConversations(req)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, rsp)
}

// UnreadCount 查询某身份的未读总数
// GET /api/conversations/unread?identity=
func (h *ConversationHandler) UnreadCount(c *gin.Context) {
	rsp, err := h.conversationService.UnreadCountFor(c.Query("identity"))
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, rsp)
}
