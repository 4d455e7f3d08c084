// Package handler 提供 HTTP 请求处理器
// 本文件处理终端用户侧的消息接口
package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"support_chat_server/internal/dto/request"
	"support_chat_server/internal/service"
	"support_chat_server/pkg/errorx"
)

// MessageHandler 消息请求处理器（用户侧）
type MessageHandler struct {
	conversationService service.ConversationService
}

func NewMessageHandler(conversationService service.ConversationService) *MessageHandler {
	return &MessageHandler{conversationService: conversationService}
}

// parseConversationId 解析路径中的会话 ID
func parseConversationId(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		HandleError(c, errorx.New(errorx.CodeInvalidParam, "会话ID不合法"))
		return 0, false
	}
	return uint(id), true
}

// SendMessage 终端用户向会话追加消息
// POST /api/conversations/:id/messages
func (h *MessageHandler) SendMessage(c *gin.Context) {
	conversationId, ok := parseConversationId(c)
	if !ok {
		return
	}
	var req request.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	rsp, err := h.conversationService.SendUserMessage(conversationId, c.ClientIP(), req)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleCreated(c, rsp)
}

// GetMessageList 查询会话内消息记录
// GET /api/conversations/:id/messages?identity=&page=&limit=
func (h *MessageHandler) GetMessageList(c *gin.Context) {
	conversationId, ok := parseConversationId(c)
	if !ok {
		return
	}
	var req request.GetMessageListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	rsp, err := h.conversationService.ListMessagesAsUser(conversationId, req.Identity, req.Page, req.Limit)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, rsp)
}

// MarkRead 标记会话内对方消息为已读
// PATCH /api/conversations/:id/messages/read
func (h *MessageHandler) MarkRead(c *gin.Context) {
	conversationId, ok := parseConversationId(c)
	if !ok {
		return
	}
	var req request.MarkReadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	// 公共路由没有客服身份，reader_type=admin 会在服务层被拒绝
	rsp, err := h.conversationService.MarkRead(conversationId, 0, req)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, rsp)
}
