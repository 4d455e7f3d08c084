// Package handler 提供 HTTP 请求处理器
// 本文件处理客服侧接口，全部路由经过 JWT 认证中间件
package handler

import (
	"github.com/gin-gonic/gin"

	"support_chat_server/internal/dto/request"
	"support_chat_server/internal/infrastructure/middleware"
	"support_chat_server/internal/service"
	"support_chat_server/pkg/enum/message/sender_type_enum"
)

// AdminHandler 客服侧请求处理器
type AdminHandler struct {
	conversationService service.ConversationService
}

func NewAdminHandler(conversationService service.ConversationService) *AdminHandler {
	return &AdminHandler{conversationService: conversationService}
}

// ListConversations 客服查询会话列表
// GET /api/admin/conversations?status=&page=&limit=
func (h *AdminHandler) ListConversations(c *gin.Context) {
	var req request.AdminListConversationsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	rsp, err := h.conversationService.AdminListConversations(req)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, rsp)
}

// SendMessage 客服向会话追加消息
// POST /api/admin/conversations/:id/messages
func (h *AdminHandler) SendMessage(c *gin.Context) {
	conversationId, ok := parseConversationId(c)
	if !ok {
		return
	}
	var req request.StaffSendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	rsp, err := h.conversationService.SendStaffMessage(conversationId, middleware.GetStaffId(c), req)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleCreated(c, rsp)
}

// GetMessageList 客服查询任意会话内消息
// GET /api/admin/conversations/:id/messages?page=&limit=
func (h *AdminHandler) GetMessageList(c *gin.Context) {
	conversationId, ok := parseConversationId(c)
	if !ok {
		return
	}
	var req request.GetMessageListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	rsp, err := h.conversationService.ListMessagesAsStaff(conversationId, req.Page, req.Limit)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, rsp)
}

// MarkRead 客服标记会话内用户消息为已读
// PATCH /api/admin/conversations/:id/messages/read
func (h *AdminHandler) MarkRead(c *gin.Context) {
	conversationId, ok := parseConversationId(c)
	if !ok {
		return
	}
	req := request.MarkReadRequest{ReaderType: sender_type_enum.Label(sender_type_enum.Admin)}
	rsp, err := h.conversationService.MarkRead(conversationId, middleware.GetStaffId(c), req)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, rsp)
}

// SetStatus 变更会话状态
// PATCH /api/admin/conversations/:id/status
func (h *AdminHandler) SetStatus(c *gin.Context) {
	conversationId, ok := parseConversationId(c)
	if !ok {
		return
	}
	var req request.SetStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	rsp, err := h.conversationService.SetStatus(conversationId, middleware.GetStaffId(c), req)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, rsp)
}

// Stats 客服工作台统计
// GET /api/admin/stats
func (h *AdminHandler) Stats(c *gin.Context) {
	rsp, err := h.conversationService.Stats()
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, rsp)
}
