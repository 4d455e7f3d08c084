// Package handler 提供 HTTP 请求处理器
// 本文件处理 WebSocket 握手入口，协议升级后移交 chat.Gateway
package handler

import (
	"github.com/gin-gonic/gin"

	"support_chat_server/internal/service/chat"
)

// WsHandler WebSocket 握手处理器
type WsHandler struct {
	gateway *chat.Gateway
}

func NewWsHandler(gateway *chat.Gateway) *WsHandler {
	return &WsHandler{gateway: gateway}
}

// UserWs 终端用户实时通道
// GET /ws?identity=
func (h *WsHandler) UserWs(c *gin.Context) {
	h.gateway.HandleUser(c)
}

// StaffWs 客服实时通道
// GET /admin/ws
func (h *WsHandler) StaffWs(c *gin.Context) {
	h.gateway.HandleStaff(c)
}
