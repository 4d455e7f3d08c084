// Package handler 提供 HTTP 请求处理器
// 本文件定义 Handler 聚合结构和构造函数
// 遵循依赖倒置原则，通过构造函数注入 Service 依赖
package handler

import (
	"support_chat_server/internal/service"
	"support_chat_server/internal/service/chat"
)

// Handlers 聚合所有 Handler 实例
// 作为依赖注入的入口，Router 层通过此结构访问各个 Handler
type Handlers struct {
	Conversation *ConversationHandler
	Message      *MessageHandler
	Admin        *AdminHandler
	Auth         *AuthHandler
	Ws           *WsHandler
}

// NewHandlers 创建并注入所有 Handler 实例
// svc: Service 层聚合实例
// gateway: WebSocket 接入网关
func NewHandlers(svc *service.Services, gateway *chat.Gateway) *Handlers {
	return &Handlers{
		Conversation: NewConversationHandler(svc.Conversation),
		Message:      NewMessageHandler(svc.Conversation),
		Admin:        NewAdminHandler(svc.Conversation),
		Auth:         NewAuthHandler(svc.Auth),
		Ws:           NewWsHandler(gateway),
	}
}
