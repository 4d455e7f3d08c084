// Package service 提供业务逻辑层
// 本文件实现 Service 层的依赖注入和聚合
package service

import (
	"support_chat_server/internal/dao/mysql/repository"
	myredis "support_chat_server/internal/dao/redis"
	"support_chat_server/internal/service/auth"
	"support_chat_server/internal/service/conversation"
	"support_chat_server/internal/service/ratelimit"
)

// Services 聚合所有 Service 实例
// 作为依赖注入的入口，Handler 层通过 service.Svc 访问各个 Service
type Services struct {
	Conversation ConversationService // 会话 Service
	Auth         AuthService         // 认证 Service
}

// Deps Service 层的外部依赖
type Deps struct {
	Repos     *repository.Repositories
	Cache     myredis.AsyncCacheService
	Limiter   *ratelimit.Limiter
	Policies  ratelimit.Policies
	Publisher conversation.EventPublisher
	// OpenConversationCap 单用户同时未关闭会话的上限
	OpenConversationCap int
}

// NewServices 创建并注入所有 Service 实例
func NewServices(deps Deps) *Services {
	conversationSvc := conversation.NewChatService(
		deps.Repos,
		deps.Cache,
		deps.Limiter,
		deps.Policies,
		deps.Publisher,
		deps.OpenConversationCap,
	)
	authSvc := auth.NewAuthService(deps.Repos)

	return &Services{
		Conversation: conversationSvc,
		Auth:         authSvc,
	}
}

// Svc 全局 Services 实例
// Handler 层通过 service.Svc.Conversation.CreateConversation() 等方式调用
var Svc *Services

// InitServices 初始化全局 Services 实例
// 应在 main.go 中调用，在 Repository 与投递层初始化之后
func InitServices(deps Deps) {
	Svc = NewServices(deps)
}
