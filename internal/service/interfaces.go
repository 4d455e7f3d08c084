// Package service 定义业务层接口
// 本文件定义所有 Service 接口，供 Handler 层调用
// 接口设计遵循依赖倒置原则，便于测试和解耦
package service

import (
	"support_chat_server/internal/dto/request"
	"support_chat_server/internal/dto/respond"
	"support_chat_server/internal/model"
)

// ConversationService 会话业务接口
// 会话与消息的全部读写入口
type ConversationService interface {
	// EnsureChatIdentity 解析终端用户身份，未知标识名自动开通占位账号
	EnsureChatIdentity(name string) (*model.ChatUser, error)
	// CreateConversation 创建会话并写入首条消息
	CreateConversation(clientIp string, req request.CreateConversationRequest) (*respond.ConversationRespond, *respond.MessageRespond, error)
	// SendUserMessage 终端用户向已有会话追加消息
	SendUserMessage(conversationId uint, clientIp string, req request.SendMessageRequest) (*respond.MessageRespond, error)
	// SendStaffMessage 客服向会话追加消息
	SendStaffMessage(conversationId uint, staffId uint, req request.StaffSendMessageRequest) (*respond.MessageRespond, error)
	// MarkRead 标记对方消息已读并清零己方未读数
	MarkRead(conversationId uint, staffId uint, req request.MarkReadRequest) (*respond.MarkReadRespond, error)
	// SetStatus 变更会话状态（仅客服）
	SetStatus(conversationId uint, staffId uint, req request.SetStatusRequest) (*respond.ConversationRespond, error)
	// ListConversations 查询某身份名下的会话列表
	ListConversations(req request.ListConversationsRequest) (*respond.ConversationListRespond, error)
	// AdminListConversations 客服查询会话列表，可按状态过滤
	AdminListConversations(req request.AdminListConversationsRequest) (*respond.ConversationListRespond, error)
	// ListMessagesAsUser 终端用户查询会话内消息
	ListMessagesAsUser(conversationId uint, identity string, page, limit int) (*respond.MessageListRespond, error)
	// ListMessagesAsStaff 客服查询任意会话内消息
	ListMessagesAsStaff(conversationId uint, page, limit int) (*respond.MessageListRespond, error)
	// Stats 客服工作台统计
	Stats() (*respond.StatsRespond, error)
	// UnreadCountFor 某身份在全部会话中的未读总数
	UnreadCountFor(identity string) (*respond.UnreadCountRespond, error)
}

// AuthService 认证业务接口
type AuthService interface {
	// StaffLogin 客服登录，签发 Access Token
	StaffLogin(req request.StaffLoginRequest) (*respond.StaffLoginRespond, error)
}
