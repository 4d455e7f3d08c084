// Package chat 实现实时投递层
// server.go
// 核心职责：投递服务器聚合结构和依赖注入
// 封装 Hub 与 MessageBroker，提供统一的生命周期管理和发布入口
package chat

import (
	"context"

	"go.uber.org/zap"

	"support_chat_server/internal/dto/respond"
)

// ChatServer 实时投递服务器聚合结构
type ChatServer struct {
	// Hub 在线会话分发中枢
	Hub *Hub

	// Broker 事件传输，根据配置可能是 ChannelBroker 或 KafkaBroker
	Broker MessageBroker

	// KafkaClient Kafka 客户端（仅 kafka 模式使用）
	KafkaClient *KafkaClient

	// mode 运行模式: "channel" 或 "kafka"
	mode string
}

// NewChatServer 创建投递服务器实例
// 根据配置选择 ChannelBroker 或 KafkaBroker
func NewChatServer(mode string) *ChatServer {
	hub := NewHub()
	cs := &ChatServer{Hub: hub, mode: mode}

	if mode == "kafka" {
		cs.KafkaClient = NewKafkaClient()
		cs.Broker = NewKafkaBroker(hub, cs.KafkaClient)
	} else {
		cs.Broker = NewChannelBroker(hub)
	}
	return cs
}

// InitKafka 初始化 Kafka 连接（仅 kafka 模式需要调用）
func (cs *ChatServer) InitKafka() {
	if cs.KafkaClient != nil {
		cs.KafkaClient.KafkaInit()
	}
}

// Start 启动分发循环与传输消费循环
func (cs *ChatServer) Start() {
	go cs.Hub.Start()
	go cs.Broker.Start()
}

// Close 关闭投递服务器
func (cs *ChatServer) Close() {
	cs.Broker.Close()
}

// PublishNewMessage 发布新消息事件
// 业务侧在消息落库后调用；投递是尽力而为的，失败不影响
// 已经完成的持久化和 REST 响应，返回错误仅供调用方决定是否推进消息状态
func (cs *ChatServer) PublishNewMessage(ctx context.Context, conversation *respond.ConversationRespond, message *respond.MessageRespond) error {
	frame := &EventFrame{
		Event: respond.ChatEventRespond{
			Event:          respond.EventNewMessage,
			ConversationId: conversation.Id,
			Message:        message,
			Conversation:   conversation,
		},
	}
	return cs.Broker.Publish(ctx, frame)
}

// PublishTyping 发布输入状态事件
// origin 为触发方的会话 Uuid，分发时跳过它
func (cs *ChatServer) PublishTyping(ctx context.Context, origin string, conversationId uint, sender *respond.SenderRespond) {
	frame := &EventFrame{
		Origin: origin,
		Event: respond.ChatEventRespond{
			Event:          respond.EventTyping,
			ConversationId: conversationId,
			Sender:         sender,
		},
	}
	if err := cs.Broker.Publish(ctx, frame); err != nil {
		zap.L().Warn("投递输入状态事件失败", zap.Uint("conversationId", conversationId), zap.Error(err))
	}
}
