// Package chat 实现实时投递层
// broker.go
// 核心职责：投递事件的传输抽象
// 同一套 Hub 分发逻辑下，传输层可以是进程内 Channel（单机）或 Kafka（多实例）
package chat

import (
	"context"

	"support_chat_server/internal/dto/respond"
)

// EventFrame 经传输层流转的事件信封
// Origin 记录触发事件的会话 Uuid，typing 事件投递时跳过来源会话
type EventFrame struct {
	Origin string                   `json:"origin,omitempty"`
	Event  respond.ChatEventRespond `json:"event"`
}

// MessageBroker 定义投递事件的传输接口
// 支持多种实现：KafkaBroker (分布式), ChannelBroker (单机)
type MessageBroker interface {
	// Publish 发布事件到消息队列/通道
	Publish(ctx context.Context, frame *EventFrame) error
	// Start 启动消费循环，把事件交给 Hub 分发；在独立协程中运行
	Start()
	// Close 关闭代理资源
	Close()
}
