// Package chat 实现实时投递层
// channel_broker.go
// 核心职责：单机模式下的事件传输实现
// 不依赖外部消息队列，事件经进程内通道直达 Hub，适合小规模或开发环境
package chat

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"support_chat_server/pkg/constants"
	"support_chat_server/pkg/errorx"
)

// ChannelBroker 基于进程内通道的 MessageBroker 实现
type ChannelBroker struct {
	hub *Hub
	// Transmit 事件转发通道
	Transmit chan []byte
}

func NewChannelBroker(hub *Hub) *ChannelBroker {
	return &ChannelBroker{
		hub:      hub,
		Transmit: make(chan []byte, constants.CHANNEL_SIZE),
	}
}

// Publish 实现 MessageBroker 接口：发布事件到 Channel
// 通道已满说明投递侧积压，返回繁忙而不是阻塞业务请求
func (b *ChannelBroker) Publish(_ context.Context, frame *EventFrame) error {
	data, err := json.Marshal(frame)
	if err != nil {
		return errorx.Wrap(err, errorx.CodeServerBusy, "事件序列化失败")
	}
	select {
	case b.Transmit <- data:
		return nil
	default:
		zap.L().Warn("事件转发通道已满")
		return errorx.ErrServerBusy
	}
}

// Start 实现 MessageBroker 接口：消费通道并交给 Hub 分发
func (b *ChannelBroker) Start() {
	for data := range b.Transmit {
		var frame EventFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			zap.L().Error("事件反序列化失败", zap.Error(err))
			continue
		}
		b.hub.Dispatch <- &frame
	}
}

// Close 实现 MessageBroker 接口：关闭转发通道
func (b *ChannelBroker) Close() {
	close(b.Transmit)
}
