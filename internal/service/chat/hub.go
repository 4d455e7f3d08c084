// Package chat 实现实时投递层
// hub.go
// 核心职责：在线会话登记与事件分发
// 1. 维护全部在线会话 (Login/Logout)
// 2. 按订阅关系划分投递：订阅者收 new-message，未订阅的客服收 new-unassigned-message
// 3. 保证同一事件对同一会话至多投递一次
package chat

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"support_chat_server/internal/dto/respond"
	"support_chat_server/pkg/constants"
)

// Hub 在线会话注册表与分发中枢
type Hub struct {
	// Sessions 全部在线会话，Key 为 Session.Uuid
	// 使用 sync.Map 实现并发安全，无需手动加锁
	Sessions sync.Map
	// Login 新会话接入通道
	Login chan *Session
	// Logout 会话断开通道
	Logout chan *Session
	// Dispatch 待分发的事件
	Dispatch chan *EventFrame
}

func NewHub() *Hub {
	return &Hub{
		Login:    make(chan *Session, constants.CHANNEL_SIZE),
		Logout:   make(chan *Session, constants.CHANNEL_SIZE),
		Dispatch: make(chan *EventFrame, constants.CHANNEL_SIZE),
	}
}

// Start 启动分发主循环
// 从死循环中处理各种 channel 事件
func (h *Hub) Start() {
	for {
		select {
		case session, ok := <-h.Login:
			if !ok {
				return
			}
			if session == nil {
				continue
			}
			h.Sessions.Store(session.Uuid, session)
			zap.L().Info("ws会话接入", zap.String("session", session.Uuid), zap.Bool("staff", session.IsStaff))

		case session, ok := <-h.Logout:
			if !ok {
				return
			}
			if session == nil {
				continue
			}
			h.Sessions.Delete(session.Uuid)
			zap.L().Info("ws会话断开", zap.String("session", session.Uuid))

		case frame, ok := <-h.Dispatch:
			if !ok {
				return
			}
			if frame == nil {
				continue
			}
			h.dispatch(frame)
		}
	}
}

// dispatch 按事件类型分发到在线会话
func (h *Hub) dispatch(frame *EventFrame) {
	switch frame.Event.Event {
	case respond.EventNewMessage:
		h.dispatchNewMessage(frame)
	case respond.EventTyping:
		h.dispatchTyping(frame)
	default:
		zap.L().Warn("未知的投递事件", zap.String("event", frame.Event.Event))
	}
}

// dispatchNewMessage 新消息事件的划分投递
// 订阅了该会话的连接收到完整的 new-message；
// 未订阅的客服连接收到 new-unassigned-message 摘要；
// 其余连接不投递。两类集合互斥，单个连接至多收到一条
func (h *Hub) dispatchNewMessage(frame *EventFrame) {
	subscribed, err := json.Marshal(frame.Event)
	if err != nil {
		zap.L().Error("事件序列化失败", zap.Error(err))
		return
	}

	// 客服摘要事件：去掉消息正文，事件名改写
	notice := frame.Event
	notice.Event = respond.EventNewUnassignedMessage
	notice.Message = nil
	unsubscribedStaff, err := json.Marshal(notice)
	if err != nil {
		zap.L().Error("事件序列化失败", zap.Error(err))
		return
	}

	h.Sessions.Range(func(_, value any) bool {
		session := value.(*Session)
		if session.IsSubscribed(frame.Event.ConversationId) {
			h.deliver(session, subscribed)
		} else if session.IsStaff {
			h.deliver(session, unsubscribedStaff)
		}
		return true
	})
}

// dispatchTyping 输入状态信号只发给订阅者，并跳过来源会话
func (h *Hub) dispatchTyping(frame *EventFrame) {
	payload, err := json.Marshal(frame.Event)
	if err != nil {
		zap.L().Error("事件序列化失败", zap.Error(err))
		return
	}
	h.Sessions.Range(func(_, value any) bool {
		session := value.(*Session)
		if session.Uuid == frame.Origin {
			return true
		}
		if session.IsSubscribed(frame.Event.ConversationId) {
			h.deliver(session, payload)
		}
		return true
	})
}

// deliver 向单个会话投递，回写通道满时丢弃
// 慢消费者不能阻塞分发循环，漏掉的内容客户端可通过 REST 拉取补齐
func (h *Hub) deliver(session *Session, payload []byte) {
	select {
	case session.SendBack <- payload:
	default:
		zap.L().Warn("会话回写通道已满，丢弃事件", zap.String("session", session.Uuid))
	}
}
