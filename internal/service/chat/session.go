// Package chat 实现实时投递层
// session.go
// 核心职责：WebSocket 会话对象
// 1. 封装一条 WebSocket 连接与其回写通道
// 2. 维护该会话订阅的会话频道集合
// 3. 区分终端用户会话与客服会话
package chat

import (
	"sync"

	"github.com/gorilla/websocket"
)

// Session 表示一条在线的 WebSocket 会话
// 同一用户或客服可以同时持有多条会话（多标签页）
type Session struct {
	// Uuid 会话标识，每条连接独立生成
	Uuid string
	Conn *websocket.Conn
	// SendBack 待回写给前端的 JSON 事件
	SendBack chan []byte

	// IsStaff 客服会话标记，决定未订阅会话的事件投递方式
	IsStaff bool
	StaffId uint

	// UserId / Identity 终端用户会话的身份
	UserId   uint
	Identity string

	// subs 已订阅的会话 ID 集合，Key 为 uint，Value 恒为 struct{}{}
	// 使用 sync.Map 实现并发安全，读写协程与投递协程都会访问
	subs sync.Map

	// done 连接终止信号，读写协程任一侧出错时关闭
	done      chan struct{}
	closeOnce sync.Once
}

// Close 标记会话终止，可重复调用
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
	})
}

// Done 返回终止信号通道
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Subscribe 订阅一个会话频道
func (s *Session) Subscribe(conversationId uint) {
	s.subs.Store(conversationId, struct{}{})
}

// Unsubscribe 退订一个会话频道
func (s *Session) Unsubscribe(conversationId uint) {
	s.subs.Delete(conversationId)
}

// IsSubscribed 判断是否订阅了指定会话
func (s *Session) IsSubscribed(conversationId uint) bool {
	_, ok := s.subs.Load(conversationId)
	return ok
}
