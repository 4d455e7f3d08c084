package request

// WsEventRequest WebSocket 控制帧 (实时通道)
// 使用位置:
//   - internal/service/chat/gateway.go: Read
//
// Event 取值：subscribe / unsubscribe / typing
// ConversationId 为目标会话 ID
type WsEventRequest struct {
	Event          string `json:"event" binding:"required"`
	ConversationId uint   `json:"conversation_id"`
}
