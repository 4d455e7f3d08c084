package respond

// 实时通道事件名
// 使用位置:
//   - internal/service/chat: 投递扇出
const (
	EventNewMessage           = "new-message"            // 会话频道内广播
	EventNewUnassignedMessage = "new-unassigned-message" // 推给未订阅该会话的客服
	EventTyping               = "typing"                 // 输入状态信号
)

// ChatEventRespond 实时通道事件信封
// Message 在 new-message 事件中携带完整消息；
// Conversation 在 new-unassigned-message 事件中携带会话摘要
type ChatEventRespond struct {
	Event          string               `json:"event"`
	ConversationId uint                 `json:"conversation_id"`
	Message        *MessageRespond      `json:"message,omitempty"`
	Conversation   *ConversationRespond `json:"conversation,omitempty"`
	Sender         *SenderRespond       `json:"sender,omitempty"` // typing 事件的触发者
}
