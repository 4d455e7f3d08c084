package respond

// SenderRespond 发送方摘要
// 消息列表按 sender_type 分支解析出的身份信息
type SenderRespond struct {
	Type string `json:"type"` // user / admin
	Id   uint   `json:"id"`
	Name string `json:"name"`
}

// MessageRespond 消息信息响应
// 使用位置:
//   - internal/service/conversation/service.go: ListMessages / SendMessage
//
// Uuid/ReplyTo 以字符串返回，避免 JavaScript 精度丢失
type MessageRespond struct {
	Uuid           string        `json:"uuid"`
	ConversationId uint          `json:"conversation_id"`
	Sender         SenderRespond `json:"sender"`
	Content        string        `json:"content"`
	Type           string        `json:"type"`
	Status         string        `json:"status"`
	ReadAt         string        `json:"read_at,omitempty"`
	IsEdited       bool          `json:"is_edited"`
	ReplyTo        string        `json:"reply_to,omitempty"`
	CreatedAt      string        `json:"created_at"`
}

// MessageListRespond 消息分页列表响应，按创建时间升序
type MessageListRespond struct {
	Total    int64            `json:"total"`
	Page     int              `json:"page"`
	Limit    int              `json:"limit"`
	Messages []MessageRespond `json:"messages"`
}

// MarkReadRespond 标记已读响应
type MarkReadRespond struct {
	MarkedCount int64 `json:"marked_count"`
}
