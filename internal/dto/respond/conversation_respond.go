package respond

// ConversationRespond 会话信息响应
// 使用位置:
//   - internal/service/conversation/service.go: ListConversations 等
//
// 枚举字段以字符串标签返回（status/priority/last_message_by）
type ConversationRespond struct {
	Id               uint   `json:"id"`
	UserId           uint   `json:"user_id"`
	UserName         string `json:"user_name"`
	AdminId          uint   `json:"admin_id,omitempty"`
	AdminName        string `json:"admin_name,omitempty"`
	Status           string `json:"status"`
	Subject          string `json:"subject"`
	Priority         string `json:"priority"`
	LastMessage      string `json:"last_message,omitempty"`
	LastMessageAt    string `json:"last_message_at,omitempty"`
	LastMessageBy    string `json:"last_message_by"`
	UserUnreadCount  int    `json:"user_unread_count"`
	AdminUnreadCount int    `json:"admin_unread_count"`
	ClosedAt         string `json:"closed_at,omitempty"`
	CreatedAt        string `json:"created_at"`
}

// ConversationListRespond 会话分页列表响应
type ConversationListRespond struct {
	Total         int64                 `json:"total"`
	Page          int                   `json:"page"`
	Limit         int                   `json:"limit"`
	Conversations []ConversationRespond `json:"conversations"`
}
