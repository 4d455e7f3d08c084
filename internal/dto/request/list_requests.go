package request

// ListConversationsRequest 查询用户会话列表请求
// 使用位置:
//   - internal/handler/conversation_handler.go: ListConversations
type ListConversationsRequest struct {
	Identity string `json:"identity" form:"identity" binding:"required"`
	Page     int    `json:"page" form:"page"`
	Limit    int    `json:"limit" form:"limit"`
}

// AdminListConversationsRequest 客服查询会话列表请求
// Status 为空时返回全部状态的会话
// 使用位置:
//   - internal/handler/admin_handler.go: ListConversations
type AdminListConversationsRequest struct {
	Status string `json:"status" form:"status" binding:"omitempty,oneof=open pending closed"`
	Page   int    `json:"page" form:"page"`
	Limit  int    `json:"limit" form:"limit"`
}

// GetMessageListRequest 查询会话消息记录请求
// Identity 为用户侧查询的身份标识，客服侧路由不使用
// 使用位置:
//   - internal/handler/message_handler.go: GetMessageList
//   - internal/handler/admin_handler.go: GetMessageList
type GetMessageListRequest struct {
	Identity string `json:"identity" form:"identity"`
	Page     int    `json:"page" form:"page"`
	Limit    int    `json:"limit" form:"limit"`
}
