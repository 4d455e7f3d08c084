package request

// CreateConversationRequest 创建会话请求
// 使用位置:
//   - internal/handler/conversation_handler.go: CreateConversation
//
// Subject/Priority 非法时静默规范化，不报错；Message 校验失败则整体拒绝
type CreateConversationRequest struct {
	Identity string `json:"identity" binding:"required"`
	Subject  string `json:"subject"`
	Priority string `json:"priority"`
	Message  string `json:"message" binding:"required"`
}
