package request

// SendMessageRequest 终端用户发消息请求
// 使用位置:
//   - internal/handler/message_handler.go: SendUserMessage
//
// ReplyTo 为被回复消息的雪花 ID（字符串形式，避免 JS 精度丢失），空表示非回复
type SendMessageRequest struct {
	Identity string `json:"identity" binding:"required"`
	Message  string `json:"message" binding:"required"`
	ReplyTo  string `json:"reply_to"`
	Metadata string `json:"metadata"`
}

// StaffSendMessageRequest 客服发消息请求
// 使用位置:
//   - internal/handler/message_handler.go: SendStaffMessage
//
// 客服身份来自认证中间件写入的上下文，请求体中不携带 identity
type StaffSendMessageRequest struct {
	Message  string `json:"message" binding:"required"`
	ReplyTo  string `json:"reply_to"`
	Metadata string `json:"metadata"`
}
