package request

// MarkReadRequest 标记已读请求
// 使用位置:
//   - internal/handler/message_handler.go: MarkRead
//
// ReaderType 为 "user" 或 "admin"；user 时需携带 Identity，
// admin 时身份来自认证中间件
type MarkReadRequest struct {
	ReaderType string `json:"reader_type" binding:"required,oneof=user admin"`
	Identity   string `json:"identity"`
}
