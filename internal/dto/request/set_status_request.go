package request

// SetStatusRequest 变更会话状态请求（仅客服）
// 使用位置:
//   - internal/handler/admin_handler.go: SetStatus
type SetStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=open pending closed"`
}
