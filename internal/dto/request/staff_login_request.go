package request

// StaffLoginRequest 客服登录请求
// 使用位置:
//   - internal/handler/auth_handler.go: StaffLogin
type StaffLoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}
