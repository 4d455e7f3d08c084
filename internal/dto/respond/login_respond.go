package respond

// StaffLoginRespond 客服登录响应
// 使用位置:
//   - internal/handler/auth_handler.go: StaffLogin
type StaffLoginRespond struct {
	StaffId     uint   `json:"staff_id"`
	Nickname    string `json:"nickname"`
	AccessToken string `json:"access_token"`
}
