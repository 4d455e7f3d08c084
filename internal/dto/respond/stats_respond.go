package respond

// StatsRespond 客服工作台统计响应
// 使用位置:
//   - internal/handler/admin_handler.go: Stats
type StatsRespond struct {
	OpenCount        int64 `json:"open_count"`
	PendingCount     int64 `json:"pending_count"`
	ClosedCount      int64 `json:"closed_count"`
	TotalCount       int64 `json:"total_count"`
	TotalAdminUnread int64 `json:"total_admin_unread"`
}

// UnreadCountRespond 某一身份的未读总数响应
type UnreadCountRespond struct {
	UnreadCount int64 `json:"unread_count"`
}
