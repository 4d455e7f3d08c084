// Package model 定义数据库实体模型
// 本文件定义会话模型，会话是一个终端用户与客服之间的消息线程
package model

import (
	"database/sql"

	"gorm.io/gorm"
)

// Conversation 会话模型
// 对应数据库 conversation 表
// 不变量：未读计数非负；last_message_* 始终反映最近一条已持久化的消息；
// 会话与首条消息在同一事务内创建，不存在零消息的会话
type Conversation struct {
	gorm.Model

	// UserId 归属的终端用户 ID
	// 关联到 chat_user 表
	UserId uint `gorm:"column:user_id;index;not null;comment:归属用户id"`

	// AdminId 受理客服 ID
	// 关联到 staff 表；客服首次回复时绑定，0 表示尚未受理
	AdminId uint `gorm:"column:admin_id;index;comment:受理客服id，0表示未受理"`

	// Status 会话状态
	// 0=open, 1=pending, 2=closed
	// 参见 pkg/enum/conversation/conversation_status_enum
	// closed 是终态但不加锁：已关闭的会话仍可追加消息，仅从默认列表中消失
	Status int8 `gorm:"column:status;index;not null;comment:状态，0.open，1.pending，2.closed"`

	// Subject 会话主题
	// 空值或非法输入会被静默规范为默认主题
	Subject string `gorm:"column:subject;type:varchar(200);not null;comment:主题"`

	// Priority 优先级
	// 0=low, 1=medium, 2=high, 3=urgent，非法输入回退为 medium
	Priority int8 `gorm:"column:priority;not null;default:1;comment:优先级，0.low，1.medium，2.high，3.urgent"`

	// LastMessageAt 最后消息时间
	// 用于会话列表排序（最近活跃的排在前面）
	LastMessageAt sql.NullTime `gorm:"column:last_message_at;index;type:datetime;comment:最后消息时间"`

	// LastMessageBy 最后消息的发送方
	// 0=user, 1=admin，参见 pkg/enum/message/sender_type_enum
	LastMessageBy int8 `gorm:"column:last_message_by;not null;comment:最后消息发送方，0.user，1.admin"`

	// LastMessage 最后一条消息的预览文本（截断到 200 字符）
	// 与 LastMessageAt/LastMessageBy 在同一事务内维护
	LastMessage string `gorm:"column:last_message;type:varchar(200);not null;default:'';comment:最后消息预览"`

	// UserUnreadCount 用户侧未读数
	// 等于该会话中 sender_type=admin 且 status!=read 的消息数
	UserUnreadCount int `gorm:"column:user_unread_count;not null;default:0;comment:用户未读数"`

	// AdminUnreadCount 客服侧未读数
	// 等于该会话中 sender_type=user 且 status!=read 的消息数
	AdminUnreadCount int `gorm:"column:admin_unread_count;not null;default:0;comment:客服未读数"`

	// ClosedAt 关闭时间，仅状态转为 closed 时写入
	ClosedAt sql.NullTime `gorm:"column:closed_at;type:datetime;comment:关闭时间"`

	// ClosedBy 执行关闭操作的客服 ID
	ClosedBy uint `gorm:"column:closed_by;comment:关闭操作人id"`
}

// TableName 指定表名
func (Conversation) TableName() string {
	return "conversation"
}
