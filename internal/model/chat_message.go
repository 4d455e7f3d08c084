// Package model 定义数据库实体模型
// 本文件定义消息模型，用于存储会话内的聊天消息
package model

import (
	"database/sql"

	"gorm.io/gorm"
)

// ChatMessage 消息模型
// 对应数据库 chat_message 表
// 不变量：content 经净化后非空且不超过 5000 字符；
// reply_to_uuid 若非零必须引用同一会话内的消息；status 只允许单向推进
type ChatMessage struct {
	gorm.Model

	// Uuid 消息唯一标识
	// 使用雪花算法生成的 int64 类型 ID
	Uuid int64 `gorm:"column:uuid;uniqueIndex;type:bigint;not null;comment:消息雪花ID"`

	// ConversationId 归属会话 ID
	// 关联到 conversation 表
	ConversationId uint `gorm:"column:conversation_id;index;not null;comment:归属会话id"`

	// SenderType 发送方类型
	// 0=user, 1=admin，与 SenderId 组成带标签的多态引用
	// 参见 pkg/enum/message/sender_type_enum
	SenderType int8 `gorm:"column:sender_type;not null;comment:发送方类型，0.user，1.admin"`

	// SenderId 发送方 ID
	// SenderType=user 时指向 chat_user 表，=admin 时指向 staff 表
	SenderId uint `gorm:"column:sender_id;index;not null;comment:发送方id"`

	// Content 消息内容（已净化）
	// 入库前经过完整的校验与净化流水线，1-5000 字符
	Content string `gorm:"column:content;type:TEXT;not null;comment:消息内容"`

	// Type 消息类型
	// 0=text, 1=system, 2=file, 3=image
	// 参见 pkg/enum/message/message_type_enum
	Type int8 `gorm:"column:type;not null;comment:消息类型，0.text，1.system，2.file，3.image"`

	// Status 消息状态
	// 0=sent, 1=delivered, 2=read，只允许向前推进
	// 参见 pkg/enum/message/message_status_enum
	Status int8 `gorm:"column:status;not null;comment:状态，0.sent，1.delivered，2.read"`

	// ReadAt 已读时间
	ReadAt sql.NullTime `gorm:"column:read_at;type:datetime;comment:已读时间"`

	// ReadBy 执行已读操作的一方
	// 0=user, 1=admin，仅在 Status=read 后有意义
	ReadBy int8 `gorm:"column:read_by;comment:已读操作方，0.user，1.admin"`

	// IsEdited 是否被编辑过
	IsEdited bool `gorm:"column:is_edited;not null;default:false;comment:是否编辑过"`

	// EditedAt 最近编辑时间
	EditedAt sql.NullTime `gorm:"column:edited_at;type:datetime;comment:编辑时间"`

	// ReplyToUuid 被回复消息的雪花 ID
	// 0 表示不是回复；必须引用同一会话内的消息
	ReplyToUuid int64 `gorm:"column:reply_to_uuid;type:bigint;comment:被回复消息雪花ID，0表示无"`

	// Metadata 附加元数据
	// JSON 格式的可选信息（如客户端版本），业务层不解释其内容
	Metadata string `gorm:"column:metadata;type:TEXT;comment:附加元数据"`
}

// TableName 指定表名
func (ChatMessage) TableName() string {
	return "chat_message"
}
