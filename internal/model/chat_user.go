// Package model 定义数据库实体模型
// 本文件定义终端用户模型，聊天可能是用户身份的第一个接触点
package model

import (
	"time"

	"gorm.io/gorm"
)

// ChatUser 终端用户模型
// 对应数据库 chat_user 表
// 支持按名字自动开通：用户首次通过聊天入口发起会话时，
// 若名下没有账号，则创建一条占位记录（非聊天属性全部取默认值）
type ChatUser struct {
	gorm.Model

	// Uuid 用户唯一标识
	// 格式：U + 时间戳随机字符串
	Uuid string `gorm:"column:uuid;uniqueIndex;type:char(20);comment:用户唯一id"`

	// Name 用户名（聊天身份标识）
	// 未认证流量只携带这个名字，是其最强的身份依据
	Name string `gorm:"column:name;uniqueIndex;type:varchar(50);not null;comment:用户名"`

	// Nickname 显示昵称，默认同 Name
	Nickname string `gorm:"column:nickname;type:varchar(50);not null;comment:昵称"`

	// Source 账号来源
	// "chat" 表示由聊天入口自动开通的占位账号
	Source string `gorm:"column:source;type:char(10);default:chat;not null;comment:账号来源"`

	// ExpiresAt 账号过期时间
	// 占位账号给一个远期时间，避免聊天入口被账号有效期卡住
	ExpiresAt time.Time `gorm:"column:expires_at;type:datetime;comment:账号过期时间"`

	// Status 账号状态
	// 0=正常, 1=禁用
	Status int8 `gorm:"column:status;index;not null;comment:状态，0.正常，1.禁用"`
}

// TableName 指定表名
func (ChatUser) TableName() string {
	return "chat_user"
}
