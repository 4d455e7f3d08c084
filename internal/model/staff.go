// Package model 定义数据库实体模型
// 本文件定义客服模型，包含登录认证信息
package model

import (
	"golang.org/x/crypto/bcrypt" // 密码哈希库
	"gorm.io/gorm"
)

// Staff 客服模型
// 对应数据库 staff 表
// 客服是与终端用户完全独立的身份表，消息通过 sender_type 区分两侧
type Staff struct {
	gorm.Model

	// Username 登录用户名
	Username string `gorm:"column:username;uniqueIndex;type:varchar(50);not null;comment:登录用户名"`

	// Nickname 对用户展示的昵称
	Nickname string `gorm:"column:nickname;type:varchar(50);not null;comment:昵称"`

	// Password 密码（已哈希）
	// 存储 bcrypt 哈希后的密码，不存储明文
	Password string `gorm:"column:password;type:varchar(100);not null;comment:密码"`

	// Status 账号状态
	// 0=正常, 1=禁用
	Status int8 `gorm:"column:status;index;not null;comment:状态，0.正常，1.禁用"`

	// RawPassword 明文密码（不存入数据库）
	// 用于接收创建账号时传入的明文密码，在 BeforeSave 中加密
	RawPassword string `gorm:"-" json:"-"`
}

// TableName 指定表名
func (Staff) TableName() string {
	return "staff"
}

// BeforeSave GORM Hook：在创建和更新前自动调用
// 将 RawPassword 明文密码加密后存入 Password 字段
func (s *Staff) BeforeSave(tx *gorm.DB) (err error) {
	if s.RawPassword != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(s.RawPassword), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		s.Password = string(hash)
		s.RawPassword = "" // 清空明文，防止泄露
	}
	return nil
}

// CheckPassword 校验密码是否正确
// 用于客服登录时验证输入的密码
func (s *Staff) CheckPassword(plaintext string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(s.Password), []byte(plaintext))
	return err == nil
}
