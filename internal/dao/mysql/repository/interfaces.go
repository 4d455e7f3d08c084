// Package repository 定义数据访问层接口和聚合结构
package repository

import (
	"time"

	"support_chat_server/internal/model"

	"gorm.io/gorm"
)

// ChatUserRepository 终端用户数据访问接口
type ChatUserRepository interface {
	// FindByName 根据用户名查找用户
	FindByName(name string) (*model.ChatUser, error)
	// FindById 根据主键查找用户
	FindById(id uint) (*model.ChatUser, error)
	// FindByIds 批量根据主键查找用户
	FindByIds(ids []uint) ([]model.ChatUser, error)
	// Create 创建新用户（含自动开通的占位账号）
	Create(user *model.ChatUser) error
}

// StaffRepository 客服数据访问接口
type StaffRepository interface {
	// FindById 根据主键查找客服
	FindById(id uint) (*model.Staff, error)
	// FindByIds 批量根据主键查找客服
	FindByIds(ids []uint) ([]model.Staff, error)
	// FindByUsername 根据登录用户名查找客服
	FindByUsername(username string) (*model.Staff, error)
	// Create 创建客服账号
	Create(staff *model.Staff) error
}

// ConversationStats 按状态统计的会话数量与未读总数
type ConversationStats struct {
	OpenCount        int64
	PendingCount     int64
	ClosedCount      int64
	TotalAdminUnread int64
}

// ConversationRepository 会话数据访问接口
// 会话的计数器和 last_message 字段只允许通过本接口的事务方法修改，
// 以保证同一会话内的并发追加不会互相覆盖
type ConversationRepository interface {
	// FindById 根据主键查找会话
	FindById(id uint) (*model.Conversation, error)
	// ListByUserId 分页查找某用户的会话，按最后消息时间倒序
	ListByUserId(userId uint, page, pageSize int) ([]model.Conversation, int64, error)
	// ListByStatus 分页查找指定状态的会话，status 为 nil 时不过滤
	ListByStatus(status *int8, page, pageSize int) ([]model.Conversation, int64, error)
	// CountActiveByUserId 统计某用户未关闭的会话数，用于会话数上限检查
	CountActiveByUserId(userId uint) (int64, error)
	// SumUserUnread 汇总某用户所有会话的用户侧未读数
	SumUserUnread(userId uint) (int64, error)
	// Stats 按状态统计会话数量和客服侧未读总数
	Stats() (*ConversationStats, error)

	// CreateWithFirstMessage 在一个事务内创建会话及其首条消息
	// 会话不可能零消息存在，创建必须与首条消息原子
	CreateWithFirstMessage(conversation *model.Conversation, message *model.ChatMessage) error
	// AppendMessage 在一个事务内追加消息并维护会话的计数器/最后消息字段
	// 事务内对会话行加排他锁，序列化同一会话的并发写入
	AppendMessage(conversationId uint, message *model.ChatMessage) (*model.Conversation, error)
	// MarkRead 在一个事务内将对方发送的未读消息置为已读并清零对应未读计数
	// 返回本次置为已读的消息数
	MarkRead(conversationId uint, readerType int8, readAt time.Time) (int64, error)
	// SetStatus 变更会话状态，转为 closed 时写入关闭时间和操作人
	SetStatus(conversationId uint, status int8, staffId uint) (*model.Conversation, error)
}

// MessageRepository 消息数据访问接口
type MessageRepository interface {
	// ListByConversationId 分页查找会话内消息，按创建时间升序
	ListByConversationId(conversationId uint, page, pageSize int) ([]model.ChatMessage, int64, error)
	// FindRecentBySender 查找某发送方在会话内最近的 limit 条消息，按创建时间倒序
	// 会话级频率检查使用
	FindRecentBySender(conversationId uint, senderType int8, senderId uint, limit int) ([]model.ChatMessage, error)
	// AdvanceStatus 将消息状态向前推进，不允许回退
	// 实时投递成功后由业务层推进到 delivered
	AdvanceStatus(uuid int64, to int8) error
}

// Repositories 聚合所有 Repository 实例
// 作为依赖注入的入口，Service 层通过此结构访问各个 Repository
type Repositories struct {
	ChatUser     ChatUserRepository
	Staff        StaffRepository
	Conversation ConversationRepository
	Message      MessageRepository
}

// NewRepositories 创建并注入所有 Repository 实例
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		ChatUser:     NewChatUserRepository(db),
		Staff:        NewStaffRepository(db),
		Conversation: NewConversationRepository(db),
		Message:      NewMessageRepository(db),
	}
}
