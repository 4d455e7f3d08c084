package repository

import (
	"support_chat_server/internal/model"
	"support_chat_server/pkg/constants"

	"gorm.io/gorm"
)

type messageRepository struct {
	db *gorm.DB
}

// NewMessageRepository 创建消息 Repository
func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

// ListByConversationId 分页查找会话内消息，按创建时间升序
func (r *messageRepository) ListByConversationId(conversationId uint, page, pageSize int) ([]model.ChatMessage, int64, error) {
	page, pageSize = normalizePage(page, pageSize, constants.DEFAULT_PAGE_SIZE, constants.MAX_PAGE_SIZE)

	query := r.db.Model(&model.ChatMessage{}).Where("conversation_id = ?", conversationId)
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, wrapDBErrorf(err, "统计消息 conversation_id=%d", conversationId)
	}

	var messages []model.ChatMessage
	if err := query.Order("created_at ASC, id ASC").
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&messages).Error; err != nil {
		return nil, 0, wrapDBErrorf(err, "查询消息 conversation_id=%d", conversationId)
	}
	return messages, total, nil
}

// FindRecentBySender 查找某发送方在会话内最近的 limit 条消息，按创建时间倒序
func (r *messageRepository) FindRecentBySender(conversationId uint, senderType int8, senderId uint, limit int) ([]model.ChatMessage, error) {
	var messages []model.ChatMessage
	if err := r.db.Where("conversation_id = ? AND sender_type = ? AND sender_id = ?",
		conversationId, senderType, senderId).
		Order("created_at DESC, id DESC").Limit(limit).
		Find(&messages).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询最近消息 conversation_id=%d", conversationId)
	}
	return messages, nil
}

// AdvanceStatus 将消息状态向前推进
// WHERE 条件带上 status < to，保证状态只前进不回退
func (r *messageRepository) AdvanceStatus(uuid int64, to int8) error {
	if err := r.db.Model(&model.ChatMessage{}).
		Where("uuid = ? AND status < ?", uuid, to).
		Update("status", to).Error; err != nil {
		return wrapDBErrorf(err, "推进消息状态 uuid=%d", uuid)
	}
	return nil
}
