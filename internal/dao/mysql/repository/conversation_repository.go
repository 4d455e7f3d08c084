package repository

import (
	"database/sql"
	"errors"
	"time"

	"support_chat_server/internal/model"
	"support_chat_server/pkg/constants"
	"support_chat_server/pkg/enum/conversation/conversation_status_enum"
	"support_chat_server/pkg/enum/message/message_status_enum"
	"support_chat_server/pkg/enum/message/sender_type_enum"
	"support_chat_server/pkg/errorx"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type conversationRepository struct {
	db *gorm.DB
}

// NewConversationRepository 创建会话 Repository
func NewConversationRepository(db *gorm.DB) ConversationRepository {
	return &conversationRepository{db: db}
}

// FindById 根据主键查找会话
func (r *conversationRepository) FindById(id uint) (*model.Conversation, error) {
	var conversation model.Conversation
	if err := r.db.First(&conversation, id).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询会话 id=%d", id)
	}
	return &conversation, nil
}

// ListByUserId 分页查找某用户的会话，按最后消息时间倒序
func (r *conversationRepository) ListByUserId(userId uint, page, pageSize int) ([]model.Conversation, int64, error) {
	page, pageSize = normalizePage(page, pageSize, constants.DEFAULT_PAGE_SIZE, constants.MAX_PAGE_SIZE)

	query := r.db.Model(&model.Conversation{}).Where("user_id = ?", userId)
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, wrapDBErrorf(err, "统计用户会话 user_id=%d", userId)
	}

	var conversations []model.Conversation
	if err := query.Order("last_message_at DESC").
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&conversations).Error; err != nil {
		return nil, 0, wrapDBErrorf(err, "查询用户会话 user_id=%d", userId)
	}
	return conversations, total, nil
}

// ListByStatus 分页查找指定状态的会话，status 为 nil 时不过滤
func (r *conversationRepository) ListByStatus(status *int8, page, pageSize int) ([]model.Conversation, int64, error) {
	page, pageSize = normalizePage(page, pageSize, constants.DEFAULT_PAGE_SIZE, constants.MAX_PAGE_SIZE)

	query := r.db.Model(&model.Conversation{})
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, wrapDBError(err, "统计会话列表")
	}

	var conversations []model.Conversation
	if err := query.Order("last_message_at DESC").
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&conversations).Error; err != nil {
		return nil, 0, wrapDBError(err, "查询会话列表")
	}
	return conversations, total, nil
}

// CountActiveByUserId 统计某用户未关闭的会话数
func (r *conversationRepository) CountActiveByUserId(userId uint) (int64, error) {
	var count int64
	if err := r.db.Model(&model.Conversation{}).
		Where("user_id = ? AND status <> ?", userId, conversation_status_enum.Closed).
		Count(&count).Error; err != nil {
		return 0, wrapDBErrorf(err, "统计进行中会话 user_id=%d", userId)
	}
	return count, nil
}

// SumUserUnread 汇总某用户所有会话的用户侧未读数
func (r *conversationRepository) SumUserUnread(userId uint) (int64, error) {
	var total sql.NullInt64
	if err := r.db.Model(&model.Conversation{}).
		Where("user_id = ?", userId).
		Select("SUM(user_unread_count)").Scan(&total).Error; err != nil {
		return 0, wrapDBErrorf(err, "汇总用户未读数 user_id=%d", userId)
	}
	return total.Int64, nil
}

// Stats 按状态统计会话数量和客服侧未读总数
func (r *conversationRepository) Stats() (*ConversationStats, error) {
	type statusCount struct {
		Status int8
		Count  int64
	}
	var rows []statusCount
	if err := r.db.Model(&model.Conversation{}).
		Select("status, COUNT(*) AS count").
		Group("status").Scan(&rows).Error; err != nil {
		return nil, wrapDBError(err, "统计会话状态分布")
	}

	stats := &ConversationStats{}
	for _, row := range rows {
		switch row.Status {
		case conversation_status_enum.Open:
			stats.OpenCount = row.Count
		case conversation_status_enum.Pending:
			stats.PendingCount = row.Count
		case conversation_status_enum.Closed:
			stats.ClosedCount = row.Count
		}
	}

	var totalUnread sql.NullInt64
	if err := r.db.Model(&model.Conversation{}).
		Select("SUM(admin_unread_count)").Scan(&totalUnread).Error; err != nil {
		return nil, wrapDBError(err, "汇总客服未读数")
	}
	stats.TotalAdminUnread = totalUnread.Int64
	return stats, nil
}

// CreateWithFirstMessage 在一个事务内创建会话及其首条消息
// 部分失败（会话已建、消息未建）会整体回滚，不会留下零消息的会话
func (r *conversationRepository) CreateWithFirstMessage(conversation *model.Conversation, message *model.ChatMessage) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		conversation.LastMessage = messagePreview(message.Content)
		if err := tx.Create(conversation).Error; err != nil {
			return err
		}
		message.ConversationId = conversation.ID
		if err := tx.Create(message).Error; err != nil {
			return err
		}
		// 首条消息落库后回填最后消息时间
		conversation.LastMessageAt = sql.NullTime{Time: message.CreatedAt, Valid: true}
		return tx.Model(conversation).
			Update("last_message_at", conversation.LastMessageAt).Error
	})
	if err != nil {
		return wrapDBError(err, "创建会话及首条消息")
	}
	return nil
}

// AppendMessage 在一个事务内追加消息并维护会话的冗余字段
// 事务内对会话行加排他锁，两个并发追加不会互相覆盖计数器和最后消息字段
func (r *conversationRepository) AppendMessage(conversationId uint, message *model.ChatMessage) (*model.Conversation, error) {
	var conversation model.Conversation
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&conversation, conversationId).Error; err != nil {
			return err
		}

		// reply_to 必须引用同一会话内的消息
		if message.ReplyToUuid != 0 {
			var replied model.ChatMessage
			if err := tx.Where("uuid = ? AND conversation_id = ?", message.ReplyToUuid, conversationId).
				First(&replied).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return errorx.New(errorx.CodeInvalidParam, "被回复的消息不在该会话内")
				}
				return err
			}
		}

		message.ConversationId = conversationId
		if err := tx.Create(message).Error; err != nil {
			return err
		}

		// 维护最后消息字段和对方的未读计数
		conversation.LastMessageAt = sql.NullTime{Time: message.CreatedAt, Valid: true}
		conversation.LastMessageBy = message.SenderType
		conversation.LastMessage = messagePreview(message.Content)
		if message.SenderType == sender_type_enum.User {
			conversation.AdminUnreadCount++
		} else {
			conversation.UserUnreadCount++
			// 客服首次回复时绑定受理人
			if conversation.AdminId == 0 {
				conversation.AdminId = message.SenderId
			}
		}
		return tx.Save(&conversation).Error
	})
	if err != nil {
		var codeErr *errorx.CodeError
		if errors.As(err, &codeErr) {
			return nil, err // 业务错误原样返回，不再包装
		}
		return nil, wrapDBErrorf(err, "追加消息 conversation_id=%d", conversationId)
	}
	return &conversation, nil
}

// MarkRead 在一个事务内将对方发送的未读消息置为已读并清零对应未读计数
// 消息行更新与计数器清零必须同时生效，避免计数器与实际未读数不一致
func (r *conversationRepository) MarkRead(conversationId uint, readerType int8, readAt time.Time) (int64, error) {
	var marked int64
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var conversation model.Conversation
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&conversation, conversationId).Error; err != nil {
			return err
		}

		// 只推进对方发送且尚未已读的消息，已读状态不会被回退
		res := tx.Model(&model.ChatMessage{}).
			Where("conversation_id = ? AND sender_type <> ? AND status <> ?",
				conversationId, readerType, message_status_enum.Read).
			Updates(map[string]any{
				"status":  message_status_enum.Read,
				"read_at": readAt,
				"read_by": readerType,
			})
		if res.Error != nil {
			return res.Error
		}
		marked = res.RowsAffected

		// 清零读取方的未读计数
		if readerType == sender_type_enum.User {
			conversation.UserUnreadCount = 0
		} else {
			conversation.AdminUnreadCount = 0
		}
		return tx.Save(&conversation).Error
	})
	if err != nil {
		return 0, wrapDBErrorf(err, "标记已读 conversation_id=%d", conversationId)
	}
	return marked, nil
}

// SetStatus 变更会话状态
// 仅转为 closed 时写入关闭时间和操作人，其余状态转换没有副作用
func (r *conversationRepository) SetStatus(conversationId uint, status int8, staffId uint) (*model.Conversation, error) {
	var conversation model.Conversation
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&conversation, conversationId).Error; err != nil {
			return err
		}
		if status == conversation_status_enum.Closed && conversation.Status != conversation_status_enum.Closed {
			conversation.ClosedAt = sql.NullTime{Time: time.Now(), Valid: true}
			conversation.ClosedBy = staffId
		}
		conversation.Status = status
		return tx.Save(&conversation).Error
	})
	if err != nil {
		return nil, wrapDBErrorf(err, "变更会话状态 conversation_id=%d", conversationId)
	}
	return &conversation, nil
}

// messagePreview 截取消息内容作为会话列表的预览文本
func messagePreview(content string) string {
	const maxPreviewRunes = 200
	runes := []rune(content)
	if len(runes) <= maxPreviewRunes {
		return content
	}
	return string(runes[:maxPreviewRunes])
}
