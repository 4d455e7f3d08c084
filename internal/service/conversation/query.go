// Package conversation 实现客服会话的业务逻辑
// query.go
// 核心职责：会话与消息的查询接口、响应体组装
// 读路径不做账号自动开通，未知身份一律按不存在处理
package conversation

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"go.uber.org/zap"

	"support_chat_server/internal/dto/request"
	"support_chat_server/internal/dto/respond"
	"support_chat_server/internal/model"
	"support_chat_server/internal/service/validate"
	"support_chat_server/pkg/constants"
	"support_chat_server/pkg/enum/conversation/conversation_status_enum"
	"support_chat_server/pkg/enum/conversation/priority_enum"
	"support_chat_server/pkg/enum/message/message_status_enum"
	"support_chat_server/pkg/enum/message/message_type_enum"
	"support_chat_server/pkg/enum/message/sender_type_enum"
	"support_chat_server/pkg/errorx"
)

const timeLayout = "2006-01-02 15:04:05"

// 消息列表首页的缓存键前缀与有效期
const (
	messageCacheKeyPrefix = "message_list_"
	messageCacheTTL       = 5 * time.Minute
)

// ListConversations 查询某身份名下的会话列表，按最后消息时间倒序
func (s *chatService) ListConversations(req request.ListConversationsRequest) (*respond.ConversationListRespond, error) {
	name, ok := validate.IdentityName(req.Identity)
	if !ok {
		return nil, errorx.NewValidation([]string{"identity 不合法"})
	}
	chatUser, err := s.repos.ChatUser.FindByName(name)
	if err != nil {
		if errorx.IsNotFound(err) {
			return nil, errorx.New(errorx.CodeUserNotExist, "用户不存在")
		}
		return nil, err
	}

	page, limit := normalizePaging(req.Page, req.Limit)
	conversations, total, err := s.repos.Conversation.ListByUserId(chatUser.ID, page, limit)
	if err != nil {
		return nil, err
	}
	return s.conversationListRespond(conversations, total, page, limit)
}

// AdminListConversations 客服查询会话列表，可按状态过滤
func (s *chatService) AdminListConversations(req request.AdminListConversationsRequest) (*respond.ConversationListRespond, error) {
	var status *int8
	if req.Status != "" {
		parsed, ok := conversation_status_enum.Parse(req.Status)
		if !ok {
			return nil, errorx.NewValidation([]string{"status 不合法"})
		}
		status = &parsed
	}

	page, limit := normalizePaging(req.Page, req.Limit)
	conversations, total, err := s.repos.Conversation.ListByStatus(status, page, limit)
	if err != nil {
		return nil, err
	}
	return s.conversationListRespond(conversations, total, page, limit)
}

// ListMessagesAsUser 终端用户查询会话内消息，需归属校验
func (s *chatService) ListMessagesAsUser(conversationId uint, identity string, page, limit int) (*respond.MessageListRespond, error) {
	name, ok := validate.IdentityName(identity)
	if !ok {
		return nil, errorx.NewValidation([]string{"identity 不合法"})
	}
	conversation, err := s.repos.Conversation.FindById(conversationId)
	if err != nil {
		return nil, err
	}
	chatUser, err := s.repos.ChatUser.FindByName(name)
	if err != nil {
		if errorx.IsNotFound(err) {
			return nil, errorx.ErrAccessDenied
		}
		return nil, err
	}
	if conversation.UserId != chatUser.ID {
		return nil, errorx.ErrAccessDenied
	}
	return s.listMessages(conversationId, page, limit)
}

// ListMessagesAsStaff 客服查询任意会话内消息
func (s *chatService) ListMessagesAsStaff(conversationId uint, page, limit int) (*respond.MessageListRespond, error) {
	if _, err := s.repos.Conversation.FindById(conversationId); err != nil {
		return nil, err
	}
	return s.listMessages(conversationId, page, limit)
}

// listMessages 分页查询消息并批量解析发送方，首页结果走缓存
func (s *chatService) listMessages(conversationId uint, page, limit int) (*respond.MessageListRespond, error) {
	page, limit = normalizePaging(page, limit)

	cacheKey := ""
	if page == 1 && limit == constants.DEFAULT_PAGE_SIZE && s.cache != nil {
		cacheKey = messageCacheKeyPrefix + strconv.FormatUint(uint64(conversationId), 10)
		if cached, err := s.cache.Get(context.Background(), cacheKey); err == nil && cached != "" {
			var rsp respond.MessageListRespond
			if err := json.Unmarshal([]byte(cached), &rsp); err == nil {
				return &rsp, nil
			}
			zap.L().Warn("消息列表缓存解析失败", zap.String("key", cacheKey))
		}
	}

	messages, total, err := s.repos.Message.ListByConversationId(conversationId, page, limit)
	if err != nil {
		return nil, err
	}
	senders, err := s.resolveSenders(messages)
	if err != nil {
		return nil, err
	}

	rspList := make([]respond.MessageRespond, 0, len(messages))
	for i := range messages {
		rspList = append(rspList, *messageRespond(&messages[i], senders[senderKey(messages[i].SenderType, messages[i].SenderId)]))
	}
	rsp := &respond.MessageListRespond{
		Total:    total,
		Page:     page,
		Limit:    limit,
		Messages: rspList,
	}

	if cacheKey != "" {
		s.cache.SubmitTask(func() {
			jsonBytes, err := json.Marshal(rsp)
			if err != nil {
				return
			}
			if err := s.cache.Set(context.Background(), cacheKey, string(jsonBytes), messageCacheTTL); err != nil {
				zap.L().Warn("写入消息列表缓存失败", zap.String("key", cacheKey), zap.Error(err))
			}
		})
	}
	return rsp, nil
}

// Stats 客服工作台统计
func (s *chatService) Stats() (*respond.StatsRespond, error) {
	stats, err := s.repos.Conversation.Stats()
	if err != nil {
		return nil, err
	}
	return &respond.StatsRespond{
		OpenCount:        stats.OpenCount,
		PendingCount:     stats.PendingCount,
		ClosedCount:      stats.ClosedCount,
		TotalCount:       stats.OpenCount + stats.PendingCount + stats.ClosedCount,
		TotalAdminUnread: stats.TotalAdminUnread,
	}, nil
}

// UnreadCountFor 某身份在全部会话中的未读总数
func (s *chatService) UnreadCountFor(identity string) (*respond.UnreadCountRespond, error) {
	name, ok := validate.IdentityName(identity)
	if !ok {
		return nil, errorx.NewValidation([]string{"identity 不合法"})
	}
	chatUser, err := s.repos.ChatUser.FindByName(name)
	if err != nil {
		if errorx.IsNotFound(err) {
			return nil, errorx.New(errorx.CodeUserNotExist, "用户不存在")
		}
		return nil, err
	}
	unread, err := s.repos.Conversation.SumUserUnread(chatUser.ID)
	if err != nil {
		return nil, err
	}
	return &respond.UnreadCountRespond{UnreadCount: unread}, nil
}

// invalidateMessageCache 消息或已读状态变化后异步清理首页缓存
func (s *chatService) invalidateMessageCache(conversationId uint) {
	if s.cache == nil {
		return
	}
	key := messageCacheKeyPrefix + strconv.FormatUint(uint64(conversationId), 10)
	s.cache.SubmitTask(func() {
		if err := s.cache.Delete(context.Background(), key); err != nil {
			zap.L().Warn("清理消息列表缓存失败", zap.String("key", key), zap.Error(err))
		}
	})
}

// conversationListRespond 批量组装会话响应，用户与客服名字一次性解析
func (s *chatService) conversationListRespond(conversations []model.Conversation, total int64, page, limit int) (*respond.ConversationListRespond, error) {
	userNames, staffNames, err := s.resolveConversationNames(conversations)
	if err != nil {
		return nil, err
	}
	rspList := make([]respond.ConversationRespond, 0, len(conversations))
	for i := range conversations {
		c := &conversations[i]
		rspList = append(rspList, *s.conversationRespond(c, userNames[c.UserId], staffNames[c.AdminId]))
	}
	return &respond.ConversationListRespond{
		Total:         total,
		Page:          page,
		Limit:         limit,
		Conversations: rspList,
	}, nil
}

// resolveConversationNames 批量解析会话涉及的用户名与客服昵称
func (s *chatService) resolveConversationNames(conversations []model.Conversation) (map[uint]string, map[uint]string, error) {
	userIdSet := make(map[uint]struct{})
	staffIdSet := make(map[uint]struct{})
	for i := range conversations {
		userIdSet[conversations[i].UserId] = struct{}{}
		if conversations[i].AdminId != 0 {
			staffIdSet[conversations[i].AdminId] = struct{}{}
		}
	}

	userNames := make(map[uint]string, len(userIdSet))
	if len(userIdSet) > 0 {
		users, err := s.repos.ChatUser.FindByIds(setToSlice(userIdSet))
		if err != nil {
			return nil, nil, err
		}
		for i := range users {
			userNames[users[i].ID] = users[i].Name
		}
	}
	staffNames := make(map[uint]string, len(staffIdSet))
	if len(staffIdSet) > 0 {
		staffs, err := s.repos.Staff.FindByIds(setToSlice(staffIdSet))
		if err != nil {
			return nil, nil, err
		}
		for i := range staffs {
			staffNames[staffs[i].ID] = staffs[i].Nickname
		}
	}
	return userNames, staffNames, nil
}

// resolveSenders 批量解析一页消息的发送方摘要
func (s *chatService) resolveSenders(messages []model.ChatMessage) (map[string]respond.SenderRespond, error) {
	userIdSet := make(map[uint]struct{})
	staffIdSet := make(map[uint]struct{})
	for i := range messages {
		if messages[i].SenderType == sender_type_enum.User {
			userIdSet[messages[i].SenderId] = struct{}{}
		} else {
			staffIdSet[messages[i].SenderId] = struct{}{}
		}
	}

	senders := make(map[string]respond.SenderRespond)
	if len(userIdSet) > 0 {
		users, err := s.repos.ChatUser.FindByIds(setToSlice(userIdSet))
		if err != nil {
			return nil, err
		}
		for i := range users {
			senders[senderKey(sender_type_enum.User, users[i].ID)] = respond.SenderRespond{
				Type: sender_type_enum.Label(sender_type_enum.User),
				Id:   users[i].ID,
				Name: users[i].Name,
			}
		}
	}
	if len(staffIdSet) > 0 {
		staffs, err := s.repos.Staff.FindByIds(setToSlice(staffIdSet))
		if err != nil {
			return nil, err
		}
		for i := range staffs {
			senders[senderKey(sender_type_enum.Admin, staffs[i].ID)] = respond.SenderRespond{
				Type: sender_type_enum.Label(sender_type_enum.Admin),
				Id:   staffs[i].ID,
				Name: staffs[i].Nickname,
			}
		}
	}
	return senders, nil
}

// conversationRespond 组装单个会话响应
func (s *chatService) conversationRespond(c *model.Conversation, userName, adminName string) *respond.ConversationRespond {
	rsp := &respond.ConversationRespond{
		Id:               c.ID,
		UserId:           c.UserId,
		UserName:         userName,
		AdminId:          c.AdminId,
		AdminName:        adminName,
		Status:           conversation_status_enum.Label(c.Status),
		Subject:          c.Subject,
		Priority:         priority_enum.Label(c.Priority),
		LastMessage:      c.LastMessage,
		LastMessageBy:    sender_type_enum.Label(c.LastMessageBy),
		UserUnreadCount:  c.UserUnreadCount,
		AdminUnreadCount: c.AdminUnreadCount,
		CreatedAt:        c.CreatedAt.Format(timeLayout),
	}
	if c.LastMessageAt.Valid {
		rsp.LastMessageAt = c.LastMessageAt.Time.Format(timeLayout)
	}
	if c.ClosedAt.Valid {
		rsp.ClosedAt = c.ClosedAt.Time.Format(timeLayout)
	}
	return rsp
}

// messageRespond 组装单条消息响应
func messageRespond(m *model.ChatMessage, sender respond.SenderRespond) *respond.MessageRespond {
	rsp := &respond.MessageRespond{
		Uuid:           strconv.FormatInt(m.Uuid, 10),
		ConversationId: m.ConversationId,
		Sender:         sender,
		Content:        m.Content,
		Type:           message_type_enum.Label(m.Type),
		Status:         message_status_enum.Label(m.Status),
		IsEdited:       m.IsEdited,
		CreatedAt:      m.CreatedAt.Format(timeLayout),
	}
	if m.ReadAt.Valid {
		rsp.ReadAt = m.ReadAt.Time.Format(timeLayout)
	}
	if m.ReplyToUuid != 0 {
		rsp.ReplyTo = strconv.FormatInt(m.ReplyToUuid, 10)
	}
	return rsp
}

// lookupUserName 单个用户名解析，失败时返回空串
func (s *chatService) lookupUserName(userId uint) string {
	chatUser, err := s.repos.ChatUser.FindById(userId)
	if err != nil {
		return ""
	}
	return chatUser.Name
}

// lookupStaffName 单个客服昵称解析，0 或失败时返回空串
func (s *chatService) lookupStaffName(staffId uint) string {
	if staffId == 0 {
		return ""
	}
	staff, err := s.repos.Staff.FindById(staffId)
	if err != nil {
		return ""
	}
	return staff.Nickname
}

// senderKey 发送方映射键
func senderKey(senderType int8, senderId uint) string {
	return strconv.Itoa(int(senderType)) + ":" + strconv.FormatUint(uint64(senderId), 10)
}

// setToSlice 集合转切片
func setToSlice(set map[uint]struct{}) []uint {
	ids := make([]uint, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	return ids
}

// normalizePaging 页码与页大小归一化
func normalizePaging(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = constants.DEFAULT_PAGE_SIZE
	}
	if limit > constants.MAX_PAGE_SIZE {
		limit = constants.MAX_PAGE_SIZE
	}
	return page, limit
}
