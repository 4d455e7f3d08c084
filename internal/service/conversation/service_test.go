package conversation

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"support_chat_server/internal/dao/mysql/repository"
	"support_chat_server/internal/dto/request"
	"support_chat_server/internal/dto/respond"
	"support_chat_server/internal/model"
	"support_chat_server/internal/service/ratelimit"
	"support_chat_server/pkg/enum/conversation/conversation_status_enum"
	"support_chat_server/pkg/enum/message/message_status_enum"
	"support_chat_server/pkg/enum/message/sender_type_enum"
	"support_chat_server/pkg/errorx"
)

// ---- 内存版 Repository，镜像 GORM 实现的事务语义 ----

type fakeStore struct {
	users         map[uint]*model.ChatUser
	usersByName   map[string]uint
	staffs        map[uint]*model.Staff
	conversations map[uint]*model.Conversation
	messages      []*model.ChatMessage
	nextUserId    uint
	nextConvId    uint
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:         make(map[uint]*model.ChatUser),
		usersByName:   make(map[string]uint),
		staffs:        make(map[uint]*model.Staff),
		conversations: make(map[uint]*model.Conversation),
		nextUserId:    1,
		nextConvId:    1,
	}
}

func (s *fakeStore) addStaff(id uint, nickname string) {
	staff := &model.Staff{Nickname: nickname}
	staff.ID = id
	s.staffs[id] = staff
}

func (s *fakeStore) addUser(name string) *model.ChatUser {
	user := &model.ChatUser{Name: name, Nickname: name}
	user.ID = s.nextUserId
	s.nextUserId++
	s.users[user.ID] = user
	s.usersByName[name] = user.ID
	return user
}

func (s *fakeStore) addConversation(userId uint, status int8) *model.Conversation {
	conv := &model.Conversation{UserId: userId, Status: status}
	conv.ID = s.nextConvId
	s.nextConvId++
	s.conversations[conv.ID] = conv
	return conv
}

type fakeChatUserRepo struct{ store *fakeStore }

func (r *fakeChatUserRepo) FindByName(name string) (*model.ChatUser, error) {
	if id, ok := r.store.usersByName[name]; ok {
		return r.store.users[id], nil
	}
	return nil, errorx.New(errorx.CodeNotFound, "用户不存在")
}

func (r *fakeChatUserRepo) FindById(id uint) (*model.ChatUser, error) {
	if user, ok := r.store.users[id]; ok {
		return user, nil
	}
	return nil, errorx.New(errorx.CodeNotFound, "用户不存在")
}

func (r *fakeChatUserRepo) FindByIds(ids []uint) ([]model.ChatUser, error) {
	var users []model.ChatUser
	for _, id := range ids {
		if user, ok := r.store.users[id]; ok {
			users = append(users, *user)
		}
	}
	return users, nil
}

func (r *fakeChatUserRepo) Create(user *model.ChatUser) error {
	if _, ok := r.store.usersByName[user.Name]; ok {
		return errors.New("duplicate name")
	}
	user.ID = r.store.nextUserId
	r.store.nextUserId++
	r.store.users[user.ID] = user
	r.store.usersByName[user.Name] = user.ID
	return nil
}

type fakeStaffRepo struct{ store *fakeStore }

func (r *fakeStaffRepo) FindById(id uint) (*model.Staff, error) {
	if staff, ok := r.store.staffs[id]; ok {
		return staff, nil
	}
	return nil, errorx.New(errorx.CodeNotFound, "客服不存在")
}

func (r *fakeStaffRepo) FindByIds(ids []uint) ([]model.Staff, error) {
	var staffs []model.Staff
	for _, id := range ids {
		if staff, ok := r.store.staffs[id]; ok {
			staffs = append(staffs, *staff)
		}
	}
	return staffs, nil
}

func (r *fakeStaffRepo) FindByUsername(username string) (*model.Staff, error) {
	return nil, errorx.New(errorx.CodeNotFound, "客服不存在")
}

func (r *fakeStaffRepo) Create(staff *model.Staff) error { return nil }

type fakeConversationRepo struct{ store *fakeStore }

func (r *fakeConversationRepo) FindById(id uint) (*model.Conversation, error) {
	if conv, ok := r.store.conversations[id]; ok {
		copied := *conv
		return &copied, nil
	}
	return nil, errorx.New(errorx.CodeNotFound, "会话不存在")
}

func (r *fakeConversationRepo) ListByUserId(userId uint, page, pageSize int) ([]model.Conversation, int64, error) {
	var result []model.Conversation
	for _, conv := range r.store.conversations {
		if conv.UserId == userId {
			result = append(result, *conv)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].LastMessageAt.Time.After(result[j].LastMessageAt.Time)
	})
	return result, int64(len(result)), nil
}

func (r *fakeConversationRepo) ListByStatus(status *int8, page, pageSize int) ([]model.Conversation, int64, error) {
	var result []model.Conversation
	for _, conv := range r.store.conversations {
		if status == nil || conv.Status == *status {
			result = append(result, *conv)
		}
	}
	return result, int64(len(result)), nil
}

func (r *fakeConversationRepo) CountActiveByUserId(userId uint) (int64, error) {
	var count int64
	for _, conv := range r.store.conversations {
		if conv.UserId == userId && conv.Status != conversation_status_enum.Closed {
			count++
		}
	}
	return count, nil
}

func (r *fakeConversationRepo) SumUserUnread(userId uint) (int64, error) {
	var total int64
	for _, conv := range r.store.conversations {
		if conv.UserId == userId {
			total += int64(conv.UserUnreadCount)
		}
	}
	return total, nil
}

func (r *fakeConversationRepo) Stats() (*repository.ConversationStats, error) {
	stats := &repository.ConversationStats{}
	for _, conv := range r.store.conversations {
		switch conv.Status {
		case conversation_status_enum.Open:
			stats.OpenCount++
		case conversation_status_enum.Pending:
			stats.PendingCount++
		case conversation_status_enum.Closed:
			stats.ClosedCount++
		}
		stats.TotalAdminUnread += int64(conv.AdminUnreadCount)
	}
	return stats, nil
}

func (r *fakeConversationRepo) CreateWithFirstMessage(conversation *model.Conversation, message *model.ChatMessage) error {
	conversation.ID = r.store.nextConvId
	r.store.nextConvId++
	now := time.Now()
	message.ConversationId = conversation.ID
	message.CreatedAt = now
	conversation.LastMessageAt.Time = now
	conversation.LastMessageAt.Valid = true
	conversation.LastMessage = message.Content
	r.store.conversations[conversation.ID] = conversation
	r.store.messages = append(r.store.messages, message)
	return nil
}

func (r *fakeConversationRepo) AppendMessage(conversationId uint, message *model.ChatMessage) (*model.Conversation, error) {
	conv, ok := r.store.conversations[conversationId]
	if !ok {
		return nil, errorx.New(errorx.CodeNotFound, "会话不存在")
	}
	if message.ReplyToUuid != 0 {
		found := false
		for _, m := range r.store.messages {
			if m.Uuid == message.ReplyToUuid && m.ConversationId == conversationId {
				found = true
				break
			}
		}
		if !found {
			return nil, errorx.New(errorx.CodeInvalidParam, "被回复的消息不在该会话内")
		}
	}

	message.ConversationId = conversationId
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now()
	}
	r.store.messages = append(r.store.messages, message)

	conv.LastMessageAt.Time = message.CreatedAt
	conv.LastMessageAt.Valid = true
	conv.LastMessageBy = message.SenderType
	conv.LastMessage = message.Content
	if message.SenderType == sender_type_enum.User {
		conv.AdminUnreadCount++
	} else {
		conv.UserUnreadCount++
		if conv.AdminId == 0 {
			conv.AdminId = message.SenderId
		}
	}
	copied := *conv
	return &copied, nil
}

func (r *fakeConversationRepo) MarkRead(conversationId uint, readerType int8, readAt time.Time) (int64, error) {
	conv, ok := r.store.conversations[conversationId]
	if !ok {
		return 0, errorx.New(errorx.CodeNotFound, "会话不存在")
	}
	var marked int64
	for _, m := range r.store.messages {
		if m.ConversationId == conversationId && m.SenderType != readerType && m.Status != message_status_enum.Read {
			m.Status = message_status_enum.Read
			m.ReadAt.Time = readAt
			m.ReadAt.Valid = true
			m.ReadBy = readerType
			marked++
		}
	}
	if readerType == sender_type_enum.User {
		conv.UserUnreadCount = 0
	} else {
		conv.AdminUnreadCount = 0
	}
	return marked, nil
}

func (r *fakeConversationRepo) SetStatus(conversationId uint, status int8, staffId uint) (*model.Conversation, error) {
	conv, ok := r.store.conversations[conversationId]
	if !ok {
		return nil, errorx.New(errorx.CodeNotFound, "会话不存在")
	}
	conv.Status = status
	if status == conversation_status_enum.Closed {
		conv.ClosedAt.Time = time.Now()
		conv.ClosedAt.Valid = true
		conv.ClosedBy = staffId
	}
	copied := *conv
	return &copied, nil
}

type fakeMessageRepo struct{ store *fakeStore }

func (r *fakeMessageRepo) ListByConversationId(conversationId uint, page, pageSize int) ([]model.ChatMessage, int64, error) {
	var result []model.ChatMessage
	for _, m := range r.store.messages {
		if m.ConversationId == conversationId {
			result = append(result, *m)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, int64(len(result)), nil
}

func (r *fakeMessageRepo) FindRecentBySender(conversationId uint, senderType int8, senderId uint, limit int) ([]model.ChatMessage, error) {
	var result []model.ChatMessage
	for _, m := range r.store.messages {
		if m.ConversationId == conversationId && m.SenderType == senderType && m.SenderId == senderId {
			result = append(result, *m)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (r *fakeMessageRepo) AdvanceStatus(uuid int64, to int8) error {
	for _, m := range r.store.messages {
		if m.Uuid == uuid && m.Status < to {
			m.Status = to
		}
	}
	return nil
}

// fakePublisher 记录投递过的事件，可注入投递失败
type fakePublisher struct {
	events  []*respond.MessageRespond
	failErr error
}

func (p *fakePublisher) PublishNewMessage(ctx context.Context, conversation *respond.ConversationRespond, message *respond.MessageRespond) error {
	if p.failErr != nil {
		return p.failErr
	}
	p.events = append(p.events, message)
	return nil
}

// ---- 测试夹具 ----

type fixture struct {
	store     *fakeStore
	svc       *chatService
	publisher *fakePublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := newFakeStore()
	repos := &repository.Repositories{
		ChatUser:     &fakeChatUserRepo{store: store},
		Staff:        &fakeStaffRepo{store: store},
		Conversation: &fakeConversationRepo{store: store},
		Message:      &fakeMessageRepo{store: store},
	}
	publisher := &fakePublisher{}
	// 限流配额给足，限流行为本身由 ratelimit 包的测试覆盖
	policies := ratelimit.Policies{
		Message:      ratelimit.Policy{Window: time.Minute, MaxEvents: 1000},
		Conversation: ratelimit.Policy{Window: time.Minute, MaxEvents: 1000},
		Typing:       ratelimit.Policy{Window: time.Minute, MaxEvents: 1000},
	}
	limiter := ratelimit.NewLimiter(ratelimit.NewMemoryStore())
	svc := NewChatService(repos, nil, limiter, policies, publisher, 5)
	return &fixture{store: store, svc: svc, publisher: publisher}
}

func TestCreateConversationAutoProvisionAndCounters(t *testing.T) {
	f := newFixture(t)

	conv, msg, err := f.svc.CreateConversation("1.2.3.4", request.CreateConversationRequest{
		Identity: "visitor_42",
		Subject:  "订单问题",
		Priority: "high",
		Message:  "你好，我的订单一直没有发货",
	})
	if err != nil {
		t.Fatalf("CreateConversation 失败: %v", err)
	}

	// 身份自动开通
	if _, ok := f.store.usersByName["visitor_42"]; !ok {
		t.Fatal("应自动开通占位账号")
	}
	stored := f.store.conversations[conv.Id]
	if stored == nil {
		t.Fatal("会话未落库")
	}
	// 首条消息来自用户，客服侧未读从 1 起步
	if stored.AdminUnreadCount != 1 {
		t.Errorf("AdminUnreadCount = %d, want 1", stored.AdminUnreadCount)
	}
	if stored.UserUnreadCount != 0 {
		t.Errorf("UserUnreadCount = %d, want 0", stored.UserUnreadCount)
	}
	if stored.Status != conversation_status_enum.Open {
		t.Errorf("Status = %d, want open", stored.Status)
	}
	if conv.Subject != "订单问题" {
		t.Errorf("Subject = %q", conv.Subject)
	}
	if msg.Content != "你好，我的订单一直没有发货" {
		t.Errorf("Content = %q", msg.Content)
	}
	// 落库后实时投递一次
	if len(f.publisher.events) != 1 {
		t.Errorf("应投递 1 次事件，实际 %d", len(f.publisher.events))
	}
}

func TestCreateConversationCapacityExceeded(t *testing.T) {
	f := newFixture(t)
	user := f.store.addUser("heavy_user")
	for i := 0; i < 5; i++ {
		f.store.addConversation(user.ID, conversation_status_enum.Open)
	}

	_, _, err := f.svc.CreateConversation("1.2.3.4", request.CreateConversationRequest{
		Identity: "heavy_user",
		Message:  "再开一个会话",
	})
	var codeErr *errorx.CodeError
	if !errors.As(err, &codeErr) || codeErr.Code != errorx.CodeCapacityExceeded {
		t.Fatalf("应返回会话上限错误, got %v", err)
	}
}

func TestCreateConversationClosedNotCounted(t *testing.T) {
	f := newFixture(t)
	user := f.store.addUser("returning_user")
	// 已关闭的会话不占用上限配额
	for i := 0; i < 5; i++ {
		f.store.addConversation(user.ID, conversation_status_enum.Closed)
	}

	_, _, err := f.svc.CreateConversation("1.2.3.4", request.CreateConversationRequest{
		Identity: "returning_user",
		Message:  "之前的问题又出现了",
	})
	if err != nil {
		t.Fatalf("已关闭会话不应占用上限: %v", err)
	}
}

func TestCreateConversationSpamRejected(t *testing.T) {
	f := newFixture(t)

	_, _, err := f.svc.CreateConversation("1.2.3.4", request.CreateConversationRequest{
		Identity: "visitor",
		Message:  "点击 http://a.com http://b.com http://c.com 免费赢大奖",
	})
	var codeErr *errorx.CodeError
	if !errors.As(err, &codeErr) || codeErr.Code != errorx.CodeSpamRejected {
		t.Fatalf("应返回垃圾内容错误, got %v", err)
	}
	// 拒绝发生在落库之前
	if len(f.store.conversations) != 0 {
		t.Error("垃圾消息不应创建会话")
	}
	if _, ok := f.store.usersByName["visitor"]; ok {
		t.Error("垃圾消息不应触发账号开通")
	}
}

func TestSendUserMessageOwnership(t *testing.T) {
	f := newFixture(t)
	owner := f.store.addUser("owner")
	f.store.addUser("intruder")
	conv := f.store.addConversation(owner.ID, conversation_status_enum.Open)

	// 非归属人拒绝
	_, err := f.svc.SendUserMessage(conv.ID, "1.2.3.4", request.SendMessageRequest{
		Identity: "intruder",
		Message:  "让我看看",
	})
	if !errors.Is(err, errorx.ErrAccessDenied) {
		t.Fatalf("非归属人应被拒绝, got %v", err)
	}

	// 未知身份按无权处理，且不触发自动开通
	before := len(f.store.usersByName)
	_, err = f.svc.SendUserMessage(conv.ID, "1.2.3.4", request.SendMessageRequest{
		Identity: "ghost",
		Message:  "我是谁",
	})
	if !errors.Is(err, errorx.ErrAccessDenied) {
		t.Fatalf("未知身份应被拒绝, got %v", err)
	}
	if len(f.store.usersByName) != before {
		t.Error("发消息路径不应自动开通账号")
	}
}

func TestSendUserMessageIncrementsAdminUnread(t *testing.T) {
	f := newFixture(t)
	user := f.store.addUser("alice")
	conv := f.store.addConversation(user.ID, conversation_status_enum.Open)

	msg, err := f.svc.SendUserMessage(conv.ID, "1.2.3.4", request.SendMessageRequest{
		Identity: "alice",
		Message:  "请问还在吗",
	})
	if err != nil {
		t.Fatalf("SendUserMessage 失败: %v", err)
	}
	stored := f.store.conversations[conv.ID]
	if stored.AdminUnreadCount != 1 {
		t.Errorf("AdminUnreadCount = %d, want 1", stored.AdminUnreadCount)
	}
	if stored.LastMessageBy != sender_type_enum.User {
		t.Errorf("LastMessageBy = %d, want user", stored.LastMessageBy)
	}
	if msg.Sender.Name != "alice" {
		t.Errorf("Sender.Name = %q", msg.Sender.Name)
	}
}

func TestSendStaffMessageBindsAdmin(t *testing.T) {
	f := newFixture(t)
	user := f.store.addUser("bob")
	f.store.addStaff(7, "客服小王")
	f.store.addStaff(8, "客服小李")
	conv := f.store.addConversation(user.ID, conversation_status_enum.Open)

	if _, err := f.svc.SendStaffMessage(conv.ID, 7, request.StaffSendMessageRequest{Message: "您好，有什么可以帮您"}); err != nil {
		t.Fatalf("SendStaffMessage 失败: %v", err)
	}
	stored := f.store.conversations[conv.ID]
	// 首次回复绑定受理人，用户侧未读 +1
	if stored.AdminId != 7 {
		t.Errorf("AdminId = %d, want 7", stored.AdminId)
	}
	if stored.UserUnreadCount != 1 {
		t.Errorf("UserUnreadCount = %d, want 1", stored.UserUnreadCount)
	}
	if stored.LastMessageBy != sender_type_enum.Admin {
		t.Errorf("LastMessageBy = %d, want admin", stored.LastMessageBy)
	}

	// 其他客服再回复不改写受理关系
	if _, err := f.svc.SendStaffMessage(conv.ID, 8, request.StaffSendMessageRequest{Message: "我来补充一下"}); err != nil {
		t.Fatalf("第二个客服回复失败: %v", err)
	}
	if f.store.conversations[conv.ID].AdminId != 7 {
		t.Errorf("受理人不应被改写, AdminId = %d", f.store.conversations[conv.ID].AdminId)
	}
}

func TestSendMessageToClosedConversation(t *testing.T) {
	f := newFixture(t)
	user := f.store.addUser("carol")
	conv := f.store.addConversation(user.ID, conversation_status_enum.Closed)

	// closed 只是状态标记，追加不被拦截
	if _, err := f.svc.SendUserMessage(conv.ID, "1.2.3.4", request.SendMessageRequest{
		Identity: "carol",
		Message:  "问题还没解决",
	}); err != nil {
		t.Fatalf("已关闭会话应允许追加消息: %v", err)
	}
}

func TestSendUserMessageReplyToValidation(t *testing.T) {
	f := newFixture(t)
	user := f.store.addUser("dave")
	conv := f.store.addConversation(user.ID, conversation_status_enum.Open)

	// 非法格式
	_, err := f.svc.SendUserMessage(conv.ID, "1.2.3.4", request.SendMessageRequest{
		Identity: "dave",
		Message:  "回复一下",
		ReplyTo:  "not-a-number",
	})
	var valErr *errorx.ValidationError
	if !errors.As(err, &valErr) {
		t.Fatalf("非法 reply_to 应返回校验错误, got %v", err)
	}

	// 引用其他会话的消息
	other := f.store.addConversation(user.ID, conversation_status_enum.Open)
	foreign := &model.ChatMessage{Uuid: 12345, ConversationId: other.ID, SenderType: sender_type_enum.User, SenderId: user.ID, Content: "别处的消息"}
	f.store.messages = append(f.store.messages, foreign)

	_, err = f.svc.SendUserMessage(conv.ID, "1.2.3.4", request.SendMessageRequest{
		Identity: "dave",
		Message:  "引用跨会话消息",
		ReplyTo:  "12345",
	})
	var codeErr *errorx.CodeError
	if !errors.As(err, &codeErr) || codeErr.Code != errorx.CodeInvalidParam {
		t.Fatalf("跨会话引用应被拒绝, got %v", err)
	}
}

func TestMarkReadIdempotent(t *testing.T) {
	f := newFixture(t)
	user := f.store.addUser("erin")
	f.store.addStaff(3, "客服小张")
	conv := f.store.addConversation(user.ID, conversation_status_enum.Open)

	for i := 0; i < 3; i++ {
		if _, err := f.svc.SendUserMessage(conv.ID, "1.2.3.4", request.SendMessageRequest{
			Identity: "erin",
			Message:  "用户发来的消息",
		}); err != nil {
			t.Fatalf("准备消息失败: %v", err)
		}
	}

	first, err := f.svc.MarkRead(conv.ID, 3, request.MarkReadRequest{ReaderType: "admin"})
	if err != nil {
		t.Fatalf("MarkRead 失败: %v", err)
	}
	if first.MarkedCount != 3 {
		t.Errorf("首次 MarkedCount = %d, want 3", first.MarkedCount)
	}
	if f.store.conversations[conv.ID].AdminUnreadCount != 0 {
		t.Error("标记已读后客服侧未读应清零")
	}

	// 重复标记幂等
	second, err := f.svc.MarkRead(conv.ID, 3, request.MarkReadRequest{ReaderType: "admin"})
	if err != nil {
		t.Fatalf("重复 MarkRead 失败: %v", err)
	}
	if second.MarkedCount != 0 {
		t.Errorf("重复标记 MarkedCount = %d, want 0", second.MarkedCount)
	}
}

func TestMarkReadAuthorization(t *testing.T) {
	f := newFixture(t)
	user := f.store.addUser("frank")
	conv := f.store.addConversation(user.ID, conversation_status_enum.Open)

	// reader_type=admin 但没有客服身份
	_, err := f.svc.MarkRead(conv.ID, 0, request.MarkReadRequest{ReaderType: "admin"})
	if !errors.Is(err, errorx.ErrAccessDenied) {
		t.Fatalf("匿名请求不应以 admin 身份标记已读, got %v", err)
	}

	// reader_type=user 但不是会话归属人
	f.store.addUser("grace")
	_, err = f.svc.MarkRead(conv.ID, 0, request.MarkReadRequest{ReaderType: "user", Identity: "grace"})
	if !errors.Is(err, errorx.ErrAccessDenied) {
		t.Fatalf("非归属人不应标记已读, got %v", err)
	}
}

func TestSetStatusClosedSideEffects(t *testing.T) {
	f := newFixture(t)
	user := f.store.addUser("henry")
	conv := f.store.addConversation(user.ID, conversation_status_enum.Open)

	rsp, err := f.svc.SetStatus(conv.ID, 9, request.SetStatusRequest{Status: "closed"})
	if err != nil {
		t.Fatalf("SetStatus 失败: %v", err)
	}
	if rsp.Status != "closed" {
		t.Errorf("Status = %q, want closed", rsp.Status)
	}
	stored := f.store.conversations[conv.ID]
	if !stored.ClosedAt.Valid {
		t.Error("转为 closed 应写入关闭时间")
	}
	if stored.ClosedBy != 9 {
		t.Errorf("ClosedBy = %d, want 9", stored.ClosedBy)
	}

	// 非法状态值
	_, err = f.svc.SetStatus(conv.ID, 9, request.SetStatusRequest{Status: "archived"})
	var valErr *errorx.ValidationError
	if !errors.As(err, &valErr) {
		t.Fatalf("非法状态应返回校验错误, got %v", err)
	}
}

func TestConversationBurstLimit(t *testing.T) {
	f := newFixture(t)
	user := f.store.addUser("ivan")
	conv := f.store.addConversation(user.ID, conversation_status_enum.Open)

	// 预置 10 条窗口内的近期消息
	now := time.Now()
	for i := 0; i < 10; i++ {
		m := &model.ChatMessage{
			Uuid:           int64(1000 + i),
			ConversationId: conv.ID,
			SenderType:     sender_type_enum.User,
			SenderId:       user.ID,
			Content:        "快速连发",
		}
		m.CreatedAt = now.Add(-time.Duration(i) * time.Second)
		f.store.messages = append(f.store.messages, m)
	}

	_, err := f.svc.SendUserMessage(conv.ID, "1.2.3.4", request.SendMessageRequest{
		Identity: "ivan",
		Message:  "第十一条",
	})
	var rateErr *errorx.RateLimitedError
	if !errors.As(err, &rateErr) {
		t.Fatalf("会话内连发应触发限流, got %v", err)
	}
	// 重试提示固定为消息窗口的秒数
	if rateErr.RetryAfterSeconds != 60 {
		t.Errorf("RetryAfterSeconds = %d, want 60", rateErr.RetryAfterSeconds)
	}
}

func TestStaffRepliesNotBurstLimited(t *testing.T) {
	f := newFixture(t)
	user := f.store.addUser("leo")
	f.store.addStaff(6, "客服小钱")
	conv := f.store.addConversation(user.ID, conversation_status_enum.Open)

	// 窗口内已有 10 条客服消息，会话级频率检查不约束客服回复
	now := time.Now()
	for i := 0; i < 10; i++ {
		m := &model.ChatMessage{
			Uuid:           int64(2000 + i),
			ConversationId: conv.ID,
			SenderType:     sender_type_enum.Admin,
			SenderId:       6,
			Content:        "客服连续回复",
		}
		m.CreatedAt = now.Add(-time.Duration(i) * time.Second)
		f.store.messages = append(f.store.messages, m)
	}

	if _, err := f.svc.SendStaffMessage(conv.ID, 6, request.StaffSendMessageRequest{Message: "第十一条回复"}); err != nil {
		t.Fatalf("客服回复不应触发会话级限流: %v", err)
	}
}

func TestEnsureChatIdentityIdempotent(t *testing.T) {
	f := newFixture(t)

	first, err := f.svc.EnsureChatIdentity("same_visitor")
	if err != nil {
		t.Fatalf("首次解析失败: %v", err)
	}
	second, err := f.svc.EnsureChatIdentity("same_visitor")
	if err != nil {
		t.Fatalf("二次解析失败: %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("同一标识名应复用账号: %d != %d", first.ID, second.ID)
	}
	if len(f.store.usersByName) != 1 {
		t.Errorf("应只开通一个账号，实际 %d", len(f.store.usersByName))
	}
}

func TestListConversationsCarriesLastMessage(t *testing.T) {
	f := newFixture(t)
	f.store.addStaff(5, "客服小孙")

	conv, _, err := f.svc.CreateConversation("1.2.3.4", request.CreateConversationRequest{
		Identity: "mona",
		Message:  "这是最后一条消息",
	})
	if err != nil {
		t.Fatalf("CreateConversation 失败: %v", err)
	}

	rsp, err := f.svc.ListConversations(request.ListConversationsRequest{Identity: "mona"})
	if err != nil {
		t.Fatalf("ListConversations 失败: %v", err)
	}
	if len(rsp.Conversations) != 1 {
		t.Fatalf("会话数 = %d, want 1", len(rsp.Conversations))
	}
	if rsp.Conversations[0].LastMessage != "这是最后一条消息" {
		t.Errorf("LastMessage = %q, want %q", rsp.Conversations[0].LastMessage, "这是最后一条消息")
	}

	// 新消息落库后预览随之更新
	if _, err := f.svc.SendStaffMessage(conv.Id, 5, request.StaffSendMessageRequest{Message: "已为您处理"}); err != nil {
		t.Fatalf("客服回复失败: %v", err)
	}
	rsp, err = f.svc.ListConversations(request.ListConversationsRequest{Identity: "mona"})
	if err != nil {
		t.Fatalf("二次查询失败: %v", err)
	}
	if rsp.Conversations[0].LastMessage != "已为您处理" {
		t.Errorf("LastMessage = %q, want %q", rsp.Conversations[0].LastMessage, "已为您处理")
	}
}

func TestFanOutAdvancesMessageToDelivered(t *testing.T) {
	f := newFixture(t)
	user := f.store.addUser("nina")
	conv := f.store.addConversation(user.ID, conversation_status_enum.Open)

	if _, err := f.svc.SendUserMessage(conv.ID, "1.2.3.4", request.SendMessageRequest{
		Identity: "nina",
		Message:  "投递成功的消息",
	}); err != nil {
		t.Fatalf("SendUserMessage 失败: %v", err)
	}
	if got := f.store.messages[0].Status; got != message_status_enum.Delivered {
		t.Errorf("投递成功后 Status = %d, want delivered", got)
	}

	// 投递失败时消息停留在 sent
	f.publisher.failErr = errors.New("broker busy")
	if _, err := f.svc.SendUserMessage(conv.ID, "1.2.3.4", request.SendMessageRequest{
		Identity: "nina",
		Message:  "投递失败的消息",
	}); err != nil {
		t.Fatalf("投递失败不应影响发送: %v", err)
	}
	if got := f.store.messages[1].Status; got != message_status_enum.Sent {
		t.Errorf("投递失败后 Status = %d, want sent", got)
	}
}

func TestListMessagesRoundTripOrdering(t *testing.T) {
	f := newFixture(t)
	user := f.store.addUser("kate")
	f.store.addStaff(4, "客服小赵")
	conv := f.store.addConversation(user.ID, conversation_status_enum.Open)

	contents := []string{"第一条", "第二条", "第三条"}
	for _, content := range contents {
		if _, err := f.svc.SendUserMessage(conv.ID, "1.2.3.4", request.SendMessageRequest{
			Identity: "kate",
			Message:  content,
		}); err != nil {
			t.Fatalf("发送 %q 失败: %v", content, err)
		}
	}
	if _, err := f.svc.SendStaffMessage(conv.ID, 4, request.StaffSendMessageRequest{Message: "收到"}); err != nil {
		t.Fatalf("客服回复失败: %v", err)
	}

	rsp, err := f.svc.ListMessagesAsUser(conv.ID, "kate", 1, 50)
	if err != nil {
		t.Fatalf("ListMessagesAsUser 失败: %v", err)
	}
	if rsp.Total != 4 || len(rsp.Messages) != 4 {
		t.Fatalf("Total = %d, len = %d, want 4", rsp.Total, len(rsp.Messages))
	}
	// 写入顺序完整往返，发送方摘要按 sender_type 解析
	want := append(contents, "收到")
	for i, m := range rsp.Messages {
		if m.Content != want[i] {
			t.Errorf("Messages[%d].Content = %q, want %q", i, m.Content, want[i])
		}
	}
	if rsp.Messages[3].Sender.Type != "admin" || rsp.Messages[3].Sender.Name != "客服小赵" {
		t.Errorf("客服消息发送方解析错误: %+v", rsp.Messages[3].Sender)
	}
	if rsp.Messages[0].Sender.Type != "user" || rsp.Messages[0].Sender.Name != "kate" {
		t.Errorf("用户消息发送方解析错误: %+v", rsp.Messages[0].Sender)
	}
}

func TestListConversationsUnknownIdentity(t *testing.T) {
	f := newFixture(t)

	// 读路径不自动开通账号
	_, err := f.svc.ListConversations(request.ListConversationsRequest{Identity: "nobody"})
	var codeErr *errorx.CodeError
	if !errors.As(err, &codeErr) || codeErr.Code != errorx.CodeUserNotExist {
		t.Fatalf("未知身份查询应返回用户不存在, got %v", err)
	}
	if len(f.store.usersByName) != 0 {
		t.Error("查询路径不应自动开通账号")
	}
}

func TestUnreadCountFor(t *testing.T) {
	f := newFixture(t)
	user := f.store.addUser("judy")
	f.store.addStaff(2, "客服小周")
	conv := f.store.addConversation(user.ID, conversation_status_enum.Open)

	for i := 0; i < 2; i++ {
		if _, err := f.svc.SendStaffMessage(conv.ID, 2, request.StaffSendMessageRequest{Message: "客服消息"}); err != nil {
			t.Fatalf("准备客服消息失败: %v", err)
		}
	}

	rsp, err := f.svc.UnreadCountFor("judy")
	if err != nil {
		t.Fatalf("UnreadCountFor 失败: %v", err)
	}
	if rsp.UnreadCount != 2 {
		t.Errorf("未读数 = %d, want 2", rsp.UnreadCount)
	}
}
