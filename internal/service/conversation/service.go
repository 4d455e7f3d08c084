// Package conversation 实现客服会话的业务逻辑
// service.go
// 核心职责：会话与消息的全部写入口
// 校验 -> 垃圾检测 -> 限流 -> 落库 -> 实时投递，顺序固定
package conversation

import (
	"context"
	"strconv"
	"time"

	"go.uber.org/zap"

	"support_chat_server/internal/dao/mysql/repository"
	myredis "support_chat_server/internal/dao/redis"
	"support_chat_server/internal/dto/request"
	"support_chat_server/internal/dto/respond"
	"support_chat_server/internal/model"
	"support_chat_server/internal/service/ratelimit"
	"support_chat_server/internal/service/validate"
	"support_chat_server/pkg/enum/conversation/conversation_status_enum"
	"support_chat_server/pkg/enum/message/message_status_enum"
	"support_chat_server/pkg/enum/message/message_type_enum"
	"support_chat_server/pkg/enum/message/sender_type_enum"
	"support_chat_server/pkg/errorx"
	"support_chat_server/pkg/util/random"
	"support_chat_server/pkg/util/snowflake"
)

// EventPublisher 实时投递接口
// 由 chat.ChatServer 实现；投递失败不回滚业务
type EventPublisher interface {
	PublishNewMessage(ctx context.Context, conversation *respond.ConversationRespond, message *respond.MessageRespond) error
}

// chatService 会话业务逻辑实现
type chatService struct {
	repos     *repository.Repositories
	cache     myredis.AsyncCacheService
	limiter   *ratelimit.Limiter
	policies  ratelimit.Policies
	publisher EventPublisher
	// openCap 单用户同时未关闭会话的上限
	openCap int
}

// NewChatService 构造函数
func NewChatService(
	repos *repository.Repositories,
	cache myredis.AsyncCacheService,
	limiter *ratelimit.Limiter,
	policies ratelimit.Policies,
	publisher EventPublisher,
	openCap int,
) *chatService {
	return &chatService{
		repos:     repos,
		cache:     cache,
		limiter:   limiter,
		policies:  policies,
		publisher: publisher,
		openCap:   openCap,
	}
}

// EnsureChatIdentity 按标识名解析终端用户，查不到则自动开通占位账号
// 只在写路径和 WebSocket 接入时调用，读路径不做隐式开通
func (s *chatService) EnsureChatIdentity(name string) (*model.ChatUser, error) {
	chatUser, err := s.repos.ChatUser.FindByName(name)
	if err == nil {
		return chatUser, nil
	}
	if !errorx.IsNotFound(err) {
		return nil, err
	}

	chatUser = &model.ChatUser{
		Uuid:     "U" + random.GetNowAndLenRandomString(11),
		Name:     name,
		Nickname: name,
		Source:   "chat",
		// 占位账号给远期有效期，避免聊天入口被账号有效期卡住
		ExpiresAt: time.Now().AddDate(100, 0, 0),
	}
	if createErr := s.repos.ChatUser.Create(chatUser); createErr != nil {
		// 并发开通同名账号时唯一索引会拦下一个，回查以胜者为准
		chatUser, err = s.repos.ChatUser.FindByName(name)
		if err != nil {
			return nil, createErr
		}
	}
	zap.L().Info("自动开通聊天占位账号", zap.String("name", name))
	return chatUser, nil
}

// CreateConversation 创建会话并写入首条消息
// 会话与首条消息在同一事务内落库，不存在零消息的会话
func (s *chatService) CreateConversation(clientIp string, req request.CreateConversationRequest) (*respond.ConversationRespond, *respond.MessageRespond, error) {
	name, ok := validate.IdentityName(req.Identity)
	if !ok {
		return nil, nil, errorx.NewValidation([]string{"identity 不合法"})
	}
	result := validate.Message(req.Message)
	if !result.OK {
		return nil, nil, errorx.NewValidation(result.Reasons)
	}
	if validate.IsSpam(result.Sanitized) {
		return nil, nil, errorx.New(errorx.CodeSpamRejected, "消息被判定为垃圾内容")
	}

	// 建会话与发消息两个配额都消费：首条消息也是一条消息
	if decision := s.limiter.CheckAndConsume(context.Background(), "conv:"+rateKey(name, 0, clientIp), s.policies.Conversation); !decision.Allowed {
		return nil, nil, errorx.NewRateLimited(int(decision.RetryAfter/time.Second), "创建会话过于频繁")
	}
	if decision := s.limiter.CheckAndConsume(context.Background(), "msg:"+rateKey(name, 0, clientIp), s.policies.Message); !decision.Allowed {
		return nil, nil, errorx.NewRateLimited(int(decision.RetryAfter/time.Second), "发送消息过于频繁")
	}

	chatUser, err := s.EnsureChatIdentity(name)
	if err != nil {
		zap.L().Error("解析用户身份失败", zap.String("identity", name), zap.Error(err))
		return nil, nil, err
	}

	active, err := s.repos.Conversation.CountActiveByUserId(chatUser.ID)
	if err != nil {
		return nil, nil, err
	}
	if active >= int64(s.openCap) {
		return nil, nil, errorx.Newf(errorx.CodeCapacityExceeded, "同时进行中的会话不能超过 %d 个", s.openCap)
	}

	conversation := &model.Conversation{
		UserId:   chatUser.ID,
		Status:   conversation_status_enum.Open,
		Subject:  validate.Subject(req.Subject),
		Priority: validate.Priority(req.Priority),
		// 首条消息来自用户，客服侧未读数从 1 起步
		LastMessageBy:    sender_type_enum.User,
		AdminUnreadCount: 1,
	}
	message := &model.ChatMessage{
		Uuid:       snowflake.GenerateID(),
		SenderType: sender_type_enum.User,
		SenderId:   chatUser.ID,
		Content:    result.Sanitized,
		Type:       message_type_enum.Text,
	}
	if err := s.repos.Conversation.CreateWithFirstMessage(conversation, message); err != nil {
		zap.L().Error("创建会话失败", zap.String("identity", name), zap.Error(err))
		return nil, nil, err
	}

	conversationRsp := s.conversationRespond(conversation, chatUser.Name, "")
	messageRsp := messageRespond(message, respond.SenderRespond{
		Type: sender_type_enum.Label(sender_type_enum.User),
		Id:   chatUser.ID,
		Name: chatUser.Name,
	})
	s.fanOut(conversationRsp, messageRsp, message.Uuid)
	return conversationRsp, messageRsp, nil
}

// SendUserMessage 终端用户向已有会话追加消息
// 会话已关闭不拦截：关闭只是状态标记，追加仍然允许
func (s *chatService) SendUserMessage(conversationId uint, clientIp string, req request.SendMessageRequest) (*respond.MessageRespond, error) {
	name, ok := validate.IdentityName(req.Identity)
	if !ok {
		return nil, errorx.NewValidation([]string{"identity 不合法"})
	}
	result := validate.Message(req.Message)
	if !result.OK {
		return nil, errorx.NewValidation(result.Reasons)
	}
	if validate.IsSpam(result.Sanitized) {
		return nil, errorx.New(errorx.CodeSpamRejected, "消息被判定为垃圾内容")
	}

	conversation, err := s.repos.Conversation.FindById(conversationId)
	if err != nil {
		return nil, err
	}
	// 发消息不开通新账号：账号不存在则必然不是会话归属人
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

	if decision := s.limiter.CheckAndConsume(context.Background(), "msg:"+rateKey(name, 0, clientIp), s.policies.Message); !decision.Allowed {
		return nil, errorx.NewRateLimited(int(decision.RetryAfter/time.Second), "发送消息过于频繁")
	}
	if err := s.checkConversationBurst(conversationId, chatUser.ID); err != nil {
		return nil, err
	}

	replyTo, err := parseReplyTo(req.ReplyTo)
	if err != nil {
		return nil, err
	}
	message := &model.ChatMessage{
		Uuid:        snowflake.GenerateID(),
		SenderType:  sender_type_enum.User,
		SenderId:    chatUser.ID,
		Content:     result.Sanitized,
		Type:        message_type_enum.Text,
		ReplyToUuid: replyTo,
		Metadata:    req.Metadata,
	}
	updated, err := s.repos.Conversation.AppendMessage(conversationId, message)
	if err != nil {
		return nil, err
	}
	s.invalidateMessageCache(conversationId)

	messageRsp := messageRespond(message, respond.SenderRespond{
		Type: sender_type_enum.Label(sender_type_enum.User),
		Id:   chatUser.ID,
		Name: chatUser.Name,
	})
	s.fanOut(s.conversationRespond(updated, chatUser.Name, ""), messageRsp, message.Uuid)
	return messageRsp, nil
}

// SendStaffMessage 客服向会话追加消息
// 任何客服都可以回复任何会话；首次回复时受理关系在存储层绑定
func (s *chatService) SendStaffMessage(conversationId uint, staffId uint, req request.StaffSendMessageRequest) (*respond.MessageRespond, error) {
	result := validate.Message(req.Message)
	if !result.OK {
		return nil, errorx.NewValidation(result.Reasons)
	}
	if validate.IsSpam(result.Sanitized) {
		return nil, errorx.New(errorx.CodeSpamRejected, "消息被判定为垃圾内容")
	}

	staff, err := s.repos.Staff.FindById(staffId)
	if err != nil {
		return nil, err
	}
	if _, err := s.repos.Conversation.FindById(conversationId); err != nil {
		return nil, err
	}

	// 会话级的二次频率检查只针对终端用户，客服回复不受它约束
	if decision := s.limiter.CheckAndConsume(context.Background(), "msg:"+rateKey("", staffId, ""), s.policies.Message); !decision.Allowed {
		return nil, errorx.NewRateLimited(int(decision.RetryAfter/time.Second), "发送消息过于频繁")
	}

	replyTo, err := parseReplyTo(req.ReplyTo)
	if err != nil {
		return nil, err
	}
	message := &model.ChatMessage{
		Uuid:        snowflake.GenerateID(),
		SenderType:  sender_type_enum.Admin,
		SenderId:    staffId,
		Content:     result.Sanitized,
		Type:        message_type_enum.Text,
		ReplyToUuid: replyTo,
		Metadata:    req.Metadata,
	}
	updated, err := s.repos.Conversation.AppendMessage(conversationId, message)
	if err != nil {
		return nil, err
	}
	s.invalidateMessageCache(conversationId)

	userName := s.lookupUserName(updated.UserId)
	messageRsp := messageRespond(message, respond.SenderRespond{
		Type: sender_type_enum.Label(sender_type_enum.Admin),
		Id:   staffId,
		Name: staff.Nickname,
	})
	s.fanOut(s.conversationRespond(updated, userName, staff.Nickname), messageRsp, message.Uuid)
	return messageRsp, nil
}

// MarkRead 标记对方消息为已读并清零己方未读数
// 重复调用是幂等的，第二次返回的 marked_count 为 0
func (s *chatService) MarkRead(conversationId uint, staffId uint, req request.MarkReadRequest) (*respond.MarkReadRespond, error) {
	readerType, ok := sender_type_enum.Parse(req.ReaderType)
	if !ok {
		return nil, errorx.NewValidation([]string{"reader_type 不合法"})
	}

	conversation, err := s.repos.Conversation.FindById(conversationId)
	if err != nil {
		return nil, err
	}
	if readerType == sender_type_enum.User {
		name, nameOk := validate.IdentityName(req.Identity)
		if !nameOk {
			return nil, errorx.NewValidation([]string{"identity 不合法"})
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
	} else if staffId == 0 {
		return nil, errorx.ErrAccessDenied
	}

	marked, err := s.repos.Conversation.MarkRead(conversationId, readerType, time.Now())
	if err != nil {
		return nil, err
	}
	if marked > 0 {
		s.invalidateMessageCache(conversationId)
	}
	return &respond.MarkReadRespond{MarkedCount: marked}, nil
}

// SetStatus 变更会话状态（仅客服）
// 状态机只有 open/pending/closed 三个值，pending 的往返不带副作用
func (s *chatService) SetStatus(conversationId uint, staffId uint, req request.SetStatusRequest) (*respond.ConversationRespond, error) {
	status, ok := conversation_status_enum.Parse(req.Status)
	if !ok {
		return nil, errorx.NewValidation([]string{"status 不合法"})
	}
	updated, err := s.repos.Conversation.SetStatus(conversationId, status, staffId)
	if err != nil {
		return nil, err
	}
	zap.L().Info("会话状态变更",
		zap.Uint("conversationId", conversationId),
		zap.String("status", req.Status),
		zap.Uint("staffId", staffId))
	return s.conversationRespond(updated, s.lookupUserName(updated.UserId), s.lookupStaffName(updated.AdminId)), nil
}

// checkConversationBurst 会话级的二次频率检查，仅作用于终端用户
// 同一用户在同一会话内，消息窗口里最近的消息达到 10 条即拒绝，
// 重试提示固定为整个消息窗口的秒数
func (s *chatService) checkConversationBurst(conversationId uint, userId uint) error {
	const burstLimit = 10

	recent, err := s.repos.Message.FindRecentBySender(conversationId, sender_type_enum.User, userId, burstLimit)
	if err != nil {
		zap.L().Warn("查询会话内最近消息失败，跳过频率检查", zap.Uint("conversationId", conversationId), zap.Error(err))
		return nil
	}
	if len(recent) < burstLimit {
		return nil
	}
	// recent 按创建时间倒序，末位是窗口检查的基准
	oldest := recent[len(recent)-1]
	if time.Since(oldest.CreatedAt) >= s.policies.Message.Window {
		return nil
	}
	return errorx.NewRateLimited(int(s.policies.Message.Window/time.Second), "该会话内发送消息过于频繁")
}

// fanOut 消息落库后投递实时事件，尽力而为
// 投递被接收后把消息从 sent 推进到 delivered
func (s *chatService) fanOut(conversation *respond.ConversationRespond, message *respond.MessageRespond, messageUuid int64) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishNewMessage(context.Background(), conversation, message); err != nil {
		zap.L().Warn("投递新消息事件失败", zap.Uint("conversationId", conversation.Id), zap.Error(err))
		return
	}
	if err := s.repos.Message.AdvanceStatus(messageUuid, message_status_enum.Delivered); err != nil {
		zap.L().Warn("推进消息状态失败", zap.Int64("uuid", messageUuid), zap.Error(err))
	}
}

// parseReplyTo 解析回复目标的雪花 ID，空串表示非回复
func parseReplyTo(raw string) (int64, error) {
	if raw == "" {
		return 0, nil
	}
	replyTo, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || replyTo <= 0 {
		return 0, errorx.NewValidation([]string{"reply_to 不是合法的消息ID"})
	}
	return replyTo, nil
}

// rateKey 限流键：标识名优先，其次客服工号，最后客户端 IP 兜底
func rateKey(identity string, staffId uint, clientIp string) string {
	if identity != "" {
		return "u:" + identity
	}
	if staffId != 0 {
		return "s:" + strconv.FormatUint(uint64(staffId), 10)
	}
	return "ip:" + clientIp
}
