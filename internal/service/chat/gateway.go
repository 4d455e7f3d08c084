// Package chat 实现实时投递层
// gateway.go
// 核心职责：WebSocket 连接生命周期管理
// 1. 建立 WebSocket 连接 (Upgrade)，终端用户与客服走不同入口
// 2. 封装 Session 对象，管理读写协程 (Read/Write Loop)
// 3. 处理订阅控制帧与输入状态信号
package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"support_chat_server/internal/dao/mysql/repository"
	"support_chat_server/internal/dto/request"
	"support_chat_server/internal/dto/respond"
	"support_chat_server/internal/infrastructure/middleware"
	"support_chat_server/internal/model"
	"support_chat_server/internal/service/ratelimit"
	"support_chat_server/internal/service/validate"
	"support_chat_server/pkg/constants"
	"support_chat_server/pkg/enum/message/sender_type_enum"
)

// IdentityProvider 终端用户身份解析接口
// 未见过的标识名在连接时自动开通占位账号
type IdentityProvider interface {
	EnsureChatIdentity(name string) (*model.ChatUser, error)
}

// 允许任何来源的连接，跨域控制由部署层处理
var upgrader = websocket.Upgrader{
	ReadBufferSize:  2048,
	WriteBufferSize: 2048,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Gateway WebSocket 接入网关
type Gateway struct {
	server       *ChatServer
	identities   IdentityProvider
	convRepo     repository.ConversationRepository
	staffRepo    repository.StaffRepository
	limiter      *ratelimit.Limiter
	typingPolicy ratelimit.Policy
}

func NewGateway(
	server *ChatServer,
	identities IdentityProvider,
	convRepo repository.ConversationRepository,
	staffRepo repository.StaffRepository,
	limiter *ratelimit.Limiter,
	typingPolicy ratelimit.Policy,
) *Gateway {
	return &Gateway{
		server:       server,
		identities:   identities,
		convRepo:     convRepo,
		staffRepo:    staffRepo,
		limiter:      limiter,
		typingPolicy: typingPolicy,
	}
}

// HandleUser 终端用户接入，identity 由查询参数携带
func (g *Gateway) HandleUser(c *gin.Context) {
	name, ok := validate.IdentityName(c.Query("identity"))
	if !ok {
		c.Status(http.StatusBadRequest)
		return
	}
	chatUser, err := g.identities.EnsureChatIdentity(name)
	if err != nil {
		zap.L().Error("解析用户身份失败", zap.String("identity", name), zap.Error(err))
		c.Status(http.StatusInternalServerError)
		return
	}
	g.attach(c, &Session{
		Uuid:     uuid.NewString(),
		UserId:   chatUser.ID,
		Identity: chatUser.Name,
	})
}

// HandleStaff 客服接入，身份取自 JWT 中间件写入的上下文
func (g *Gateway) HandleStaff(c *gin.Context) {
	staffId := middleware.GetStaffId(c)
	staff, err := g.staffRepo.FindById(staffId)
	if err != nil {
		zap.L().Error("解析客服身份失败", zap.Uint("staffId", staffId), zap.Error(err))
		c.Status(http.StatusInternalServerError)
		return
	}
	g.attach(c, &Session{
		Uuid:     uuid.NewString(),
		IsStaff:  true,
		StaffId:  staff.ID,
		Identity: staff.Nickname,
	})
}

// attach 完成握手并启动读写协程
func (g *Gateway) attach(c *gin.Context, session *Session) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		zap.L().Error(err.Error())
		return
	}
	session.Conn = conn
	session.SendBack = make(chan []byte, constants.CHANNEL_SIZE)
	session.done = make(chan struct{})

	g.server.Hub.Login <- session
	go g.read(session)
	go g.write(session)
	zap.L().Info("ws连接成功", zap.String("session", session.Uuid), zap.Bool("staff", session.IsStaff))
}

// read 读取控制帧并处理订阅与输入状态
func (g *Gateway) read(session *Session) {
	defer func() {
		g.server.Hub.Logout <- session
		session.Close()
		_ = session.Conn.Close()
	}()
	for {
		_, jsonMessage, err := session.Conn.ReadMessage()
		if err != nil {
			zap.L().Info("ws读取结束", zap.String("session", session.Uuid), zap.Error(err))
			return
		}
		var event request.WsEventRequest
		if err := json.Unmarshal(jsonMessage, &event); err != nil {
			zap.L().Warn("非法的控制帧", zap.String("session", session.Uuid), zap.Error(err))
			continue
		}
		switch event.Event {
		case "subscribe":
			g.handleSubscribe(session, event.ConversationId)
		case "unsubscribe":
			session.Unsubscribe(event.ConversationId)
		case "typing":
			g.handleTyping(session, event.ConversationId)
		default:
			zap.L().Warn("未知的控制帧", zap.String("event", event.Event))
		}
	}
}

// write 从回写通道取事件发送给前端
func (g *Gateway) write(session *Session) {
	for {
		select {
		case <-session.Done():
			return
		case payload := <-session.SendBack:
			if err := session.Conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				zap.L().Info("ws写入结束", zap.String("session", session.Uuid), zap.Error(err))
				session.Close()
				return
			}
		}
	}
}

// handleSubscribe 订阅前做归属校验
// 终端用户只能订阅自己的会话，客服可以订阅任意存在的会话
func (g *Gateway) handleSubscribe(session *Session, conversationId uint) {
	conversation, err := g.convRepo.FindById(conversationId)
	if err != nil {
		zap.L().Warn("订阅目标会话不存在", zap.Uint("conversationId", conversationId), zap.Error(err))
		return
	}
	if !session.IsStaff && conversation.UserId != session.UserId {
		zap.L().Warn("订阅被拒绝，会话不属于该用户",
			zap.String("identity", session.Identity), zap.Uint("conversationId", conversationId))
		return
	}
	session.Subscribe(conversationId)
}

// handleTyping 输入状态信号，超出频率直接静默丢弃
func (g *Gateway) handleTyping(session *Session, conversationId uint) {
	if !session.IsSubscribed(conversationId) {
		return
	}
	decision := g.limiter.CheckAndConsume(context.Background(), "typing:"+typingKey(session), g.typingPolicy)
	if !decision.Allowed {
		return
	}
	sender := &respond.SenderRespond{
		Type: sender_type_enum.Label(sender_type_enum.User),
		Id:   session.UserId,
		Name: session.Identity,
	}
	if session.IsStaff {
		sender.Type = sender_type_enum.Label(sender_type_enum.Admin)
		sender.Id = session.StaffId
	}
	g.server.PublishTyping(context.Background(), session.Uuid, conversationId, sender)
}

// typingKey 限流键：用户按标识名，客服按工号
func typingKey(session *Session) string {
	if session.IsStaff {
		return "s:" + strconv.FormatUint(uint64(session.StaffId), 10)
	}
	return "u:" + session.Identity
}
