package chat

import (
	"encoding/json"
	"testing"

	"support_chat_server/internal/dto/respond"
)

func newTestSession(uuid string, staff bool) *Session {
	return &Session{
		Uuid:     uuid,
		IsStaff:  staff,
		SendBack: make(chan []byte, 8),
		done:     make(chan struct{}),
	}
}

func drain(s *Session) []respond.ChatEventRespond {
	var events []respond.ChatEventRespond
	for {
		select {
		case payload := <-s.SendBack:
			var event respond.ChatEventRespond
			if err := json.Unmarshal(payload, &event); err == nil {
				events = append(events, event)
			}
		default:
			return events
		}
	}
}

func newMessageFrame(conversationId uint) *EventFrame {
	return &EventFrame{
		Event: respond.ChatEventRespond{
			Event:          respond.EventNewMessage,
			ConversationId: conversationId,
			Message:        &respond.MessageRespond{Uuid: "1", ConversationId: conversationId, Content: "hi"},
			Conversation:   &respond.ConversationRespond{Id: conversationId, Status: "open"},
		},
	}
}

func TestDispatchNewMessagePartition(t *testing.T) {
	hub := NewHub()

	subscribedUser := newTestSession("u1", false)
	subscribedUser.Subscribe(7)
	otherUser := newTestSession("u2", false)
	subscribedStaff := newTestSession("s1", true)
	subscribedStaff.Subscribe(7)
	idleStaff := newTestSession("s2", true)

	for _, s := range []*Session{subscribedUser, otherUser, subscribedStaff, idleStaff} {
		hub.Sessions.Store(s.Uuid, s)
	}

	hub.dispatch(newMessageFrame(7))

	if events := drain(subscribedUser); len(events) != 1 || events[0].Event != respond.EventNewMessage {
		t.Fatalf("订阅用户应恰好收到 1 条 new-message，实际 %v", events)
	}
	if events := drain(otherUser); len(events) != 0 {
		t.Fatalf("未订阅的普通用户不应收到事件，实际 %v", events)
	}

	staffEvents := drain(subscribedStaff)
	if len(staffEvents) != 1 || staffEvents[0].Event != respond.EventNewMessage {
		t.Fatalf("订阅客服应恰好收到 1 条 new-message，实际 %v", staffEvents)
	}
	if staffEvents[0].Message == nil {
		t.Fatal("订阅投递应携带完整消息")
	}

	idleEvents := drain(idleStaff)
	if len(idleEvents) != 1 || idleEvents[0].Event != respond.EventNewUnassignedMessage {
		t.Fatalf("未订阅客服应恰好收到 1 条 new-unassigned-message，实际 %v", idleEvents)
	}
	if idleEvents[0].Message != nil {
		t.Fatal("客服摘要事件不应携带消息正文")
	}
	if idleEvents[0].Conversation == nil {
		t.Fatal("客服摘要事件应携带会话摘要")
	}
}

func TestDispatchNewMessageToOtherConversationSubscribers(t *testing.T) {
	hub := NewHub()
	user := newTestSession("u1", false)
	user.Subscribe(3)
	hub.Sessions.Store(user.Uuid, user)

	hub.dispatch(newMessageFrame(9))

	if events := drain(user); len(events) != 0 {
		t.Fatalf("订阅了其他会话的用户不应收到事件，实际 %v", events)
	}
}

func TestDispatchTypingSkipsOrigin(t *testing.T) {
	hub := NewHub()
	origin := newTestSession("origin", false)
	origin.Subscribe(5)
	peer := newTestSession("peer", true)
	peer.Subscribe(5)
	outsider := newTestSession("outsider", true)
	for _, s := range []*Session{origin, peer, outsider} {
		hub.Sessions.Store(s.Uuid, s)
	}

	hub.dispatch(&EventFrame{
		Origin: "origin",
		Event: respond.ChatEventRespond{
			Event:          respond.EventTyping,
			ConversationId: 5,
			Sender:         &respond.SenderRespond{Type: "user", Name: "alice"},
		},
	})

	if events := drain(origin); len(events) != 0 {
		t.Fatalf("来源会话不应收到自己的输入状态，实际 %v", events)
	}
	if events := drain(peer); len(events) != 1 || events[0].Event != respond.EventTyping {
		t.Fatalf("订阅方应收到输入状态，实际 %v", events)
	}
	if events := drain(outsider); len(events) != 0 {
		t.Fatalf("输入状态不应推给未订阅的客服，实际 %v", events)
	}
}

func TestDeliverDropsWhenChannelFull(t *testing.T) {
	hub := NewHub()
	session := &Session{Uuid: "slow", SendBack: make(chan []byte, 1), done: make(chan struct{})}
	hub.deliver(session, []byte("a"))
	// 通道已满，再次投递不应阻塞
	hub.deliver(session, []byte("b"))

	if got := <-session.SendBack; string(got) != "a" {
		t.Fatalf("应保留先到的事件，实际 %q", got)
	}
	select {
	case extra := <-session.SendBack:
		t.Fatalf("溢出事件应被丢弃，实际收到 %q", extra)
	default:
	}
}
