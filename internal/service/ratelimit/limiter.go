package ratelimit

import (
	"context"
	"time"

	"go.uber.org/zap"

	"support_chat_server/internal/config"
)

// Policy 限流策略：固定窗口内最多允许 MaxEvents 次事件
type Policy struct {
	Window    time.Duration
	MaxEvents int64
}

// Decision 限流判定结果
// Allowed 为 false 时 RetryAfter 给出调用方应等待的时长（向上取整到秒）
type Decision struct {
	Allowed    bool
	RetryAfter time.Duration
}

// CounterStore 窗口计数器的存储抽象
// Incr 将 key 对应的计数加一并返回加一后的值与窗口剩余时长；
// 同一 key 的首次 Incr 开启一个新窗口
type CounterStore interface {
	Incr(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}

// Limiter 基于固定窗口的限流器
type Limiter struct {
	store CounterStore
}

func NewLimiter(store CounterStore) *Limiter {
	return &Limiter{store: store}
}

// CheckAndConsume 原子地消费一次配额并返回判定
// 计数与判定在同一次存储操作内完成，避免并发请求同时通过检查
// 存储故障时放行并记录日志，限流器的不可用不应阻断正常消息
func (l *Limiter) CheckAndConsume(ctx context.Context, key string, policy Policy) Decision {
	count, remaining, err := l.store.Incr(ctx, key, policy.Window)
	if err != nil {
		zap.L().Warn("限流计数器异常，本次放行", zap.String("key", key), zap.Error(err))
		return Decision{Allowed: true}
	}
	if count <= policy.MaxEvents {
		return Decision{Allowed: true}
	}
	return Decision{Allowed: false, RetryAfter: ceilToSecond(remaining)}
}

// ceilToSecond 向上取整到整秒，保证返回给客户端的重试提示不早于窗口结束
func ceilToSecond(d time.Duration) time.Duration {
	if d <= 0 {
		return time.Second
	}
	sec := d / time.Second
	if d%time.Second != 0 {
		sec++
	}
	return sec * time.Second
}

// Policies 聊天域的三类限流策略，从配置装配
type Policies struct {
	Message      Policy
	Conversation Policy
	Typing       Policy
}

// PoliciesFromConfig 按 chatConfig 构造策略集合
func PoliciesFromConfig(c *config.ChatConfig) Policies {
	return Policies{
		Message: Policy{
			Window:    time.Duration(c.MessageWindowSeconds) * time.Second,
			MaxEvents: int64(c.MessageMaxEvents),
		},
		Conversation: Policy{
			Window:    time.Duration(c.ConversationWindowSeconds) * time.Second,
			MaxEvents: int64(c.ConversationMaxEvents),
		},
		Typing: Policy{
			Window:    time.Duration(c.TypingWindowSeconds) * time.Second,
			MaxEvents: int64(c.TypingMaxEvents),
		},
	}
}
