// Package chat 实现实时投递层
// kafka_broker.go
// 核心职责：多实例模式下的事件传输实现
// 1. 封装 Kafka 底层连接 (Writer/Reader)
// 2. 发布端把事件写入主题，各实例的消费端各自读取并交给本机 Hub
// 3. 消费组 ID 按实例随机，确保每个实例都能收到全量事件
package chat

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	myconfig "support_chat_server/internal/config"
	"support_chat_server/pkg/errorx"
)

// KafkaClient Kafka 客户端结构
type KafkaClient struct {
	Producer *kafka.Writer // 生产者：负责写入事件
	Consumer *kafka.Reader // 消费者：负责读取事件
}

func NewKafkaClient() *KafkaClient {
	return &KafkaClient{}
}

// KafkaInit 初始化 Kafka 客户端
func (k *KafkaClient) KafkaInit() {
	kafkaConfig := myconfig.GetConfig().KafkaConfig
	k.Producer = &kafka.Writer{
		Addr:                   kafka.TCP(kafkaConfig.HostPort),
		Topic:                  kafkaConfig.ChatTopic,
		Balancer:               &kafka.Hash{},
		WriteTimeout:           10 * time.Second,
		RequiredAcks:           kafka.RequireNone,
		AllowAutoTopicCreation: false,
	}
	// 每个实例独立消费组：投递事件要广播到所有实例，再由各自的 Hub 过滤
	k.Consumer = kafka.NewReader(kafka.ReaderConfig{
		Brokers:        []string{kafkaConfig.HostPort},
		Topic:          kafkaConfig.ChatTopic,
		CommitInterval: time.Second,
		GroupID:        "support_chat_" + uuid.NewString(),
		StartOffset:    kafka.LastOffset,
	})
}

func (k *KafkaClient) KafkaClose() {
	if k.Producer != nil {
		if err := k.Producer.Close(); err != nil {
			zap.L().Error(err.Error())
		}
	}
	if k.Consumer != nil {
		if err := k.Consumer.Close(); err != nil {
			zap.L().Error(err.Error())
		}
	}
}

// KafkaBroker 基于 Kafka 的 MessageBroker 实现
type KafkaBroker struct {
	hub    *Hub
	client *KafkaClient
}

func NewKafkaBroker(hub *Hub, client *KafkaClient) *KafkaBroker {
	return &KafkaBroker{hub: hub, client: client}
}

// Publish 实现 MessageBroker 接口：发布事件到 Kafka
// 以会话 ID 作为分区键，同一会话的事件保持有序
func (b *KafkaBroker) Publish(ctx context.Context, frame *EventFrame) error {
	data, err := json.Marshal(frame)
	if err != nil {
		return errorx.Wrap(err, errorx.CodeServerBusy, "事件序列化失败")
	}
	key := []byte(strconv.FormatUint(uint64(frame.Event.ConversationId), 10))
	if err := b.client.Producer.WriteMessages(ctx, kafka.Message{Key: key, Value: data}); err != nil {
		return errorx.Wrap(err, errorx.CodeServerBusy, "事件写入Kafka失败")
	}
	return nil
}

// Start 实现 MessageBroker 接口：消费 Kafka 并交给 Hub 分发
func (b *KafkaBroker) Start() {
	defer func() {
		if r := recover(); r != nil {
			zap.L().Error("kafka消费协程异常退出", zap.Any("panic", r))
		}
	}()
	ctx := context.Background()
	for {
		kafkaMessage, err := b.client.Consumer.ReadMessage(ctx)
		if err != nil {
			zap.L().Error(err.Error())
			return
		}
		var frame EventFrame
		if err := json.Unmarshal(kafkaMessage.Value, &frame); err != nil {
			zap.L().Error("事件反序列化失败", zap.Error(err))
			continue
		}
		b.hub.Dispatch <- &frame
	}
}

// Close 实现 MessageBroker 接口：关闭 Kafka 资源
func (b *KafkaBroker) Close() {
	b.client.KafkaClose()
}
