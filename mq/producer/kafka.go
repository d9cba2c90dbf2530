package producer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Xushengqwer/go-common/core"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/Xushengqwer/thread_service/config"
	"github.com/Xushengqwer/thread_service/models/event"
)

// PostEventProducer 定义了服务层依赖的帖子事件发送接口。
// - 抽象出接口便于在单元测试中替换为假实现。
type PostEventProducer interface {
	// SendPostPendingAuditEvent 发送帖子待审核事件。
	// - 在帖子创建或编辑成功后调用，将帖子快照发往外部审核服务。
	SendPostPendingAuditEvent(ctx context.Context, postData event.PostData) error

	// SendPostDeleteEvent 发送帖子删除（墓碑化）事件，供下游清理派生数据。
	SendPostDeleteEvent(ctx context.Context, postID uint64, authorID string) error
}

// KafkaProducer Kafka 消息生产者
type KafkaProducer struct {
	writer *kafka.Writer
	logger *core.ZapLogger
	topics config.Topics
}

// NewKafkaProducer 创建一个新的 Kafka 生产者实例
func NewKafkaProducer(config config.KafkaConfig, logger *core.ZapLogger) *KafkaProducer {
	writer := &kafka.Writer{
		Addr:     kafka.TCP(config.Brokers...),
		Balancer: &kafka.LeastBytes{},
	}
	return &KafkaProducer{
		writer: writer,
		logger: logger,
		topics: config.Topics,
	}
}

// SendEvent 发送事件到指定 Kafka 主题
func (p *KafkaProducer) SendEvent(ctx context.Context, topic string, evt interface{}) error {
	eventBytes, err := json.Marshal(evt)
	if err != nil {
		p.logger.Error("Failed to marshal event", zap.Error(err), zap.String("topic", topic))
		return err
	}

	p.logger.Debug("Sending Kafka message",
		zap.String("topic", topic),
		zap.ByteString("payload", eventBytes))

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Value: eventBytes,
	})

	if err != nil {
		p.logger.Error("Failed to write Kafka message", zap.Error(err), zap.String("topic", topic))
	} else {
		p.logger.Info("Successfully sent Kafka message", zap.String("topic", topic))
	}
	return err
}

// SendPostPendingAuditEvent 发送帖子待审核事件到 Kafka
// - 意图: 将新创建或编辑后的帖子发送到 Kafka 供审核服务消费
func (p *KafkaProducer) SendPostPendingAuditEvent(ctx context.Context, postData event.PostData) error {
	evt := event.PostPendingAuditEvent{
		EventID:   uuid.New().String(),
		Timestamp: time.Now().UnixMilli(),
		Post:      postData,
	}

	return p.SendEvent(ctx, p.topics.PostPendingAudit, evt)
}

// SendPostDeleteEvent 发送帖子删除事件到 Kafka
// - 意图: 帖子墓碑化后广播给下游（搜索索引、推荐等）清理派生数据
func (p *KafkaProducer) SendPostDeleteEvent(ctx context.Context, postID uint64, authorID string) error {
	evt := event.PostDeletedEvent{
		EventID:   uuid.New().String(),
		Timestamp: time.Now().UnixMilli(),
		PostID:    postID,
		AuthorID:  authorID,
	}

	return p.SendEvent(ctx, p.topics.PostDeleted, evt)
}

// Close 关闭底层 Kafka Writer。
func (p *KafkaProducer) Close() error {
	return p.writer.Close()
}
