package kafka

import (
	"context"
	"errors"
	"log"
	"tradeflow/internal/consts"

	"github.com/goccy/go-json"
	"github.com/segmentio/kafka-go"
)

// Kafka 生产者服务
// 定义接口，方便测试和替换
type ProducerService interface {
	Produce(ctx context.Context, topic string, key []byte, msg interface{}) error
	Close()
}

type kafkaProducer struct {
	openedWriter *kafka.Writer // 开仓事件
	closedWriter *kafka.Writer // 平仓事件
}

func NewKafkaProducer(brokerURL string) ProducerService {
	// 初始化 opened Writer
	openedWriter := &kafka.Writer{
		Addr:     kafka.TCP(brokerURL),
		Topic:    consts.TopicPositionOpened,
		Balancer: &kafka.LeastBytes{}, // 保证写入负载均衡
	}
	// 初始化 closed Writer
	closedWriter := &kafka.Writer{
		Addr:     kafka.TCP(brokerURL),
		Topic:    consts.TopicPositionClosed,
		Balancer: &kafka.LeastBytes{},
	}

	return &kafkaProducer{
		openedWriter: openedWriter,
		closedWriter: closedWriter,
	}
}

// 主题到Writer的路由，必须跟事件发布方用的常量一致
func (p *kafkaProducer) writerFor(topic string) *kafka.Writer {
	switch topic {
	case consts.TopicPositionOpened:
		return p.openedWriter
	case consts.TopicPositionClosed:
		return p.closedWriter
	}
	return nil
}

// Produce 通用方法：序列化JSON消息并写入 Kafka
func (p *kafkaProducer) Produce(ctx context.Context, topic string, key []byte, msg interface{}) error {
	// 1. JSON 序列化
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	// 2. 选择正确的 Writer
	writer := p.writerFor(topic)
	if writer == nil {
		return errors.New("invalid kafka topic")
	}

	// 3. 写入 Kafka
	return writer.WriteMessages(ctx, kafka.Message{
		Key:   key, // 使用 symbol 作为 Key，确保相同币种的数据进入同一个 Partition (有序性/关联性)
		Value: payload,
	})
}

func (p *kafkaProducer) Close() {
	if err := p.openedWriter.Close(); err != nil {
		log.Printf("Error closing opened writer: %v", err)
	}
	if err := p.closedWriter.Close(); err != nil {
		log.Printf("Error closing closed writer: %v", err)
	}
}

// NopProducer 本地联调/测试用的空实现
type NopProducer struct{}

func (NopProducer) Produce(ctx context.Context, topic string, key []byte, msg interface{}) error {
	return nil
}

func (NopProducer) Close() {}
