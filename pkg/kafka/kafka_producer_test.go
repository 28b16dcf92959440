package kafka

import (
	"context"
	"testing"
	"tradeflow/internal/consts"
)

// 主题常量和Writer路由一一对应，发布方和生产者不会漂移
func TestProducerTopicRouting(t *testing.T) {
	p := NewKafkaProducer("localhost:9092").(*kafkaProducer)
	defer p.Close()

	w := p.writerFor(consts.TopicPositionOpened)
	if w != p.openedWriter || w.Topic != consts.TopicPositionOpened {
		t.Error("opened topic must route to the opened writer")
	}
	w = p.writerFor(consts.TopicPositionClosed)
	if w != p.closedWriter || w.Topic != consts.TopicPositionClosed {
		t.Error("closed topic must route to the closed writer")
	}
	if w := p.writerFor("unknown_topic"); w != nil {
		t.Error("unknown topic must not route to any writer")
	}
}

func TestProduceRejectsUnknownTopic(t *testing.T) {
	p := NewKafkaProducer("localhost:9092")
	defer p.Close()

	if err := p.Produce(context.Background(), "unknown_topic", nil, struct{}{}); err == nil {
		t.Error("unknown topic must be rejected before any write")
	}
}
