package events

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Handler processes one decoded event. Errors are logged; the offset is still
// committed because every handler reloads full state on the next event.
type Handler func(ctx context.Context, e OrderEvent) error

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

type Consumer struct {
	reader  messageReader
	handler Handler
	log     *zap.Logger
}

func NewConsumer(handler Handler, log *zap.Logger, topic, groupID string, brokers ...string) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MaxBytes: 10e6, // 10MB
	})
	return &Consumer{reader: reader, handler: handler, log: log}
}

func (c *Consumer) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		c.processMessage(ctx)
	}
}

func (c *Consumer) Close() {
	if err := c.reader.Close(); err != nil {
		c.log.Warn("error closing kafka reader", zap.Error(err))
	}
}

func (c *Consumer) processMessage(ctx context.Context) {
	m, err := c.reader.ReadMessage(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) || ctx.Err() != nil {
			return
		}
		c.log.Error("error reading message", zap.Error(err))
		return
	}

	var event OrderEvent
	if err := json.Unmarshal(m.Value, &event); err != nil {
		c.log.Warn("skipping malformed order event",
			zap.Int64("offset", m.Offset),
			zap.Error(err))
		return
	}
	if event.Type == "" {
		event.Type = EventType(header(m, eventTypeHeader))
	}

	if err := c.handler(ctx, event); err != nil {
		c.log.Error("order event handler failed",
			zap.String("order_id", event.OrderID),
			zap.String("type", string(event.Type)),
			zap.Error(err))
	}
}

func header(m kafka.Message, key string) string {
	for _, h := range m.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}
