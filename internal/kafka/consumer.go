package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

// Consumer drains the notifications topic and hands decoded events to a
// handler. Malformed payloads are logged and skipped so one bad message
// cannot wedge the consumer group.
type Consumer struct {
	reader *kafka.Reader
	logger *logrus.Logger
}

func NewConsumer(brokers []string, groupID, topic string, logger *logrus.Logger) *Consumer {
	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:           brokers,
			GroupID:           groupID,
			Topic:             topic,
			HeartbeatInterval: 3 * time.Second,
			SessionTimeout:    30 * time.Second,
		}),
		logger: logger,
	}
}

func (c *Consumer) Close() error {
	if c == nil || c.reader == nil {
		return nil
	}
	return c.reader.Close()
}

func (c *Consumer) Consume(ctx context.Context, handler func(context.Context, NotificationEvent) error) error {
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			return err
		}

		event, ok := c.decode(msg)
		if !ok {
			continue
		}
		if err := handler(ctx, event); err != nil {
			return err
		}
	}
}

func (c *Consumer) decode(msg kafka.Message) (NotificationEvent, bool) {
	var event NotificationEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		c.logger.WithError(err).WithFields(logrus.Fields{"partition": msg.Partition, "offset": msg.Offset}).
			Warn("failed to decode notification event")
		return NotificationEvent{}, false
	}
	if event.Type == "" {
		c.logger.WithFields(logrus.Fields{"partition": msg.Partition, "offset": msg.Offset}).
			Warn("notification event has no type")
		return NotificationEvent{}, false
	}
	return event, true
}
