package kafka

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/Domenick1991/arsconsole/internal/logger"
	"github.com/segmentio/kafka-go"
)

type Consumer struct {
	reader *kafka.Reader
	log    *slog.Logger
}

func NewConsumer(brokers []string, groupID, topic string, log *slog.Logger) *Consumer {
	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:           brokers,
			GroupID:           groupID,
			Topic:             topic,
			HeartbeatInterval: 3 * time.Second,
			SessionTimeout:    30 * time.Second,
		}),
		log: log,
	}
}

func (c *Consumer) Close() error {
	if c == nil || c.reader == nil {
		return nil
	}
	return c.reader.Close()
}

// Consume decodes each message as a BookingEvent and passes it to handler
// until ctx is done or handler fails. Messages that do not decode are logged
// and skipped.
func (c *Consumer) Consume(ctx context.Context, handler func(context.Context, BookingEvent) error) error {
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			return err
		}

		event, err := DecodeEvent(msg.Value)
		if err != nil {
			c.log.Warn("decode event error",
				slog.Int64("offset", msg.Offset),
				logger.Err(err),
			)
			continue
		}
		if err := handler(ctx, event); err != nil {
			return err
		}
	}
}

func DecodeEvent(data []byte) (BookingEvent, error) {
	var event BookingEvent
	err := json.Unmarshal(data, &event)
	return event, err
}
