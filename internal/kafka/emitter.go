package kafka

import (
	"context"
	"log/slog"
	"time"

	"github.com/Domenick1991/arsconsole/internal/logger"
)

type Publisher interface {
	Publish(ctx context.Context, topic, key string, payload interface{}) error
}

// Emitter publishes booking events on one topic. A nil *Emitter drops every
// event, so services can run without a broker. Publish failures are logged
// and never fail the operation that produced the event.
type Emitter struct {
	publisher Publisher
	topic     string
	log       *slog.Logger
	now       func() time.Time
}

func NewEmitter(publisher Publisher, topic string, log *slog.Logger) *Emitter {
	return &Emitter{publisher: publisher, topic: topic, log: log, now: time.Now}
}

func (e *Emitter) Emit(ctx context.Context, event BookingEvent) {
	if e == nil || e.publisher == nil || e.topic == "" {
		return
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = e.now().UTC()
	}
	if err := e.publisher.Publish(ctx, e.topic, event.Key(), event); err != nil {
		e.log.Warn("failed to publish event",
			slog.String("type", event.Type),
			slog.String("key", event.Key()),
			logger.Err(err),
		)
	}
}
