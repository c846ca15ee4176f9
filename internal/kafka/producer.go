package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

const (
	EventBookingCreated        = "booking_created"
	EventCancellationRequested = "cancellation_requested"
	EventCancellationApproved  = "cancellation_approved"
	EventCancellationRejected  = "cancellation_rejected"
	EventFlightAdded           = "flight_added"
	EventFlightRemoved         = "flight_removed"
)

type BookingEvent struct {
	Type         string    `json:"type"`
	RefNo        string    `json:"ref_no,omitempty"`
	FlightID     string    `json:"flight_id"`
	SeatNumber   int       `json:"seat_number,omitempty"`
	Name         string    `json:"name,omitempty"`
	PaymentCents int64     `json:"payment_cents,omitempty"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// Key partitions events of one booking together, falling back to the flight
// for flight-level events.
func (e BookingEvent) Key() string {
	if e.RefNo != "" {
		return e.RefNo
	}
	return e.FlightID
}

type Producer struct {
	brokers []string
	writer  *kafka.Writer
}

func NewProducer(brokers []string) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 50 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
		Async:        false,
	}

	return &Producer{
		brokers: brokers,
		writer:  writer,
	}
}

func (p *Producer) Publish(ctx context.Context, topic, key string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	message := kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: data,
		Time:  time.Now(),
	}

	if err := p.writer.WriteMessages(ctx, message); err != nil {
		return fmt.Errorf("failed to write message to Kafka: %w", err)
	}
	return nil
}

func (p *Producer) Close() error {
	if p.writer != nil {
		return p.writer.Close()
	}
	return nil
}

// CheckConnection dials the first broker and reads its partition list.
func (p *Producer) CheckConnection(ctx context.Context) error {
	if len(p.brokers) == 0 {
		return fmt.Errorf("no Kafka brokers configured")
	}
	conn, err := kafka.DialContext(ctx, "tcp", p.brokers[0])
	if err != nil {
		return fmt.Errorf("failed to connect to Kafka: %w", err)
	}
	defer conn.Close()

	if _, err := conn.ReadPartitions(); err != nil {
		return fmt.Errorf("failed to read partitions: %w", err)
	}
	return nil
}
