package notify

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/Domenick1991/arsconsole/internal/domain"
	"github.com/Domenick1991/arsconsole/internal/kafka"
)

// Sender turns booking events into passenger notices. Flight-level events
// have no passenger and are only logged.
type Sender struct {
	mu  sync.Mutex
	out io.Writer
	log *slog.Logger
}

func NewSender(out io.Writer, log *slog.Logger) *Sender {
	return &Sender{out: out, log: log}
}

func (s *Sender) Send(ctx context.Context, event kafka.BookingEvent) error {
	text, ok := Render(event)
	if !ok {
		s.log.Debug("no notice for event", slog.String("type", event.Type), slog.String("flight_id", event.FlightID))
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := fmt.Fprintln(s.out, text); err != nil {
		return fmt.Errorf("write notice for %s: %w", event.RefNo, err)
	}
	s.log.Info("notice sent", slog.String("type", event.Type), slog.String("ref_no", event.RefNo))
	return nil
}

// Render returns the notice text for event and false for events that are
// not addressed to a passenger.
func Render(event kafka.BookingEvent) (string, bool) {
	switch event.Type {
	case kafka.EventBookingCreated:
		return fmt.Sprintf("Dear %s, booking %s on flight %s is confirmed: seat %d, paid %s.",
			event.Name, event.RefNo, event.FlightID, event.SeatNumber, domain.FormatCents(event.PaymentCents)), true
	case kafka.EventCancellationRequested:
		return fmt.Sprintf("Dear %s, we received your request to cancel booking %s on flight %s.",
			event.Name, event.RefNo, event.FlightID), true
	case kafka.EventCancellationApproved:
		return fmt.Sprintf("Dear %s, booking %s on flight %s was cancelled. %s will be refunded.",
			event.Name, event.RefNo, event.FlightID, domain.FormatCents(event.PaymentCents)), true
	case kafka.EventCancellationRejected:
		return fmt.Sprintf("Dear %s, your cancellation request for booking %s was declined. The booking stays valid.",
			event.Name, event.RefNo), true
	default:
		return "", false
	}
}
