package flights

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Domenick1991/arsconsole/internal/domain"
	"github.com/Domenick1991/arsconsole/internal/kafka"
	"github.com/Domenick1991/arsconsole/internal/lock"
	"github.com/Domenick1991/arsconsole/internal/logger"
	"github.com/Domenick1991/arsconsole/internal/repository"
	"github.com/Domenick1991/arsconsole/internal/validation"
)

type FlightUseCase interface {
	List(ctx context.Context) ([]domain.Flight, error)
	GetByID(ctx context.Context, id string) (*domain.Flight, error)
	Add(ctx context.Context, input domain.NewFlightInput) (*domain.Flight, error)
	Remove(ctx context.Context, id string) error
}

// SeatMaps creates and drops the seat file that belongs to each flight.
type SeatMaps interface {
	Init(ctx context.Context, flightID string) error
	Drop(ctx context.Context, flightID string) error
}

// BookingGuard runs fn only while no booking references flightID, and keeps
// new bookings from being recorded until fn returns.
type BookingGuard interface {
	WithoutBookings(ctx context.Context, flightID string, fn func() error) error
}

// FlightService is the flight catalog. The in-memory list mirrors
// flights.csv line for line; new flights go to the front.
type FlightService struct {
	mu       sync.Mutex
	flights  []domain.Flight
	repo     repository.RecordRepository[domain.Flight]
	locker   lock.Locker
	lockName string
	seats    SeatMaps
	bookings BookingGuard
	validate *validation.Validator
	events   *kafka.Emitter
	log      *slog.Logger
}

type FlightServiceOption func(*FlightService)

func WithEvents(events *kafka.Emitter) FlightServiceOption {
	return func(s *FlightService) {
		s.events = events
	}
}

// WithFileLock makes every operation take the named lock and re-read
// flights.csv first, so processes sharing the data directory see the same
// catalog.
func WithFileLock(locker lock.Locker, name string) FlightServiceOption {
	return func(s *FlightService) {
		s.locker = locker
		s.lockName = name
	}
}

func NewFlightService(
	repo repository.RecordRepository[domain.Flight],
	seats SeatMaps,
	validate *validation.Validator,
	log *slog.Logger,
	opts ...FlightServiceOption,
) *FlightService {
	service := &FlightService{
		repo:     repo,
		seats:    seats,
		validate: validate,
		log:      log,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// AttachBookings sets the ledger consulted before a flight is removed. The
// ledger itself needs the catalog, so it is attached after both exist.
func (s *FlightService) AttachBookings(bookings BookingGuard) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bookings = bookings
}

// Load replaces the in-memory catalog with the contents of the flights file.
func (s *FlightService) Load(ctx context.Context) error {
	flights, err := s.repo.Load()
	if err != nil {
		return fmt.Errorf("load flights: %w", err)
	}
	for _, f := range flights {
		s.log.Debug("loaded flight",
			slog.String("flight_id", f.ID),
			slog.String("source", f.Source),
			slog.String("destination", f.Destination),
			slog.String("price", domain.FormatCents(f.PriceCents)),
		)
	}

	s.mu.Lock()
	s.flights = flights
	s.mu.Unlock()

	s.log.Info("flights loaded", slog.Int("count", len(flights)))
	return nil
}

func (s *FlightService) List(ctx context.Context) ([]domain.Flight, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.view(ctx)()

	out := make([]domain.Flight, len(s.flights))
	copy(out, s.flights)
	return out, nil
}

func (s *FlightService) GetByID(ctx context.Context, id string) (*domain.Flight, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.view(ctx)()

	i := s.indexOf(id)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrFlightNotFound, id)
	}
	f := s.flights[i]
	return &f, nil
}

// Add registers a flight together with a fresh seat map of 200 available
// seats.
func (s *FlightService) Add(ctx context.Context, input domain.NewFlightInput) (*domain.Flight, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, err
	}
	flight := input.Flight()

	s.mu.Lock()
	defer s.mu.Unlock()

	unlock, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if s.indexOf(flight.ID) >= 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrFlightExists, flight.ID)
	}
	if err := s.seats.Init(ctx, flight.ID); err != nil {
		return nil, fmt.Errorf("create seat map for %s: %w", flight.ID, err)
	}

	updated := append([]domain.Flight{flight}, s.flights...)
	if err := s.repo.RewriteAll(updated); err != nil {
		if dropErr := s.seats.Drop(ctx, flight.ID); dropErr != nil {
			s.log.Error("failed to drop seat map of unsaved flight",
				slog.String("flight_id", flight.ID),
				logger.Err(dropErr),
			)
		}
		return nil, fmt.Errorf("save flights: %w", err)
	}
	s.flights = updated

	s.log.Info("flight added", slog.String("flight_id", flight.ID), slog.Int("seats", domain.SeatCapacity))
	s.events.Emit(ctx, kafka.BookingEvent{Type: kafka.EventFlightAdded, FlightID: flight.ID, PaymentCents: flight.PriceCents})
	return &flight, nil
}

// Remove deletes a flight and its seat map. A flight that still has
// bookings cannot be removed.
func (s *FlightService) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	unlock, err := s.acquire(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	i := s.indexOf(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", domain.ErrFlightNotFound, id)
	}

	remove := func() error {
		updated := make([]domain.Flight, 0, len(s.flights)-1)
		updated = append(updated, s.flights[:i]...)
		updated = append(updated, s.flights[i+1:]...)
		if err := s.repo.RewriteAll(updated); err != nil {
			return fmt.Errorf("save flights: %w", err)
		}
		s.flights = updated

		if err := s.seats.Drop(ctx, id); err != nil {
			s.log.Warn("flight removed but seat map was not deleted",
				slog.String("flight_id", id),
				logger.Err(err),
			)
		}
		return nil
	}
	if s.bookings != nil {
		err = s.bookings.WithoutBookings(ctx, id, remove)
	} else {
		err = remove()
	}
	if err != nil {
		return err
	}

	s.log.Info("flight removed", slog.String("flight_id", id))
	s.events.Emit(ctx, kafka.BookingEvent{Type: kafka.EventFlightRemoved, FlightID: id})
	return nil
}

// acquire takes the file lock, when there is one, and reloads the catalog
// from flights.csv. s.mu must be held.
func (s *FlightService) acquire(ctx context.Context) (func(), error) {
	if s.locker == nil {
		return func() {}, nil
	}
	unlock, err := s.locker.Lock(ctx, s.lockName)
	if err != nil {
		return nil, fmt.Errorf("lock flights: %w", err)
	}
	flights, err := s.repo.Load()
	if err != nil {
		unlock()
		return nil, fmt.Errorf("reload flights: %w", err)
	}
	s.flights = flights
	return unlock, nil
}

func (s *FlightService) view(ctx context.Context) func() {
	unlock, err := s.acquire(ctx)
	if err != nil {
		s.log.Warn("serving flights from memory", logger.Err(err))
		return func() {}
	}
	return unlock
}

func (s *FlightService) indexOf(id string) int {
	for i := range s.flights {
		if s.flights[i].ID == id {
			return i
		}
	}
	return -1
}

var _ FlightUseCase = (*FlightService)(nil)
