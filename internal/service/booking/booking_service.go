package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/Domenick1991/arsconsole/internal/domain"
	"github.com/Domenick1991/arsconsole/internal/kafka"
	"github.com/Domenick1991/arsconsole/internal/lock"
	"github.com/Domenick1991/arsconsole/internal/logger"
	"github.com/Domenick1991/arsconsole/internal/repository"
	"github.com/Domenick1991/arsconsole/internal/validation"
	"github.com/google/uuid"
)

const maxRefAttempts = 16

type BookingUseCase interface {
	CreateBooking(ctx context.Context, input domain.NewBookingInput, confirm PaymentConfirmer) (*domain.Booking, error)
	GetByRef(ctx context.Context, refNo string) (*domain.Booking, error)
	List(ctx context.Context) ([]domain.Booking, error)
	FlagCancellation(ctx context.Context, refNo string) (*domain.Booking, error)
	ClearCancellationFlag(ctx context.Context, refNo string) (*domain.Booking, error)
	RemoveByRef(ctx context.Context, refNo string) (*domain.Booking, error)
	TotalPayments(ctx context.Context) int64
	CountByFlight(ctx context.Context, flightID string) int
}

// PaymentConfirmer asks the passenger to pay amountCents and reports whether
// the payment was confirmed.
type PaymentConfirmer func(ctx context.Context, amountCents int64) (bool, error)

// AutoConfirm accepts every payment.
func AutoConfirm(context.Context, int64) (bool, error) { return true, nil }

type FlightFinder interface {
	GetByID(ctx context.Context, id string) (*domain.Flight, error)
}

type SeatReserver interface {
	IsAvailable(ctx context.Context, flightID string, seatNumber int) (bool, error)
	Reserve(ctx context.Context, flightID string, seatNumber int) error
	Release(ctx context.Context, flightID string, seatNumber int) error
}

// BookingService is the booking ledger. Bookings are kept newest first in
// memory while details.csv stays in booking order, oldest first.
//
// The ledger never calls into the catalog or the queue while it holds its
// lock; they call into it.
type BookingService struct {
	mu       sync.Mutex
	bookings []domain.Booking
	repo     repository.RecordRepository[domain.Booking]
	locker   lock.Locker
	lockName string
	flights  FlightFinder
	seats    SeatReserver
	validate *validation.Validator
	events   *kafka.Emitter
	newRef   func() string
	log      *slog.Logger
}

type BookingServiceOption func(*BookingService)

func WithEvents(events *kafka.Emitter) BookingServiceOption {
	return func(s *BookingService) {
		s.events = events
	}
}

// WithFileLock makes every operation take the named lock and re-read
// details.csv first, so processes sharing the data directory work on the
// same ledger. Without it the ledger in memory is authoritative.
func WithFileLock(locker lock.Locker, name string) BookingServiceOption {
	return func(s *BookingService) {
		s.locker = locker
		s.lockName = name
	}
}

// WithRefGenerator replaces the reference number source. Collisions with
// existing bookings are retried.
func WithRefGenerator(gen func() string) BookingServiceOption {
	return func(s *BookingService) {
		s.newRef = gen
	}
}

func NewBookingService(
	repo repository.RecordRepository[domain.Booking],
	flights FlightFinder,
	seats SeatReserver,
	validate *validation.Validator,
	log *slog.Logger,
	opts ...BookingServiceOption,
) *BookingService {
	service := &BookingService{
		repo:     repo,
		flights:  flights,
		seats:    seats,
		validate: validate,
		newRef:   NewRefNo,
		log:      log,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// NewRefNo returns "R" followed by eight upper-case hex digits.
func NewRefNo() string {
	id := uuid.New()
	return "R" + strings.ToUpper(strings.ReplaceAll(id.String(), "-", "")[:8])
}

func (s *BookingService) Load(ctx context.Context) error {
	bookings, err := s.repo.Load()
	if err != nil {
		return fmt.Errorf("load bookings: %w", err)
	}
	reverse(bookings)

	s.mu.Lock()
	s.bookings = bookings
	s.mu.Unlock()

	s.log.Info("bookings loaded", slog.Int("count", len(bookings)))
	return nil
}

// CreateBooking reserves the seat, asks for payment and records the booking.
// A declined payment releases the seat again.
func (s *BookingService) CreateBooking(ctx context.Context, input domain.NewBookingInput, confirm PaymentConfirmer) (*domain.Booking, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, err
	}

	flight, err := s.flights.GetByID(ctx, input.FlightID)
	if err != nil {
		return nil, err
	}
	if err := s.seats.Reserve(ctx, flight.ID, input.SeatNumber); err != nil {
		return nil, err
	}

	paid, err := confirm(ctx, flight.PriceCents)
	if err == nil && !paid {
		err = domain.ErrPaymentDeclined
	}
	if err != nil {
		s.releaseSeat(ctx, flight.ID, input.SeatNumber)
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	unlock, err := s.acquire(ctx)
	if err != nil {
		s.releaseSeat(ctx, flight.ID, input.SeatNumber)
		return nil, err
	}
	defer unlock()

	// The flight may have been removed, seat file and all, while the payment
	// was being confirmed. Removal runs under the ledger lock, so the check
	// holds until the booking is appended.
	if _, err := s.seats.IsAvailable(ctx, flight.ID, input.SeatNumber); err != nil {
		if errors.Is(err, domain.ErrSeatFileMissing) {
			return nil, fmt.Errorf("%w: %s", domain.ErrFlightNotFound, flight.ID)
		}
		return nil, err
	}

	ref, err := s.uniqueRef()
	if err != nil {
		return nil, err
	}
	booking := domain.Booking{
		RefNo:        ref,
		Name:         input.Name,
		FlightID:     flight.ID,
		Date:         flight.Date,
		SeatNumber:   input.SeatNumber,
		PaymentCents: flight.PriceCents,
	}

	if err := s.repo.Append(booking); err != nil {
		// The seat stays booked without a booking; an operator has to free it.
		s.log.Error("seat reserved but booking not saved",
			slog.String("flight_id", flight.ID),
			slog.Int("seat", input.SeatNumber),
			logger.Err(err),
		)
		return nil, fmt.Errorf("save booking: %w", err)
	}
	s.bookings = append([]domain.Booking{booking}, s.bookings...)

	s.log.Info("booking created",
		slog.String("ref_no", booking.RefNo),
		slog.String("flight_id", booking.FlightID),
		slog.Int("seat", booking.SeatNumber),
	)
	s.events.Emit(ctx, bookingEvent(kafka.EventBookingCreated, booking))
	return &booking, nil
}

func (s *BookingService) GetByRef(ctx context.Context, refNo string) (*domain.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.view(ctx)()

	i := s.indexOf(refNo)
	if i < 0 {
		return nil, notFound(refNo)
	}
	b := s.bookings[i]
	return &b, nil
}

func (s *BookingService) List(ctx context.Context) ([]domain.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.view(ctx)()

	out := make([]domain.Booking, len(s.bookings))
	copy(out, s.bookings)
	return out, nil
}

func (s *BookingService) FlagCancellation(ctx context.Context, refNo string) (*domain.Booking, error) {
	return s.setCancelFlag(ctx, refNo, true)
}

func (s *BookingService) ClearCancellationFlag(ctx context.Context, refNo string) (*domain.Booking, error) {
	return s.setCancelFlag(ctx, refNo, false)
}

func (s *BookingService) setCancelFlag(ctx context.Context, refNo string, flag bool) (*domain.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	unlock, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	i := s.indexOf(refNo)
	if i < 0 {
		return nil, notFound(refNo)
	}

	updated := make([]domain.Booking, len(s.bookings))
	copy(updated, s.bookings)
	updated[i].CancelRequested = flag
	if err := s.persist(updated); err != nil {
		return nil, err
	}
	s.bookings = updated

	b := updated[i]
	return &b, nil
}

// RemoveByRef deletes a booking from the ledger and rewrites details.csv.
func (s *BookingService) RemoveByRef(ctx context.Context, refNo string) (*domain.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	unlock, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	i := s.indexOf(refNo)
	if i < 0 {
		return nil, notFound(refNo)
	}
	removed := s.bookings[i]

	updated := make([]domain.Booking, 0, len(s.bookings)-1)
	updated = append(updated, s.bookings[:i]...)
	updated = append(updated, s.bookings[i+1:]...)
	if err := s.persist(updated); err != nil {
		return nil, err
	}
	s.bookings = updated

	s.log.Info("booking removed", slog.String("ref_no", refNo))
	return &removed, nil
}

func (s *BookingService) TotalPayments(ctx context.Context) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.view(ctx)()

	var total int64
	for _, b := range s.bookings {
		total += b.PaymentCents
	}
	return total
}

func (s *BookingService) CountByFlight(ctx context.Context, flightID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.view(ctx)()

	return s.countByFlight(flightID)
}

// WithoutBookings runs fn while no booking can be recorded, provided no
// booking references flightID. Otherwise it fails with ErrFlightHasBookings
// and fn is not run.
func (s *BookingService) WithoutBookings(ctx context.Context, flightID string, fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	unlock, err := s.acquire(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	if n := s.countByFlight(flightID); n > 0 {
		return fmt.Errorf("%w: %s has %d", domain.ErrFlightHasBookings, flightID, n)
	}
	return fn()
}

func (s *BookingService) countByFlight(flightID string) int {
	n := 0
	for _, b := range s.bookings {
		if b.FlightID == flightID {
			n++
		}
	}
	return n
}

// acquire takes the file lock, when there is one, and reloads the ledger
// from details.csv. s.mu must be held.
func (s *BookingService) acquire(ctx context.Context) (func(), error) {
	if s.locker == nil {
		return func() {}, nil
	}
	unlock, err := s.locker.Lock(ctx, s.lockName)
	if err != nil {
		return nil, fmt.Errorf("lock bookings: %w", err)
	}
	bookings, err := s.repo.Load()
	if err != nil {
		unlock()
		return nil, fmt.Errorf("reload bookings: %w", err)
	}
	reverse(bookings)
	s.bookings = bookings
	return unlock, nil
}

// view is acquire for reads. When the file cannot be re-read the ledger
// already in memory is served.
func (s *BookingService) view(ctx context.Context) func() {
	unlock, err := s.acquire(ctx)
	if err != nil {
		s.log.Warn("serving bookings from memory", logger.Err(err))
		return func() {}
	}
	return unlock
}

func (s *BookingService) releaseSeat(ctx context.Context, flightID string, seatNumber int) {
	if err := s.seats.Release(ctx, flightID, seatNumber); err != nil {
		s.log.Error("failed to release seat of unrecorded booking",
			slog.String("flight_id", flightID),
			slog.Int("seat", seatNumber),
			logger.Err(err),
		)
	}
}

// persist writes bookings, held newest first, back in file order.
func (s *BookingService) persist(bookings []domain.Booking) error {
	ordered := make([]domain.Booking, len(bookings))
	copy(ordered, bookings)
	reverse(ordered)
	if err := s.repo.RewriteAll(ordered); err != nil {
		return fmt.Errorf("save bookings: %w", err)
	}
	return nil
}

func (s *BookingService) uniqueRef() (string, error) {
	for attempt := 0; attempt < maxRefAttempts; attempt++ {
		ref := s.newRef()
		if ref != "" && s.indexOf(ref) < 0 {
			return ref, nil
		}
	}
	return "", domain.ErrRefNoExhausted
}

func (s *BookingService) indexOf(refNo string) int {
	for i := range s.bookings {
		if s.bookings[i].RefNo == refNo {
			return i
		}
	}
	return -1
}

func notFound(refNo string) error {
	return fmt.Errorf("%w: %s", domain.ErrBookingNotFound, refNo)
}

func reverse[T any](s []T) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}

func bookingEvent(eventType string, b domain.Booking) kafka.BookingEvent {
	return kafka.BookingEvent{
		Type:         eventType,
		RefNo:        b.RefNo,
		FlightID:     b.FlightID,
		SeatNumber:   b.SeatNumber,
		Name:         b.Name,
		PaymentCents: b.PaymentCents,
	}
}

var _ BookingUseCase = (*BookingService)(nil)
