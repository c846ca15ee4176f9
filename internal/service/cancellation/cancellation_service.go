package cancellation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Domenick1991/arsconsole/internal/domain"
	"github.com/Domenick1991/arsconsole/internal/kafka"
	"github.com/Domenick1991/arsconsole/internal/lock"
	"github.com/Domenick1991/arsconsole/internal/logger"
	"github.com/Domenick1991/arsconsole/internal/repository"
)

type CancellationUseCase interface {
	RequestCancellation(ctx context.Context, refNo string) (*domain.CancelRequest, error)
	Enqueue(ctx context.Context, req domain.CancelRequest) error
	List(ctx context.Context) ([]domain.CancelRequest, error)
	RemoveByRef(ctx context.Context, refNo string) (bool, error)
	Approve(ctx context.Context, refNo string) error
	Reject(ctx context.Context, refNo string) error
}

// Ledger is the part of the booking ledger the queue works against.
type Ledger interface {
	GetByRef(ctx context.Context, refNo string) (*domain.Booking, error)
	FlagCancellation(ctx context.Context, refNo string) (*domain.Booking, error)
	ClearCancellationFlag(ctx context.Context, refNo string) (*domain.Booking, error)
	RemoveByRef(ctx context.Context, refNo string) (*domain.Booking, error)
}

type SeatReleaser interface {
	Release(ctx context.Context, flightID string, seatNumber int) error
}

// CancellationService is the queue of pending cancellation requests, newest
// first in memory and oldest first in cancellation_requests.csv.
//
// The queue lock is held while the ledger is called, never the other way
// round.
type CancellationService struct {
	mu       sync.Mutex
	requests []domain.CancelRequest
	repo     repository.RecordRepository[domain.CancelRequest]
	locker   lock.Locker
	lockName string
	ledger   Ledger
	seats    SeatReleaser
	events   *kafka.Emitter
	log      *slog.Logger
}

type CancellationServiceOption func(*CancellationService)

func WithEvents(events *kafka.Emitter) CancellationServiceOption {
	return func(s *CancellationService) {
		s.events = events
	}
}

// WithFileLock makes every operation take the named lock and re-read
// cancellation_requests.csv first, so processes sharing the data directory
// work on the same queue.
func WithFileLock(locker lock.Locker, name string) CancellationServiceOption {
	return func(s *CancellationService) {
		s.locker = locker
		s.lockName = name
	}
}

func NewCancellationService(
	repo repository.RecordRepository[domain.CancelRequest],
	ledger Ledger,
	seats SeatReleaser,
	log *slog.Logger,
	opts ...CancellationServiceOption,
) *CancellationService {
	service := &CancellationService{
		repo:   repo,
		ledger: ledger,
		seats:  seats,
		log:    log,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

func (s *CancellationService) Load(ctx context.Context) error {
	requests, err := s.repo.Load()
	if err != nil {
		return fmt.Errorf("load cancellation requests: %w", err)
	}
	reverse(requests)

	s.mu.Lock()
	s.requests = requests
	s.mu.Unlock()

	s.log.Info("cancellation requests loaded", slog.Int("count", len(requests)))
	return nil
}

// RequestCancellation flags the booking and queues a snapshot of it for an
// administrator to decide on.
func (s *CancellationService) RequestCancellation(ctx context.Context, refNo string) (*domain.CancelRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	unlock, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if s.indexOf(refNo) >= 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrCancellationPending, refNo)
	}

	booking, err := s.ledger.FlagCancellation(ctx, refNo)
	if err != nil {
		return nil, err
	}
	req := booking.CancelRequest()

	if err := s.enqueue(req); err != nil {
		if _, clearErr := s.ledger.ClearCancellationFlag(ctx, refNo); clearErr != nil {
			s.log.Error("booking flagged but request not queued",
				slog.String("ref_no", refNo),
				logger.Err(clearErr),
			)
		}
		return nil, err
	}

	s.log.Info("cancellation requested", slog.String("ref_no", refNo))
	s.events.Emit(ctx, kafka.BookingEvent{
		Type:         kafka.EventCancellationRequested,
		RefNo:        booking.RefNo,
		FlightID:     booking.FlightID,
		SeatNumber:   booking.SeatNumber,
		Name:         booking.Name,
		PaymentCents: booking.PaymentCents,
	})
	return &req, nil
}

func (s *CancellationService) Enqueue(ctx context.Context, req domain.CancelRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	unlock, err := s.acquire(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	if s.indexOf(req.RefNo) >= 0 {
		return fmt.Errorf("%w: %s", domain.ErrCancellationPending, req.RefNo)
	}
	return s.enqueue(req)
}

func (s *CancellationService) enqueue(req domain.CancelRequest) error {
	if err := s.repo.Append(req); err != nil {
		return fmt.Errorf("save cancellation request: %w", err)
	}
	s.requests = append([]domain.CancelRequest{req}, s.requests...)
	return nil
}

func (s *CancellationService) List(ctx context.Context) ([]domain.CancelRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.view(ctx)()

	out := make([]domain.CancelRequest, len(s.requests))
	copy(out, s.requests)
	return out, nil
}

// RemoveByRef drops the request for refNo from the queue and its file. It
// reports whether a request was found.
func (s *CancellationService) RemoveByRef(ctx context.Context, refNo string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	unlock, err := s.acquire(ctx)
	if err != nil {
		return false, err
	}
	defer unlock()

	return s.remove(refNo)
}

func (s *CancellationService) remove(refNo string) (bool, error) {
	n, err := s.repo.RemoveWhere(func(r domain.CancelRequest) bool {
		return r.RefNo == refNo
	})
	if err != nil {
		return false, fmt.Errorf("remove cancellation request: %w", err)
	}

	kept := s.requests[:0:0]
	for _, r := range s.requests {
		if r.RefNo != refNo {
			kept = append(kept, r)
		}
	}
	found := n > 0 || len(kept) != len(s.requests)
	s.requests = kept
	return found, nil
}

// Approve cancels the booking: it is deleted from the ledger, its request
// leaves the queue and the seat becomes available again. When refNo is on
// neither side nothing is written.
func (s *CancellationService) Approve(ctx context.Context, refNo string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	unlock, err := s.acquire(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	queued := s.indexOf(refNo) >= 0

	booking, err := s.ledger.GetByRef(ctx, refNo)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		booking = nil
	case err != nil:
		return err
	}

	if booking == nil && !queued {
		return fmt.Errorf("%w: %s", domain.ErrRequestNotFound, refNo)
	}

	if booking != nil {
		if _, err := s.ledger.RemoveByRef(ctx, refNo); err != nil {
			return fmt.Errorf("approve %s: %w", refNo, err)
		}
		s.releaseSeat(ctx, *booking)
	}

	if queued {
		if _, err := s.remove(refNo); err != nil {
			return fmt.Errorf("approve %s: %w", refNo, err)
		}
	}

	if booking == nil || !queued {
		s.log.Warn("cancellation approved on one side only",
			slog.String("ref_no", refNo),
			slog.Bool("booking_removed", booking != nil),
			slog.Bool("request_removed", queued),
		)
		return &domain.PartialApprovalError{RefNo: refNo, BookingRemoved: booking != nil, RequestRemoved: queued}
	}

	s.log.Info("cancellation approved", slog.String("ref_no", refNo))
	s.events.Emit(ctx, kafka.BookingEvent{
		Type:         kafka.EventCancellationApproved,
		RefNo:        booking.RefNo,
		FlightID:     booking.FlightID,
		SeatNumber:   booking.SeatNumber,
		Name:         booking.Name,
		PaymentCents: booking.PaymentCents,
	})
	return nil
}

// Reject keeps the booking, clears its cancellation flag and drops the
// request.
func (s *CancellationService) Reject(ctx context.Context, refNo string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	unlock, err := s.acquire(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	i := s.indexOf(refNo)
	if i < 0 {
		return fmt.Errorf("%w: %s", domain.ErrRequestNotFound, refNo)
	}
	req := s.requests[i]

	if _, err := s.ledger.ClearCancellationFlag(ctx, refNo); err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("reject %s: %w", refNo, err)
		}
		s.log.Warn("rejected request has no booking", slog.String("ref_no", refNo))
	}

	if _, err := s.remove(refNo); err != nil {
		return fmt.Errorf("reject %s: %w", refNo, err)
	}

	s.log.Info("cancellation rejected", slog.String("ref_no", refNo))
	s.events.Emit(ctx, kafka.BookingEvent{
		Type:         kafka.EventCancellationRejected,
		RefNo:        req.RefNo,
		FlightID:     req.FlightID,
		Name:         req.Name,
		PaymentCents: req.PaymentCents,
	})
	return nil
}

// Rows written by older versions carry no seat number; there is nothing to
// release for them.
func (s *CancellationService) releaseSeat(ctx context.Context, b domain.Booking) {
	if b.SeatNumber <= 0 {
		return
	}
	if err := s.seats.Release(ctx, b.FlightID, b.SeatNumber); err != nil {
		s.log.Warn("booking cancelled but seat not released",
			slog.String("ref_no", b.RefNo),
			slog.String("flight_id", b.FlightID),
			slog.Int("seat", b.SeatNumber),
			logger.Err(err),
		)
	}
}

// acquire takes the file lock, when there is one, and reloads the queue
// from cancellation_requests.csv. s.mu must be held.
func (s *CancellationService) acquire(ctx context.Context) (func(), error) {
	if s.locker == nil {
		return func() {}, nil
	}
	unlock, err := s.locker.Lock(ctx, s.lockName)
	if err != nil {
		return nil, fmt.Errorf("lock cancellation requests: %w", err)
	}
	requests, err := s.repo.Load()
	if err != nil {
		unlock()
		return nil, fmt.Errorf("reload cancellation requests: %w", err)
	}
	reverse(requests)
	s.requests = requests
	return unlock, nil
}

func (s *CancellationService) view(ctx context.Context) func() {
	unlock, err := s.acquire(ctx)
	if err != nil {
		s.log.Warn("serving cancellation requests from memory", logger.Err(err))
		return func() {}
	}
	return unlock
}

func reverse(requests []domain.CancelRequest) {
	for i, j := 0, len(requests)-1; i < j; i, j = i+1, j-1 {
		requests[i], requests[j] = requests[j], requests[i]
	}
}

func (s *CancellationService) indexOf(refNo string) int {
	for i := range s.requests {
		if s.requests[i].RefNo == refNo {
			return i
		}
	}
	return -1
}

var _ CancellationUseCase = (*CancellationService)(nil)
