package seats

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Domenick1991/arsconsole/internal/domain"
	"github.com/Domenick1991/arsconsole/internal/lock"
	"github.com/Domenick1991/arsconsole/internal/repository"
)

var errNoChange = errors.New("no change")

type SeatUseCase interface {
	Init(ctx context.Context, flightID string) error
	Drop(ctx context.Context, flightID string) error
	Load(ctx context.Context, flightID string) (*domain.SeatMap, error)
	IsAvailable(ctx context.Context, flightID string, seatNumber int) (bool, error)
	Reserve(ctx context.Context, flightID string, seatNumber int) error
	Release(ctx context.Context, flightID string, seatNumber int) error
}

// SeatService owns the per-flight seat files. Every change re-reads the file
// under the flight's lock, so the file on disk is the only seat state.
type SeatService struct {
	repo   repository.SeatRepository
	locker lock.Locker
	log    *slog.Logger
}

func NewSeatService(repo repository.SeatRepository, locker lock.Locker, log *slog.Logger) *SeatService {
	return &SeatService{repo: repo, locker: locker, log: log}
}

func (s *SeatService) Init(ctx context.Context, flightID string) error {
	unlock, err := s.locker.Lock(ctx, lockName(flightID))
	if err != nil {
		return err
	}
	defer unlock()

	return s.repo.Create(flightID)
}

func (s *SeatService) Drop(ctx context.Context, flightID string) error {
	unlock, err := s.locker.Lock(ctx, lockName(flightID))
	if err != nil {
		return err
	}
	defer unlock()

	return s.repo.Delete(flightID)
}

func (s *SeatService) Load(ctx context.Context, flightID string) (*domain.SeatMap, error) {
	return s.repo.Load(flightID)
}

func (s *SeatService) IsAvailable(ctx context.Context, flightID string, seatNumber int) (bool, error) {
	m, err := s.repo.Load(flightID)
	if err != nil {
		return false, err
	}
	return m.IsAvailable(seatNumber), nil
}

// Reserve marks an available seat as booked. The file is left untouched when
// the seat is out of range or already booked.
func (s *SeatService) Reserve(ctx context.Context, flightID string, seatNumber int) error {
	return s.update(ctx, flightID, func(m *domain.SeatMap) error {
		if !m.IsAvailable(seatNumber) {
			return fmt.Errorf("%w: seat %d on flight %s", domain.ErrSeatUnavailable, seatNumber, flightID)
		}
		m.Set(seatNumber, domain.SeatBooked)
		return nil
	})
}

// Release makes a seat available again. Releasing a seat that is already
// available is a no-op.
func (s *SeatService) Release(ctx context.Context, flightID string, seatNumber int) error {
	return s.update(ctx, flightID, func(m *domain.SeatMap) error {
		if seatNumber < 1 || seatNumber > len(m.Seats) {
			return fmt.Errorf("%w: seat %d on flight %s", domain.ErrSeatUnavailable, seatNumber, flightID)
		}
		if m.IsAvailable(seatNumber) {
			return errNoChange
		}
		m.Set(seatNumber, domain.SeatAvailable)
		return nil
	})
}

func (s *SeatService) update(ctx context.Context, flightID string, fn func(m *domain.SeatMap) error) error {
	unlock, err := s.locker.Lock(ctx, lockName(flightID))
	if err != nil {
		return fmt.Errorf("lock seats of %s: %w", flightID, err)
	}
	defer unlock()

	m, err := s.repo.Load(flightID)
	if err != nil {
		return err
	}
	if err := fn(m); err != nil {
		if errors.Is(err, errNoChange) {
			return nil
		}
		return err
	}
	if err := s.repo.Save(m); err != nil {
		return err
	}
	s.log.Debug("seat map saved", slog.String("flight_id", flightID), slog.Int("available", m.Available()))
	return nil
}

func lockName(flightID string) string {
	return "seats:" + flightID
}

var _ SeatUseCase = (*SeatService)(nil)
