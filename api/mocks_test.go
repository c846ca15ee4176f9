package api

import (
	"context"

	"github.com/Domenick1991/arsconsole/internal/domain"
	"github.com/Domenick1991/arsconsole/internal/service/booking"
	"github.com/stretchr/testify/mock"
)

type MockFlightUseCase struct {
	mock.Mock
}

func (m *MockFlightUseCase) List(ctx context.Context) ([]domain.Flight, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Flight), args.Error(1)
}

func (m *MockFlightUseCase) GetByID(ctx context.Context, id string) (*domain.Flight, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Flight), args.Error(1)
}

func (m *MockFlightUseCase) Add(ctx context.Context, input domain.NewFlightInput) (*domain.Flight, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Flight), args.Error(1)
}

func (m *MockFlightUseCase) Remove(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockSeatUseCase struct {
	mock.Mock
}

func (m *MockSeatUseCase) Init(ctx context.Context, flightID string) error {
	return m.Called(ctx, flightID).Error(0)
}

func (m *MockSeatUseCase) Drop(ctx context.Context, flightID string) error {
	return m.Called(ctx, flightID).Error(0)
}

func (m *MockSeatUseCase) Load(ctx context.Context, flightID string) (*domain.SeatMap, error) {
	args := m.Called(ctx, flightID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SeatMap), args.Error(1)
}

func (m *MockSeatUseCase) IsAvailable(ctx context.Context, flightID string, seatNumber int) (bool, error) {
	args := m.Called(ctx, flightID, seatNumber)
	return args.Bool(0), args.Error(1)
}

func (m *MockSeatUseCase) Reserve(ctx context.Context, flightID string, seatNumber int) error {
	return m.Called(ctx, flightID, seatNumber).Error(0)
}

func (m *MockSeatUseCase) Release(ctx context.Context, flightID string, seatNumber int) error {
	return m.Called(ctx, flightID, seatNumber).Error(0)
}

type MockBookingUseCase struct {
	mock.Mock
}

func (m *MockBookingUseCase) booking(args mock.Arguments) (*domain.Booking, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingUseCase) CreateBooking(ctx context.Context, input domain.NewBookingInput, confirm booking.PaymentConfirmer) (*domain.Booking, error) {
	return m.booking(m.Called(ctx, input, confirm))
}

func (m *MockBookingUseCase) GetByRef(ctx context.Context, refNo string) (*domain.Booking, error) {
	return m.booking(m.Called(ctx, refNo))
}

func (m *MockBookingUseCase) List(ctx context.Context) ([]domain.Booking, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Booking), args.Error(1)
}

func (m *MockBookingUseCase) FlagCancellation(ctx context.Context, refNo string) (*domain.Booking, error) {
	return m.booking(m.Called(ctx, refNo))
}

func (m *MockBookingUseCase) ClearCancellationFlag(ctx context.Context, refNo string) (*domain.Booking, error) {
	return m.booking(m.Called(ctx, refNo))
}

func (m *MockBookingUseCase) RemoveByRef(ctx context.Context, refNo string) (*domain.Booking, error) {
	return m.booking(m.Called(ctx, refNo))
}

func (m *MockBookingUseCase) TotalPayments(ctx context.Context) int64 {
	args := m.Called(ctx)
	return args.Get(0).(int64)
}

func (m *MockBookingUseCase) CountByFlight(ctx context.Context, flightID string) int {
	return m.Called(ctx, flightID).Int(0)
}

type MockCancellationUseCase struct {
	mock.Mock
}

func (m *MockCancellationUseCase) RequestCancellation(ctx context.Context, refNo string) (*domain.CancelRequest, error) {
	args := m.Called(ctx, refNo)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CancelRequest), args.Error(1)
}

func (m *MockCancellationUseCase) Enqueue(ctx context.Context, req domain.CancelRequest) error {
	return m.Called(ctx, req).Error(0)
}

func (m *MockCancellationUseCase) List(ctx context.Context) ([]domain.CancelRequest, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CancelRequest), args.Error(1)
}

func (m *MockCancellationUseCase) RemoveByRef(ctx context.Context, refNo string) (bool, error) {
	args := m.Called(ctx, refNo)
	return args.Bool(0), args.Error(1)
}

func (m *MockCancellationUseCase) Approve(ctx context.Context, refNo string) error {
	return m.Called(ctx, refNo).Error(0)
}

func (m *MockCancellationUseCase) Reject(ctx context.Context, refNo string) error {
	return m.Called(ctx, refNo).Error(0)
}
