package booking

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/Domenick1991/arsconsole/internal/domain"
	"github.com/Domenick1991/arsconsole/internal/kafka"
	"github.com/Domenick1991/arsconsole/internal/lock"
	"github.com/Domenick1991/arsconsole/internal/logger"
	"github.com/Domenick1991/arsconsole/internal/repository"
	"github.com/Domenick1991/arsconsole/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockBookingRepository struct {
	mock.Mock
}

func (m *MockBookingRepository) Load() ([]domain.Booking, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) Append(rec domain.Booking) error {
	args := m.Called(rec)
	return args.Error(0)
}

func (m *MockBookingRepository) RewriteAll(recs []domain.Booking) error {
	args := m.Called(recs)
	return args.Error(0)
}

func (m *MockBookingRepository) RemoveWhere(pred func(domain.Booking) bool) (int, error) {
	args := m.Called(pred)
	return args.Int(0), args.Error(1)
}

type MockFlightFinder struct {
	mock.Mock
}

func (m *MockFlightFinder) GetByID(ctx context.Context, id string) (*domain.Flight, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Flight), args.Error(1)
}

type MockSeatReserver struct {
	mock.Mock
}

func (m *MockSeatReserver) IsAvailable(ctx context.Context, flightID string, seatNumber int) (bool, error) {
	args := m.Called(ctx, flightID, seatNumber)
	return args.Bool(0), args.Error(1)
}

func (m *MockSeatReserver) Reserve(ctx context.Context, flightID string, seatNumber int) error {
	args := m.Called(ctx, flightID, seatNumber)
	return args.Error(0)
}

func (m *MockSeatReserver) Release(ctx context.Context, flightID string, seatNumber int) error {
	args := m.Called(ctx, flightID, seatNumber)
	return args.Error(0)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, topic, key string, value interface{}) error {
	args := m.Called(ctx, topic, key, value)
	return args.Error(0)
}

var f100 = &domain.Flight{ID: "F100", Date: "01/02/2026", Time: "10:30", Source: "Delhi", Destination: "Mumbai", PriceCents: 10000}

func sequence(refs ...string) func() string {
	i := 0
	return func() string {
		ref := refs[i%len(refs)]
		i++
		return ref
	}
}

type fixture struct {
	repo    *MockBookingRepository
	flights *MockFlightFinder
	seats   *MockSeatReserver
	service *BookingService
}

func newFixture(t *testing.T, existing []domain.Booking, opts ...BookingServiceOption) *fixture {
	t.Helper()
	f := &fixture{
		repo:    &MockBookingRepository{},
		flights: &MockFlightFinder{},
		seats:   &MockSeatReserver{},
	}
	f.service = NewBookingService(f.repo, f.flights, f.seats, validation.New(), logger.Discard(), opts...)
	f.repo.On("Load").Return(existing, nil).Once()
	require.NoError(t, f.service.Load(context.Background()))
	return f
}

func TestNewRefNo(t *testing.T) {
	ref := NewRefNo()
	assert.Regexp(t, regexp.MustCompile(`^R[0-9A-F]{8}$`), ref)
	assert.NotEqual(t, ref, NewRefNo())
}

func TestBookingService_Load_ReversesFileOrder(t *testing.T) {
	fileOrder := []domain.Booking{{RefNo: "R1"}, {RefNo: "R2"}, {RefNo: "R3"}}
	f := newFixture(t, fileOrder)

	got, err := f.service.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []domain.Booking{{RefNo: "R3"}, {RefNo: "R2"}, {RefNo: "R1"}}, got)
}

func TestBookingService_CreateBooking_Success(t *testing.T) {
	pub := &MockPublisher{}
	f := newFixture(t, []domain.Booking{{RefNo: "R0", FlightID: "F200"}},
		WithRefGenerator(sequence("RAAAA0001")),
		WithEvents(kafka.NewEmitter(pub, "ars.bookings", logger.Discard())),
	)
	ctx := context.Background()

	want := domain.Booking{RefNo: "RAAAA0001", Name: "Alice", FlightID: "F100", Date: "01/02/2026", SeatNumber: 5, PaymentCents: 10000}

	f.flights.On("GetByID", ctx, "F100").Return(f100, nil).Once()
	f.seats.On("Reserve", ctx, "F100", 5).Return(nil).Once()
	f.seats.On("IsAvailable", ctx, "F100", 5).Return(false, nil).Once()
	f.repo.On("Append", want).Return(nil).Once()
	pub.On("Publish", ctx, "ars.bookings", "RAAAA0001", mock.MatchedBy(func(e kafka.BookingEvent) bool {
		return e.Type == kafka.EventBookingCreated && e.SeatNumber == 5 && e.PaymentCents == 10000
	})).Return(nil).Once()

	var charged int64
	booking, err := f.service.CreateBooking(ctx, domain.NewBookingInput{Name: "Alice", FlightID: "F100", SeatNumber: 5},
		func(_ context.Context, amount int64) (bool, error) {
			charged = amount
			return true, nil
		})

	require.NoError(t, err)
	assert.Equal(t, want, *booking)
	assert.Equal(t, int64(10000), charged)

	list, _ := f.service.List(ctx)
	require.Len(t, list, 2)
	assert.Equal(t, "RAAAA0001", list[0].RefNo)

	f.flights.AssertExpectations(t)
	f.seats.AssertExpectations(t)
	f.repo.AssertExpectations(t)
	pub.AssertExpectations(t)
}

func TestBookingService_CreateBooking_RetriesRefCollision(t *testing.T) {
	f := newFixture(t, []domain.Booking{{RefNo: "R1"}}, WithRefGenerator(sequence("R1", "R1", "R2")))
	ctx := context.Background()

	f.flights.On("GetByID", ctx, "F100").Return(f100, nil)
	f.seats.On("Reserve", ctx, "F100", 1).Return(nil)
	f.seats.On("IsAvailable", ctx, "F100", 1).Return(false, nil)
	f.repo.On("Append", mock.Anything).Return(nil)

	booking, err := f.service.CreateBooking(ctx, domain.NewBookingInput{Name: "Bob", FlightID: "F100", SeatNumber: 1}, AutoConfirm)
	require.NoError(t, err)
	assert.Equal(t, "R2", booking.RefNo)
}

func TestBookingService_CreateBooking_RefExhausted(t *testing.T) {
	f := newFixture(t, []domain.Booking{{RefNo: "R1"}}, WithRefGenerator(sequence("R1")))
	ctx := context.Background()

	f.flights.On("GetByID", ctx, "F100").Return(f100, nil)
	f.seats.On("Reserve", ctx, "F100", 1).Return(nil)
	f.seats.On("IsAvailable", ctx, "F100", 1).Return(false, nil)

	_, err := f.service.CreateBooking(ctx, domain.NewBookingInput{Name: "Bob", FlightID: "F100", SeatNumber: 1}, AutoConfirm)
	assert.True(t, errors.Is(err, domain.ErrRefNoExhausted))
	f.repo.AssertNotCalled(t, "Append", mock.Anything)
}

func TestBookingService_CreateBooking_Failures(t *testing.T) {
	ctx := context.Background()
	input := domain.NewBookingInput{Name: "Alice", FlightID: "F100", SeatNumber: 5}

	testCases := []struct {
		name    string
		input   domain.NewBookingInput
		setup   func(f *fixture)
		confirm PaymentConfirmer
		wantErr error
	}{
		{
			name:    "invalid input",
			input:   domain.NewBookingInput{Name: "A,B", FlightID: "F100", SeatNumber: 5},
			setup:   func(f *fixture) {},
			wantErr: domain.ErrValidation,
		},
		{
			name:  "flight not found",
			input: input,
			setup: func(f *fixture) {
				f.flights.On("GetByID", ctx, "F100").Return(nil, fmt.Errorf("%w: F100", domain.ErrFlightNotFound)).Once()
			},
			wantErr: domain.ErrFlightNotFound,
		},
		{
			name:  "seat unavailable",
			input: input,
			setup: func(f *fixture) {
				f.flights.On("GetByID", ctx, "F100").Return(f100, nil).Once()
				f.seats.On("Reserve", ctx, "F100", 5).Return(domain.ErrSeatUnavailable).Once()
			},
			wantErr: domain.ErrSeatUnavailable,
		},
		{
			name:  "seat file missing",
			input: input,
			setup: func(f *fixture) {
				f.flights.On("GetByID", ctx, "F100").Return(f100, nil).Once()
				f.seats.On("Reserve", ctx, "F100", 5).Return(domain.ErrSeatFileMissing).Once()
			},
			wantErr: domain.ErrSeatFileMissing,
		},
		{
			name:  "payment declined releases seat",
			input: input,
			setup: func(f *fixture) {
				f.flights.On("GetByID", ctx, "F100").Return(f100, nil).Once()
				f.seats.On("Reserve", ctx, "F100", 5).Return(nil).Once()
				f.seats.On("Release", ctx, "F100", 5).Return(nil).Once()
			},
			confirm: func(context.Context, int64) (bool, error) { return false, nil },
			wantErr: domain.ErrPaymentDeclined,
		},
		{
			name:  "append fails",
			input: input,
			setup: func(f *fixture) {
				f.flights.On("GetByID", ctx, "F100").Return(f100, nil).Once()
				f.seats.On("Reserve", ctx, "F100", 5).Return(nil).Once()
				f.seats.On("IsAvailable", ctx, "F100", 5).Return(false, nil).Once()
				f.repo.On("Append", mock.Anything).Return(&domain.FileError{Op: "append", Path: "details.csv", Err: errors.New("EROFS")}).Once()
			},
			wantErr: domain.ErrFileAccess,
		},
		{
			name:  "flight removed during payment",
			input: input,
			setup: func(f *fixture) {
				f.flights.On("GetByID", ctx, "F100").Return(f100, nil).Once()
				f.seats.On("Reserve", ctx, "F100", 5).Return(nil).Once()
				f.seats.On("IsAvailable", ctx, "F100", 5).Return(false, fmt.Errorf("%w: F100", domain.ErrSeatFileMissing)).Once()
			},
			wantErr: domain.ErrFlightNotFound,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, nil)
			tc.setup(f)
			confirm := tc.confirm
			if confirm == nil {
				confirm = AutoConfirm
			}

			booking, err := f.service.CreateBooking(ctx, tc.input, confirm)
			assert.Nil(t, booking)
			assert.True(t, errors.Is(err, tc.wantErr), "got %v", err)

			list, _ := f.service.List(ctx)
			assert.Empty(t, list)
			f.flights.AssertExpectations(t)
			f.seats.AssertExpectations(t)
			f.repo.AssertExpectations(t)
		})
	}
}

func TestBookingService_FlagAndClearCancellation(t *testing.T) {
	f := newFixture(t, []domain.Booking{{RefNo: "R1"}, {RefNo: "R2"}})
	ctx := context.Background()

	// memory is newest first, the rewrite goes back to file order
	f.repo.On("RewriteAll", []domain.Booking{{RefNo: "R1", CancelRequested: true}, {RefNo: "R2"}}).Return(nil).Once()
	b, err := f.service.FlagCancellation(ctx, "R1")
	require.NoError(t, err)
	assert.True(t, b.CancelRequested)

	f.repo.On("RewriteAll", []domain.Booking{{RefNo: "R1"}, {RefNo: "R2"}}).Return(nil).Once()
	b, err = f.service.ClearCancellationFlag(ctx, "R1")
	require.NoError(t, err)
	assert.False(t, b.CancelRequested)

	_, err = f.service.FlagCancellation(ctx, "R9")
	assert.True(t, errors.Is(err, domain.ErrBookingNotFound))

	f.repo.AssertExpectations(t)
}

func TestBookingService_FlagCancellation_SaveFailureKeepsMemory(t *testing.T) {
	f := newFixture(t, []domain.Booking{{RefNo: "R1"}})
	ctx := context.Background()

	f.repo.On("RewriteAll", mock.Anything).Return(&domain.FileError{Op: "write", Path: "details.csv", Err: errors.New("EIO")}).Once()
	_, err := f.service.FlagCancellation(ctx, "R1")
	assert.True(t, errors.Is(err, domain.ErrFileAccess))

	b, err := f.service.GetByRef(ctx, "R1")
	require.NoError(t, err)
	assert.False(t, b.CancelRequested)
}

func TestBookingService_RemoveByRef(t *testing.T) {
	f := newFixture(t, []domain.Booking{{RefNo: "R1"}, {RefNo: "R2"}, {RefNo: "R3"}})
	ctx := context.Background()

	f.repo.On("RewriteAll", []domain.Booking{{RefNo: "R1"}, {RefNo: "R3"}}).Return(nil).Once()
	removed, err := f.service.RemoveByRef(ctx, "R2")
	require.NoError(t, err)
	assert.Equal(t, "R2", removed.RefNo)

	_, err = f.service.GetByRef(ctx, "R2")
	assert.True(t, errors.Is(err, domain.ErrBookingNotFound))

	_, err = f.service.RemoveByRef(ctx, "R2")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	f.repo.AssertExpectations(t)
}

func TestBookingService_TotalsAndCounts(t *testing.T) {
	f := newFixture(t, []domain.Booking{
		{RefNo: "R1", FlightID: "F100", PaymentCents: 10000},
		{RefNo: "R2", FlightID: "F100", PaymentCents: 10000},
		{RefNo: "R3", FlightID: "F200", PaymentCents: 4599},
	})
	ctx := context.Background()

	assert.Equal(t, int64(24599), f.service.TotalPayments(ctx))
	assert.Equal(t, 2, f.service.CountByFlight(ctx, "F100"))
	assert.Equal(t, 0, f.service.CountByFlight(ctx, "F300"))
}

// TotalPayments must agree with what is persisted in details.csv.
func TestBookingService_TotalPaymentsMatchesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "details.csv")
	repo := repository.NewRecordFile[domain.Booking](path, repository.BookingCodec{}, logger.Discard())
	flights := &MockFlightFinder{}
	seats := &MockSeatReserver{}
	service := NewBookingService(repo, flights, seats, validation.New(), logger.Discard())
	ctx := context.Background()
	require.NoError(t, service.Load(ctx))

	f200 := &domain.Flight{ID: "F200", Date: "02/02/2026", PriceCents: 4599}
	flights.On("GetByID", ctx, "F100").Return(f100, nil)
	flights.On("GetByID", ctx, "F200").Return(f200, nil)
	seats.On("Reserve", ctx, mock.Anything, mock.Anything).Return(nil)
	seats.On("IsAvailable", ctx, mock.Anything, mock.Anything).Return(false, nil)

	var refs []string
	for i, flightID := range []string{"F100", "F200", "F100"} {
		b, err := service.CreateBooking(ctx, domain.NewBookingInput{Name: "P", FlightID: flightID, SeatNumber: i + 1}, AutoConfirm)
		require.NoError(t, err)
		refs = append(refs, b.RefNo)
	}
	_, err := service.RemoveByRef(ctx, refs[0])
	require.NoError(t, err)

	persisted, err := repo.Load()
	require.NoError(t, err)
	var sum int64
	for _, b := range persisted {
		sum += b.PaymentCents
	}
	assert.Equal(t, int64(14599), sum)
	assert.Equal(t, sum, service.TotalPayments(ctx))

	// reload gives back the same ledger
	reloaded := NewBookingService(repo, flights, seats, validation.New(), logger.Discard())
	require.NoError(t, reloaded.Load(ctx))
	before, _ := service.List(ctx)
	after, _ := reloaded.List(ctx)
	assert.Equal(t, before, after)

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestBookingService_WithoutBookings(t *testing.T) {
	f := newFixture(t, []domain.Booking{{RefNo: "R1", FlightID: "F100"}})
	ctx := context.Background()

	ran := false
	err := f.service.WithoutBookings(ctx, "F100", func() error {
		ran = true
		return nil
	})
	assert.True(t, errors.Is(err, domain.ErrFlightHasBookings))
	assert.False(t, ran)

	err = f.service.WithoutBookings(ctx, "F200", func() error {
		ran = true
		return errors.New("boom")
	})
	assert.EqualError(t, err, "boom")
	assert.True(t, ran)
}

// Two ledgers over one file, as two processes sharing a data directory.
func TestBookingService_FileLockSharesLedger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "details.csv")
	locker := lock.NewLocalLocker()
	ctx := context.Background()

	newLedger := func(ref string) *BookingService {
		repo := repository.NewRecordFile[domain.Booking](path, repository.BookingCodec{}, logger.Discard())
		flights := &MockFlightFinder{}
		seats := &MockSeatReserver{}
		flights.On("GetByID", ctx, "F100").Return(f100, nil)
		seats.On("Reserve", ctx, "F100", mock.Anything).Return(nil)
		seats.On("IsAvailable", ctx, "F100", mock.Anything).Return(false, nil)
		service := NewBookingService(repo, flights, seats, validation.New(), logger.Discard(),
			WithFileLock(locker, "details.csv"),
			WithRefGenerator(sequence(ref)),
		)
		require.NoError(t, service.Load(ctx))
		return service
	}
	a := newLedger("RA0000001")
	b := newLedger("RB0000001")

	_, err := a.CreateBooking(ctx, domain.NewBookingInput{Name: "A", FlightID: "F100", SeatNumber: 1}, AutoConfirm)
	require.NoError(t, err)
	_, err = b.CreateBooking(ctx, domain.NewBookingInput{Name: "B", FlightID: "F100", SeatNumber: 2}, AutoConfirm)
	require.NoError(t, err)

	_, err = a.FlagCancellation(ctx, "RA0000001")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "RA0000001,A,F100,01/02/2026,1,100.00,1\nRB0000001,B,F100,01/02/2026,2,100.00,0\n", string(data))

	got, err := b.GetByRef(ctx, "RA0000001")
	require.NoError(t, err)
	assert.True(t, got.CancelRequested)
	assert.Equal(t, int64(20000), b.TotalPayments(ctx))
	assert.Equal(t, 2, a.CountByFlight(ctx, "F100"))
}
