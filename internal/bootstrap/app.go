package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/Domenick1991/arsconsole/api"
	"github.com/Domenick1991/arsconsole/config"
	"github.com/Domenick1991/arsconsole/internal/domain"
	"github.com/Domenick1991/arsconsole/internal/kafka"
	"github.com/Domenick1991/arsconsole/internal/lock"
	"github.com/Domenick1991/arsconsole/internal/logger"
	"github.com/Domenick1991/arsconsole/internal/repository"
	"github.com/Domenick1991/arsconsole/internal/service/booking"
	"github.com/Domenick1991/arsconsole/internal/service/cancellation"
	"github.com/Domenick1991/arsconsole/internal/service/flights"
	"github.com/Domenick1991/arsconsole/internal/service/seats"
	"github.com/Domenick1991/arsconsole/internal/validation"
)

// App holds the services of one process, built over a single data
// directory.
type App struct {
	Flights       *flights.FlightService
	Seats         *seats.SeatService
	Bookings      *booking.BookingService
	Cancellations *cancellation.CancellationService

	cfg     *config.Config
	log     *slog.Logger
	closers []func() error
}

// NewApp opens the reservation files under cfg.Data.Dir, creating empty ones
// where none exist, and loads them. Redis and Kafka are used when configured.
//
// Every change takes the lock of the file it rewrites and re-reads the file
// first. Only the Redis lock reaches other processes, so several processes
// may share a data directory only when Redis is configured.
func NewApp(ctx context.Context, cfg *config.Config, log *slog.Logger) (*App, error) {
	app := &App{cfg: cfg, log: log}

	if err := os.MkdirAll(cfg.Data.Dir, 0o755); err != nil {
		return nil, &domain.FileError{Op: "mkdir", Path: cfg.Data.Dir, Err: err}
	}

	locker, err := app.newLocker(ctx)
	if err != nil {
		return nil, err
	}
	events := app.newEmitter(ctx)

	flightFile := repository.NewRecordFile[domain.Flight](cfg.Data.FlightsPath(), repository.FlightCodec{}, log)
	bookingFile := repository.NewRecordFile[domain.Booking](cfg.Data.BookingsPath(), repository.BookingCodec{}, log)
	requestFile := repository.NewRecordFile[domain.CancelRequest](cfg.Data.CancellationsPath(), repository.CancelRequestCodec{}, log)
	for _, ensure := range []func() error{flightFile.EnsureExists, bookingFile.EnsureExists, requestFile.EnsureExists} {
		if err := ensure(); err != nil {
			app.Close()
			return nil, err
		}
	}

	validate := validation.New()
	app.Seats = seats.NewSeatService(
		repository.NewSeatFileRepository(cfg.Data.Dir, cfg.Data.SeatFileSuffix),
		locker,
		log.With(slog.String("component", "seats")),
	)
	app.Flights = flights.NewFlightService(
		flightFile,
		app.Seats,
		validate,
		log.With(slog.String("component", "flights")),
		flights.WithEvents(events),
		flights.WithFileLock(locker, recordLock(flightFile.Path())),
	)
	app.Bookings = booking.NewBookingService(
		bookingFile,
		app.Flights,
		app.Seats,
		validate,
		log.With(slog.String("component", "bookings")),
		booking.WithEvents(events),
		booking.WithFileLock(locker, recordLock(bookingFile.Path())),
	)
	app.Cancellations = cancellation.NewCancellationService(
		requestFile,
		app.Bookings,
		app.Seats,
		log.With(slog.String("component", "cancellations")),
		cancellation.WithEvents(events),
		cancellation.WithFileLock(locker, recordLock(requestFile.Path())),
	)
	app.Flights.AttachBookings(app.Bookings)

	if err := app.load(ctx); err != nil {
		app.Close()
		return nil, err
	}
	return app, nil
}

func recordLock(path string) string {
	return "records:" + filepath.Base(path)
}

func (a *App) load(ctx context.Context) error {
	if err := a.Flights.Load(ctx); err != nil {
		return err
	}
	if err := a.Bookings.Load(ctx); err != nil {
		return err
	}
	return a.Cancellations.Load(ctx)
}

func (a *App) newLocker(ctx context.Context) (lock.Locker, error) {
	if !a.cfg.Redis.Enabled() {
		return lock.NewLocalLocker(), nil
	}

	locker := lock.NewRedisLocker(a.cfg.Redis, a.log.With(slog.String("component", "lock")))
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := locker.Ping(pingCtx); err != nil {
		locker.Close()
		return nil, fmt.Errorf("connect redis %s: %w", a.cfg.Redis.Addr, err)
	}
	a.closers = append(a.closers, locker.Close)
	a.log.Info("using redis file lock", slog.String("addr", a.cfg.Redis.Addr))
	return locker, nil
}

// newEmitter returns nil when Kafka is not configured; a nil emitter drops
// events. An unreachable broker is logged and publishing is attempted anyway.
func (a *App) newEmitter(ctx context.Context) *kafka.Emitter {
	if !a.cfg.Kafka.Enabled() {
		return nil
	}

	producer := kafka.NewProducer(a.cfg.Kafka.Brokers)
	checkCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := producer.CheckConnection(checkCtx); err != nil {
		a.log.Warn("kafka not reachable", logger.Err(err))
	}
	a.closers = append(a.closers, producer.Close)
	return kafka.NewEmitter(producer, a.cfg.Kafka.Topic, a.log.With(slog.String("component", "events")))
}

// Services exposes the app to the HTTP front end.
func (a *App) Services() api.Services {
	return api.Services{
		Flights:       a.Flights,
		Seats:         a.Seats,
		Bookings:      a.Bookings,
		Cancellations: a.Cancellations,
	}
}

func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
