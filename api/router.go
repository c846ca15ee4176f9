package api

import (
	"log/slog"
	"net/http"

	"github.com/Domenick1991/arsconsole/internal/metrics"
	"github.com/Domenick1991/arsconsole/internal/service/booking"
	"github.com/Domenick1991/arsconsole/internal/service/cancellation"
	"github.com/Domenick1991/arsconsole/internal/service/flights"
	"github.com/Domenick1991/arsconsole/internal/service/seats"
	"github.com/gin-gonic/gin"
)

type Services struct {
	Flights       flights.FlightUseCase
	Seats         seats.SeatUseCase
	Bookings      booking.BookingUseCase
	Cancellations cancellation.CancellationUseCase
}

type Credentials struct {
	Username string
	Password string
}

type RouterOption func(*gin.Engine)

// WithMetrics records request metrics and serves them on /metrics.
func WithMetrics(m *metrics.Metrics) RouterOption {
	return func(router *gin.Engine) {
		router.Use(m.Middleware())
		router.GET("/metrics", gin.WrapH(m.Handler()))
	}
}

func NewRouter(svc Services, admin Credentials, log *slog.Logger, opts ...RouterOption) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestID(), AccessLog(log))
	for _, opt := range opts {
		opt(router)
	}

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	NewFlightHandler(svc.Flights, svc.Seats).Register(router.Group("/flights"))
	NewBookingHandler(svc.Bookings, svc.Cancellations).Register(router.Group("/bookings"))
	NewAdminHandler(svc.Flights, svc.Bookings, svc.Cancellations).Register(router.Group("/admin"), admin.Username, admin.Password)

	return router
}
