package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/Domenick1991/arsconsole/internal/domain"
	"github.com/Domenick1991/arsconsole/internal/service/booking"
	"github.com/Domenick1991/arsconsole/internal/service/cancellation"
	"github.com/gin-gonic/gin"
)

// PaymentWord is what a passenger types to confirm a payment.
const PaymentWord = "PAY"

type BookingHandler struct {
	service       booking.BookingUseCase
	cancellations cancellation.CancellationUseCase
}

type createBookingRequest struct {
	Name       string `json:"name"`
	FlightID   string `json:"flight_id"`
	SeatNumber int    `json:"seat_number"`
	// Payment must be "PAY" in any case for the booking to go through.
	Payment string `json:"payment"`
}

type bookingResponse struct {
	RefNo           string `json:"ref_no"`
	Name            string `json:"name"`
	FlightID        string `json:"flight_id"`
	Date            string `json:"date"`
	SeatNumber      int    `json:"seat_number"`
	Payment         string `json:"payment"`
	CancelRequested bool   `json:"cancel_requested"`
}

func NewBookingHandler(service booking.BookingUseCase, cancellations cancellation.CancellationUseCase) *BookingHandler {
	return &BookingHandler{service: service, cancellations: cancellations}
}

func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.POST("", h.create)
	router.GET("/:ref", h.get)
	router.POST("/:ref/cancellation", h.requestCancellation)
}

func (h *BookingHandler) create(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	confirm := func(context.Context, int64) (bool, error) {
		return strings.EqualFold(strings.TrimSpace(req.Payment), PaymentWord), nil
	}
	b, err := h.service.CreateBooking(c.Request.Context(), domain.NewBookingInput{
		Name:       req.Name,
		FlightID:   req.FlightID,
		SeatNumber: req.SeatNumber,
	}, confirm)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toBookingResponse(*b))
}

func (h *BookingHandler) get(c *gin.Context) {
	b, err := h.service.GetByRef(c.Request.Context(), c.Param("ref"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(*b))
}

func (h *BookingHandler) requestCancellation(c *gin.Context) {
	req, err := h.cancellations.RequestCancellation(c.Request.Context(), c.Param("ref"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, toRequestResponse(*req))
}

func toBookingResponse(b domain.Booking) bookingResponse {
	return bookingResponse{
		RefNo:           b.RefNo,
		Name:            b.Name,
		FlightID:        b.FlightID,
		Date:            b.Date,
		SeatNumber:      b.SeatNumber,
		Payment:         domain.FormatCents(b.PaymentCents),
		CancelRequested: b.CancelRequested,
	}
}
