package api

import (
	"net/http"

	"github.com/Domenick1991/arsconsole/internal/domain"
	"github.com/Domenick1991/arsconsole/internal/service/booking"
	"github.com/Domenick1991/arsconsole/internal/service/cancellation"
	"github.com/Domenick1991/arsconsole/internal/service/flights"
	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	flights       flights.FlightUseCase
	bookings      booking.BookingUseCase
	cancellations cancellation.CancellationUseCase
}

type addFlightRequest struct {
	ID          string `json:"flight_id"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	Source      string `json:"source"`
	Destination string `json:"destination"`
	Price       string `json:"price"`
}

type requestResponse struct {
	RefNo    string `json:"ref_no"`
	Name     string `json:"name"`
	FlightID string `json:"flight_id"`
	Date     string `json:"date"`
	Payment  string `json:"payment"`
}

type paymentsResponse struct {
	Bookings int    `json:"bookings"`
	Total    string `json:"total"`
}

func NewAdminHandler(flights flights.FlightUseCase, bookings booking.BookingUseCase, cancellations cancellation.CancellationUseCase) *AdminHandler {
	return &AdminHandler{flights: flights, bookings: bookings, cancellations: cancellations}
}

// Register mounts the admin routes behind basic auth with a single account.
func (h *AdminHandler) Register(router *gin.RouterGroup, username, password string) {
	router.Use(gin.BasicAuth(gin.Accounts{username: password}))

	router.GET("/cancellations", h.listRequests)
	router.POST("/cancellations/:ref/approve", h.approve)
	router.POST("/cancellations/:ref/reject", h.reject)
	router.POST("/flights", h.addFlight)
	router.DELETE("/flights/:id", h.removeFlight)
	router.GET("/payments", h.payments)
}

func (h *AdminHandler) listRequests(c *gin.Context) {
	list, err := h.cancellations.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]requestResponse, 0, len(list))
	for _, r := range list {
		out = append(out, toRequestResponse(r))
	}
	c.JSON(http.StatusOK, out)
}

func (h *AdminHandler) approve(c *gin.Context) {
	ref := c.Param("ref")
	if err := h.cancellations.Approve(c.Request.Context(), ref); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ref_no": ref, "status": "approved"})
}

func (h *AdminHandler) reject(c *gin.Context) {
	ref := c.Param("ref")
	if err := h.cancellations.Reject(c.Request.Context(), ref); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ref_no": ref, "status": "rejected"})
}

func (h *AdminHandler) addFlight(c *gin.Context) {
	var req addFlightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	price, err := domain.ParseCents(req.Price)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	flight, err := h.flights.Add(c.Request.Context(), domain.NewFlightInput{
		ID:          req.ID,
		Date:        req.Date,
		Time:        req.Time,
		Source:      req.Source,
		Destination: req.Destination,
		PriceCents:  price,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toFlightResponse(*flight))
}

func (h *AdminHandler) removeFlight(c *gin.Context) {
	if err := h.flights.Remove(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *AdminHandler) payments(c *gin.Context) {
	ctx := c.Request.Context()
	list, err := h.bookings.List(ctx)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, paymentsResponse{
		Bookings: len(list),
		Total:    domain.FormatCents(h.bookings.TotalPayments(ctx)),
	})
}

func toRequestResponse(r domain.CancelRequest) requestResponse {
	return requestResponse{
		RefNo:    r.RefNo,
		Name:     r.Name,
		FlightID: r.FlightID,
		Date:     r.Date,
		Payment:  domain.FormatCents(r.PaymentCents),
	}
}
