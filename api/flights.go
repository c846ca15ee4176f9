package api

import (
	"net/http"

	"github.com/Domenick1991/arsconsole/internal/domain"
	"github.com/Domenick1991/arsconsole/internal/service/flights"
	"github.com/Domenick1991/arsconsole/internal/service/seats"
	"github.com/gin-gonic/gin"
)

type FlightHandler struct {
	service flights.FlightUseCase
	seats   seats.SeatUseCase
}

type flightResponse struct {
	ID          string `json:"flight_id"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	Source      string `json:"source"`
	Destination string `json:"destination"`
	Price       string `json:"price"`
}

type seatMapResponse struct {
	FlightID  string        `json:"flight_id"`
	Available int           `json:"available"`
	Seats     []domain.Seat `json:"seats"`
}

func NewFlightHandler(service flights.FlightUseCase, seats seats.SeatUseCase) *FlightHandler {
	return &FlightHandler{service: service, seats: seats}
}

func (h *FlightHandler) Register(router *gin.RouterGroup) {
	router.GET("", h.list)
	router.GET("/:id", h.get)
	router.GET("/:id/seats", h.seatMap)
}

func (h *FlightHandler) list(c *gin.Context) {
	list, err := h.service.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]flightResponse, 0, len(list))
	for _, f := range list {
		out = append(out, toFlightResponse(f))
	}
	c.JSON(http.StatusOK, out)
}

func (h *FlightHandler) get(c *gin.Context) {
	flight, err := h.service.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toFlightResponse(*flight))
}

func (h *FlightHandler) seatMap(c *gin.Context) {
	ctx := c.Request.Context()
	flight, err := h.service.GetByID(ctx, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	m, err := h.seats.Load(ctx, flight.ID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, seatMapResponse{FlightID: m.FlightID, Available: m.Available(), Seats: m.Seats})
}

func toFlightResponse(f domain.Flight) flightResponse {
	return flightResponse{
		ID:          f.ID,
		Date:        f.Date,
		Time:        f.Time,
		Source:      f.Source,
		Destination: f.Destination,
		Price:       domain.FormatCents(f.PriceCents),
	}
}
