package domain

type Booking struct {
	RefNo           string `json:"ref_no"`
	Name            string `json:"name"`
	FlightID        string `json:"flight_id"`
	Date            string `json:"date"`
	SeatNumber      int    `json:"seat_number"`
	PaymentCents    int64  `json:"payment_cents"`
	CancelRequested bool   `json:"cancel_requested"`
}

type NewBookingInput struct {
	Name       string `json:"name" validate:"required,max=29,csvsafe"`
	FlightID   string `json:"flight_id" validate:"required,max=9,alphanum"`
	SeatNumber int    `json:"seat_number" validate:"gte=1,lte=200"`
}

// CancelRequest is a snapshot of a booking taken when its holder asked for
// a cancellation. It is not updated if the booking changes afterwards.
type CancelRequest struct {
	RefNo        string `json:"ref_no"`
	Name         string `json:"name"`
	FlightID     string `json:"flight_id"`
	Date         string `json:"date"`
	PaymentCents int64  `json:"payment_cents"`
}

func (b Booking) CancelRequest() CancelRequest {
	return CancelRequest{
		RefNo:        b.RefNo,
		Name:         b.Name,
		FlightID:     b.FlightID,
		Date:         b.Date,
		PaymentCents: b.PaymentCents,
	}
}
