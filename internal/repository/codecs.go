package repository

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Domenick1991/arsconsole/internal/domain"
)

// FlightCodec reads and writes flights.csv lines:
// flightID,date,time,source,destination,price
type FlightCodec struct{}

func (FlightCodec) Encode(f domain.Flight) []string {
	return []string{f.ID, f.Date, f.Time, f.Source, f.Destination, domain.FormatCents(f.PriceCents)}
}

func (FlightCodec) Decode(fields []string) (domain.Flight, error) {
	if len(fields) != 6 {
		return domain.Flight{}, fieldCountError(6, len(fields))
	}
	price, err := domain.ParseCents(fields[5])
	if err != nil {
		return domain.Flight{}, fmt.Errorf("price: %w", err)
	}
	if fields[0] == "" {
		return domain.Flight{}, fmt.Errorf("empty flight id")
	}
	return domain.Flight{
		ID:          fields[0],
		Date:        fields[1],
		Time:        fields[2],
		Source:      fields[3],
		Destination: fields[4],
		PriceCents:  price,
	}, nil
}

// BookingCodec reads and writes details.csv lines:
// refNo,name,flightID,date,seatNumber,payment,cancelRequested
//
// Six-field lines without the seat number are still read; their seat is 0.
type BookingCodec struct{}

func (BookingCodec) Encode(b domain.Booking) []string {
	return []string{
		b.RefNo,
		b.Name,
		b.FlightID,
		b.Date,
		strconv.Itoa(b.SeatNumber),
		domain.FormatCents(b.PaymentCents),
		formatFlag(b.CancelRequested),
	}
}

func (BookingCodec) Decode(fields []string) (domain.Booking, error) {
	var seatField string
	switch len(fields) {
	case 7:
		seatField = fields[4]
		fields = append(fields[:4:4], fields[5:]...)
	case 6:
	default:
		return domain.Booking{}, fieldCountError(7, len(fields))
	}

	b := domain.Booking{
		RefNo:    fields[0],
		Name:     fields[1],
		FlightID: fields[2],
		Date:     fields[3],
	}
	if b.RefNo == "" {
		return domain.Booking{}, fmt.Errorf("empty reference number")
	}
	if seatField != "" {
		seat, err := strconv.Atoi(strings.TrimSpace(seatField))
		if err != nil || seat < 1 || seat > domain.SeatCapacity {
			return domain.Booking{}, fmt.Errorf("invalid seat number %q", seatField)
		}
		b.SeatNumber = seat
	}

	payment, err := domain.ParseCents(fields[4])
	if err != nil {
		return domain.Booking{}, fmt.Errorf("payment: %w", err)
	}
	b.PaymentCents = payment

	flag, err := parseFlag(fields[5])
	if err != nil {
		return domain.Booking{}, err
	}
	b.CancelRequested = flag
	return b, nil
}

// CancelRequestCodec reads and writes cancellation_requests.csv lines:
// refNo,name,flightID,date,payment
type CancelRequestCodec struct{}

func (CancelRequestCodec) Encode(r domain.CancelRequest) []string {
	return []string{r.RefNo, r.Name, r.FlightID, r.Date, domain.FormatCents(r.PaymentCents)}
}

func (CancelRequestCodec) Decode(fields []string) (domain.CancelRequest, error) {
	if len(fields) != 5 {
		return domain.CancelRequest{}, fieldCountError(5, len(fields))
	}
	if fields[0] == "" {
		return domain.CancelRequest{}, fmt.Errorf("empty reference number")
	}
	payment, err := domain.ParseCents(fields[4])
	if err != nil {
		return domain.CancelRequest{}, fmt.Errorf("payment: %w", err)
	}
	return domain.CancelRequest{
		RefNo:        fields[0],
		Name:         fields[1],
		FlightID:     fields[2],
		Date:         fields[3],
		PaymentCents: payment,
	}, nil
}

func fieldCountError(want, got int) error {
	return fmt.Errorf("expected %d fields, got %d", want, got)
}

func formatFlag(v bool) string {
	if v {
		return "1"
	}
	return "0"
}

func parseFlag(s string) (bool, error) {
	switch strings.TrimSpace(s) {
	case "0":
		return false, nil
	case "1":
		return true, nil
	default:
		return false, fmt.Errorf("invalid cancel flag %q", s)
	}
}

var (
	_ Codec[domain.Flight]        = FlightCodec{}
	_ Codec[domain.Booking]       = BookingCodec{}
	_ Codec[domain.CancelRequest] = CancelRequestCodec{}
)
