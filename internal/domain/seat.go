package domain

import "fmt"

// SeatCapacity is the number of seats every flight is created with.
const SeatCapacity = 200

type SeatStatus int

const (
	SeatAvailable SeatStatus = iota
	SeatBooked
)

func (s SeatStatus) String() string {
	switch s {
	case SeatAvailable:
		return "Available"
	case SeatBooked:
		return "Booked"
	default:
		return fmt.Sprintf("SeatStatus(%d)", int(s))
	}
}

func (s SeatStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func ParseSeatStatus(s string) (SeatStatus, error) {
	switch s {
	case "Available":
		return SeatAvailable, nil
	case "Booked":
		return SeatBooked, nil
	default:
		return 0, fmt.Errorf("unknown seat status %q", s)
	}
}

type Seat struct {
	Number int        `json:"number"`
	Status SeatStatus `json:"status"`
}

// SeatMap holds the seats of one flight ordered by number. Seats[i].Number
// is always i+1.
type SeatMap struct {
	FlightID string `json:"flight_id"`
	Seats    []Seat `json:"seats"`
}

func NewSeatMap(flightID string) *SeatMap {
	seats := make([]Seat, SeatCapacity)
	for i := range seats {
		seats[i] = Seat{Number: i + 1, Status: SeatAvailable}
	}
	return &SeatMap{FlightID: flightID, Seats: seats}
}

func (m *SeatMap) IsAvailable(number int) bool {
	if m == nil || number < 1 || number > len(m.Seats) {
		return false
	}
	return m.Seats[number-1].Status == SeatAvailable
}

func (m *SeatMap) Available() int {
	n := 0
	for _, s := range m.Seats {
		if s.Status == SeatAvailable {
			n++
		}
	}
	return n
}

// Set changes the status of one seat and reports whether the seat exists.
func (m *SeatMap) Set(number int, status SeatStatus) bool {
	if number < 1 || number > len(m.Seats) {
		return false
	}
	m.Seats[number-1].Status = status
	return true
}
