package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

type Flight struct {
	ID          string `json:"flight_id"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	Source      string `json:"source"`
	Destination string `json:"destination"`
	PriceCents  int64  `json:"price_cents"`
}

// NewFlightInput carries the admin's "add flight" form. Length limits match
// the fixed-width fields of the reservation record layout.
type NewFlightInput struct {
	ID          string `json:"flight_id" validate:"required,max=9,alphanum"`
	Date        string `json:"date" validate:"required,max=14,csvsafe"`
	Time        string `json:"time" validate:"required,max=9,csvsafe"`
	Source      string `json:"source" validate:"required,max=29,csvsafe"`
	Destination string `json:"destination" validate:"required,max=29,csvsafe"`
	PriceCents  int64  `json:"price_cents" validate:"gte=0"`
}

func (in NewFlightInput) Flight() Flight {
	return Flight{
		ID:          in.ID,
		Date:        in.Date,
		Time:        in.Time,
		Source:      in.Source,
		Destination: in.Destination,
		PriceCents:  in.PriceCents,
	}
}

// FormatCents renders an amount with two decimal places, e.g. 10050 -> "100.50".
func FormatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

// ParseCents accepts "100", "100.5" and "100.50". Only digits and one
// decimal point are allowed, so amounts are never negative.
func ParseCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty amount")
	}

	whole, frac, hasFrac := strings.Cut(s, ".")
	if whole == "" {
		whole = "0"
	}
	if !isDigits(whole) {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	if units > maxUnits {
		return 0, fmt.Errorf("amount %q out of range", s)
	}

	var cents int64
	if hasFrac {
		if len(frac) == 0 || len(frac) > 2 || !isDigits(frac) {
			return 0, fmt.Errorf("invalid amount %q: want at most two decimal places", s)
		}
		if len(frac) == 1 {
			frac += "0"
		}
		cents, _ = strconv.ParseInt(frac, 10, 64)
	}
	return units*100 + cents, nil
}

const maxUnits = (math.MaxInt64 - 99) / 100

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}
