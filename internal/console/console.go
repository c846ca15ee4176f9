package console

import (
	"bufio"
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/Domenick1991/arsconsole/internal/domain"
	"github.com/Domenick1991/arsconsole/internal/logger"
	"github.com/Domenick1991/arsconsole/internal/service/booking"
	"github.com/Domenick1991/arsconsole/internal/service/cancellation"
	"github.com/Domenick1991/arsconsole/internal/service/flights"
	"github.com/Domenick1991/arsconsole/internal/service/seats"
	"github.com/fatih/color"
)

const paymentWord = "PAY"

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

// Console runs the interactive menus over one input and one output stream.
// Failed operations print a message and return to the menu.
type Console struct {
	in    *bufio.Scanner
	out   io.Writer
	svc   Services
	admin Credentials
	log   *slog.Logger

	heading *color.Color
	success *color.Color
	failure *color.Color
	booked  *color.Color
}

func New(in io.Reader, out io.Writer, svc Services, admin Credentials, log *slog.Logger) *Console {
	return &Console{
		in:      bufio.NewScanner(in),
		out:     out,
		svc:     svc,
		admin:   admin,
		log:     log,
		heading: color.New(color.FgCyan, color.Bold),
		success: color.New(color.FgGreen),
		failure: color.New(color.FgRed),
		booked:  color.New(color.FgRed, color.Bold),
	}
}

// Run shows the main menu until the user exits or the input ends.
func (c *Console) Run(ctx context.Context) error {
	for {
		c.println()
		c.println("1. View Available Flights")
		c.println("2. Book Flight")
		c.println("3. View Ticket")
		c.println("4. Cancel Booking")
		c.println("5. Admin Menu")
		c.println("6. Exit")

		choice, err := c.prompt("Enter your choice: ")
		if err != nil {
			return ignoreEOF(err)
		}

		switch choice {
		case "1":
			c.showFlights(ctx)
		case "2":
			err = c.bookFlight(ctx)
		case "3":
			err = c.viewTicket(ctx)
		case "4":
			err = c.cancelBooking(ctx)
		case "5":
			err = c.adminLogin(ctx)
		case "6":
			c.println("Exiting...")
			return nil
		default:
			c.failure.Fprintln(c.out, "Invalid choice. Try again.")
		}
		if err != nil {
			return ignoreEOF(err)
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

func (c *Console) showFlights(ctx context.Context) {
	list, err := c.svc.Flights.List(ctx)
	if err != nil {
		c.report(err)
		return
	}

	c.heading.Fprintln(c.out, "\n=== Available Flights ===")
	if len(list) == 0 {
		c.println("No flights available.")
		return
	}
	fmt.Fprintf(c.out, "%-9s | %-15s | %-15s | %-10s | %-5s | %s\n", "FlightID", "Source", "Destination", "Date", "Time", "Price")
	for _, f := range list {
		fmt.Fprintf(c.out, "%-9s | %-15s | %-15s | %-10s | %-5s | %s\n",
			f.ID, f.Source, f.Destination, f.Date, f.Time, domain.FormatCents(f.PriceCents))
	}
}

func (c *Console) bookFlight(ctx context.Context) error {
	c.showFlights(ctx)

	flightID, err := c.prompt("\nEnter Flight ID to book: ")
	if err != nil {
		return err
	}
	flight, err := c.svc.Flights.GetByID(ctx, flightID)
	if err != nil {
		c.report(err)
		return nil
	}
	seatMap, err := c.svc.Seats.Load(ctx, flight.ID)
	if err != nil {
		c.report(err)
		return nil
	}
	c.printSeats(seatMap)

	answer, err := c.prompt("\nEnter seat number to book: ")
	if err != nil {
		return err
	}
	seat, convErr := strconv.Atoi(answer)
	if convErr != nil || !seatMap.IsAvailable(seat) {
		c.report(domain.ErrSeatUnavailable)
		return nil
	}

	name, err := c.prompt("Enter your name: ")
	if err != nil {
		return err
	}

	var promptErr error
	confirm := func(_ context.Context, amountCents int64) (bool, error) {
		answer, err := c.prompt(fmt.Sprintf("Pay amount %s (type %s to confirm payment): ", domain.FormatCents(amountCents), paymentWord))
		if err != nil {
			promptErr = err
			return false, err
		}
		return strings.EqualFold(answer, paymentWord), nil
	}

	b, err := c.svc.Bookings.CreateBooking(ctx, domain.NewBookingInput{
		Name:       name,
		FlightID:   flight.ID,
		SeatNumber: seat,
	}, confirm)
	if promptErr != nil {
		return promptErr
	}
	if err != nil {
		c.report(err)
		return nil
	}

	c.success.Fprintf(c.out, "Booking successful! Your reference number is: %s\n", b.RefNo)
	c.success.Fprintf(c.out, "Seat %d booked successfully on flight %s.\n", b.SeatNumber, b.FlightID)
	return nil
}

// printSeats lays the seats out ten per row, booked seats as X.
func (c *Console) printSeats(m *domain.SeatMap) {
	c.heading.Fprintf(c.out, "\nAvailable Seats (X = Booked), %d free:\n\n", m.Available())
	for i, s := range m.Seats {
		if s.Status == domain.SeatBooked {
			c.booked.Fprintf(c.out, "%5s", "X")
		} else {
			fmt.Fprintf(c.out, "%5d", s.Number)
		}
		if (i+1)%10 == 0 {
			c.println()
		}
	}
}

func (c *Console) viewTicket(ctx context.Context) error {
	ref, err := c.prompt("\nEnter Reference Number: ")
	if err != nil {
		return err
	}
	b, err := c.svc.Bookings.GetByRef(ctx, ref)
	if err != nil {
		c.report(err)
		return nil
	}

	c.heading.Fprintln(c.out, "\n=== Booking Details ===")
	fmt.Fprintf(c.out, "Reference Number: %s\n", b.RefNo)
	fmt.Fprintf(c.out, "Name: %s\n", b.Name)
	fmt.Fprintf(c.out, "Flight ID: %s\n", b.FlightID)
	fmt.Fprintf(c.out, "Date: %s\n", b.Date)
	if b.SeatNumber > 0 {
		fmt.Fprintf(c.out, "Seat: %d\n", b.SeatNumber)
	}
	fmt.Fprintf(c.out, "Payment: %s Rs\n", domain.FormatCents(b.PaymentCents))
	if b.CancelRequested {
		c.println("Cancellation: requested, awaiting approval")
	}
	return nil
}

func (c *Console) cancelBooking(ctx context.Context) error {
	ref, err := c.prompt("\nEnter Reference Number to Request Cancellation: ")
	if err != nil {
		return err
	}
	if _, err := c.svc.Cancellations.RequestCancellation(ctx, ref); err != nil {
		c.report(err)
		return nil
	}
	c.success.Fprintln(c.out, "Cancellation request sent to admin for approval.")
	return nil
}

func (c *Console) adminLogin(ctx context.Context) error {
	c.heading.Fprintln(c.out, "\n=== Admin Authentication ===")
	username, err := c.prompt("Enter Admin Username: ")
	if err != nil {
		return err
	}
	password, err := c.prompt("Enter Admin Password: ")
	if err != nil {
		return err
	}

	if !c.authenticate(username, password) {
		c.log.Warn("admin login failed", slog.String("username", username))
		c.failure.Fprintln(c.out, "Invalid credentials. Access denied.")
		return nil
	}
	c.success.Fprintln(c.out, "Authentication successful. Welcome, Admin!")
	return c.adminMenu(ctx)
}

func (c *Console) authenticate(username, password string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(c.admin.Username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(c.admin.Password)) == 1
	return userOK && passOK
}

func (c *Console) prompt(label string) (string, error) {
	fmt.Fprint(c.out, label)
	if !c.in.Scan() {
		if err := c.in.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimSpace(c.in.Text()), nil
}

func (c *Console) println(a ...any) {
	fmt.Fprintln(c.out, a...)
}

// report prints the user-facing message for err. Storage failures are also
// logged.
func (c *Console) report(err error) {
	var partial *domain.PartialApprovalError
	var msg string
	switch {
	case errors.As(err, &partial):
		if partial.BookingRemoved {
			msg = fmt.Sprintf("Booking %s removed, but no cancellation request was queued for it.", partial.RefNo)
		} else {
			msg = fmt.Sprintf("Cancellation request %s removed, but the booking no longer exists.", partial.RefNo)
		}
	case errors.Is(err, domain.ErrFlightNotFound):
		msg = "Flight not found."
	case errors.Is(err, domain.ErrBookingNotFound):
		msg = "No booking found with the given reference number."
	case errors.Is(err, domain.ErrRequestNotFound):
		msg = "Booking not found."
	case errors.Is(err, domain.ErrSeatFileMissing):
		msg = "Error: Seat data for flight not found."
	case errors.Is(err, domain.ErrSeatUnavailable):
		msg = "Invalid or already booked seat."
	case errors.Is(err, domain.ErrPaymentDeclined):
		msg = "Payment not confirmed. Booking cancelled."
	case errors.Is(err, domain.ErrCancellationPending):
		msg = "A cancellation request for this booking is already pending."
	case errors.Is(err, domain.ErrFlightExists):
		msg = "A flight with this ID already exists."
	case errors.Is(err, domain.ErrFlightHasBookings):
		msg = "Flight still has bookings and cannot be removed."
	case errors.Is(err, domain.ErrValidation):
		msg = "Invalid input: " + strings.TrimPrefix(err.Error(), domain.ErrValidation.Error()+": ")
	default:
		c.log.Error("operation failed", logger.Err(err))
		msg = "Error: " + err.Error()
	}
	c.failure.Fprintln(c.out, msg)
}

func ignoreEOF(err error) error {
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
