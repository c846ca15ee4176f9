package console

import (
	"context"
	"fmt"

	"github.com/Domenick1991/arsconsole/internal/domain"
)

func (c *Console) adminMenu(ctx context.Context) error {
	for {
		c.heading.Fprintln(c.out, "\n=== Admin Menu ===")
		c.println("1. View Cancellation Requests")
		c.println("2. Approve Cancellation Request")
		c.println("3. Reject Cancellation Request")
		c.println("4. Add Flight")
		c.println("5. Remove Flight")
		c.println("6. View Total Payments")
		c.println("7. View Available Flights")
		c.println("8. Exit")

		choice, err := c.prompt("Enter your choice: ")
		if err != nil {
			return err
		}

		switch choice {
		case "1":
			c.showRequests(ctx)
		case "2":
			err = c.approve(ctx)
		case "3":
			err = c.reject(ctx)
		case "4":
			err = c.addFlight(ctx)
		case "5":
			err = c.removeFlight(ctx)
		case "6":
			fmt.Fprintf(c.out, "Total payments: %s\n", domain.FormatCents(c.svc.Bookings.TotalPayments(ctx)))
		case "7":
			c.showFlights(ctx)
		case "8":
			return nil
		default:
			c.failure.Fprintln(c.out, "Invalid choice.")
		}
		if err != nil {
			return err
		}
	}
}

func (c *Console) showRequests(ctx context.Context) {
	list, err := c.svc.Cancellations.List(ctx)
	if err != nil {
		c.report(err)
		return
	}

	c.heading.Fprintln(c.out, "\n=== Cancellation Requests ===")
	if len(list) == 0 {
		c.println("No cancellation requests found.")
		return
	}
	for _, r := range list {
		fmt.Fprintf(c.out, "RefNo: %s | Name: %s | FlightID: %s | Date: %s | Payment: %s Rs\n",
			r.RefNo, r.Name, r.FlightID, r.Date, domain.FormatCents(r.PaymentCents))
	}
}

func (c *Console) approve(ctx context.Context) error {
	ref, err := c.prompt("\nEnter Reference Number to Approve Cancellation: ")
	if err != nil {
		return err
	}
	if err := c.svc.Cancellations.Approve(ctx, ref); err != nil {
		c.report(err)
		return nil
	}
	c.success.Fprintf(c.out, "Booking %s cancellation approved.\n", ref)
	return nil
}

func (c *Console) reject(ctx context.Context) error {
	ref, err := c.prompt("\nEnter Reference Number to Reject Cancellation: ")
	if err != nil {
		return err
	}
	if err := c.svc.Cancellations.Reject(ctx, ref); err != nil {
		c.report(err)
		return nil
	}
	c.success.Fprintf(c.out, "Cancellation request for %s rejected.\n", ref)
	return nil
}

func (c *Console) addFlight(ctx context.Context) error {
	var input domain.NewFlightInput
	fields := []struct {
		label string
		dst   *string
	}{
		{"Enter Flight ID: ", &input.ID},
		{"Enter Date (DD/MM/YYYY): ", &input.Date},
		{"Enter Time (HH:MM): ", &input.Time},
		{"Enter Source: ", &input.Source},
		{"Enter Destination: ", &input.Destination},
	}
	for _, f := range fields {
		v, err := c.prompt(f.label)
		if err != nil {
			return err
		}
		*f.dst = v
	}

	price, err := c.prompt("Enter Price: ")
	if err != nil {
		return err
	}
	cents, parseErr := domain.ParseCents(price)
	if parseErr != nil {
		c.failure.Fprintf(c.out, "Invalid price: %v\n", parseErr)
		return nil
	}
	input.PriceCents = cents

	flight, err := c.svc.Flights.Add(ctx, input)
	if err != nil {
		c.report(err)
		return nil
	}
	c.success.Fprintf(c.out, "Flight '%s' added successfully with %d seats initialized as available.\n", flight.ID, domain.SeatCapacity)
	return nil
}

func (c *Console) removeFlight(ctx context.Context) error {
	id, err := c.prompt("Enter the flight ID to remove: ")
	if err != nil {
		return err
	}
	if err := c.svc.Flights.Remove(ctx, id); err != nil {
		c.report(err)
		return nil
	}
	c.success.Fprintln(c.out, "Flight removed successfully.")
	return nil
}
