package domain

import (
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("not found")

var (
	ErrFlightNotFound  = fmt.Errorf("flight %w", ErrNotFound)
	ErrBookingNotFound = fmt.Errorf("booking %w", ErrNotFound)
	ErrRequestNotFound = fmt.Errorf("cancellation request %w", ErrNotFound)
)

var (
	ErrSeatUnavailable   = errors.New("seat is invalid or already booked")
	ErrSeatFileMissing   = errors.New("seat data for flight not found")
	ErrMalformedSeatFile = errors.New("malformed seat file")
)

var (
	ErrFlightExists        = errors.New("flight already exists")
	ErrFlightHasBookings   = errors.New("flight still has bookings")
	ErrPaymentDeclined     = errors.New("payment not confirmed")
	ErrCancellationPending = errors.New("cancellation already requested")
	ErrRefNoExhausted      = errors.New("could not generate a unique reference number")
	ErrPartialApproval     = errors.New("cancellation only partially approved")
)

var (
	ErrValidation = errors.New("validation error")
	ErrFileAccess = errors.New("file access error")
)

// FileError reports a storage failure on one of the reservation files.
type FileError struct {
	Op   string
	Path string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *FileError) Unwrap() error { return e.Err }

func (e *FileError) Is(target error) bool { return target == ErrFileAccess }

// PartialApprovalError is returned when an approved reference was present on
// only one side: the booking ledger or the cancellation queue.
type PartialApprovalError struct {
	RefNo          string
	BookingRemoved bool
	RequestRemoved bool
}

func (e *PartialApprovalError) Error() string {
	missing := "booking"
	if e.BookingRemoved {
		missing = "cancellation request"
	}
	return fmt.Sprintf("approve %s: %s not found", e.RefNo, missing)
}

func (e *PartialApprovalError) Is(target error) bool { return target == ErrPartialApproval }
