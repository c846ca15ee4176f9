package repository

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Domenick1991/arsconsole/internal/domain"
)

const seatFileHeader = "SeatNumber,Status"

type SeatRepository interface {
	Create(flightID string) error
	Load(flightID string) (*domain.SeatMap, error)
	Save(m *domain.SeatMap) error
	Delete(flightID string) error
}

// SeatFileRepository keeps one <flightID><suffix> file per flight in dir.
type SeatFileRepository struct {
	dir    string
	suffix string
}

func NewSeatFileRepository(dir, suffix string) *SeatFileRepository {
	return &SeatFileRepository{dir: dir, suffix: suffix}
}

func (r *SeatFileRepository) Path(flightID string) string {
	return filepath.Join(r.dir, flightID+r.suffix)
}

// Create writes a seat file with every seat available, replacing any file
// left behind for the same flight ID.
func (r *SeatFileRepository) Create(flightID string) error {
	return r.Save(domain.NewSeatMap(flightID))
}

func (r *SeatFileRepository) Load(flightID string) (*domain.SeatMap, error) {
	path := r.Path(flightID)
	file, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", domain.ErrSeatFileMissing, flightID)
	}
	if err != nil {
		return nil, &domain.FileError{Op: "open", Path: path, Err: err}
	}
	defer file.Close()

	m := &domain.SeatMap{FlightID: flightID, Seats: make([]domain.Seat, domain.SeatCapacity)}
	seen := make([]bool, domain.SeatCapacity)
	count := 0

	sc := bufio.NewScanner(file)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if lineNo == 1 {
			continue
		}
		if line == "" {
			continue
		}

		numField, statusField, ok := strings.Cut(line, ",")
		if !ok {
			return nil, malformed(path, lineNo, "missing status")
		}
		num, err := strconv.Atoi(strings.TrimSpace(numField))
		if err != nil || num < 1 || num > domain.SeatCapacity {
			return nil, malformed(path, lineNo, fmt.Sprintf("seat number %q out of range", numField))
		}
		if seen[num-1] {
			return nil, malformed(path, lineNo, fmt.Sprintf("duplicate seat %d", num))
		}
		status, err := domain.ParseSeatStatus(strings.TrimSpace(statusField))
		if err != nil {
			return nil, malformed(path, lineNo, err.Error())
		}

		seen[num-1] = true
		m.Seats[num-1] = domain.Seat{Number: num, Status: status}
		count++
	}
	if err := sc.Err(); err != nil {
		return nil, &domain.FileError{Op: "read", Path: path, Err: err}
	}
	if count != domain.SeatCapacity {
		return nil, fmt.Errorf("%w: %s has %d seats, want %d", domain.ErrMalformedSeatFile, path, count, domain.SeatCapacity)
	}
	return m, nil
}

func (r *SeatFileRepository) Save(m *domain.SeatMap) error {
	return replaceFile(r.Path(m.FlightID), func(w *bufio.Writer) error {
		if _, err := w.WriteString(seatFileHeader + "\n"); err != nil {
			return err
		}
		for _, s := range m.Seats {
			if _, err := fmt.Fprintf(w, "%d,%s\n", s.Number, s.Status); err != nil {
				return err
			}
		}
		return nil
	})
}

// Delete removes the seat file. Deleting a file that does not exist is not
// an error.
func (r *SeatFileRepository) Delete(flightID string) error {
	path := r.Path(flightID)
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return &domain.FileError{Op: "remove", Path: path, Err: err}
	}
	return nil
}

func malformed(path string, lineNo int, reason string) error {
	return fmt.Errorf("%w: %s line %d: %s", domain.ErrMalformedSeatFile, path, lineNo, reason)
}

var _ SeatRepository = (*SeatFileRepository)(nil)
