package repository

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/Domenick1991/arsconsole/internal/domain"
	"github.com/Domenick1991/arsconsole/internal/logger"
)

// Codec maps one record type to the fields of a line.
type Codec[T any] interface {
	Encode(rec T) []string
	// Decode returns an error for a line that does not describe a record,
	// including one with the wrong number of fields.
	Decode(fields []string) (T, error)
}

// RecordRepository is the persistence surface the services depend on.
type RecordRepository[T any] interface {
	Load() ([]T, error)
	Append(rec T) error
	RewriteAll(recs []T) error
	RemoveWhere(pred func(T) bool) (int, error)
}

// RecordFile stores a homogeneous list of records as an unquoted
// comma-separated file, one record per line. Fields are written and read
// back byte for byte: quotes and surrounding spaces are data. Fields never
// contain commas or line breaks; callers validate that before records reach
// the file.
type RecordFile[T any] struct {
	path  string
	codec Codec[T]
	log   *slog.Logger
}

func NewRecordFile[T any](path string, codec Codec[T], log *slog.Logger) *RecordFile[T] {
	return &RecordFile[T]{path: path, codec: codec, log: log}
}

func (f *RecordFile[T]) Path() string { return f.path }

// Load returns the records in file order. A missing file holds no records.
// Lines that do not decode are logged and skipped.
func (f *RecordFile[T]) Load() ([]T, error) {
	file, err := os.Open(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, &domain.FileError{Op: "open", Path: f.path, Err: err}
	}
	defer file.Close()

	var recs []T
	err = f.scan(file, func(lineNo int, line string, rec T, decodeErr error) error {
		if decodeErr != nil {
			f.log.Warn("skipping malformed record",
				slog.String("path", f.path),
				slog.Int("line", lineNo),
				logger.Err(decodeErr),
			)
			return nil
		}
		recs = append(recs, rec)
		return nil
	})
	if err != nil {
		return nil, &domain.FileError{Op: "read", Path: f.path, Err: err}
	}
	return recs, nil
}

// EnsureExists creates an empty file if none is present.
func (f *RecordFile[T]) EnsureExists() error {
	file, err := os.OpenFile(f.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return &domain.FileError{Op: "create", Path: f.path, Err: err}
	}
	return file.Close()
}

func (f *RecordFile[T]) Append(rec T) error {
	file, err := os.OpenFile(f.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return &domain.FileError{Op: "open", Path: f.path, Err: err}
	}

	line := encodeLine(f.codec.Encode(rec))
	if _, err := file.WriteString(line); err != nil {
		file.Close()
		return &domain.FileError{Op: "append", Path: f.path, Err: err}
	}
	if err := file.Close(); err != nil {
		return &domain.FileError{Op: "close", Path: f.path, Err: err}
	}
	return nil
}

// RewriteAll replaces the whole file with recs.
func (f *RecordFile[T]) RewriteAll(recs []T) error {
	return replaceFile(f.path, func(w *bufio.Writer) error {
		for _, rec := range recs {
			if _, err := w.WriteString(encodeLine(f.codec.Encode(rec))); err != nil {
				return err
			}
		}
		return nil
	})
}

// RemoveWhere copies the file without the records matching pred and renames
// the copy over the original. Lines that do not decode are kept as they are.
func (f *RecordFile[T]) RemoveWhere(pred func(T) bool) (int, error) {
	src, err := os.Open(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, &domain.FileError{Op: "open", Path: f.path, Err: err}
	}
	defer src.Close()

	removed := 0
	err = replaceFile(f.path, func(w *bufio.Writer) error {
		return f.scan(src, func(_ int, line string, rec T, decodeErr error) error {
			if decodeErr == nil && pred(rec) {
				removed++
				return nil
			}
			_, err := w.WriteString(line + "\n")
			return err
		})
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

func (f *RecordFile[T]) scan(r io.Reader, fn func(lineNo int, line string, rec T, decodeErr error) error) error {
	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		rec, err := f.codec.Decode(strings.Split(line, ","))
		if err := fn(lineNo, line, rec, err); err != nil {
			return err
		}
	}
	return sc.Err()
}

func encodeLine(fields []string) string {
	return strings.Join(fields, ",") + "\n"
}

// replaceFile writes a sibling temp file through write, syncs it and renames
// it over path. The original is untouched if any step fails.
func replaceFile(path string, write func(w *bufio.Writer) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return &domain.FileError{Op: "create temp for", Path: path, Err: err}
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	w := bufio.NewWriter(tmp)
	if err := write(w); err != nil {
		return &domain.FileError{Op: "write", Path: path, Err: err}
	}
	if err := w.Flush(); err != nil {
		return &domain.FileError{Op: "write", Path: path, Err: err}
	}
	if err := tmp.Sync(); err != nil {
		return &domain.FileError{Op: "sync", Path: path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &domain.FileError{Op: "close", Path: path, Err: err}
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return &domain.FileError{Op: "rename", Path: path, Err: fmt.Errorf("from %s: %w", tmpPath, err)}
	}
	success = true
	return nil
}

var (
	_ RecordRepository[domain.Flight]        = (*RecordFile[domain.Flight])(nil)
	_ RecordRepository[domain.Booking]       = (*RecordFile[domain.Booking])(nil)
	_ RecordRepository[domain.CancelRequest] = (*RecordFile[domain.CancelRequest])(nil)
)
