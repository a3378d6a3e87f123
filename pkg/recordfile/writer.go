package recordfile

import (
	"errors"
	"io"
	"os"
	"sync"

	"github.com/fxamacker/cbor/v2"

	"github.com/thermostart/otdecode/pkg/message"
	"github.com/thermostart/otdecode/pkg/version"
)

// ErrClosed is returned when writing to a closed Writer.
var ErrClosed = errors.New("recordfile: writer closed")

// Writer appends records to a record file.
// It is safe for concurrent use from multiple goroutines.
type Writer struct {
	closer  io.Closer
	encoder *cbor.Encoder
	count   int
	mu      sync.Mutex
	closed  bool
}

// NewWriter creates a Writer for the specified path. If the file exists, new
// records are appended. The file is created with permissions 0644 if it
// doesn't exist.
func NewWriter(path string) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	return &Writer{
		closer:  f,
		encoder: NewEncoder(f),
	}, nil
}

// NewStreamWriter creates a Writer on top of w. Close does not close w.
func NewStreamWriter(w io.Writer) *Writer {
	return &Writer{encoder: NewEncoder(w)}
}

// Write appends a record tagged with the current schema version.
func (w *Writer) Write(rec message.Record) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrClosed
	}
	if err := w.encoder.Encode(Entry{SchemaVersion: version.Current, Record: rec}); err != nil {
		return err
	}
	w.count++
	return nil
}

// Count returns the number of records written so far.
func (w *Writer) Count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.count
}

// Close closes the underlying file.
// It is safe to call Close multiple times.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}

	w.closed = true
	if w.closer == nil {
		return nil
	}
	return w.closer.Close()
}
