package sink

import (
	"context"

	"github.com/thermostart/otdecode/pkg/message"
	"github.com/thermostart/otdecode/pkg/recordfile"
)

// File writes records to a CBOR record file.
type File struct {
	w *recordfile.Writer
}

// NewFile wraps a record file writer. Close closes the writer.
func NewFile(w *recordfile.Writer) *File {
	return &File{w: w}
}

// OpenFile opens path for appending and returns a File sink on it.
func OpenFile(path string) (*File, error) {
	w, err := recordfile.NewWriter(path)
	if err != nil {
		return nil, err
	}
	return NewFile(w), nil
}

// Write implements Sink.
func (f *File) Write(_ context.Context, rec message.Record) error {
	return f.w.Write(rec)
}

// Close implements Sink.
func (f *File) Close() error {
	return f.w.Close()
}

var _ Sink = (*File)(nil)
