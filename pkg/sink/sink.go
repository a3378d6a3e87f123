package sink

import (
	"context"
	"errors"

	"github.com/thermostart/otdecode/pkg/message"
)

// Sink receives decoded records.
type Sink interface {
	// Write delivers one record. An error affects only that record.
	Write(ctx context.Context, rec message.Record) error

	// Close releases the sink's resources.
	Close() error
}

// Noop discards every record.
type Noop struct{}

// Write implements Sink.
func (Noop) Write(context.Context, message.Record) error { return nil }

// Close implements Sink.
func (Noop) Close() error { return nil }

// Multi sends records to multiple sinks.
// A failing sink does not stop delivery to the others.
type Multi struct {
	sinks []Sink
}

// NewMulti creates a Multi that sends records to all provided sinks.
// Nil sinks are ignored.
func NewMulti(sinks ...Sink) *Multi {
	m := &Multi{}
	for _, s := range sinks {
		if s != nil {
			m.sinks = append(m.sinks, s)
		}
	}
	return m
}

// Len returns the number of sinks.
func (m *Multi) Len() int {
	return len(m.sinks)
}

// Write sends rec to every sink and joins their errors.
func (m *Multi) Write(ctx context.Context, rec message.Record) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Write(ctx, rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes every sink and joins their errors.
func (m *Multi) Close() error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Compile-time interface satisfaction checks.
var (
	_ Sink = Noop{}
	_ Sink = (*Multi)(nil)
)
