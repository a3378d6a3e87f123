package recordfile

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/thermostart/otdecode/pkg/message"
	"github.com/thermostart/otdecode/pkg/version"
)

// ErrIncompatibleSchema is returned for entries written with a schema
// version whose major differs from the current one.
var ErrIncompatibleSchema = errors.New("recordfile: incompatible schema version")

// Filter specifies criteria for filtering records.
// Empty/nil fields match all records for that criterion.
type Filter struct {
	// DeviceHardwareID filters by exact device hardware ID.
	DeviceHardwareID string

	// TimeStart filters records at or after this time.
	TimeStart *time.Time

	// TimeEnd filters records before this time.
	TimeEnd *time.Time

	// ParsedKey keeps only records with a decoded value for this OpenTherm key.
	ParsedKey string
}

func (f *Filter) matches(rec *message.Record) bool {
	if f.DeviceHardwareID != "" && rec.DeviceHardwareID != f.DeviceHardwareID {
		return false
	}
	if f.TimeStart != nil && rec.Timestamp.Before(*f.TimeStart) {
		return false
	}
	if f.TimeEnd != nil && !rec.Timestamp.Before(*f.TimeEnd) {
		return false
	}
	if f.ParsedKey != "" {
		if _, ok := rec.Parsed[f.ParsedKey]; !ok {
			return false
		}
	}
	return true
}

// Reader reads records from a record file.
// It provides an iterator interface for streaming large files.
type Reader struct {
	closer  io.Closer
	decoder *cbor.Decoder
	filter  Filter

	// last schema version that passed the compatibility check
	checked string
}

// NewReader creates a Reader that reads all records from the specified file.
func NewReader(path string) (*Reader, error) {
	return NewFilteredReader(path, Filter{})
}

// NewFilteredReader creates a Reader that reads records matching the filter.
func NewFilteredReader(path string, filter Filter) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	r := NewStreamReader(f, filter)
	r.closer = f
	return r, nil
}

// NewStreamReader creates a Reader on top of r. Close does not close r.
func NewStreamReader(r io.Reader, filter Filter) *Reader {
	return &Reader{
		decoder: NewDecoder(r),
		filter:  filter,
	}
}

// Next returns the next entry that matches the filter.
// Returns io.EOF when no more entries are available.
func (r *Reader) Next() (Entry, error) {
	for {
		var e Entry
		if err := r.decoder.Decode(&e); err != nil {
			if err == io.EOF {
				return Entry{}, io.EOF
			}
			return Entry{}, err
		}

		if e.SchemaVersion != r.checked {
			if err := version.CheckCompatible(e.SchemaVersion); err != nil {
				return Entry{}, fmt.Errorf("%w: %v", ErrIncompatibleSchema, err)
			}
			r.checked = e.SchemaVersion
		}

		if r.filter.matches(&e.Record) {
			return e, nil
		}
	}
}

// ForEach calls fn for every remaining matching entry until io.EOF or the
// first error.
func (r *Reader) ForEach(fn func(Entry) error) error {
	for {
		e, err := r.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if err := fn(e); err != nil {
			return err
		}
	}
}

// Close closes the underlying file.
func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}
