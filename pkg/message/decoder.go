package message

import (
	"errors"
	"log/slog"

	"github.com/thermostart/otdecode/pkg/opentherm"
)

// Decoder converts raw messages into records. It holds no per-message
// state and is safe for concurrent use.
type Decoder struct {
	logger *slog.Logger
}

// NewDecoder creates a Decoder that reports malformed fields to logger.
// A nil logger uses slog.Default().
func NewDecoder(logger *slog.Logger) *Decoder {
	return &Decoder{logger: logger}
}

func (d *Decoder) log() *slog.Logger {
	if d == nil || d.logger == nil {
		return slog.Default()
	}
	return d.logger
}

// Decode decodes a bare raw message. The returned record is always
// complete; the error joins one *FieldError per field that fell back to
// its default.
func (d *Decoder) Decode(raw RawMessage) (Record, error) {
	var rec Record
	err := d.decodeInto(&rec, raw)
	return rec, err
}

// DecodeStored decodes a stored message and carries over its identity.
func (d *Decoder) DecodeStored(m StoredMessage) (Record, error) {
	rec := Record{
		ID:               m.ID,
		DeviceHardwareID: m.DeviceHardwareID,
		Timestamp:        m.Timestamp,
	}
	err := d.decodeInto(&rec, m.Message)
	return rec, err
}

func (d *Decoder) decodeInto(rec *Record, raw RawMessage) error {
	var errs []error

	rec.OpenTherm = make(map[string]*string, len(knownKeys))
	rec.Parsed = make(map[string]any, len(knownKeys))

	for _, k := range knownKeys {
		v, ok := raw.First(k.Key)
		if !ok {
			rec.OpenTherm[k.Key] = nil
			continue
		}
		s := v
		rec.OpenTherm[k.Key] = &s

		if !opentherm.HasData(v) {
			continue
		}

		parsed, err := opentherm.Decode(k.Kind, v)
		if err != nil {
			errs = append(errs, d.fieldError(rec, k.Key, v, err))
			continue
		}
		if f, isScalar := parsed.(float64); isScalar {
			rec.Parsed[k.Key] = f
			continue
		}
		text, err := opentherm.FormatFlags(parsed)
		if err != nil {
			errs = append(errs, d.fieldError(rec, k.Key, v, err))
			continue
		}
		rec.Parsed[k.Key] = text
	}

	for _, f := range auxFields {
		v, ok := raw.First(f.name)
		if err := f.assign(rec, v, ok); err != nil {
			errs = append(errs, d.fieldError(rec, f.name, v, err))
		}
	}

	return errors.Join(errs...)
}

func (d *Decoder) fieldError(rec *Record, key, value string, err error) error {
	d.log().Warn("malformed field, using default",
		slog.Int64("msg_id", rec.ID),
		slog.String("device_id", rec.DeviceHardwareID),
		slog.String("key", key),
		slog.String("value", value),
		slog.Any("error", err),
	)
	return &FieldError{Key: key, Value: value, Err: err}
}

var defaultDecoder = &Decoder{}

// Decode decodes a raw message with a decoder logging to slog.Default().
func Decode(raw RawMessage) (Record, error) {
	return defaultDecoder.Decode(raw)
}
