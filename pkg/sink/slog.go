package sink

import (
	"context"
	"log/slog"

	"github.com/thermostart/otdecode/pkg/message"
	"github.com/thermostart/otdecode/pkg/opentherm"
)

// Slog writes one debug line per record to an slog.Logger.
type Slog struct {
	logger *slog.Logger
}

// NewSlog creates a Slog sink. A nil logger uses slog.Default().
func NewSlog(logger *slog.Logger) *Slog {
	if logger == nil {
		logger = slog.Default()
	}
	return &Slog{logger: logger}
}

// Write implements Sink.
func (s *Slog) Write(ctx context.Context, rec message.Record) error {
	attrs := []slog.Attr{
		slog.Int64("msg_id", rec.ID),
		slog.String("device_id", rec.DeviceHardwareID),
	}
	if !rec.Timestamp.IsZero() {
		attrs = append(attrs, slog.Time("timestamp", rec.Timestamp))
	}

	for _, k := range opentherm.KnownKeys() {
		v, ok := rec.Parsed[k.Key]
		if !ok {
			continue
		}
		switch v := v.(type) {
		case float64:
			attrs = append(attrs, slog.Float64(k.Key, v))
		case string:
			attrs = append(attrs, slog.String(k.Key, v))
		}
	}

	s.logger.LogAttrs(ctx, slog.LevelDebug, "record", attrs...)
	return nil
}

// Close implements Sink.
func (s *Slog) Close() error { return nil }

var _ Sink = (*Slog)(nil)
