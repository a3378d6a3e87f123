// Package backfill decodes stored device messages in pages and delivers the
// records to a sink.
package backfill

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/thermostart/otdecode/pkg/message"
	"github.com/thermostart/otdecode/pkg/sink"
)

// DefaultBatchSize is used when Runner.BatchSize is not positive.
const DefaultBatchSize = 500

// Source pages through stored device messages in ID order.
type Source interface {
	DeviceMessages(ctx context.Context, afterID int64, limit int) ([]message.StoredMessage, error)
}

// Runner orchestrates one backfill run.
type Runner struct {
	Source  Source
	Sink    sink.Sink
	Decoder *message.Decoder
	Logger  *slog.Logger

	// BatchSize is the number of messages read per page.
	BatchSize int

	// Workers is passed to DecodeBatch.
	Workers int

	// AfterID resumes a previous run after the given message ID.
	AfterID int64

	// Limit stops the run after this many messages. Zero means no limit.
	Limit int

	// OnPage is called after every page with the running report.
	OnPage func(Report)
}

// Report summarizes a run.
type Report struct {
	RunID       string
	Read        int
	Written     int
	Skipped     int
	Partial     int
	FieldErrors int
	WriteErrors int
	Pages       int
	LastID      int64
	Duration    time.Duration
}

func (r *Runner) log() *slog.Logger {
	if r.Logger == nil {
		return slog.Default()
	}
	return r.Logger
}

// Run reads every message after AfterID, decodes it and writes the record
// to the sink. Decode and sink failures are logged and counted per record.
// A source error or context cancellation ends the run; the report up to
// that point is returned with the error.
func (r *Runner) Run(ctx context.Context) (Report, error) {
	if r.Source == nil || r.Sink == nil {
		return Report{}, fmt.Errorf("backfill: source and sink are required")
	}

	dec := r.Decoder
	if dec == nil {
		dec = message.NewDecoder(r.log())
	}
	batchSize := r.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	rep := Report{RunID: uuid.New().String(), LastID: r.AfterID}
	start := time.Now()
	logger := r.log().With(slog.String("run_id", rep.RunID))
	logger.Info("backfill started",
		slog.Int64("after_id", r.AfterID),
		slog.Int("batch_size", batchSize),
		slog.Int("workers", r.Workers),
	)

	finish := func(err error) (Report, error) {
		rep.Duration = time.Since(start)
		attrs := []any{
			slog.Int("read", rep.Read),
			slog.Int("written", rep.Written),
			slog.Int("skipped", rep.Skipped),
			slog.Int("partial", rep.Partial),
			slog.Int("write_errors", rep.WriteErrors),
			slog.Int64("last_id", rep.LastID),
			slog.Duration("duration", rep.Duration),
		}
		if err != nil {
			logger.Warn("backfill stopped", append(attrs, slog.Any("error", err))...)
		} else {
			logger.Info("backfill finished", attrs...)
		}
		return rep, err
	}

	for {
		if err := ctx.Err(); err != nil {
			return finish(err)
		}

		limit := batchSize
		if r.Limit > 0 {
			remaining := r.Limit - rep.Read
			if remaining <= 0 {
				return finish(nil)
			}
			limit = min(limit, remaining)
		}

		page, err := r.Source.DeviceMessages(ctx, rep.LastID, limit)
		if err != nil {
			return finish(fmt.Errorf("backfill: read after %d: %w", rep.LastID, err))
		}
		if len(page) == 0 {
			return finish(nil)
		}

		recs, stats, err := dec.DecodeBatch(ctx, page, message.BatchOptions{Workers: r.Workers})
		rep.Skipped += stats.Skipped
		rep.Partial += stats.Partial
		rep.FieldErrors += stats.FieldErrors

		for _, rec := range recs {
			if werr := r.Sink.Write(ctx, rec); werr != nil {
				rep.WriteErrors++
				logger.Warn("sink write failed",
					slog.Int64("msg_id", rec.ID),
					slog.String("device_id", rec.DeviceHardwareID),
					slog.Any("error", werr),
				)
				continue
			}
			rep.Written++
		}

		if err != nil {
			// Cancelled mid-page: only count what was attempted.
			rep.Read += stats.Decoded + stats.Skipped
			return finish(err)
		}

		rep.Read += len(page)
		rep.LastID = page[len(page)-1].ID
		rep.Pages++

		logger.Debug("page done",
			slog.Int("page", rep.Pages),
			slog.Int("size", len(page)),
			slog.Int64("last_id", rep.LastID),
		)
		if r.OnPage != nil {
			r.OnPage(rep)
		}

		if len(page) < limit {
			return finish(nil)
		}
	}
}
