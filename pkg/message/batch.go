package message

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// BatchOptions configures DecodeBatch.
type BatchOptions struct {
	// Workers is the number of messages decoded concurrently.
	// Values below 1 decode sequentially.
	Workers int
}

// BatchStats summarizes a DecodeBatch call.
type BatchStats struct {
	Total       int // messages offered
	Decoded     int // records produced
	Skipped     int // messages without a readable payload
	Partial     int // records with at least one field error
	FieldErrors int // field errors across all records
}

// Add accumulates other into s.
func (s *BatchStats) Add(other BatchStats) {
	s.Total += other.Total
	s.Decoded += other.Decoded
	s.Skipped += other.Skipped
	s.Partial += other.Partial
	s.FieldErrors += other.FieldErrors
}

type batchResult struct {
	rec       Record
	attempted bool
	ok        bool
	fieldErrs int
}

// DecodeBatch decodes msgs and returns the records in input order.
// A message that cannot be decoded at all is logged and skipped; it never
// stops the batch. The error is non-nil only when ctx is cancelled, in
// which case the records decoded so far are returned.
func (d *Decoder) DecodeBatch(ctx context.Context, msgs []StoredMessage, opts BatchOptions) ([]Record, BatchStats, error) {
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}

	results := make([]batchResult, len(msgs))

	var g errgroup.Group
	g.SetLimit(workers)

	var ctxErr error
	for i := range msgs {
		if err := ctx.Err(); err != nil {
			ctxErr = err
			break
		}
		i := i
		g.Go(func() error {
			results[i] = d.decodeOne(msgs[i])
			results[i].attempted = true
			return nil
		})
	}
	_ = g.Wait()

	stats := BatchStats{Total: len(msgs)}
	records := make([]Record, 0, len(msgs))
	for i := range results {
		r := results[i]
		if r.attempted && !r.ok {
			stats.Skipped++
		}
		if !r.ok {
			continue
		}
		records = append(records, r.rec)
		stats.Decoded++
		if r.fieldErrs > 0 {
			stats.Partial++
			stats.FieldErrors += r.fieldErrs
		}
	}

	return records, stats, ctxErr
}

func (d *Decoder) decodeOne(m StoredMessage) (res batchResult) {
	defer func() {
		if p := recover(); p != nil {
			d.log().Error("message decode panicked, skipping",
				slog.Int64("msg_id", m.ID),
				slog.String("device_id", m.DeviceHardwareID),
				slog.String("panic", fmt.Sprint(p)),
			)
			res = batchResult{}
		}
	}()

	if m.Message == nil {
		d.log().Warn("message has no readable payload, skipping",
			slog.Int64("msg_id", m.ID),
			slog.String("device_id", m.DeviceHardwareID),
		)
		return batchResult{}
	}

	rec, err := d.DecodeStored(m)
	return batchResult{rec: rec, ok: true, fieldErrs: len(FieldErrors(err))}
}
