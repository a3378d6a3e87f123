package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/thermostart/otdecode/internal/backfill"
	"github.com/thermostart/otdecode/internal/config"
	"github.com/thermostart/otdecode/internal/store"
	"github.com/thermostart/otdecode/pkg/message"
	"github.com/thermostart/otdecode/pkg/sink"
)

// BackfillOptions carries per-run settings not kept in the config file.
type BackfillOptions struct {
	AfterID int64
	Limit   int
}

// buildSinks opens the store sink plus any outputs configured. The returned
// sink closes the extra outputs but not the store.
func buildSinks(cfg config.Config, db *store.Store, logger *slog.Logger) (sink.Sink, error) {
	outputs := []sink.Sink{storeSink{db}}

	closeAll := func() {
		for _, s := range outputs {
			s.Close()
		}
	}

	if cfg.Output.RecordFile != "" {
		f, err := sink.OpenFile(cfg.Output.RecordFile)
		if err != nil {
			closeAll()
			return nil, fmt.Errorf("failed to open record file: %w", err)
		}
		outputs = append(outputs, f)
	}

	if cfg.Output.JSONL != "" {
		f, err := os.OpenFile(cfg.Output.JSONL, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			closeAll()
			return nil, fmt.Errorf("failed to open jsonl output: %w", err)
		}
		outputs = append(outputs, sink.NewJSONL(f))
	}

	if cfg.MQTT.Enabled() {
		m, err := sink.DialMQTT(sink.MQTTOptions{
			Broker:      cfg.MQTT.Broker,
			ClientID:    cfg.MQTT.ClientID,
			Username:    cfg.MQTT.Username,
			Password:    cfg.MQTT.Password,
			TopicPrefix: cfg.MQTT.TopicPrefix,
			QoS:         byte(cfg.MQTT.QoS),
			Retain:      cfg.MQTT.Retain,
			Timeout:     cfg.MQTT.PublishTimeout(),
		})
		if err != nil {
			closeAll()
			return nil, err
		}
		logger.Info("publishing records", slog.String("broker", cfg.MQTT.Broker))
		outputs = append(outputs, m)
	}

	if logger.Enabled(context.Background(), slog.LevelDebug) {
		outputs = append(outputs, sink.NewSlog(logger))
	}

	return sink.NewMulti(outputs...), nil
}

// storeSink writes to the store without taking ownership of it.
type storeSink struct {
	db *store.Store
}

func (s storeSink) Write(ctx context.Context, rec message.Record) error {
	return s.db.SaveParsed(ctx, rec)
}

func (storeSink) Close() error { return nil }

// RunBackfill decodes every stored device message into parsed_messages and
// the configured outputs, then prints a summary to w.
func RunBackfill(ctx context.Context, cfg config.Config, opts BackfillOptions, logger *slog.Logger, w io.Writer) (backfill.Report, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := store.Open(cfg.Database.Path)
	if err != nil {
		return backfill.Report{}, err
	}
	defer db.Close()
	db.SetLogger(logger)

	total, err := db.CountDeviceMessages(ctx)
	if err != nil {
		return backfill.Report{}, fmt.Errorf("failed to count device messages: %w", err)
	}

	afterID := opts.AfterID
	var checkpoints *backfill.CheckpointStore
	if cfg.Backfill.Checkpoint != "" {
		checkpoints = backfill.NewCheckpointStore(cfg.Backfill.Checkpoint)
		cp, err := checkpoints.Load()
		if err != nil {
			return backfill.Report{}, fmt.Errorf("failed to load checkpoint: %w", err)
		}
		if cp != nil && afterID == 0 {
			afterID = cp.LastID
			logger.Info("resuming from checkpoint",
				slog.String("run_id", cp.RunID),
				slog.Int64("last_id", cp.LastID),
			)
		}
	}

	out, err := buildSinks(cfg, db, logger)
	if err != nil {
		return backfill.Report{}, err
	}
	defer out.Close()

	runner := &backfill.Runner{
		Source:    db,
		Sink:      out,
		Decoder:   message.NewDecoder(logger),
		Logger:    logger,
		BatchSize: cfg.Backfill.BatchSize,
		Workers:   cfg.Backfill.Workers,
		AfterID:   afterID,
		Limit:     opts.Limit,
		OnPage: func(r backfill.Report) {
			logger.Info("progress",
				slog.Int("read", r.Read),
				slog.Int64("total", total),
				slog.Int64("last_id", r.LastID),
			)
			if checkpoints != nil && r.LastID > afterID {
				if err := checkpoints.Save(backfill.FromReport(r)); err != nil {
					logger.Warn("checkpoint save failed", slog.Any("error", err))
				}
			}
		},
	}

	rep, err := runner.Run(ctx)
	printReport(w, rep)
	return rep, err
}

func printReport(w io.Writer, r backfill.Report) {
	fmt.Fprintf(w, "Run:          %s\n", r.RunID)
	fmt.Fprintf(w, "Read:         %d\n", r.Read)
	fmt.Fprintf(w, "Written:      %d\n", r.Written)
	fmt.Fprintf(w, "Skipped:      %d\n", r.Skipped)
	fmt.Fprintf(w, "Partial:      %d (%d field errors)\n", r.Partial, r.FieldErrors)
	fmt.Fprintf(w, "Write errors: %d\n", r.WriteErrors)
	fmt.Fprintf(w, "Last ID:      %d\n", r.LastID)
	fmt.Fprintf(w, "Duration:     %s\n", r.Duration.Round(time.Millisecond))
}
