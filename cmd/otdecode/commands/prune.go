package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/thermostart/otdecode/internal/config"
	"github.com/thermostart/otdecode/internal/store"
)

// RunPrune deletes stored and decoded messages older than the configured
// retention. With retention disabled it only reports that and returns.
func RunPrune(ctx context.Context, cfg config.Config, now time.Time, logger *slog.Logger, w io.Writer) (store.PurgeResult, error) {
	if logger == nil {
		logger = slog.Default()
	}

	cutoff, ok := cfg.Database.RetentionCutoff(now)
	if !ok {
		fmt.Fprintln(w, "Retention disabled (database.retention_days = 0), nothing pruned")
		return store.PurgeResult{}, nil
	}

	db, err := store.Open(cfg.Database.Path)
	if err != nil {
		return store.PurgeResult{}, err
	}
	defer db.Close()
	db.SetLogger(logger)

	res, err := db.PurgeOlderThan(ctx, cutoff)
	if err != nil {
		return res, err
	}

	fmt.Fprintf(w, "Cutoff:          %s\n", cutoff.UTC().Format(time.RFC3339))
	fmt.Fprintf(w, "Device messages: %d\n", res.DeviceMessages)
	fmt.Fprintf(w, "Parsed messages: %d\n", res.ParsedMessages)
	return res, nil
}
