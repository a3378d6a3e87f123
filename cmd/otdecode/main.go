// Command otdecode decodes OpenTherm telemetry reported by Thermostart
// thermostats.
//
// Usage:
//
//	otdecode <command> [flags] [args]
//
// Commands:
//
//	decode    Decode raw or stored messages from a JSON file or stdin
//	backfill  Decode stored device messages into parsed_messages
//	view      View a record file in human-readable format
//	export    Export a record file to JSON lines or CSV
//	filter    Filter a record file and write to a new file
//	stats     Show statistics about a record file
//	prune     Delete messages older than the retention period
//	shell     Decode values interactively
//	version   Print the record schema version
//
// Examples:
//
//	# Decode a dump of stored messages to JSON lines
//	otdecode decode messages.json > records.jsonl
//
//	# Backfill the database with a config file
//	otdecode backfill -config otdecode.yaml
//
//	# Show boiler flow temperature records of one device
//	otdecode view -device 0012AB -key ot25 backfill.otr
//
//	# Export to CSV
//	otdecode export -format csv -o records.csv backfill.otr
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/thermostart/otdecode/cmd/otdecode/commands"
	"github.com/thermostart/otdecode/cmd/otdecode/interactive"
	"github.com/thermostart/otdecode/internal/config"
	"github.com/thermostart/otdecode/internal/logging"
	"github.com/thermostart/otdecode/pkg/message"
	"github.com/thermostart/otdecode/pkg/version"
)

const usage = `otdecode - OpenTherm Telemetry Decoder

Usage:
  otdecode <command> [flags] [args]

Commands:
  decode    Decode raw or stored messages from a JSON file or stdin
  backfill  Decode stored device messages into parsed_messages
  view      View a record file in human-readable format
  export    Export a record file to JSON lines or CSV
  filter    Filter a record file and write to a new file
  stats     Show statistics about a record file
  prune     Delete messages older than the retention period
  shell     Decode values interactively
  version   Print the record schema version

Use "otdecode <command> -help" for more information about a command.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "decode":
		runDecode(args)
	case "backfill":
		runBackfill(args)
	case "view":
		runView(args)
	case "export":
		runExport(args)
	case "filter":
		runFilter(args)
	case "stats":
		runStats(args)
	case "prune":
		runPrune(args)
	case "shell":
		runShell(args)
	case "version":
		fmt.Println(version.Current)
	case "-h", "-help", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

// loadConfig reads the config file and applies the log flag overrides.
func loadConfig(path, level, format string) (config.Config, *slog.Logger) {
	cfg, err := config.Load(path)
	if err != nil {
		fatal(err)
	}
	if level != "" {
		cfg.Log.Level = level
	}
	if format != "" {
		cfg.Log.Format = format
	}

	logger, err := logging.New(os.Stderr, logging.Options{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
	if err != nil {
		fatal(err)
	}
	slog.SetDefault(logger)
	return cfg, logger
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func requirePath(fs *flag.FlagSet) string {
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: record file path required")
		fs.Usage()
		os.Exit(1)
	}
	return fs.Arg(0)
}

func addFilterFlags(fs *flag.FlagSet) *commands.FilterFlags {
	var f commands.FilterFlags
	fs.StringVar(&f.DeviceID, "device", "", "Filter by device hardware ID")
	fs.StringVar(&f.Key, "key", "", "Only records with a decoded value for this key (e.g. ot25)")
	fs.StringVar(&f.TimeStart, "time-start", "", "Filter by start time (RFC3339)")
	fs.StringVar(&f.TimeEnd, "time-end", "", "Filter by end time (RFC3339)")
	return &f
}

func runDecode(args []string) {
	fs := flag.NewFlagSet("decode", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `otdecode decode - Decode raw or stored messages

Input is a JSON array or JSON lines of either bare messages
({"ot1": ["0x0f1a"], ...}) or stored messages ({"id": ..., "message": {...}}).

Usage:
  otdecode decode [flags] [input.json|-]

Flags:
`)
		fs.PrintDefaults()
	}

	configPath := fs.String("config", "", "Config file (.yaml or .toml)")
	format := fs.String("format", "jsonl", "Output format (jsonl, cbor)")
	output := fs.String("o", "", "Output file (default: stdout)")
	workers := fs.Int("workers", 0, "Concurrent decoders (default: from config)")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	cfg, logger := loadConfig(*configPath, *logLevel, "")
	if *workers == 0 {
		*workers = cfg.Backfill.Workers
	}

	var in io.Reader = os.Stdin
	if fs.NArg() > 0 && fs.Arg(0) != "-" {
		f, err := os.Open(fs.Arg(0))
		if err != nil {
			fatal(fmt.Errorf("failed to open input: %w", err))
		}
		defer f.Close()
		in = f
	}

	var out io.Writer = os.Stdout
	if *output != "" {
		f, err := os.Create(*output)
		if err != nil {
			fatal(fmt.Errorf("failed to create output file: %w", err))
		}
		defer f.Close()
		out = f
	}

	ctx, cancel := signalContext()
	defer cancel()

	stats, err := commands.RunDecode(ctx, in, out, commands.DecodeOptions{
		Format:  *format,
		Workers: *workers,
		Logger:  logger,
	})
	logger.Info("decode finished",
		slog.Int("total", stats.Total),
		slog.Int("decoded", stats.Decoded),
		slog.Int("skipped", stats.Skipped),
		slog.Int("partial", stats.Partial),
	)
	if err != nil {
		fatal(err)
	}
}

func runBackfill(args []string) {
	fs := flag.NewFlagSet("backfill", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `otdecode backfill - Decode stored device messages into parsed_messages

Usage:
  otdecode backfill [flags]

Flags:
`)
		fs.PrintDefaults()
	}

	configPath := fs.String("config", "", "Config file (.yaml or .toml)")
	dbPath := fs.String("db", "", "SQLite database path (overrides config)")
	batch := fs.Int("batch", 0, "Messages per page (overrides config)")
	workers := fs.Int("workers", 0, "Concurrent decoders (overrides config)")
	out := fs.String("out", "", "Also write records to this record file")
	checkpoint := fs.String("checkpoint", "", "Checkpoint file for resuming (overrides config)")
	afterID := fs.Int64("after-id", 0, "Resume after this device message ID")
	limit := fs.Int("limit", 0, "Stop after this many messages (0: all)")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")
	logFormat := fs.String("log-format", "", "Log format (console, json)")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	cfg, logger := loadConfig(*configPath, *logLevel, *logFormat)
	if *dbPath != "" {
		cfg.Database.Path = *dbPath
	}
	if *batch > 0 {
		cfg.Backfill.BatchSize = *batch
	}
	if *workers > 0 {
		cfg.Backfill.Workers = *workers
	}
	if *out != "" {
		cfg.Output.RecordFile = *out
	}
	if *checkpoint != "" {
		cfg.Backfill.Checkpoint = *checkpoint
	}
	if err := cfg.Validate(); err != nil {
		fatal(err)
	}

	ctx, cancel := signalContext()
	defer cancel()

	_, err := commands.RunBackfill(ctx, cfg, commands.BackfillOptions{
		AfterID: *afterID,
		Limit:   *limit,
	}, logger, os.Stdout)
	if err != nil {
		fatal(err)
	}
}

func runView(args []string) {
	fs := flag.NewFlagSet("view", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `otdecode view - View a record file in human-readable format

Usage:
  otdecode view [flags] <file.otr>

Flags:
`)
		fs.PrintDefaults()
	}

	ff := addFilterFlags(fs)

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	path := requirePath(fs)

	filter, err := ff.Build()
	if err != nil {
		fatal(err)
	}
	if err := commands.RunView(path, filter, os.Stdout); err != nil {
		fatal(err)
	}
}

func runExport(args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `otdecode export - Export a record file to JSON lines or CSV

Usage:
  otdecode export [flags] <file.otr>

Flags:
`)
		fs.PrintDefaults()
	}

	format := fs.String("format", "jsonl", "Output format (jsonl, csv)")
	output := fs.String("o", "", "Output file (default: stdout)")
	ff := addFilterFlags(fs)

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	path := requirePath(fs)

	filter, err := ff.Build()
	if err != nil {
		fatal(err)
	}
	if err := commands.RunExport(path, *format, *output, filter); err != nil {
		fatal(err)
	}
}

func runFilter(args []string) {
	fs := flag.NewFlagSet("filter", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `otdecode filter - Filter a record file and write to a new file

Usage:
  otdecode filter [flags] <file.otr>

Flags:
`)
		fs.PrintDefaults()
	}

	output := fs.String("o", "", "Output file (required)")
	ff := addFilterFlags(fs)

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	path := requirePath(fs)

	if *output == "" {
		fmt.Fprintln(os.Stderr, "Error: output file (-o) required")
		fs.Usage()
		os.Exit(1)
	}

	filter, err := ff.Build()
	if err != nil {
		fatal(err)
	}
	n, err := commands.RunFilter(path, *output, filter)
	if err != nil {
		fatal(err)
	}
	fmt.Printf("Wrote %d records to %s\n", n, *output)
}

func runStats(args []string) {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `otdecode stats - Show statistics about a record file

Usage:
  otdecode stats <file.otr>

`)
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	path := requirePath(fs)

	if err := commands.RunStats(path, os.Stdout); err != nil {
		fatal(err)
	}
}

func runPrune(args []string) {
	fs := flag.NewFlagSet("prune", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `otdecode prune - Delete messages older than the retention period

Usage:
  otdecode prune [flags]

Flags:
`)
		fs.PrintDefaults()
	}

	configPath := fs.String("config", "", "Config file (.yaml or .toml)")
	dbPath := fs.String("db", "", "SQLite database path (overrides config)")
	days := fs.Int("days", -1, "Retention in days (overrides config, 0 keeps everything)")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")
	logFormat := fs.String("log-format", "", "Log format (console, json)")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	cfg, logger := loadConfig(*configPath, *logLevel, *logFormat)
	if *dbPath != "" {
		cfg.Database.Path = *dbPath
	}
	if *days >= 0 {
		cfg.Database.RetentionDays = *days
	}
	if err := cfg.Validate(); err != nil {
		fatal(err)
	}

	ctx, cancel := signalContext()
	defer cancel()

	if _, err := commands.RunPrune(ctx, cfg, time.Now(), logger, os.Stdout); err != nil {
		fatal(err)
	}
}

func runShell(args []string) {
	fs := flag.NewFlagSet("shell", flag.ExitOnError)
	logLevel := fs.String("log-level", "warn", "Log level (debug, info, warn, error)")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	logger, err := logging.New(os.Stderr, logging.Options{Level: *logLevel})
	if err != nil {
		fatal(err)
	}

	sh, err := interactive.New(message.NewDecoder(logger))
	if err != nil {
		fatal(err)
	}

	ctx, cancel := signalContext()
	defer cancel()
	sh.Run(ctx)
}
