// Package interactive provides the otdecode interactive shell for decoding
// single OpenTherm values by hand.
package interactive

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"

	"github.com/thermostart/otdecode/pkg/message"
	"github.com/thermostart/otdecode/pkg/opentherm"
)

// Shell handles the interactive decode loop.
type Shell struct {
	rl      *readline.Instance
	decoder *message.Decoder
}

// New creates a new shell reading from the terminal.
func New(decoder *message.Decoder) (*Shell, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "ot> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		AutoComplete:    completer(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	return &Shell{rl: rl, decoder: decoder}, nil
}

func completer() readline.AutoCompleter {
	items := []readline.PrefixCompleterInterface{
		readline.PcItem("f88"),
		readline.PcItem("status"),
		readline.PcItem("config"),
		readline.PcItem("message"),
		readline.PcItem("keys"),
		readline.PcItem("help"),
		readline.PcItem("quit"),
	}
	for _, k := range opentherm.KnownKeys() {
		items = append(items, readline.PcItem(k.Key))
	}
	return readline.NewPrefixCompleter(items...)
}

// Stdout returns a writer that properly coordinates with the readline input.
func (s *Shell) Stdout() io.Writer {
	return s.rl.Stdout()
}

// Run starts the interactive command loop. It returns when the user quits,
// input ends or ctx is cancelled.
func (s *Shell) Run(ctx context.Context) {
	defer s.rl.Close()

	w := s.rl.Stdout()
	printHelp(w)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := s.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(w, "Exiting...")
			return
		}

		if !Execute(s.decoder, line, w) {
			return
		}
	}
}

// Execute runs one shell command and writes its output to w. It returns
// false when the command asks to quit.
func Execute(decoder *message.Decoder, line string, w io.Writer) bool {
	input := strings.TrimSpace(line)
	if input == "" {
		return true
	}

	parts := strings.Fields(input)
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "help", "?":
		printHelp(w)

	case "quit", "exit", "q":
		return false

	case "keys", "k":
		cmdKeys(w)

	case "f88":
		cmdKind(w, "f88", opentherm.FixedPoint88, args)

	case "status":
		cmdKind(w, "status", opentherm.MasterSlaveStatus, args)

	case "config":
		cmdKind(w, "config", opentherm.SlaveConfig, args)

	case "message", "m":
		cmdMessage(w, decoder, strings.TrimSpace(input[len(parts[0]):]))

	default:
		if _, ok := opentherm.Lookup(cmd); ok {
			cmdKey(w, cmd, args)
			return true
		}
		fmt.Fprintf(w, "Unknown command: %s (type 'help' for commands)\n", cmd)
	}
	return true
}

func printHelp(w io.Writer) {
	fmt.Fprintln(w, `
OpenTherm Decoder Commands:
  Decoding:
    <key> <hex>        - Decode a value for a known key, e.g. ot25 0x3c80
    f88 <hex>          - Decode an F8.8 fixed-point value
    status <hex>       - Decode master/slave status flags (ID 0)
    config <hex>       - Decode slave configuration flags (ID 3)
    message <json>     - Decode a whole message, e.g. message {"ot1": ["0x0f1a"]}

  General:
    keys               - List known OpenTherm keys
    help               - Show this help
    quit               - Exit shell`)
}

func cmdKeys(w io.Writer) {
	for _, k := range opentherm.KnownKeys() {
		unit := k.Unit
		if unit == "" {
			unit = "-"
		}
		fmt.Fprintf(w, "  %-6s %-9s %-6s %s\n", k.Key, k.Kind, unit, k.Description)
	}
}

func cmdKey(w io.Writer, key string, args []string) {
	if len(args) != 1 {
		fmt.Fprintf(w, "Usage: %s <hex>\n", key)
		return
	}
	if !opentherm.HasData(args[0]) {
		fmt.Fprintln(w, "no data")
		return
	}
	v, err := opentherm.DecodeKey(key, args[0])
	printValue(w, v, err)
}

func cmdKind(w io.Writer, name string, kind opentherm.EncodingKind, args []string) {
	if len(args) != 1 {
		fmt.Fprintf(w, "Usage: %s <hex>\n", name)
		return
	}
	v, err := opentherm.Decode(kind, args[0])
	printValue(w, v, err)
}

func printValue(w io.Writer, v any, err error) {
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return
	}
	switch v := v.(type) {
	case float64:
		fmt.Fprintf(w, "%g\n", v)
	case opentherm.Status:
		fmt.Fprintf(w, "master: %s\n", v.Master)
		fmt.Fprintf(w, "slave:  %s\n", v.Slave)
	case opentherm.SlaveConfiguration:
		fmt.Fprintf(w, "config:    %s\n", v.Config)
		fmt.Fprintf(w, "member id: %d\n", v.MemberID)
	default:
		fmt.Fprintf(w, "%v\n", v)
	}
}

func cmdMessage(w io.Writer, decoder *message.Decoder, payload string) {
	if payload == "" {
		fmt.Fprintln(w, `Usage: message {"key": ["value"], ...}`)
		return
	}
	raw, err := message.ParseRawMessage([]byte(payload))
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return
	}
	rec, err := decoder.Decode(raw)
	for _, fe := range message.FieldErrors(err) {
		fmt.Fprintf(w, "warning: %v\n", fe)
	}
	out, err := rec.MarshalJSON()
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return
	}
	fmt.Fprintln(w, string(out))
}
