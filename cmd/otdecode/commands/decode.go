// Package commands implements the otdecode CLI commands.
package commands

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/thermostart/otdecode/pkg/message"
	"github.com/thermostart/otdecode/pkg/recordfile"
	"github.com/thermostart/otdecode/pkg/sink"
)

// DecodeOptions configures RunDecode.
type DecodeOptions struct {
	Format  string // jsonl or cbor
	Workers int
	Logger  *slog.Logger
}

// maxLineSize bounds one line of line-delimited input.
const maxLineSize = 16 * 1024 * 1024

// inputValue is one JSON value of the input, or the reason it could not be
// split out of the stream.
type inputValue struct {
	data json.RawMessage
	err  error
}

// ReadMessages reads stored or bare raw messages from r. The input is
// either a JSON array or line-delimited JSON values. An object with a
// "message" member is a stored message; any other object is a bare raw
// message and gets its position as ID. Values that cannot be read,
// including broken lines, are returned with a nil Message so the batch
// skips them.
func ReadMessages(r io.Reader, logger *slog.Logger) ([]message.StoredMessage, error) {
	if logger == nil {
		logger = slog.Default()
	}

	br := bufio.NewReader(r)
	first, err := peekNonSpace(br)
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var values []inputValue
	if first == '[' {
		var arr []json.RawMessage
		if err := json.NewDecoder(br).Decode(&arr); err != nil {
			return nil, fmt.Errorf("failed to read message array: %w", err)
		}
		for _, v := range arr {
			values = append(values, inputValue{data: v})
		}
	} else {
		values, err = readLines(br)
		if err != nil {
			return nil, err
		}
	}

	msgs := make([]message.StoredMessage, 0, len(values))
	for i, v := range values {
		var m message.StoredMessage
		err := v.err
		if err == nil {
			m, err = parseMessage(v.data)
		}
		if m.ID == 0 {
			m.ID = int64(i + 1)
		}
		if err != nil {
			logger.Warn("unreadable input message",
				slog.Int("index", i),
				slog.Int64("msg_id", m.ID),
				slog.String("device_id", m.DeviceHardwareID),
				slog.Any("error", err),
			)
			m.Message = nil
		}
		msgs = append(msgs, m)
	}
	return msgs, nil
}

// readLines splits line-delimited input into values. A line may hold
// several values; a syntax error drops the rest of that line as one
// unreadable value and reading resumes on the next line.
func readLines(r io.Reader) ([]inputValue, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var values []inputValue
	line := 0
	for sc.Scan() {
		line++
		text := bytes.TrimSpace(sc.Bytes())
		if len(text) == 0 {
			continue
		}
		dec := json.NewDecoder(bytes.NewReader(text))
		for {
			var v json.RawMessage
			err := dec.Decode(&v)
			if err == io.EOF {
				break
			}
			if err != nil {
				values = append(values, inputValue{
					err: fmt.Errorf("%w: line %d: %v", message.ErrMalformedMessage, line, err),
				})
				break
			}
			values = append(values, inputValue{data: v})
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read input line %d: %w", line+1, err)
	}
	return values, nil
}

func parseMessage(v json.RawMessage) (message.StoredMessage, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(v, &obj); err != nil {
		return message.StoredMessage{}, fmt.Errorf("%w: %v", message.ErrMalformedMessage, err)
	}
	if _, stored := obj["message"]; stored {
		var m message.StoredMessage
		if err := json.Unmarshal(v, &m); err != nil {
			return storedIdentity(obj), err
		}
		return m, nil
	}
	raw, err := message.ParseRawMessage(v)
	return message.StoredMessage{Message: raw}, err
}

// storedIdentity keeps whatever row metadata is readable from a stored
// message whose payload is not.
func storedIdentity(obj map[string]json.RawMessage) message.StoredMessage {
	var m message.StoredMessage
	if v, ok := obj["id"]; ok {
		_ = json.Unmarshal(v, &m.ID)
	}
	if v, ok := obj["device_hardware_id"]; ok {
		_ = json.Unmarshal(v, &m.DeviceHardwareID)
	}
	if v, ok := obj["timestamp"]; ok {
		_ = json.Unmarshal(v, &m.Timestamp)
	}
	return m
}

func peekNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		}
		return b, br.UnreadByte()
	}
}

// RunDecode decodes every message read from in and writes the records to
// out in the requested format.
func RunDecode(ctx context.Context, in io.Reader, out io.Writer, opts DecodeOptions) (message.BatchStats, error) {
	msgs, err := ReadMessages(in, opts.Logger)
	if err != nil {
		return message.BatchStats{}, err
	}

	var s sink.Sink
	switch opts.Format {
	case "", "jsonl":
		s = sink.NewJSONL(nopCloser{out})
	case "cbor":
		s = sink.NewFile(recordfile.NewStreamWriter(out))
	default:
		return message.BatchStats{}, fmt.Errorf("unknown format: %s (supported: jsonl, cbor)", opts.Format)
	}
	defer s.Close()

	dec := message.NewDecoder(opts.Logger)
	recs, stats, err := dec.DecodeBatch(ctx, msgs, message.BatchOptions{Workers: opts.Workers})
	for _, rec := range recs {
		if werr := s.Write(ctx, rec); werr != nil {
			return stats, fmt.Errorf("failed to write record %d: %w", rec.ID, werr)
		}
	}
	return stats, err
}

// nopCloser keeps sinks from closing writers they do not own.
type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }
