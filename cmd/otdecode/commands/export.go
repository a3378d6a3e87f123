package commands

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/thermostart/otdecode/pkg/message"
	"github.com/thermostart/otdecode/pkg/recordfile"
	"github.com/thermostart/otdecode/pkg/sink"
)

// RunExport exports the record file to the specified format.
func RunExport(path, format, output string, filter recordfile.Filter) error {
	reader, err := recordfile.NewFilteredReader(path, filter)
	if err != nil {
		return fmt.Errorf("failed to open record file: %w", err)
	}
	defer reader.Close()

	var w io.Writer = os.Stdout
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	switch format {
	case "jsonl":
		return exportJSONL(reader, w)
	case "csv":
		return exportCSV(reader, w)
	default:
		return fmt.Errorf("unknown format: %s (supported: jsonl, csv)", format)
	}
}

func exportJSONL(reader *recordfile.Reader, w io.Writer) error {
	s := sink.NewJSONL(nopCloser{w})
	return reader.ForEach(func(e recordfile.Entry) error {
		if err := s.Write(context.Background(), e.Record); err != nil {
			return fmt.Errorf("failed to encode record: %w", err)
		}
		return nil
	})
}

func exportCSV(reader *recordfile.Reader, w io.Writer) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	columns := message.Columns()
	if err := cw.Write(columns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	row := make([]string, len(columns))
	err := reader.ForEach(func(e recordfile.Entry) error {
		for i, v := range e.Record.Values() {
			row[i] = csvValue(v)
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

func csvValue(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case time.Time:
		return v.UTC().Format(time.RFC3339Nano)
	}
	return fmt.Sprint(v)
}
