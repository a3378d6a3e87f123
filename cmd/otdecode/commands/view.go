package commands

import (
	"fmt"
	"io"
	"time"

	"github.com/thermostart/otdecode/pkg/message"
	"github.com/thermostart/otdecode/pkg/opentherm"
	"github.com/thermostart/otdecode/pkg/recordfile"
)

// RunView prints the records of a record file in human-readable form.
func RunView(path string, filter recordfile.Filter, w io.Writer) error {
	reader, err := recordfile.NewFilteredReader(path, filter)
	if err != nil {
		return fmt.Errorf("failed to open record file: %w", err)
	}
	defer reader.Close()

	return reader.ForEach(func(e recordfile.Entry) error {
		formatRecord(w, e.Record)
		return nil
	})
}

// formatRecord writes a human-readable representation of the record to w.
func formatRecord(w io.Writer, rec message.Record) {
	ts := "-"
	if !rec.Timestamp.IsZero() {
		ts = rec.Timestamp.UTC().Format("2006-01-02T15:04:05Z")
	}
	fmt.Fprintf(w, "%s [%s] #%d\n", ts, rec.DeviceHardwareID, rec.ID)

	for _, k := range opentherm.KnownKeys() {
		raw, ok := rec.Raw(k.Key)
		if !ok {
			continue
		}
		fmt.Fprintf(w, "  %-6s %-8s %s\n", k.Key, raw, formatParsed(rec, k))
	}

	if rec.TH != 0 || rec.TC != 0 {
		fmt.Fprintf(w, "  room %.2f°C target %.2f°C\n", float64(rec.TH)/100, float64(rec.TC)/100)
	}
	if rec.FW != nil {
		fmt.Fprintf(w, "  firmware %s\n", *rec.FW)
	}

	fmt.Fprintln(w) // Blank line between records
}

func formatParsed(rec message.Record, k opentherm.KnownKey) string {
	v, ok := rec.Parsed[k.Key]
	if !ok {
		return "(no data)"
	}
	switch v := v.(type) {
	case float64:
		if k.Unit != "" {
			return fmt.Sprintf("%g %s  %s", v, k.Unit, k.Description)
		}
		return fmt.Sprintf("%g  %s", v, k.Description)
	case string:
		return v
	}
	return fmt.Sprint(v)
}

// parseTimeFlag parses an RFC3339 time flag. An empty string yields nil.
func parseTimeFlag(name, s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, fmt.Errorf("invalid %s format: %w", name, err)
	}
	return &t, nil
}

// FilterFlags are the record filter flags shared by several commands.
type FilterFlags struct {
	DeviceID  string
	Key       string
	TimeStart string
	TimeEnd   string
}

// Build converts the flags into a recordfile.Filter.
func (f FilterFlags) Build() (recordfile.Filter, error) {
	filter := recordfile.Filter{DeviceHardwareID: f.DeviceID}

	if f.Key != "" {
		if _, ok := opentherm.Lookup(f.Key); !ok {
			return recordfile.Filter{}, fmt.Errorf("unknown key: %s", f.Key)
		}
		filter.ParsedKey = f.Key
	}

	var err error
	if filter.TimeStart, err = parseTimeFlag("time-start", f.TimeStart); err != nil {
		return recordfile.Filter{}, err
	}
	if filter.TimeEnd, err = parseTimeFlag("time-end", f.TimeEnd); err != nil {
		return recordfile.Filter{}, err
	}
	return filter, nil
}
