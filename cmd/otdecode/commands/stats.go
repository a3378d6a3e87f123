package commands

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/thermostart/otdecode/pkg/opentherm"
	"github.com/thermostart/otdecode/pkg/recordfile"
)

// Stats holds aggregate statistics about a record file.
type Stats struct {
	TotalRecords int
	Devices      map[string]*DeviceStats
	KeysPresent  map[string]int // raw value present
	KeysDecoded  map[string]int // decoded to a value
	Schemas      map[string]int
	TimeRange    struct {
		Start time.Time
		End   time.Time
	}
}

// DeviceStats holds statistics for a single device.
type DeviceStats struct {
	FirstSeen time.Time
	LastSeen  time.Time
	Records   int
}

// CollectStats reads the record file and aggregates its statistics.
func CollectStats(path string) (*Stats, error) {
	reader, err := recordfile.NewReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open record file: %w", err)
	}
	defer reader.Close()

	stats := &Stats{
		Devices:     make(map[string]*DeviceStats),
		KeysPresent: make(map[string]int),
		KeysDecoded: make(map[string]int),
		Schemas:     make(map[string]int),
	}

	err = reader.ForEach(func(e recordfile.Entry) error {
		rec := e.Record
		stats.TotalRecords++
		stats.Schemas[e.SchemaVersion]++

		ts := rec.Timestamp
		if !ts.IsZero() {
			if stats.TimeRange.Start.IsZero() || ts.Before(stats.TimeRange.Start) {
				stats.TimeRange.Start = ts
			}
			if ts.After(stats.TimeRange.End) {
				stats.TimeRange.End = ts
			}
		}

		dev, ok := stats.Devices[rec.DeviceHardwareID]
		if !ok {
			dev = &DeviceStats{FirstSeen: ts, LastSeen: ts}
			stats.Devices[rec.DeviceHardwareID] = dev
		}
		dev.Records++
		if ts.Before(dev.FirstSeen) {
			dev.FirstSeen = ts
		}
		if ts.After(dev.LastSeen) {
			dev.LastSeen = ts
		}

		for key, raw := range rec.OpenTherm {
			if raw != nil {
				stats.KeysPresent[key]++
			}
		}
		for key := range rec.Parsed {
			stats.KeysDecoded[key]++
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read record: %w", err)
	}
	return stats, nil
}

// RunStats analyzes the record file and prints statistics.
func RunStats(path string, w io.Writer) error {
	stats, err := CollectStats(path)
	if err != nil {
		return err
	}
	printStats(w, stats)
	return nil
}

func printStats(w io.Writer, stats *Stats) {
	fmt.Fprintln(w, "=== OpenTherm Record Statistics ===")
	fmt.Fprintln(w)

	if !stats.TimeRange.Start.IsZero() {
		fmt.Fprintf(w, "Time Range: %s to %s\n",
			stats.TimeRange.Start.UTC().Format(time.RFC3339),
			stats.TimeRange.End.UTC().Format(time.RFC3339))
		fmt.Fprintf(w, "Duration:   %s\n", stats.TimeRange.End.Sub(stats.TimeRange.Start).Round(time.Second))
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Total Records: %d\n", stats.TotalRecords)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "OpenTherm Keys (present / decoded):")
	for _, k := range opentherm.KnownKeys() {
		present := stats.KeysPresent[k.Key]
		if present == 0 {
			continue
		}
		fmt.Fprintf(w, "  %-6s %6d / %-6d %s\n", k.Key, present, stats.KeysDecoded[k.Key], k.Description)
	}
	fmt.Fprintln(w)

	ids := make([]string, 0, len(stats.Devices))
	for id := range stats.Devices {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	fmt.Fprintf(w, "Devices: %d\n", len(ids))
	for _, id := range ids {
		d := stats.Devices[id]
		name := id
		if name == "" {
			name = "(unknown)"
		}
		fmt.Fprintf(w, "  %-20s %6d records", name, d.Records)
		if !d.FirstSeen.IsZero() {
			fmt.Fprintf(w, "  %s .. %s",
				d.FirstSeen.UTC().Format(time.RFC3339),
				d.LastSeen.UTC().Format(time.RFC3339))
		}
		fmt.Fprintln(w)
	}

	if len(stats.Schemas) > 1 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Schema Versions:")
		for v, n := range stats.Schemas {
			fmt.Fprintf(w, "  %-6s %d\n", v, n)
		}
	}
}
